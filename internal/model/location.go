package model

import "time"

type LocationType string

const (
	LocationWarehouse LocationType = "warehouse"
	LocationBranch    LocationType = "branch"
)

// Location is owned by the admin service; this service only reads it to
// validate references and authorize callers against it.
type Location struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Type      LocationType `db:"type" json:"type"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
