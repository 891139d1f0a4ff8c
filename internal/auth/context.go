package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Role string

const (
	RoleAdmin         Role = "admin"
	RoleWarehouse     Role = "warehouse"
	RoleBranchManager Role = "branch_manager"
	RoleBranchStaff   Role = "branch_staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWarehouse, RoleBranchManager, RoleBranchStaff:
		return true
	}
	return false
}

// Caller is the resolved identity attached to every request. Authentication
// happens upstream; this service only authorizes against it.
type Caller struct {
	UserID     string
	Role       Role
	LocationID string
}

const callerKey = "auth_caller"

// Middleware extracts the caller identity from the trusted gateway headers.
// Requests without a resolved identity are rejected before reaching handlers.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := Caller{
			UserID:     c.GetHeader("X-User-ID"),
			Role:       Role(c.GetHeader("X-User-Role")),
			LocationID: c.GetHeader("X-Location-ID"),
		}
		if caller.UserID == "" || !caller.Role.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid caller identity"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// FromContext returns the caller set by Middleware.
func FromContext(c *gin.Context) Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(Caller); ok {
			return caller
		}
	}
	return Caller{}
}
