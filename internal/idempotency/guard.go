// Package idempotency deduplicates retried mutating requests by client
// request id. The state-guarded preconditions already make retries safe; this
// guard just turns a duplicate into a clean conflict before any work happens.
package idempotency

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "req:"
	keyTTL    = 24 * time.Hour
)

type Guard struct {
	client *redis.Client
}

// NewGuard returns a guard over the given redis client. A nil client disables
// deduplication entirely.
func NewGuard(client *redis.Client) *Guard {
	return &Guard{client: client}
}

// Claim marks requestID as seen. It returns false if the id was already
// claimed within the TTL window.
func (g *Guard) Claim(ctx context.Context, requestID string) (bool, error) {
	if g.client == nil {
		return true, nil
	}
	return g.client.SetNX(ctx, keyPrefix+requestID, 1, keyTTL).Result()
}

// Middleware rejects duplicate mutating requests carrying an X-Request-ID the
// guard has already seen. Requests without the header pass through; a redis
// outage fails open.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			c.Next()
			return
		}
		ok, err := g.Claim(c.Request.Context(), requestID)
		if err != nil {
			// guard unavailable; the status-gated preconditions still protect us
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		c.Next()
	}
}
