// Package notify holds the post-commit collaborator contracts: user-facing
// notifications and the audit trail. Both are best-effort; a sink failure is
// logged and never propagated into the business transaction.
package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event is one user-facing notification addressed to a location or a role.
type Event struct {
	Target  string `json:"target"` // location id or role name
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

const channelPrefix = "notifications:"

// RedisNotifier publishes events on a per-target redis channel for the
// messaging service to pick up. With no redis client configured it degrades
// to log-only.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

func (n *RedisNotifier) Notify(ctx context.Context, ev Event) {
	n.logger.Info("notification",
		zap.String("target", ev.Target),
		zap.String("type", ev.Type),
		zap.String("title", ev.Title),
	)
	if n.client == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Warn("notification marshal failed", zap.Error(err))
		return
	}
	if err := n.client.Publish(ctx, channelPrefix+ev.Target, payload).Err(); err != nil {
		n.logger.Warn("notification publish failed", zap.String("target", ev.Target), zap.Error(err))
	}
}
