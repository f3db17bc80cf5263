package mqhandler

import (
	"context"
	"fmt"
	"time"

	"freework/internal/model"
)

const dedupTTL = time.Hour

// NotificationStore is the slice of the repository the handlers need.
type NotificationStore interface {
	Insert(ctx context.Context, n *model.Notification) error
}

// Deduper guards against redelivered events being processed twice.
type Deduper interface {
	SetNX(ctx context.Context, key string, ttl time.Duration) bool
}

func dedupKey(handler string, id int) string {
	return fmt.Sprintf("dedup:%s:%d", handler, id)
}
