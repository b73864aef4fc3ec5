package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OnceMarker records that something happened so it is not repeated within
// ttl. MarkOnce returns true the first time a key is marked.
type OnceMarker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ReminderKey marks an appointment whose reminder has been sent.
func ReminderKey(appointmentID uuid.UUID) string {
	return fmt.Sprintf("reminder:sent:%s", appointmentID)
}

type redisMarker struct {
	client *redis.Client
}

func NewRedisMarker(client *redis.Client) OnceMarker {
	return &redisMarker{client: client}
}

func (m *redisMarker) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := m.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark %s: %w", key, err)
	}
	return ok, nil
}
