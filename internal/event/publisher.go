package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher pushes a payload to a subscriber channel. Delivery is
// at-most-once; callers must not treat a publish failure as fatal.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Envelope wraps every published payload with an ID and timestamp so
// subscribers can deduplicate.
type Envelope struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEnvelope stamps a payload for publication.
func NewEnvelope(kind string, payload any) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// UserChannel is the per-user notification channel key.
func UserChannel(userID uint) string {
	return fmt.Sprintf("user:%d:notifications", userID)
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.rdb.Publish(ctx, channel, b).Err()
}
