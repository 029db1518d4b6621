package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const referenceTTL = 24 * time.Hour

// ReferenceGuard makes payment processing idempotent across the confirm
// endpoint, the webhook and every API instance.
// Key format: payment:ref:<reference>
type ReferenceGuard struct {
	client *redis.Client
}

func NewReferenceGuard(client *redis.Client) *ReferenceGuard {
	return &ReferenceGuard{client: client}
}

// Claim reports whether the caller won the reference. Only the winner may
// record the payment.
func (g *ReferenceGuard) Claim(ctx context.Context, reference string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(reference), "1", referenceTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim reference: %w", err)
	}
	return ok, nil
}

// Release gives a claimed reference back after a failed write so a retry
// can record it.
func (g *ReferenceGuard) Release(ctx context.Context, reference string) error {
	return g.client.Del(ctx, g.key(reference)).Err()
}

func (g *ReferenceGuard) key(reference string) string {
	return "payment:ref:" + reference
}
