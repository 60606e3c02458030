package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL covers the redelivery window of the billing provider;
// webhook deliveries older than this are treated as new events.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore records processed event IDs so webhook redeliveries and
// bus retries are applied at most once.
type IdempotencyStore interface {
	// MarkProcessed atomically records eventID for the given TTL. It
	// reports true on first sight and false when the ID was already
	// recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether eventID has been recorded, without
	// recording it.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close releases the store's resources.
	Close() error
}

// IdempotencyConfig tunes the dedupe check around an event handler.
type IdempotencyConfig struct {
	// TTL is how long a processed event ID is remembered
	TTL time.Duration

	// Enabled toggles the dedupe check entirely
	Enabled bool
}

// DefaultIdempotencyConfig enables dedupe with the provider TTL.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     DefaultIdempotencyTTL,
		Enabled: true,
	}
}
