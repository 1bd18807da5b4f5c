package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gofer/internal/types"
)

const (
	courierOfferKeyPrefix = "dispatch:courier:%s:offer"
	orderOfferKeyPrefix   = "dispatch:order:%s:offers"
	// Safety TTL on busy flags: a crashed coordinator must not leave a
	// courier locked forever. Kept well above the accept timeout.
	busyFlagTTL = 5 * time.Minute
	recordTTL   = 7 * 24 * time.Hour
)

// OfferStore is the shared-store side of the at-most-one-offer guarantee.
type OfferStore interface {
	// AcquireCourier atomically marks a courier as holding an offer for
	// orderID. Returns false when the courier already has an outstanding
	// offer. This MUST be a single conditional write: a read-then-write
	// here is a race between concurrent dispatch cycles.
	AcquireCourier(ctx context.Context, courierID, orderID types.ID) (bool, error)
	ReleaseCourier(ctx context.Context, courierID types.ID) error
	RecordOffer(ctx context.Context, orderID, courierID types.ID, round int) error
}

// Store implements OfferStore on Redis. The busy flag is a SET NX with a
// safety TTL; release is an unconditional DEL (the flag value is the order
// holding it, so debugging a stuck courier stays cheap).
type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) AcquireCourier(ctx context.Context, courierID, orderID types.ID) (bool, error) {
	return s.redis.SetNX(ctx, courierOfferKey(courierID), string(orderID), busyFlagTTL).Result()
}

func (s *Store) ReleaseCourier(ctx context.Context, courierID types.ID) error {
	return s.redis.Del(ctx, courierOfferKey(courierID)).Err()
}

// RecordOffer appends the offer to the order's audit trail.
func (s *Store) RecordOffer(ctx context.Context, orderID, courierID types.ID, round int) error {
	key := fmt.Sprintf(orderOfferKeyPrefix, string(orderID))
	entry := fmt.Sprintf("%d:%s:%s", round, string(courierID), time.Now().UTC().Format(time.RFC3339))
	pipe := s.redis.Pipeline()
	pipe.RPush(ctx, key, entry)
	pipe.Expire(ctx, key, recordTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func courierOfferKey(courierID types.ID) string {
	return fmt.Sprintf(courierOfferKeyPrefix, string(courierID))
}
