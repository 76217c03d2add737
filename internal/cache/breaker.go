package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// ErrCacheUnavailable is returned while the breaker is open.
var ErrCacheUnavailable = errors.New("cache unavailable")

// BreakerCache stops calling a failing cache after maxFailures consecutive
// errors and probes it again once timeout has passed.
//
// Deletes bypass the breaker so invalidation is attempted on every write. A
// key whose delete failed is never read back until a later delete or set on
// it succeeds.
type BreakerCache struct {
	next CartCache
	cb   *gobreaker.CircuitBreaker[*domain.Cart]

	mu    sync.Mutex
	stale map[string]struct{}
}

func NewBreakerCache(next CartCache, maxFailures uint32, timeout time.Duration, log logrus.FieldLogger) *BreakerCache {
	if maxFailures == 0 {
		maxFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        "cart-cache",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("cache breaker state changed")
		},
	}
	return &BreakerCache{
		next:  next,
		cb:    gobreaker.NewCircuitBreaker[*domain.Cart](settings),
		stale: make(map[string]struct{}),
	}
}

func (b *BreakerCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	if b.isStale(userID) {
		// retry the lost invalidation instead of serving the old entry
		_, err := b.cb.Execute(func() (*domain.Cart, error) {
			return nil, b.next.Delete(ctx, userID)
		})
		if err != nil {
			return nil, translate(err)
		}
		b.setStale(userID, false)
		return nil, ErrCacheMiss
	}
	cart, err := b.cb.Execute(func() (*domain.Cart, error) {
		return b.next.Get(ctx, userID)
	})
	return cart, translate(err)
}

func (b *BreakerCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	_, err := b.cb.Execute(func() (*domain.Cart, error) {
		return nil, b.next.Set(ctx, userID, cart)
	})
	if err != nil {
		return translate(err)
	}
	b.setStale(userID, false)
	return nil
}

func (b *BreakerCache) Delete(ctx context.Context, userID string) error {
	if err := b.next.Delete(ctx, userID); err != nil {
		b.setStale(userID, true)
		return err
	}
	b.setStale(userID, false)
	return nil
}

// State reports the breaker state ("closed", "half-open" or "open").
func (b *BreakerCache) State() string {
	return b.cb.State().String()
}

func (b *BreakerCache) isStale(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.stale[userID]
	return ok
}

func (b *BreakerCache) setStale(userID string, stale bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if stale {
		b.stale[userID] = struct{}{}
	} else {
		delete(b.stale, userID)
	}
}

func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCacheUnavailable
	}
	return err
}
