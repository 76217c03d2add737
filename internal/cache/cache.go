// Package cache keeps recently read carts in Redis. The database stays the
// source of truth; every cart write drops the cached copy.
package cache

import (
	"context"
	"errors"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
