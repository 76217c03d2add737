package service

import (
	"context"
	"errors"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/cache"
	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const defaultCartRetries = 3

type CartService struct {
	repo       repository.CartRepository
	cache      cache.CartCache
	log        logrus.FieldLogger
	maxRetries int
	sfg        singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, log logrus.FieldLogger, maxRetries int) *CartService {
	if maxRetries <= 0 {
		maxRetries = defaultCartRetries
	}
	return &CartService{
		repo:       repo,
		cache:      cache,
		log:        log,
		maxRetries: maxRetries,
	}
}

// AddProductToCart creates the user's cart or merges the product into it.
// Concurrent writers are detected through the cart version; the operation is
// retried a bounded number of times before failing with domain.ErrConflict.
func (s *CartService) AddProductToCart(ctx context.Context, userID string, product domain.CartProduct, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.Errorf(domain.ErrValidation, "user id is required")
	}
	if quantity < 1 {
		return nil, domain.Errorf(domain.ErrValidation, "quantity must be at least 1")
	}
	if product.Name == "" {
		return nil, domain.Errorf(domain.ErrValidation, "product name is required")
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		cart, err := s.repo.GetByUserID(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			cart = domain.NewCart(userID, product, quantity)
			err = s.repo.Insert(ctx, cart)
			if errors.Is(err, domain.ErrDuplicateKey) {
				// created by a concurrent request; merge into it instead
				continue
			}
		case err == nil:
			cart.AddProduct(product, quantity)
			err = s.repo.UpdateWithVersion(ctx, cart)
			if errors.Is(err, domain.ErrConflict) {
				s.log.WithFields(logrus.Fields{"user_id": userID, "attempt": attempt}).Debug("cart version conflict, retrying")
				continue
			}
		}
		if err != nil {
			logFailure(s.log, err, "failed to add product to cart", logrus.Fields{"user_id": userID})
			return nil, err
		}

		s.invalidateCache(userID)
		return cart, nil
	}

	s.log.WithField("user_id", userID).Warn("cart update retries exhausted")
	return nil, domain.Errorf(domain.ErrConflict, "cart for user %s is being modified concurrently, try again", userID)
}

func (s *CartService) CreateCart(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if cart.UserID == "" {
		return nil, domain.Errorf(domain.ErrValidation, "user id is required")
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cart.Recalculate()

	if err := s.repo.Insert(ctx, cart); err != nil {
		logFailure(s.log, err, "failed to create cart", logrus.Fields{"user_id": cart.UserID})
		return nil, err
	}
	s.invalidateCache(cart.UserID)
	return cart, nil
}

func (s *CartService) GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).WithField("user_id", userID).Warn("cache get failed")
		}

		cart, err = s.repo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}

		go func(c domain.Cart) {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, userID, &c); err != nil {
				s.log.WithError(err).WithField("user_id", userID).Warn("cache set failed")
			}
		}(*cart)

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight must not share the pointer
	cart := *v.(*domain.Cart)
	return &cart, nil
}

func (s *CartService) GetCartByID(ctx context.Context, id string) (*domain.Cart, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CartService) FindAll(ctx context.Context) ([]domain.Cart, error) {
	return s.repo.FindAll(ctx)
}

// UpdateCart replaces the given fields of the cart with id and recomputes the
// total.
func (s *CartService) UpdateCart(ctx context.Context, id string, update domain.CartUpdate) (*domain.Cart, error) {
	return s.update(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return s.repo.GetByID(ctx, id)
	}, update)
}

func (s *CartService) UpdateCartByUserID(ctx context.Context, userID string, update domain.CartUpdate) (*domain.Cart, error) {
	return s.update(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return s.repo.GetByUserID(ctx, userID)
	}, update)
}

func (s *CartService) update(ctx context.Context, load func(context.Context) (*domain.Cart, error), update domain.CartUpdate) (*domain.Cart, error) {
	if update.Items != nil {
		for _, item := range *update.Items {
			if item.Quantity < 1 {
				return nil, domain.Errorf(domain.ErrValidation, "quantity must be at least 1")
			}
		}
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		cart, err := load(ctx)
		if err != nil {
			return nil, err
		}
		cart.Apply(update)

		err = s.repo.UpdateWithVersion(ctx, cart)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			logFailure(s.log, err, "failed to update cart", logrus.Fields{"user_id": cart.UserID})
			return nil, err
		}
		s.invalidateCache(cart.UserID)
		return cart, nil
	}
	return nil, domain.Errorf(domain.ErrConflict, "cart is being modified concurrently, try again")
}

// DeleteCart removes the cart with id and returns what was deleted.
func (s *CartService) DeleteCart(ctx context.Context, id string) (*domain.Cart, error) {
	cart, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return nil, err
	}
	s.invalidateCache(cart.UserID)
	return cart, nil
}

func (s *CartService) DeleteCartByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return nil, err
	}
	s.invalidateCache(userID)
	return cart, nil
}

// ClearCart drops the user's cart after checkout. A missing cart is not an
// error.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logFailure(s.log, err, "failed to clear cart", logrus.Fields{"user_id": userID})
		return err
	}
	s.invalidateCache(userID)
	return nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cache invalidate failed")
	}
}
