package repository

import (
	"context"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/search"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductRepository defines the data operations on the products collection.
// Listings only ever return active products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindAll(ctx context.Context, filter domain.ProductFilter, page, limit int) ([]domain.Product, int64, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	Search(ctx context.Context, pred search.Predicate, page, limit int) ([]domain.Product, int64, error)
	SearchInCategories(ctx context.Context, categories []string, pred search.Predicate, page, limit int) ([]domain.Product, int64, error)
	FindByCategory(ctx context.Context, category string, page, limit int) ([]domain.Product, int64, error)
	FindByPriceRange(ctx context.Context, min, max float64, page, limit int) ([]domain.Product, int64, error)
	FindLowStock(ctx context.Context, threshold int) ([]domain.Product, error)
	FindOutOfStock(ctx context.Context) ([]domain.Product, error)
	FindTopRated(ctx context.Context, limit int) ([]domain.Product, error)
	Statistics(ctx context.Context) (*domain.ProductStatistics, error)
	Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	AdjustStock(ctx context.Context, id string, quantity int, op domain.StockOperation) (*domain.Product, error)
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
	UpsertBySKU(ctx context.Context, product *domain.Product) (bool, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindAll(ctx context.Context) ([]domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	FindByParentID(ctx context.Context, parentID primitive.ObjectID) ([]domain.Category, error)
	UpsertByName(ctx context.Context, category *domain.Category) (*domain.Category, bool, error)
}

// CartRepository stores one cart per user. Writes after the initial insert go
// through UpdateWithVersion so concurrent writers cannot lose each other's items.
type CartRepository interface {
	Insert(ctx context.Context, cart *domain.Cart) error
	GetByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	FindAll(ctx context.Context) ([]domain.Cart, error)
	UpdateWithVersion(ctx context.Context, cart *domain.Cart) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteByID(ctx context.Context, id string) error
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	FindByFirebaseUID(ctx context.Context, uid string) (*domain.Customer, error)
	UpdateByFirebaseUID(ctx context.Context, uid string, update domain.CustomerUpdate) (*domain.Customer, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindAll(ctx context.Context) ([]domain.Notification, error)
	FindActive(ctx context.Context, now time.Time) ([]domain.Notification, error)
	FindByStatus(ctx context.Context, status domain.NotificationStatus) ([]domain.Notification, error)
	Search(ctx context.Context, pred search.Predicate) ([]domain.Notification, error)
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	Update(ctx context.Context, id string, update domain.NotificationUpdate) (*domain.Notification, error)
	ToggleVisibility(ctx context.Context, id string) (*domain.Notification, error)
	ArchiveExpired(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
	UpsertByTitle(ctx context.Context, n *domain.Notification) (bool, error)
}
