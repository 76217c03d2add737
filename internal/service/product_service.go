package service

import (
	"context"
	"errors"
	"strings"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/LeoQ9904/back-ecommerce/internal/search"
	"github.com/sirupsen/logrus"
)

const defaultTopRated = 10

type ProductService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	log        logrus.FieldLogger
}

func NewProductService(repo repository.ProductRepository, categories repository.CategoryRepository, log logrus.FieldLogger) *ProductService {
	return &ProductService{repo: repo, categories: categories, log: log}
}

func (s *ProductService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return nil, domain.Errorf(domain.ErrValidation, "product name is required")
	}
	if product.Price < 0 {
		return nil, domain.Errorf(domain.ErrValidation, "price cannot be negative")
	}
	if product.Stock < 0 {
		return nil, domain.Errorf(domain.ErrInvalidStock, "stock cannot be negative")
	}
	product.IsActive = true

	if err := s.repo.Create(ctx, product); err != nil {
		logFailure(s.log, err, "failed to create product", logrus.Fields{"name": product.Name})
		return nil, err
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, filter domain.ProductFilter, page, limit int) (*domain.ProductPage, error) {
	products, total, err := s.repo.FindAll(ctx, filter, page, limit)
	if err != nil {
		logFailure(s.log, err, "failed to list products", nil)
		return nil, err
	}
	return domain.NewProductPage(products, total, page, limit), nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return s.repo.FindBySKU(ctx, sku)
}

// Search matches term against name, description, category, brand and tags.
// A blank term yields an empty page.
func (s *ProductService) Search(ctx context.Context, term string, page, limit int) (*domain.ProductPage, error) {
	pred := search.BuildPredicate(term)
	if pred.Empty() {
		return domain.NewProductPage(nil, 0, page, limit), nil
	}
	products, total, err := s.repo.Search(ctx, pred, page, limit)
	if err != nil {
		logFailure(s.log, err, "failed to search products", logrus.Fields{"term": term})
		return nil, err
	}
	return domain.NewProductPage(products, total, page, limit), nil
}

// SearchInCategory searches the products of one category. When a principal
// category has no direct matches the search moves on to its subcategories.
// An unknown category name is searched as a plain product category.
func (s *ProductService) SearchInCategory(ctx context.Context, category, term string, page, limit int) (*domain.ProductPage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.Errorf(domain.ErrValidation, "category is required")
	}
	pred := search.BuildPredicate(term)

	resolved, err := s.categories.FindByName(ctx, category)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logFailure(s.log, err, "failed to resolve category", logrus.Fields{"category": category})
		return nil, err
	}

	products, total, err := s.repo.SearchInCategories(ctx, []string{category}, pred, page, limit)
	if err != nil {
		logFailure(s.log, err, "failed to search category", logrus.Fields{"category": category})
		return nil, err
	}
	if total > 0 || resolved == nil || !resolved.IsPrincipal() {
		return domain.NewProductPage(products, total, page, limit), nil
	}

	children, err := s.categories.FindByParentID(ctx, resolved.ID)
	if err != nil {
		logFailure(s.log, err, "failed to list subcategories", logrus.Fields{"category": category})
		return nil, err
	}
	if len(children) == 0 {
		return domain.NewProductPage(products, total, page, limit), nil
	}

	s.log.WithFields(logrus.Fields{"category": category, "term": term, "subcategories": len(children)}).
		Debug("no direct matches, searching subcategories")

	products, total, err = s.repo.SearchInCategories(ctx, domain.ChildNames(children), pred, page, limit)
	if err != nil {
		logFailure(s.log, err, "failed to search subcategories", logrus.Fields{"category": category})
		return nil, err
	}
	return domain.NewProductPage(products, total, page, limit), nil
}

func (s *ProductService) ByCategory(ctx context.Context, category string, page, limit int) (*domain.ProductPage, error) {
	products, total, err := s.repo.FindByCategory(ctx, category, page, limit)
	if err != nil {
		logFailure(s.log, err, "failed to list products by category", logrus.Fields{"category": category})
		return nil, err
	}
	return domain.NewProductPage(products, total, page, limit), nil
}

func (s *ProductService) ByPriceRange(ctx context.Context, min, max float64, page, limit int) (*domain.ProductPage, error) {
	if min < 0 || max < 0 {
		return nil, domain.Errorf(domain.ErrValidation, "prices cannot be negative")
	}
	if min > max {
		return nil, domain.Errorf(domain.ErrValidation, "minPrice must not exceed maxPrice")
	}
	products, total, err := s.repo.FindByPriceRange(ctx, min, max, page, limit)
	if err != nil {
		logFailure(s.log, err, "failed to list products by price", nil)
		return nil, err
	}
	return domain.NewProductPage(products, total, page, limit), nil
}

func (s *ProductService) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold <= 0 {
		threshold = domain.LowStockThreshold
	}
	return s.repo.FindLowStock(ctx, threshold)
}

func (s *ProductService) OutOfStock(ctx context.Context) ([]domain.Product, error) {
	return s.repo.FindOutOfStock(ctx)
}

func (s *ProductService) TopRated(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultTopRated
	}
	return s.repo.FindTopRated(ctx, limit)
}

func (s *ProductService) Statistics(ctx context.Context) (*domain.ProductStatistics, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		logFailure(s.log, err, "failed to compute product statistics", nil)
		return nil, err
	}
	return stats, nil
}

func (s *ProductService) Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "product name cannot be empty")
	}
	if update.Price != nil && *update.Price < 0 {
		return nil, domain.Errorf(domain.ErrValidation, "price cannot be negative")
	}
	if update.Stock != nil && *update.Stock < 0 {
		return nil, domain.Errorf(domain.ErrInvalidStock, "stock cannot be negative")
	}

	product, err := s.repo.Update(ctx, id, update)
	if err != nil {
		logFailure(s.log, err, "failed to update product", logrus.Fields{"id": id})
		return nil, err
	}
	return product, nil
}

// UpdateStock applies add, subtract or set to the product's stock. The
// result is checked before anything is written.
func (s *ProductService) UpdateStock(ctx context.Context, id string, quantity int, op domain.StockOperation) (*domain.Product, error) {
	if !op.Valid() {
		return nil, domain.Errorf(domain.ErrValidation, "operation must be one of add, subtract, set")
	}
	product, err := s.repo.AdjustStock(ctx, id, quantity, op)
	if err != nil {
		logFailure(s.log, err, "failed to update stock", logrus.Fields{"id": id, "operation": op})
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"id": id, "operation": op, "quantity": quantity, "stock": product.Stock}).
		Debug("stock updated")
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *ProductService) HardDelete(ctx context.Context, id string) error {
	return s.repo.HardDelete(ctx, id)
}
