package service

import (
	"context"
	"strings"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryService resolves the two-level category hierarchy.
type CategoryService struct {
	repo repository.CategoryRepository
	log  logrus.FieldLogger
}

func NewCategoryService(repo repository.CategoryRepository, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

func (s *CategoryService) FindAll(ctx context.Context) ([]domain.Category, error) {
	return s.repo.FindAll(ctx)
}

func (s *CategoryService) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	return s.repo.FindByName(ctx, name)
}

// FindChildren lists the subcategories whose parent is parentID.
func (s *CategoryService) FindChildren(ctx context.Context, parentID string) ([]domain.Category, error) {
	oid, err := primitive.ObjectIDFromHex(parentID)
	if err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "invalid id %q", parentID)
	}
	return s.repo.FindByParentID(ctx, oid)
}

// Create stores a category. A parent, when given, must exist and be a
// principal category so the hierarchy never grows past two levels.
func (s *CategoryService) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, domain.Errorf(domain.ErrValidation, "category name is required")
	}

	if category.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, category.ParentID.Hex())
		if err != nil {
			return nil, err
		}
		if !parent.IsPrincipal() {
			return nil, domain.Errorf(domain.ErrValidation, "category %q is a subcategory and cannot have children", parent.Name)
		}
	}

	if err := s.repo.Create(ctx, category); err != nil {
		logFailure(s.log, err, "failed to create category", logrus.Fields{"category": category.Name})
		return nil, err
	}
	return category, nil
}
