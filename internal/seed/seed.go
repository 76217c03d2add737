// Package seed loads the default catalog data. Every insert is an upsert on a
// uniquely indexed field (category name, notification title, product sku), so
// running it again, or from several instances at once, never duplicates a
// record.
package seed

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/repository"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

const defaultUnit = "unidad"

// Result counts what a seed run did.
type Result struct {
	Inserted int
	Existing int
	Failed   int
}

func (r *Result) record(inserted bool, err error) {
	switch {
	case err != nil:
		r.Failed++
	case inserted:
		r.Inserted++
	default:
		r.Existing++
	}
}

type categoryEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type categoryFile struct {
	Principal     []categoryEntry `yaml:"principal"`
	Subcategories []struct {
		Parent   string          `yaml:"parent"`
		Children []categoryEntry `yaml:"children"`
	} `yaml:"subcategories"`
}

type notificationEntry struct {
	Title           string                    `yaml:"title"`
	Description     string                    `yaml:"description"`
	BackgroundImage string                    `yaml:"backgroundImage"`
	Status          domain.NotificationStatus `yaml:"status"`
	IsVisible       bool                      `yaml:"isVisible"`
	Priority        int                       `yaml:"priority"`
	ExpiresInDays   int                       `yaml:"expiresInDays"`
}

type productEntry struct {
	SKU         string   `yaml:"sku"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       float64  `yaml:"price"`
	Stock       int      `yaml:"stock"`
	Category    string   `yaml:"category"`
	Unit        string   `yaml:"unit"`
	Brand       string   `yaml:"brand"`
	Weight      *float64 `yaml:"weight"`
	Tags        []string `yaml:"tags"`
	Rating      *float64 `yaml:"rating"`
	ReviewCount int      `yaml:"reviewCount"`
	ImageURL    string   `yaml:"imageUrl"`
}

type Seeder struct {
	categories    repository.CategoryRepository
	notifications repository.NotificationRepository
	products      repository.ProductRepository
	log           logrus.FieldLogger
	now           func() time.Time
}

func NewSeeder(
	categories repository.CategoryRepository,
	notifications repository.NotificationRepository,
	products repository.ProductRepository,
	log logrus.FieldLogger,
) *Seeder {
	return &Seeder{
		categories:    categories,
		notifications: notifications,
		products:      products,
		log:           log,
		now:           time.Now,
	}
}

func load[T any](name string) (T, error) {
	var out T
	raw, err := dataFS.ReadFile("data/" + name)
	if err != nil {
		return out, fmt.Errorf("read seed file %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("parse seed file %s: %w", name, err)
	}
	return out, nil
}

// SeedCategories inserts the principal categories and then their
// subcategories, linking each to its parent's id.
func (s *Seeder) SeedCategories(ctx context.Context) (Result, error) {
	var res Result
	data, err := load[categoryFile]("categories.yaml")
	if err != nil {
		return res, err
	}

	for _, entry := range data.Principal {
		_, inserted, err := s.categories.UpsertByName(ctx, &domain.Category{
			Name:        entry.Name,
			Description: entry.Description,
			IsActive:    true,
		})
		if err != nil {
			s.log.WithError(err).WithField("category", entry.Name).Error("failed to seed category")
		}
		res.record(inserted, err)
	}

	for _, group := range data.Subcategories {
		parent, err := s.categories.FindByName(ctx, group.Parent)
		if err != nil {
			s.log.WithError(err).WithField("category", group.Parent).Error("parent category missing, skipping its subcategories")
			res.Failed += len(group.Children)
			continue
		}
		for _, entry := range group.Children {
			_, inserted, err := s.categories.UpsertByName(ctx, &domain.Category{
				Name:        entry.Name,
				Description: entry.Description,
				IsActive:    true,
				ParentID:    &parent.ID,
			})
			if err != nil {
				s.log.WithError(err).WithField("category", entry.Name).Error("failed to seed subcategory")
			}
			res.record(inserted, err)
		}
	}

	s.logResult("categories", res)
	return res, nil
}

func (s *Seeder) SeedNotifications(ctx context.Context) (Result, error) {
	var res Result
	entries, err := load[[]notificationEntry]("notifications.yaml")
	if err != nil {
		return res, err
	}

	now := s.now()
	for _, entry := range entries {
		n := &domain.Notification{
			Title:           entry.Title,
			Description:     entry.Description,
			BackgroundImage: entry.BackgroundImage,
			Status:          entry.Status,
			IsVisible:       entry.IsVisible,
			Priority:        entry.Priority,
		}
		if n.Status == "" {
			n.Status = domain.NotificationActive
		}
		if entry.ExpiresInDays > 0 {
			exp := now.AddDate(0, 0, entry.ExpiresInDays).UTC()
			n.ExpirationDate = &exp
		}

		inserted, err := s.notifications.UpsertByTitle(ctx, n)
		if err != nil {
			s.log.WithError(err).WithField("title", entry.Title).Error("failed to seed notification")
		}
		res.record(inserted, err)
	}

	s.logResult("notifications", res)
	return res, nil
}

func (s *Seeder) SeedProducts(ctx context.Context) (Result, error) {
	var res Result
	entries, err := load[[]productEntry]("products.yaml")
	if err != nil {
		return res, err
	}

	for _, entry := range entries {
		unit := entry.Unit
		if unit == "" {
			unit = defaultUnit
		}
		inserted, err := s.products.UpsertBySKU(ctx, &domain.Product{
			SKU:         entry.SKU,
			Name:        entry.Name,
			Description: entry.Description,
			Price:       entry.Price,
			Stock:       entry.Stock,
			Category:    entry.Category,
			Unit:        unit,
			Brand:       entry.Brand,
			Weight:      entry.Weight,
			Tags:        entry.Tags,
			Rating:      entry.Rating,
			ReviewCount: entry.ReviewCount,
			ImageURL:    entry.ImageURL,
			IsActive:    true,
		})
		fields := logrus.Fields{"product": entry.Name, "sku": entry.SKU}
		switch {
		case err != nil:
			s.log.WithError(err).WithFields(fields).Error("failed to seed product")
		case inserted:
			s.log.WithFields(fields).Info("product created")
		default:
			s.log.WithFields(fields).Debug("product already present")
		}
		res.record(inserted, err)
	}

	s.logResult("products", res)
	return res, nil
}

func (s *Seeder) logResult(kind string, res Result) {
	s.log.WithFields(logrus.Fields{
		"kind":     kind,
		"inserted": res.Inserted,
		"existing": res.Existing,
		"failed":   res.Failed,
	}).Info("seed finished")
}
