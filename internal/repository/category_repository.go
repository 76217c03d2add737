package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) CategoryRepository {
	return &categoryRepository{collection: db.Collection("categories")}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, category)
	if err != nil {
		return writeError(err, fmt.Sprintf("category %q already exists", category.Name), "create category")
	}
	category.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	return findMany[domain.Category](ctx, r.collection, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[domain.Category](ctx, r.collection, bson.M{"_id": oid},
		domain.Errorf(domain.ErrNotFound, "category %s not found", id))
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	return findOne[domain.Category](ctx, r.collection, bson.M{"name": name},
		domain.Errorf(domain.ErrNotFound, "category %q not found", name))
}

func (r *categoryRepository) FindByParentID(ctx context.Context, parentID primitive.ObjectID) ([]domain.Category, error) {
	return findMany[domain.Category](ctx, r.collection, bson.M{"parentId": parentID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// UpsertByName inserts the category unless one with the same name exists and
// returns the stored document either way, including when a concurrent insert
// of the same name wins the race.
func (r *categoryRepository) UpsertByName(ctx context.Context, category *domain.Category) (*domain.Category, bool, error) {
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"name": category.Name},
		bson.M{"$setOnInsert": category},
		options.Update().SetUpsert(true))
	switch {
	case mongo.IsDuplicateKeyError(err):
		// inserted concurrently; fall through to the stored document
	case err != nil:
		return nil, false, fmt.Errorf("failed to seed category: %w", err)
	default:
		if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
			stored := *category
			stored.ID = id
			return &stored, true, nil
		}
	}

	existing, err := r.FindByName(ctx, category.Name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
