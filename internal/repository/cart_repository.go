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

type cartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &cartRepository{collection: db.Collection("carts")}
}

func cartNotFound(userID string) error {
	return domain.Errorf(domain.ErrNotFound, "cart for user %s not found", userID)
}

// Insert stores a new cart at version 1. A second cart for the same user is
// rejected by the unique user_id index.
func (r *cartRepository) Insert(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	cart.Version = 1

	res, err := r.collection.InsertOne(ctx, cart)
	if err != nil {
		return writeError(err, fmt.Sprintf("cart for user %s already exists", cart.UserID), "create cart")
	}
	cart.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	return findOne[domain.Cart](ctx, r.collection, bson.M{"user_id": userID}, cartNotFound(userID))
}

func (r *cartRepository) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[domain.Cart](ctx, r.collection, bson.M{"_id": oid},
		domain.Errorf(domain.ErrNotFound, "cart %s not found", id))
}

func (r *cartRepository) FindAll(ctx context.Context) ([]domain.Cart, error) {
	return findMany[domain.Cart](ctx, r.collection, bson.M{}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
}

// UpdateWithVersion writes the cart only if the stored version still equals
// cart.Version, then bumps it. It returns domain.ErrConflict when another
// writer got there first.
func (r *cartRepository) UpdateWithVersion(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()
	filter := bson.M{"user_id": cart.UserID, "version": cart.Version}
	update := bson.M{
		"$set": bson.M{
			"items":         cart.Items,
			"totalDiscount": cart.TotalDiscount,
			"totalPrice":    cart.TotalPrice,
			"updatedAt":     now,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if res.MatchedCount == 1 {
		cart.Version++
		cart.UpdatedAt = now
		return nil
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": cart.UserID})
	if err != nil {
		return fmt.Errorf("failed to check cart: %w", err)
	}
	if n == 0 {
		return cartNotFound(cart.UserID)
	}
	return domain.Errorf(domain.ErrConflict, "cart for user %s was modified concurrently", cart.UserID)
}

func (r *cartRepository) DeleteByUserID(ctx context.Context, userID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if res.DeletedCount == 0 {
		return cartNotFound(userID)
	}
	return nil
}

func (r *cartRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.Errorf(domain.ErrNotFound, "cart %s not found", id)
	}
	return nil
}
