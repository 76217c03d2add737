package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.Errorf(domain.ErrValidation, "invalid id %q", id)
	}
	return oid, nil
}

// writeError maps a duplicate key failure to domain.ErrDuplicateKey and wraps
// everything else.
func writeError(err error, duplicateMsg, op string) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.Errorf(domain.ErrDuplicateKey, "%s", duplicateMsg)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, notFound error, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to find %s: %w", coll.Name(), err)
	}
	return &doc, nil
}

func findMany[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return docs, nil
}

// findPage runs the page query and the total count concurrently.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter any, sort bson.D, page, limit int) ([]T, int64, error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	}

	var (
		docs  []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = findMany[T](gctx, coll, filter, opts)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = coll.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", coll.Name(), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func after() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}
