package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/search"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

var productSearchFields = []string{"name", "description", "category", "brand", "tags"}

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{collection: db.Collection("products")}
}

func productNotFound(id string) error {
	return domain.Errorf(domain.ErrNotFound, "product %s not found", id)
}

func active(filter bson.M) bson.M {
	filter["isActive"] = true
	return filter
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return writeError(err, fmt.Sprintf("a product with sku %q already exists", product.SKU), "create product")
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *productRepository) FindAll(ctx context.Context, f domain.ProductFilter, page, limit int) ([]domain.Product, int64, error) {
	filter := active(bson.M{})
	if f.Category != "" {
		filter["category"] = bson.M{"$regex": regexp.QuoteMeta(f.Category), "$options": "i"}
	}
	if f.Brand != "" {
		filter["brand"] = bson.M{"$regex": regexp.QuoteMeta(f.Brand), "$options": "i"}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}
	if f.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}
	return findPage[domain.Product](ctx, r.collection, filter, newestFirst, page, limit)
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[domain.Product](ctx, r.collection, active(bson.M{"_id": oid}), productNotFound(id))
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return findOne[domain.Product](ctx, r.collection, active(bson.M{"sku": sku}),
		domain.Errorf(domain.ErrNotFound, "product with sku %s not found", sku))
}

func (r *productRepository) Search(ctx context.Context, pred search.Predicate, page, limit int) ([]domain.Product, int64, error) {
	filter := active(bson.M{})
	if !pred.Empty() {
		filter["$or"] = pred.Filter(productSearchFields...)["$or"]
	}
	return findPage[domain.Product](ctx, r.collection, filter, newestFirst, page, limit)
}

func (r *productRepository) SearchInCategories(ctx context.Context, categories []string, pred search.Predicate, page, limit int) ([]domain.Product, int64, error) {
	filter := active(bson.M{"category": bson.M{"$in": categories}})
	if !pred.Empty() {
		filter["$or"] = pred.Filter("name", "category")["$or"]
	}
	return findPage[domain.Product](ctx, r.collection, filter, newestFirst, page, limit)
}

func (r *productRepository) FindByCategory(ctx context.Context, category string, page, limit int) ([]domain.Product, int64, error) {
	filter := active(bson.M{"category": bson.M{"$regex": regexp.QuoteMeta(category), "$options": "i"}})
	return findPage[domain.Product](ctx, r.collection, filter, newestFirst, page, limit)
}

func (r *productRepository) FindByPriceRange(ctx context.Context, min, max float64, page, limit int) ([]domain.Product, int64, error) {
	filter := active(bson.M{"price": bson.M{"$gte": min, "$lte": max}})
	return findPage[domain.Product](ctx, r.collection, filter, bson.D{{Key: "price", Value: 1}}, page, limit)
}

func (r *productRepository) FindLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	filter := active(bson.M{"stock": bson.M{"$lte": threshold, "$gt": 0}})
	return findMany[domain.Product](ctx, r.collection, filter, options.Find().SetSort(bson.D{{Key: "stock", Value: 1}}))
}

func (r *productRepository) FindOutOfStock(ctx context.Context) ([]domain.Product, error) {
	return findMany[domain.Product](ctx, r.collection, active(bson.M{"stock": 0}), options.Find().SetSort(newestFirst))
}

func (r *productRepository) FindTopRated(ctx context.Context, limit int) ([]domain.Product, error) {
	filter := active(bson.M{"rating": bson.M{"$exists": true, "$ne": nil}})
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "reviewCount", Value: -1}}).
		SetLimit(int64(limit))
	return findMany[domain.Product](ctx, r.collection, filter, opts)
}

func (r *productRepository) Statistics(ctx context.Context) (*domain.ProductStatistics, error) {
	stats := &domain.ProductStatistics{CategoryList: []string{}, BrandList: []string{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"isActive": true}}},
			{{Key: "$group", Value: bson.M{
				"_id":           nil,
				"totalProducts": bson.M{"$sum": 1},
				"totalValue":    bson.M{"$sum": bson.M{"$multiply": bson.A{"$price", "$stock"}}},
				"averagePrice":  bson.M{"$avg": "$price"},
				"totalStock":    bson.M{"$sum": "$stock"},
				"maxPrice":      bson.M{"$max": "$price"},
				"minPrice":      bson.M{"$min": "$price"},
			}}},
		}
		cursor, err := r.collection.Aggregate(gctx, pipeline)
		if err != nil {
			return fmt.Errorf("failed to aggregate product statistics: %w", err)
		}
		var rows []struct {
			TotalProducts int64   `bson:"totalProducts"`
			TotalValue    float64 `bson:"totalValue"`
			AveragePrice  float64 `bson:"averagePrice"`
			TotalStock    int64   `bson:"totalStock"`
			MaxPrice      float64 `bson:"maxPrice"`
			MinPrice      float64 `bson:"minPrice"`
		}
		if err := cursor.All(gctx, &rows); err != nil {
			return fmt.Errorf("failed to decode product statistics: %w", err)
		}
		if len(rows) > 0 {
			row := rows[0]
			stats.TotalProducts = row.TotalProducts
			stats.TotalValue = row.TotalValue
			stats.AveragePrice = row.AveragePrice
			stats.TotalStock = row.TotalStock
			stats.MaxPrice = row.MaxPrice
			stats.MinPrice = row.MinPrice
		}
		return nil
	})
	g.Go(func() error {
		values, err := r.distinct(gctx, "category")
		stats.CategoryList = values
		return err
	})
	g.Go(func() error {
		values, err := r.distinct(gctx, "brand")
		stats.BrandList = values
		return err
	})
	g.Go(func() error {
		n, err := r.collection.CountDocuments(gctx, active(bson.M{"stock": bson.M{"$lte": domain.LowStockThreshold, "$gt": 0}}))
		stats.LowStockProducts = n
		return err
	})
	g.Go(func() error {
		n, err := r.collection.CountDocuments(gctx, active(bson.M{"stock": 0}))
		stats.OutOfStockProducts = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Categories = len(stats.CategoryList)
	stats.Brands = len(stats.BrandList)
	return stats, nil
}

func (r *productRepository) distinct(ctx context.Context, field string) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, field, active(bson.M{field: bson.M{"$nin": bson.A{nil, ""}}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	return values, nil
}

func (r *productRepository) Update(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := productSet(u)
	set["updatedAt"] = time.Now().UTC()

	update := bson.M{"$set": set}
	// The sku index only covers string values, so a cleared sku is removed.
	if u.SKU != nil && *u.SKU == "" {
		update["$unset"] = bson.M{"sku": ""}
	}

	var product domain.Product
	err = r.collection.FindOneAndUpdate(ctx, active(bson.M{"_id": oid}), update, after()).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, productNotFound(id)
		}
		return nil, writeError(err, "a product with this sku already exists", "update product")
	}
	return &product, nil
}

// AdjustStock applies the stock operation in a single conditional update. A
// subtraction only matches while enough stock remains, so the stored level can
// never go negative.
func (r *productRepository) AdjustStock(ctx context.Context, id string, quantity int, op domain.StockOperation) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	filter := active(bson.M{"_id": oid})
	now := time.Now().UTC()
	var update bson.M

	switch op {
	case domain.StockSet:
		if _, err := domain.ProjectStock(0, quantity, op); err != nil {
			return nil, err
		}
		update = bson.M{"$set": bson.M{"stock": quantity, "updatedAt": now}}
	case domain.StockAdd, domain.StockSubtract:
		delta := domain.StockDelta(quantity, op)
		if delta < 0 {
			filter["stock"] = bson.M{"$gte": -delta}
		}
		update = bson.M{"$inc": bson.M{"stock": delta}, "$set": bson.M{"updatedAt": now}}
	default:
		return nil, domain.Errorf(domain.ErrValidation, "unknown stock operation %q", op)
	}

	var product domain.Product
	err = r.collection.FindOneAndUpdate(ctx, filter, update, after()).Decode(&product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	n, err := r.collection.CountDocuments(ctx, active(bson.M{"_id": oid}))
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if n == 0 {
		return nil, productNotFound(id)
	}
	return nil, domain.Errorf(domain.ErrInvalidStock, "stock cannot be negative")
}

func (r *productRepository) SoftDelete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.UpdateOne(ctx, active(bson.M{"_id": oid}),
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	if res.MatchedCount == 0 {
		return productNotFound(id)
	}
	return nil
}

func (r *productRepository) HardDelete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return productNotFound(id)
	}
	return nil
}

// UpsertBySKU inserts the product unless one with the same sku exists. The
// sku index is unique, so a concurrent insert of the same sku is reported as
// existing.
func (r *productRepository) UpsertBySKU(ctx context.Context, product *domain.Product) (bool, error) {
	if product.SKU == "" {
		return false, domain.Errorf(domain.ErrValidation, "sku is required to seed product %q", product.Name)
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"sku": product.SKU},
		bson.M{"$setOnInsert": product},
		options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to seed product: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

func productSet(u domain.ProductUpdate) bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Unit != nil {
		set["unit"] = *u.Unit
	}
	if u.ImageURL != nil {
		set["imageUrl"] = *u.ImageURL
	}
	if u.Images != nil {
		set["images"] = *u.Images
	}
	if u.SKU != nil && *u.SKU != "" {
		set["sku"] = *u.SKU
	}
	if u.Weight != nil {
		set["weight"] = *u.Weight
	}
	if u.Tags != nil {
		set["tags"] = *u.Tags
	}
	if u.Rating != nil {
		set["rating"] = *u.Rating
	}
	if u.Discount != nil {
		set["discount"] = *u.Discount
	}
	if u.Brand != nil {
		set["brand"] = *u.Brand
	}
	if u.Popular != nil {
		set["popular"] = *u.Popular
	}
	if u.Nuevo != nil {
		set["nuevo"] = *u.Nuevo
	}
	return set
}
