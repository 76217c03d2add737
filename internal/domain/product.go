package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Category    string             `bson:"category" json:"category"`
	Unit        string             `bson:"unit" json:"unit"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	SKU         string             `bson:"sku,omitempty" json:"sku,omitempty"`
	Weight      *float64           `bson:"weight,omitempty" json:"weight,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Rating      *float64           `bson:"rating,omitempty" json:"rating,omitempty"`
	ReviewCount int                `bson:"reviewCount,omitempty" json:"reviewCount,omitempty"`
	Discount    *float64           `bson:"discount,omitempty" json:"discount,omitempty"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Popular     bool               `bson:"popular" json:"popular"`
	Nuevo       bool               `bson:"nuevo" json:"nuevo"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Category    *string
	Unit        *string
	ImageURL    *string
	Images      *[]string
	SKU         *string
	Weight      *float64
	Tags        *[]string
	Rating      *float64
	Discount    *float64
	Brand       *string
	Popular     *bool
	Nuevo       *bool
}

type ProductFilter struct {
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	InStock  bool
}

type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	HasNext    bool      `json:"hasNext"`
	HasPrev    bool      `json:"hasPrev"`
}

func NewProductPage(products []Product, total int64, page, limit int) *ProductPage {
	if products == nil {
		products = []Product{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

type ProductStatistics struct {
	TotalProducts      int64    `json:"totalProducts"`
	TotalValue         float64  `json:"totalValue"`
	AveragePrice       float64  `json:"averagePrice"`
	TotalStock         int64    `json:"totalStock"`
	MaxPrice           float64  `json:"maxPrice"`
	MinPrice           float64  `json:"minPrice"`
	Categories         int      `json:"categories"`
	CategoryList       []string `json:"categoryList"`
	Brands             int      `json:"brands"`
	BrandList          []string `json:"brandList"`
	LowStockProducts   int64    `json:"lowStockProducts"`
	OutOfStockProducts int64    `json:"outOfStockProducts"`
}

// LowStockThreshold is the default upper bound used by statistics and the low-stock listing.
const LowStockThreshold = 10

type StockOperation string

const (
	StockAdd      StockOperation = "add"
	StockSubtract StockOperation = "subtract"
	StockSet      StockOperation = "set"
)

func (o StockOperation) Valid() bool {
	switch o {
	case StockAdd, StockSubtract, StockSet:
		return true
	}
	return false
}

// ProjectStock returns the stock level that applying op would produce.
func ProjectStock(current, quantity int, op StockOperation) (int, error) {
	var next int
	switch op {
	case StockAdd:
		next = current + abs(quantity)
	case StockSubtract:
		next = current - abs(quantity)
	case StockSet:
		next = quantity
	default:
		return current, Errorf(ErrValidation, "unknown stock operation %q", op)
	}
	if next < 0 {
		return current, Errorf(ErrInvalidStock, "stock cannot be negative")
	}
	return next, nil
}

// StockDelta is the signed increment for add/subtract.
func StockDelta(quantity int, op StockOperation) int {
	if op == StockSubtract {
		return -abs(quantity)
	}
	return abs(quantity)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
