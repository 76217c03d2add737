package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartProduct is the product snapshot stored inside a line item. Prices are
// locked at the moment the product is added.
type CartProduct struct {
	ID          string   `bson:"_id,omitempty" json:"_id,omitempty"`
	Name        string   `bson:"name" json:"name" validate:"required"`
	Description string   `bson:"description" json:"description"`
	Price       float64  `bson:"price" json:"price" validate:"gte=0"`
	Stock       int      `bson:"stock" json:"stock" validate:"gte=0"`
	Category    string   `bson:"category" json:"category"`
	Unit        string   `bson:"unit" json:"unit"`
	ImageURL    string   `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Images      []string `bson:"images,omitempty" json:"images,omitempty"`
	IsActive    bool     `bson:"isActive" json:"isActive"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Discount    *float64 `bson:"discount,omitempty" json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Brand       string   `bson:"brand,omitempty" json:"brand,omitempty"`
	Popular     bool     `bson:"popular" json:"popular"`
	Nuevo       bool     `bson:"nuevo" json:"nuevo"`
}

// sameAs reports whether two snapshots describe the same line item. The product
// id wins when both sides carry one; otherwise the name is the identity.
func (p CartProduct) sameAs(o CartProduct) bool {
	if p.ID != "" && o.ID != "" {
		return p.ID == o.ID
	}
	return p.Name == o.Name
}

type CartItem struct {
	Product  CartProduct `bson:"product" json:"product" validate:"required"`
	Quantity int         `bson:"quantity" json:"quantity" validate:"min=1"`
}

type Cart struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	Items         []CartItem         `bson:"items" json:"items"`
	TotalDiscount float64            `bson:"totalDiscount" json:"totalDiscount"`
	TotalPrice    float64            `bson:"totalPrice" json:"totalPrice"`
	Version       int64              `bson:"version" json:"version"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewCart returns a cart holding a single line item.
func NewCart(userID string, product CartProduct, quantity int) *Cart {
	c := &Cart{UserID: userID, Items: []CartItem{}}
	c.AddProduct(product, quantity)
	return c
}

// AddProduct merges the product into an existing line item or appends a new one,
// then recomputes the total.
func (c *Cart) AddProduct(product CartProduct, quantity int) {
	for i := range c.Items {
		if c.Items[i].Product.sameAs(product) {
			c.Items[i].Quantity += quantity
			c.Recalculate()
			return
		}
	}
	c.Items = append(c.Items, CartItem{Product: product, Quantity: quantity})
	c.Recalculate()
}

// Recalculate sets TotalPrice to the sum of price*quantity over all items.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		line := decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	c.TotalPrice = total.InexactFloat64()
}

// CartUpdate replaces the provided fields of a cart.
type CartUpdate struct {
	Items         *[]CartItem
	TotalDiscount *float64
}

func (c *Cart) Apply(u CartUpdate) {
	if u.Items != nil {
		c.Items = append([]CartItem{}, (*u.Items)...)
	}
	if u.TotalDiscount != nil {
		c.TotalDiscount = *u.TotalDiscount
	}
	c.Recalculate()
}
