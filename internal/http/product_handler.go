package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type ProductService interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter, page, limit int) (*domain.ProductPage, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	Search(ctx context.Context, term string, page, limit int) (*domain.ProductPage, error)
	SearchInCategory(ctx context.Context, category, term string, page, limit int) (*domain.ProductPage, error)
	ByCategory(ctx context.Context, category string, page, limit int) (*domain.ProductPage, error)
	ByPriceRange(ctx context.Context, minPrice, maxPrice float64, page, limit int) (*domain.ProductPage, error)
	LowStock(ctx context.Context, threshold int) ([]domain.Product, error)
	OutOfStock(ctx context.Context) ([]domain.Product, error)
	TopRated(ctx context.Context, limit int) ([]domain.Product, error)
	Statistics(ctx context.Context) (*domain.ProductStatistics, error)
	Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	UpdateStock(ctx context.Context, id string, quantity int, op domain.StockOperation) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

type ProductHandler struct {
	products ProductService
	pages    Pagination
	log      logrus.FieldLogger
}

func NewProductHandler(products ProductService, pages Pagination, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{products: products, pages: pages, log: log}
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required"`
	Unit        string   `json:"unit"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	Images      []string `json:"images"`
	SKU         string   `json:"sku"`
	Weight      *float64 `json:"weight" validate:"omitempty,gte=0"`
	Tags        []string `json:"tags"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Discount    *float64 `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Brand       string   `json:"brand"`
	Popular     bool     `json:"popular"`
	Nuevo       bool     `json:"nuevo"`
}

func (req CreateProductRequest) toProduct() *domain.Product {
	return &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
		Category:    req.Category,
		Unit:        req.Unit,
		ImageURL:    req.ImageURL,
		Images:      req.Images,
		SKU:         strings.TrimSpace(req.SKU),
		Weight:      req.Weight,
		Tags:        req.Tags,
		Rating:      req.Rating,
		Discount:    req.Discount,
		Brand:       req.Brand,
		Popular:     req.Popular,
		Nuevo:       req.Nuevo,
	}
}

type UpdateProductRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Stock       *int      `json:"stock" validate:"omitempty,gte=0"`
	Category    *string   `json:"category" validate:"omitempty,min=1"`
	Unit        *string   `json:"unit"`
	ImageURL    *string   `json:"imageUrl" validate:"omitempty,url"`
	Images      *[]string `json:"images"`
	SKU         *string   `json:"sku"`
	Weight      *float64  `json:"weight" validate:"omitempty,gte=0"`
	Tags        *[]string `json:"tags"`
	Rating      *float64  `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Discount    *float64  `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Brand       *string   `json:"brand"`
	Popular     *bool     `json:"popular"`
	Nuevo       *bool     `json:"nuevo"`
}

func (req UpdateProductRequest) toUpdate() domain.ProductUpdate {
	return domain.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Unit:        req.Unit,
		ImageURL:    req.ImageURL,
		Images:      req.Images,
		SKU:         req.SKU,
		Weight:      req.Weight,
		Tags:        req.Tags,
		Rating:      req.Rating,
		Discount:    req.Discount,
		Brand:       req.Brand,
		Popular:     req.Popular,
		Nuevo:       req.Nuevo,
	}
}

type UpdateStockRequest struct {
	Quantity  *int                  `json:"quantity" validate:"required"`
	Operation domain.StockOperation `json:"operation" validate:"omitempty,oneof=add subtract set"`
}

func (h *ProductHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/search/category/{category}", h.SearchInCategory)
	r.Get("/statistics", h.Statistics)
	r.Get("/low-stock", h.LowStock)
	r.Get("/out-of-stock", h.OutOfStock)
	r.Get("/top-rated", h.TopRated)
	r.Get("/category/{category}", h.ByCategory)
	r.Get("/price-range", h.ByPriceRange)
	r.Get("/sku/{sku}", h.GetBySKU)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Patch("/{id}/stock", h.UpdateStock)
	r.Delete("/{id}", h.Delete)
	r.Delete("/{id}/hard", h.HardDelete)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	product, err := h.products.Create(r.Context(), req.toProduct())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pages.parse(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	filter := domain.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Brand:    r.URL.Query().Get("brand"),
	}
	if filter.MinPrice, err = floatQuery(r, "minPrice"); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if filter.MaxPrice, err = floatQuery(r, "maxPrice"); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if filter.InStock, err = boolQuery(r, "inStock"); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	result, err := h.products.List(r.Context(), filter, page, limit)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pages.parse(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	result, err := h.products.Search(r.Context(), r.URL.Query().Get("q"), page, limit)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) SearchInCategory(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pages.parse(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	result, err := h.products.SearchInCategory(r.Context(), pathParam(r, "category"), r.URL.Query().Get("q"), page, limit)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.products.Statistics(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := intQuery(r, "threshold", domain.LowStockThreshold)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	products, err := h.products.LowStock(r.Context(), threshold)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(products))
}

func (h *ProductHandler) OutOfStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.OutOfStock(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(products))
}

func (h *ProductHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", h.pages.DefaultLimit)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	products, err := h.products.TopRated(r.Context(), limit)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(products))
}

func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pages.parse(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	result, err := h.products.ByCategory(r.Context(), pathParam(r, "category"), page, limit)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) ByPriceRange(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pages.parse(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	minPrice, err := floatQuery(r, "minPrice")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	maxPrice, err := floatQuery(r, "maxPrice")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if minPrice == nil || maxPrice == nil {
		respondError(w, r, h.log, domain.Errorf(domain.ErrValidation, "minPrice and maxPrice are required"))
		return
	}
	result, err := h.products.ByPriceRange(r.Context(), *minPrice, *maxPrice, page, limit)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) GetBySKU(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetBySKU(r.Context(), pathParam(r, "sku"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	product, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// UpdateStock defaults to the set operation when none is given.
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req UpdateStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if req.Operation == "" {
		req.Operation = domain.StockSet
	}
	product, err := h.products.UpdateStock(r.Context(), chi.URLParam(r, "id"), *req.Quantity, req.Operation)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *ProductHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.products.HardDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// nonNil keeps empty lists encoded as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
