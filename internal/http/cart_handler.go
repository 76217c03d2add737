package http

import (
	"context"
	"net/http"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type CartService interface {
	AddProductToCart(ctx context.Context, userID string, product domain.CartProduct, quantity int) (*domain.Cart, error)
	CreateCart(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
	GetCartByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	GetCartByID(ctx context.Context, id string) (*domain.Cart, error)
	FindAll(ctx context.Context) ([]domain.Cart, error)
	UpdateCart(ctx context.Context, id string, update domain.CartUpdate) (*domain.Cart, error)
	UpdateCartByUserID(ctx context.Context, userID string, update domain.CartUpdate) (*domain.Cart, error)
	DeleteCart(ctx context.Context, id string) (*domain.Cart, error)
	DeleteCartByUserID(ctx context.Context, userID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts CartService
	log   logrus.FieldLogger
}

func NewCartHandler(carts CartService, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

type CreateCartRequest struct {
	UserID        string            `json:"user_id" validate:"required"`
	Items         []domain.CartItem `json:"items" validate:"dive"`
	TotalDiscount float64           `json:"totalDiscount" validate:"gte=0"`
}

type UpdateCartRequest struct {
	Items         *[]domain.CartItem `json:"items" validate:"omitempty,dive"`
	TotalDiscount *float64           `json:"totalDiscount" validate:"omitempty,gte=0"`
}

type AddProductRequest struct {
	Product  *domain.CartProduct `json:"product" validate:"required"`
	Quantity int                 `json:"quantity" validate:"required,min=1"`
}

func (h *CartHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.FindAll)
	r.Get("/user/{userId}", h.GetByUserID)
	r.Patch("/user/{userId}", h.UpdateByUserID)
	r.Delete("/user/{userId}", h.DeleteByUserID)
	r.Post("/user/{userId}/add-product", h.AddProduct)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	cart, err := h.carts.CreateCart(r.Context(), &domain.Cart{
		UserID:        req.UserID,
		Items:         nonNil(req.Items),
		TotalDiscount: req.TotalDiscount,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	carts, err := h.carts.FindAll(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(carts))
}

func (h *CartHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCartByUserID(r.Context(), pathParam(r, "userId"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCartByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(ctx context.Context, u domain.CartUpdate) (*domain.Cart, error) {
		return h.carts.UpdateCart(ctx, chi.URLParam(r, "id"), u)
	})
}

func (h *CartHandler) UpdateByUserID(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(ctx context.Context, u domain.CartUpdate) (*domain.Cart, error) {
		return h.carts.UpdateCartByUserID(ctx, pathParam(r, "userId"), u)
	})
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request, apply func(context.Context, domain.CartUpdate) (*domain.Cart, error)) {
	var req UpdateCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	cart, err := apply(r.Context(), domain.CartUpdate{Items: req.Items, TotalDiscount: req.TotalDiscount})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// Delete returns the removed cart.
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.DeleteCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) DeleteByUserID(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.DeleteCartByUserID(r.Context(), pathParam(r, "userId"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	cart, err := h.carts.AddProductToCart(r.Context(), pathParam(r, "userId"), *req.Product, req.Quantity)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}
