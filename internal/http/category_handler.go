package http

import (
	"context"
	"net/http"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CategoryService interface {
	FindAll(ctx context.Context) ([]domain.Category, error)
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	FindChildren(ctx context.Context, parentID string) ([]domain.Category, error)
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
}

type CategoryHandler struct {
	categories CategoryService
	log        logrus.FieldLogger
}

func NewCategoryHandler(categories CategoryService, log logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{categories: categories, log: log}
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	ParentID    string `json:"parentId" validate:"omitempty,mongodb"`
	IsActive    *bool  `json:"isActive"`
}

func (req CreateCategoryRequest) toCategory() *domain.Category {
	category := &domain.Category{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if req.ParentID != "" {
		// validated by the mongodb tag
		oid, _ := primitive.ObjectIDFromHex(req.ParentID)
		category.ParentID = &oid
	}
	return category
}

func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/", h.FindAll)
	r.Post("/", h.Create)
	r.Get("/name/{name}", h.FindByName)
	r.Get("/{id}/children", h.FindChildren)
}

func (h *CategoryHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.FindAll(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(categories))
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	category, err := h.categories.Create(r.Context(), req.toCategory())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) FindByName(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.FindByName(r.Context(), pathParam(r, "name"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) FindChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.categories.FindChildren(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(children))
}
