package http

import (
	"context"
	"net/http"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type NotificationService interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	FindAll(ctx context.Context) ([]domain.Notification, error)
	FindActive(ctx context.Context) ([]domain.Notification, error)
	FindByStatus(ctx context.Context, status domain.NotificationStatus) ([]domain.Notification, error)
	Search(ctx context.Context, term string) ([]domain.Notification, error)
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	Update(ctx context.Context, id string, update domain.NotificationUpdate) (*domain.Notification, error)
	ToggleVisibility(ctx context.Context, id string) (*domain.Notification, error)
	ArchiveExpired(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type NotificationHandler struct {
	notifications NotificationService
	log           logrus.FieldLogger
}

func NewNotificationHandler(notifications NotificationService, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

type CreateNotificationRequest struct {
	Title           string                    `json:"title" validate:"required"`
	Description     string                    `json:"description" validate:"required"`
	BackgroundImage string                    `json:"backgroundImage" validate:"omitempty,url"`
	Status          domain.NotificationStatus `json:"status" validate:"omitempty,oneof=active inactive archived"`
	IsVisible       *bool                     `json:"isVisible"`
	ExpirationDate  *time.Time                `json:"expirationDate"`
	Priority        int                       `json:"priority" validate:"gte=0"`
}

type UpdateNotificationRequest struct {
	Title           *string                    `json:"title" validate:"omitempty,min=1"`
	Description     *string                    `json:"description" validate:"omitempty,min=1"`
	BackgroundImage *string                    `json:"backgroundImage" validate:"omitempty,url"`
	Status          *domain.NotificationStatus `json:"status" validate:"omitempty,oneof=active inactive archived"`
	IsVisible       *bool                      `json:"isVisible"`
	ExpirationDate  *time.Time                 `json:"expirationDate"`
	Priority        *int                       `json:"priority" validate:"omitempty,gte=0"`
}

type archiveResult struct {
	ArchivedCount int64 `json:"archivedCount"`
}

func (h *NotificationHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.FindAll)
	r.Get("/active", h.FindActive)
	r.Get("/status/{status}", h.FindByStatus)
	r.Get("/search", h.Search)
	r.Post("/archive-expired", h.ArchiveExpired)
	r.Get("/{id}", h.FindByID)
	r.Patch("/{id}", h.Update)
	r.Patch("/{id}/toggle-visibility", h.ToggleVisibility)
	r.Delete("/{id}", h.Delete)
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	n, err := h.notifications.Create(r.Context(), &domain.Notification{
		Title:           req.Title,
		Description:     req.Description,
		BackgroundImage: req.BackgroundImage,
		Status:          req.Status,
		IsVisible:       req.IsVisible == nil || *req.IsVisible,
		ExpirationDate:  req.ExpirationDate,
		Priority:        req.Priority,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

func (h *NotificationHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.notifications.FindAll)
}

func (h *NotificationHandler) FindActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.notifications.FindActive)
}

func (h *NotificationHandler) FindByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.NotificationStatus(chi.URLParam(r, "status"))
	h.list(w, r, func(ctx context.Context) ([]domain.Notification, error) {
		return h.notifications.FindByStatus(ctx, status)
	})
}

func (h *NotificationHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	h.list(w, r, func(ctx context.Context) ([]domain.Notification, error) {
		return h.notifications.Search(ctx, term)
	})
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request, find func(context.Context) ([]domain.Notification, error)) {
	notifications, err := find(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(notifications))
}

func (h *NotificationHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	n, err := h.notifications.Update(r.Context(), chi.URLParam(r, "id"), domain.NotificationUpdate{
		Title:           req.Title,
		Description:     req.Description,
		BackgroundImage: req.BackgroundImage,
		Status:          req.Status,
		IsVisible:       req.IsVisible,
		ExpirationDate:  req.ExpirationDate,
		Priority:        req.Priority,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.ToggleVisibility(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) ArchiveExpired(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.ArchiveExpired(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, archiveResult{ArchivedCount: count})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}
