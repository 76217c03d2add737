package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type CustomerService interface {
	FindByFirebaseUID(ctx context.Context, uid string) (*domain.Customer, error)
	FindOrCreate(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	UpdateByFirebaseUID(ctx context.Context, uid string, update domain.CustomerUpdate) (*domain.Customer, error)
}

type CustomerHandler struct {
	customers CustomerService
	images    ImageUploader
	log       logrus.FieldLogger
}

func NewCustomerHandler(customers CustomerService, images ImageUploader, log logrus.FieldLogger) *CustomerHandler {
	return &CustomerHandler{customers: customers, images: images, log: log}
}

type CreateCustomerRequest struct {
	FirebaseUID string           `json:"firebaseUid" validate:"required"`
	Email       string           `json:"email" validate:"required,email"`
	DisplayName string           `json:"displayName"`
	PhoneNumber string           `json:"phoneNumber"`
	PhotoURL    string           `json:"photoURL"`
	Addresses   []domain.Address `json:"addresses" validate:"dive"`
	IsActive    *bool            `json:"isActive"`
}

type UpdateCustomerRequest struct {
	Email       *string           `json:"email" validate:"omitempty,email"`
	DisplayName *string           `json:"displayName"`
	PhoneNumber *string           `json:"phoneNumber"`
	PhotoURL    *string           `json:"photoURL"`
	Addresses   *[]domain.Address `json:"addresses" validate:"omitempty,dive"`
	IsActive    *bool             `json:"isActive"`
}

func (h *CustomerHandler) Routes(r chi.Router) {
	r.Post("/", h.FindOrCreate)
	r.Get("/firebase/{uid}", h.FindByFirebaseUID)
	r.Put("/firebase/{uid}", h.UpdateByFirebaseUID)
}

// FindOrCreate is called on every sign-in; an existing customer is returned
// unchanged.
func (h *CustomerHandler) FindOrCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	customer, err := h.customers.FindOrCreate(r.Context(), &domain.Customer{
		FirebaseUID: req.FirebaseUID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
		PhotoURL:    req.PhotoURL,
		Addresses:   nonNil(req.Addresses),
		IsActive:    req.IsActive == nil || *req.IsActive,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) FindByFirebaseUID(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.FindByFirebaseUID(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// UpdateByFirebaseUID accepts JSON, or a multipart form with an optional
// "image" file that becomes the profile photo.
func (h *CustomerHandler) UpdateByFirebaseUID(w http.ResponseWriter, r *http.Request) {
	var (
		req UpdateCustomerRequest
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = h.decodeMultipart(w, r, &req)
	} else {
		err = decodeJSON(w, r, &req)
	}
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	customer, err := h.customers.UpdateByFirebaseUID(r.Context(), chi.URLParam(r, "uid"), domain.CustomerUpdate{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhoneNumber: req.PhoneNumber,
		PhotoURL:    req.PhotoURL,
		IsActive:    req.IsActive,
		Addresses:   req.Addresses,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) decodeMultipart(w http.ResponseWriter, r *http.Request, req *UpdateCustomerRequest) error {
	if err := parseMultipart(w, r, h.images.MaxSize()); err != nil {
		return err
	}

	form := r.MultipartForm.Value
	field := func(key string) *string {
		if v, ok := form[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	req.Email = field("email")
	req.DisplayName = field("displayName")
	req.PhoneNumber = field("phoneNumber")
	req.PhotoURL = field("photoURL")
	if v := field("isActive"); v != nil {
		active, err := strconv.ParseBool(*v)
		if err != nil {
			return domain.Errorf(domain.ErrValidation, "isActive must be true or false")
		}
		req.IsActive = &active
	}
	// addresses travel as a JSON string inside the form
	if v := field("addresses"); v != nil {
		var addresses []domain.Address
		if err := json.Unmarshal([]byte(*v), &addresses); err != nil {
			return domain.Errorf(domain.ErrValidation, "addresses must be a JSON array")
		}
		req.Addresses = &addresses
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	upload, err := saveFormImage(r, h.images)
	if err != nil {
		return err
	}
	if upload != nil {
		req.PhotoURL = &upload.Path
	}
	return nil
}
