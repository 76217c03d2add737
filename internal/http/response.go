// Package http exposes the store over a JSON REST API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Envelope wraps every response body, successful or not.
type Envelope struct {
	Data    any    `json:"data"`
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const maxBodySize = 1 << 20 // 1MB

var validate = validator.New(validator.WithRequiredStructEnabled())

func respondJSON(w http.ResponseWriter, status int, data any) {
	message := "Success"
	if status >= http.StatusBadRequest {
		message = "Error"
	}
	writeEnvelope(w, Envelope{Data: data, Status: status, Success: status < http.StatusBadRequest, Message: message})
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

// respondError maps a domain error kind to a status code. Anything that is not
// a domain error is logged and reported as a generic internal error.
func respondError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	status := statusFor(err)
	message := domain.Message(err, "internal server error")
	if status == http.StatusInternalServerError {
		logger.WithContext(r.Context(), log).WithError(err).
			WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).
			Error("request failed")
		message = "internal server error"
	}
	writeEnvelope(w, Envelope{Data: nil, Status: status, Success: false, Message: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateKey), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidStock):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a size-limited JSON body into dst and runs its validate tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Errorf(domain.ErrValidation, "invalid JSON body: %v", err)
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.Errorf(domain.ErrValidation, "%s failed on the %q rule", fe.Namespace(), fe.Tag())
		}
		return domain.Errorf(domain.ErrValidation, "%v", err)
	}
	return nil
}

// Pagination clamps page/limit query parameters.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Pagination) parse(r *http.Request) (page, limit int, err error) {
	page, err = intQuery(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err = intQuery(r, "limit", p.DefaultLimit)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		return 0, 0, domain.Errorf(domain.ErrValidation, "page must be at least 1")
	}
	if limit < 1 {
		return 0, 0, domain.Errorf(domain.ErrValidation, "limit must be at least 1")
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return page, limit, nil
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.Errorf(domain.ErrValidation, "%s must be an integer", key)
	}
	return n, nil
}

func floatQuery(r *http.Request, key string) (*float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "%s must be a number", key)
	}
	return &f, nil
}

func boolQuery(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, domain.Errorf(domain.ErrValidation, "%s must be true or false", key)
	}
	return b, nil
}

// pathParam returns a URL parameter decoded exactly once. chi matches on
// RawPath when the request has one, and then the value is still escaped.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
