package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Products      *ProductHandler
	Categories    *CategoryHandler
	Carts         *CartHandler
	Customers     *CustomerHandler
	Notifications *NotificationHandler
	Uploads       *UploadHandler
}

type RouterConfig struct {
	RequestTimeout time.Duration
	// UploadsDir is served at /uploads/ when images are kept on local disk.
	UploadsDir string
	// Health reports whether the backing stores are reachable.
	Health func(ctx context.Context) error
	// CacheState reports the cart cache breaker state. A non-closed breaker
	// means carts are read from MongoDB and does not fail the check.
	CacheState func() string
}

func NewRouter(cfg RouterConfig, h Handlers, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log))
	r.Use(Recover(log))
	r.Use(CORS())
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, Envelope{Status: http.StatusNotFound, Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, Envelope{Status: http.StatusMethodNotAllowed, Message: "method not allowed"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				log.WithError(err).Warn("health check failed")
				writeEnvelope(w, Envelope{
					Data:    map[string]string{"status": "unavailable"},
					Status:  http.StatusServiceUnavailable,
					Message: "Error",
				})
				return
			}
		}
		status := map[string]string{"status": "ok"}
		if cfg.CacheState != nil {
			status["cache"] = cfg.CacheState()
		}
		respondJSON(w, http.StatusOK, status)
	})

	r.Route("/products", h.Products.Routes)
	r.Route("/categories", h.Categories.Routes)
	r.Route("/cart", h.Carts.Routes)
	r.Route("/customers", h.Customers.Routes)
	r.Route("/notifications", h.Notifications.Routes)
	r.Route("/uploads", func(r chi.Router) {
		h.Uploads.Routes(r)
		if cfg.UploadsDir != "" {
			r.Handle("/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
		}
	})

	return r
}
