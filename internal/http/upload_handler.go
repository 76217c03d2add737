package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/uploads"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	imageField        = "image"
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
)

type ImageUploader interface {
	UploadImage(ctx context.Context, filename string, size int64, r io.Reader) (*uploads.Upload, error)
	MaxSize() int64
}

type UploadHandler struct {
	images ImageUploader
	log    logrus.FieldLogger
}

func NewUploadHandler(images ImageUploader, log logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{images: images, log: log}
}

func (h *UploadHandler) Routes(r chi.Router) {
	r.Post("/image", h.UploadImage)
}

func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.images.MaxSize()); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	upload, err := saveFormImage(r, h.images)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if upload == nil {
		respondError(w, r, h.log, domain.Errorf(domain.ErrValidation, "no file was provided"))
		return
	}
	respondJSON(w, http.StatusCreated, upload)
}

// parseMultipart bounds the whole request body to the file limit plus room
// for the other form fields.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxFile int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFile+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Errorf(domain.ErrValidation, "file exceeds the maximum size of %d bytes", maxFile)
		}
		return domain.Errorf(domain.ErrValidation, "invalid multipart form: %v", err)
	}
	return nil
}

// saveFormImage stores the "image" file of an already parsed form. It returns
// nil when the form carries no file.
func saveFormImage(r *http.Request, images ImageUploader) (*uploads.Upload, error) {
	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "invalid image field: %v", err)
	}
	defer file.Close()

	return images.UploadImage(r.Context(), header.Filename, header.Size, file)
}
