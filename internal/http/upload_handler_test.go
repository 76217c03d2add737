package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartImage(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.serve(t, multipartImage(t, "image", "banner.jpg", []byte("jpeg")))
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)

	var upload uploads.Upload
	decodeData(t, env, &upload)
	assert.Equal(t, "/uploads/image-1-banner.jpg", upload.Path)
}

func TestUploadImage_MissingFile(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.serve(t, multipartImage(t, "photo", "banner.jpg", []byte("jpeg")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no file was provided", env.Message)
}

func TestUploadImage_ServiceRejection(t *testing.T) {
	s := newTestServer(t)
	s.images.err = domain.Errorf(domain.ErrValidation, "only jpg, jpeg, png, gif and webp images are allowed")

	rec, env := s.serve(t, multipartImage(t, "image", "notes.txt", []byte("text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, "only jpg")
}

func TestUploadImage_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	// limit is 1KB plus the multipart allowance
	rec, _ := s.serve(t, multipartImage(t, "image", "huge.png", bytes.Repeat([]byte("x"), 3<<20)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.images.names)
}

func TestStaticUploadsAreServed(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.uploadsDir, "image-1-a.png"), []byte("png"), 0o644))

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/image-1-a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}
