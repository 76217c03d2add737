// Package uploads stores product and banner images.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

var errTooLarge = errors.New("file too large")

// Upload is the stored location of an image.
type Upload struct {
	Path string `json:"path"`
}

type Service struct {
	storage Storage
	maxSize int64
	log     logrus.FieldLogger
	now     func() time.Time
	newID   func() string
}

func NewService(storage Storage, maxSize int64, log logrus.FieldLogger) *Service {
	return &Service{
		storage: storage,
		maxSize: maxSize,
		log:     log,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// UploadImage validates and stores an image. size is what the client
// declared; the stream is cut off regardless once it passes the limit.
func (s *Service) UploadImage(ctx context.Context, filename string, size int64, r io.Reader) (*Upload, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, domain.Errorf(domain.ErrValidation, "only jpg, jpeg, png, gif and webp images are allowed")
	}
	if size > s.maxSize {
		return nil, domain.Errorf(domain.ErrValidation, "file exceeds the maximum size of %d bytes", s.maxSize)
	}

	name := fmt.Sprintf("image-%d-%s%s", s.now().UnixMilli(), s.newID(), ext)
	path, err := s.storage.Save(ctx, name, mime.TypeByExtension(ext), &limitedReader{r: r, remaining: s.maxSize})
	if errors.Is(err, errTooLarge) {
		return nil, domain.Errorf(domain.ErrValidation, "file exceeds the maximum size of %d bytes", s.maxSize)
	}
	if err != nil {
		s.log.WithError(err).WithField("file", name).Error("failed to store upload")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"file": name, "path": path}).Info("image uploaded")
	return &Upload{Path: path}, nil
}

// limitedReader fails with errTooLarge instead of silently truncating.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}
