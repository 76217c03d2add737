package uploads

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Storage persists an uploaded object and returns the path clients use to
// fetch it.
type Storage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// DiskStorage writes files under a local directory that the HTTP server
// exposes at /uploads.
type DiskStorage struct {
	dir string
}

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{dir: dir}, nil
}

func (d *DiskStorage) Dir() string {
	return d.dir
}

func (d *DiskStorage) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	path := filepath.Join(d.dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return "/uploads/" + filepath.Base(name), nil
}

// GCSStorage uploads objects to a Cloud Storage bucket and returns their
// public URL.
type GCSStorage struct {
	bucket        *storage.BucketHandle
	bucketName    string
	prefix        string
	publicBaseURL string
}

func NewGCSStorage(client *storage.Client, bucket, prefix, publicBaseURL string) *GCSStorage {
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com"
	}
	return &GCSStorage{
		bucket:        client.Bucket(bucket),
		bucketName:    bucket,
		prefix:        strings.Trim(prefix, "/"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (g *GCSStorage) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	object := name
	if g.prefix != "" {
		object = g.prefix + "/" + name
	}

	w := g.bucket.Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", object, err)
	}

	parts := strings.Split(object, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return g.publicBaseURL + "/" + url.PathEscape(g.bucketName) + "/" + strings.Join(parts, "/"), nil
}
