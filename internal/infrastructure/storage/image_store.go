package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/identity-service/pkg/helpers"
)

var ErrNotConfigured = errors.New("image storage not configured")

// ImageStore writes profile images to a GCS bucket.
type ImageStore struct {
	client *gcs.Client
	bucket string
}

func NewImageStore(client *gcs.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket}
}

// Upload stores r and returns the public URL of the new object.
func (s *ImageStore) Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s == nil || s.client == nil || s.bucket == "" {
		return "", ErrNotConfigured
	}
	return helpers.UploadObject(ctx, s.client, s.bucket, ObjectPath(userID, filename), contentType, r)
}

// Remove deletes the object behind url when it lives in this bucket.
func (s *ImageStore) Remove(ctx context.Context, url string) error {
	if s == nil || s.client == nil || s.bucket == "" {
		return ErrNotConfigured
	}
	objectPath, ok := helpers.ObjectPathFromURL(s.bucket, url)
	if !ok {
		return nil
	}
	return helpers.DeleteObject(ctx, s.client, s.bucket, objectPath)
}

// ObjectPath places each upload under avatars/<user id>/ with a fresh name.
func ObjectPath(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("avatars", userID, uuid.NewString()+ext)
}
