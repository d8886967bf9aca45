package helpers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

// NewGCSClient opens a Cloud Storage client from a service-account file, or
// from Application Default Credentials when credsPath is empty.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return client, nil
}

// UploadObject streams r to bucket/objectPath and returns its public URL.
// An empty contentType is sniffed from the first 512 bytes.
func UploadObject(ctx context.Context, client *storage.Client, bucket, objectPath, contentType string, r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	if strings.TrimSpace(contentType) == "" {
		head, _ := br.Peek(512)
		contentType = http.DetectContentType(head)
	}

	wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=3600"
	wc.ChunkSize = 0 // avatars fit in a single request
	if _, err := io.Copy(wc, br); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("gcs write %s: %w", objectPath, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", objectPath, err)
	}
	return PublicURL(bucket, objectPath), nil
}

// DeleteObject removes bucket/objectPath. A missing object is not an error.
func DeleteObject(ctx context.Context, client *storage.Client, bucket, objectPath string) error {
	err := client.Bucket(bucket).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %s: %w", objectPath, err)
	}
	return nil
}

func PublicURL(bucket, objectPath string) string {
	return gcsPublicHost + "/" + bucket + "/" + strings.TrimPrefix(objectPath, "/")
}

// ObjectPathFromURL reverses PublicURL. ok is false for URLs outside bucket.
func ObjectPathFromURL(bucket, url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, gcsPublicHost+"/"+bucket+"/")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}
