package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSVault implements Vault on a Google Cloud Storage bucket. Object names
// are the blob names; the object name doubles as the blob ID, which is stable
// for the life of the object.
type GCSVault struct {
	bucket *gcs.BucketHandle
}

// NewGCSVault creates a vault backed by the named GCS bucket using ambient
// credentials.
func NewGCSVault(ctx context.Context, bucket string) (*GCSVault, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &GCSVault{bucket: client.Bucket(bucket)}, nil
}

var _ Vault = (*GCSVault)(nil)

// List returns metadata for every object in the bucket.
func (v *GCSVault) List(ctx context.Context) ([]*FileInfo, error) {
	var infos []*FileInfo
	it := v.bucket.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket: %w", err)
		}
		infos = append(infos, &FileInfo{
			ID:        attrs.Name,
			Name:      attrs.Name,
			Size:      attrs.Size,
			CreatedAt: attrs.Created,
		})
	}
	return infos, nil
}

// Get retrieves an object's contents.
func (v *GCSVault) Get(ctx context.Context, id string) ([]byte, error) {
	r, err := v.bucket.Object(id).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", id, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return data, nil
}

// Put stores an object under the given name.
func (v *GCSVault) Put(ctx context.Context, data []byte, name string) (*FileInfo, error) {
	w := v.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize blob %s: %w", name, err)
	}
	return &FileInfo{
		ID:        name,
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	}, nil
}

// Exists reports whether any object name starts with the given prefix.
func (v *GCSVault) Exists(ctx context.Context, namePrefix string) (bool, error) {
	it := v.bucket.Objects(ctx, &gcs.Query{Prefix: namePrefix})
	_, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe prefix %s: %w", namePrefix, err)
	}
	return true, nil
}
