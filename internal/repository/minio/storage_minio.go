package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/njprem/tour_catalog_BackEnd/internal/repository/ports"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// CatalogImages resolves catalog image object keys to public URLs in a
// single bucket.
type CatalogImages struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

func NewCatalogImages(client *minio.Client, bucket, publicBase string) *CatalogImages {
	base := strings.TrimRight(strings.TrimSpace(publicBase), "/")
	if base == "" && client != nil {
		base = strings.TrimRight(client.EndpointURL().String(), "/")
	}
	return &CatalogImages{client: client, bucket: bucket, publicBase: base}
}

func (s *CatalogImages) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func (s *CatalogImages) PublicURL(objectKey string) string {
	key := strings.TrimLeft(strings.TrimSpace(objectKey), "/")
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	escaped := (&url.URL{Path: key}).EscapedPath()
	return s.publicBase + "/" + s.bucket + "/" + escaped
}

var _ ports.ObjectStorage = (*CatalogImages)(nil)
