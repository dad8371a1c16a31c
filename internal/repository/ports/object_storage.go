package ports

import "context"

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	// PublicURL maps a stored object key to the URL clients fetch it from.
	PublicURL(objectKey string) string
}
