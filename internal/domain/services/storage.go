package services

import "context"

// ObjectStorage stores generated documents and returns their public URL
type ObjectStorage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
