package storage

import (
	"context"
	"fmt"

	"gradvillage.backend/internal/config"
	"gradvillage.backend/internal/domain/services"
)

// New selects the storage driver named in config. Local URLs are rooted at
// publicBaseURL, the API's own address.
func New(ctx context.Context, cfg config.StorageConfig, publicBaseURL string) (services.ObjectStorage, error) {
	switch cfg.Driver {
	case "", "local":
		base := cfg.PublicBaseURL
		if base == "" {
			base = publicBaseURL
		}
		return NewLocalStorage(cfg.LocalDir, base)
	case "s3":
		return NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, cfg.PublicBaseURL)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
