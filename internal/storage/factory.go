package storage

import (
	"context"
	"fmt"

	"agromart.store/app/internal/config"
)

// New picks the driver named in cfg.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalDir, cfg.LocalURLPrefix), nil
	case "s3":
		return NewS3(ctx, S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
