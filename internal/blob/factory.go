package blob

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/elephant/internal/config"
)

// NewFromConfig creates a Store implementation based on the blob config driver.
func NewFromConfig(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			PathStyle: cfg.PathStyle,
		})
	case "filesystem":
		return NewFilesystemStore(cfg.Root)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver: %s", cfg.Driver)
	}
}
