// Package storage provides object storage access for inventory media.
// This is part of the platform layer and contains no business logic.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"leadflow_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the default expiration time for presigned URLs (15 minutes).
const PresignedURLTTL = 15 * time.Minute

// Presigner issues time-limited download URLs for stored media keys.
type Presigner struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// NewPresigner creates a MinIO backed presigner. It returns nil when MinIO is not configured.
func NewPresigner(cfg config.MinIOConfig) (*Presigner, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Presigner{
		client: client,
		bucket: cfg.GetMinioBucketInventoryMedia(),
		ttl:    PresignedURLTTL,
	}, nil
}

// PresignMedia returns presigned GET URLs for the given keys, skipping keys that fail to sign.
func (p *Presigner) PresignMedia(ctx context.Context, keys []string) []string {
	if p == nil || len(keys) == 0 {
		return nil
	}

	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		u, err := p.client.PresignedGetObject(ctx, p.bucket, key, p.ttl, url.Values{})
		if err != nil {
			continue
		}
		urls = append(urls, u.String())
	}
	return urls
}
