// Package storage uploads sound previews to an object store.
package storage

import (
	"context"
	"fmt"
	"io"

	"simpatch/internal/config"
	"simpatch/internal/supabase"
)

// Store is an object store addressed by bucket-relative keys.
type Store interface {
	// Upload writes size bytes from r under key.
	// Unless the store was opened with upsert, an existing object fails with shared.ErrObjectExists.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

var (
	_ Store = (*LocalStore)(nil)
	_ Store = (*SupabaseStore)(nil)
	_ Store = (*S3Store)(nil)
)

// Open returns the store selected by cfg.Storage.Driver. sb is only used by
// the supabase driver and may be nil otherwise.
func Open(ctx context.Context, cfg *config.Config, sb *supabase.Client) (Store, error) {
	s := cfg.Storage
	switch s.Driver {
	case config.StorageSupabase:
		if sb == nil {
			return nil, fmt.Errorf("supabase storage requires a supabase client")
		}
		return NewSupabaseStore(sb, s.Bucket, s.Upsert), nil
	case config.StorageS3:
		return NewS3Store(ctx, S3Options{
			Endpoint:        s.S3Endpoint,
			Region:          s.S3Region,
			AccessKeyID:     s.S3AccessKeyID,
			SecretAccessKey: s.S3SecretAccessKey,
			Bucket:          s.Bucket,
			Upsert:          s.Upsert,
		})
	case config.StorageLocal:
		return NewLocalStore(s.Root, s.Bucket, s.Upsert)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.Driver)
	}
}
