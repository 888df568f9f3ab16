package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"simpatch/internal/shared"
	"simpatch/internal/supabase"
)

// SupabaseStore uploads to a bucket of the project's storage API.
type SupabaseStore struct {
	client *supabase.Client
	bucket string
	upsert bool
}

func NewSupabaseStore(client *supabase.Client, bucket string, upsert bool) *SupabaseStore {
	return &SupabaseStore{client: client, bucket: bucket, upsert: upsert}
}

func (s *SupabaseStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	req, err := s.client.NewRequest(ctx, http.MethodPost, nil, r, "storage", "v1", "object", s.bucket, key)
	if err != nil {
		return err
	}
	if size >= 0 {
		req.ContentLength = size
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", strconv.FormatBool(s.upsert))

	resp, err := s.client.Do(req)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && apiErr.Conflict() {
			return fmt.Errorf("%s/%s: %w", s.bucket, key, shared.ErrObjectExists)
		}
		return fmt.Errorf("upload %s/%s: %w", s.bucket, key, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Exists issues a HEAD for the object. HEAD answers carry no body, so a bare
// 400 is read as a missing object like the 404 the storage API embeds in GET errors.
func (s *SupabaseStore) Exists(ctx context.Context, key string) (bool, error) {
	req, err := s.client.NewRequest(ctx, http.MethodHead, nil, nil, "storage", "v1", "object", s.bucket, key)
	if err != nil {
		return false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && (apiErr.NotFound() || apiErr.Status == http.StatusBadRequest) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s/%s: %w", s.bucket, key, err)
	}
	resp.Body.Close()
	return true, nil
}
