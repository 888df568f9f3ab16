// filepath: internal/patch/mocks/store_mock.go
package mocks

import (
	"context"
	"io"

	"simpatch/internal/patch"

	"github.com/stretchr/testify/mock"
)

// MockStore mocks the object store
type MockStore struct {
	mock.Mock
}

var _ patch.Store = (*MockStore)(nil)

func (m *MockStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, r, size, contentType)
	return args.Error(0)
}

func (m *MockStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
