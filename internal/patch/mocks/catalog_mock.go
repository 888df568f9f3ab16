// filepath: internal/patch/mocks/catalog_mock.go
package mocks

import (
	"context"

	"simpatch/internal/models"
	"simpatch/internal/patch"

	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

var _ patch.Catalog = (*MockCatalog)(nil)

func (m *MockCatalog) PendingSimfiles(ctx context.Context) ([]models.Simfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Simfile), args.Error(1)
}

func (m *MockCatalog) SetSoundPreview(ctx context.Context, id int64, path string) error {
	args := m.Called(ctx, id, path)
	return args.Error(0)
}
