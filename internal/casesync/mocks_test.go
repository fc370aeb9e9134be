package casesync_test

import (
	"context"
	"forensiai/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockUploader is a testify mock of casesync.MediaUploader.
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, caseID string, media models.MediaRecord, data []byte) (string, error) {
	args := m.Called(ctx, caseID, media, data)
	return args.String(0), args.Error(1)
}

// MockIndexer is a testify mock of casesync.Indexer.
type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexCase(ctx context.Context, c *models.Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockIndexer) DeleteCase(ctx context.Context, caseID string) error {
	args := m.Called(ctx, caseID)
	return args.Error(0)
}
