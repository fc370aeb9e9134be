package casesync_test

import (
	"context"
	"encoding/base64"
	"errors"
	"forensiai/backend/internal/casesync"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage/storagetest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mediaCase(media ...models.MediaRecord) *models.Case {
	c := sampleCase()
	c.Media = media
	return c
}

func storedMediaURL(t *testing.T, store *storagetest.Store, id string) any {
	t.Helper()
	for _, r := range store.Rows(models.TableMedia) {
		if r["id"] == id {
			return r["url"]
		}
	}
	t.Fatalf("media %s not stored", id)
	return nil
}

func TestMedia_TransientURLWithoutUploaderIsStoredEmpty(t *testing.T) {
	// Arrange
	store := storagetest.New()
	m := casesync.NewManager(store)
	c := mediaCase(models.MediaRecord{ID: "m1", FileName: "IMG_1.jpg", URL: "blob:http://localhost:5173/9f1c", Blob: []byte{0xff, 0xd8}})

	// Act
	report := m.Create(context.Background(), c, officer)

	// Assert
	require.True(t, report.OK())
	assert.Nil(t, storedMediaURL(t, store, "m1"))
	assert.Equal(t, "blob:http://localhost:5173/9f1c", c.Media[0].URL, "the session keeps its working handle")

	loaded, err := casesync.NewManager(store).Load(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Media[0].NeedsReextraction)
	assert.Empty(t, loaded.Media[0].URL)
}

func TestMedia_LegacyTransientURLNeedsReextraction(t *testing.T) {
	store := storagetest.New()
	m := casesync.NewManager(store)
	require.True(t, m.Create(context.Background(), sampleCase(), officer).OK())
	store.Seed(models.TableMedia, map[string]any{
		"id": "legacy", "case_id": "CASE-2024-0001", "file_name": "old.png", "url": "blob:http://localhost/dead",
	})

	loaded, err := m.Load(context.Background(), "CASE-2024-0001")

	require.NoError(t, err)
	var legacy models.MediaRecord
	for _, media := range loaded.Media {
		if media.ID == "legacy" {
			legacy = media
		}
	}
	assert.True(t, legacy.NeedsReextraction)
	assert.Empty(t, legacy.URL)
}

func TestMedia_TransientURLIsUploaded(t *testing.T) {
	store := storagetest.New()
	uploader := new(MockUploader)
	uploader.On("Upload", mock.Anything, "CASE-2024-0001", mock.MatchedBy(func(m models.MediaRecord) bool { return m.ID == "m1" }), []byte{0xff, 0xd8}).
		Return("https://minio.local/evidence-media/CASE-2024-0001/m1/IMG_1.jpg", nil)
	m := casesync.NewManager(store, casesync.WithUploader(uploader))
	c := mediaCase(models.MediaRecord{ID: "m1", FileName: "IMG_1.jpg", URL: "blob:http://localhost:5173/9f1c", Blob: []byte{0xff, 0xd8}})

	report := m.Create(context.Background(), c, officer)

	require.True(t, report.OK())
	assert.Equal(t, "https://minio.local/evidence-media/CASE-2024-0001/m1/IMG_1.jpg", storedMediaURL(t, store, "m1"))
	assert.Equal(t, "https://minio.local/evidence-media/CASE-2024-0001/m1/IMG_1.jpg", c.Media[0].URL)
	uploader.AssertExpectations(t)
}

func TestMedia_UploadFailureStoresEmpty(t *testing.T) {
	store := storagetest.New()
	uploader := new(MockUploader)
	uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket unreachable"))
	m := casesync.NewManager(store, casesync.WithUploader(uploader))
	c := mediaCase(models.MediaRecord{ID: "m1", URL: "blob:http://localhost/1", Blob: []byte("x")})

	report := m.Create(context.Background(), c, officer)

	assert.True(t, report.OK(), "upload failure degrades the url, not the sync")
	assert.Nil(t, storedMediaURL(t, store, "m1"))
}

func TestMedia_InlineDataURLs(t *testing.T) {
	small := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("tiny"))
	payload := []byte(strings.Repeat("A", 400000))
	large := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
	require.Greater(t, len(large), 500000)

	t.Run("small kept", func(t *testing.T) {
		store := storagetest.New()
		m := casesync.NewManager(store)

		m.Create(context.Background(), mediaCase(models.MediaRecord{ID: "m1", URL: small}), officer)

		assert.Equal(t, small, storedMediaURL(t, store, "m1"))
	})

	t.Run("large dropped without uploader", func(t *testing.T) {
		store := storagetest.New()
		m := casesync.NewManager(store)

		m.Create(context.Background(), mediaCase(models.MediaRecord{ID: "m1", URL: large}), officer)

		assert.Nil(t, storedMediaURL(t, store, "m1"))
	})

	t.Run("large uploaded from decoded payload", func(t *testing.T) {
		store := storagetest.New()
		uploader := new(MockUploader)
		uploader.On("Upload", mock.Anything, "CASE-2024-0001", mock.Anything, payload).Return("https://minio.local/x.png", nil)
		m := casesync.NewManager(store, casesync.WithUploader(uploader))

		m.Create(context.Background(), mediaCase(models.MediaRecord{ID: "m1", URL: large}), officer)

		assert.Equal(t, "https://minio.local/x.png", storedMediaURL(t, store, "m1"))
		uploader.AssertExpectations(t)
	})
}
