package search_test

import (
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/search"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentID_IsIndexSafe(t *testing.T) {
	id := search.DocumentID("CASE-2024-0001", models.KindMedia, "DCIM/IMG 1.jpg")

	assert.Equal(t, "CASE-2024-0001_media_DCIM-IMG-1-jpg", id)
	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, id)
}

func TestDocuments_FollowTimelineOrder(t *testing.T) {
	// Arrange
	c := &models.Case{
		ID:       "CASE-2024-0001",
		Messages: []models.MessageRecord{{ID: "m1", Timestamp: "2024-03-01T11:00:00Z", From: "+100", To: "+200", Content: "bring the package", App: "Signal"}},
		Calls:    []models.CallRecord{{ID: "c1", Timestamp: "2024-03-01T10:00:00Z", From: "+100", To: "+300", Type: "outgoing"}},
		Media: []models.MediaRecord{{
			ID: "x1", Timestamp: "2024-03-01T12:00:00Z", FileName: "IMG_7.jpg",
			Metadata: &models.MediaMetadata{Device: "Pixel 7"},
			Comments: []models.CaseComment{{ID: "k1", Content: "blue sedan"}},
		}},
	}

	// Act
	docs := search.Documents(c)

	// Assert
	require.Len(t, docs, 3)
	assert.Equal(t, "call", docs[0].Kind)
	assert.Equal(t, "bring the package", docs[1].Body)
	assert.Equal(t, "IMG_7.jpg", docs[2].Title)
	assert.Contains(t, docs[2].Body, "Pixel 7")
	assert.Contains(t, docs[2].Body, "blue sedan")
	for _, d := range docs {
		assert.Equal(t, "CASE-2024-0001", d.CaseID)
	}
}

func TestDocuments_EmptyCase(t *testing.T) {
	assert.Empty(t, search.Documents(&models.Case{ID: "CASE-2024-0002"}))
}
