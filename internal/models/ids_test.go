package models_test

import (
	"forensiai/backend/internal/models"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_DeterministicPerCaseAndKind(t *testing.T) {
	g := models.NewIDGenerator()

	assert.Equal(t, "CASE-2024-0001_call_1", g.Next("CASE-2024-0001", models.KindCall))
	assert.Equal(t, "CASE-2024-0001_call_2", g.Next("CASE-2024-0001", models.KindCall))
	assert.Equal(t, "CASE-2024-0001_media_1", g.Next("CASE-2024-0001", models.KindMedia))
	assert.Equal(t, "CASE-2024-0002_call_1", g.Next("CASE-2024-0002", models.KindCall))
}

// Rapid synthesis from many goroutines must never produce the same id twice.
func TestIDGenerator_NoCollisionsUnderRapidSynthesis(t *testing.T) {
	g := models.NewIDGenerator()
	const workers, perWorker = 8, 500

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := g.Next("CASE-2024-0001", models.KindMessage)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestAssignMissingIDs_IsIdempotent(t *testing.T) {
	// Arrange
	c := &models.Case{
		ID:        "CASE-2024-0001",
		Calls:     []models.CallRecord{{Timestamp: "2024-03-01T10:00:00Z"}, {ID: "upstream-7", Timestamp: "2024-03-01T11:00:00Z"}},
		Messages:  []models.MessageRecord{{Timestamp: "2024-03-01T10:00:00Z"}},
		Locations: []models.LocationRecord{{Timestamp: "2024-03-01T10:00:00Z"}},
		Media:     []models.MediaRecord{{Timestamp: "2024-03-01T10:00:00Z"}},
	}
	g := models.NewIDGenerator()

	// Act
	first := models.AssignMissingIDs(c, g)
	snapshot := c.Clone()
	second := models.AssignMissingIDs(c, g)

	// Assert
	assert.Equal(t, 4, first)
	assert.Equal(t, 0, second, "ids already present must never be reassigned")
	assert.Equal(t, snapshot, c)
	assert.Equal(t, "upstream-7", c.Calls[1].ID)
	assert.Equal(t, "CASE-2024-0001_call_1", c.Calls[0].ID)
}

// A fresh generator must not reissue ids already synthesized into a snapshot.
func TestAssignMissingIDs_ObservesExistingSynthesizedIDs(t *testing.T) {
	c := &models.Case{
		ID:    "CASE-2024-0001",
		Calls: []models.CallRecord{{ID: "CASE-2024-0001_call_3"}, {}},
	}

	models.AssignMissingIDs(c, models.NewIDGenerator())

	assert.Equal(t, "CASE-2024-0001_call_4", c.Calls[1].ID)
}

func TestNewCaseID_Format(t *testing.T) {
	now := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^CASE-2024-\d{4}$`)

	for i := 0; i < 50; i++ {
		id := models.NewCaseID(now)
		require.Regexp(t, pattern, id)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-03-01T10:00:00Z", true},
		{"2024-03-01T10:00:00.123456+02:00", true},
		{"2024-03-01T10:00:00", true},
		{"2024-03-01 10:00:00", true},
		{"", false},
		{"yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, ok := models.ParseTimestamp(tt.in)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestClassifyURL(t *testing.T) {
	assert.Equal(t, models.URLEmpty, models.ClassifyURL(""))
	assert.Equal(t, models.URLTransient, models.ClassifyURL("blob:http://localhost:5173/1b2c"))
	assert.Equal(t, models.URLInlineData, models.ClassifyURL("data:image/png;base64,AAAA"))
	assert.Equal(t, models.URLDurable, models.ClassifyURL("https://minio.local/evidence-media/CASE-1/m1/a.jpg"))
}
