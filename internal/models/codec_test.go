package models_test

import (
	"forensiai/backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestMediaToRow_EmptyURLIsNull(t *testing.T) {
	row := models.MediaToRow("CASE-2024-0001", models.MediaRecord{ID: "m1", FileName: "a.jpg"})

	assert.Nil(t, row["url"])
	assert.Nil(t, row["metadata"])
	assert.JSONEq(t, `[]`, string(row["comments"].(datatypes.JSON)))
}

// Drivers return JSON columns as bytes, strings or already-decoded values.
func TestMediaFromRow_AcceptsDriverRepresentations(t *testing.T) {
	comment := `[{"id":"c1","userId":"u1","userName":"Reyes","content":"note","timestamp":"2024-03-01T10:00:00Z","evidenceId":"m1"}]`
	decoded := []any{map[string]any{"id": "c1", "userId": "u1", "userName": "Reyes", "content": "note", "timestamp": "2024-03-01T10:00:00Z", "evidenceId": "m1"}}

	for name, value := range map[string]any{
		"bytes":   []byte(comment),
		"string":  comment,
		"decoded": decoded,
	} {
		t.Run(name, func(t *testing.T) {
			m := models.MediaFromRow(map[string]any{"id": "m1", "comments": value})

			require.Len(t, m.Comments, 1)
			assert.Equal(t, "c1", m.Comments[0].ID)
			assert.Equal(t, "Reyes", m.Comments[0].UserName)
		})
	}
}

func TestMediaFromRow_BrokenCommentsDegradeToEmpty(t *testing.T) {
	m := models.MediaFromRow(map[string]any{"id": "m1", "comments": "{not json"})

	assert.NotNil(t, m.Comments)
	assert.Empty(t, m.Comments)
}

func TestCallFromRow_NumericTolerance(t *testing.T) {
	for _, duration := range []any{int64(42), float64(42), "42", []byte("42"), 42} {
		c := models.CallFromRow(map[string]any{"id": "c1", "duration": duration})
		assert.Equal(t, 42, c.Duration)
	}
}

func TestTeamMessageRowRoundTrip(t *testing.T) {
	msg := models.TeamMessage{ID: "m-1", SenderID: "off-1", Content: "check the 10:00 call", Timestamp: "2024-03-01T10:00:00Z", Type: models.TeamMessageText}

	row := models.TeamMessageToRow("CASE-2024-0001", msg)

	assert.Equal(t, "CASE-2024-0001", row["case_id"])
	assert.Equal(t, msg, models.TeamMessageFromRow(row))
}
