package timeline_test

import (
	"fmt"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/timeline"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindsOf(events []timeline.Event) []models.Kind {
	out := make([]models.Kind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestAssemble_SameTimestampOrdersCallMessageLocation(t *testing.T) {
	// Arrange
	c := &models.Case{
		ID:        "CASE-2024-0001",
		Locations: []models.LocationRecord{{ID: "l1", Timestamp: "2024-03-01T10:00:00Z", Lat: 54.68, Lng: 25.28}},
		Messages:  []models.MessageRecord{{ID: "m1", Timestamp: "2024-03-01T10:00:00Z", Content: "where are you"}},
		Calls:     []models.CallRecord{{ID: "c1", Timestamp: "2024-03-01T10:00:00Z", Duration: 12}},
	}

	// Act
	events := timeline.Collect(c)

	// Assert
	assert.Equal(t, []models.Kind{models.KindCall, models.KindMessage, models.KindLocation}, kindsOf(events))
	assert.Equal(t, "c1", events[0].ID())
	assert.Equal(t, 12, events[0].Call.Duration, "kind-specific fields are kept")
	assert.Equal(t, "where are you", events[1].Message.Content)
}

// Equal timestamps are broken by kind regardless of how the input is ordered.
func TestAssemble_TieBreakIndependentOfInputOrder(t *testing.T) {
	ts := "2024-03-01T10:00:00+02:00"
	sameInstant := "2024-03-01T08:00:00Z"
	c := &models.Case{
		Locations: []models.LocationRecord{{ID: "l1", Timestamp: sameInstant}},
		Messages:  []models.MessageRecord{{ID: "m1", Timestamp: ts}},
		Calls:     []models.CallRecord{{ID: "c1", Timestamp: sameInstant}},
		Media:     []models.MediaRecord{{ID: "x1", Timestamp: ts}},
	}

	events := timeline.Collect(c)

	assert.Equal(t, []models.Kind{models.KindCall, models.KindMessage, models.KindLocation, models.KindMedia}, kindsOf(events))
}

func TestAssemble_OrdersByTimeThenCollectionIndex(t *testing.T) {
	c := &models.Case{
		Messages: []models.MessageRecord{
			{ID: "m-late", Timestamp: "2024-03-01T12:00:00Z"},
			{ID: "m-a", Timestamp: "2024-03-01T09:00:00Z"},
			{ID: "m-b", Timestamp: "2024-03-01T09:00:00Z"},
		},
		Calls: []models.CallRecord{{ID: "c-mid", Timestamp: "2024-03-01T10:30:00Z"}},
	}

	var ids []string
	for ev := range timeline.Assemble(c) {
		ids = append(ids, ev.ID())
	}

	assert.Equal(t, []string{"m-a", "m-b", "c-mid", "m-late"}, ids)
}

func TestAssemble_UnparseableTimestampsSortLast(t *testing.T) {
	c := &models.Case{
		Calls:    []models.CallRecord{{ID: "c-bad", Timestamp: "unknown"}},
		Messages: []models.MessageRecord{{ID: "m1", Timestamp: "2024-03-01T10:00:00Z"}},
	}

	events := timeline.Collect(c)

	require.Len(t, events, 2)
	assert.Equal(t, "m1", events[0].ID())
	assert.Equal(t, "c-bad", events[1].ID())
	_, ok := events[1].Time()
	assert.False(t, ok)
}

func TestAssemble_EmptyInput(t *testing.T) {
	assert.Empty(t, timeline.Collect(&models.Case{ID: "CASE-2024-0002"}))
	assert.Empty(t, timeline.Collect(nil))

	count := 0
	for range timeline.Assemble(&models.Case{}) {
		count++
	}
	assert.Zero(t, count)
}

func TestAssemble_RestartableAndStopsEarly(t *testing.T) {
	c := randomCase(rand.New(rand.NewPCG(1, 2)), 20)
	seq := timeline.Assemble(c)

	var first []timeline.Event
	for ev := range seq {
		first = append(first, ev)
		if len(first) == 3 {
			break
		}
	}
	var second []timeline.Event
	for ev := range seq {
		second = append(second, ev)
	}

	require.Len(t, first, 3)
	assert.Equal(t, first, second[:3])
}

// Property: for random evidence sets with many colliding timestamps,
// assembling twice gives identical output pointing at the same records.
func TestAssemble_IdempotentOverRandomCases(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*31+7))
		c := randomCase(rng, 1+rng.IntN(40))

		first := timeline.Collect(c)
		second := timeline.Collect(c)

		require.Equal(t, first, second, "seed %d", seed)
		for i := range first {
			require.Same(t, first[i].Record(), second[i].Record(), "seed %d index %d", seed, i)
		}
		assertOrdered(t, first)
	}
}

func TestFilter(t *testing.T) {
	c := &models.Case{
		Calls:     []models.CallRecord{{ID: "c1", Timestamp: "2024-03-01T10:00:00Z"}},
		Locations: []models.LocationRecord{{ID: "l1", Timestamp: "2024-03-01T09:00:00Z"}},
	}

	var ids []string
	for ev := range timeline.Filter(timeline.Assemble(c), models.KindLocation) {
		ids = append(ids, ev.ID())
	}

	assert.Equal(t, []string{"l1"}, ids)
}

func assertOrdered(t *testing.T, events []timeline.Event) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		pt, _ := prev.Time()
		ct, _ := cur.Time()
		require.False(t, pt.After(ct), "events %d and %d out of time order", i-1, i)
		if pt.Equal(ct) {
			require.LessOrEqual(t, prev.Kind.Rank(), cur.Kind.Rank())
			if prev.Kind == cur.Kind {
				require.Less(t, prev.Index, cur.Index)
			}
		}
	}
}

// randomCase draws timestamps from a handful of minutes so collisions are common.
func randomCase(rng *rand.Rand, n int) *models.Case {
	c := &models.Case{ID: "CASE-2024-0001"}
	for i := 0; i < n; i++ {
		ts := fmt.Sprintf("2024-03-01T10:%02d:00Z", rng.IntN(4))
		id := fmt.Sprintf("e%d", i)
		switch rng.IntN(4) {
		case 0:
			c.Calls = append(c.Calls, models.CallRecord{ID: id, Timestamp: ts})
		case 1:
			c.Messages = append(c.Messages, models.MessageRecord{ID: id, Timestamp: ts})
		case 2:
			c.Locations = append(c.Locations, models.LocationRecord{ID: id, Timestamp: ts})
		default:
			c.Media = append(c.Media, models.MediaRecord{ID: id, Timestamp: ts})
		}
	}
	return c
}
