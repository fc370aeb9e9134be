package storage_test

import (
	"context"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestFeed(t *testing.T) (*storage.RedisFeed, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return storage.NewRedisFeed(client), client
}

func receive(t *testing.T, sub storage.Subscription) storage.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "stream closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return storage.ChangeEvent{}
	}
}

func TestRedisFeed_DeliversMatchingInserts(t *testing.T) {
	// Arrange
	feed, _ := setupTestFeed(t)
	ctx := context.Background()
	sub, err := feed.Subscribe(ctx, models.TableTeamMessages, storage.Where("case_id", "CASE-2024-0001"))
	require.NoError(t, err)
	defer sub.Close()

	// Act
	require.NoError(t, feed.Publish(ctx, storage.ChangeEvent{
		Table: models.TableTeamMessages, Operation: storage.OpInsert,
		Row: storage.Row{"id": "other", "case_id": "CASE-2024-0002"},
	}))
	require.NoError(t, feed.Publish(ctx, storage.ChangeEvent{
		Table: models.TableTeamMessages, Operation: storage.OpInsert,
		Row: models.TeamMessageToRow("CASE-2024-0001", models.TeamMessage{ID: "t1", SenderID: "off-2", Content: "found it", Type: models.TeamMessageText}),
	}))

	// Assert
	ev := receive(t, sub)
	assert.Equal(t, storage.OpInsert, ev.Operation)
	assert.Equal(t, "t1", models.TeamMessageFromRow(ev.Row).ID)
}

func TestRedisFeed_CloseEndsStream(t *testing.T) {
	feed, _ := setupTestFeed(t)
	sub, err := feed.Subscribe(context.Background(), models.TableTeamMessages, storage.Predicate{})
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close(), "second close is a no-op")

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisFeed_IgnoresMalformedPayloads(t *testing.T) {
	feed, client := setupTestFeed(t)
	ctx := context.Background()
	sub, err := feed.Subscribe(ctx, models.TableTeamMessages, storage.Predicate{})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, client.Publish(ctx, "changes:team_messages", "{broken").Err())
	require.NoError(t, feed.Publish(ctx, storage.ChangeEvent{Table: models.TableTeamMessages, Operation: storage.OpInsert, Row: storage.Row{"id": "t9"}}))

	assert.Equal(t, "t9", receive(t, sub).Row["id"])
}

func TestPresence(t *testing.T) {
	_, client := setupTestFeed(t)
	p := storage.NewPresence(client)
	ctx := context.Background()

	require.NoError(t, p.MarkOnline(ctx, "off-1"))
	require.NoError(t, p.MarkOnline(ctx, "off-2"))
	require.NoError(t, p.MarkOffline(ctx, "off-1"))

	online, err := p.Online(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"off-2"}, online)
}
