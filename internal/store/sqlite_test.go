package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/headline-goat/abverdict/internal/store"
	"github.com/headline-goat/abverdict/internal/tally"
)

func setupTestDB(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func event(sec int64, variant int, eventType tally.EventType, visitor string) tally.Event {
	return tally.Event{
		Variant:   variant,
		EventType: eventType,
		VisitorID: visitor,
		CreatedAt: time.Unix(1700000000+sec, 0),
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateTest(ctx, "hero", []string{"A", "B"}))
	require.NoError(t, s.Close())

	// Applying the schema again keeps existing data
	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	variants, err := s.Variants(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, variants)
}

func TestVariants_NotFound(t *testing.T) {
	s := setupTestDB(t)

	_, err := s.Variants(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateTest_Duplicate(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTest(ctx, "hero", []string{"A", "B"}))
	assert.Error(t, s.CreateTest(ctx, "hero", []string{"A", "B"}))
}

func TestEvents_OrderAndDedup(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTest(ctx, "hero", []string{"A", "B"}))

	recorded := []tally.Event{
		event(5, 1, tally.EventConvert, "v1"),
		event(1, 1, tally.EventView, "v1"),
		event(2, 0, tally.EventView, "v2"),
		event(9, 1, tally.EventView, "v1"), // duplicate view, ignored
	}
	for _, e := range recorded {
		require.NoError(t, s.RecordEvent(ctx, "hero", e))
	}
	require.NoError(t, s.RecordEvent(ctx, "other", event(3, 0, tally.EventView, "v3")))

	events, err := s.Events(ctx, "hero")
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "v1", events[0].VisitorID)
	assert.Equal(t, tally.EventView, events[0].EventType)
	assert.Equal(t, "v2", events[1].VisitorID)
	assert.Equal(t, tally.EventConvert, events[2].EventType)
	assert.Equal(t, int64(1700000005), events[2].CreatedAt.Unix())
}

func TestEvents_FeedAggregate(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for i, visitor := range []string{"a", "b", "c"} {
		require.NoError(t, s.RecordEvent(ctx, "hero", event(int64(i), 0, tally.EventView, visitor)))
	}
	require.NoError(t, s.RecordEvent(ctx, "hero", event(10, 0, tally.EventConvert, "a")))

	events, err := s.Events(ctx, "hero")
	require.NoError(t, err)

	got, err := tally.Aggregate(events)
	require.NoError(t, err)
	assert.Equal(t, []tally.VariantStats{{Variant: 0, Views: 3, Conversions: 1}}, got.Variants)
}

func TestEvents_Empty(t *testing.T) {
	s := setupTestDB(t)

	events, err := s.Events(context.Background(), "hero")
	require.NoError(t, err)
	assert.Empty(t, events)
}
