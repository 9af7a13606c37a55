package history

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/storefront-search/internal/blob"
	"github.com/lox/storefront-search/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T, opts ...Option) (*Store, *blob.MemoryStorage, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	storage := blob.NewMemoryStorage()
	n := 0
	base := []Option{
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}
	return New(storage, log.New(io.Discard), append(base, opts...)...), storage, clock
}

func TestLoadEmpty(t *testing.T) {
	store, _, _ := newTestStore(t)

	h := store.Load(context.Background())
	assert.Empty(t, h.Queries)
	assert.NotNil(t, h.Queries)
	assert.Equal(t, DefaultMaxSize, h.MaxSize)
}

func TestLoadCorruptBlobIsEmpty(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, DefaultKey, []byte("{not json")))

	h := store.Load(ctx)
	assert.Empty(t, h.Queries)
	assert.Equal(t, DefaultMaxSize, h.MaxSize)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	category := "shoes"
	h := types.SearchHistory{
		Queries: []types.SearchQuery{
			{
				ID:           "a",
				Query:        "red shoe",
				Type:         types.QueryTypeVoice,
				Filters:      &types.SearchFilters{Category: &category, InStock: true, SortBy: types.SortPriceLow},
				ResultsCount: 3,
				Timestamp:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
			},
			{
				ID:        "b",
				Query:     "hat",
				Type:      types.QueryTypeText,
				Timestamp: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
			},
		},
		MaxSize: 20,
	}

	require.NoError(t, store.Save(ctx, h))
	assert.Equal(t, h, store.Load(ctx))
}

func TestAddBlankIsNoop(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"", "   ", "\t\n"} {
		require.NoError(t, store.Add(ctx, q, types.QueryTypeText, 1, nil))
	}
	assert.Empty(t, store.Load(ctx).Queries)
}

func TestAddTrimsAndPrepends(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "  shoe  ", types.QueryTypeText, 2, nil))
	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Add(ctx, "hat", types.QueryTypeBarcode, 0, nil))

	h := store.Load(ctx)
	require.Len(t, h.Queries, 2)
	assert.Equal(t, "hat", h.Queries[0].Query)
	assert.Equal(t, types.QueryTypeBarcode, h.Queries[0].Type)
	assert.Equal(t, "shoe", h.Queries[1].Query)
	assert.Equal(t, "id-1", h.Queries[1].ID)
}

func TestAddDedupesWithinWindow(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "Shoe", types.QueryTypeText, 2, nil))
	clock.Advance(30 * time.Second)
	require.NoError(t, store.Add(ctx, "shoe", types.QueryTypeText, 7, nil))

	h := store.Load(ctx)
	require.Len(t, h.Queries, 1)
	assert.Equal(t, 7, h.Queries[0].ResultsCount)
	assert.Equal(t, clock.Now(), h.Queries[0].Timestamp)
	assert.Equal(t, "Shoe", h.Queries[0].Query)
}

func TestAddAfterWindowAppendsNewEntry(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "shoe", types.QueryTypeText, 2, nil))
	clock.Advance(DedupeWindow)
	require.NoError(t, store.Add(ctx, "shoe", types.QueryTypeText, 5, nil))

	assert.Len(t, store.Load(ctx).Queries, 2)
}

func TestAddEvictsOldest(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 51; i++ {
		require.NoError(t, store.Add(ctx, fmt.Sprintf("query %d", i), types.QueryTypeText, i, nil))
		clock.Advance(time.Second)
	}

	h := store.Load(ctx)
	require.Len(t, h.Queries, 50)
	assert.Equal(t, "query 51", h.Queries[0].Query)
	assert.Equal(t, "query 2", h.Queries[49].Query)
	for _, q := range h.Queries {
		assert.NotEqual(t, "query 1", q.Query)
	}
}

func TestCustomMaxSize(t *testing.T) {
	store, _, clock := newTestStore(t, WithMaxSize(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Add(ctx, fmt.Sprintf("q%d", i), types.QueryTypeText, 1, nil))
		clock.Advance(time.Second)
		assert.LessOrEqual(t, len(store.Load(ctx).Queries), 3)
	}
	assert.Equal(t, "q4", store.Load(ctx).Queries[0].Query)
}

func TestRemoveAndClear(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "one", types.QueryTypeText, 1, nil))
	clock.Advance(time.Second)
	require.NoError(t, store.Add(ctx, "two", types.QueryTypeText, 1, nil))

	require.NoError(t, store.Remove(ctx, "id-1"))
	require.NoError(t, store.Remove(ctx, "missing"))
	h := store.Load(ctx)
	require.Len(t, h.Queries, 1)
	assert.Equal(t, "two", h.Queries[0].Query)

	require.NoError(t, store.Clear(ctx))
	h = store.Load(ctx)
	assert.Empty(t, h.Queries)
	assert.Equal(t, DefaultMaxSize, h.MaxSize)
}

func TestRecent(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c"} {
		require.NoError(t, store.Add(ctx, q, types.QueryTypeText, 1, nil))
		clock.Advance(time.Second)
	}

	recent := store.Recent(ctx, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Query)
	assert.Equal(t, "b", recent[1].Query)
	assert.Len(t, store.Recent(ctx, 10), 3)
	assert.Empty(t, store.Recent(ctx, 0))
}

func TestSubscribeNotifiesOnSave(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	var seen []int
	unsubscribe := store.Subscribe(func(h types.SearchHistory) {
		seen = append(seen, len(h.Queries))
	})

	require.NoError(t, store.Add(ctx, "shoe", types.QueryTypeText, 1, nil))
	require.NoError(t, store.Clear(ctx))
	unsubscribe()
	require.NoError(t, store.Add(ctx, "hat", types.QueryTypeText, 1, nil))

	assert.Equal(t, []int{1, 0}, seen)
}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("disk on fire")
}

func (failingStorage) Set(context.Context, string, []byte) error {
	return fmt.Errorf("disk on fire")
}

func (failingStorage) Delete(context.Context, string) error { return nil }

func TestStorageFailuresDegrade(t *testing.T) {
	store := New(failingStorage{}, log.New(io.Discard))
	ctx := context.Background()

	h := store.Load(ctx)
	assert.Empty(t, h.Queries)

	notified := false
	store.Subscribe(func(types.SearchHistory) { notified = true })
	assert.Error(t, store.Add(ctx, "shoe", types.QueryTypeText, 1, nil))
	assert.False(t, notified)
}
