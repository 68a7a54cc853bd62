package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundlens/fundlens/internal/store"
	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry(ttl time.Duration) (*MemoryRegistry, *store.MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	st := store.NewMemoryStore()
	reg := NewMemoryRegistry(Config{TTL: ttl}, st)
	reg.now = clock.Now
	return reg, st, clock
}

func TestRegistry_TouchCreatesSession(t *testing.T) {
	reg, _, _ := newTestRegistry(time.Hour)
	ctx := context.Background()

	sess, err := reg.Touch(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 0, sess.TotalAnalyses)

	got, err := reg.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestRegistry_GetMissing(t *testing.T) {
	reg, _, _ := newTestRegistry(time.Hour)

	_, err := reg.Get(context.Background(), "nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestRegistry_SlidingExpiry(t *testing.T) {
	reg, _, clock := newTestRegistry(time.Hour)
	ctx := context.Background()

	sess, err := reg.Touch(ctx, "sess-1")
	require.NoError(t, err)

	// Touched every half TTL for three full TTLs, the session stays live.
	for i := 0; i < 6; i++ {
		clock.Advance(30 * time.Minute)
		_, err := reg.Touch(ctx, sess.ID)
		require.NoError(t, err)
	}
	live, err := reg.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, live.ID)

	// Left untouched past the TTL it becomes unreachable even though no
	// sweep has run.
	clock.Advance(time.Hour + time.Second)
	_, err = reg.Get(ctx, sess.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestRegistry_GetSlidesExpiry(t *testing.T) {
	reg, _, clock := newTestRegistry(time.Hour)
	ctx := context.Background()

	_, err := reg.Touch(ctx, "sess-1")
	require.NoError(t, err)

	// A read 45 minutes in renews the window, so 65 minutes after the
	// Touch the session is still live.
	clock.Advance(45 * time.Minute)
	_, err = reg.Get(ctx, "sess-1")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	sess, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID)

	// With no further activity the session lapses.
	clock.Advance(time.Hour + time.Second)
	_, err = reg.Get(ctx, "sess-1")
	assert.True(t, errors.IsNotFound(err))
}

func TestRegistry_IncrementAnalyses(t *testing.T) {
	reg, _, _ := newTestRegistry(time.Hour)
	ctx := context.Background()

	_, err := reg.Touch(ctx, "sess-1")
	require.NoError(t, err)

	require.NoError(t, reg.IncrementAnalyses(ctx, "sess-1"))
	require.NoError(t, reg.IncrementAnalyses(ctx, "sess-1"))

	sess, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.TotalAnalyses)

	err = reg.IncrementAnalyses(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestRegistry_DeleteCascades(t *testing.T) {
	reg, st, _ := newTestRegistry(time.Hour)
	ctx := context.Background()

	_, err := reg.Touch(ctx, "sess-1")
	require.NoError(t, err)

	a := &types.Analysis{SessionID: "sess-1", FundCode: "HGLG11"}
	b := &types.Analysis{SessionID: "sess-1", FundCode: "KNRI11"}
	require.NoError(t, st.SaveAnalysis(ctx, a))
	require.NoError(t, st.SaveAnalysis(ctx, b))

	removed, err := reg.Delete(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = reg.Get(ctx, "sess-1")
	assert.True(t, errors.IsNotFound(err))

	list, err := st.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegistry_DeleteMissingIsNoError(t *testing.T) {
	reg, _, _ := newTestRegistry(time.Hour)

	removed, err := reg.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestRegistry_SweepExpiredCascades(t *testing.T) {
	reg, st, clock := newTestRegistry(time.Hour)
	ctx := context.Background()

	_, err := reg.Touch(ctx, "old")
	require.NoError(t, err)
	require.NoError(t, st.SaveAnalysis(ctx, &types.Analysis{SessionID: "old", FundCode: "HGLG11"}))

	clock.Advance(50 * time.Minute)
	_, err = reg.Touch(ctx, "fresh")
	require.NoError(t, err)

	// "old" is now 70 minutes stale, "fresh" only 20.
	clock.Advance(20 * time.Minute)

	swept, err := reg.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = reg.Get(ctx, "old")
	assert.True(t, errors.IsNotFound(err))
	_, err = reg.Get(ctx, "fresh")
	require.NoError(t, err)

	list, err := st.ListBySession(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, list)

	count, err := reg.ActiveCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegistry_TouchExpiredStartsFresh(t *testing.T) {
	reg, st, clock := newTestRegistry(time.Hour)
	ctx := context.Background()

	_, err := reg.Touch(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, reg.IncrementAnalyses(ctx, "sess-1"))
	require.NoError(t, st.SaveAnalysis(ctx, &types.Analysis{SessionID: "sess-1", FundCode: "HGLG11"}))

	clock.Advance(2 * time.Hour)

	sess, err := reg.Touch(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.TotalAnalyses)

	// The previous incarnation's analyses are gone.
	list, err := st.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
