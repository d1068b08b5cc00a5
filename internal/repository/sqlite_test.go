package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

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

func TestSQLiteStoreEnsureSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = clock.Now

	first, err := store.EnsureSession(ctx, "s1")
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if first.MessageCount != 0 || !first.CreatedAt.Equal(clock.Now()) {
		t.Fatalf("unexpected session: %+v", first)
	}

	clock.Advance(time.Minute)
	second, err := store.EnsureSession(ctx, "s1")
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt), "created_at must not move")
	assert.True(t, second.LastActivity.Equal(first.LastActivity), "ensure must not touch last_activity")
}

func TestSQLiteStoreAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = clock.Now

	for i := 0; i < 5; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msg, err := store.AppendMessage(ctx, "s1", role, fmt.Sprintf("m%d", i))
		if err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
		assert.Equal(t, "s1", msg.SessionID)
		assert.NotZero(t, msg.ID)
		clock.Advance(time.Second)
	}

	history, err := store.GetHistory(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	require.Len(t, history, 3)
	assert.Equal(t, "m2", history[0].Content)
	assert.Equal(t, "m3", history[1].Content)
	assert.Equal(t, "m4", history[2].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)

	all, err := store.GetHistory(ctx, "s1", 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := store.GetHistory(ctx, "s1", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	unknown, err := store.GetHistory(ctx, "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	stats, err := store.GetSessionStats(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 5, stats.TotalMessages)
	assert.Equal(t, map[string]int{"user": 3, "assistant": 2}, stats.MessageBreakdown)
	assert.True(t, stats.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, stats.LastActivity.Equal(time.Date(2026, 3, 1, 12, 0, 4, 0, time.UTC)))
}

func TestSQLiteStoreHistoryOrdersTiesByInsertion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	for _, content := range []string{"a", "b", "c"} {
		if _, err := store.AppendMessage(ctx, "s1", domain.RoleUser, content); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	history, err := store.GetHistory(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].Content)
	assert.Equal(t, "c", history[1].Content)
}

func TestSQLiteStoreAppendIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	_, err := store.AppendMessage(ctx, "s1", domain.Role("system"), "rejected")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))

	stats, err := store.GetSessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, stats, "failed append must not leave a session behind")

	_, err = store.AppendMessage(ctx, "s1", domain.RoleUser, "hello")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, "s1", domain.Role("tool"), "rejected")
	require.Error(t, err)

	stats, err = store.GetSessionStats(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalMessages)
}

func TestSQLiteStoreClearSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	for _, id := range []string{"s1", "s2"} {
		_, err := store.AppendMessage(ctx, id, domain.RoleUser, "hi")
		require.NoError(t, err)
		_, err = store.AppendMessage(ctx, id, domain.RoleAssistant, "hello")
		require.NoError(t, err)
	}

	require.NoError(t, store.ClearSession(ctx, "s1"))
	require.NoError(t, store.ClearSession(ctx, "s1"))
	require.NoError(t, store.ClearSession(ctx, "never-existed"))

	history, err := store.GetHistory(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	stats, err := store.GetSessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, stats)

	other, err := store.GetHistory(ctx, "s2", 10)
	require.NoError(t, err)
	assert.Len(t, other, 2)

	msg, err := store.AppendMessage(ctx, "s1", domain.RoleUser, "again")
	require.NoError(t, err)
	assert.Equal(t, "again", msg.Content)
	stats, err = store.GetSessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMessages)
}

func TestSQLiteStoreAnalytics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	empty, err := store.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalSessions)
	assert.Equal(t, 0.0, empty.AvgMessagesPerSession)
	assert.NotNil(t, empty.MessagesByType)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = clock.Now

	_, err = store.AppendMessage(ctx, "old", domain.RoleUser, "hi")
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	for _, id := range []string{"s1", "s2"} {
		_, err = store.AppendMessage(ctx, id, domain.RoleUser, "hi")
		require.NoError(t, err)
	}
	_, err = store.AppendMessage(ctx, "s1", domain.RoleAssistant, "hello")
	require.NoError(t, err)

	got, err := store.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalSessions)
	assert.Equal(t, 4, got.TotalMessages)
	assert.Equal(t, map[string]int{"user": 3, "assistant": 1}, got.MessagesByType)
	assert.Equal(t, 2, got.ActiveSessions24h)
	assert.Equal(t, 1.33, got.AvgMessagesPerSession)
}

func TestSQLiteStoreFileDatabaseConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "sessions.db")
	store, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AppendMessage(ctx, "shared", domain.RoleUser, fmt.Sprintf("m%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats, err := store.GetSessionStats(ctx, "shared")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 8, stats.TotalMessages)
	assert.Equal(t, 8, stats.MessageBreakdown["user"])
}

func TestSQLiteStoreConcurrentEnsureCreatesOneSession(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "sessions.db")
	store, err := NewSQLiteStore(dsn)
	require.NoError(t, err)
	defer store.Close()

	const workers = 8
	sessions := make([]*domain.Session, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], errs[i] = store.EnsureSession(ctx, "new")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, sessions[i])
		assert.Equal(t, 0, sessions[i].MessageCount)
		assert.True(t, sessions[i].CreatedAt.Equal(sessions[0].CreatedAt), "created_at differs between callers")
	}

	var rows int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE session_id = ?`, "new").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on&_busy_timeout=5000", withPragmas(":memory:", true))
	assert.Equal(t,
		"file:x.db?cache=shared&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate",
		withPragmas("file:x.db?cache=shared", false))
	assert.Equal(t,
		"file:x.db?_busy_timeout=100&_foreign_keys=on&_journal_mode=WAL&_txlock=immediate",
		withPragmas("file:x.db?_busy_timeout=100", false))
}
