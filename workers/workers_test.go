package workers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hub/filter"
	"hub/models"
	"hub/store"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "hub.db"))
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st := store.NewSQL(db)
	require.NoError(t, st.EnsureCollections(context.Background(), models.Schema))
	return st
}

// failingStore rejects every create and counts the attempts.
type failingStore struct {
	store.Store
	mu    sync.Mutex
	calls int
}

func (f *failingStore) Create(context.Context, string, models.Record) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil, errors.New("disk full")
}

func TestAuditWriter_DrainsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	st := newStore(t)
	w := StartAuditWriter(st, 4, zerolog.Nop())

	for i := 0; i < 10; i++ {
		w.Log(ctx, models.AuditEntry{
			Action:     models.AUDIT_ACTION_UPDATE,
			Resource:   "expedientes",
			ResourceID: fmt.Sprintf("exp-%02d", i),
			ActorID:    "u1",
			IPAddress:  "10.0.0.1",
		})
	}
	require.NoError(t, w.Close(ctx))

	all, err := st.FullList(ctx, models.COLLECTION_AUDIT_LOGS, store.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 10)

	// closed writers still persist synchronously
	w.Log(ctx, models.AuditEntry{Action: models.AUDIT_ACTION_LOGIN, Resource: "auth"})
	late, err := st.First(ctx, models.COLLECTION_AUDIT_LOGS, filter.Eq("action", models.AUDIT_ACTION_LOGIN))
	require.NoError(t, err)
	assert.Equal(t, "unknown", late.String("ip_address"))
	details, _ := late["details"].(map[string]any)
	assert.Equal(t, "system", details["actor"])

	assert.NoError(t, w.Close(ctx), "close is idempotent")
}

func TestAuditWriter_PreservesOrderFromOneGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	st := newStore(t)
	w := StartAuditWriter(st, 64, zerolog.Nop())
	for i := 0; i < 20; i++ {
		w.Log(ctx, models.AuditEntry{Action: models.AUDIT_ACTION_CREATE, Resource: "tenants", ResourceID: fmt.Sprintf("t-%02d", i), ActorID: "u1"})
	}
	require.NoError(t, w.Close(ctx))

	all, err := st.FullList(ctx, models.COLLECTION_AUDIT_LOGS, store.Query{Sort: "created"})
	require.NoError(t, err)
	require.Len(t, all, 20)
	for i, rec := range all {
		assert.Equal(t, fmt.Sprintf("t-%02d", i), rec.String("resource_id"))
	}
}

func TestAuditWriter_FailuresAreSwallowed(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	st := &failingStore{}
	w := StartAuditWriter(st, 1, zerolog.Nop())
	for i := 0; i < 5; i++ {
		w.Log(ctx, models.AuditEntry{Action: models.AUDIT_ACTION_DELETE, Resource: "roles"})
	}
	require.NoError(t, w.Close(ctx))

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Equal(t, 5, st.calls)
}

func TestAuditWriter_CloseHonoursContext(t *testing.T) {
	st := &blockingStore{release: make(chan struct{})}
	w := StartAuditWriter(st, 1, zerolog.Nop())
	w.Log(context.Background(), models.AuditEntry{Action: models.AUDIT_ACTION_CREATE})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Close(ctx), context.DeadlineExceeded)

	close(st.release)
	assert.NoError(t, w.Close(context.Background()))
}

type blockingStore struct {
	store.Store
	release chan struct{}
}

func (b *blockingStore) Create(ctx context.Context, _ string, data models.Record) (models.Record, error) {
	<-b.release
	return data, nil
}

// gatedStore holds the first create until release is closed and records the
// resource ids in write order.
type gatedStore struct {
	store.Store
	release chan struct{}
	first   sync.Once
	mu      sync.Mutex
	written []string
}

func (g *gatedStore) Create(ctx context.Context, _ string, data models.Record) (models.Record, error) {
	g.first.Do(func() { <-g.release })
	g.mu.Lock()
	defer g.mu.Unlock()
	g.written = append(g.written, data.String("resource_id"))
	return data, nil
}

func (g *gatedStore) order() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.written...)
}

func TestAuditWriter_FullQueueKeepsOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	st := &gatedStore{release: make(chan struct{})}
	w := StartAuditWriter(st, 1, zerolog.Nop())

	logged := make(chan struct{})
	go func() {
		defer close(logged)
		for _, id := range []string{"1", "2", "3"} {
			w.Log(context.Background(), models.AuditEntry{Action: models.AUDIT_ACTION_UPDATE, Resource: "roles", ResourceID: id})
		}
	}()

	time.Sleep(20 * time.Millisecond)
	close(st.release)
	<-logged
	require.NoError(t, w.Close(context.Background()))

	assert.Equal(t, []string{"1", "2", "3"}, st.order())
}

func TestAuditWriter_DropsWhenQueueStaysFull(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	st := &gatedStore{release: make(chan struct{})}
	w := StartAuditWriter(st, 1, zerolog.Nop())
	w.enqueueTimeout = 10 * time.Millisecond

	ctx := context.Background()
	w.Log(ctx, models.AuditEntry{Action: models.AUDIT_ACTION_UPDATE, ResourceID: "1"})
	// wait for the loop to pick up the first entry so "2" fills the queue
	time.Sleep(10 * time.Millisecond)
	w.Log(ctx, models.AuditEntry{Action: models.AUDIT_ACTION_UPDATE, ResourceID: "2"})
	w.Log(ctx, models.AuditEntry{Action: models.AUDIT_ACTION_UPDATE, ResourceID: "3"})

	close(st.release)
	require.NoError(t, w.Close(ctx))
	assert.Equal(t, []string{"1", "2"}, st.order())
}

func session(t *testing.T, st store.Store, hash string, expires, absolute time.Time, revoked bool) {
	t.Helper()
	rec := models.Record{
		"user":             "u1",
		"token_hash":       hash,
		"profile":          models.SESSION_PROFILE_DEFAULT,
		"expires":          models.FormatTime(expires),
		"absolute_expires": models.FormatTime(absolute),
	}
	if revoked {
		rec["revoked_at"] = models.FormatTime(expires.Add(-time.Hour))
	}
	_, err := st.Create(context.Background(), models.COLLECTION_SESSIONS, rec)
	require.NoError(t, err)
}

func TestSessionJanitor_Sweep(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

	session(t, st, "live", now.Add(time.Hour), now.Add(8*time.Hour), false)
	session(t, st, "idle", now.Add(-time.Minute), now.Add(8*time.Hour), false)
	session(t, st, "absolute", now.Add(time.Hour), now.Add(-time.Second), false)
	session(t, st, "revoked", now.Add(time.Hour), now.Add(8*time.Hour), true)
	for i := 0; i < 5; i++ {
		session(t, st, fmt.Sprintf("old-%d", i), now.Add(-48*time.Hour), now.Add(-40*time.Hour), false)
	}

	j := NewSessionJanitor(st, time.Minute, 2, zerolog.Nop())
	j.now = func() time.Time { return now }

	n, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	left, err := st.FullList(ctx, models.COLLECTION_SESSIONS, store.Query{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "live", left[0].String("token_hash"))

	n, err = j.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionJanitor_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	st := newStore(t)
	now := time.Now()
	session(t, st, "stale", now.Add(-time.Hour), now.Add(-time.Minute), false)

	j := NewSessionJanitor(st, 10*time.Millisecond, 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		left, err := st.FullList(context.Background(), models.COLLECTION_SESSIONS, store.Query{})
		return err == nil && len(left) == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
