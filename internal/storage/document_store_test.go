package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDocumentStore_LoadBeforeFirstWrite(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	store, err := NewDocumentStore(db, time.Second)
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDocumentStore_StoreAndLoad(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	store, err := NewDocumentStore(db, time.Second)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, []byte(`{"v":1}`)))
	require.NoError(t, store.Store(ctx, []byte(`{"v":2}`)))

	raw, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"v":2}`, string(raw))
}

func TestDocumentStore_WatchSeesForeignWrites(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)

	reader, err := NewDocumentStore(db, 20*time.Millisecond)
	require.NoError(t, err)
	defer reader.Close()
	writer, err := NewDocumentStore(db, time.Second)
	require.NoError(t, err)
	defer writer.Close()

	ctx := context.Background()
	require.NoError(t, reader.Store(ctx, []byte(`{"origin":"reader"}`)))
	_, _, err = reader.Load(ctx)
	require.NoError(t, err)

	var mu sync.Mutex
	var got []byte
	notified := make(chan struct{}, 1)
	reader.Watch(func(raw []byte) {
		mu.Lock()
		got = append([]byte(nil), raw...)
		mu.Unlock()
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	require.NoError(t, writer.Store(ctx, []byte(`{"origin":"writer"}`)))

	select {
	case <-notified:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never fired for a foreign write")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.JSONEq(t, `{"origin":"writer"}`, string(got))
}

func TestDocumentStore_WatchIgnoresOwnWrites(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	store, err := NewDocumentStore(db, 20*time.Millisecond)
	require.NoError(t, err)
	defer store.Close()

	fired := make(chan struct{}, 1)
	store.Watch(func([]byte) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, []byte(`{"v":1}`)))
	require.NoError(t, store.Store(ctx, []byte(`{"v":2}`)))

	select {
	case <-fired:
		t.Fatal("watcher fired for this writer's own writes")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRegisterModule_IsIdempotent(t *testing.T) {
	db := openTestDB(t, t.TempDir())

	require.NoError(t, db.RegisterModule(&DocumentsModule{}))
	require.NoError(t, db.RegisterModule(&DocumentsModule{}))

	var version int
	err := db.QueryRow("SELECT version FROM schema_versions WHERE module = ?", "documents").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}
