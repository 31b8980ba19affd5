package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const documentKey = "favorites-state"

// DocumentStore persists the whole serialized state document under a single
// key. Every write is a whole-document replacement that bumps a revision
// counter and records the writer's instance id; a poller watches the
// revision and fires the change callbacks when another instance wrote the
// same key, which is how the document replicates across concurrently
// running processes. Last writer wins.
type DocumentStore struct {
	db       *DB
	writerID string
	interval time.Duration

	mu       sync.Mutex
	lastRev  int64
	watchers []func(raw []byte)
	cancel   context.CancelFunc
	done     chan struct{}
}

type DocumentsModule struct{}

func (m *DocumentsModule) Name() string {
	return "documents"
}

func (m *DocumentsModule) Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create documents table",
			SQL: `
				CREATE TABLE IF NOT EXISTS documents (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL,
					revision INTEGER NOT NULL DEFAULT 0,
					writer_id TEXT NOT NULL DEFAULT '',
					updated_at INTEGER NOT NULL
				);
			`,
		},
	}
}

// NewDocumentStore registers the documents module and returns a store
// polling for foreign writes every watchInterval.
func NewDocumentStore(db *DB, watchInterval time.Duration) (*DocumentStore, error) {
	if err := db.RegisterModule(&DocumentsModule{}); err != nil {
		return nil, fmt.Errorf("failed to register documents module: %w", err)
	}

	if watchInterval <= 0 {
		watchInterval = 2 * time.Second
	}

	return &DocumentStore{
		db:       db,
		writerID: uuid.NewString(),
		interval: watchInterval,
	}, nil
}

// Load returns the raw serialized document, or found=false on first run.
func (s *DocumentStore) Load(ctx context.Context) ([]byte, bool, error) {
	var value string
	var revision int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, revision FROM documents WHERE key = ?", documentKey,
	).Scan(&value, &revision)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load document: %w", err)
	}

	s.mu.Lock()
	if revision > s.lastRev {
		s.lastRev = revision
	}
	s.mu.Unlock()

	return []byte(value), true, nil
}

// Store replaces the document wholesale. There are no field-level writes.
func (s *DocumentStore) Store(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, value, revision, writer_id, updated_at)
		VALUES (?, ?, 1, ?, strftime('%s', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = documents.revision + 1,
			writer_id = excluded.writer_id,
			updated_at = excluded.updated_at
	`, documentKey, string(raw), s.writerID)
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	var revision int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT revision FROM documents WHERE key = ?", documentKey,
	).Scan(&revision); err != nil {
		return fmt.Errorf("failed to read document revision: %w", err)
	}
	s.lastRev = revision

	return nil
}

// Watch registers a callback fired with the new raw document whenever
// another writer replaces it. The first registration starts the poller.
func (s *DocumentStore) Watch(fn func(raw []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchers = append(s.watchers, fn)
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.poll(ctx)
}

func (s *DocumentStore) poll(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkForeignWrite(ctx)
		}
	}
}

func (s *DocumentStore) checkForeignWrite(ctx context.Context) {
	var value, writerID string
	var revision int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, revision, writer_id FROM documents WHERE key = ?", documentKey,
	).Scan(&value, &revision, &writerID)
	if err == sql.ErrNoRows {
		return
	}
	if err != nil {
		slog.Debug("Document watch query failed", "error", err)
		return
	}

	s.mu.Lock()
	if revision <= s.lastRev {
		s.mu.Unlock()
		return
	}
	s.lastRev = revision
	foreign := writerID != s.writerID
	watchers := append([]func([]byte){}, s.watchers...)
	s.mu.Unlock()

	if !foreign {
		return
	}

	slog.Debug("Document changed by another writer", "revision", revision, "writer", writerID)
	for _, fn := range watchers {
		fn([]byte(value))
	}
}

// Close stops the change poller. The underlying DB is owned by the caller.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
