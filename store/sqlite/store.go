// Package sqlite provides a single-node SQLite implementation of store.Store
// backed by github.com/mattn/go-sqlite3.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	"github.com/rbaliyan/privmsg/store"
)

// Compile-time check
var _ store.Store = (*Store)(nil)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02 15:04:05.000000000-07:00"

// Store implements store.Store using SQLite.
type Store struct {
	db        *sqlx.DB
	opts      *options
	connected int32
	logger    *slog.Logger
}

// New creates a store over an existing connection opened with the "sqlite3" driver.
func New(db *sqlx.DB, opts ...Option) *Store {
	o := newOptions(opts...)
	return &Store{
		db:     db,
		opts:   o,
		logger: o.logger,
	}
}

// Open opens the database file at path (":memory:" for a private in-memory
// database). SQLite serializes writers, so the pool is limited to a single
// connection; this also keeps ":memory:" databases from being split across
// connections.
func Open(path string, opts ...Option) (*Store, error) {
	o := newOptions(opts...)
	dsn := dsnFromPath(path, o.busyTimeout)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return New(db, opts...), nil
}

func dsnFromPath(path string, busyTimeout time.Duration) string {
	v := url.Values{}
	v.Set("_busy_timeout", fmt.Sprintf("%d", busyTimeout.Milliseconds()))
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + v.Encode()
}

// Connect creates the schema.
func (s *Store) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return store.ErrAlreadyConnected
	}
	if s.db == nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("sqlite: db is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()

	if err := s.ensureSchema(ctx); err != nil {
		atomic.StoreInt32(&s.connected, 0)
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.logger.Info("connected to SQLite", "table", s.opts.table)
	return nil
}

// Close marks the store as disconnected.
// The caller is responsible for closing the database connection.
func (s *Store) Close(ctx context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

// DB returns the underlying connection so callers that used Open can close it.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) ensureSchema(ctx context.Context) error {
	t := s.opts.table
	statements := []string{
		// AUTOINCREMENT forbids id reuse after deletes.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_id TEXT NOT NULL,
			recipient_id TEXT NOT NULL,
			sent_on DATETIME NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			body_format TEXT NOT NULL DEFAULT 'markdown',
			is_read BOOLEAN NOT NULL DEFAULT 0,
			sender_visible BOOLEAN NOT NULL DEFAULT 1,
			recipient_visible BOOLEAN NOT NULL DEFAULT 1,
			muted BOOLEAN NOT NULL DEFAULT 0
		)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_inbox ON %s(recipient_id, recipient_visible, muted, id)`, t, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_outbox ON %s(sender_id, sender_visible, muted, id)`, t, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sender_sent_on ON %s(sender_id, sent_on)`, t, t),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
