package storage

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type SQLiteStore struct {
	db     *sql.DB
	path   string
	notify *notifier
	log    zerolog.Logger

	// last snapshot seen by this process, used to tell external writes apart
	// from our own. Held from commit to snapshot update in Set and across
	// read and diff in Refresh.
	snapMu   sync.Mutex
	snapshot map[string][]byte
}

func NewSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	log = log.With().Str("component", "store").Logger()
	return &SQLiteStore{
		db:     db,
		path:   path,
		notify: newNotifier(log),
		log:    log,
	}, nil
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	all, err := s.all(ctx)
	if err != nil {
		return err
	}
	s.snapMu.Lock()
	s.snapshot = all
	s.snapMu.Unlock()
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Subscribe(fn Listener) func() {
	return s.notify.subscribe(fn)
}

func (s *SQLiteStore) Get(ctx context.Context, keys ...string) (Values, error) {
	out := Values{}
	for _, k := range keys {
		var value string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, k).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[k] = []byte(value)
	}
	return out, nil
}

func (s *SQLiteStore) Set(ctx context.Context, values map[string]any) error {
	encoded, err := encodeValues(values)
	if err != nil {
		return err
	}

	s.snapMu.Lock()
	changes, err := s.commit(ctx, encoded)
	s.snapMu.Unlock()
	if err != nil {
		return err
	}

	s.notify.publish(changes)
	return nil
}

// commit writes encoded and advances the snapshot. Callers hold snapMu.
func (s *SQLiteStore) commit(ctx context.Context, encoded map[string][]byte) (Changes, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	before := make(map[string][]byte, len(encoded))
	for k := range encoded {
		var old string
		err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, k).Scan(&old)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		before[k] = []byte(old)
	}

	now := time.Now().UTC()
	for k, v := range encoded {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, string(v), now,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	changes := diff(before, encoded)

	if s.snapshot == nil {
		s.snapshot = map[string][]byte{}
	}
	for k, v := range encoded {
		s.snapshot[k] = v
	}
	return changes, nil
}

// Refresh re-reads the whole area and notifies subscribers of anything
// written by another process since the last snapshot.
func (s *SQLiteStore) Refresh(ctx context.Context) error {
	s.snapMu.Lock()
	all, err := s.all(ctx)
	if err != nil {
		s.snapMu.Unlock()
		return err
	}
	changes := diff(s.snapshot, all)
	s.snapshot = all
	s.snapMu.Unlock()

	if len(changes) > 0 {
		s.log.Debug().Int("keys", len(changes)).Msg("external config change")
	}
	s.notify.publish(changes)
	return nil
}

func (s *SQLiteStore) all(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]byte{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = []byte(v)
	}
	return out, rows.Err()
}
