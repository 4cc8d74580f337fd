package store

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the SQLite connection and hands out repositories.
type Store struct {
	db  *sql.DB
	seq *sequenceCounter

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open connects to the SQLite database at dsn, applies pragmas and creates
// the schema if needed.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps per-connection pragmas in effect for every query
	// and serializes writers.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		seq:     seq,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{store: s}
}

// newID returns a time-ordered ULID. The monotonic entropy source is not
// safe for concurrent use, hence the mutex.
func (s *Store) newID(t time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// applyPragmas configures SQLite for a single-process server.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS answer_events (
		id               TEXT PRIMARY KEY,
		sequence         INTEGER NOT NULL,
		timestamp        TEXT NOT NULL,
		session_id       TEXT NOT NULL,
		question_id      TEXT NOT NULL,
		template_id      TEXT NOT NULL,
		subject          TEXT NOT NULL,
		skill_area       TEXT NOT NULL,
		concept          TEXT NOT NULL,
		mode             TEXT NOT NULL,
		difficulty       INTEGER NOT NULL,
		question_text    TEXT NOT NULL,
		correct_answer   TEXT NOT NULL,
		learner_answer   TEXT NOT NULL,
		correct          INTEGER NOT NULL,
		response_time_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_answer_events_session ON answer_events(session_id, sequence);

	CREATE TABLE IF NOT EXISTS session_events (
		id               TEXT PRIMARY KEY,
		sequence         INTEGER NOT NULL,
		timestamp        TEXT NOT NULL,
		session_id       TEXT NOT NULL,
		action           TEXT NOT NULL,
		questions_served INTEGER NOT NULL DEFAULT 0,
		correct_answers  INTEGER NOT NULL DEFAULT 0,
		duration_secs    INTEGER NOT NULL DEFAULT 0,
		correct_ratio    REAL NOT NULL DEFAULT 0,
		difficulty_level REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id, sequence);

	CREATE TABLE IF NOT EXISTS llm_request_events (
		id            TEXT PRIMARY KEY,
		sequence      INTEGER NOT NULL,
		timestamp     TEXT NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms    INTEGER NOT NULL,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_llm_request_events_seq ON llm_request_events(sequence DESC);

	CREATE TABLE IF NOT EXISTS usage_sessions (
		session_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_usage (
		session_id TEXT NOT NULL REFERENCES usage_sessions(session_id) ON DELETE CASCADE,
		key        TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (session_id, key)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// DefaultDBPath resolves the database file path in priority order:
// 1. ADAPTIQ_DB environment variable
// 2. $XDG_DATA_HOME/adaptiq/adaptiq.db
// 3. ~/.local/share/adaptiq/adaptiq.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("ADAPTIQ_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "adaptiq", "adaptiq.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
