package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/dedup"
)

// UsageStore persists per-session usage sets so a restarted server keeps
// avoiding repeats. Store errors cannot be returned through dedup.Store;
// they are logged and the call degrades to "unused"/no-op.
type UsageStore struct {
	store  *Store
	logger *zap.Logger
}

var _ dedup.Store = (*UsageStore)(nil)

// UsageStore returns a dedup.Store backed by the session_usage table.
func (s *Store) UsageStore(logger *zap.Logger) *UsageStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageStore{store: s, logger: logger}
}

func (u *UsageStore) warn(op, sessionID string, err error) {
	u.logger.Warn("session usage store failed",
		zap.String("op", op), zap.String("session_id", sessionID), zap.Error(err))
}

func (u *UsageStore) IsUsed(sessionID, key string) bool {
	var n int
	err := u.store.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM session_usage WHERE session_id = ? AND key = ?`, sessionID, key,
	).Scan(&n)
	if err != nil {
		u.warn("is_used", sessionID, err)
		return false
	}
	return n > 0
}

func (u *UsageStore) MarkUsed(sessionID, key string) {
	ctx := context.Background()
	now := formatTime(time.Now())

	tx, err := u.store.db.BeginTx(ctx, nil)
	if err != nil {
		u.warn("mark_used", sessionID, err)
		return
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO usage_sessions (session_id, created_at) VALUES (?, ?)`, sessionID, now,
	); err != nil {
		u.warn("mark_used", sessionID, err)
		return
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_usage (session_id, key, created_at) VALUES (?, ?, ?)`, sessionID, key, now,
	); err != nil {
		u.warn("mark_used", sessionID, err)
		return
	}
	if err := tx.Commit(); err != nil {
		u.warn("mark_used", sessionID, err)
	}
}

func (u *UsageStore) Reset(sessionID string) {
	ctx := context.Background()
	tx, err := u.store.db.BeginTx(ctx, nil)
	if err != nil {
		u.warn("reset", sessionID, err)
		return
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO usage_sessions (session_id, created_at) VALUES (?, ?)`, sessionID, formatTime(time.Now()),
	); err != nil {
		u.warn("reset", sessionID, err)
		return
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_usage WHERE session_id = ?`, sessionID); err != nil {
		u.warn("reset", sessionID, err)
		return
	}
	if err := tx.Commit(); err != nil {
		u.warn("reset", sessionID, err)
	}
}

func (u *UsageStore) Clear(sessionID string) {
	ctx := context.Background()
	tx, err := u.store.db.BeginTx(ctx, nil)
	if err != nil {
		u.warn("clear", sessionID, err)
		return
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM session_usage WHERE session_id = ?`,
		`DELETE FROM usage_sessions WHERE session_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, sessionID); err != nil {
			u.warn("clear", sessionID, err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		u.warn("clear", sessionID, err)
	}
}

func (u *UsageStore) Exists(sessionID string) bool {
	var n int
	err := u.store.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM usage_sessions WHERE session_id = ?`, sessionID,
	).Scan(&n)
	if err != nil {
		u.warn("exists", sessionID, err)
		return false
	}
	return n > 0
}

func (u *UsageStore) Len(sessionID string) int {
	var n int
	err := u.store.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM session_usage WHERE session_id = ?`, sessionID,
	).Scan(&n)
	if err != nil {
		u.warn("len", sessionID, err)
		return 0
	}
	return n
}
