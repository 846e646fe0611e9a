package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"PubMedScanner/internal/domain"
	"PubMedScanner/internal/ports"
)

// retentionWindow bounds how long an id counts as already notified.
// Entries past the window are pruned on every load and commit, so an
// article can be re-notified after it elapses.
const retentionWindow = 90 * 24 * time.Hour

const tableName = "notified_articles"

const schema = `CREATE TABLE IF NOT EXISTS notified_articles (
	pmid        TEXT PRIMARY KEY,
	accepted_at TEXT NOT NULL
)`

// SQLiteLedger persists the set of already-notified article ids in a
// single sqlite table. Timestamps are stored as RFC 3339 UTC strings,
// which compare correctly as text.
type SQLiteLedger struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
	seen   map[string]bool
}

var _ ports.NoveltyLedger = (*SQLiteLedger)(nil)

// Open creates or opens the ledger store and bootstraps the schema.
func Open(path string, logger *slog.Logger) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	return &SQLiteLedger{
		db:     db,
		now:    time.Now,
		logger: logger,
		seen:   map[string]bool{},
	}, nil
}

// Close releases the underlying store.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// Load prunes expired entries and returns the ids still inside the
// retention window. A read failure degrades to an empty set so that
// discovery is never blocked by the ledger.
func (l *SQLiteLedger) Load(ctx context.Context) (map[string]bool, error) {
	cutoff := l.cutoff()

	if _, err := sq.Delete(tableName).
		Where(sq.Lt{"accepted_at": cutoff}).
		RunWith(l.db).ExecContext(ctx); err != nil {
		l.warn("prune on load failed", "error", err)
	}

	l.seen = map[string]bool{}

	rows, err := sq.Select("pmid").From(tableName).
		Where(sq.GtOrEq{"accepted_at": cutoff}).
		RunWith(l.db).QueryContext(ctx)
	if err != nil {
		return map[string]bool{}, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return map[string]bool{}, fmt.Errorf("scan ledger id: %w", err)
		}
		l.seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return map[string]bool{}, fmt.Errorf("iterate ledger: %w", err)
	}

	return l.seen, nil
}

// IsSeen reports membership against the set built by the last Load.
func (l *SQLiteLedger) IsSeen(id string) bool {
	return l.seen[id]
}

// Commit records the given ids at the current clock and prunes the
// retention window, all in one transaction. An empty id list is a no-op.
func (l *SQLiteLedger) Commit(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	acceptedAt := l.now().UTC().Format(time.RFC3339)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger commit: %w", err)
	}

	insert := sq.Insert(tableName).Options("OR REPLACE").Columns("pmid", "accepted_at")
	for _, id := range ids {
		insert = insert.Values(id, acceptedAt)
	}
	if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert ledger entries: %w", err)
	}

	if _, err := sq.Delete(tableName).
		Where(sq.Lt{"accepted_at": l.cutoff()}).
		RunWith(tx).ExecContext(ctx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prune ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}

	for _, id := range ids {
		l.seen[id] = true
	}

	return nil
}

// Stats reports count and timestamp bounds over the full table, without
// applying retention. Reporting only; filtering always goes through Load.
func (l *SQLiteLedger) Stats(ctx context.Context) (domain.LedgerStats, error) {
	row := sq.Select("COUNT(*)", "MIN(accepted_at)", "MAX(accepted_at)").
		From(tableName).
		RunWith(l.db).QueryRowContext(ctx)

	var (
		total          int
		oldest, newest sql.NullString
	)
	if err := row.Scan(&total, &oldest, &newest); err != nil {
		return domain.LedgerStats{}, fmt.Errorf("ledger stats: %w", err)
	}

	stats := domain.LedgerStats{TotalSent: total}
	if oldest.Valid {
		stats.Oldest, _ = time.Parse(time.RFC3339, oldest.String)
	}
	if newest.Valid {
		stats.Newest, _ = time.Parse(time.RFC3339, newest.String)
	}

	return stats, nil
}

func (l *SQLiteLedger) cutoff() string {
	return l.now().Add(-retentionWindow).UTC().Format(time.RFC3339)
}

func (l *SQLiteLedger) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
