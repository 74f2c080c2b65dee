package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tissuetrace/donor-audit/constants"
)

// Ledger is a local sqlite journal used by the batch tool to track which
// chart files were processed, with what outcome, across re-runs of the
// same input directory. It is deliberately independent of Postgres so the
// batch tool can run against a plain directory of files.
type Ledger struct {
	db *sql.DB
}

type LedgerEntry struct {
	Filename    string
	ExternalID  string
	Status      constants.EligibilityStatus
	Flags       []string
	ChunkCount  int
	Error       string
	ProcessedAt time.Time
}

const ledgerDDL = `
CREATE TABLE IF NOT EXISTS processed_files (
	filename     TEXT PRIMARY KEY,
	external_id  TEXT NOT NULL,
	status       TEXT NOT NULL,
	flags        TEXT NOT NULL DEFAULT '[]',
	chunk_count  INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	processed_at TIMESTAMP NOT NULL
);
`

func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := db.Exec(ledgerDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Seen reports whether a file was already processed successfully. Failed
// files are retried on the next run.
func (l *Ledger) Seen(ctx context.Context, filename string) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_files WHERE filename = ? AND error = ''`,
		filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check ledger: %w", err)
	}
	return count > 0, nil
}

func (l *Ledger) Record(ctx context.Context, e LedgerEntry) error {
	if e.Flags == nil {
		e.Flags = []string{}
	}
	flagsJSON, err := json.Marshal(e.Flags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now().UTC()
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO processed_files (filename, external_id, status, flags, chunk_count, error, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (filename) DO UPDATE SET
			external_id = excluded.external_id,
			status = excluded.status,
			flags = excluded.flags,
			chunk_count = excluded.chunk_count,
			error = excluded.error,
			processed_at = excluded.processed_at`,
		e.Filename, e.ExternalID, string(e.Status), string(flagsJSON), e.ChunkCount, e.Error, e.ProcessedAt)
	if err != nil {
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return nil
}

func (l *Ledger) Entries(ctx context.Context) ([]LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT filename, external_id, status, flags, chunk_count, error, processed_at
		FROM processed_files
		ORDER BY processed_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var (
			e         LedgerEntry
			status    string
			flagsJSON string
		)
		if err := rows.Scan(&e.Filename, &e.ExternalID, &status, &flagsJSON, &e.ChunkCount, &e.Error, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Status = constants.EligibilityStatus(status)
		if err := json.Unmarshal([]byte(flagsJSON), &e.Flags); err != nil {
			return nil, fmt.Errorf("decode ledger flags: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
