package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tissuetrace/donor-audit/internal/common"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS donors (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	external_id   TEXT NOT NULL UNIQUE,
	status        TEXT NOT NULL DEFAULT 'PENDING',
	flags         JSONB NOT NULL DEFAULT '[]',
	merged_record JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	donor_id      UUID NOT NULL REFERENCES donors(id) ON DELETE CASCADE,
	filename      TEXT NOT NULL,
	content       TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'UPLOADED',
	chunk_count   INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS documents_queue_idx
	ON documents (created_at) WHERE status = 'UPLOADED';
CREATE INDEX IF NOT EXISTS documents_donor_idx ON documents (donor_id);
`

// Migrate applies the schema. Idempotent; safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		logger.Error("failed to apply schema", "error", err)
		return common.WrapError(err, "apply schema")
	}
	logger.Info("schema up to date")
	return nil
}
