package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tissuetrace/donor-audit/constants"
	"github.com/tissuetrace/donor-audit/internal/common"
	"github.com/tissuetrace/donor-audit/internal/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, donorID uuid.UUID, filename, content string) (*entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]*entity.Document, error)
	CountByDonor(ctx context.Context, donorID uuid.UUID) (int, error)
	// Claim moves an UPLOADED document to PROCESSING and returns its text.
	// A document claimed by another worker yields ErrConflict.
	Claim(ctx context.Context, id uuid.UUID) (*entity.Document, string, error)
	// NextQueued claims the oldest UPLOADED document, FIFO, skipping rows
	// locked by concurrent workers. Returns nil when the queue is empty.
	NextQueued(ctx context.Context) (*entity.Document, string, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, chunkCount int) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
}

type documentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{pool: pool, logger: logger}
}

const documentColumns = `id, donor_id, filename, status, chunk_count, error_message, created_at, updated_at`

func (r *documentRepository) Create(ctx context.Context, donorID uuid.UUID, filename, content string) (*entity.Document, error) {
	query := `
		INSERT INTO documents (donor_id, filename, content, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + documentColumns
	doc, err := scanDocument(r.pool.QueryRow(ctx, query, donorID, filename, content, string(constants.DocumentStatusUploaded)))
	if err != nil {
		r.logger.Error("create document failed", "donor_id", donorID, "error", err)
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError("DOCUMENT_NOT_FOUND", id.String(), common.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (r *documentRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE donor_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, donorID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *documentRepository) CountByDonor(ctx context.Context, donorID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE donor_id = $1`, donorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (r *documentRepository) Claim(ctx context.Context, id uuid.UUID) (*entity.Document, string, error) {
	query := `
		UPDATE documents
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + documentColumns + `, content`
	doc, content, err := scanDocumentWithContent(r.pool.QueryRow(ctx, query,
		id, string(constants.DocumentStatusUploaded), string(constants.DocumentStatusProcessing)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", common.NewAppError("DOCUMENT_NOT_CLAIMABLE", id.String(), common.ErrConflict)
		}
		return nil, "", fmt.Errorf("claim document: %w", err)
	}
	return doc, content, nil
}

func (r *documentRepository) NextQueued(ctx context.Context) (*entity.Document, string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("begin claim: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		SELECT ` + documentColumns + `, content
		FROM documents
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`
	doc, content, err := scanDocumentWithContent(tx.QueryRow(ctx, query, string(constants.DocumentStatusUploaded)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("next queued: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`,
		doc.ID, string(constants.DocumentStatusProcessing)); err != nil {
		return nil, "", fmt.Errorf("mark processing: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("commit claim: %w", err)
	}
	doc.Status = constants.DocumentStatusProcessing
	return doc, content, nil
}

func (r *documentRepository) FinishSuccess(ctx context.Context, id uuid.UUID, chunkCount int) error {
	return r.finish(ctx, id, constants.DocumentStatusExtracted, chunkCount, "")
}

func (r *documentRepository) FinishFailure(ctx context.Context, id uuid.UUID, message string) error {
	return r.finish(ctx, id, constants.DocumentStatusFailed, 0, message)
}

func (r *documentRepository) finish(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, chunkCount int, message string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $2, chunk_count = $3, error_message = $4, updated_at = now()
		WHERE id = $1`,
		id, string(status), chunkCount, message)
	if err != nil {
		r.logger.Error("finish document failed", "document_id", id, "status", status, "error", err)
		return fmt.Errorf("finish document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("DOCUMENT_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return nil
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		doc    entity.Document
		status string
	)
	if err := row.Scan(&doc.ID, &doc.DonorID, &doc.Filename, &status, &doc.ChunkCount,
		&doc.ErrorMessage, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Status = constants.DocumentStatus(status)
	return &doc, nil
}

func scanDocumentWithContent(row pgx.Row) (*entity.Document, string, error) {
	var (
		doc     entity.Document
		status  string
		content string
	)
	if err := row.Scan(&doc.ID, &doc.DonorID, &doc.Filename, &status, &doc.ChunkCount,
		&doc.ErrorMessage, &doc.CreatedAt, &doc.UpdatedAt, &content); err != nil {
		return nil, "", err
	}
	doc.Status = constants.DocumentStatus(status)
	return &doc, content, nil
}
