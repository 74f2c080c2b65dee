package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tissuetrace/donor-audit/constants"
	"github.com/tissuetrace/donor-audit/internal/common"
	"github.com/tissuetrace/donor-audit/internal/entity"
	"github.com/tissuetrace/donor-audit/internal/record"
)

type DonorRepository interface {
	GetOrCreateByExternalID(ctx context.Context, externalID string) (*entity.Donor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Donor, error)
	List(ctx context.Context) ([]*entity.Donor, error)
	// SaveScreening stores the new master record and the evaluation derived
	// from it in one statement, so readers never see a record paired with a
	// stale status.
	SaveScreening(ctx context.Context, id uuid.UUID, rec record.Record, status constants.EligibilityStatus, flags []string) error
}

type donorRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDonorRepository(pool *pgxpool.Pool, logger *slog.Logger) DonorRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &donorRepository{pool: pool, logger: logger}
}

const donorColumns = `id, external_id, status, flags, merged_record, created_at, updated_at`

func (r *donorRepository) GetOrCreateByExternalID(ctx context.Context, externalID string) (*entity.Donor, error) {
	if externalID == "" {
		return nil, common.NewAppError("DONOR_INVALID", "external_id is required", common.ErrInvalidInput)
	}
	query := `
		INSERT INTO donors (external_id)
		VALUES ($1)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING ` + donorColumns
	d, err := scanDonor(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		r.logger.Error("get or create donor failed", "external_id", externalID, "error", err)
		return nil, fmt.Errorf("get or create donor: %w", err)
	}
	return d, nil
}

func (r *donorRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`
	d, err := scanDonor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError("DONOR_NOT_FOUND", id.String(), common.ErrNotFound)
		}
		return nil, fmt.Errorf("get donor: %w", err)
	}
	return d, nil
}

func (r *donorRepository) List(ctx context.Context) ([]*entity.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors ORDER BY updated_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	defer rows.Close()

	var out []*entity.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donor: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *donorRepository) SaveScreening(ctx context.Context, id uuid.UUID, rec record.Record, status constants.EligibilityStatus, flags []string) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal merged record: %w", err)
	}
	if flags == nil {
		flags = []string{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE donors
		SET merged_record = $2, status = $3, flags = $4, updated_at = now()
		WHERE id = $1`,
		id, recJSON, string(status), flagsJSON)
	if err != nil {
		r.logger.Error("save screening failed", "donor_id", id, "error", err)
		return fmt.Errorf("save screening: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError("DONOR_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return nil
}

func scanDonor(row pgx.Row) (*entity.Donor, error) {
	var (
		d      entity.Donor
		status string
		flags  []byte
		merged []byte
	)
	if err := row.Scan(&d.ID, &d.ExternalID, &status, &flags, &merged, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Status = constants.EligibilityStatus(status)
	if err := json.Unmarshal(flags, &d.Flags); err != nil {
		return nil, fmt.Errorf("decode flags: %w", err)
	}
	if err := json.Unmarshal(merged, &d.Record); err != nil {
		return nil, fmt.Errorf("decode merged record: %w", err)
	}
	return &d, nil
}
