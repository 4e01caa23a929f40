package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/repository"
	"farcaster-attestation-frame/internal/infra/metrics"
)

var _ repository.ValidationRepository = (*validationRepo)(nil)

type validationRepo struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

func NewValidationRepo(pool *pgxpool.Pool, log *zerolog.Logger) *validationRepo {
	return &validationRepo{pool: pool, log: log}
}

// Put inserts the whole record in a single statement so a concurrent reader
// never observes partial fields. ON CONFLICT DO NOTHING keeps the table
// append-only: a duplicate delivery with identical content is a no-op, a
// duplicate with different content is rejected as ErrRecordConflict.
func (r *validationRepo) Put(ctx context.Context, tx repository.Tx, rec *model.ValidationRecord) error {
	if rec.JobID == "" {
		return domain.ErrInvalidArgument
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO validations (job_id, cast_hash, user_fid, text, image_url, is_valid, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (job_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q,
		rec.JobID, rec.CastHash, rec.UserFID, rec.Text, rec.ImageURL, rec.IsValid, rec.Message, rec.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	existing, err := r.Get(ctx, tx, rec.JobID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if existing.SameOutcome(rec) {
		return nil // retried delivery of the same outcome
	}
	metrics.IncRecordConflict()
	r.log.Error().
		Str("job_id", rec.JobID).
		Bool("stored_is_valid", existing.IsValid).
		Bool("rejected_is_valid", rec.IsValid).
		Msg("validation write rejected: different content for existing job")
	return domain.ErrRecordConflict
}

func (r *validationRepo) Get(ctx context.Context, tx repository.Tx, jobID string) (*model.ValidationRecord, error) {
	const q = `SELECT job_id, cast_hash, user_fid, text, image_url, is_valid, message, created_at FROM validations WHERE job_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return nil, err
	}

	rec := &model.ValidationRecord{}
	if err := row.Scan(&rec.JobID, &rec.CastHash, &rec.UserFID, &rec.Text, &rec.ImageURL, &rec.IsValid, &rec.Message, &rec.CreatedAt); err != nil {
		return nil, translateScanErr(err)
	}
	return rec, nil
}
