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

var _ repository.AttestationRepository = (*attestationRepo)(nil)

type attestationRepo struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

func NewAttestationRepo(pool *pgxpool.Pool, log *zerolog.Logger) *attestationRepo {
	return &attestationRepo{pool: pool, log: log}
}

// Put follows the same append-only discipline as the validations table:
// whole-record insert, identical re-delivery is a no-op, divergent content is
// rejected loudly.
func (r *attestationRepo) Put(ctx context.Context, tx repository.Tx, rec *model.AttestationRecord) error {
	if rec.JobID == "" {
		return domain.ErrInvalidArgument
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO attestations (job_id, is_valid, attestation_hash, reward_tx_hash, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (job_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q,
		rec.JobID, rec.IsValid, rec.AttestationHash, rec.RewardTransactionHash, rec.Message, rec.CreatedAt)
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
		return nil
	}
	metrics.IncRecordConflict()
	r.log.Error().
		Str("job_id", rec.JobID).
		Str("stored_hash", existing.AttestationHash).
		Str("rejected_hash", rec.AttestationHash).
		Msg("attestation write rejected: different content for existing job")
	return domain.ErrRecordConflict
}

func (r *attestationRepo) Get(ctx context.Context, tx repository.Tx, jobID string) (*model.AttestationRecord, error) {
	const q = `SELECT job_id, is_valid, attestation_hash, reward_tx_hash, message, created_at FROM attestations WHERE job_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return nil, err
	}

	rec := &model.AttestationRecord{}
	if err := row.Scan(&rec.JobID, &rec.IsValid, &rec.AttestationHash, &rec.RewardTransactionHash, &rec.Message, &rec.CreatedAt); err != nil {
		return nil, translateScanErr(err)
	}
	return rec, nil
}
