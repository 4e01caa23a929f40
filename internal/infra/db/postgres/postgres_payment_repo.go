package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	// A confirmed payment is final: a re-submit may replace a pending or
	// failed row (fresh tx hash) but never moves a confirmed row back.
	const q = `
INSERT INTO payments (job_id, tx_hash, chain_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (job_id) DO UPDATE SET
  tx_hash = EXCLUDED.tx_hash,
  chain_id = EXCLUDED.chain_id,
  status = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at
WHERE payments.status <> 'confirmed';`

	_, err := execSQL(ctx, r.pool, tx, q, p.JobID, p.TxHash, p.ChainID, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByJobID(ctx context.Context, tx repository.Tx, jobID string) (*model.PaymentRecord, error) {
	const q = `SELECT job_id, tx_hash, chain_id, status, created_at, updated_at FROM payments WHERE job_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return nil, err
	}

	p := &model.PaymentRecord{}
	if err := row.Scan(&p.JobID, &p.TxHash, &p.ChainID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, translateScanErr(err)
	}
	return p, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT job_id, tx_hash, chain_id, status, created_at, updated_at FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PaymentRecord
	for rows.Next() {
		p := new(model.PaymentRecord)
		if err := rows.Scan(&p.JobID, &p.TxHash, &p.ChainID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) ListConfirmedUnminted(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT p.job_id, p.tx_hash, p.chain_id, p.status, p.created_at, p.updated_at
  FROM payments p
  LEFT JOIN attestations a ON a.job_id = p.job_id
 WHERE p.status = 'confirmed'
   AND a.job_id IS NULL
   AND p.updated_at < $1
 ORDER BY p.updated_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PaymentRecord
	for rows.Next() {
		p := new(model.PaymentRecord)
		if err := rows.Scan(&p.JobID, &p.TxHash, &p.ChainID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

// MarkConfirmedIfPending atomically flips status only when it is still
// 'pending', so exactly one caller wins the transition to confirmed.
func (r *paymentRepo) MarkConfirmedIfPending(ctx context.Context, tx repository.Tx, jobID string) (bool, error) {
	const q = `
UPDATE payments
   SET status = 'confirmed',
       updated_at = NOW()
 WHERE job_id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, jobID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkFailedIfPending(ctx context.Context, tx repository.Tx, jobID string) (bool, error) {
	const q = `
UPDATE payments
   SET status = 'failed',
       updated_at = NOW()
 WHERE job_id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, jobID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
