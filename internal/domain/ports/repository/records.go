package repository

import (
	"context"
	"time"

	"farcaster-attestation-frame/internal/domain/model"
)

// -----------------------------
// Validation / attestation records
// -----------------------------

// Record repositories are append-only. Put is idempotent under retried
// delivery: re-inserting the same content for a JobID is a no-op; inserting
// different content for an existing JobID returns ErrRecordConflict and the
// stored record stays untouched (first writer wins). Get returns ErrNotFound,
// never an empty record, when nothing has been written yet.

type ValidationRepository interface {
	Put(ctx context.Context, tx Tx, rec *model.ValidationRecord) error
	Get(ctx context.Context, tx Tx, jobID string) (*model.ValidationRecord, error)
}

type AttestationRepository interface {
	Put(ctx context.Context, tx Tx, rec *model.AttestationRecord) error
	Get(ctx context.Context, tx Tx, jobID string) (*model.AttestationRecord, error)
}

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	// Save upserts the payment row. A confirmed row is final and is never
	// overwritten; pending and failed rows may be replaced by a re-submit.
	Save(ctx context.Context, tx Tx, p *model.PaymentRecord) error
	FindByJobID(ctx context.Context, tx Tx, jobID string) (*model.PaymentRecord, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error)
	// ListConfirmedUnminted returns confirmed payments whose job has no
	// attestation record yet, so a dropped mint event can be re-emitted.
	ListConfirmedUnminted(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error)
	// MarkConfirmedIfPending atomically flips status and reports whether this
	// caller won the transition.
	MarkConfirmedIfPending(ctx context.Context, tx Tx, jobID string) (bool, error)
	// MarkFailedIfPending abandons a pending payment whose transaction never
	// appeared on chain.
	MarkFailedIfPending(ctx context.Context, tx Tx, jobID string) (bool, error)
}
