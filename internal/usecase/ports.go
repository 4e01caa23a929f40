package usecase

import (
	"context"

	"farcaster-attestation-frame/internal/domain/model"
)

// Emitter is the publish side of the event bus. Emit must return without
// waiting for any handler to run.
type Emitter interface {
	Emit(ctx context.Context, event string, job model.Job) error
}

// ResetStore records user-initiated resets so renders can ignore a job's
// prior records without mutating them.
type ResetStore interface {
	Mark(ctx context.Context, jobID string) error
	IsMarked(ctx context.Context, jobID string) (bool, error)
}
