package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type Stage string

const (
	StageSubmitted       Stage = "SUBMITTED"
	StageValidating      Stage = "VALIDATING"
	StageValidated       Stage = "VALIDATED"
	StageAwaitingPayment Stage = "AWAITING_PAYMENT"
	StagePaid            Stage = "PAID"
	StageMinting         Stage = "MINTING"
	StageComplete        Stage = "COMPLETE"
	StageFailed          Stage = "FAILED"
)

// Job is the descriptor carried by pipeline events. It is not persisted as a
// row of its own; the identifiers travel inside the validation, attestation
// and payment records written for the same JobID.
type Job struct {
	JobID    string `json:"jobId"`
	CastHash string `json:"castHash"`
	UserFID  int64  `json:"userFid"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
}

// NewJobID returns a ULID: time-ordered with a random component, unique per
// submission with high probability.
func NewJobID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
