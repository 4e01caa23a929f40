package model

import "time"

// AttestationRecord is the outcome of the on-chain attestation plus reward
// mint for one job. AttestationHash is only ever set after a confirmed
// payment was observed for the same JobID.
type AttestationRecord struct {
	JobID                 string
	IsValid               bool
	AttestationHash       string
	RewardTransactionHash string
	Message               string // failure explanation; empty on success
	CreatedAt             time.Time
}

func (a *AttestationRecord) SameOutcome(o *AttestationRecord) bool {
	return a.JobID == o.JobID &&
		a.IsValid == o.IsValid &&
		a.AttestationHash == o.AttestationHash &&
		a.RewardTransactionHash == o.RewardTransactionHash &&
		a.Message == o.Message
}
