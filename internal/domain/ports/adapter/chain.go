package adapter

import (
	"context"

	"farcaster-attestation-frame/internal/domain/model"
)

type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusAbsent    TxStatus = "absent"
)

// ChainProvider is the attestation/chain boundary. All calls are fallible
// network operations and carry the caller's deadline.
type ChainProvider interface {
	// TransactionStatus looks up a payment transaction submitted by the
	// client wallet.
	TransactionStatus(ctx context.Context, txHash string) (TxStatus, error)
	// Attest produces the on-chain attestation artifact for a validated job
	// and returns its hash.
	Attest(ctx context.Context, job model.Job, verdict Verdict) (string, error)
	// MintReward mints the token reward for the job's author and returns the
	// mint transaction hash.
	MintReward(ctx context.Context, job model.Job) (string, error)
	// PaymentDescriptor returns the chain-agnostic transaction the client
	// wallet must execute before minting.
	PaymentDescriptor(jobID string) model.TransactionDescriptor
}
