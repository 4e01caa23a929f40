package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentRecord tracks the client-submitted payment transaction for a job so
// the reconciler can finalize it even when the submitting request never saw
// the confirmation.
type PaymentRecord struct {
	JobID     string
	TxHash    string
	ChainID   int64
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionDescriptor is the chain-agnostic payment request handed to the
// client wallet.
type TransactionDescriptor struct {
	ChainID int64  `json:"chainId"`
	To      string `json:"to"`
	Value   string `json:"value"`
}
