package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/adapter"
	"farcaster-attestation-frame/internal/domain/ports/repository"
)

var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase owns the gate between validation and minting: minting is
// only ever requested after a payment transaction has been observed as
// confirmed on chain, never on bus ordering.
type PaymentUseCase interface {
	// Descriptor returns the chain-agnostic transaction for the client
	// wallet. Only meaningful for jobs that passed validation.
	Descriptor(ctx context.Context, jobID string) (model.TransactionDescriptor, error)
	// SubmitPayment records the client-submitted tx hash and, when the chain
	// already reports it confirmed, emits START_MINTING.
	SubmitPayment(ctx context.Context, jobID, txHash string) (model.InfoView, error)
	// ConfirmIfOnChain re-checks a recorded pending payment against the
	// chain. Returns true when this call won the pending→confirmed
	// transition and START_MINTING was emitted. Used by the reconciler.
	ConfirmIfOnChain(ctx context.Context, jobID string) (bool, error)
	// RequestMint re-emits START_MINTING for a job whose payment is already
	// confirmed. Safe to call repeatedly: the mint stage is idempotent.
	RequestMint(ctx context.Context, jobID string) error
}

type paymentUC struct {
	validations  repository.ValidationRepository
	payments     repository.PaymentRepository
	chain        adapter.ChainProvider
	bus          Emitter
	chainID      int64
	abandonAfter time.Duration
	log          *zerolog.Logger
}

func NewPaymentUseCase(
	validations repository.ValidationRepository,
	payments repository.PaymentRepository,
	chain adapter.ChainProvider,
	bus Emitter,
	chainID int64,
	abandonAfter time.Duration,
	log *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		validations:  validations,
		payments:     payments,
		chain:        chain,
		bus:          bus,
		chainID:      chainID,
		abandonAfter: abandonAfter,
		log:          log,
	}
}

func (u *paymentUC) Descriptor(ctx context.Context, jobID string) (model.TransactionDescriptor, error) {
	if _, err := u.validatedRecord(ctx, jobID); err != nil {
		return model.TransactionDescriptor{}, err
	}
	return u.chain.PaymentDescriptor(jobID), nil
}

func (u *paymentUC) SubmitPayment(ctx context.Context, jobID, txHash string) (model.InfoView, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return model.InfoView{}, domain.ErrInvalidArgument
	}
	if _, err := u.validatedRecord(ctx, jobID); err != nil {
		return model.InfoView{}, err
	}

	// A double press after confirmation must not reopen the payment or emit
	// a second mint event.
	if existing, err := u.payments.FindByJobID(ctx, repository.NoTX, jobID); err == nil &&
		existing.Status == model.PaymentStatusConfirmed {
		return model.InfoView{
			Stage: model.StagePaid,
			Text:  "Payment confirmed. Minting attestation...",
			Actions: []model.Action{
				{Label: "Check status", Kind: model.ActionPoll, Target: "/jobs/" + jobID},
			},
		}, nil
	}

	if err := u.payments.Save(ctx, repository.NoTX, &model.PaymentRecord{
		JobID:   jobID,
		TxHash:  txHash,
		ChainID: u.chainID,
		Status:  model.PaymentStatusPending,
	}); err != nil {
		return model.InfoView{}, fmt.Errorf("save payment: %w", err)
	}

	confirmed, err := u.ConfirmIfOnChain(ctx, jobID)
	if err != nil {
		// The record is saved; the reconciler keeps retrying. Surface a
		// pending view rather than an error.
		u.log.Warn().Err(err).Str("job_id", jobID).Msg("payment confirmation check failed, reconciler will retry")
	}
	if confirmed {
		return model.InfoView{
			Stage: model.StagePaid,
			Text:  "Payment confirmed. Minting attestation...",
			Actions: []model.Action{
				{Label: "Check status", Kind: model.ActionPoll, Target: "/jobs/" + jobID},
			},
		}, nil
	}
	return model.InfoView{
		Stage: model.StageAwaitingPayment,
		Text:  "Payment submitted. Waiting for confirmation...",
		Actions: []model.Action{
			{Label: "Check status", Kind: model.ActionPoll, Target: "/jobs/" + jobID},
		},
	}, nil
}

func (u *paymentUC) ConfirmIfOnChain(ctx context.Context, jobID string) (bool, error) {
	pay, err := u.payments.FindByJobID(ctx, repository.NoTX, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, domain.ErrPaymentNotFound
	}
	if err != nil {
		return false, fmt.Errorf("read payment: %w", err)
	}
	if pay.Status != model.PaymentStatusPending {
		return false, nil
	}

	status, err := u.chain.TransactionStatus(ctx, pay.TxHash)
	if err != nil {
		return false, fmt.Errorf("tx lookup: %w", err)
	}
	if status == adapter.TxStatusAbsent && u.abandonAfter > 0 && time.Since(pay.CreatedAt) > u.abandonAfter {
		// The transaction never appeared on chain; give up on this hash.
		// A later SubmitPayment with a fresh hash re-opens the payment.
		if _, err := u.payments.MarkFailedIfPending(ctx, repository.NoTX, jobID); err != nil {
			return false, fmt.Errorf("mark failed: %w", err)
		}
		u.log.Warn().Str("job_id", jobID).Str("tx_hash", pay.TxHash).Msg("payment abandoned, tx never seen on chain")
		return false, nil
	}
	if status != adapter.TxStatusConfirmed {
		return false, nil
	}

	won, err := u.payments.MarkConfirmedIfPending(ctx, repository.NoTX, jobID)
	if err != nil {
		return false, fmt.Errorf("mark confirmed: %w", err)
	}
	if !won {
		// Another request or the reconciler got there first and already
		// emitted the mint event.
		return false, nil
	}
	if err := u.RequestMint(ctx, jobID); err != nil {
		// Payment stays confirmed; the reconciler's confirmed-unminted scan
		// re-emits the mint event later.
		u.log.Error().Err(err).Str("job_id", jobID).Msg("mint event dropped after payment confirm")
		return true, err
	}
	u.log.Info().Str("job_id", jobID).Str("tx_hash", pay.TxHash).Msg("payment confirmed, minting requested")
	return true, nil
}

func (u *paymentUC) RequestMint(ctx context.Context, jobID string) error {
	rec, err := u.validatedRecord(ctx, jobID)
	if err != nil {
		return err
	}
	job := model.Job{
		JobID:    rec.JobID,
		CastHash: rec.CastHash,
		UserFID:  rec.UserFID,
		Text:     rec.Text,
		ImageURL: rec.ImageURL,
	}
	return u.bus.Emit(ctx, model.EventStartMinting, job)
}

// validatedRecord loads the validation record and requires a passing verdict.
func (u *paymentUC) validatedRecord(ctx context.Context, jobID string) (*model.ValidationRecord, error) {
	rec, err := u.validations.Get(ctx, repository.NoTX, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read validation: %w", err)
	}
	if !rec.IsValid {
		return nil, domain.ErrPaymentPending
	}
	return rec, nil
}
