package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/repository"
)

var _ StatusUseCase = (*statusUC)(nil)

// StatusUseCase is the read-only query façade behind the polling endpoints.
// Every method is a pure read over the job store (plus the reset marks): no
// record is created or mutated, no collaborator is called, and repeated
// invocations with no intervening worker activity yield identical views.
type StatusUseCase interface {
	// ValidationStatus renders progress of the validation stage.
	ValidationStatus(ctx context.Context, jobID string) (model.InfoView, error)
	// JobStatus renders end-to-end progress, preferring the attestation
	// record when one exists.
	JobStatus(ctx context.Context, jobID string) (model.InfoView, error)
	// Reset marks the job so subsequent renders ignore its prior records.
	// In-flight stage work is not cancelled; late results are persisted but
	// no longer surfaced.
	Reset(ctx context.Context, jobID string) error
}

type statusUC struct {
	validations  repository.ValidationRepository
	attestations repository.AttestationRepository
	payments     repository.PaymentRepository
	resets       ResetStore
	log          *zerolog.Logger
}

func NewStatusUseCase(
	validations repository.ValidationRepository,
	attestations repository.AttestationRepository,
	payments repository.PaymentRepository,
	resets ResetStore,
	log *zerolog.Logger,
) *statusUC {
	return &statusUC{
		validations:  validations,
		attestations: attestations,
		payments:     payments,
		resets:       resets,
		log:          log,
	}
}

func (u *statusUC) ValidationStatus(ctx context.Context, jobID string) (model.InfoView, error) {
	if reset, err := u.isReset(ctx, jobID); err != nil {
		return model.InfoView{}, err
	} else if reset {
		return resetView(), nil
	}

	rec, err := u.validations.Get(ctx, repository.NoTX, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		return stillWorkingView(model.StageValidating, "Still validating your image...", "/validations/"+jobID), nil
	}
	if err != nil {
		return model.InfoView{}, fmt.Errorf("read validation: %w", err)
	}

	if !rec.IsValid {
		return failedView(jobID, rec.Message), nil
	}
	return model.InfoView{
		Stage: model.StageAwaitingPayment,
		Text:  "Image validated! Pay the attestation fee to mint.",
		Actions: []model.Action{
			{Label: "Pay now", Kind: model.ActionWallet, Target: "/transactions/" + jobID},
			{Label: "I have paid", Kind: model.ActionSubmit, Target: "/jobs/" + jobID + "/payments"},
			model.NewResetAction(jobID),
		},
	}, nil
}

func (u *statusUC) JobStatus(ctx context.Context, jobID string) (model.InfoView, error) {
	if reset, err := u.isReset(ctx, jobID); err != nil {
		return model.InfoView{}, err
	} else if reset {
		return resetView(), nil
	}

	att, err := u.attestations.Get(ctx, repository.NoTX, jobID)
	switch {
	case err == nil && att.IsValid && att.AttestationHash != "":
		return model.InfoView{
			Stage: model.StageComplete,
			Text: fmt.Sprintf("Attestation minted!\nAttestation: %s\nReward: %s",
				att.AttestationHash, att.RewardTransactionHash),
			Actions: []model.Action{model.NewResetAction(jobID)},
		}, nil
	case err == nil:
		return failedView(jobID, att.Message), nil
	case !errors.Is(err, domain.ErrNotFound):
		return model.InfoView{}, fmt.Errorf("read attestation: %w", err)
	}

	// No attestation yet; fold in payment progress.
	pay, err := u.payments.FindByJobID(ctx, repository.NoTX, jobID)
	switch {
	case err == nil && pay.Status == model.PaymentStatusConfirmed:
		return stillWorkingView(model.StageMinting, "Payment confirmed. Minting attestation...", "/jobs/"+jobID), nil
	case err == nil && pay.Status == model.PaymentStatusFailed:
		return failedView(jobID, "payment failed"), nil
	case err == nil:
		return stillWorkingView(model.StageAwaitingPayment, "Payment submitted. Waiting for confirmation...", "/jobs/"+jobID), nil
	case !errors.Is(err, domain.ErrNotFound):
		return model.InfoView{}, fmt.Errorf("read payment: %w", err)
	}

	// No payment either: fall back to the validation-driven view.
	return u.ValidationStatus(ctx, jobID)
}

func (u *statusUC) Reset(ctx context.Context, jobID string) error {
	if jobID == "" {
		return domain.ErrInvalidArgument
	}
	u.log.Info().Str("job_id", jobID).Msg("job reset by user")
	return u.resets.Mark(ctx, jobID)
}

func (u *statusUC) isReset(ctx context.Context, jobID string) (bool, error) {
	marked, err := u.resets.IsMarked(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("read reset mark: %w", err)
	}
	return marked, nil
}

func resetView() model.InfoView {
	return model.InfoView{
		Stage: model.StageSubmitted,
		Text:  "Press button to display your reply to this cast",
		Actions: []model.Action{
			{Label: "Fetch text", Kind: model.ActionSubmit, Target: "/frames/casts"},
		},
	}
}

func stillWorkingView(stage model.Stage, text, target string) model.InfoView {
	return model.InfoView{
		Stage: stage,
		Text:  text,
		Actions: []model.Action{
			{Label: "Check status", Kind: model.ActionPoll, Target: target},
		},
	}
}

func failedView(jobID, message string) model.InfoView {
	if message == "" {
		message = "Something went wrong"
	}
	return model.InfoView{
		Stage:   model.StageFailed,
		Text:    message,
		Actions: []model.Action{model.NewResetAction(jobID)},
	}
}
