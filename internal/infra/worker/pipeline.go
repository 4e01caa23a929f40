package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/adapter"
	"farcaster-attestation-frame/internal/domain/ports/repository"
	"farcaster-attestation-frame/internal/infra/logging"
	"farcaster-attestation-frame/internal/infra/metrics"
	"farcaster-attestation-frame/internal/infra/redis"

	"github.com/rs/zerolog"
)

// PipelineProcessor executes the pipeline stages. It is the only writer of
// validation and attestation records: request handlers emit events, the
// processor consumes them on the worker pool. Every handler is idempotent
// against duplicate delivery, so the bus may hand it the same job twice.
type PipelineProcessor struct {
	validations  repository.ValidationRepository
	attestations repository.AttestationRepository
	payments     repository.PaymentRepository
	vision       adapter.VisionAdapter
	chain        adapter.ChainProvider
	locker       redis.Locker
	lockTTL      time.Duration
	visionTO     time.Duration
	chainTO      time.Duration
	log          *zerolog.Logger
}

func NewPipelineProcessor(
	validations repository.ValidationRepository,
	attestations repository.AttestationRepository,
	payments repository.PaymentRepository,
	vision adapter.VisionAdapter,
	chain adapter.ChainProvider,
	locker redis.Locker,
	lockTTL, visionTimeout, chainTimeout time.Duration,
	log *zerolog.Logger,
) *PipelineProcessor {
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &PipelineProcessor{
		validations:  validations,
		attestations: attestations,
		payments:     payments,
		vision:       vision,
		chain:        chain,
		locker:       locker,
		lockTTL:      lockTTL,
		visionTO:     visionTimeout,
		chainTO:      chainTimeout,
		log:          log,
	}
}

// HandleStartValidating runs the vision check for a freshly submitted job and
// writes its validation record. A collaborator failure is recorded as an
// invalid verdict with a message; it never propagates as a handler error.
func (p *PipelineProcessor) HandleStartValidating(ctx context.Context, job model.Job) error {
	ctx = logging.WithJobID(logging.WithCastHash(ctx, job.CastHash), job.JobID)
	log := logging.With(ctx, p.log)

	release, err := p.acquireStage(ctx, job.JobID, model.StageValidating)
	if err != nil {
		return nil // another worker holds the stage
	}
	defer release()

	if _, err := p.validations.Get(ctx, repository.NoTX, job.JobID); err == nil {
		metrics.IncStageDuplicate(string(model.StageValidating))
		log.Debug().Msg("validation record exists, skipping")
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("validation pre-check: %w", err)
	}

	log.Info().Str("image_url", job.ImageURL).Str("adapter", p.vision.Name()).Msg("validating image")
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, p.visionTO)
	verdict, visErr := p.vision.CheckImage(callCtx, job.ImageURL, job.Text)
	cancel()

	rec := &model.ValidationRecord{
		JobID:     job.JobID,
		CastHash:  job.CastHash,
		UserFID:   job.UserFID,
		Text:      job.Text,
		ImageURL:  job.ImageURL,
		CreatedAt: time.Now().UTC(),
	}
	outcome := "valid"
	switch {
	case visErr != nil:
		rec.IsValid = false
		rec.Message = "Image check failed, please try again"
		outcome = "error"
		log.Error().Err(visErr).Msg("vision adapter failed")
	case !verdict.IsValid:
		rec.IsValid = false
		rec.Message = verdict.Message
		outcome = "invalid"
	default:
		rec.IsValid = true
		rec.Message = verdict.Message
	}

	if err := p.validations.Put(ctx, repository.NoTX, rec); err != nil {
		if errors.Is(err, domain.ErrRecordConflict) {
			metrics.ObserveStage(string(model.StageValidating), "conflict", int(time.Since(start)/time.Millisecond))
			return err
		}
		return fmt.Errorf("save validation record: %w", err)
	}

	metrics.ObserveStage(string(model.StageValidating), outcome, int(time.Since(start)/time.Millisecond))
	log.Info().Bool("is_valid", rec.IsValid).Dur("duration", time.Since(start)).Msg("validation finished")
	return nil
}

// HandleStartMinting produces the attestation and reward artifacts for a job
// whose payment has been confirmed. The confirmed-payment gate, not bus
// ordering, is what keeps minting after validation for the same job.
func (p *PipelineProcessor) HandleStartMinting(ctx context.Context, job model.Job) error {
	ctx = logging.WithJobID(logging.WithCastHash(ctx, job.CastHash), job.JobID)
	log := logging.With(ctx, p.log)

	release, err := p.acquireStage(ctx, job.JobID, model.StageMinting)
	if err != nil {
		return nil
	}
	defer release()

	if _, err := p.attestations.Get(ctx, repository.NoTX, job.JobID); err == nil {
		metrics.IncStageDuplicate(string(model.StageMinting))
		log.Debug().Msg("attestation record exists, skipping")
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("attestation pre-check: %w", err)
	}

	pay, err := p.payments.FindByJobID(ctx, repository.NoTX, job.JobID)
	if err != nil {
		return fmt.Errorf("payment lookup: %w", err)
	}
	if pay.Status != model.PaymentStatusConfirmed {
		log.Warn().Str("payment_status", string(pay.Status)).Msg("mint requested before payment confirmed, skipping")
		return nil
	}

	verdict, err := p.validations.Get(ctx, repository.NoTX, job.JobID)
	if err != nil {
		return fmt.Errorf("validation lookup: %w", err)
	}
	if !verdict.IsValid {
		return domain.ErrOperationFailed
	}

	log.Info().Msg("minting attestation")
	start := time.Now()

	rec := &model.AttestationRecord{JobID: job.JobID, CreatedAt: time.Now().UTC()}
	outcome := "complete"

	callCtx, cancel := context.WithTimeout(ctx, p.chainTO)
	attHash, attErr := p.chain.Attest(callCtx, job, adapter.Verdict{IsValid: verdict.IsValid, Message: verdict.Message})
	cancel()
	if attErr != nil {
		rec.IsValid = false
		rec.Message = "Attestation failed, please try again"
		outcome = "error"
		log.Error().Err(attErr).Msg("attest call failed")
	} else {
		callCtx, cancel = context.WithTimeout(ctx, p.chainTO)
		rewardHash, mintErr := p.chain.MintReward(callCtx, job)
		cancel()
		if mintErr != nil {
			rec.IsValid = false
			rec.AttestationHash = attHash
			rec.Message = "Reward mint failed, please try again"
			outcome = "error"
			log.Error().Err(mintErr).Msg("mint reward call failed")
		} else {
			rec.IsValid = true
			rec.AttestationHash = attHash
			rec.RewardTransactionHash = rewardHash
		}
	}

	if err := p.attestations.Put(ctx, repository.NoTX, rec); err != nil {
		if errors.Is(err, domain.ErrRecordConflict) {
			metrics.ObserveStage(string(model.StageMinting), "conflict", int(time.Since(start)/time.Millisecond))
			return err
		}
		return fmt.Errorf("save attestation record: %w", err)
	}

	metrics.ObserveStage(string(model.StageMinting), outcome, int(time.Since(start)/time.Millisecond))
	log.Info().Bool("is_valid", rec.IsValid).
		Str("attestation_hash", rec.AttestationHash).
		Str("reward_tx_hash", rec.RewardTransactionHash).
		Dur("duration", time.Since(start)).Msg("minting finished")
	return nil
}

// acquireStage takes the per-job per-stage lock. The store-level
// insert-if-absent check is still the authority; the lock only keeps two
// workers from running the same slow collaborator call at once.
func (p *PipelineProcessor) acquireStage(ctx context.Context, jobID string, stage model.Stage) (func(), error) {
	key := redis.StageLockKey(jobID, string(stage))
	token, err := p.locker.TryLock(ctx, key, p.lockTTL)
	if errors.Is(err, domain.ErrStageLocked) {
		metrics.IncStageDuplicate(string(stage))
		return nil, err
	}
	if err != nil {
		// A lock outage never drops the stage; the store-level
		// insert-if-absent check keeps the effect at-most-once.
		p.log.Warn().Err(err).Str("job_id", jobID).Msg("stage lock unavailable, proceeding without lock")
		return func() {}, nil
	}
	return func() {
		if err := p.locker.Unlock(context.Background(), key, token); err != nil {
			p.log.Warn().Err(err).Str("job_id", jobID).Msg("stage unlock failed")
		}
	}, nil
}
