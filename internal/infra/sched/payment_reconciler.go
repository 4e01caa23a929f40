package sched

import (
	"context"
	"log"
	"time"

	"farcaster-attestation-frame/internal/domain/ports/repository"
	"farcaster-attestation-frame/internal/usecase"
)

// PaymentReconciler periodically scans payment records the happy path missed.
// Stale pending payments are re-checked against the chain (covers a client
// that paid but never pressed "I have paid", or a crash mid-confirm), and
// confirmed payments whose job still has no attestation get their mint event
// re-emitted (covers a START_MINTING drop on a saturated pool).
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, payments repository.PaymentRepository, interval, staleAfter time.Duration) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &PaymentReconciler{uc: uc, payments: payments, interval: interval, staleAfter: staleAfter}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)

	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		log.Printf("payment-reconciler: list pending error: %v", err)
	}
	for _, p := range pending {
		if p.TxHash == "" {
			continue
		}
		confirmed, err := w.uc.ConfirmIfOnChain(ctx, p.JobID)
		if err != nil {
			log.Printf("payment-reconciler: confirm failed job=%s tx=%s err=%v", p.JobID, p.TxHash, err)
			continue
		}
		if confirmed {
			log.Printf("payment-reconciler: reconciled job=%s", p.JobID)
		}
	}

	unminted, err := w.payments.ListConfirmedUnminted(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		log.Printf("payment-reconciler: list unminted error: %v", err)
		return
	}
	for _, p := range unminted {
		if err := w.uc.RequestMint(ctx, p.JobID); err != nil {
			log.Printf("payment-reconciler: mint re-emit failed job=%s err=%v", p.JobID, err)
		}
	}
}
