// Package bus is the in-process publish/subscribe boundary between the
// synchronous request-handling layer and the asynchronous pipeline worker.
// Emit returns as soon as the task is queued; handlers run on the worker
// pool. Delivery is at-least-once from the handler's point of view, so every
// subscriber must be idempotent.
package bus

import (
	"context"
	"sync"

	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/infra/metrics"
	"farcaster-attestation-frame/internal/infra/worker"

	"github.com/rs/zerolog"
)

type Handler func(ctx context.Context, job model.Job) error

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *worker.Pool
	log      *zerolog.Logger
}

func New(pool *worker.Pool, log *zerolog.Logger) *Bus {
	return &Bus{handlers: make(map[string][]Handler), pool: pool, log: log}
}

// On registers a handler for an event name. Registration is not safe to race
// with Emit for the same event; wire all subscriptions before serving.
func (b *Bus) On(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// Emit queues one task per registered handler and returns immediately. A
// saturated pool drops the event; the caller's poll/reconcile loop is the
// retry path, so dropping is safe.
func (b *Bus) Emit(ctx context.Context, event string, job model.Job) error {
	b.mu.RLock()
	hs := b.handlers[event]
	b.mu.RUnlock()

	if len(hs) == 0 {
		b.log.Warn().Str("event", event).Str("job_id", job.JobID).Msg("emit with no subscribers")
		return nil
	}
	for _, h := range hs {
		h := h
		if err := b.pool.Submit(func(taskCtx context.Context) error {
			return h(taskCtx, job)
		}); err != nil {
			metrics.IncBusEvent(event, "dropped")
			b.log.Error().Err(err).Str("event", event).Str("job_id", job.JobID).Msg("event dropped")
			return err
		}
	}
	metrics.IncBusEvent(event, "queued")
	return nil
}
