package vision

import (
	"context"
	"log"
	"time"

	"farcaster-attestation-frame/internal/domain/ports/adapter"
)

var _ adapter.VisionAdapter = (*NoopAdapter)(nil)

// NoopAdapter implements adapter.VisionAdapter for local/dev testing.
// It approves everything instead of calling a real vision model.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter {
	return &NoopAdapter{}
}

func (a *NoopAdapter) Name() string { return "noop" }

func (a *NoopAdapter) CheckImage(ctx context.Context, imageURL, replyText string) (adapter.Verdict, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return adapter.Verdict{}, ctx.Err()
	}
	log.Printf("[noop-vision] approving %s\n", imageURL)
	return adapter.Verdict{IsValid: true}, nil
}
