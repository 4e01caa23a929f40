package adapter

import (
	"context"

	"farcaster-attestation-frame/internal/domain/model"
)

// FarcasterClient fetches conversation data from the social API. Only the
// shape of the replies matters to the core; the selection policy lives in the
// submit use case.
type FarcasterClient interface {
	// CastReplies returns the direct replies to the cast, newest first.
	CastReplies(ctx context.Context, castHash string) ([]model.Reply, error)
}
