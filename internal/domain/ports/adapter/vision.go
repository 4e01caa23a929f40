package adapter

import "context"

// Verdict is the outcome of a vision check on one image.
type Verdict struct {
	IsValid bool
	Message string
}

// VisionAdapter runs the content check on an image URL. Calls may take
// seconds and are only ever issued from the pipeline worker, never from a
// request handler.
type VisionAdapter interface {
	Name() string
	CheckImage(ctx context.Context, imageURL, replyText string) (Verdict, error)
}
