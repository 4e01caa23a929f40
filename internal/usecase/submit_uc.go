package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/rs/zerolog"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/adapter"
	"farcaster-attestation-frame/internal/infra/logging"
)

// Compile-time check
var _ SubmitUseCase = (*submitUC)(nil)

// SubmitUseCase is the frame entry flow: select the requesting user's reply,
// screen its embeds and, when an image qualifies, publish the job into the
// pipeline. All precondition failures surface to the requester and never
// enter the pipeline.
type SubmitUseCase interface {
	// Entry renders the initial frame before any submission.
	Entry(ctx context.Context) model.InfoView
	// Submit runs the selection policy for castHash/userFID and, on success,
	// emits START_VALIDATING with a fresh job id.
	Submit(ctx context.Context, castHash string, userFID int64) (model.InfoView, error)
}

// EmbedFilter screens a reply's embeds and returns the first qualifying URL,
// or "" when none qualifies. Which embeds count as images is a policy knob,
// not a structural rule.
type EmbedFilter func(embeds []model.Embed) string

// RegexEmbedFilter keeps the first embed whose URL matches pattern.
func RegexEmbedFilter(pattern string) (EmbedFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile embed filter: %w", err)
	}
	return func(embeds []model.Embed) string {
		for _, e := range embeds {
			if e.URL != "" && re.MatchString(e.URL) {
				return e.URL
			}
		}
		return ""
	}, nil
}

// AnyEmbedFilter takes the first embed carrying a non-empty URL.
func AnyEmbedFilter() EmbedFilter {
	return func(embeds []model.Embed) string {
		for _, e := range embeds {
			if e.URL != "" {
				return e.URL
			}
		}
		return ""
	}
}

type submitUC struct {
	social adapter.FarcasterClient
	bus    Emitter
	filter EmbedFilter
	log    *zerolog.Logger
}

func NewSubmitUseCase(social adapter.FarcasterClient, bus Emitter, filter EmbedFilter, log *zerolog.Logger) *submitUC {
	return &submitUC{social: social, bus: bus, filter: filter, log: log}
}

func (u *submitUC) Entry(ctx context.Context) model.InfoView {
	return model.InfoView{
		Stage: model.StageSubmitted,
		Text:  "Press button to display your reply to this cast",
		Actions: []model.Action{
			{Label: "Fetch text", Kind: model.ActionSubmit, Target: "/frames/casts"},
		},
	}
}

func (u *submitUC) Submit(ctx context.Context, castHash string, userFID int64) (model.InfoView, error) {
	defer logging.TraceDuration(u.log, "SubmitUC.Submit")()

	replies, err := u.social.CastReplies(ctx, castHash)
	if err != nil {
		return model.InfoView{}, fmt.Errorf("fetch replies: %w", err)
	}

	reply, ok := selectReply(replies, userFID)
	if !ok {
		if len(replies) == 0 {
			return model.InfoView{}, domain.ErrNoReply
		}
		return model.InfoView{}, domain.ErrReplyNotSelfAuthored
	}

	imageURL := u.filter(reply.Embeds)
	if imageURL == "" {
		// No qualifying embed is a no-op, not an error: the job simply does
		// not enter the pipeline.
		return model.InfoView{
			Stage: model.StageSubmitted,
			Text:  reply.Text,
			Actions: []model.Action{
				{Label: "Fetch text/image", Kind: model.ActionSubmit, Target: "/frames/casts/" + castHash},
				model.NewResetAction(""),
			},
		}, nil
	}

	job := model.Job{
		JobID:    model.NewJobID(),
		CastHash: castHash,
		UserFID:  userFID,
		Text:     reply.Text,
		ImageURL: imageURL,
	}
	if err := u.bus.Emit(ctx, model.EventStartValidating, job); err != nil {
		return model.InfoView{}, fmt.Errorf("emit %s: %w", model.EventStartValidating, err)
	}
	u.log.Info().Str("job_id", job.JobID).Str("cast_hash", castHash).Int64("user_fid", userFID).Msg("job submitted")

	return model.InfoView{
		Stage: model.StageValidating,
		Text:  reply.Text + "\n\nValidating your image...",
		Actions: []model.Action{
			{Label: "Check status", Kind: model.ActionPoll, Target: "/validations/" + job.JobID},
		},
	}, nil
}

// selectReply picks the most recent reply (timestamp descending) authored by
// the requesting user. Tie-break is strictly timestamp order.
func selectReply(replies []model.Reply, userFID int64) (model.Reply, bool) {
	own := make([]model.Reply, 0, len(replies))
	for _, r := range replies {
		if r.AuthorFID == userFID {
			own = append(own, r)
		}
	}
	if len(own) == 0 {
		return model.Reply{}, false
	}
	sort.Slice(own, func(i, j int) bool { return own[i].Timestamp.After(own[j].Timestamp) })
	return own[0], true
}
