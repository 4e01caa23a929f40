//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/usecase"
)

func imageFilter(t *testing.T) usecase.EmbedFilter {
	t.Helper()
	f, err := usecase.RegexEmbedFilter(`(?i)\.(png|jpe?g|gif|webp)(\?.*)?$`)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	return f
}

func reply(fid int64, ts time.Time, text string, urls ...string) model.Reply {
	r := model.Reply{AuthorFID: fid, Timestamp: ts, Text: text}
	for _, u := range urls {
		r.Embeds = append(r.Embeds, model.Embed{URL: u})
	}
	return r
}

func TestSubmitUseCase_Submit(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty reply set is an input error, no event emitted", func(t *testing.T) {
		social := &MockFarcaster{}
		emitter := &MockEmitter{}
		uc := usecase.NewSubmitUseCase(social, emitter, imageFilter(t), newTestLogger())

		_, err := uc.Submit(ctx, "0xcast", 42)
		if !errors.Is(err, domain.ErrNoReply) {
			t.Fatalf("expected ErrNoReply, got %v", err)
		}
		if len(emitter.Emitted()) != 0 {
			t.Errorf("expected no events, got %d", len(emitter.Emitted()))
		}
	})

	t.Run("replies by other users only is an input error", func(t *testing.T) {
		social := &MockFarcaster{Replies: []model.Reply{
			reply(7, base, "someone else", "https://img.example/a.png"),
		}}
		emitter := &MockEmitter{}
		uc := usecase.NewSubmitUseCase(social, emitter, imageFilter(t), newTestLogger())

		_, err := uc.Submit(ctx, "0xcast", 42)
		if !errors.Is(err, domain.ErrReplyNotSelfAuthored) {
			t.Fatalf("expected ErrReplyNotSelfAuthored, got %v", err)
		}
		if len(emitter.Emitted()) != 0 {
			t.Errorf("expected no events, got %d", len(emitter.Emitted()))
		}
	})

	t.Run("self-authored reply without embeds yields retry view, no event", func(t *testing.T) {
		social := &MockFarcaster{Replies: []model.Reply{
			reply(42, base, "my reply, no image"),
		}}
		emitter := &MockEmitter{}
		uc := usecase.NewSubmitUseCase(social, emitter, imageFilter(t), newTestLogger())

		view, err := uc.Submit(ctx, "0xcast", 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if view.Stage != model.StageSubmitted {
			t.Errorf("expected SUBMITTED stage, got %s", view.Stage)
		}
		if len(emitter.Emitted()) != 0 {
			t.Errorf("expected no events, got %d", len(emitter.Emitted()))
		}
		found := false
		for _, a := range view.Actions {
			if a.Kind == model.ActionSubmit && strings.HasSuffix(a.Target, "/0xcast") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a retry action targeting the same cast, got %+v", view.Actions)
		}
	})

	t.Run("reply with image embed starts validation", func(t *testing.T) {
		social := &MockFarcaster{Replies: []model.Reply{
			reply(42, base, "here is my image", "https://img.example/cat.png"),
		}}
		emitter := &MockEmitter{}
		uc := usecase.NewSubmitUseCase(social, emitter, imageFilter(t), newTestLogger())

		view, err := uc.Submit(ctx, "0xcast", 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		events := emitter.Emitted()
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		ev := events[0]
		if ev.Name != model.EventStartValidating {
			t.Errorf("expected START_VALIDATING, got %s", ev.Name)
		}
		if ev.Job.JobID == "" {
			t.Error("expected a generated job id")
		}
		if ev.Job.ImageURL != "https://img.example/cat.png" {
			t.Errorf("unexpected image url %q", ev.Job.ImageURL)
		}
		if ev.Job.CastHash != "0xcast" || ev.Job.UserFID != 42 {
			t.Errorf("job descriptor mismatch: %+v", ev.Job)
		}

		if view.Stage != model.StageValidating {
			t.Errorf("expected VALIDATING stage, got %s", view.Stage)
		}
		wantTarget := "/validations/" + ev.Job.JobID
		found := false
		for _, a := range view.Actions {
			if a.Kind == model.ActionPoll && a.Target == wantTarget {
				found = true
			}
		}
		if !found {
			t.Errorf("expected poll action targeting %s, got %+v", wantTarget, view.Actions)
		}
	})

	t.Run("latest self-authored reply wins regardless of order", func(t *testing.T) {
		social := &MockFarcaster{Replies: []model.Reply{
			reply(42, base.Add(-2*time.Hour), "old", "https://img.example/old.png"),
			reply(7, base.Add(3*time.Hour), "not mine", "https://img.example/other.png"),
			reply(42, base.Add(time.Hour), "newest", "https://img.example/new.png"),
			reply(42, base, "middle", "https://img.example/mid.png"),
		}}
		emitter := &MockEmitter{}
		uc := usecase.NewSubmitUseCase(social, emitter, imageFilter(t), newTestLogger())

		if _, err := uc.Submit(ctx, "0xcast", 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		events := emitter.Emitted()
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		if events[0].Job.ImageURL != "https://img.example/new.png" {
			t.Errorf("expected newest self-authored reply selected, got %q", events[0].Job.ImageURL)
		}
		if events[0].Job.Text != "newest" {
			t.Errorf("expected text of newest reply, got %q", events[0].Job.Text)
		}
	})

	t.Run("regex filter skips non-image embeds", func(t *testing.T) {
		social := &MockFarcaster{Replies: []model.Reply{
			reply(42, base, "mixed embeds", "https://example.com/page.html", "https://img.example/pic.jpeg?w=600"),
		}}
		emitter := &MockEmitter{}
		uc := usecase.NewSubmitUseCase(social, emitter, imageFilter(t), newTestLogger())

		if _, err := uc.Submit(ctx, "0xcast", 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		events := emitter.Emitted()
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		if events[0].Job.ImageURL != "https://img.example/pic.jpeg?w=600" {
			t.Errorf("expected the jpeg embed, got %q", events[0].Job.ImageURL)
		}
	})

	t.Run("any filter takes the first non-empty embed", func(t *testing.T) {
		social := &MockFarcaster{Replies: []model.Reply{
			reply(42, base, "any embed", "https://example.com/page.html"),
		}}
		emitter := &MockEmitter{}
		uc := usecase.NewSubmitUseCase(social, emitter, usecase.AnyEmbedFilter(), newTestLogger())

		if _, err := uc.Submit(ctx, "0xcast", 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(emitter.Emitted()) != 1 {
			t.Fatalf("expected 1 event, got %d", len(emitter.Emitted()))
		}
	})

	t.Run("social client failure surfaces as error", func(t *testing.T) {
		social := &MockFarcaster{CastRepliesFunc: func(ctx context.Context, castHash string) ([]model.Reply, error) {
			return nil, errors.New("neynar 503")
		}}
		emitter := &MockEmitter{}
		uc := usecase.NewSubmitUseCase(social, emitter, imageFilter(t), newTestLogger())

		if _, err := uc.Submit(ctx, "0xcast", 42); err == nil {
			t.Fatal("expected an error")
		}
		if len(emitter.Emitted()) != 0 {
			t.Errorf("expected no events, got %d", len(emitter.Emitted()))
		}
	})
}

func TestSubmitUseCase_Entry(t *testing.T) {
	uc := usecase.NewSubmitUseCase(&MockFarcaster{}, &MockEmitter{}, usecase.AnyEmbedFilter(), newTestLogger())
	view := uc.Entry(context.Background())
	if view.Stage != model.StageSubmitted {
		t.Errorf("expected SUBMITTED stage, got %s", view.Stage)
	}
	if len(view.Actions) == 0 {
		t.Error("expected at least one action")
	}
}
