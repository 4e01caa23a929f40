//go:build !integration

package bus_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/infra/bus"
	"farcaster-attestation-frame/internal/infra/worker"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func TestBus_EmitDeliversToHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(2, 8)
	pool.Start(ctx)
	defer pool.Stop()

	b := bus.New(pool, testLogger())

	got := make(chan model.Job, 1)
	b.On(model.EventStartValidating, func(ctx context.Context, job model.Job) error {
		got <- job
		return nil
	})

	want := model.Job{JobID: "job-1", CastHash: "0xcast", UserFID: 42}
	if err := b.Emit(ctx, model.EventStartValidating, want); err != nil {
		t.Fatalf("emit: %v", err)
	}

	select {
	case job := <-got:
		if job != want {
			t.Errorf("handler received %+v, want %+v", job, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}

func TestBus_EmitWithoutSubscribersIsHarmless(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(1, 4)
	pool.Start(ctx)
	defer pool.Stop()

	b := bus.New(pool, testLogger())
	if err := b.Emit(ctx, "NO_SUCH_EVENT", model.Job{JobID: "job-1"}); err != nil {
		t.Fatalf("expected nil for unsubscribed event, got %v", err)
	}
}

func TestBus_EmitReturnsBeforeHandlerRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(1, 4)
	pool.Start(ctx)
	defer pool.Stop()

	b := bus.New(pool, testLogger())

	release := make(chan struct{})
	var mu sync.Mutex
	ran := false
	b.On(model.EventStartMinting, func(ctx context.Context, job model.Job) error {
		<-release
		mu.Lock()
		ran = true
		mu.Unlock()
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- b.Emit(ctx, model.EventStartMinting, model.Job{JobID: "job-1"}) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("emit: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("emit blocked on handler")
	}
	mu.Lock()
	if ran {
		t.Error("handler should not have run before release")
	}
	mu.Unlock()
	close(release)
}

func TestBus_SaturatedPoolDropsEvent(t *testing.T) {
	// Pool never started, queue of one.
	pool := worker.NewPool(1, 1)
	b := bus.New(pool, testLogger())
	b.On(model.EventStartValidating, func(ctx context.Context, job model.Job) error { return nil })

	if err := b.Emit(context.Background(), model.EventStartValidating, model.Job{JobID: "a"}); err != nil {
		t.Fatalf("first emit should queue: %v", err)
	}
	if err := b.Emit(context.Background(), model.EventStartValidating, model.Job{JobID: "b"}); err == nil {
		t.Fatal("expected the second emit to report a drop")
	}
}
