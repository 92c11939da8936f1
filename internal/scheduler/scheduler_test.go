package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nifty-agent/internal/logging"
)

func TestRunNow_PassesCycleID(t *testing.T) {
	var got, fromCtx string
	s := New(func(ctx context.Context, cycleID string) error {
		got = cycleID
		fromCtx = logging.CycleFromContext(ctx)
		return nil
	}, zerolog.Nop())

	if err := s.RunNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got == "" || got != fromCtx {
		t.Errorf("cycle id %q, context carries %q", got, fromCtx)
	}
	if s.Runs() != 1 {
		t.Errorf("runs = %d", s.Runs())
	}
}

func TestRunNow_UniqueIDsAndErrors(t *testing.T) {
	seen := map[string]bool{}
	boom := errors.New("boom")
	s := New(func(_ context.Context, cycleID string) error {
		seen[cycleID] = true
		return boom
	}, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if err := s.RunNow(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("expected job error, got %v", err)
		}
	}
	if len(seen) != 3 {
		t.Errorf("cycle ids not unique: %v", seen)
	}
}

func TestSchedule_InvalidSpec(t *testing.T) {
	s := New(func(context.Context, string) error { return nil }, zerolog.Nop())
	if err := s.Schedule("every now and then"); err == nil {
		t.Error("expected parse error")
	}
	if err := s.Schedule("*/5 9-15 * * 1-5"); err != nil {
		t.Errorf("five-field spec rejected: %v", err)
	}
	if err := s.Schedule("@every 5s"); err != nil {
		t.Errorf("descriptor rejected: %v", err)
	}
	if err := s.Every(0); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestStartStop_RunsOnInterval(t *testing.T) {
	ran := make(chan struct{}, 10)
	s := New(func(ctx context.Context, _ string) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}, zerolog.Nop())

	if err := s.Every(time.Second); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run within 3s")
	}
}

func TestStop_CancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan error, 1)
	s := New(func(ctx context.Context, _ string) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return ctx.Err()
	}, zerolog.Nop())

	if err := s.Schedule("@every 1s"); err != nil {
		t.Fatal(err)
	}
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}
	s.Stop()

	select {
	case err := <-finished:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("job saw %v", err)
		}
	default:
		t.Error("Stop returned before the running job finished")
	}
}
