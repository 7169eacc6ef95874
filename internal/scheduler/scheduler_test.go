package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hray3182/ClassSync/internal/session"
)

func TestSchedulerRunsOnStartAndTick(t *testing.T) {
	var runs atomic.Int32
	ran := make(chan struct{}, 64)
	job := Job{Name: "count", Run: func(context.Context) error {
		runs.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
		return errors.New("logged, not fatal")
	}}

	s := New(10*time.Millisecond, nil, job)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	waitRun := func() {
		t.Helper()
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatal("job did not run")
		}
	}
	waitRun()
	waitRun()

	cancel()
	<-done
	if n := runs.Load(); n < 2 {
		t.Errorf("runs = %d, want at least 2", n)
	}
}

func TestExpireSessionsJob(t *testing.T) {
	m := session.NewManager()
	m.Create()

	if err := ExpireSessions(m, time.Hour, nil).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Fatalf("fresh session expired")
	}
	if err := ExpireSessions(m, -time.Second, nil).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 {
		t.Errorf("len = %d, want 0", m.Len())
	}
}
