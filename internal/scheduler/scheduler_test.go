package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/log"
)

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := New(log.New(log.DefaultConfig()))
	err := s.AddJob("not a cron spec", "bad", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestJobRunsOnSchedule(t *testing.T) {
	s := New(log.New(log.DefaultConfig()))

	var runs atomic.Int32
	err := s.AddJob("@every 50ms", "tick", func(context.Context) error {
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("add job: %v", err)
	}

	s.Start()
	defer s.Stop(context.Background())

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStopWaitsForRunningJob(t *testing.T) {
	s := New(log.New(log.DefaultConfig()))

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	err := s.AddJob("@every 10ms", "slow", func(context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return errors.New("done anyway")
	})
	if err != nil {
		t.Fatalf("add job: %v", err)
	}

	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); err == nil {
		t.Fatal("expected timeout while job is still running")
	}

	close(release)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
