package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestStartRefreshesPeriodically(t *testing.T) {
	r := &countingRefresher{}
	s := New(50*time.Millisecond, r)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for r.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := r.calls.Load(); n < 2 {
		t.Fatalf("expected at least two refreshes, got %d", n)
	}
}

func TestDisabledIntervalSchedulesNothing(t *testing.T) {
	r := &countingRefresher{}
	s := New(0, r)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	if n := r.calls.Load(); n != 0 {
		t.Fatalf("expected no refresh, got %d", n)
	}
}

func TestRunLogsFailure(t *testing.T) {
	r := &countingRefresher{err: errors.New("offline")}
	s := New(time.Minute, r)
	s.run()
	if r.calls.Load() != 1 {
		t.Fatal("expected refresh to be attempted")
	}
}
