package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var errFatal = errors.New("fatal")

func TestWaitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestWaitZeroDuration(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Wait(0) error = %v", err)
	}
}

func TestLoopStopsOnFatalError(t *testing.T) {
	logger := zerolog.Nop()

	var calls atomic.Int32

	err := Loop(context.Background(), Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Claim: func(context.Context) (bool, error) {
			if calls.Add(1) == 3 {
				return true, errFatal
			}

			return false, nil
		},
		OnError: func(error) bool { return false },
		Logger:  &logger,
	})

	if !errors.Is(err, errFatal) {
		t.Fatalf("Loop() error = %v, want %v", err, errFatal)
	}

	if calls.Load() != 3 {
		t.Errorf("claim called %d times, want 3", calls.Load())
	}
}

func TestLoopDrainsBacklogWithoutWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- Loop(ctx, Config{
			Name:         "drain",
			PollInterval: time.Hour,
			Claim: func(context.Context) (bool, error) {
				n := calls.Add(1)
				if n == 3 {
					return true, errFatal
				}

				return n <= 4, nil
			},
		})
	}()

	deadline := time.After(5 * time.Second)

	for calls.Load() < 5 {
		select {
		case <-deadline:
			t.Fatalf("claim called %d times before the idle wait, want 5", calls.Load())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Loop() error = %v, want context.Canceled", err)
	}

	if calls.Load() != 5 {
		t.Errorf("claim called %d times, want 5", calls.Load())
	}
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunWithTimeout() error = %v, want deadline exceeded", err)
	}
}
