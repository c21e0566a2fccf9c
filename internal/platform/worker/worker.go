// Package worker provides the polling loop used by background research
// workers and the cancellable pacing waits shared by rate-limited sources.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const logFieldWorker = "worker"

// ClaimFunc handles at most one queued item. It reports whether an item was
// found so the loop can drain a backlog without sleeping between items.
type ClaimFunc func(ctx context.Context) (bool, error)

// Config configures the worker loop behavior.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// PollInterval is the pause after an iteration that found no work.
	PollInterval time.Duration

	// Claim is called each iteration.
	Claim ClaimFunc

	// OnError is called when Claim returns an error.
	// Return true to continue, false to exit the loop.
	OnError func(err error) bool

	Logger *zerolog.Logger
}

// Loop runs a worker loop with the given configuration.
// Returns a wrapped ctx.Err() when the context is canceled, or the first fatal error.
func Loop(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	logger.Info().Str(logFieldWorker, cfg.Name).Dur("poll_interval", cfg.PollInterval).Msg("starting worker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")

	for {
		if err := checkCanceled(ctx, cfg.Name); err != nil {
			return err
		}

		found, err := claim(ctx, cfg, logger)
		if err != nil {
			return err
		}

		if found {
			continue
		}

		if err := Wait(ctx, cfg.PollInterval); err != nil {
			return err
		}
	}
}

// claim runs one iteration. Errors that OnError accepts, or all errors when
// OnError is nil, are logged and the loop goes on.
func claim(ctx context.Context, cfg Config, logger *zerolog.Logger) (bool, error) {
	if cfg.Claim == nil {
		return false, nil
	}

	found, err := cfg.Claim(ctx)
	if err == nil {
		return found, nil
	}

	if cfg.OnError != nil && !cfg.OnError(err) {
		return false, err
	}

	logger.Error().Err(err).Str(logFieldWorker, cfg.Name).Msg("claim error")

	return found, nil
}

func checkCanceled(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("worker loop %s: %w", name, ctx.Err())
	default:
		return nil
	}
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
// A non-positive timeout runs fn with ctx unchanged.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}
