package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/prisma-ml-labs/lattice-go/v1/lattice"
)

// ErrWaitDeadline is returned when jobs are still running at the deadline.
var ErrWaitDeadline = errors.New("deadline reached before all jobs completed")

// WaitOptions controls Wait.
type WaitOptions struct {
	// Interval between two progress polls of the same job.
	Interval time.Duration

	// Timeout bounds the whole wait. Zero waits until ctx is done.
	Timeout time.Duration

	// MaxRate caps progress requests per second across all jobs. Zero means
	// no cap.
	MaxRate float64

	// OnProgress, when set, is called after every successful poll.
	OnProgress func(jobID string, progress float64)

	// OnPoll, when set, is called after every progress request with its
	// duration and error, failed ones included.
	OnPoll func(jobID string, elapsed time.Duration, err error)
}

// Wait polls every job concurrently until each one reports progress of 1.0
// or more. It returns the last progress seen per job together with the first
// error. Service and transport failures of a single poll are retried on the
// next tick; validation and protocol failures end the wait.
func Wait(ctx context.Context, client lattice.Client, jobIDs []string, opts WaitOptions) (map[string]float64, error) {
	if len(jobIDs) == 0 {
		return map[string]float64{}, nil
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("wait interval must be positive, got %s", opts.Interval)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.MaxRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxRate), 1)
	}

	var (
		mu   sync.Mutex
		last = make(map[string]float64, len(jobIDs))
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range jobIDs {
		g.Go(func() error {
			return pollJob(ctx, client, limiter, id, opts, func(p float64) {
				mu.Lock()
				last[id] = p
				mu.Unlock()
				if opts.OnProgress != nil {
					opts.OnProgress(id, p)
				}
			})
		})
	}
	err := g.Wait()

	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]float64, len(last))
	for k, v := range last {
		out[k] = v
	}
	return out, err
}

func pollJob(ctx context.Context, client lattice.Client, limiter *rate.Limiter, jobID string, opts WaitOptions, record func(float64)) error {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	var lastErr error
	for {
		if err := limiter.Wait(ctx); err != nil {
			return waitStopped(ctx, jobID, lastErr)
		}

		start := time.Now()
		progress, err := client.Progress(ctx, jobID)
		if opts.OnPoll != nil {
			opts.OnPoll(jobID, time.Since(start), err)
		}

		switch {
		case err == nil:
			lastErr = nil
			record(progress)
			if progress >= 1.0 {
				return nil
			}
		case lattice.IsValidationError(err), lattice.IsProtocolError(err):
			return fmt.Errorf("job %s: %w", jobID, err)
		default:
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return waitStopped(ctx, jobID, lastErr)
		case <-ticker.C:
		}
	}
}

// waitStopped explains why polling of jobID ended early.
func waitStopped(ctx context.Context, jobID string, lastErr error) error {
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// Past the deadline, or the limiter's next slot lies beyond it.
	if lastErr != nil {
		return fmt.Errorf("job %s: %w: %w", jobID, ErrWaitDeadline, lastErr)
	}
	return fmt.Errorf("job %s: %w", jobID, ErrWaitDeadline)
}
