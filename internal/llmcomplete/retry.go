package llmcomplete

import (
	"context"
	"log/slog"
	"time"

	"github.com/codalotl/codepal/internal/health"
)

// retrySleepDurations' i'th index is the sleep duration for the i'th retry. Any retry after that would use the last value.
//
// This is meant to mix exponential backoff, an eager initial retry, keeping sleep times long enough that things might recover but short enough that the user doesn't
// think things hung.
var retrySleepDurations = []time.Duration{
	10 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	10 * time.Second,
}

// DefaultMaxAttempts is the attempt limit used by WithRetry when maxAttempts <= 0.
const DefaultMaxAttempts = 3

type retrying struct {
	next        Completer
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
	health.Ctx
}

// WithRetry wraps c so that errors marked with ErrRetryable are retried, up to maxAttempts total attempts, sleeping per the fixed backoff schedule. Sleeping stops
// early with ctx's error if ctx is done.
func WithRetry(c Completer, maxAttempts int, logger *slog.Logger) Completer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &retrying{next: c, maxAttempts: maxAttempts, sleep: sleepCtx, Ctx: health.NewCtx(logger)}
}

func (r *retrying) Complete(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	var err error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		resp, err = r.next.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) || attempt == r.maxAttempts {
			break
		}

		sleep := retrySleepDurations[min(attempt-1, len(retrySleepDurations)-1)]
		r.Log("completion.retry", "id", req.ID, "attempt", attempt, "max", r.maxAttempts, "sleep", sleep, "err", err.Error())
		if serr := r.sleep(ctx, sleep); serr != nil {
			return nil, serr
		}
	}
	return nil, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
