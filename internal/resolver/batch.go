package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/bazbom/bazbom"
)

// batchConfig bounds one batch's retry behavior, per spec.md §4.4 item 2:
// exponential backoff starting at 250ms, doubling, capped at 8s, at most 3
// retries, with a 30s hard deadline for the whole batch. Grounded on
// claircore's pkg/ctxlock/v2.backoff (a doubling-with-cap helper) and
// Locker.Lock's retry-loop shape.
type batchConfig struct {
	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxRetries     int
	batchDeadline  time.Duration
}

var defaultBatchConfig = batchConfig{
	initialBackoff: 250 * time.Millisecond,
	maxBackoff:     8 * time.Second,
	maxRetries:     3,
	batchDeadline:  30 * time.Second,
}

// doubling advances wait by the doubling-with-cap rule, mirroring
// ctxlock.backoff's shape exactly.
func doubling(wait time.Duration, max time.Duration) time.Duration {
	wait *= 2
	if wait > max {
		wait = max
	}
	return wait
}

// queryWithRetry runs one batch query against t, retrying on error up to
// cfg.maxRetries times with doubling backoff, bounded by cfg.batchDeadline.
// Returns bazbom.ErrResolverBatchFailed if every attempt fails or the
// deadline expires. An ErrResolverUnavailable error from t is returned
// as-is, without further retries.
func queryWithRetry(ctx context.Context, t Transport, purls []bazbom.PackageURL, cfg batchConfig) (map[bazbom.PackageURL][]bazbom.Advisory, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.batchDeadline)
	defer cancel()

	wait := cfg.initialBackoff
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, bazbom.Wrap("resolver.queryWithRetry", bazbom.ErrResolverBatchFailed, ctx.Err())
			case <-timer.C:
			}
			wait = doubling(wait, cfg.maxBackoff)
		}

		result, err := t.Query(ctx, purls)
		if err == nil {
			return result, nil
		}
		lastErr = err
		slog.DebugContext(ctx, "advisory batch query failed, retrying", "attempt", attempt, "error", err)

		if kind, ok := bazbom.KindOf(err); ok && kind == bazbom.ErrResolverUnavailable {
			// The whole service is down; retrying the same batch won't help
			// faster than the caller's own next Scan attempt would.
			return nil, err
		}
	}
	return nil, bazbom.Wrap("resolver.queryWithRetry", bazbom.ErrResolverBatchFailed, lastErr)
}

// batches splits purls into chunks of at most size, per spec.md §4.4 item 2,
// grounded on claircore's pkg/microbatch.Insert's count-bounded queueing
// (there applied to SQL batch inserts; here applied to HTTP query payloads).
func batches(purls []bazbom.PackageURL, size int) [][]bazbom.PackageURL {
	if size <= 0 {
		size = bazbom.DefaultBatchSize
	}
	var out [][]bazbom.PackageURL
	for len(purls) > 0 {
		n := size
		if n > len(purls) {
			n = len(purls)
		}
		out = append(out, purls[:n])
		purls = purls[n:]
	}
	return out
}
