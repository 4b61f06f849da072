package harvest

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pauser blocks for a politeness interval between requests. It is a
// rate-limit courtesy toward the source sites, not a correctness mechanism,
// and is independent of the fetcher's retry timing.
type Pauser func(ctx context.Context)

// RandomPauser sleeps a uniformly random duration in [min, max], returning
// early when the context ends.
func RandomPauser(min, max time.Duration) Pauser {
	if max < min {
		max = min
	}
	return func(ctx context.Context) {
		d := min
		if span := max - min; span > 0 {
			d += rand.N(span)
		}
		if d <= 0 {
			return
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
}

// NopPauser never waits. Used in tests.
func NopPauser() Pauser {
	return func(context.Context) {}
}
