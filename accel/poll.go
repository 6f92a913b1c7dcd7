package accel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// SampleReader is satisfied by *MMA8452Q.
type SampleReader interface {
	ReadSample(ctx context.Context) (Sample, error)
}

// NewPollLimiter paces sample polling at the output data rate.
func NewPollLimiter(odr OutputDataRate) *rate.Limiter {
	hz := odr.Hertz()
	if hz <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(hz), 1)
}

// WaitSample polls r until a fresh sample is available. ErrNotReady is retried,
// any other error is returned straight away. maxAttempts <= 0 polls until ctx is done.
// A nil limiter polls without pacing.
func WaitSample(ctx context.Context, r SampleReader, limiter *rate.Limiter, maxAttempts int) (Sample, error) {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return Sample{}, err
		}
		s, err := r.ReadSample(ctx)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotReady) {
			return Sample{}, err
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return Sample{}, fmt.Errorf("mma8452q: gave up after %d attempts: %w", attempt, err)
		}
	}
}
