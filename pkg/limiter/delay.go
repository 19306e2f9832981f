package limiter

import (
	"context"
	"sync"
	"time"
)

// Delayer pauses the caller before an outbound request.
// Responsibilities:
// - Hold the courtesy delay applied before a request that actually hits the network
// - Abort the pause early when the request context is cancelled
type Delayer interface {
	Wait(ctx context.Context) error
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// FixedDelayer waits the same duration before every request.
type FixedDelayer struct {
	mu     sync.Mutex
	delay  time.Duration
	sleep  Sleeper
	waited int
}

func NewFixedDelayer(delay time.Duration) *FixedDelayer {
	return &FixedDelayer{
		delay: delay,
		sleep: contextSleep,
	}
}

// SetSleeper allows injecting a custom sleeper for testing
func (f *FixedDelayer) SetSleeper(sleep Sleeper) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleep = sleep
}

func (f *FixedDelayer) Wait(ctx context.Context) error {
	f.mu.Lock()
	delay := f.delay
	sleep := f.sleep
	f.waited++
	f.mu.Unlock()

	if delay <= 0 {
		return ctx.Err()
	}
	return sleep(ctx, delay)
}

func (f *FixedDelayer) Delay() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delay
}

// Waits returns how many times Wait has been called.
func (f *FixedDelayer) Waits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waited
}

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
