package timeutil

import "time"

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// Clock abstracts wall-clock reads so age computations can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the instant it holds. Advance moves it forward.
type FixedClock struct {
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	return c.now
}

func (c *FixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// EpochSecondsToTime converts fractional unix seconds into a time.Time,
// truncated to whole seconds.
func EpochSecondsToTime(seconds float64) time.Time {
	return time.Unix(int64(seconds), 0).UTC()
}
