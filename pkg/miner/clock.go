package miner

import "time"

//go:generate mockgen -source=clock.go -destination=mock_clock_test.go -package=miner

// Clock supplies wall-clock timestamps and monotonic elapsed time
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// SystemClock reads the host clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time { return time.Now() }

// Since returns time.Since, which uses the monotonic reading when present
func (SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }
