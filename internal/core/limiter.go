package core

// limiter.go bounds how many filings the HTTP surface parses at once.
//
// Each parse holds a slot in a buffered channel. When every slot is busy,
// Acquire waits up to maxWait and then fails with ErrTooManyParses.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyParses is returned when no parse slot frees up in time.
var ErrTooManyParses = errors.New("too many concurrent parses, please try again later")

const (
	DefaultMaxConcurrentParses = 4
	DefaultMaxWaitTime         = 30 * time.Second
)

// ParseLimiter is a counting semaphore for filing parses.
type ParseLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewParseLimiter allows at most maxConcurrent parses; callers wait at
// most maxWait for a slot. Non-positive arguments select the defaults.
func NewParseLimiter(maxConcurrent int, maxWait time.Duration) *ParseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentParses
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &ParseLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The caller must Release it when done.
func (l *ParseLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return ErrTooManyParses
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ParseLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *ParseLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// LimiterStatus is a point-in-time view of a ParseLimiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current slot usage.
func (l *ParseLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no parse is active or ctx is done. Used during
// shutdown.
func (l *ParseLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.active.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
