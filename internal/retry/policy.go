package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// maxShift keeps the exponential doubling inside int64.
const maxShift = 62

// Mode selects how the delay grows between attempts.
type Mode string

const (
	ModeNone        Mode = "none"
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "", ModeNone:
		return ModeNone, nil
	case ModeFixed, ModeLinear, ModeExponential:
		return m, nil
	}
	return "", fmt.Errorf("unknown retry backoff mode %q", s)
}

// Policy holds the attempt limit and backoff for one retried operation.
type Policy struct {
	Mode        Mode
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int // total attempts including the first
}

// DefaultPolicy is three immediate attempts.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeNone, MaxAttempts: 3}
}

// NewPolicy fills zero values from DefaultPolicy. Max defaults to 30s when
// a delay mode is chosen without a cap.
func NewPolicy(mode Mode, initial, maxDelay time.Duration, maxAttempts int) Policy {
	p := DefaultPolicy()
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if mode != "" {
		p.Mode = mode
	}
	p.Initial = initial
	p.Max = maxDelay
	if p.Mode != ModeNone && p.Max <= 0 {
		p.Max = 30 * time.Second
	}
	if p.Initial > p.Max && p.Max > 0 {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry number retryCount (first retry is 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 || p.Initial <= 0 {
		return 0
	}
	switch p.Mode {
	case ModeFixed:
		return p.Initial
	case ModeLinear:
		return p.capped(time.Duration(retryCount) * p.Initial)
	case ModeExponential:
		shift := retryCount - 1
		if shift > maxShift || p.Initial > math.MaxInt64>>shift {
			if p.Max > 0 {
				return p.Max
			}
			return time.Duration(math.MaxInt64)
		}
		return p.capped(p.Initial << shift)
	}
	return 0
}

func (p Policy) capped(d time.Duration) time.Duration {
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1")
	}
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.Mode != ModeNone && p.Initial <= 0 {
		return fmt.Errorf("initial delay must be > 0 for %s backoff", p.Mode)
	}
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
