// Package retry computes backoff delays between attempts.
package retry

import (
	"time"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

// Policy is an immutable backoff schedule.
type Policy struct {
	Mode       Mode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // attempts after the first one
}

// Linear returns a linear policy starting at initial and capped at max.
func Linear(initial, maxDelay time.Duration, maxRetries int) Policy {
	return New(ModeLinear, initial, maxDelay, maxRetries)
}

// New builds a policy. Unknown modes fall back to linear and initial is
// clamped to max.
func New(mode Mode, initial, maxDelay time.Duration, maxRetries int) Policy {
	switch mode {
	case ModeFixed, ModeLinear, ModeExponential:
	default:
		mode = ModeLinear
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxDelay > 0 && initial > maxDelay {
		initial = maxDelay
	}
	return Policy{Mode: mode, Initial: initial, Max: maxDelay, MaxRetries: maxRetries}
}

// Attempts is the total number of tries, the first included.
func (p Policy) Attempts() int { return p.MaxRetries + 1 }

// Delay returns the wait before retry n (1-based). A zero Max means no cap.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case ModeFixed:
		d = p.Initial
	case ModeExponential:
		d = p.Initial << (n - 1)
	default:
		d = time.Duration(n) * p.Initial
	}
	if p.Max > 0 && (d > p.Max || d < 0) {
		return p.Max
	}
	return d
}

// Validate rejects schedules that cannot be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return ferrors.ValidationError("retry initial delay must be positive").Build()
	}
	if p.Max < 0 {
		return ferrors.ValidationError("retry max delay must not be negative").Build()
	}
	return nil
}
