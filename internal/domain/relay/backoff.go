// Package relay holds the delivery policy for signed webhook relays: retry
// scheduling and body signatures. It performs no I/O of its own.
package relay

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"time"
)

// DefaultMaxDelay is the upper bound on any single wait between attempts.
const DefaultMaxDelay = 60 * time.Second

// ErrInvalidMaxAttempts indicates the policy was configured with fewer than one attempt.
var ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")

// permanentError marks an error that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so BackoffPolicy.Do stops retrying and returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// BackoffOptions configure a BackoffPolicy.
type BackoffOptions struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Jitter      time.Duration

	// Rand returns a value in [0, n). Defaults to crypto/rand.
	Rand func(n int64) int64
	// Sleep waits for d or until ctx is done. Defaults to a timer select.
	Sleep func(ctx context.Context, d time.Duration) error
}

// BackoffPolicy schedules retries with exponential backoff plus bounded jitter.
type BackoffPolicy struct {
	maxAttempts int
	initial     time.Duration
	max         time.Duration
	jitter      time.Duration
	rand        func(n int64) int64
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewBackoffPolicy validates opts and returns a policy.
func NewBackoffPolicy(opts BackoffOptions) (*BackoffPolicy, error) {
	if opts.MaxAttempts < 1 {
		return nil, ErrInvalidMaxAttempts
	}
	maxDelay := opts.Max
	if maxDelay <= 0 || maxDelay > DefaultMaxDelay {
		maxDelay = DefaultMaxDelay
	}
	initial := opts.Initial
	if initial <= 0 {
		initial = time.Second
	}
	if initial > maxDelay {
		initial = maxDelay
	}
	// Jitter below initial keeps Delay(k) < BaseDelay(k+1).
	jitter := min(max(opts.Jitter, 0), initial)

	p := &BackoffPolicy{
		maxAttempts: opts.MaxAttempts,
		initial:     initial,
		max:         maxDelay,
		jitter:      jitter,
		rand:        opts.Rand,
		sleep:       opts.Sleep,
	}
	if p.rand == nil {
		p.rand = cryptoRand
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	return p, nil
}

// MaxAttempts returns the total number of attempts Do will make.
func (p *BackoffPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// BaseDelay returns the wait after the given failed attempt (1-based) without jitter.
func (p *BackoffPolicy) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.initial
	for i := 1; i < attempt; i++ {
		if d >= p.max/2 {
			return p.max
		}
		d *= 2
	}
	if d > p.max {
		return p.max
	}
	return d
}

// Delay returns the jittered wait after the given failed attempt, never above Max.
func (p *BackoffPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay(attempt)
	if p.jitter > 0 {
		d += time.Duration(p.rand(int64(p.jitter)))
	}
	if d > p.max {
		return p.max
	}
	return d
}

// Do calls fn until it succeeds, returns a Permanent error, the context ends,
// or MaxAttempts is reached. It returns the number of attempts made and the
// last error (unwrapped from Permanent).
func (p *BackoffPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return attempt, perm.err
		}
		if attempt == p.maxAttempts {
			return attempt, err
		}
		if serr := p.sleep(ctx, p.Delay(attempt)); serr != nil {
			return attempt, errors.Join(err, serr)
		}
	}
	return p.maxAttempts, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cryptoRand(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Skip jitter rather than failing delivery.
		return 0
	}
	return int64(binary.BigEndian.Uint64(buf[:]) % uint64(n)) // #nosec G115 - bounded by n
}
