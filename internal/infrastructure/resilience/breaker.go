package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrCircuitOpen is returned by Do while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned by Do when the half-open probe limit is reached.
	ErrTooManyRequests = errors.New("too many requests")
)

// State is the position of a breaker.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values get defaults in New.
type Settings struct {
	// MaxRequests is how many probe calls are let through while half-open,
	// and how many must succeed to close again. Default 1.
	MaxRequests uint32
	// Timeout is how long the breaker stays open. Default 30s.
	Timeout time.Duration
	// ReadyToTrip decides after each failure whether to open. Default: three
	// consecutive failures.
	ReadyToTrip func(counts Counts) bool
	// IsFailure classifies a call's error. Default: any error except
	// context.Canceled, so an aborted run does not count against the remote.
	IsFailure func(err error) bool
	// OnStateChange observes every transition. It runs with the breaker
	// locked and must not call back into it.
	OnStateChange func(name string, from, to State)
	// Now overrides the clock.
	Now func() time.Time
}

// Counts are the outcomes seen since the last state change.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker stops calling a remote that keeps failing and probes it again
// after Timeout.
type Breaker struct {
	name     string
	settings Settings

	mu        sync.Mutex
	state     State
	epoch     uint64
	counts    Counts
	openUntil time.Time
}

// New creates a closed breaker.
func New(name string, settings Settings) *Breaker {
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		}
	}
	if settings.IsFailure == nil {
		settings.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{name: name, settings: settings}
}

// Name returns the name given to New.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, moving open to half-open once the
// timeout has passed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refresh(b.settings.Now())
}

// Counts returns the outcomes recorded since the last transition.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// RetryAt returns when an open breaker will let a probe through. It is zero
// unless the breaker is open.
func (b *Breaker) RetryAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refresh(b.settings.Now()) != StateOpen {
		return time.Time{}
	}
	return b.openUntil
}

// Do calls fn unless the breaker rejects the call, and records the outcome.
// A context that is already done is returned as is, without calling fn or
// touching the counts.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	epoch, err := b.admit()
	if err != nil {
		return err
	}

	err = fn(ctx)
	b.record(epoch, err)
	return err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.refresh(b.settings.Now()) {
	case StateOpen:
		return 0, ErrCircuitOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.settings.MaxRequests {
			return 0, ErrTooManyRequests
		}
	}
	b.counts.Requests++
	return b.epoch, nil
}

// record applies one outcome. Outcomes from calls admitted before the last
// transition are ignored.
func (b *Breaker) record(epoch uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.settings.Now()
	state := b.refresh(now)
	if epoch != b.epoch {
		return
	}

	if !b.settings.IsFailure(err) {
		if err != nil {
			return
		}
		b.counts.success()
		if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.MaxRequests {
			b.transition(StateClosed, now)
		}
		return
	}

	b.counts.failure()
	if state == StateHalfOpen || b.settings.ReadyToTrip(b.counts) {
		b.transition(StateOpen, now)
	}
}

// refresh performs the time-based open -> half-open move. Callers hold b.mu.
func (b *Breaker) refresh(now time.Time) State {
	if b.state == StateOpen && !now.Before(b.openUntil) {
		b.transition(StateHalfOpen, now)
	}
	return b.state
}

// transition resets the counts for the new state. Callers hold b.mu.
func (b *Breaker) transition(to State, now time.Time) {
	from := b.state
	b.state = to
	b.epoch++
	b.counts = Counts{}
	b.openUntil = time.Time{}
	if to == StateOpen {
		b.openUntil = now.Add(b.settings.Timeout)
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
