// Package payment confirms asynchronous checkout completion by polling the
// checkout-session status endpoint until it reports completion or a deadline passes.
package payment

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 30 * time.Second

	// TimeoutMessage is shown when the deadline passes before completion.
	TimeoutMessage = "Your payment went through, but there was a slight delay confirming it. Please check back in a moment."
)

// ErrMissingSessionID is returned when the return URL carries no session id.
var ErrMissingSessionID = errors.New("Payment session ID not found in URL")

// State is where a poll ended.
type State int

const (
	StatePending State = iota
	StateComplete
	StateTimeout
	StateError
	// StateCanceled means the caller tore the poll down; no outcome was reached.
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateComplete:
		return "complete"
	case StateTimeout:
		return "timeout"
	case StateError:
		return "error"
	case StateCanceled:
		return "canceled"
	default:
		return "pending"
	}
}

// Terminal reports whether the state is one of complete, timeout or error.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateTimeout || s == StateError
}

// Result is the outcome of Await.
type Result struct {
	State     State
	SessionID string
	// Journey is the paid journey attached to a complete status, if the API sent one.
	Journey  *journeys.Journey
	Attempts int
	Err      error
}

// Message is the user-facing text for the result.
func (r Result) Message() string {
	switch r.State {
	case StateComplete:
		return "Payment successful!"
	case StateTimeout:
		return TimeoutMessage
	case StateError:
		if r.Err != nil {
			return r.Err.Error()
		}
		return "Payment could not be confirmed."
	default:
		return ""
	}
}

// StatusChecker queries a checkout session once. *journeys.Client implements it.
type StatusChecker interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (journeys.CheckoutStatus, error)
}

// Attempt describes one status query, reported through WithOnAttempt.
type Attempt struct {
	N      int
	Status string
	Err    error
}

// Poller waits for a checkout session to complete.
type Poller struct {
	checker   StatusChecker
	interval  time.Duration
	timeout   time.Duration
	onAttempt func(Attempt)
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the delay between status queries.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout sets how long to wait for completion before giving up.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithOnAttempt registers a hook called after every status query.
// It runs on the polling goroutine.
func WithOnAttempt(fn func(Attempt)) Option {
	return func(p *Poller) { p.onAttempt = fn }
}

// NewPoller builds a poller with the 2s/30s defaults.
func NewPoller(checker StatusChecker, opts ...Option) *Poller {
	p := &Poller{
		checker:  checker,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SessionIDFromURL extracts the checkout session id from a return URL's query.
// Both "session_id" and "sessionId" are accepted.
func SessionIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", ErrMissingSessionID
	}
	q := u.Query()
	for _, key := range []string{"session_id", "sessionId"} {
		if id := strings.TrimSpace(q.Get(key)); id != "" {
			return id, nil
		}
	}
	return "", ErrMissingSessionID
}

// AwaitURL extracts the session id from rawURL and waits on it.
// A URL without a session id ends in StateError without any network call.
func (p *Poller) AwaitURL(ctx context.Context, rawURL string) Result {
	id, err := SessionIDFromURL(rawURL)
	if err != nil {
		return Result{State: StateError, Err: err}
	}
	return p.Await(ctx, id)
}

// Await queries the session immediately, then every interval, until the
// status is complete or the timeout elapses. Failed queries are treated as
// transient and do not stop polling. Cancelling ctx stops everything and
// yields StateCanceled.
//
// A single context bounds the periodic queries and any request in flight,
// and only this loop writes the result, so exactly one outcome is produced
// and no query is issued after Await returns.
func (p *Poller) Await(ctx context.Context, sessionID string) Result {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Result{State: StateError, Err: ErrMissingSessionID}
	}

	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	res := Result{State: StatePending, SessionID: sessionID}

	for {
		if p.check(pollCtx, &res) {
			return res
		}

		select {
		case <-pollCtx.Done():
			return p.expire(ctx, res)
		case <-ticker.C:
			// A tick and the deadline can be ready together; the deadline wins.
			if pollCtx.Err() != nil {
				return p.expire(ctx, res)
			}
		}
	}
}

// check issues one status query and reports whether the session completed.
func (p *Poller) check(ctx context.Context, res *Result) bool {
	res.Attempts++
	st, err := p.checker.GetCheckoutSession(ctx, res.SessionID)
	if p.onAttempt != nil {
		p.onAttempt(Attempt{N: res.Attempts, Status: st.Status, Err: err})
	}
	if err != nil || !st.Complete() {
		return false
	}
	res.State = StateComplete
	res.Journey = st.Journey
	return true
}

func (p *Poller) expire(parent context.Context, res Result) Result {
	if err := parent.Err(); err != nil {
		res.State = StateCanceled
		res.Err = err
		return res
	}
	res.State = StateTimeout
	return res
}
