// Package reveal sequences the recipient experience of a journey:
// a welcome screen, one screen per stop in display order, a summary,
// and in preview mode a payment screen.
package reveal

import (
	"errors"
	"fmt"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

// ErrNoTransition is returned when an action has no effect in the current view.
var ErrNoTransition = errors.New("action not available in this view")

// Mode distinguishes the creator checking the experience from the actual recipient.
type Mode int

const (
	// ModePreview is reached from a journey id; the summary leads to payment.
	ModePreview Mode = iota
	// ModeFinal is reached from a shareable token; the summary is terminal.
	ModeFinal
)

func (m Mode) String() string {
	if m == ModeFinal {
		return "final"
	}
	return "preview"
}

// View is the screen currently shown. It is one of Welcome, AtStop, Summary or Payment.
type View interface {
	fmt.Stringer
	isView()
}

// Welcome is the initial screen.
type Welcome struct{}

// AtStop shows the stop at Index in display order.
type AtStop struct {
	Index int
}

// Summary follows the last stop.
type Summary struct{}

// Payment asks the creator to pay; only reachable in preview mode.
type Payment struct{}

func (Welcome) isView() {}
func (AtStop) isView()  {}
func (Summary) isView() {}
func (Payment) isView() {}

func (Welcome) String() string  { return "welcome" }
func (v AtStop) String() string { return fmt.Sprintf("journey[%d]", v.Index) }
func (Summary) String() string  { return "summary" }
func (Payment) String() string  { return "payment" }

// Session is the in-memory state of one reveal. It is not safe for concurrent use;
// like any UI state it is driven from a single event loop.
type Session struct {
	mode    Mode
	journey journeys.Journey
	stops   []journeys.Stop
	view    View
}

// NewSession starts a reveal of j on the welcome screen.
func NewSession(j journeys.Journey, mode Mode) *Session {
	return &Session{
		mode:    mode,
		journey: j,
		stops:   journeys.SortStops(j.Stops),
		view:    Welcome{},
	}
}

// Mode returns how the session was opened.
func (s *Session) Mode() Mode { return s.mode }

// Journey returns the journey being revealed.
func (s *Session) Journey() journeys.Journey { return s.journey }

// StopCount is the number of stops in the journey.
func (s *Session) StopCount() int { return len(s.stops) }

// Stops returns the stops in display order.
func (s *Session) Stops() []journeys.Stop {
	return append([]journeys.Stop(nil), s.stops...)
}

// View returns the current screen. A stop cursor past the end reads as Summary.
func (s *Session) View() View {
	s.view = s.normalize(s.view)
	return s.view
}

// StopIndex is the stop cursor: the current index while at a stop,
// StopCount once past the last stop, 0 before the reveal began.
func (s *Session) StopIndex() int {
	switch v := s.View().(type) {
	case AtStop:
		return v.Index
	case Summary, Payment:
		return len(s.stops)
	default:
		return 0
	}
}

// CurrentStop returns the stop on screen, if any.
func (s *Session) CurrentStop() (journeys.Stop, bool) {
	v, ok := s.View().(AtStop)
	if !ok {
		return journeys.Stop{}, false
	}
	return s.stops[v.Index], true
}

// IsLastStop reports whether the current screen shows the final stop.
func (s *Session) IsLastStop() bool {
	v, ok := s.View().(AtStop)
	return ok && v.Index == len(s.stops)-1
}

// AdvanceLabel is the caption of the advance button on a stop screen.
func (s *Session) AdvanceLabel() string {
	if s.IsLastStop() {
		return "Finish"
	}
	return "Next"
}

// Begin leaves the welcome screen for the first stop.
// With no stops the reveal falls straight through to the summary.
func (s *Session) Begin() (View, error) {
	if _, ok := s.View().(Welcome); !ok {
		return s.view, ErrNoTransition
	}
	s.view = s.normalize(AtStop{Index: 0})
	return s.view, nil
}

// Next advances to the following stop, or to the summary after the last one.
func (s *Session) Next() (View, error) {
	v, ok := s.View().(AtStop)
	if !ok {
		return s.view, ErrNoTransition
	}
	s.view = s.normalize(AtStop{Index: v.Index + 1})
	return s.view, nil
}

// ContinueToPayment moves from the summary to the payment screen in preview mode.
// In final mode the summary is terminal.
func (s *Session) ContinueToPayment() (View, error) {
	if _, ok := s.View().(Summary); !ok || s.mode != ModePreview {
		return s.view, ErrNoTransition
	}
	s.view = Payment{}
	return s.view, nil
}

func (s *Session) normalize(v View) View {
	if at, ok := v.(AtStop); ok && at.Index >= len(s.stops) {
		return Summary{}
	}
	return v
}
