package reveal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

func journeyWithStops(n int) journeys.Journey {
	j := journeys.Journey{ID: "j1", Title: "Test Journey"}
	// Orders run backwards so display order differs from server order.
	for i := 0; i < n; i++ {
		j.Stops = append(j.Stops, journeys.Stop{
			ID:    fmt.Sprintf("s%d", n-i),
			Title: fmt.Sprintf("Stop %d", n-i),
			Order: n - i,
		})
	}
	return j
}

func TestNewSession_StartsOnWelcome(t *testing.T) {
	s := NewSession(journeyWithStops(3), ModePreview)

	if _, ok := s.View().(Welcome); !ok {
		t.Fatalf("Expected welcome view, got %v", s.View())
	}
	if s.StopIndex() != 0 {
		t.Errorf("Expected stop index 0, got %d", s.StopIndex())
	}
	if _, ok := s.CurrentStop(); ok {
		t.Errorf("No stop should be current on the welcome screen")
	}
}

func TestBegin_GoesToFirstStop(t *testing.T) {
	for _, n := range []int{1, 2, 7} {
		s := NewSession(journeyWithStops(n), ModeFinal)

		v, err := s.Begin()
		if err != nil {
			t.Fatalf("Begin failed for %d stops: %v", n, err)
		}
		if v != (AtStop{Index: 0}) {
			t.Errorf("Expected journey[0] for %d stops, got %v", n, v)
		}
		stop, ok := s.CurrentStop()
		if !ok || stop.ID != "s1" {
			t.Errorf("Expected the stop with the lowest order first, got %+v", stop)
		}
	}
}

func TestBegin_NoStopsFallsThroughToSummary(t *testing.T) {
	s := NewSession(journeyWithStops(0), ModePreview)

	v, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, ok := v.(Summary); !ok {
		t.Errorf("Expected summary for an empty journey, got %v", v)
	}
	if s.StopIndex() != 0 || s.StopCount() != 0 {
		t.Errorf("Expected cursor 0 of 0, got %d of %d", s.StopIndex(), s.StopCount())
	}
}

func TestBegin_OnlyOnce(t *testing.T) {
	s := NewSession(journeyWithStops(2), ModePreview)
	if _, err := s.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := s.Begin(); !errors.Is(err, ErrNoTransition) {
		t.Errorf("Second Begin should be rejected, got %v", err)
	}
	if s.View() != (AtStop{Index: 0}) {
		t.Errorf("Rejected action must not move the view, got %v", s.View())
	}
}

func TestNext_NTimesReachesSummary(t *testing.T) {
	for n := 1; n <= 6; n++ {
		s := NewSession(journeyWithStops(n), ModeFinal)
		if _, err := s.Begin(); err != nil {
			t.Fatalf("Begin failed: %v", err)
		}

		for i := 0; i < n-1; i++ {
			if _, err := s.Next(); err != nil {
				t.Fatalf("Next #%d failed: %v", i, err)
			}
		}
		if v := s.View(); v != (AtStop{Index: n - 1}) {
			t.Errorf("After %d Next calls expected journey[%d], got %v", n-1, n-1, v)
		}
		if s.AdvanceLabel() != "Finish" {
			t.Errorf("Expected Finish on the last stop, got %s", s.AdvanceLabel())
		}

		v, err := s.Next()
		if err != nil {
			t.Fatalf("Final Next failed: %v", err)
		}
		if _, ok := v.(Summary); !ok {
			t.Errorf("After %d Next calls expected summary, got %v", n, v)
		}
		if s.StopIndex() != n {
			t.Errorf("Expected cursor past the end (%d), got %d", n, s.StopIndex())
		}
	}
}

func TestAdvanceLabel_NextBeforeLast(t *testing.T) {
	s := NewSession(journeyWithStops(3), ModePreview)
	s.Begin()
	if s.AdvanceLabel() != "Next" {
		t.Errorf("Expected Next on the first of three stops, got %s", s.AdvanceLabel())
	}
}

func TestSummary_TerminalInFinalMode(t *testing.T) {
	s := NewSession(journeyWithStops(1), ModeFinal)
	s.Begin()
	s.Next()

	actions := map[string]func() (View, error){
		"begin":   s.Begin,
		"next":    s.Next,
		"payment": s.ContinueToPayment,
	}
	for name, act := range actions {
		if _, err := act(); !errors.Is(err, ErrNoTransition) {
			t.Errorf("%s: expected ErrNoTransition, got %v", name, err)
		}
		if _, ok := s.View().(Summary); !ok {
			t.Errorf("%s moved the final summary to %v", name, s.View())
		}
	}
}

func TestSummary_ContinueToPaymentInPreview(t *testing.T) {
	s := NewSession(journeyWithStops(2), ModePreview)
	s.Begin()
	s.Next()
	s.Next()

	v, err := s.ContinueToPayment()
	if err != nil {
		t.Fatalf("ContinueToPayment failed: %v", err)
	}
	if _, ok := v.(Payment); !ok {
		t.Fatalf("Expected payment view, got %v", v)
	}

	if _, err := s.ContinueToPayment(); !errors.Is(err, ErrNoTransition) {
		t.Errorf("A second click must not transition again, got %v", err)
	}
	if _, ok := s.View().(Payment); !ok {
		t.Errorf("Expected to stay on payment, got %v", s.View())
	}
}

func TestContinueToPayment_OnlyFromSummary(t *testing.T) {
	s := NewSession(journeyWithStops(2), ModePreview)
	if _, err := s.ContinueToPayment(); !errors.Is(err, ErrNoTransition) {
		t.Errorf("Expected ErrNoTransition from welcome, got %v", err)
	}
	s.Begin()
	if _, err := s.ContinueToPayment(); !errors.Is(err, ErrNoTransition) {
		t.Errorf("Expected ErrNoTransition from a stop, got %v", err)
	}
}

func TestStopWithoutMediaHasNoCurrentMedia(t *testing.T) {
	j := journeys.Journey{Stops: []journeys.Stop{{ID: "s1", Title: "Only words", Note: "a note", Order: 1}}}
	s := NewSession(j, ModeFinal)
	s.Begin()

	stop, ok := s.CurrentStop()
	if !ok {
		t.Fatalf("Expected a current stop")
	}
	if m := journeys.MediaOf(stop); m.Kind != journeys.MediaNone {
		t.Errorf("Expected no media, got %+v", m)
	}
}

func TestStops_ReturnsDisplayOrderCopy(t *testing.T) {
	j := journeyWithStops(3)
	s := NewSession(j, ModePreview)

	stops := s.Stops()
	if stops[0].Order != 1 || stops[2].Order != 3 {
		t.Errorf("Expected ascending order, got %v", stops)
	}
	stops[0].Title = "mutated"
	if again := s.Stops(); again[0].Title == "mutated" {
		t.Errorf("Stops must return a copy")
	}
	if j.Stops[0].Order != 3 {
		t.Errorf("Journey stops were re-ordered in place")
	}
}
