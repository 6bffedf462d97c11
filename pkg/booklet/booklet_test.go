package booklet

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

func paidJourney() journeys.Journey {
	return journeys.Journey{
		ID:             "j1",
		Title:          "Café crawl",
		Paid:           true,
		ShareableToken: "tok",
		Stops: []journeys.Stop{
			{ID: "s2", Title: "Dessert", IconName: "cake", Order: 2},
			{ID: "s1", Title: "Coffee", Note: "Start here.", ImageURL: "https://img.example.com/c.jpg", ExternalURL: "https://cafe.example.com", Order: 1},
			{ID: "s3", Title: "Walk home", Order: 3},
		},
	}
}

func TestWrite_ProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, paidJourney(), "https://gifts.example.com/reveal/tok"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("Output is not a PDF: %q", out[:min(len(out), 16)])
	}
	if !bytes.Contains(out, []byte("/Count 4")) {
		t.Errorf("Expected a title page plus one page per stop")
	}
	if !bytes.Contains(out, []byte("https://cafe.example.com")) {
		t.Errorf("Expected the Learn more link to be embedded")
	}
}

func TestWrite_RefusesUnpaid(t *testing.T) {
	j := paidJourney()
	j.Paid = false

	var buf bytes.Buffer
	if err := Write(&buf, j, "https://gifts.example.com/reveal/tok"); !errors.Is(err, journeys.ErrNotShareable) {
		t.Errorf("Expected ErrNotShareable, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Nothing may be written for an unpaid journey")
	}
}

func TestTerminalQR(t *testing.T) {
	out, err := TerminalQR("https://gifts.example.com/reveal/tok")
	if err != nil {
		t.Fatalf("TerminalQR failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("QR code suspiciously small: %d rows", len(lines))
	}
	width := utf8.RuneCountInString(lines[0])
	for i, l := range lines {
		if utf8.RuneCountInString(l) != width {
			t.Errorf("Row %d has width %d, want %d", i, utf8.RuneCountInString(l), width)
		}
	}
	// Two modules per row.
	if want := (width + 1) / 2; len(lines) != want {
		t.Errorf("Expected %d rows for a %d-module code, got %d", want, width, len(lines))
	}
}
