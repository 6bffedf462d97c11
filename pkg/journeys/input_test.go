package journeys

import (
	"errors"
	"testing"
)

func TestStopInput_MediaIsExclusive(t *testing.T) {
	var in StopInput
	in.SetImage("https://example.com/a.png")
	in.SetIcon("Cake")

	if in.ImageURL != "" {
		t.Errorf("Expected image to be cleared when an icon is chosen, got %q", in.ImageURL)
	}
	if in.IconName != "Cake" {
		t.Errorf("Expected icon Cake, got %q", in.IconName)
	}

	in.SetImage("  https://example.com/b.png ")
	if in.IconName != "" {
		t.Errorf("Expected icon to be cleared when an image is chosen, got %q", in.IconName)
	}
	if in.ImageURL != "https://example.com/b.png" {
		t.Errorf("Expected trimmed image URL, got %q", in.ImageURL)
	}
}

func TestStopInput_SetEmptyKeepsOther(t *testing.T) {
	in := StopInput{IconName: "Park"}
	in.SetImage("   ")
	if in.IconName != "Park" {
		t.Errorf("Clearing the image field must not drop the icon, got %q", in.IconName)
	}
}

func TestStopInput_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   StopInput
		want error
	}{
		{"ok image", StopInput{Title: "Dinner", ImageURL: "u"}, nil},
		{"ok icon", StopInput{Title: "Dinner", IconName: "Restaurant"}, nil},
		{"missing title", StopInput{Title: "  ", ImageURL: "u"}, ErrTitleRequired},
		{"missing media", StopInput{Title: "Dinner"}, ErrMediaRequired},
		{"both media", StopInput{Title: "Dinner", ImageURL: "u", IconName: "Cake"}, ErrMediaConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStopPatch(t *testing.T) {
	if !(StopPatch{}).Empty() {
		t.Errorf("Zero patch should be empty")
	}
	img, icon, blank := "u", "Cake", " "
	if err := (StopPatch{ImageURL: &img, IconName: &icon}).Validate(); !errors.Is(err, ErrMediaConflict) {
		t.Errorf("Expected ErrMediaConflict, got %v", err)
	}
	if err := (StopPatch{Title: &blank}).Validate(); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("Expected ErrTitleRequired, got %v", err)
	}
}
