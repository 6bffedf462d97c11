package journeys

import (
	"reflect"
	"testing"
)

func TestSortStops_AscendingByOrder(t *testing.T) {
	stops := []Stop{
		{ID: "b", Title: "Second", Order: 2},
		{ID: "a", Title: "First", Order: 1},
	}

	sorted := SortStops(stops)

	if len(sorted) != 2 {
		t.Fatalf("Expected 2 stops, got %d", len(sorted))
	}
	if sorted[0].ID != "a" || sorted[1].ID != "b" {
		t.Errorf("Expected display order a, b; got %s, %s", sorted[0].ID, sorted[1].ID)
	}
}

func TestSortStops_StableForEqualOrder(t *testing.T) {
	stops := []Stop{
		{ID: "x1", Order: 5},
		{ID: "y", Order: 1},
		{ID: "x2", Order: 5},
		{ID: "z", Order: -3},
		{ID: "x3", Order: 5},
		{ID: "y2", Order: 1},
	}

	sorted := SortStops(stops)

	var ids []string
	for _, s := range sorted {
		ids = append(ids, s.ID)
	}
	expected := []string{"z", "y", "y2", "x1", "x2", "x3"}
	if !reflect.DeepEqual(ids, expected) {
		t.Errorf("Expected %v, got %v", expected, ids)
	}
}

func TestSortStops_DoesNotMutateInput(t *testing.T) {
	stops := []Stop{
		{ID: "c", Order: 3},
		{ID: "a", Order: 1},
		{ID: "b", Order: 2},
	}
	original := append([]Stop(nil), stops...)

	sorted := SortStops(stops)

	if !reflect.DeepEqual(stops, original) {
		t.Errorf("Input was modified: %v", stops)
	}
	sorted[0].Title = "changed"
	if stops[1].Title == "changed" {
		t.Errorf("Output shares backing array with input")
	}
}

func TestSortStops_Empty(t *testing.T) {
	if got := SortStops(nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

func TestMediaOf(t *testing.T) {
	tests := []struct {
		name string
		stop Stop
		want Media
	}{
		{"image", Stop{Title: "t", ImageURL: "https://img/1.png"}, Media{Kind: MediaImage, Source: "https://img/1.png"}},
		{"icon", Stop{Title: "t", IconName: "Restaurant"}, Media{Kind: MediaIcon, Source: "Restaurant"}},
		{"image wins", Stop{Title: "t", ImageURL: "u", IconName: "Cake"}, Media{Kind: MediaImage, Source: "u"}},
		{"none", Stop{Title: "just text"}, Media{Kind: MediaNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MediaOf(tt.stop); got != tt.want {
				t.Errorf("MediaOf() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestJourneyWithStop_CopiesSequence(t *testing.T) {
	base := Journey{ID: "j1", Stops: make([]Stop, 1, 4)}
	base.Stops[0] = Stop{ID: "s1"}

	next := base.WithStop(Stop{ID: "s2"})
	other := base.WithStop(Stop{ID: "s3"})

	if len(base.Stops) != 1 {
		t.Errorf("Original journey changed, has %d stops", len(base.Stops))
	}
	if next.Stops[1].ID != "s2" || other.Stops[1].ID != "s3" {
		t.Errorf("Appends share storage: %v / %v", next.Stops, other.Stops)
	}
}

func TestJourneyWithUpdatedStop(t *testing.T) {
	base := Journey{Stops: []Stop{{ID: "s1", Title: "old"}, {ID: "s2", Title: "keep"}}}

	next := base.WithUpdatedStop(Stop{ID: "s1", Title: "new"})

	if base.Stops[0].Title != "old" {
		t.Errorf("Original journey changed")
	}
	if next.Stops[0].Title != "new" || next.Stops[1].Title != "keep" {
		t.Errorf("Unexpected stops after update: %v", next.Stops)
	}
}
