package journeys

import "sort"

// SortStops returns a new slice holding stops in ascending Order.
// Stops sharing an Order value keep their input order. The input is not modified.
func SortStops(stops []Stop) []Stop {
	sorted := make([]Stop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// MediaKind names the visual representation of a stop.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaImage
	MediaIcon
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaIcon:
		return "icon"
	default:
		return "none"
	}
}

// Media is the content source picked for a stop.
type Media struct {
	Kind   MediaKind
	Source string
}

// MediaOf selects what to render for s: the image when present, else the icon, else nothing.
func MediaOf(s Stop) Media {
	switch {
	case s.ImageURL != "":
		return Media{Kind: MediaImage, Source: s.ImageURL}
	case s.IconName != "":
		return Media{Kind: MediaIcon, Source: s.IconName}
	default:
		return Media{Kind: MediaNone}
	}
}
