package journeys

// Stop is one waypoint of a journey.
type Stop struct {
	ID          string `json:"id"`
	JourneyID   string `json:"journey_id,omitempty"`
	Title       string `json:"title"`
	Note        string `json:"note,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	IconName    string `json:"icon_name,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	Order       int    `json:"order"`
}

// Journey is a creator-authored ordered collection of stops.
// Stops are kept in server order; use SortStops for display order.
type Journey struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Stops          []Stop `json:"stops"`
	Paid           bool   `json:"paid"`
	ShareableToken string `json:"shareableToken,omitempty"`
}

// WithStop returns a copy of j whose stop sequence has s appended.
// The receiver's slice is never written to.
func (j Journey) WithStop(s Stop) Journey {
	stops := make([]Stop, 0, len(j.Stops)+1)
	stops = append(stops, j.Stops...)
	j.Stops = append(stops, s)
	return j
}

// WithUpdatedStop returns a copy of j with the stop sharing s.ID replaced.
func (j Journey) WithUpdatedStop(s Stop) Journey {
	stops := make([]Stop, len(j.Stops))
	copy(stops, j.Stops)
	for i := range stops {
		if stops[i].ID == s.ID {
			stops[i] = s
		}
	}
	j.Stops = stops
	return j
}

// PublicJourney is the explore-page summary of a published journey.
type PublicJourney struct {
	ID           string   `json:"id"`
	JourneyTitle string   `json:"journeyTitle"`
	HeroImageURL string   `json:"heroImageUrl"`
	Highlights   []string `json:"highlights"`
}

// CheckoutSession identifies one payment attempt at the processor.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url,omitempty"`
}

// StatusComplete is the checkout status reported once payment has settled.
const StatusComplete = "complete"

// CheckoutStatus is the processor state of a checkout session as relayed by the API.
type CheckoutStatus struct {
	Status  string   `json:"status"`
	Journey *Journey `json:"journey,omitempty"`
}

// Complete reports whether the session has settled.
func (s CheckoutStatus) Complete() bool {
	return s.Status == StatusComplete
}
