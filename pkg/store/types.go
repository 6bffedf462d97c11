package store

import (
	"github.com/google/uuid"
)

// SavedJourney is the local record of a journey this creator made.
type SavedJourney struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Paid           bool    `json:"paid"`
	ShareableToken string  `json:"shareable_token,omitempty"`
	StopCount      int     `json:"stop_count"`
	APIBase        string  `json:"api_base,omitempty"`
	CreatedAt      float64 `json:"created_at"`
	UpdatedAt      float64 `json:"updated_at"`
}

// Checkout is one checkout session started for a journey.
type Checkout struct {
	ID        uuid.UUID `json:"id"`
	JourneyID string    `json:"journey_id"`
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	CreatedAt float64   `json:"created_at"`
	UpdatedAt float64   `json:"updated_at"`
}

// StatusOpen is the status of a checkout nobody has confirmed yet.
const StatusOpen = "open"
