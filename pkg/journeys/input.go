package journeys

import (
	"errors"
	"strings"
)

var (
	ErrTitleRequired = errors.New("stop title is required")
	ErrMediaRequired = errors.New("an image URL or an icon is required")
	ErrMediaConflict = errors.New("a stop has either an image URL or an icon, not both")
)

// StopInput is the editable form state for creating or updating a stop.
// Image and icon are mutually exclusive: setting one clears the other.
type StopInput struct {
	Title       string `json:"title"`
	Note        string `json:"note,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	IconName    string `json:"icon_name,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

// SetImage selects an image source and drops any icon.
func (in *StopInput) SetImage(url string) {
	in.ImageURL = strings.TrimSpace(url)
	if in.ImageURL != "" {
		in.IconName = ""
	}
}

// SetIcon selects an icon and drops any image source.
func (in *StopInput) SetIcon(name string) {
	in.IconName = strings.TrimSpace(name)
	if in.IconName != "" {
		in.ImageURL = ""
	}
}

// Normalized trims every field.
func (in StopInput) Normalized() StopInput {
	return StopInput{
		Title:       strings.TrimSpace(in.Title),
		Note:        strings.TrimSpace(in.Note),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IconName:    strings.TrimSpace(in.IconName),
		ExternalURL: strings.TrimSpace(in.ExternalURL),
	}
}

// Validate checks the input the way the add-stop form does before submitting.
func (in StopInput) Validate() error {
	n := in.Normalized()
	if n.Title == "" {
		return ErrTitleRequired
	}
	if n.ImageURL != "" && n.IconName != "" {
		return ErrMediaConflict
	}
	if n.ImageURL == "" && n.IconName == "" {
		return ErrMediaRequired
	}
	return nil
}

// StopPatch carries the fields of a partial stop update. Nil fields are left unchanged.
type StopPatch struct {
	Title       *string `json:"title,omitempty"`
	Note        *string `json:"note,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	IconName    *string `json:"icon_name,omitempty"`
	ExternalURL *string `json:"external_url,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p StopPatch) Empty() bool {
	return p.Title == nil && p.Note == nil && p.ImageURL == nil &&
		p.IconName == nil && p.ExternalURL == nil && p.Order == nil
}

// Validate rejects patches that would set both media sources at once.
func (p StopPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.ImageURL != nil && p.IconName != nil &&
		strings.TrimSpace(*p.ImageURL) != "" && strings.TrimSpace(*p.IconName) != "" {
		return ErrMediaConflict
	}
	return nil
}
