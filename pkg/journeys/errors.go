package journeys

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoSessionID  = errors.New("no session ID found in server response")
	ErrNotShareable = errors.New("journey is not paid yet, no shareable link")
	ErrEmptyID      = errors.New("identifier is required")
)

// APIError is a non-2xx answer from the journeys API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("journeys API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("journeys API returned status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// NetworkError wraps transport failures: the request never got an answer.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// CheckoutErrorMessage turns a checkout-initiation failure into the text shown next to the payment button.
func CheckoutErrorMessage(err error) string {
	const fallback = "Failed to process payment. Please try again."
	if err == nil {
		return ""
	}

	var apiErr *APIError
	var netErr *NetworkError
	switch {
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return "Payment endpoint not found. Please contact support."
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return "Server error. Please try again later."
		case apiErr.Message != "":
			return apiErr.Message
		}
		return fallback
	case errors.As(err, &netErr):
		return "Network error. Please check your connection."
	case errors.Is(err, ErrNoSessionID):
		return "Invalid payment session. Please try again."
	}
	return err.Error()
}

// LoadErrorMessage turns a journey load failure into the text of the error screen.
func LoadErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrEmptyID):
		return "No journey ID provided"
	case errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.StatusCode < http.StatusInternalServerError:
		return apiErr.Message
	}
	return "Failed to load journey."
}
