package journeys

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const defaultTimeout = 15 * time.Second

// Client talks to the gift-journey REST API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests to perSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient returns a client for the API rooted at baseURL (e.g. "https://example.com/api").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJourney loads a journey by id (creator view, preview mode).
func (c *Client) GetJourney(ctx context.Context, id string) (Journey, error) {
	if strings.TrimSpace(id) == "" {
		return Journey{}, ErrEmptyID
	}
	var j Journey
	if err := c.do(ctx, http.MethodGet, "/journeys/"+url.PathEscape(id), nil, &j); err != nil {
		return Journey{}, fmt.Errorf("failed to load journey %s: %w", id, err)
	}
	return j, nil
}

// GetRevealJourney loads a paid journey through its shareable token (recipient view, final mode).
func (c *Client) GetRevealJourney(ctx context.Context, token string) (Journey, error) {
	if strings.TrimSpace(token) == "" {
		return Journey{}, ErrEmptyID
	}
	var j Journey
	if err := c.do(ctx, http.MethodGet, "/reveal/"+url.PathEscape(token), nil, &j); err != nil {
		return Journey{}, fmt.Errorf("failed to load journey for token: %w", err)
	}
	return j, nil
}

// CreateJourney starts a new, empty journey.
func (c *Client) CreateJourney(ctx context.Context, title string) (Journey, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Journey{}, ErrTitleRequired
	}
	var j Journey
	body := map[string]string{"title": title}
	if err := c.do(ctx, http.MethodPost, "/journeys", body, &j); err != nil {
		return Journey{}, fmt.Errorf("failed to create journey: %w", err)
	}
	if j.ID == "" {
		return Journey{}, fmt.Errorf("failed to create journey: %w", ErrEmptyID)
	}
	return j, nil
}

// AddStop appends a stop to a journey and returns the stop as stored by the server.
func (c *Client) AddStop(ctx context.Context, journeyID string, in StopInput) (Stop, error) {
	if strings.TrimSpace(journeyID) == "" {
		return Stop{}, ErrEmptyID
	}
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return Stop{}, err
	}
	var s Stop
	if err := c.do(ctx, http.MethodPost, "/journeys/"+url.PathEscape(journeyID)+"/stops", in, &s); err != nil {
		return Stop{}, fmt.Errorf("failed to add stop: %w", err)
	}
	return s, nil
}

// UpdateStop applies a partial update. Choosing one media source clears the other.
func (c *Client) UpdateStop(ctx context.Context, stopID string, patch StopPatch) (Stop, error) {
	if strings.TrimSpace(stopID) == "" {
		return Stop{}, ErrEmptyID
	}
	if err := patch.Validate(); err != nil {
		return Stop{}, err
	}
	empty := ""
	if patch.ImageURL != nil && *patch.ImageURL != "" && patch.IconName == nil {
		patch.IconName = &empty
	}
	if patch.IconName != nil && *patch.IconName != "" && patch.ImageURL == nil {
		patch.ImageURL = &empty
	}
	var s Stop
	if err := c.do(ctx, http.MethodPatch, "/stops/"+url.PathEscape(stopID), patch, &s); err != nil {
		return Stop{}, fmt.Errorf("failed to update stop %s: %w", stopID, err)
	}
	return s, nil
}

// checkoutSessionResponse accepts every spelling the backend has used for the session id.
type checkoutSessionResponse struct {
	SessionID         string `json:"sessionId"`
	SessionIDSnake    string `json:"session_id"`
	ID                string `json:"id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	StripeSessionID   string `json:"stripeSessionId"`
	URL               string `json:"url"`
}

func (r checkoutSessionResponse) sessionID() string {
	for _, id := range []string{r.SessionID, r.SessionIDSnake, r.ID, r.CheckoutSessionID, r.StripeSessionID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// CreateCheckoutSession asks the API to open a payment attempt for the journey.
func (c *Client) CreateCheckoutSession(ctx context.Context, journeyID string) (CheckoutSession, error) {
	if strings.TrimSpace(journeyID) == "" {
		return CheckoutSession{}, ErrEmptyID
	}
	var resp checkoutSessionResponse
	if err := c.do(ctx, http.MethodPost, "/journeys/"+url.PathEscape(journeyID)+"/create-checkout-session", nil, &resp); err != nil {
		return CheckoutSession{}, fmt.Errorf("failed to create checkout session: %w", err)
	}
	id := resp.sessionID()
	if id == "" {
		return CheckoutSession{}, ErrNoSessionID
	}
	return CheckoutSession{ID: id, URL: resp.URL}, nil
}

// GetCheckoutSession queries the state of a checkout session once.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutStatus, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CheckoutStatus{}, ErrEmptyID
	}
	var st CheckoutStatus
	if err := c.do(ctx, http.MethodGet, "/checkout-session/"+url.PathEscape(sessionID), nil, &st); err != nil {
		return CheckoutStatus{}, fmt.Errorf("failed to query checkout session: %w", err)
	}
	return st, nil
}

// ListPublicJourneys returns the explore listing.
func (c *Client) ListPublicJourneys(ctx context.Context) ([]PublicJourney, error) {
	var list []PublicJourney
	if err := c.do(ctx, http.MethodGet, "/journeys/public", nil, &list); err != nil {
		return nil, fmt.Errorf("failed to load journeys: %w", err)
	}
	return list, nil
}

// GetPublicJourney returns one explore entry.
func (c *Client) GetPublicJourney(ctx context.Context, id string) (PublicJourney, error) {
	if strings.TrimSpace(id) == "" {
		return PublicJourney{}, ErrEmptyID
	}
	var pj PublicJourney
	if err := c.do(ctx, http.MethodGet, "/journeys/public/"+url.PathEscape(id), nil, &pj); err != nil {
		return PublicJourney{}, fmt.Errorf("failed to load journey: %w", err)
	}
	return pj, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb errorBody
		msg := ""
		if json.Unmarshal(raw, &eb) == nil {
			msg = eb.Error
			if msg == "" {
				msg = eb.Message
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
