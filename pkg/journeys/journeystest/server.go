// Package journeystest provides an in-memory stand-in for the journeys API.
package journeystest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

// Route keys accepted by Calls and Fail.
const (
	RouteGetJourney      = "GET /journeys/:id"
	RouteCreateJourney   = "POST /journeys"
	RouteReveal          = "GET /reveal/:token"
	RouteAddStop         = "POST /journeys/:id/stops"
	RouteUpdateStop      = "PATCH /stops/:id"
	RouteCreateCheckout  = "POST /journeys/:id/create-checkout-session"
	RouteCheckoutSession = "GET /checkout-session/:id"
	RouteListPublic      = "GET /journeys/public"
	RouteGetPublic       = "GET /journeys/public/:id"
)

type failure struct {
	code int
	msg  string
}

// Server is a fake journeys API backed by maps. Safe for concurrent use.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	journeys     map[string]journeys.Journey
	tokens       map[string]string
	public       []journeys.PublicJourney
	statuses     map[string][]string
	sessions     map[string]string
	calls        map[string]int
	failures     map[string]failure
	checkoutBody map[string]any
	idemKeys     []string
	nextID       int
}

// NewServer starts a fake API. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		journeys: make(map[string]journeys.Journey),
		tokens:   make(map[string]string),
		statuses: make(map[string][]string),
		sessions: make(map[string]string),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
	}

	router := httprouter.New()
	// httprouter cannot mix a static "public" segment with ":id" in one tree,
	// so explore routes are dispatched from the journey routes.
	router.GET("/journeys/:id", s.handleGetJourney)
	router.GET("/journeys/:id/:sub", s.handleGetJourneySub)
	router.POST("/journeys", s.handleCreateJourney)
	router.POST("/journeys/:id/stops", s.handleAddStop)
	router.POST("/journeys/:id/create-checkout-session", s.handleCreateCheckout)
	router.PATCH("/stops/:id", s.handleUpdateStop)
	router.GET("/reveal/:token", s.handleReveal)
	router.GET("/checkout-session/:id", s.handleCheckoutSession)

	s.Server = httptest.NewServer(router)
	return s
}

// AddJourney stores j, indexing its shareable token when set.
func (s *Server) AddJourney(j journeys.Journey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journeys[j.ID] = j
	if j.ShareableToken != "" {
		s.tokens[j.ShareableToken] = j.ID
	}
}

// Journey returns the stored state of a journey.
func (s *Server) Journey(id string) (journeys.Journey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.journeys[id]
	return j, ok
}

// AddPublic appends explore entries.
func (s *Server) AddPublic(pj ...journeys.PublicJourney) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.public = append(s.public, pj...)
}

// SetStatuses scripts the answers of the status endpoint for sessionID.
// The last status repeats forever. Reaching "complete" marks the journey paid.
func (s *Server) SetStatuses(sessionID string, statuses ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[sessionID] = statuses
}

// SetCheckoutBody overrides the JSON body returned when a checkout session is created.
func (s *Server) SetCheckoutBody(body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkoutBody = body
}

// Fail makes every call to route answer with code and an {"error": msg} body.
func (s *Server) Fail(route string, code int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{code: code, msg: msg}
}

// Calls reports how many requests hit route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// IdempotencyKeys returns the keys seen on POST requests, in order.
func (s *Server) IdempotencyKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.idemKeys...)
}

// enter records the call and reports whether a scripted failure was written.
func (s *Server) enter(w http.ResponseWriter, r *http.Request, route string) bool {
	s.mu.Lock()
	s.calls[route]++
	if r.Method == http.MethodPost {
		s.idemKeys = append(s.idemKeys, r.Header.Get("Idempotency-Key"))
	}
	f, failing := s.failures[route]
	s.mu.Unlock()

	if failing {
		writeJSON(w, f.code, map[string]string{"error": f.msg})
	}
	return failing
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func (s *Server) handleGetJourney(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "public" {
		s.handleListPublic(w, r)
		return
	}
	if s.enter(w, r, RouteGetJourney) {
		return
	}
	s.mu.Lock()
	j, ok := s.journeys[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Journey not found"})
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleGetJourneySub(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") != "public" {
		http.NotFound(w, r)
		return
	}
	if s.enter(w, r, RouteGetPublic) {
		return
	}
	id := ps.ByName("sub")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pj := range s.public {
		if pj.ID == id {
			writeJSON(w, http.StatusOK, pj)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Journey not found"})
}

func (s *Server) handleListPublic(w http.ResponseWriter, r *http.Request) {
	if s.enter(w, r, RouteListPublic) {
		return
	}
	s.mu.Lock()
	list := append([]journeys.PublicJourney{}, s.public...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateJourney(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.enter(w, r, RouteCreateJourney) {
		return
	}
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Title is required"})
		return
	}
	s.mu.Lock()
	j := journeys.Journey{ID: s.newID("j"), Title: body.Title, Stops: []journeys.Stop{}}
	s.journeys[j.ID] = j
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, j)
}

func (s *Server) handleAddStop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.enter(w, r, RouteAddStop) {
		return
	}
	var in journeys.StopInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.journeys[ps.ByName("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Journey not found"})
		return
	}
	stop := journeys.Stop{
		ID:          s.newID("s"),
		JourneyID:   j.ID,
		Title:       in.Title,
		Note:        in.Note,
		ImageURL:    in.ImageURL,
		IconName:    in.IconName,
		ExternalURL: in.ExternalURL,
		Order:       len(j.Stops) + 1,
	}
	s.journeys[j.ID] = j.WithStop(stop)
	writeJSON(w, http.StatusCreated, stop)
}

func (s *Server) handleUpdateStop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.enter(w, r, RouteUpdateStop) {
		return
	}
	var patch journeys.StopPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	id := ps.ByName("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for jid, j := range s.journeys {
		for _, st := range j.Stops {
			if st.ID != id {
				continue
			}
			applyPatch(&st, patch)
			s.journeys[jid] = j.WithUpdatedStop(st)
			writeJSON(w, http.StatusOK, st)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Stop not found"})
}

func applyPatch(st *journeys.Stop, p journeys.StopPatch) {
	if p.Title != nil {
		st.Title = *p.Title
	}
	if p.Note != nil {
		st.Note = *p.Note
	}
	if p.ImageURL != nil {
		st.ImageURL = *p.ImageURL
	}
	if p.IconName != nil {
		st.IconName = *p.IconName
	}
	if p.ExternalURL != nil {
		st.ExternalURL = *p.ExternalURL
	}
	if p.Order != nil {
		st.Order = *p.Order
	}
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.enter(w, r, RouteCreateCheckout) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.journeys[ps.ByName("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Journey not found"})
		return
	}
	if s.checkoutBody != nil {
		writeJSON(w, http.StatusOK, s.checkoutBody)
		return
	}
	sid := s.newID("cs_test_")
	s.sessions[sid] = j.ID
	writeJSON(w, http.StatusOK, map[string]string{
		"sessionId": sid,
		"url":       "https://checkout.example.com/pay/" + sid,
	})
}

func (s *Server) handleCheckoutSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.enter(w, r, RouteCheckoutSession) {
		return
	}
	sid := ps.ByName("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	status := "open"
	if seq := s.statuses[sid]; len(seq) > 0 {
		status = seq[0]
		if len(seq) > 1 {
			s.statuses[sid] = seq[1:]
		}
	}

	resp := journeys.CheckoutStatus{Status: status}
	if status == journeys.StatusComplete {
		if jid, ok := s.sessions[sid]; ok {
			j := s.journeys[jid]
			if !j.Paid {
				j.Paid = true
				j.ShareableToken = "tok-" + jid
				s.journeys[jid] = j
				s.tokens[j.ShareableToken] = jid
			}
			resp.Journey = &j
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.enter(w, r, RouteReveal) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	jid, ok := s.tokens[ps.ByName("token")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Journey not found"})
		return
	}
	writeJSON(w, http.StatusOK, s.journeys[jid])
}

// BindSession associates an externally chosen session id with a journey.
func (s *Server) BindSession(sessionID, journeyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = journeyID
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
