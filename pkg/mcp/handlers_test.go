package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/giftjourney/pkg/db"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/journeys/journeystest"
	"github.com/unowned-ai/giftjourney/pkg/store"
)

func setupDeps(t *testing.T) (Deps, *journeystest.Server) {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", false, "NORMAL")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	testDB.SetMaxOpenConns(1)
	if err := db.InitializeSchema(testDB, db.TargetSchemaVersion); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	srv := journeystest.NewServer()
	t.Cleanup(func() {
		srv.Close()
		testDB.Close()
	})

	return Deps{
		DB:           testDB,
		Client:       journeys.NewClient(srv.URL),
		ShareBase:    "https://gifts.example.com",
		CheckoutURL:  "https://checkout.example.com/c/{session_id}",
		PollInterval: 10 * time.Millisecond,
		PollTimeout:  time.Second,
	}, srv
}

func call(t *testing.T, h toolHandler, args map[string]interface{}) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("Handler returned a protocol error: %v", err)
	}
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("Handler returned no content")
	}
	var text string
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		text = c.Text
	case *mcp.TextContent:
		text = c.Text
	default:
		t.Fatalf("Unexpected content type %T", res.Content[0])
	}
	return text, res.IsError
}

func TestPing(t *testing.T) {
	text, isErr := call(t, pingHandler, nil)
	if isErr || text != "pong_giftjourney" {
		t.Errorf("Unexpected ping answer %q (error=%v)", text, isErr)
	}
}

func TestCreateJourney_SavesLocally(t *testing.T) {
	d, srv := setupDeps(t)

	text, isErr := call(t, createJourneyHandler(d), map[string]interface{}{"title": "  Anniversary  "})
	if isErr {
		t.Fatalf("create_journey failed: %s", text)
	}
	var j journeys.Journey
	if err := json.Unmarshal([]byte(text), &j); err != nil {
		t.Fatalf("Failed to decode journey: %v", err)
	}
	if j.Title != "Anniversary" {
		t.Errorf("Expected trimmed title, got %q", j.Title)
	}
	if _, ok := srv.Journey(j.ID); !ok {
		t.Errorf("Journey %s was not created on the API", j.ID)
	}

	saved, err := store.GetJourney(context.Background(), d.DB, j.ID)
	if err != nil {
		t.Fatalf("Journey was not saved locally: %v", err)
	}
	if saved.APIBase != srv.URL {
		t.Errorf("Expected api base %q, got %q", srv.URL, saved.APIBase)
	}
}

func TestCreateJourney_MissingTitle(t *testing.T) {
	d, srv := setupDeps(t)

	for _, args := range []map[string]interface{}{{}, {"title": "   "}, {"title": 42.0}} {
		if _, isErr := call(t, createJourneyHandler(d), args); !isErr {
			t.Errorf("Expected an error result for %v", args)
		}
	}
	if srv.Calls(journeystest.RouteCreateJourney) != 0 {
		t.Errorf("No request should reach the API without a title")
	}
}

func TestGetJourney_SortsStops(t *testing.T) {
	d, srv := setupDeps(t)
	srv.AddJourney(journeys.Journey{ID: "j1", Title: "Trail", Stops: []journeys.Stop{
		{ID: "s2", Title: "Second", Order: 2},
		{ID: "s1", Title: "First", Order: 1},
	}})

	text, isErr := call(t, getJourneyHandler(d), map[string]interface{}{"journey_id": "j1"})
	if isErr {
		t.Fatalf("get_journey failed: %s", text)
	}
	var j journeys.Journey
	if err := json.Unmarshal([]byte(text), &j); err != nil {
		t.Fatalf("Failed to decode journey: %v", err)
	}
	if len(j.Stops) != 2 || j.Stops[0].ID != "s1" {
		t.Errorf("Expected stops in display order, got %+v", j.Stops)
	}

	if _, err := store.GetJourney(context.Background(), d.DB, "j1"); err == nil {
		t.Errorf("Reading a journey must not add it to the local list")
	}
}

func TestGetJourney_NotFound(t *testing.T) {
	d, _ := setupDeps(t)

	text, isErr := call(t, getJourneyHandler(d), map[string]interface{}{"journey_id": "missing"})
	if !isErr {
		t.Fatalf("Expected an error result, got %s", text)
	}
	if text != "Journey not found" {
		t.Errorf("Unexpected message %q", text)
	}
}

func TestListSavedJourneys(t *testing.T) {
	d, _ := setupDeps(t)
	ctx := context.Background()

	text, isErr := call(t, listSavedJourneysHandler(d), nil)
	if isErr || text != "[]" {
		t.Fatalf("Expected an empty list, got %q", text)
	}

	if _, err := store.SaveJourney(ctx, d.DB, journeys.Journey{ID: "j1", Title: "One"}, ""); err != nil {
		t.Fatalf("SaveJourney failed: %v", err)
	}
	text, isErr = call(t, listSavedJourneysHandler(d), nil)
	if isErr {
		t.Fatalf("list_saved_journeys failed: %s", text)
	}
	var list []store.SavedJourney
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "j1" {
		t.Errorf("Unexpected list %+v", list)
	}
}

func TestAddStop_ValidatesMedia(t *testing.T) {
	d, srv := setupDeps(t)
	srv.AddJourney(journeys.Journey{ID: "j1", Title: "Trail"})

	text, isErr := call(t, addStopHandler(d), map[string]interface{}{
		"journey_id": "j1",
		"title":      "Cafe",
		"image_url":  "https://img.example.com/a.png",
		"icon_name":  "coffee",
	})
	if !isErr || !strings.Contains(text, journeys.ErrMediaConflict.Error()) {
		t.Errorf("Expected a media conflict, got %q", text)
	}
	if srv.Calls(journeystest.RouteAddStop) != 0 {
		t.Errorf("Invalid stops must not reach the API")
	}

	text, isErr = call(t, addStopHandler(d), map[string]interface{}{
		"journey_id": "j1",
		"title":      "Cafe",
		"icon_name":  "coffee",
	})
	if isErr {
		t.Fatalf("add_stop failed: %s", text)
	}
	var stop journeys.Stop
	if err := json.Unmarshal([]byte(text), &stop); err != nil {
		t.Fatalf("Failed to decode stop: %v", err)
	}
	if stop.IconName != "coffee" || stop.Order != 1 {
		t.Errorf("Unexpected stop %+v", stop)
	}
}

func TestUpdateStop(t *testing.T) {
	d, srv := setupDeps(t)
	srv.AddJourney(journeys.Journey{ID: "j1", Stops: []journeys.Stop{
		{ID: "s1", Title: "Old", IconName: "gift", Order: 1},
	}})

	if text, isErr := call(t, updateStopHandler(d), map[string]interface{}{"stop_id": "s1"}); !isErr {
		t.Errorf("An empty patch must be rejected, got %q", text)
	}

	text, isErr := call(t, updateStopHandler(d), map[string]interface{}{
		"stop_id": "s1",
		"title":   "New",
		"note":    "",
		"order":   3.0,
	})
	if isErr {
		t.Fatalf("update_stop failed: %s", text)
	}
	var stop journeys.Stop
	if err := json.Unmarshal([]byte(text), &stop); err != nil {
		t.Fatalf("Failed to decode stop: %v", err)
	}
	if stop.Title != "New" || stop.Order != 3 || stop.IconName != "gift" {
		t.Errorf("Unexpected stop after update %+v", stop)
	}
}

func TestCheckoutAndAwaitPayment(t *testing.T) {
	d, srv := setupDeps(t)
	ctx := context.Background()
	srv.AddJourney(journeys.Journey{ID: "j1", Title: "Trail"})
	if _, err := store.SaveJourney(ctx, d.DB, journeys.Journey{ID: "j1", Title: "Trail"}, ""); err != nil {
		t.Fatalf("SaveJourney failed: %v", err)
	}

	text, isErr := call(t, createCheckoutSessionHandler(d), map[string]interface{}{"journey_id": "j1"})
	if isErr {
		t.Fatalf("create_checkout_session failed: %s", text)
	}
	var co checkoutResult
	if err := json.Unmarshal([]byte(text), &co); err != nil {
		t.Fatalf("Failed to decode checkout: %v", err)
	}
	if co.SessionID == "" || co.CheckoutURL != "https://checkout.example.com/pay/"+co.SessionID {
		t.Errorf("Unexpected checkout %+v", co)
	}
	if c, err := store.GetCheckout(ctx, d.DB, co.SessionID); err != nil || c.Status != store.StatusOpen {
		t.Errorf("Expected an open local checkout, got %+v (%v)", c, err)
	}

	srv.SetStatuses(co.SessionID, "open", journeys.StatusComplete)
	text, isErr = call(t, awaitPaymentHandler(d), map[string]interface{}{"session_id": co.SessionID})
	if isErr {
		t.Fatalf("await_payment failed: %s", text)
	}
	var res paymentStatusResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if res.Status != "complete" || res.Attempts != 2 {
		t.Errorf("Unexpected result %+v", res)
	}
	if res.ShareURL != "https://gifts.example.com/reveal/tok-j1" {
		t.Errorf("Unexpected share url %q", res.ShareURL)
	}

	c, err := store.GetCheckout(ctx, d.DB, co.SessionID)
	if err != nil || c.Status != journeys.StatusComplete {
		t.Errorf("Expected a complete local checkout, got %+v (%v)", c, err)
	}
	saved, err := store.GetJourney(ctx, d.DB, "j1")
	if err != nil || !saved.Paid || saved.ShareableToken != "tok-j1" {
		t.Errorf("Expected the saved journey to be paid, got %+v (%v)", saved, err)
	}
}

func TestCreateCheckoutSession_ServerError(t *testing.T) {
	d, srv := setupDeps(t)
	srv.AddJourney(journeys.Journey{ID: "j1"})
	srv.Fail(journeystest.RouteCreateCheckout, 400, "Journey has no stops")

	text, isErr := call(t, createCheckoutSessionHandler(d), map[string]interface{}{"journey_id": "j1"})
	if !isErr || text != "Journey has no stops" {
		t.Errorf("Expected the server message, got %q (error=%v)", text, isErr)
	}
}

func TestCreateCheckoutSession_PaidJourney(t *testing.T) {
	d, srv := setupDeps(t)
	srv.AddJourney(journeys.Journey{ID: "j1", Title: "Trail", Paid: true, ShareableToken: "tok-j1"})

	text, isErr := call(t, createCheckoutSessionHandler(d), map[string]interface{}{"journey_id": "j1"})
	if !isErr || !strings.Contains(text, "already paid") || !strings.Contains(text, "https://gifts.example.com/reveal/tok-j1") {
		t.Errorf("Expected a refusal with the share link, got %q (error=%v)", text, isErr)
	}
	if srv.Calls(journeystest.RouteCreateCheckout) != 0 {
		t.Errorf("A paid journey must not get another checkout session")
	}
}

func TestCheckPaymentStatus(t *testing.T) {
	d, srv := setupDeps(t)
	srv.AddJourney(journeys.Journey{ID: "j1"})
	srv.BindSession("cs_1", "j1")
	srv.SetStatuses("cs_1", "open")

	text, isErr := call(t, checkPaymentStatusHandler(d), map[string]interface{}{"session_id": "cs_1"})
	if isErr {
		t.Fatalf("check_payment_status failed: %s", text)
	}
	var res paymentStatusResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if res.Status != "open" || res.ShareURL != "" {
		t.Errorf("Unexpected status %+v", res)
	}
}

func TestAwaitPayment_ReturnURLWithoutSession(t *testing.T) {
	d, srv := setupDeps(t)

	text, isErr := call(t, awaitPaymentHandler(d), map[string]interface{}{
		"return_url": "https://gifts.example.com/payment-success/j1",
	})
	if !isErr || text != "Payment session ID not found in URL" {
		t.Errorf("Unexpected answer %q (error=%v)", text, isErr)
	}
	if srv.Calls(journeystest.RouteCheckoutSession) != 0 {
		t.Errorf("No status query may be issued without a session id")
	}
}

func TestGetShareLink(t *testing.T) {
	d, srv := setupDeps(t)
	srv.AddJourney(journeys.Journey{ID: "unpaid"})
	srv.AddJourney(journeys.Journey{ID: "paid", Paid: true, ShareableToken: "abc"})

	if text, isErr := call(t, getShareLinkHandler(d), map[string]interface{}{"journey_id": "unpaid"}); !isErr {
		t.Errorf("Unpaid journeys have no link, got %q", text)
	}
	text, isErr := call(t, getShareLinkHandler(d), map[string]interface{}{"journey_id": "paid"})
	if isErr || text != "https://gifts.example.com/reveal/abc" {
		t.Errorf("Unexpected link %q (error=%v)", text, isErr)
	}
}

func TestListPublicJourneys(t *testing.T) {
	d, srv := setupDeps(t)

	text, isErr := call(t, listPublicJourneysHandler(d), nil)
	if isErr || text != "[]" {
		t.Fatalf("Expected an empty list, got %q", text)
	}

	srv.AddPublic(journeys.PublicJourney{ID: "p1", JourneyTitle: "Paris"})
	text, isErr = call(t, listPublicJourneysHandler(d), map[string]interface{}{"journey_id": "p1"})
	if isErr {
		t.Fatalf("list_public_journeys failed: %s", text)
	}
	var pj journeys.PublicJourney
	if err := json.Unmarshal([]byte(text), &pj); err != nil {
		t.Fatalf("Failed to decode public journey: %v", err)
	}
	if pj.JourneyTitle != "Paris" {
		t.Errorf("Unexpected public journey %+v", pj)
	}
}
