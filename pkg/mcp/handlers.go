package mcp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/payment"
	"github.com/unowned-ai/giftjourney/pkg/store"
)

// Deps are the collaborators shared by every tool handler.
type Deps struct {
	DB           *sql.DB
	Client       *journeys.Client
	ShareBase    string
	CheckoutURL  string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

type toolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// RegisterTools registers every giftjourney tool on s.
func RegisterTools(s *server.MCPServer, d Deps) {
	RegisterPingTool(s)
	RegisterCreateJourneyTool(s, d)
	RegisterGetJourneyTool(s, d)
	RegisterListSavedJourneysTool(s, d)
	RegisterAddStopTool(s, d)
	RegisterUpdateStopTool(s, d)
	RegisterCreateCheckoutSessionTool(s, d)
	RegisterCheckPaymentStatusTool(s, d)
	RegisterAwaitPaymentTool(s, d)
	RegisterGetShareLinkTool(s, d)
	RegisterListPublicJourneysTool(s, d)
}

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the Gift Journey MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_giftjourney"), nil
}

// RegisterCreateJourneyTool registers the create_journey tool.
func RegisterCreateJourneyTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("create_journey",
		mcp.WithDescription("Creates a new gift journey and remembers it locally."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the journey.")),
	)
	s.AddTool(tool, createJourneyHandler(d))
}

func createJourneyHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, ok := stringArg(request, "title")
		if !ok {
			return mcp.NewToolResultError("'title' parameter is required and must be a non-empty string."), nil
		}

		j, err := d.Client.CreateJourney(ctx, title)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create journey: %v", err)), nil
		}
		if _, err := store.SaveJourney(ctx, d.DB, j, d.Client.BaseURL()); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Journey %s created but not saved locally: %v", j.ID, err)), nil
		}
		return jsonResult(j, "journey")
	}
}

// RegisterGetJourneyTool registers the get_journey tool.
func RegisterGetJourneyTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("get_journey",
		mcp.WithDescription("Retrieves a journey with its stops in display order."),
		mcp.WithString("journey_id", mcp.Required(), mcp.Description("ID of the journey.")),
	)
	s.AddTool(tool, getJourneyHandler(d))
}

func getJourneyHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := stringArg(request, "journey_id")
		if !ok {
			return mcp.NewToolResultError("'journey_id' parameter is required."), nil
		}

		j, err := d.Client.GetJourney(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(journeys.LoadErrorMessage(err)), nil
		}
		j.Stops = journeys.SortStops(j.Stops)

		// Refresh the local record only for journeys this machine already knows.
		if _, err := store.GetJourney(ctx, d.DB, j.ID); err == nil {
			store.SaveJourney(ctx, d.DB, j, "")
		}
		return jsonResult(j, "journey")
	}
}

// RegisterListSavedJourneysTool registers the list_saved_journeys tool.
func RegisterListSavedJourneysTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("list_saved_journeys",
		mcp.WithDescription("Lists the journeys created from this machine, most recent first."),
	)
	s.AddTool(tool, listSavedJourneysHandler(d))
}

func listSavedJourneysHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := store.ListJourneys(ctx, d.DB)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list journeys: %v", err)), nil
		}
		if len(list) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(list, "journeys")
	}
}

// RegisterAddStopTool registers the add_stop tool.
func RegisterAddStopTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("add_stop",
		mcp.WithDescription("Appends a stop to a journey. Give exactly one of image_url or icon_name."),
		mcp.WithString("journey_id", mcp.Required(), mcp.Description("ID of the journey.")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the stop.")),
		mcp.WithString("note", mcp.Description("Optional note shown to the recipient.")),
		mcp.WithString("image_url", mcp.Description("Image shown at this stop.")),
		mcp.WithString("icon_name", mcp.Description("Icon shown at this stop, e.g. gift, cake, coffee.")),
		mcp.WithString("external_url", mcp.Description("Optional 'Learn more' link.")),
	)
	s.AddTool(tool, addStopHandler(d))
}

func addStopHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		journeyID, ok := stringArg(request, "journey_id")
		if !ok {
			return mcp.NewToolResultError("'journey_id' parameter is required."), nil
		}

		in := journeys.StopInput{}
		in.Title, _ = stringArg(request, "title")
		in.Note, _ = stringArg(request, "note")
		in.ExternalURL, _ = stringArg(request, "external_url")
		in.ImageURL, _ = stringArg(request, "image_url")
		in.IconName, _ = stringArg(request, "icon_name")
		if err := in.Validate(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid stop: %v", err)), nil
		}

		stop, err := d.Client.AddStop(ctx, journeyID, in)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add stop: %v", err)), nil
		}
		return jsonResult(stop, "stop")
	}
}

// RegisterUpdateStopTool registers the update_stop tool.
func RegisterUpdateStopTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("update_stop",
		mcp.WithDescription("Updates fields of a stop. Setting image_url clears the icon and vice versa."),
		mcp.WithString("stop_id", mcp.Required(), mcp.Description("ID of the stop.")),
		mcp.WithString("title", mcp.Description("New title.")),
		mcp.WithString("note", mcp.Description("New note; empty clears it.")),
		mcp.WithString("image_url", mcp.Description("New image URL.")),
		mcp.WithString("icon_name", mcp.Description("New icon name.")),
		mcp.WithString("external_url", mcp.Description("New 'Learn more' link; empty clears it.")),
		mcp.WithNumber("order", mcp.Description("New position of the stop.")),
	)
	s.AddTool(tool, updateStopHandler(d))
}

func updateStopHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stopID, ok := stringArg(request, "stop_id")
		if !ok {
			return mcp.NewToolResultError("'stop_id' parameter is required."), nil
		}

		patch := journeys.StopPatch{
			Title:       optionalStringArg(request, "title"),
			Note:        optionalStringArg(request, "note"),
			ImageURL:    optionalStringArg(request, "image_url"),
			IconName:    optionalStringArg(request, "icon_name"),
			ExternalURL: optionalStringArg(request, "external_url"),
		}
		if order, ok := request.Params.Arguments["order"].(float64); ok {
			o := int(order)
			patch.Order = &o
		}

		if patch.Empty() {
			return mcp.NewToolResultError("No update fields provided (use title, note, image_url, icon_name, external_url or order)."), nil
		}
		if err := patch.Validate(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid update: %v", err)), nil
		}

		stop, err := d.Client.UpdateStop(ctx, stopID, patch)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update stop '%s': %v", stopID, err)), nil
		}
		return jsonResult(stop, "stop")
	}
}

type checkoutResult struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// RegisterCreateCheckoutSessionTool registers the create_checkout_session tool.
func RegisterCreateCheckoutSessionTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("create_checkout_session",
		mcp.WithDescription("Starts payment for a journey and returns the checkout link to open."),
		mcp.WithString("journey_id", mcp.Required(), mcp.Description("ID of the journey to pay for.")),
	)
	s.AddTool(tool, createCheckoutSessionHandler(d))
}

func createCheckoutSessionHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		journeyID, ok := stringArg(request, "journey_id")
		if !ok {
			return mcp.NewToolResultError("'journey_id' parameter is required."), nil
		}

		j, err := d.Client.GetJourney(ctx, journeyID)
		if err != nil {
			return mcp.NewToolResultError(journeys.LoadErrorMessage(err)), nil
		}
		if j.Paid {
			msg := "Journey is already paid."
			if link, err := journeys.ShareURL(d.ShareBase, j); err == nil {
				msg += " Share link: " + link
			}
			return mcp.NewToolResultError(msg), nil
		}

		session, err := d.Client.CreateCheckoutSession(ctx, journeyID)
		if err != nil {
			return mcp.NewToolResultError(journeys.CheckoutErrorMessage(err)), nil
		}
		if _, err := store.RecordCheckout(ctx, d.DB, journeyID, session.ID); err != nil && !errors.Is(err, store.ErrJourneyNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Checkout %s started but not saved locally: %v", session.ID, err)), nil
		}

		link, _ := payment.CheckoutURL(session, d.CheckoutURL)
		return jsonResult(checkoutResult{SessionID: session.ID, CheckoutURL: link}, "checkout session")
	}
}

type paymentStatusResult struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
	ShareURL  string `json:"share_url,omitempty"`
}

// recordStatus keeps the registry in step with a status seen for a session.
func recordStatus(ctx context.Context, d Deps, sessionID, status string, j *journeys.Journey) {
	store.UpdateCheckoutStatus(ctx, d.DB, sessionID, status)
	if j != nil && (status == journeys.StatusComplete || j.Paid) {
		store.MarkJourneyPaid(ctx, d.DB, j.ID, j.ShareableToken)
	}
}

// RegisterCheckPaymentStatusTool registers the check_payment_status tool.
func RegisterCheckPaymentStatusTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("check_payment_status",
		mcp.WithDescription("Queries a checkout session once."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Checkout session ID.")),
	)
	s.AddTool(tool, checkPaymentStatusHandler(d))
}

func checkPaymentStatusHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, ok := stringArg(request, "session_id")
		if !ok {
			return mcp.NewToolResultError("'session_id' parameter is required."), nil
		}

		st, err := d.Client.GetCheckoutSession(ctx, sessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to check session '%s': %v", sessionID, err)), nil
		}
		recordStatus(ctx, d, sessionID, st.Status, st.Journey)

		out := paymentStatusResult{SessionID: sessionID, Status: st.Status}
		if st.Complete() && st.Journey != nil {
			out.ShareURL, _ = journeys.ShareURL(d.ShareBase, *st.Journey)
		}
		return jsonResult(out, "payment status")
	}
}

// RegisterAwaitPaymentTool registers the await_payment tool.
func RegisterAwaitPaymentTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("await_payment",
		mcp.WithDescription("Waits until a checkout session completes or the confirmation window passes."),
		mcp.WithString("session_id", mcp.Description("Checkout session ID.")),
		mcp.WithString("return_url", mcp.Description("Payment success URL carrying session_id; used when session_id is absent.")),
	)
	s.AddTool(tool, awaitPaymentHandler(d))
}

func awaitPaymentHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		poller := payment.NewPoller(d.Client,
			payment.WithInterval(d.PollInterval),
			payment.WithTimeout(d.PollTimeout),
		)

		var res payment.Result
		if sessionID, ok := stringArg(request, "session_id"); ok {
			res = poller.Await(ctx, sessionID)
		} else {
			returnURL, _ := stringArg(request, "return_url")
			res = poller.AwaitURL(ctx, returnURL)
		}

		switch res.State {
		case payment.StateError:
			return mcp.NewToolResultError(res.Message()), nil
		case payment.StateCanceled:
			return mcp.NewToolResultError("Waiting for payment was cancelled."), nil
		case payment.StateComplete:
			recordStatus(ctx, d, res.SessionID, journeys.StatusComplete, res.Journey)
		}

		out := paymentStatusResult{
			SessionID: res.SessionID,
			Status:    res.State.String(),
			Message:   res.Message(),
			Attempts:  res.Attempts,
		}
		if res.Journey != nil {
			out.ShareURL, _ = journeys.ShareURL(d.ShareBase, *res.Journey)
		}
		return jsonResult(out, "payment result")
	}
}

// RegisterGetShareLinkTool registers the get_share_link tool.
func RegisterGetShareLinkTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("get_share_link",
		mcp.WithDescription("Returns the recipient reveal link of a paid journey."),
		mcp.WithString("journey_id", mcp.Required(), mcp.Description("ID of the journey.")),
	)
	s.AddTool(tool, getShareLinkHandler(d))
}

func getShareLinkHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, ok := stringArg(request, "journey_id")
		if !ok {
			return mcp.NewToolResultError("'journey_id' parameter is required."), nil
		}

		j, err := d.Client.GetJourney(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(journeys.LoadErrorMessage(err)), nil
		}
		link, err := journeys.ShareURL(d.ShareBase, j)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Journey '%s' has no share link yet: complete payment first.", id)), nil
		}
		return mcp.NewToolResultText(link), nil
	}
}

// RegisterListPublicJourneysTool registers the list_public_journeys tool.
func RegisterListPublicJourneysTool(s *server.MCPServer, d Deps) {
	tool := mcp.NewTool("list_public_journeys",
		mcp.WithDescription("Lists published journeys from the explore page, or one of them by ID."),
		mcp.WithString("journey_id", mcp.Description("Optional ID of a single public journey.")),
	)
	s.AddTool(tool, listPublicJourneysHandler(d))
}

func listPublicJourneysHandler(d Deps) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if id, ok := stringArg(request, "journey_id"); ok {
			pj, err := d.Client.GetPublicJourney(ctx, id)
			if err != nil {
				return mcp.NewToolResultError(journeys.LoadErrorMessage(err)), nil
			}
			return jsonResult(pj, "public journey")
		}

		list, err := d.Client.ListPublicJourneys(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list public journeys: %v", err)), nil
		}
		if len(list) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(list, "public journeys")
	}
}
