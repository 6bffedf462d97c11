package tui

import (
	"context"
	"database/sql"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/payment"
	"github.com/unowned-ai/giftjourney/pkg/store"
)

type journeyLoadedMsg struct {
	journey journeys.Journey
}

type loadFailedMsg struct {
	err error
}

type checkoutStartedMsg struct {
	session journeys.CheckoutSession
	link    string
}

type checkoutFailedMsg struct {
	err error
}

type paymentResultMsg struct {
	result payment.Result
}

type savedJourneysMsg []store.SavedJourney

type journeyDetailsMsg struct {
	journey journeys.Journey
}

type journeyCreatedMsg struct {
	journey journeys.Journey
}

type stopAddedMsg struct {
	journeyID string
	stop      journeys.Stop
}

type studioErrMsg struct {
	err error
}

// Load a journey for preview (by id) or for the recipient (by token)
func loadJourney(ctx context.Context, client *journeys.Client, mode revealSource) tea.Cmd {
	return func() tea.Msg {
		var (
			j   journeys.Journey
			err error
		)
		if mode.token != "" {
			j, err = client.GetRevealJourney(ctx, mode.token)
		} else {
			j, err = client.GetJourney(ctx, mode.journeyID)
		}
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return journeyLoadedMsg{journey: j}
	}
}

// Create a checkout session, remember it and hand the payer off
func startCheckout(ctx context.Context, client *journeys.Client, db *sql.DB, redirector payment.Redirector, template, journeyID string) tea.Cmd {
	return func() tea.Msg {
		session, err := client.CreateCheckoutSession(ctx, journeyID)
		if err != nil {
			return checkoutFailedMsg{err: err}
		}
		if db != nil {
			if _, err := store.RecordCheckout(ctx, db, journeyID, session.ID); err != nil && !errors.Is(err, store.ErrJourneyNotFound) {
				return checkoutFailedMsg{err: err}
			}
		}
		if redirector != nil {
			if err := redirector.Redirect(ctx, session); err != nil {
				return checkoutFailedMsg{err: err}
			}
		}
		link, _ := payment.CheckoutURL(session, template)
		return checkoutStartedMsg{session: session, link: link}
	}
}

// Block on the poller until the session resolves or ctx is cancelled
func awaitPayment(ctx context.Context, poller *payment.Poller, db *sql.DB, sessionID string) tea.Cmd {
	return func() tea.Msg {
		res := poller.Await(ctx, sessionID)
		recordPaymentResult(db, res)
		return paymentResultMsg{result: res}
	}
}

func awaitPaymentURL(ctx context.Context, poller *payment.Poller, db *sql.DB, rawURL string) tea.Cmd {
	return func() tea.Msg {
		res := poller.AwaitURL(ctx, rawURL)
		recordPaymentResult(db, res)
		return paymentResultMsg{result: res}
	}
}

// recordPaymentResult stores a completed payment in the registry when one is open.
// The registry is a convenience; failures here never change the outcome.
func recordPaymentResult(db *sql.DB, res payment.Result) {
	if db == nil || res.State != payment.StateComplete {
		return
	}
	ctx := context.Background()
	_, _ = store.UpdateCheckoutStatus(ctx, db, res.SessionID, journeys.StatusComplete)
	if res.Journey != nil {
		_, _ = store.MarkJourneyPaid(ctx, db, res.Journey.ID, res.Journey.ShareableToken)
	}
}

// List journeys from the local registry and return tea data
func listSavedJourneys(db *sql.DB) tea.Cmd {
	return func() tea.Msg {
		list, err := store.ListJourneys(context.Background(), db)
		if err != nil {
			return studioErrMsg{err: err}
		}
		return savedJourneysMsg(list)
	}
}

// Fetch the full journey with its stops from the API and refresh its registry record
func fetchJourneyDetails(client *journeys.Client, db *sql.DB, id string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		j, err := client.GetJourney(ctx, id)
		if err != nil {
			return studioErrMsg{err: err}
		}
		if _, err := store.SaveJourney(ctx, db, j, ""); err != nil {
			return studioErrMsg{err: err}
		}
		return journeyDetailsMsg{journey: j}
	}
}

func createJourney(client *journeys.Client, db *sql.DB, title string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		j, err := client.CreateJourney(ctx, title)
		if err != nil {
			return studioErrMsg{err: err}
		}
		if _, err := store.SaveJourney(ctx, db, j, client.BaseURL()); err != nil {
			return studioErrMsg{err: err}
		}
		return journeyCreatedMsg{journey: j}
	}
}

func addStop(client *journeys.Client, db *sql.DB, j journeys.Journey, in journeys.StopInput) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		stop, err := client.AddStop(ctx, j.ID, in)
		if err != nil {
			return studioErrMsg{err: err}
		}
		if _, err := store.SaveJourney(ctx, db, j.WithStop(stop), ""); err != nil {
			return studioErrMsg{err: err}
		}
		return stopAddedMsg{journeyID: j.ID, stop: stop}
	}
}

// Get database name and file path
func getDbPragmaList(db *sql.DB) (string, string) {
	var name, file string
	// An unreadable list leaves both empty, which the studio shows as no registry.
	_ = db.QueryRow(`PRAGMA database_list`).Scan(new(int), &name, &file)
	return name, file
}
