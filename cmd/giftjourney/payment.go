package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/giftjourney/pkg/booklet"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/payment"
	"github.com/unowned-ai/giftjourney/pkg/store"
	"github.com/unowned-ai/giftjourney/pkg/tui"
)

var (
	waitFlag      bool
	sessionIDFlag string
	returnURLFlag string
	noTUIFlag     bool
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Pay for journeys",
}

var checkoutStartCmd = &cobra.Command{
	Use:   "start [journey id]",
	Short: "Start payment for a journey",
	Long: `Creates a checkout session for the journey and prints the hosted checkout link
with a QR code. With --wait the command then waits for the payment to be confirmed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		journeyID := args[0]

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		client := newClient()
		j, err := client.GetJourney(cmd.Context(), journeyID)
		if err != nil {
			return errors.New(journeys.LoadErrorMessage(err))
		}
		if j.Paid {
			if link, err := journeys.ShareURL(cfg.Share.BaseURL, j); err == nil {
				fmt.Printf("Journey is already paid. Share link: %s\n", link)
				return nil
			}
			return errors.New("journey is already paid")
		}

		session, err := client.CreateCheckoutSession(cmd.Context(), journeyID)
		if err != nil {
			return errors.New(journeys.CheckoutErrorMessage(err))
		}
		if _, err := store.RecordCheckout(cmd.Context(), dbConn, journeyID, session.ID); err != nil && !errors.Is(err, store.ErrJourneyNotFound) {
			fmt.Fprintf(os.Stderr, "Warning: checkout %s not recorded locally: %v\n", session.ID, err)
		}

		redirector := payment.TerminalRedirector{
			Out:      os.Stdout,
			Template: cfg.Payment.CheckoutURL,
			QR:       booklet.TerminalQR,
		}
		if err := redirector.Redirect(cmd.Context(), session); err != nil {
			return errors.New(journeys.CheckoutErrorMessage(err))
		}
		fmt.Printf("Checkout session: %s\n", session.ID)

		if !waitFlag {
			fmt.Printf("Run 'giftjourney payment await --session %s' once you have paid.\n", session.ID)
			return nil
		}
		res := pollPayment(cmd.Context(), client, dbConn, func(p *payment.Poller) payment.Result {
			return p.Await(cmd.Context(), session.ID)
		})
		return reportResult(res)
	},
}

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Confirm payments",
}

var paymentAwaitCmd = &cobra.Command{
	Use:   "await",
	Short: "Wait until a checkout session is confirmed",
	Long: `Polls the checkout session every payment.poll_interval until it is complete or
payment.poll_timeout passes. The session is given with --session, or with --url as the
payment success URL the checkout redirected to (its session_id query parameter is used).

A timeout does not mean the payment failed; it can take a moment to be confirmed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (sessionIDFlag == "") == (returnURLFlag == "") {
			return errors.New("give exactly one of --session or --url")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		client := newClient()
		if !noTUIFlag && returnURLFlag != "" {
			poller := payment.NewPoller(client,
				payment.WithInterval(cfg.Payment.PollInterval),
				payment.WithTimeout(cfg.Payment.PollTimeout),
			)
			res, err := tui.RunPaymentWait(poller, dbConn, returnURLFlag, cfg.Share.BaseURL)
			if err != nil {
				return err
			}
			return resultError(res)
		}

		res := pollPayment(cmd.Context(), client, dbConn, func(p *payment.Poller) payment.Result {
			if returnURLFlag != "" {
				return p.AwaitURL(cmd.Context(), returnURLFlag)
			}
			return p.Await(cmd.Context(), sessionIDFlag)
		})
		return reportResult(res)
	},
}

var paymentStatusCmd = &cobra.Command{
	Use:   "status [session id]",
	Short: "Query a checkout session once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newClient().GetCheckoutSession(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to check session: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()
		recordStatus(cmd.Context(), dbConn, args[0], st)

		return emit(st, func() {
			fmt.Printf("Session %s: %s\n", args[0], st.Status)
			if st.Complete() && st.Journey != nil {
				if link, err := journeys.ShareURL(cfg.Share.BaseURL, *st.Journey); err == nil {
					fmt.Printf("Share link: %s\n", link)
				}
			}
		})
	},
}

// pollPayment runs await with a poller built from the settings, logging each
// attempt to stderr, and records a completed payment in the registry.
func pollPayment(ctx context.Context, client *journeys.Client, dbConn *sql.DB, await func(*payment.Poller) payment.Result) payment.Result {
	poller := payment.NewPoller(client,
		payment.WithInterval(cfg.Payment.PollInterval),
		payment.WithTimeout(cfg.Payment.PollTimeout),
		payment.WithOnAttempt(func(a payment.Attempt) {
			if a.Err != nil {
				fmt.Fprintf(os.Stderr, "Attempt %d: %v\n", a.N, a.Err)
				return
			}
			fmt.Fprintf(os.Stderr, "Attempt %d: status %s\n", a.N, a.Status)
		}),
	)

	fmt.Fprintln(os.Stderr, "Confirming your payment...")
	res := await(poller)
	if res.State == payment.StateComplete {
		recordStatus(ctx, dbConn, res.SessionID, journeys.CheckoutStatus{Status: journeys.StatusComplete, Journey: res.Journey})
	}
	return res
}

// recordStatus mirrors a reported session status into the registry. Failures
// are only warnings: the registry never changes an outcome.
func recordStatus(ctx context.Context, dbConn *sql.DB, sessionID string, st journeys.CheckoutStatus) {
	if _, err := store.UpdateCheckoutStatus(ctx, dbConn, sessionID, st.Status); err != nil && !errors.Is(err, store.ErrCheckoutNotFound) {
		fmt.Fprintf(os.Stderr, "Warning: failed to record status of %s: %v\n", sessionID, err)
	}
	if st.Journey == nil || (st.Status != journeys.StatusComplete && !st.Journey.Paid) {
		return
	}
	if _, err := store.MarkJourneyPaid(ctx, dbConn, st.Journey.ID, st.Journey.ShareableToken); err != nil && !errors.Is(err, store.ErrJourneyNotFound) {
		fmt.Fprintf(os.Stderr, "Warning: failed to record payment of %s: %v\n", st.Journey.ID, err)
	}
}

type paymentReport struct {
	SessionID string `json:"session_id,omitempty"`
	State     string `json:"state"`
	Message   string `json:"message"`
	Attempts  int    `json:"attempts"`
	ShareURL  string `json:"share_url,omitempty"`
}

// reportResult prints the outcome of a poll. Errors and cancellation exit non-zero;
// a timeout does not, since the payment may still be confirmed later.
func reportResult(res payment.Result) error {
	rep := paymentReport{
		SessionID: res.SessionID,
		State:     res.State.String(),
		Message:   res.Message(),
		Attempts:  res.Attempts,
	}
	if res.Journey != nil {
		rep.ShareURL, _ = journeys.ShareURL(cfg.Share.BaseURL, *res.Journey)
	}

	if err := emit(rep, func() {
		fmt.Println(rep.Message)
		if rep.ShareURL != "" {
			fmt.Printf("Share link: %s\n", rep.ShareURL)
		}
	}); err != nil {
		return err
	}
	return resultError(res)
}

func resultError(res payment.Result) error {
	switch res.State {
	case payment.StateComplete, payment.StateTimeout:
		return nil
	case payment.StateCanceled:
		return errors.New("waiting for payment was cancelled")
	default:
		return errors.New(res.Message())
	}
}

func initPaymentCmds() {
	checkoutStartCmd.Flags().BoolVar(&waitFlag, "wait", false, "Wait for the payment to be confirmed after printing the link")
	checkoutCmd.AddCommand(checkoutStartCmd)

	paymentAwaitCmd.Flags().StringVar(&sessionIDFlag, "session", "", "Checkout session ID")
	paymentAwaitCmd.Flags().StringVar(&returnURLFlag, "url", "", "Payment success URL carrying session_id")
	paymentAwaitCmd.Flags().BoolVar(&noTUIFlag, "no-tui", false, "Log attempts to stderr instead of showing the wait screen")
	paymentAwaitCmd.MarkFlagsMutuallyExclusive("session", "url")

	paymentCmd.AddCommand(paymentAwaitCmd, paymentStatusCmd)
}
