package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/giftjourney/pkg/booklet"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/payment"
	"github.com/unowned-ai/giftjourney/pkg/tui"
)

var (
	revealJourneyFlag string
	revealTokenFlag   string
)

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Walk through a journey one stop at a time",
	Long: `Shows the reveal experience in the terminal.

With --journey the creator previews the journey and can continue to payment from the summary.
With --token (the last segment of a share link) the recipient opens the final reveal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (revealJourneyFlag == "") == (revealTokenFlag == "") {
			return errors.New("give exactly one of --journey or --token")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		outcome, err := tui.RunReveal(revealOptions(newClient(), dbConn, revealJourneyFlag, revealTokenFlag))
		if err != nil {
			return err
		}
		if outcome.BackToEdit {
			fmt.Printf("Edit the journey with 'giftjourney stops add --journey %s' or 'giftjourney journeys studio'.\n", outcome.JourneyID)
			return nil
		}
		reportPayment(outcome)
		return nil
	},
}

// revealOptions wires the reveal program to the effective settings.
func revealOptions(client *journeys.Client, dbConn *sql.DB, journeyID, token string) tui.RevealOptions {
	template := cfg.Payment.CheckoutURL
	return tui.RevealOptions{
		Client:    client,
		JourneyID: journeyID,
		Token:     token,
		ShareBase: cfg.Share.BaseURL,
		Poller: payment.NewPoller(client,
			payment.WithInterval(cfg.Payment.PollInterval),
			payment.WithTimeout(cfg.Payment.PollTimeout),
		),
		// The reveal screen shows the link itself; the hand-off only has to resolve one.
		Redirector: payment.RedirectorFunc(func(ctx context.Context, session journeys.CheckoutSession) error {
			_, err := payment.CheckoutURL(session, template)
			return err
		}),
		CheckoutURL: template,
		QR:          booklet.TerminalQR,
		DB:          dbConn,
	}
}

// reportPayment leaves the share link on the terminal after the alt screen closes.
func reportPayment(outcome tui.RevealOutcome) {
	if outcome.Payment == nil || outcome.Payment.State != payment.StateComplete {
		return
	}
	fmt.Println(outcome.Payment.Message())
	if j := outcome.Payment.Journey; j != nil {
		if link, err := journeys.ShareURL(cfg.Share.BaseURL, *j); err == nil {
			fmt.Printf("Share link: %s\n", link)
		}
	}
}

func initRevealCmd() {
	revealCmd.Flags().StringVar(&revealJourneyFlag, "journey", "", "Preview the journey with this ID")
	revealCmd.Flags().StringVar(&revealTokenFlag, "token", "", "Open the reveal of this shareable token")
	revealCmd.MarkFlagsMutuallyExclusive("journey", "token")
}
