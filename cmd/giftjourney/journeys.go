package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/giftjourney/pkg/booklet"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/store"
	"github.com/unowned-ai/giftjourney/pkg/tui"
)

var (
	showCheckoutsFlag bool
	qrFlag            bool
	socialFlag        bool
	bookletOutFlag    string
)

var journeysCmd = &cobra.Command{
	Use:   "journeys",
	Short: "Manage gift journeys",
	Long:  `Create journeys on the API, inspect them, and manage the list of journeys remembered on this machine.`,
}

var createJourneyCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new journey",
	Long:  `Creates a journey with the given title on the API and remembers it locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		if strings.TrimSpace(title) == "" {
			return errors.New("journey title is required")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		client := newClient()
		j, err := client.CreateJourney(cmd.Context(), title)
		if err != nil {
			return fmt.Errorf("failed to create journey: %w", err)
		}
		if _, err := store.SaveJourney(cmd.Context(), dbConn, j, client.BaseURL()); err != nil {
			return fmt.Errorf("journey %s created but not saved locally: %w", j.ID, err)
		}

		return emit(j, func() {
			fmt.Println("Journey created successfully:")
			printJourney(j)
		})
	},
}

var getJourneyCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get a journey with its stops",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := newClient().GetJourney(cmd.Context(), args[0])
		if err != nil {
			return errors.New(journeys.LoadErrorMessage(err))
		}
		j.Stops = journeys.SortStops(j.Stops)

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()
		if _, err := store.GetJourney(cmd.Context(), dbConn, j.ID); err == nil {
			if _, err := store.SaveJourney(cmd.Context(), dbConn, j, ""); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to refresh local record of %s: %v\n", j.ID, err)
			}
		}

		return emit(j, func() { printJourney(j) })
	},
}

var listJourneysCmd = &cobra.Command{
	Use:   "list",
	Short: "List the journeys created on this machine",
	Long:  `Lists journeys from the local registry, most recently updated first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		list, err := store.ListJourneys(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to list journeys: %w", err)
		}

		if formatFlag != "text" {
			return emit(list, nil)
		}
		if len(list) == 0 {
			fmt.Println("No journeys found. Create one with 'giftjourney journeys create --title ...'.")
			return nil
		}

		fmt.Println("Journeys:")
		for _, sj := range list {
			status := "unpaid"
			if sj.Paid {
				status = "paid"
			}
			fmt.Printf("- %s  %-30s  %d stops  %s  updated %s\n", sj.ID, sj.Title, sj.StopCount, status, formatTimestamp(sj.UpdatedAt))
			if !showCheckoutsFlag {
				continue
			}
			checkouts, err := store.ListCheckouts(cmd.Context(), dbConn, sj.ID)
			if err != nil {
				return fmt.Errorf("failed to list checkouts of %s: %w", sj.ID, err)
			}
			for _, c := range checkouts {
				fmt.Printf("    checkout %s  %s  %s\n", c.SessionID, c.Status, formatTimestamp(c.CreatedAt))
			}
		}
		return nil
	},
}

var forgetJourneyCmd = &cobra.Command{
	Use:   "forget [id]",
	Short: "Remove a journey from the local registry",
	Long:  `Forgets a journey and its recorded checkouts on this machine. The journey itself stays on the API.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		err = store.ForgetJourney(cmd.Context(), dbConn, args[0])
		if errors.Is(err, store.ErrJourneyNotFound) {
			fmt.Printf("Journey with ID %s is not in the local registry.\n", args[0])
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to forget journey: %w", err)
		}

		fmt.Printf("Journey with ID %s forgotten.\n", args[0])
		return nil
	},
}

var shareJourneyCmd = &cobra.Command{
	Use:   "share [id]",
	Short: "Print the reveal link of a paid journey",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := newClient().GetJourney(cmd.Context(), args[0])
		if err != nil {
			return errors.New(journeys.LoadErrorMessage(err))
		}
		link, err := journeys.ShareURL(cfg.Share.BaseURL, j)
		if errors.Is(err, journeys.ErrNotShareable) {
			return fmt.Errorf("journey %s has no share link yet: complete payment with 'giftjourney checkout start %s'", j.ID, j.ID)
		}
		if err != nil {
			return err
		}

		out := map[string]string{"share_url": link}
		var social journeys.SocialLinks
		if socialFlag {
			social = journeys.ShareLinks(cfg.Share.BaseURL, j.ID)
			out["public_url"] = social.PublicURL
			out["x"] = social.X
			out["facebook"] = social.Facebook
		}
		if formatFlag != "text" {
			return emit(out, nil)
		}

		fmt.Println(link)
		if socialFlag {
			fmt.Printf("Share on X:        %s\n", social.X)
			fmt.Printf("Share on Facebook: %s\n", social.Facebook)
		}
		if qrFlag {
			code, err := booklet.TerminalQR(link)
			if err != nil {
				return err
			}
			fmt.Print(code)
		}
		return nil
	},
}

var bookletJourneyCmd = &cobra.Command{
	Use:   "booklet [id]",
	Short: "Render a printable PDF booklet of a paid journey",
	Long:  `Writes an A4 PDF with a QR code of the reveal link on the title page and one page per stop.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := newClient().GetJourney(cmd.Context(), args[0])
		if err != nil {
			return errors.New(journeys.LoadErrorMessage(err))
		}
		link, err := journeys.ShareURL(cfg.Share.BaseURL, j)
		if err != nil {
			return fmt.Errorf("journey %s has no share link yet: complete payment first", j.ID)
		}

		out := bookletOutFlag
		if out == "" {
			out = j.ID + ".pdf"
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		if err := booklet.Write(f, j, link); err != nil {
			f.Close()
			return fmt.Errorf("failed to render booklet: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Printf("Booklet written to %s\n", out)
		return nil
	},
}

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Build journeys in an interactive terminal UI",
	Long: `Opens the journey studio: browse the journeys remembered on this machine, create new ones,
add stops and preview the reveal. Leaving a preview with 'b' returns to the studio.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		client := newClient()
		for {
			previewID, err := tui.RunStudio(client, dbConn, cfg.Share.BaseURL)
			if err != nil {
				return err
			}
			if previewID == "" {
				return nil
			}

			outcome, err := tui.RunReveal(revealOptions(client, dbConn, previewID, ""))
			if err != nil {
				return err
			}
			if !outcome.BackToEdit {
				reportPayment(outcome)
				return nil
			}
		}
	},
}

func initJourneysCmd() {
	createJourneyCmd.Flags().StringP("title", "t", "", "Title of the journey (required)")
	createJourneyCmd.MarkFlagRequired("title")

	listJourneysCmd.Flags().BoolVar(&showCheckoutsFlag, "checkouts", false, "Show the checkout sessions recorded for each journey")

	shareJourneyCmd.Flags().BoolVar(&qrFlag, "qr", false, "Also print a QR code of the link")
	shareJourneyCmd.Flags().BoolVar(&socialFlag, "social", false, "Also print X and Facebook share links of the public page")

	bookletJourneyCmd.Flags().StringVar(&bookletOutFlag, "out", "", "Output file (default <journey id>.pdf)")

	journeysCmd.AddCommand(
		createJourneyCmd,
		getJourneyCmd,
		listJourneysCmd,
		forgetJourneyCmd,
		shareJourneyCmd,
		bookletJourneyCmd,
		studioCmd,
	)
}

func printJourney(j journeys.Journey) {
	fmt.Println("Journey Details:")
	fmt.Printf("ID:     %s\n", j.ID)
	fmt.Printf("Title:  %s\n", j.Title)
	fmt.Printf("Paid:   %t\n", j.Paid)
	if link, err := journeys.ShareURL(cfg.Share.BaseURL, j); err == nil {
		fmt.Printf("Share:  %s\n", link)
	}

	stops := journeys.SortStops(j.Stops)
	if len(stops) == 0 {
		fmt.Println("Stops:  none")
		return
	}
	fmt.Println("Stops:")
	for i, s := range stops {
		printStop(i+1, len(stops), s)
	}
}

func printStop(n, total int, s journeys.Stop) {
	fmt.Printf("  [%d/%d] %s (id %s, order %d)\n", n, total, s.Title, s.ID, s.Order)
	if s.Note != "" {
		fmt.Printf("        %s\n", s.Note)
	}
	switch m := journeys.MediaOf(s); m.Kind {
	case journeys.MediaImage, journeys.MediaIcon:
		fmt.Printf("        %s: %s\n", m.Kind, m.Source)
	}
	if s.ExternalURL != "" {
		fmt.Printf("        Learn more: %s\n", s.ExternalURL)
	}
}
