package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse published journeys",
}

var exploreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List public journeys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newClient().ListPublicJourneys(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list public journeys: %w", err)
		}

		return emit(list, func() {
			if len(list) == 0 {
				fmt.Println("No public journeys yet.")
				return
			}
			for _, pj := range list {
				fmt.Printf("- %s  %s\n", pj.ID, pj.JourneyTitle)
			}
		})
	},
}

var exploreGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a public journey",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pj, err := newClient().GetPublicJourney(cmd.Context(), args[0])
		if err != nil {
			return errors.New(journeys.LoadErrorMessage(err))
		}
		links := journeys.ShareLinks(cfg.Share.BaseURL, pj.ID)

		return emit(pj, func() {
			fmt.Printf("Title:      %s\n", pj.JourneyTitle)
			if pj.HeroImageURL != "" {
				fmt.Printf("Image:      %s\n", pj.HeroImageURL)
			}
			if len(pj.Highlights) > 0 {
				fmt.Printf("Highlights: %s\n", strings.Join(pj.Highlights, ", "))
			}
			fmt.Printf("Page:       %s\n", links.PublicURL)
			fmt.Printf("Share on X: %s\n", links.X)
		})
	},
}

func initExploreCmd() {
	exploreCmd.AddCommand(exploreListCmd, exploreGetCmd)
}
