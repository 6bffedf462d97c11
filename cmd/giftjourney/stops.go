package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

var journeyIDFlag string

var stopsCmd = &cobra.Command{
	Use:   "stops",
	Short: "Manage the stops of a journey",
	Long:  `Add, update and list the stops a recipient walks through.`,
}

var addStopCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a stop to a journey",
	Long:  `Adds a stop at the end of the journey. Give exactly one of --image or --icon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		note, _ := cmd.Flags().GetString("note")
		image, _ := cmd.Flags().GetString("image")
		icon, _ := cmd.Flags().GetString("icon")
		link, _ := cmd.Flags().GetString("link")

		if journeyIDFlag == "" {
			return errors.New("--journey is required")
		}

		in := journeys.StopInput{Title: title, Note: note, ExternalURL: link, ImageURL: image, IconName: icon}
		if err := in.Validate(); err != nil {
			return err
		}

		stop, err := newClient().AddStop(cmd.Context(), journeyIDFlag, in.Normalized())
		if err != nil {
			return fmt.Errorf("failed to add stop: %w", err)
		}

		return emit(stop, func() {
			fmt.Println("Stop added successfully:")
			printStop(stop.Order, stop.Order, stop)
		})
	},
}

var updateStopCmd = &cobra.Command{
	Use:   "update [stop id]",
	Short: "Update an existing stop",
	Long: `Updates the given stop. Only provided fields are changed. Setting --image clears
the icon and setting --icon clears the image.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch journeys.StopPatch
		flags := cmd.Flags()

		stringFlag := func(name string) *string {
			if !flags.Changed(name) {
				return nil
			}
			v, _ := flags.GetString(name)
			return &v
		}
		patch.Title = stringFlag("title")
		patch.Note = stringFlag("note")
		patch.ExternalURL = stringFlag("link")
		patch.ImageURL = stringFlag("image")
		patch.IconName = stringFlag("icon")

		empty := ""
		if patch.ImageURL != nil && *patch.ImageURL != "" && patch.IconName == nil {
			patch.IconName = &empty
		}
		if patch.IconName != nil && *patch.IconName != "" && patch.ImageURL == nil {
			patch.ImageURL = &empty
		}
		if flags.Changed("order") {
			order, _ := flags.GetInt("order")
			patch.Order = &order
		}

		if patch.Empty() {
			fmt.Println("No update fields provided. Use --title, --note, --image, --icon, --link or --order.")
			return nil
		}
		if err := patch.Validate(); err != nil {
			return err
		}

		stop, err := newClient().UpdateStop(cmd.Context(), args[0], patch)
		if err != nil {
			return fmt.Errorf("failed to update stop: %w", err)
		}

		return emit(stop, func() {
			fmt.Println("Stop updated successfully:")
			printStop(stop.Order, stop.Order, stop)
		})
	},
}

var listStopsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stops of a journey in display order",
	RunE: func(cmd *cobra.Command, args []string) error {
		if journeyIDFlag == "" {
			return errors.New("--journey is required")
		}
		j, err := newClient().GetJourney(cmd.Context(), journeyIDFlag)
		if err != nil {
			return errors.New(journeys.LoadErrorMessage(err))
		}
		stops := journeys.SortStops(j.Stops)

		return emit(stops, func() {
			if len(stops) == 0 {
				fmt.Printf("Journey %s has no stops yet.\n", j.ID)
				return
			}
			for i, s := range stops {
				printStop(i+1, len(stops), s)
			}
		})
	},
}

func initStopsCmd() {
	stopsCmd.PersistentFlags().StringVar(&journeyIDFlag, "journey", "", "Journey ID (required for add and list)")

	addStopCmd.Flags().String("title", "", "Title of the stop (required)")
	addStopCmd.Flags().String("note", "", "Note shown to the recipient")
	addStopCmd.Flags().String("image", "", "Image URL shown at the stop")
	addStopCmd.Flags().String("icon", "", "Icon shown at the stop (gift, cake, coffee, heart, ...)")
	addStopCmd.Flags().String("link", "", "External 'Learn more' URL")
	addStopCmd.MarkFlagRequired("title")
	addStopCmd.MarkFlagsMutuallyExclusive("image", "icon")
	addStopCmd.MarkFlagsOneRequired("image", "icon")

	updateStopCmd.Flags().String("title", "", "New title")
	updateStopCmd.Flags().String("note", "", "New note; empty clears it")
	updateStopCmd.Flags().String("image", "", "New image URL")
	updateStopCmd.Flags().String("icon", "", "New icon")
	updateStopCmd.Flags().String("link", "", "New 'Learn more' URL; empty clears it")
	updateStopCmd.Flags().Int("order", 0, "New position of the stop")
	updateStopCmd.MarkFlagsMutuallyExclusive("image", "icon")

	stopsCmd.AddCommand(addStopCmd, updateStopCmd, listStopsCmd)
}
