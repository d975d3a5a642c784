package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var addHours int

var addCmd = &cobra.Command{
	Use:   "add TEXT",
	Short: "Create a memo that deletes itself after --hours",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			d := a.settings.Current().DefaultDuration()
			if addHours != 0 {
				d = time.Duration(addHours) * time.Hour
			}

			m, err := a.svc.Create(cmd.Context(), args[0], d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created memo %d (%s)\n", m.ID, m.RemainingLabel(a.svc.Now()))
			return nil
		})
	},
}

func init() {
	addCmd.Flags().IntVar(&addHours, "hours", 0, "Lifetime in hours (default from settings)")
	rootCmd.AddCommand(addCmd)
}
