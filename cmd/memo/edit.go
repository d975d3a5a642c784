package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var editHours int

var editCmd = &cobra.Command{
	Use:   "edit ID TEXT",
	Short: "Replace a memo's text and restart its countdown",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMemoID(args[0])
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			sess, err := a.svc.OpenEditor(cmd.Context(), id)
			if err != nil {
				return err
			}
			defer sess.Close()

			d := a.settings.Current().DefaultDuration()
			if editHours != 0 {
				d = time.Duration(editHours) * time.Hour
			}

			m, err := sess.Save(cmd.Context(), args[1], d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved memo %d (%s)\n", m.ID, m.RemainingLabel(a.svc.Now()))
			return nil
		})
	},
}

func parseMemoID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid memo id %q", s)
	}
	return id, nil
}

func init() {
	editCmd.Flags().IntVar(&editHours, "hours", 0, "New lifetime in hours, counted from now (default from settings)")
	rootCmd.AddCommand(editCmd)
}
