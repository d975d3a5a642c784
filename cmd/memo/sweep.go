package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete every expired memo once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			res := a.svc.Sweep(cmd.Context())
			if res.Err != nil {
				return fmt.Errorf("sweep: %w", res.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired memo(s)\n", res.Deleted)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
