package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete a memo now",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseMemoID(args[0])
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			if err := a.svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted memo %d\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
