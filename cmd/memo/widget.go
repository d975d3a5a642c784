package main

import (
	"github.com/spf13/cobra"

	"example.com/tempmemo/internal/widget"
)

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Print the home-screen summary of memos closest to expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			v, err := a.svc.Widget(cmd.Context())
			if err != nil {
				return err
			}
			return widget.Render(cmd.OutOrStdout(), v)
		})
	},
}

func init() {
	rootCmd.AddCommand(widgetCmd)
}
