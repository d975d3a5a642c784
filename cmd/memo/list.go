package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"example.com/tempmemo/internal/stringsx"
)

var listJSON bool

const listPreviewWidth = 48

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List memos, nearest expiry first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			items, err := a.svc.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if listJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			if len(items) == 0 {
				fmt.Fprintln(out, "No memos")
				return nil
			}

			now := a.svc.Now()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tREMAINING\tMEMO")
			for _, m := range items {
				preview := stringsx.Clip(m.PreviewText(1), listPreviewWidth)
				fmt.Fprintf(tw, "%d\t%s\t%s\n", m.ID, m.RemainingLabel(now), preview)
			}
			return tw.Flush()
		})
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(listCmd)
}
