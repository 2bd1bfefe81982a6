package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long: `Stats reports totals and per-language, per-type and per-package
breakdowns from the persisted index state. It never scans the
repository.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			ds := app.idx.Stats()
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ds)
			}
			app.render.Stats(ds)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit statistics as JSON")
	return cmd
}
