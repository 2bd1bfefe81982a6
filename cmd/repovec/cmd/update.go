package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/repovec/internal/indexer"
	"github.com/Aman-CERP/repovec/internal/runlock"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Incrementally update the index",
		Long: `Update removes deleted files from the index and re-embeds files
modified since the last run. Without prior state it behaves like a
full index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			lock := runlock.New(app.root)
			acquired, err := lock.TryLock()
			if err != nil {
				return err
			}
			if !acquired {
				return fmt.Errorf("another repovec run is in progress (lock: %s)", lock.Path())
			}
			defer lock.Unlock()

			run, err := app.idx.Update(cmd.Context(), indexer.Options{
				OnProgress: app.render.Progress,
			})
			if err != nil {
				return err
			}
			app.render.RunComplete(run)
			return nil
		},
	}
	return cmd
}
