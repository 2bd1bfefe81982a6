package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/repovec/internal/indexer"
	"github.com/Aman-CERP/repovec/internal/runlock"
)

func newIndexCmd() *cobra.Command {
	var (
		force       bool
		batchSize   int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the repository",
		Long: `Index scans the repository, embeds changed files and persists the
index state. With existing state only changed, added and deleted files
are processed; --force re-embeds everything.`,
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

			run, err := app.idx.Index(cmd.Context(), indexer.Options{
				Force:       force,
				BatchSize:   batchSize,
				Concurrency: concurrency,
				OnProgress:  app.render.Progress,
			})
			if err != nil {
				return err
			}
			app.render.RunComplete(run)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-index every file regardless of change detection")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Documents per embedding batch (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel batches per group (default from config)")

	return cmd
}
