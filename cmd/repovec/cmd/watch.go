package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/repovec/internal/indexer"
	"github.com/Aman-CERP/repovec/internal/runlock"
	"github.com/Aman-CERP/repovec/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the repository and update the index on changes",
		Long: `Watch runs an initial incremental update, then keeps the index in
sync as files change. Rapid bursts of events are debounced into one
update. Stops on Ctrl-C.`,
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

			ctx := cmd.Context()

			run, err := app.idx.Update(ctx, indexer.Options{OnProgress: app.render.Progress})
			if err != nil {
				return err
			}
			app.render.RunComplete(run)

			w, err := watcher.New(watcher.Options{
				DebounceWindow: app.cfg.Watch.DebounceWindow(),
			})
			if err != nil {
				return err
			}
			defer w.Stop()

			if err := w.Start(ctx, app.root); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "watching for changes (Ctrl-C to stop)")

			for {
				select {
				case <-ctx.Done():
					return nil
				case err, ok := <-w.Errors():
					if !ok {
						return nil
					}
					slog.Warn("watch_error", slog.String("error", err.Error()))
				case batch, ok := <-w.Events():
					if !ok {
						return nil
					}
					slog.Debug("watch_batch", slog.Int("events", len(batch)))
					run, err := app.idx.Update(ctx, indexer.Options{})
					if err != nil {
						app.render.Error(err)
						continue
					}
					if run.FilesIndexed > 0 || run.FilesDeleted > 0 {
						app.render.RunComplete(run)
					}
				}
			}
		},
	}
	return cmd
}
