// Package cmd provides the CLI commands for repovec.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/repovec/internal/config"
	"github.com/Aman-CERP/repovec/internal/indexer"
	"github.com/Aman-CERP/repovec/internal/logging"
	"github.com/Aman-CERP/repovec/internal/scanner"
	"github.com/Aman-CERP/repovec/internal/ui"
	"github.com/Aman-CERP/repovec/internal/vectorstore"
	"github.com/Aman-CERP/repovec/pkg/version"
)

var (
	flagRoot    string
	flagDebug   bool
	flagNoColor bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the repovec CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repovec",
		Short: "Incremental semantic index for source repositories",
		Long: `repovec keeps a local vector index of a source repository in sync
with its working tree. Indexing is incremental: only files whose
content changed since the last run are re-embedded.

Run 'repovec index' in a project directory to get started.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("repovec version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&flagRoot, "root", "r", "", "Repository root (default: current directory)")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging to ~/.repovec/logs/")
	cmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	lcfg := logging.DefaultConfig()
	lcfg.WriteToStderr = false
	if flagDebug {
		lcfg.Level = "debug"
	}
	if v := os.Getenv(config.EnvLogLevel); v != "" {
		lcfg.Level = v
	}

	logger, cleanup, err := logging.Setup(lcfg)
	if err != nil {
		// Logging must never block the actual work.
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: file logging disabled: %v\n", err)
		return nil
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

// app bundles everything a subcommand needs for one repository.
type app struct {
	root   string
	cfg    *config.Config
	idx    *indexer.RepositoryIndexer
	render *ui.Renderer
}

// newApp resolves the repository root, loads configuration and builds
// an initialized indexer. The returned closer releases the store.
func newApp(cmd *cobra.Command) (*app, func(), error) {
	root := flagRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}

	embedder := vectorstore.NewStaticEmbedder(cfg.Embeddings.Dimensions)
	store := vectorstore.NewLocalStore(filepath.Join(config.DataDir(root), "store.db"), embedder)
	idx := indexer.New(root, cfg, scanner.NewFileScanner(0), store)
	if err := idx.Initialize(cmd.Context()); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize index: %w", err)
	}

	a := &app{
		root:   root,
		cfg:    cfg,
		idx:    idx,
		render: ui.NewRenderer(ui.Config{Output: cmd.OutOrStdout(), NoColor: flagNoColor}),
	}
	return a, func() { _ = idx.Close() }, nil
}
