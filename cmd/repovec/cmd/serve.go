package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/repovec/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index over the Model Context Protocol",
		Long: `Serve exposes search and indexing tools to MCP clients such as
Claude Code and Cursor. Only the stdio transport is supported.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			server, err := mcp.NewServer(app.idx)
			if err != nil {
				return err
			}
			if transport == "" {
				transport = app.cfg.Server.Transport
			}
			return server.Serve(cmd.Context(), transport)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "", "MCP transport (default from config)")

	return cmd
}
