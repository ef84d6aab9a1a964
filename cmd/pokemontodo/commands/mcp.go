package commands

import (
	"github.com/spf13/cobra"

	"pokemontodo/internal/mcptools"
)

// mcp: expose the client stores as MCP tools.
func mcpCmd(c *cli) *cobra.Command {
	var transport, addr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve Pokemon and Move tools over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			if transport == "" {
				transport = c.cfg.MCP.Transport
			}
			if addr == "" {
				addr = c.cfg.MCP.Addr
			}
			srv := mcptools.New(app, c.log, Version)
			return mcptools.Serve(ctx, srv, mcptools.ServeOptions{
				Transport: transport,
				Addr:      addr,
				Registry:  c.registry,
				Log:       c.log,
			})
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "", "stdio or http (default from config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for the http transport")
	return cmd
}
