package commands

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"pokemontodo/internal/server"
)

// serve: run the in-memory development backend.
func serveCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development REST backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.cfg.Dev {
				gin.SetMode(gin.ReleaseMode)
			}
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			srv, err := server.New(server.Options{
				Logger:      c.log,
				Registry:    c.registry,
				CORSOrigins: c.cfg.Server.CORSOrigins,
				AccessLog:   c.cfg.Server.AccessLog,
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
