package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// reset: forget persisted Pokemon, Moves and selection.
func resetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear saved client state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, "client state cleared")
			return nil
		},
	}
}
