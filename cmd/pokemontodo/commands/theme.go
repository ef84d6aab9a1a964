package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func themeCmd(c *cli) *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		app, err := c.openApp(cmd.Context())
		if err != nil {
			return err
		}
		c.printTheme(app.UI.DarkMode())
		return nil
	}
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the dark-mode preference",
		Args:  cobra.NoArgs,
		RunE:  show,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current theme",
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Flip between light and dark",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := c.openApp(cmd.Context())
				if err != nil {
					return err
				}
				if err := app.UI.ToggleDarkMode(cmd.Context()); err != nil {
					return err
				}
				c.printTheme(app.UI.DarkMode())
				return nil
			},
		},
		&cobra.Command{
			Use:       "set <dark|light>",
			Short:     "Choose the theme explicitly",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"dark", "light"},
			RunE: func(cmd *cobra.Command, args []string) error {
				dark, err := parseTheme(args[0])
				if err != nil {
					return err
				}
				app, err := c.openApp(cmd.Context())
				if err != nil {
					return err
				}
				if err := app.UI.SetDarkMode(cmd.Context(), dark); err != nil {
					return err
				}
				c.printTheme(dark)
				return nil
			},
		},
	)
	return cmd
}

func parseTheme(raw string) (bool, error) {
	switch raw {
	case "dark":
		return true, nil
	case "light":
		return false, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, nil
	}
	return false, fmt.Errorf("unknown theme %q (use dark or light)", raw)
}

func (c *cli) printTheme(dark bool) {
	if dark {
		fmt.Fprintln(c.stdout, "dark")
		return
	}
	fmt.Fprintln(c.stdout, "light")
}
