package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pokemontodo/internal/api"
)

func aiCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Power suggestions from the backend",
	}
	cmd.AddCommand(aiSuggestCmd(c), aiHealthCmd(c))
	return cmd
}

// ai suggest <name>: estimate the power of a task before creating it.
func aiSuggestCmd(c *cli) *cobra.Command {
	var (
		description, difficulty string
		calculate               bool
	)
	cmd := &cobra.Command{
		Use:   "suggest <name>",
		Short: "Suggest a power for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			req := api.PowerRequest{MoveName: args[0], MoveDescription: description, DifficultyLevel: difficulty}
			var s api.PowerSuggestion
			if calculate {
				if s, err = c.client.AI().CalculatePower(ctx, req); err != nil {
					return err
				}
			} else {
				var ok bool
				if s, ok = app.SuggestPower(ctx, req); !ok {
					fmt.Fprintln(c.stderr, "power suggestion unavailable, using the default")
				}
			}
			return c.render(s, func(w io.Writer) {
				fmt.Fprintf(w, "power\t%d\n", s.Power)
				fmt.Fprintf(w, "difficulty\t%d/10\n", s.DifficultyScore)
				fmt.Fprintf(w, "estimated time\t%s\n", s.EstimatedTime)
				fmt.Fprintf(w, "ai generated\t%t\n", s.AIGenerated)
				if s.Reasoning != "" {
					fmt.Fprintf(w, "reasoning\t%s\n", s.Reasoning)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task details")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "easy, medium or hard")
	cmd.Flags().BoolVar(&calculate, "calculate", false, "use the calculate-power endpoint and fail instead of defaulting")
	return cmd
}

// healthRetry rides out a backend that is still starting; 4xx answers are
// not retried.
var healthRetry = api.RetryPolicy{Attempts: 3, Base: 250 * time.Millisecond}

// ai health: report whether the model behind the AI endpoints is reachable.
func aiHealthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the AI model status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.openApp(cmd.Context()); err != nil {
				return err
			}
			h, err := api.Retry(cmd.Context(), healthRetry, c.client.AI().Health)
			if err != nil {
				return err
			}
			return c.render(h, func(w io.Writer) {
				fmt.Fprintf(w, "status\t%s\n", h.Status)
				for _, m := range h.AvailableModels {
					fmt.Fprintf(w, "model\t%s\n", m)
				}
				if h.Error != "" {
					fmt.Fprintf(w, "error\t%s\n", h.Error)
				}
			})
		},
	}
}
