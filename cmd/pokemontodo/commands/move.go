package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pokemontodo/internal/api"
	"pokemontodo/pkg/domain"
)

func moveCmd(c *cli) *cobra.Command {
	var pokemonID string
	cmd := &cobra.Command{
		Use:     "move",
		Aliases: []string{"mv"},
		Short:   "Manage the Moves (tasks) of a Pokemon",
	}
	cmd.PersistentFlags().StringVarP(&pokemonID, "pokemon", "p", "", "owning Pokemon id (default: the selected Pokemon)")
	cmd.AddCommand(
		moveListCmd(c, &pokemonID),
		moveCreateCmd(c, &pokemonID),
		moveUpdateCmd(c, &pokemonID),
		moveDeleteCmd(c, &pokemonID),
		moveCompleteCmd(c, &pokemonID),
	)
	return cmd
}

// move list: the Moves of one Pokemon, optionally filtered server-side.
func moveListCmd(c *cli, pokemonID *string) *cobra.Command {
	var completed, pending, force bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the Moves of a Pokemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && pending {
				return fmt.Errorf("--completed and --pending are mutually exclusive")
			}
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			pid, err := ownerID(app, *pokemonID)
			if err != nil {
				return err
			}
			if _, err := pokemonByID(ctx, app, pid); err != nil {
				return err
			}
			var moves []domain.Move
			switch {
			case completed:
				moves, err = app.Moves.FetchCompleted(ctx, pid)
			case pending:
				moves, err = app.Moves.FetchPending(ctx, pid)
			default:
				if err = app.Moves.FetchByPokemon(ctx, pid, force); err == nil {
					moves = app.Moves.Moves(pid)
				}
			}
			if err != nil {
				return err
			}
			if moves == nil {
				moves = []domain.Move{}
			}
			return c.render(moves, func(w io.Writer) { moveTable(w, moves) })
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "only completed Moves")
	cmd.Flags().BoolVar(&pending, "pending", false, "only pending Moves")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "ignore the cache and refetch")
	return cmd
}

// move create <name>: add a Move. Without --power the backend suggests one.
func moveCreateCmd(c *cli, pokemonID *string) *cobra.Command {
	var (
		description string
		power       int
		difficulty  string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a Move for a Pokemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			pid, err := ownerID(app, *pokemonID)
			if err != nil {
				return err
			}
			if _, err := pokemonByID(ctx, app, pid); err != nil {
				return err
			}
			in := domain.NewMove{PokemonID: pid, Name: domain.SanitizeInput(args[0]), Power: power}
			if d := domain.SanitizeInput(description); d != "" {
				in.Description = &d
			}
			if !cmd.Flags().Changed("power") && in.Name != "" {
				s, ok := app.SuggestPower(ctx, api.PowerRequest{
					MoveName:        in.Name,
					MoveDescription: description,
					DifficultyLevel: difficulty,
				})
				in.Power = s.Power
				if ok {
					c.log.Info("power suggested", "power", s.Power, "ai_generated", s.AIGenerated)
				}
			}
			if err := domain.ValidateNewMove(in); err != nil {
				return err
			}
			m, err := app.Moves.Create(ctx, in)
			if err != nil {
				return err
			}
			return c.render(m, func(w io.Writer) { moveTable(w, []domain.Move{m}) })
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Move description")
	cmd.Flags().IntVar(&power, "power", 0, "Move power 1-100 (default: suggested by the backend)")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "hint for the power suggestion: easy, medium or hard")
	return cmd
}

// move update <id>: partial update of a Move.
func moveUpdateCmd(c *cli, pokemonID *string) *cobra.Command {
	var (
		name, description string
		power             int
		completed         bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a Move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.MovePatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				n := domain.SanitizeInput(name)
				patch.Name = &n
			}
			if flags.Changed("description") {
				d := domain.SanitizeInput(description)
				patch.Description = &d
			}
			if flags.Changed("power") {
				patch.Power = &power
			}
			if flags.Changed("completed") {
				patch.IsCompleted = &completed
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update: pass --name, --description, --power or --completed")
			}
			if err := domain.ValidateMovePatch(patch); err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			if _, err := moveByID(ctx, app, args[0], *pokemonID); err != nil {
				return err
			}
			m, err := app.Moves.Update(ctx, args[0], patch)
			if err != nil {
				return err
			}
			return c.render(m, func(w io.Writer) { moveTable(w, []domain.Move{m}) })
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().IntVar(&power, "power", 0, "new power 1-100")
	cmd.Flags().BoolVar(&completed, "completed", false, "set the completion flag without awarding experience")
	return cmd
}

// move delete <id>.
func moveDeleteCmd(c *cli, pokemonID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a Move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			m, err := moveByID(ctx, app, args[0], *pokemonID)
			if err != nil {
				return err
			}
			if err := app.Moves.Delete(ctx, m.ID); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "deleted %s\n", m.Name)
			return nil
		},
	}
}

// move complete <id>: mark a Move done and award its experience.
func moveCompleteCmd(c *cli, pokemonID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a Move and award experience to its Pokemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			if _, err := moveByID(ctx, app, args[0], *pokemonID); err != nil {
				return err
			}
			m, err := app.Moves.Complete(ctx, args[0])
			if err != nil {
				return err
			}
			p, _ := app.Pokemon.Get(m.PokemonID)
			out := struct {
				Move    domain.Move    `json:"move"`
				Pokemon domain.Pokemon `json:"pokemon"`
				Reward  float64        `json:"experience_reward"`
			}{m, p, domain.ExperienceReward(m.Power)}
			return c.render(out, func(w io.Writer) {
				fmt.Fprintf(w, "%s completed\t+%s xp\n", m.Name, formatXP(out.Reward))
				fmt.Fprintf(w, "%s\tlevel %d\tstage %d\t%s xp\n", p.Name, p.Level, p.EvolutionStage, formatXP(p.Experience))
			})
		},
	}
}
