package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"pokemontodo/pkg/domain"
)

func pokemonCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pokemon",
		Aliases: []string{"pk"},
		Short:   "Manage your Pokemon",
	}
	cmd.AddCommand(
		pokemonListCmd(c),
		pokemonGetCmd(c),
		pokemonCreateCmd(c),
		pokemonUpdateCmd(c),
		pokemonDeleteCmd(c),
		pokemonXPCmd(c),
		pokemonSelectCmd(c),
	)
	return cmd
}

// pokemon list: show the collection, refetching when the cache is stale.
func pokemonListCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your Pokemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Pokemon.FetchAll(cmd.Context(), force); err != nil {
				return err
			}
			list := app.Pokemon.List()
			selected := ""
			if sel := app.Pokemon.Selected(); sel != nil {
				selected = sel.ID
			}
			return c.render(list, func(w io.Writer) { pokemonTable(w, list, selected) })
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "ignore the cache and refetch")
	return cmd
}

// pokemon get <id>: one Pokemon with its Moves.
func pokemonGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a Pokemon and its Moves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			p, err := pokemonByID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Moves.FetchByPokemon(ctx, p.ID, false); err != nil {
				return err
			}
			moves := app.Moves.Moves(p.ID)
			out := struct {
				domain.Pokemon
				Moves []domain.Move `json:"moves"`
			}{p, moves}
			return c.render(out, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%s)\tlevel %d\tstage %d\t%s/%s xp\n",
					p.Name, p.Type, p.Level, p.EvolutionStage, formatXP(p.Experience), formatXP(domain.MaxExperience))
				fmt.Fprintln(w)
				moveTable(w, moves)
			})
		},
	}
}

// pokemon create <name>: add a Pokemon to the team.
func pokemonCreateCmd(c *cli) *cobra.Command {
	var rawType string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a Pokemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := domain.ParsePokemonType(rawType)
			if err != nil {
				return err
			}
			name := domain.FormatPokemonName(domain.SanitizeInput(args[0]))
			if err := domain.ValidateNewPokemon(domain.NewPokemon{Name: name, Type: typ}); err != nil {
				return err
			}
			app, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			p, err := app.Pokemon.Create(cmd.Context(), name, typ)
			if err != nil {
				return err
			}
			return c.render(p, func(w io.Writer) { pokemonTable(w, []domain.Pokemon{p}, "") })
		},
	}
	cmd.Flags().StringVarP(&rawType, "type", "t", string(domain.TypeNormal), "Pokemon type")
	return cmd
}

// pokemon update <id>: rename or retype.
func pokemonUpdateCmd(c *cli) *cobra.Command {
	var name, rawType string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or retype a Pokemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.PokemonPatch
			if cmd.Flags().Changed("name") {
				n := domain.FormatPokemonName(domain.SanitizeInput(name))
				patch.Name = &n
			}
			if cmd.Flags().Changed("type") {
				typ, err := domain.ParsePokemonType(rawType)
				if err != nil {
					return err
				}
				patch.Type = &typ
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update: pass --name or --type")
			}
			if err := domain.ValidatePokemonPatch(patch); err != nil {
				return err
			}
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			if _, err := pokemonByID(ctx, app, args[0]); err != nil {
				return err
			}
			p, err := app.Pokemon.Update(ctx, args[0], patch)
			if err != nil {
				return err
			}
			return c.render(p, func(w io.Writer) { pokemonTable(w, []domain.Pokemon{p}, "") })
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVarP(&rawType, "type", "t", "", "new type")
	return cmd
}

// pokemon delete <id>: delete a Pokemon and, on the server, its Moves.
func pokemonDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a Pokemon and its Moves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			p, err := pokemonByID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Pokemon.Delete(ctx, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "deleted %s\n", p.Name)
			return nil
		},
	}
}

// pokemon xp <id> <amount>: grant experience directly.
func pokemonXPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "xp <id> <amount>",
		Short: "Add experience to a Pokemon",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("experience must be a number: %q", args[1])
			}
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			if _, err := pokemonByID(ctx, app, args[0]); err != nil {
				return err
			}
			p, err := app.Pokemon.AddExperience(ctx, args[0], amount)
			if err != nil {
				return err
			}
			return c.render(p, func(w io.Writer) { pokemonTable(w, []domain.Pokemon{p}, "") })
		},
	}
}

// pokemon select [id]: remember the Pokemon move commands default to.
func pokemonSelectCmd(c *cli) *cobra.Command {
	var unselect bool
	cmd := &cobra.Command{
		Use:   "select [id]",
		Short: "Select the Pokemon that move commands act on",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			if unselect {
				app.Pokemon.Select(nil)
				fmt.Fprintln(c.stdout, "selection cleared")
				return nil
			}
			if len(args) == 0 {
				sel := app.Pokemon.Selected()
				if sel == nil {
					fmt.Fprintln(c.stdout, "no Pokemon selected")
					return nil
				}
				return c.render(sel, func(w io.Writer) { pokemonTable(w, []domain.Pokemon{*sel}, sel.ID) })
			}
			p, err := pokemonByID(ctx, app, args[0])
			if err != nil {
				return err
			}
			app.Pokemon.Select(&p)
			fmt.Fprintf(c.stdout, "selected %s\n", p.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unselect, "clear", false, "clear the selection")
	return cmd
}
