package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"pokemontodo/internal/api"
	"pokemontodo/internal/core"
	"pokemontodo/pkg/domain"
)

// render writes v as JSON or YAML, or hands the writer to table for the
// default format.
func (c *cli) render(v any, table func(w io.Writer)) error {
	switch c.output {
	case "json":
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(c.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(toPlain(v)); err != nil {
			return err
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// toPlain round-trips v through JSON so YAML output uses the same keys as
// the REST payloads.
func toPlain(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func pokemonTable(w io.Writer, list []domain.Pokemon, selected string) {
	fmt.Fprintln(w, "\tID\tNAME\tTYPE\tLEVEL\tXP\tSTAGE")
	for _, p := range list {
		mark := ""
		if p.ID == selected {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\n",
			mark, p.ID, p.Name, p.Type, p.Level, formatXP(p.Experience), p.EvolutionStage)
	}
}

func moveTable(w io.Writer, list []domain.Move) {
	fmt.Fprintln(w, "ID\tNAME\tPOWER\tDONE\tREWARD\tCOMPLETED AT")
	for _, m := range list {
		done := "no"
		at := ""
		if m.IsCompleted {
			done = "yes"
		}
		if m.CompletedAt != nil {
			at = m.CompletedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			m.ID, m.Name, m.Power, done, formatXP(domain.ExperienceReward(m.Power)), at)
	}
}

func formatXP(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// userError turns store and transport errors into the text shown after
// "Error:".
func userError(err error) string {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	var nf core.ErrNotFound
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.UserMessage(err)
	}
	return strings.TrimSpace(err.Error())
}
