// Command pokemontodo manages Pokemon and their Moves (tasks) from the
// terminal, runs the development backend, and serves the MCP tools.
package main

import (
	"os"

	"pokemontodo/cmd/pokemontodo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
