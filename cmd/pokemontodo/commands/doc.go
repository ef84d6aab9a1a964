// Package commands defines the pokemontodo CLI and wires the client stores
// for subcommands.
//
// Commands
//
//   - pokemon   List, create, rename, retype, delete and train Pokemon
//   - move      Manage the Moves (tasks) of a Pokemon and complete them
//   - theme     Show or change the persisted dark-mode flag
//   - ai        Ask the backend for a Move power suggestion
//   - serve     Run the in-memory development backend
//   - mcp       Expose the stores as MCP tools
//   - reset     Forget persisted client state
//
// # Implementation
//
// The root command loads configuration and builds a logger before any
// subcommand runs. Commands that touch the stores open the App lazily so
// serve and mcp do not need a reachable backend. After each command the
// pending toasts are printed to stderr and client state is saved.
package commands
