// Package mcptools exposes the Pokemon and Move store actions as Model
// Context Protocol tools so agents can manage the task list.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pokemontodo/internal/core"
)

// Transports accepted by Serve.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// New creates an MCP server with every tool registered against app.
func New(app *core.App, log *slog.Logger, version string) *mcp.Server {
	t := &Tools{App: app, Log: log}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "pokemontodo",
		Version: version,
	}, nil)

	// Pokemon tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_pokemon",
		Description: "List every Pokemon with its level, experience and evolution stage",
	}, t.ListPokemon)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_pokemon",
		Description: "Create a Pokemon to group related tasks",
	}, t.CreatePokemon)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_experience",
		Description: "Add experience to a Pokemon; every 100 experience is a level",
	}, t.AddExperience)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_pokemon",
		Description: "Permanently delete a Pokemon and all of its Moves (irreversible)",
	}, t.DeletePokemon)

	// Move tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_moves",
		Description: "List the Moves (tasks) of a Pokemon, optionally only completed or pending ones",
	}, t.ListMoves)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_move",
		Description: "Create a Move (task) for a Pokemon; power is suggested when omitted",
	}, t.CreateMove)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "complete_move",
		Description: "Complete a Move and award its experience to the owning Pokemon",
	}, t.CompleteMove)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_move",
		Description: "Permanently delete a Move",
	}, t.DeleteMove)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "suggest_power",
		Description: "Estimate a power between 1 and 100 for a task description",
	}, t.SuggestPower)

	return srv
}

// ServeOptions selects the transport. Registry, when set, adds GET /metrics
// next to the MCP endpoint in http mode.
type ServeOptions struct {
	Transport string
	Addr      string
	Registry  *prometheus.Registry
	Log       *slog.Logger
}

// Serve runs srv until ctx is cancelled.
func Serve(ctx context.Context, srv *mcp.Server, opts ServeOptions) error {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	switch opts.Transport {
	case "", TransportStdio:
		log.Info("MCP server starting", "transport", TransportStdio)
		return srv.Run(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return serveHTTP(ctx, srv, opts, log)
	default:
		return fmt.Errorf("unknown transport %q (use stdio or http)", opts.Transport)
	}
}

// Handler returns the streamable HTTP handler mounted at "/", with /metrics
// when a registry is given.
func Handler(srv *mcp.Server, reg *prometheus.Registry) http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil)
	if reg == nil {
		return mcpHandler
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", mcpHandler)
	return mux
}

func serveHTTP(ctx context.Context, srv *mcp.Server, opts ServeOptions, log *slog.Logger) error {
	httpSrv := &http.Server{
		Addr:              opts.Addr,
		Handler:           Handler(srv, opts.Registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("MCP server listening", "transport", TransportHTTP, "addr", opts.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
