// Package server is an in-memory reference backend for the Pokemon TODO REST
// API. It backs the `serve` command during development and the end-to-end
// tests of the client stores.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by GET /.
const Version = "1.0.0"

// APIPrefix is the base path of every REST route.
const APIPrefix = "/api/v1"

// Options configures a Server. The zero value serves an empty store with no
// metrics endpoint.
type Options struct {
	Logger *slog.Logger
	// Registry enables request metrics and GET /metrics.
	Registry *prometheus.Registry
	// Model answers the /ai endpoints; nil always uses the fallback rule.
	Model PowerModel
	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string
	// AccessLog adds gin's request logger.
	AccessLog bool
	Now       func() time.Time
}

// Server is the gin engine plus its backing store.
type Server struct {
	router *gin.Engine
	store  *Store
	model  PowerModel
	log    *slog.Logger
	now    func() time.Time
}

// New builds the router and registers request metrics when a registry is set.
func New(opts Options) (*Server, error) {
	s := &Server{
		router: gin.New(),
		model:  opts.Model,
		log:    opts.Logger,
		now:    opts.Now,
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.store = NewStore(s.now)

	if opts.AccessLog {
		s.router.Use(gin.Logger())
	}
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.log.Error("handler panic", "panic", recovered, "path", c.Request.URL.Path)
		s.abort(c, http.StatusInternalServerError, "An unexpected error occurred", nil, codeInternal)
	}))
	if len(opts.CORSOrigins) > 0 {
		s.router.Use(cors(opts.CORSOrigins))
	}
	if opts.Registry != nil {
		m, err := newRequestMetrics(opts.Registry)
		if err != nil {
			return nil, err
		}
		s.router.Use(m.middleware())
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)
	s.router.NoRoute(s.handleNoRoute)

	v1 := s.router.Group(APIPrefix)
	{
		pokemon := v1.Group("/pokemon")
		pokemon.GET("", s.handleListPokemon)
		pokemon.POST("", s.handleCreatePokemon)
		pokemon.GET("/:pokemon_id", s.handleGetPokemon)
		pokemon.PUT("/:pokemon_id", s.handleUpdatePokemon)
		pokemon.DELETE("/:pokemon_id", s.handleDeletePokemon)
		pokemon.POST("/:pokemon_id/add-experience", s.handleAddExperience)

		moves := v1.Group("/moves")
		moves.POST("", s.handleCreateMove)
		moves.GET("/pokemon/:pokemon_id", s.listMoves(AllMoves))
		moves.GET("/pokemon/:pokemon_id/completed", s.listMoves(CompletedMoves))
		moves.GET("/pokemon/:pokemon_id/pending", s.listMoves(PendingMoves))
		moves.GET("/:move_id", s.handleGetMove)
		moves.PUT("/:move_id", s.handleUpdateMove)
		moves.DELETE("/:move_id", s.handleDeleteMove)
		moves.POST("/:move_id/complete", s.handleCompleteMove)

		ai := v1.Group("/ai")
		ai.POST("/calculate-power", s.handlePower)
		ai.POST("/suggest-power", s.handlePower)
		ai.GET("/health", s.handleAIHealth)
	}
	return s, nil
}

// Handler returns the HTTP handler, for httptest or a custom http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// Store exposes the backing store for seeding and inspection.
func (s *Server) Store() *Store { return s.store }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dev server listening", "addr", addr, "prefix", APIPrefix)
		errCh <- srv.ListenAndServe()
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
	s.log.Info("dev server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func cors(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
