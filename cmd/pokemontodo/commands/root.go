package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"pokemontodo/internal/api"
	"pokemontodo/internal/blob"
	"pokemontodo/internal/config"
	"pokemontodo/internal/core"
)

// Version is stamped into the MCP implementation info.
var Version = "0.1.0"

const resetHint = "If this keeps happening, run `pokemontodo reset` to clear saved state."

// cli carries the per-invocation state shared by every subcommand.
type cli struct {
	configPath string
	output     string
	trace      bool

	stdout io.Writer
	stderr io.Writer

	cfg      config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	client   *api.Client
	app      *core.App
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// run executes one command line. A panic inside a command is reported
// without a stack trace unless dev mode is on.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	root, c := newRootCmd(stdout, stderr)
	defer func() {
		if r := recover(); r != nil {
			err = c.recovered(r)
		}
	}()
	root.SetArgs(args)
	runErr := root.ExecuteContext(ctx)
	closeErr := c.teardown(context.WithoutCancel(ctx))
	if runErr != nil {
		fmt.Fprintln(stderr, "Error:", userError(runErr))
		return runErr
	}
	if closeErr != nil {
		fmt.Fprintln(stderr, "Error: save client state:", closeErr)
	}
	return closeErr
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *cli) {
	c := &cli{stdout: stdout, stderr: stderr, cfg: config.DefaultConfig()}
	root := &cobra.Command{
		Use:           "pokemontodo",
		Short:         "Level up your Pokemon by finishing tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.pokemontodo/config.yaml)")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "table", "output format: table, json or yaml")
	root.PersistentFlags().BoolVar(&c.trace, "trace", false, "write a JSON span per store action to stderr")

	root.AddCommand(
		pokemonCmd(c),
		moveCmd(c),
		themeCmd(c),
		aiCmd(c),
		serveCmd(c),
		mcpCmd(c),
		resetCmd(c),
	)
	return root, c
}

func (c *cli) setup() error {
	switch c.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (use table, json or yaml)", c.output)
	}
	cfg, err := config.Load(config.ResolvePath(c.configPath))
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = config.NewLogger(cfg.Log, c.stderr)
	if cfg.Metrics.Enabled {
		c.registry = prometheus.NewRegistry()
	}
	return nil
}

// openApp builds the REST client, state storage and App on first use and
// restores persisted state.
func (c *cli) openApp(ctx context.Context) (*core.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	client, err := api.New(c.cfg.API.BaseURL, api.WithTimeout(c.cfg.API.Timeout), api.WithUserAgent("pokemontodo-cli/"+Version))
	if err != nil {
		return nil, err
	}
	storage, err := core.OpenStateStorage(ctx, storageOptions(c.cfg))
	if err != nil {
		return nil, fmt.Errorf("open state storage: %w", err)
	}
	opts := []core.StoreOption{core.WithLogger(c.log)}
	if c.registry != nil {
		prom, err := core.NewPrometheusRecorder(c.registry)
		if err != nil {
			_ = storage.Close()
			return nil, err
		}
		opts = append(opts, core.WithMetrics(core.MultiRecorder{prom, core.NewExpvarMetricsRecorder("", nil)}))
	}
	if c.trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(c.stderr, nil)))
	}
	app := core.NewApp(core.BackendsFromClient(client), storage, core.AppConfig{
		PokemonTTL: c.cfg.Cache.PokemonTTL,
		MovesTTL:   c.cfg.Cache.MovesTTL,
	}, nil, opts...)
	if err := app.Load(ctx); err != nil {
		c.log.Warn("restore client state failed", "error", err)
	}
	c.client, c.app = client, app
	return app, nil
}

// teardown prints pending notifications, saves state and releases storage.
// It runs after every command, failed or not.
func (c *cli) teardown(ctx context.Context) error {
	if c.app == nil {
		return nil
	}
	c.flushNotices()
	app := c.app
	c.app = nil
	return app.Close(ctx)
}

func (c *cli) flushNotices() {
	if b := c.app.UI.Banner(); b != nil {
		fmt.Fprintf(c.stderr, "! %s unavailable: %s\n", b.Source, b.Message)
	}
	for _, t := range c.app.UI.Toasts() {
		if t.Kind == core.ToastError {
			continue
		}
		fmt.Fprintf(c.stderr, "[%s] %s\n", t.Kind, t.Message)
	}
}

func (c *cli) recovered(r any) error {
	fmt.Fprintln(c.stderr, "Something went wrong.")
	if c.cfg.Dev {
		fmt.Fprintf(c.stderr, "%v\n%s", r, debug.Stack())
	}
	fmt.Fprintln(c.stderr, resetHint)
	if c.log != nil {
		c.log.Error("command panicked", "panic", fmt.Sprint(r))
	}
	if c.app != nil {
		_ = c.app.Storage().Close()
		c.app = nil
	}
	return fmt.Errorf("panic: %v", r)
}

func storageOptions(cfg config.Config) core.StorageOptions {
	return core.StorageOptions{
		Driver:      core.StorageDriver(cfg.Storage.Driver),
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
		Prefix:      cfg.Blob.Prefix,
		Blob: blob.Config{
			Driver: blob.Driver(cfg.Blob.Driver),
			FSRoot: cfg.Blob.FSRoot,
			S3: blob.S3Config{
				Region:          cfg.Blob.S3.Region,
				Bucket:          cfg.Blob.S3.Bucket,
				Endpoint:        cfg.Blob.S3.Endpoint,
				AccessKeyID:     cfg.Blob.S3.AccessKeyID,
				SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
				PathStyle:       cfg.Blob.S3.PathStyle,
			},
		},
	}
}
