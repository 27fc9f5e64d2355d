// Command maestro runs the conversational orchestration service.
//
// Usage:
//
//	maestro serve
//	maestro serve --port 9090 --log-level debug
//	maestro version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/maestrohq/maestro/pkg/analyzer"
	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/llms"
	"github.com/maestrohq/maestro/pkg/logger"
	"github.com/maestrohq/maestro/pkg/observability"
	"github.com/maestrohq/maestro/pkg/orchestrator"
	"github.com/maestrohq/maestro/pkg/profile"
	"github.com/maestrohq/maestro/pkg/router"
	"github.com/maestrohq/maestro/pkg/search"
	"github.com/maestrohq/maestro/pkg/server"
	"github.com/maestrohq/maestro/pkg/store"
	"github.com/maestrohq/maestro/pkg/tools"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the orchestration server."`

	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("maestro version %s\n", version)
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Port    int  `help:"Port to listen on." default:"8080"`
	Metrics bool `help:"Expose Prometheus metrics on /metrics." default:"true" negatable:""`
	Tracing bool `help:"Enable stdout trace export."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.GetLogger().Info("shutting down")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.Port != 0 && c.Port != 8080 {
		cfg.Server.Port = c.Port
	}
	cfg.Server.MetricsEnabled = c.Metrics
	cfg.Server.TracingEnabled = c.Tracing
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}

	tp, err := observability.InitGlobalTracer(ctx, observability.TracerConfig{
		Enabled:      cfg.Server.TracingEnabled,
		SamplingRate: 1.0,
		ServiceName:  "maestro",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if shutdowner, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		defer shutdowner.Shutdown(context.Background())
	}

	metrics, err := observability.InitMetrics(ctx, observability.MetricsConfig{
		Enabled: cfg.Server.MetricsEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	observability.SetGlobalMetrics(metrics)

	log := logger.GetLogger()

	st, err := store.New(ctx, &cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close(context.Background())

	if err := st.SeedModels(ctx, store.DefaultCatalog()); err != nil {
		log.Warn("failed to seed model catalog", "error", err)
	}

	toolRegistry := tools.NewToolRegistry()
	if err := tools.RegisterBuiltins(toolRegistry, &cfg.Tools); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}
	log.Info("tools registered", "count", toolRegistry.Count())

	providers := llms.NewProviderRegistry()
	if err := providers.RegisterEnabled(cfg.Providers, toolRegistry); err != nil {
		return fmt.Errorf("failed to register providers: %w", err)
	}
	defer providers.Close()

	if providers.Count() == 0 {
		return fmt.Errorf("no providers enabled: set at least one provider API key")
	}

	decision := llms.NewDecisionClient(&cfg.Decision)

	orch := orchestrator.New(
		router.New(decision, time.Duration(cfg.Orchestrator.RouterTimeoutSeconds)*time.Second),
		search.NewManager(toolRegistry, decision, &cfg.Search),
		search.NewOptimizer(decision),
		analyzer.New(decision),
		providers,
		profile.NewManager(st, cfg.Tools.WeatherFlowStationID),
		st,
		&cfg.Orchestrator,
		&cfg.Search,
	)

	srv := server.New(orch, st, &cfg.Server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("maestro"),
		kong.Description("Maestro - multi-provider conversational orchestration service"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}

	output := os.Stderr
	if cli.LogFile != "" {
		file, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		output = file
	}
	logger.Init(level, output, cli.LogFormat)

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
