// Package main is the entry point for the cross-venue cycle arbitrage engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fd1az/cycle-arb/business/arbitrage"
	arbitrageApp "github.com/fd1az/cycle-arb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/cycle-arb/business/arbitrage/di"
	"github.com/fd1az/cycle-arb/business/pricing"
	"github.com/fd1az/cycle-arb/internal/apm"
	"github.com/fd1az/cycle-arb/internal/config"
	"github.com/fd1az/cycle-arb/internal/health"
	"github.com/fd1az/cycle-arb/internal/logger"
	"github.com/fd1az/cycle-arb/internal/metrics"
	"github.com/fd1az/cycle-arb/internal/monolith"
	"github.com/fd1az/cycle-arb/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cycle-arb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// In TUI mode logs would corrupt the screen.
	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceIDFromContext)
	defer func() { _ = log.Sync() }()

	log.Info(ctx, "starting cycle arbitrage engine",
		"version", version,
		"environment", cfg.App.Environment,
		"provider", cfg.Pricing.Provider,
		"venues", cfg.Pricing.VenueIDs(),
	)

	shutdownTelemetry, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	if err := healthServer.Start(ctx); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = healthServer.Stop(stopCtx)
	}()

	mono := monolith.New(cfg, log, healthServer)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mono.Close(closeCtx)
	}()

	// Pricing first: arbitrage depends on its PricingService.
	modules := []monolith.Module{
		&pricing.Module{},
		&arbitrage.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	start := func() (*arbitrageApp.Detector, error) {
		if err := startModules(ctx, mono, modules); err != nil {
			return nil, err
		}
		detector := arbitrageDI.GetDetector(mono.Services())
		if err := detector.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start detector: %w", err)
		}
		return detector, nil
	}

	if tuiMode {
		return runTUI(ctx, cfg, start)
	}
	return runCLI(ctx, start, log)
}

// startModules turns a panicking service factory into an error.
func startModules(ctx context.Context, mono interface {
	StartModules(context.Context, ...monolith.Module) error
}, modules []monolith.Module) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to start modules: %v", r)
		}
	}()
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return nil
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	provider := apm.ParseProvider(cfg.Telemetry.TraceProvider)
	traceProvider, err := apm.NewTraceProvider(ctx, apm.Config{
		Provider:    provider,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    true,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider)

	opts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.NewPrometheusConfig()),
	}
	// Metrics share the collector when traces go out over OTLP gRPC.
	if provider == apm.OTLPGRPCProvider && cfg.Telemetry.OTLPEndpoint != "" {
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(cfg.Telemetry.OTLPEndpoint, nil, true),
		))
	}
	if _, err := metrics.NewMetricProvider(ctx, opts...); err != nil {
		_ = traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	promServer := metrics.NewPrometheusServer(log, metrics.WithPort(strconv.Itoa(cfg.Telemetry.PrometheusPort)))
	promServer.Start(ctx)
	log.Info(ctx, "prometheus metrics server started", "port", cfg.Telemetry.PrometheusPort)

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = promServer.Stop(stopCtx)
		if err := traceProvider.Stop(); err != nil {
			log.Warn(stopCtx, "trace provider shutdown failed", "error", err)
		}
	}, nil
}

func runCLI(ctx context.Context, start func() (*arbitrageApp.Detector, error), log *logger.Logger) error {
	detector, err := start()
	if err != nil {
		return err
	}
	log.Info(ctx, "all modules started, beginning arbitrage detection")

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	if err := detector.Stop(); err != nil {
		log.Error(context.Background(), "error stopping detector", "error", err)
	}
	return nil
}

func runTUI(ctx context.Context, cfg *config.Config, start func() (*arbitrageApp.Detector, error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	var started atomic.Bool

	onStart := func() {
		started.Store(true)
		ui.Send(ui.StartupMsg{Step: "pricing", Status: "connecting"})

		detector, err := start()
		if err != nil {
			ui.Send(ui.StartupMsg{Step: "pricing", Status: "failed", Message: err.Error()})
			ui.Send(ui.ErrorMsg{Error: err})
			done <- err
			return
		}
		ui.Send(ui.StartupMsg{Step: "pricing", Status: "connected"})
		ui.Send(ui.StartupMsg{Step: "detector", Status: "connected"})

		<-ctx.Done()
		done <- detector.Stop()
	}

	p := ui.NewProgram(cfg.Pricing.Base+"-"+cfg.Pricing.Quote, onStart)

	// A signal quits the program so Run returns.
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, runErr := p.Run()
	cancel()

	var stopErr error
	if started.Load() {
		select {
		case stopErr = <-done:
		case <-time.After(shutdownTimeout):
		}
	}

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	if stopErr != nil && !errors.Is(stopErr, context.Canceled) {
		return stopErr
	}
	return nil
}
