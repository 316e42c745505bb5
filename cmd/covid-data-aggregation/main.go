package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/covid-data-aggregation/internal/api/http"
	"github.com/i474232898/covid-data-aggregation/internal/cache"
	"github.com/i474232898/covid-data-aggregation/internal/config"
	"github.com/i474232898/covid-data-aggregation/internal/covid"
	"github.com/i474232898/covid-data-aggregation/internal/covid/sources"
	"github.com/i474232898/covid-data-aggregation/internal/logging"
	"github.com/i474232898/covid-data-aggregation/internal/metrics"
	"github.com/i474232898/covid-data-aggregation/internal/scheduler"
)

const version = "2.0.0"

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "covid-data-aggregation",
		Short:         "Serve aggregate views over daily COVID-19 snapshot files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (environment variables take precedence)")

	root.AddCommand(serveCmd())
	root.AddCommand(reportCmd())

	return root
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "server port (default: from config)")
	return cmd
}

// deps bundles what every command needs.
type deps struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	service *covid.Service
}

func setup() (*deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	// Files are re-read on every query; the breaker only stops repeated
	// unexpected failures from hammering the disk.
	source := sources.NewGuarded(
		sources.NewDirectory(sources.DirectoryConfig{
			Dir:           cfg.DataDir,
			FallbackFile:  cfg.FallbackFile,
			ReferenceDate: cfg.Reference(),
			Logger:        log,
		}),
		sources.GuardConfig{
			Name:        "snapshots",
			MaxFailures: uint32(cfg.BreakerMaxFailures),
			OpenTimeout: cfg.BreakerOpenTimeout,
			Logger:      log,
		},
	)

	return &deps{
		cfg:     cfg,
		logger:  log,
		service: covid.NewService(source, log),
	}, nil
}

func runServe(port string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	if port == "" {
		port = rt.cfg.Port
	}

	metrics.BuildInfo.WithLabelValues(version).Set(1)

	memo := cache.New(rt.cfg.CacheTTL)

	sched := scheduler.New(memo, rt.cfg.CacheSweepInterval, rt.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "covid-data-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           rt.cfg.ReadTimeout,
		WriteTimeout:          rt.cfg.WriteTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
	}))
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, rt.service, memo, httpapi.Options{
		DefaultDays:     rt.cfg.DefaultDays,
		DefaultTopLimit: rt.cfg.DefaultTopLimit,
		MaxTopLimit:     rt.cfg.MaxTopLimit,
	})

	go func() {
		rt.logger.Info("server listening", "port", port, "data_dir", rt.cfg.DataDir, "cache_ttl", rt.cfg.CacheTTL)
		if err := app.Listen(":" + port); err != nil {
			rt.logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		rt.logger.Error("error during shutdown", "error", err)
	}
	return nil
}
