// Command poi-importer loads Point of Interest files into a database and
// serves a read-only browser over the imported records.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/poi-importer/internal/config"
	"github.com/JonMunkholm/poi-importer/internal/core"
	_ "github.com/JonMunkholm/poi-importer/internal/core/formats" // Register all formats
	"github.com/JonMunkholm/poi-importer/internal/logging"
	"github.com/JonMunkholm/poi-importer/internal/migration"
	"github.com/JonMunkholm/poi-importer/internal/store"
	"github.com/JonMunkholm/poi-importer/internal/store/sqlite"
	"github.com/JonMunkholm/poi-importer/internal/web"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		os.Exit(1)
	}
}

// newApp builds the command tree. Reports go to out; logs go to stderr.
func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "poi-importer",
		Usage: "Import Point of Interest files (.csv, .json, .xml) into a database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file, overriding the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "db-driver",
				Usage: "Database driver (postgres, sqlite); overrides DB_DRIVER",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Usage:   "Database URL or sqlite file; overrides DATABASE_URL",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides LOG_LEVEL",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json); overrides LOG_FORMAT",
			},
		},
		Before: loadEnvironment,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import files, or the supported files directly inside directories",
				ArgsUsage: "PATH [PATH...]",
				Action:    func(c *cli.Context) error { return importCommand(c, out) },
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "batch-size",
						Aliases: []string{"b"},
						Usage:   "Records per insert call; overrides IMPORT_BATCH_SIZE",
					},
					&cli.StringFlag{
						Name:  "ledger",
						Usage: "Where imported file hashes are kept (database, badger); overrides IMPORT_LEDGER",
					},
					&cli.StringFlag{
						Name:  "ledger-path",
						Usage: "Badger ledger directory; overrides IMPORT_LEDGER_PATH",
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "Write run metrics in Prometheus text format to this file",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Exit non-zero when any file fails",
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations",
				Action: migrateCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "down",
						Usage: "Roll back every migration instead (postgres only)",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the record browser, JSON API and metrics over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Listen port; overrides SERVER_PORT",
					},
				},
			},
		},
	}
}

// loadEnvironment reads the env file and lets global flags override it.
func loadEnvironment(c *cli.Context) error {
	if path := c.String("env-file"); path != "" {
		// Overload overwrites existing env vars
		if err := godotenv.Overload(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) || c.IsSet("env-file") {
				return fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	overrides := map[string]string{
		"db-driver":    "DB_DRIVER",
		"database-url": "DATABASE_URL",
		"log-level":    "LOG_LEVEL",
		"log-format":   "LOG_FORMAT",
	}
	for flag, env := range overrides {
		if c.IsSet(flag) {
			if err := os.Setenv(env, c.String(flag)); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadConfig loads the configuration and installs the logger it describes.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return cfg, nil
}

func importCommand(c *cli.Context, out io.Writer) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one PATH is required", 2)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.IsSet("batch-size") {
		cfg.Import.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("ledger") {
		cfg.Import.Ledger = c.String("ledger")
	}
	if c.IsSet("ledger-path") {
		cfg.Import.LedgerPath = c.String("ledger-path")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx := logging.WithRunID(c.Context, runID)
	logger := logging.FromContext(ctx)

	backend, err := store.Open(ctx, cfg.Database, cfg.Import)
	if err != nil {
		return err
	}
	defer backend.Close()

	reg := prometheus.NewRegistry()
	importer := core.NewImporter(backend.Store, backend.Ledger, core.Options{
		BatchSize:     cfg.Import.BatchSize,
		HashChunkSize: cfg.Import.HashChunkSize,
		Out:           out,
		Metrics:       core.NewMetrics(reg),
		Logger:        logger,
		Progress: func(p core.FileProgress) {
			logger.Debug("progress", "file", p.Path, "phase", p.Phase, "records", p.Records, "percent", p.Percent())
		},
	})

	summary, err := importer.Run(ctx, c.Args().Slice())
	if err != nil {
		return err
	}

	if path := c.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if c.Bool("strict") && summary.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", summary.Failed, len(summary.Files)), 1)
	}
	return nil
}

func migrateCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		if c.Bool("down") {
			return cli.Exit("--down is only supported for postgres", 2)
		}
		s, err := sqlite.Open(cfg.Database.URL, true)
		if err != nil {
			return err
		}
		slog.Info("sqlite schema up to date", "path", cfg.Database.URL)
		return s.Close()

	default:
		if !c.Bool("down") {
			return store.Migrate(cfg.Database.URL)
		}
		m, err := migration.New(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer m.Close()
		if err := m.Down(); err != nil {
			return fmt.Errorf("roll back migrations: %w", err)
		}
		slog.Info("migrations rolled back")
		return nil
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	backend, err := store.Open(c.Context, cfg.Database, cfg.Import)
	if err != nil {
		return err
	}
	defer backend.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	server := web.NewServer(backend.Browser, reg, cfg.Server)

	// Graceful shutdown
	go func() {
		<-c.Context.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	return server.Start()
}
