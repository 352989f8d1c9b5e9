package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"newsloom/ingestor/internal/annotate"
	"newsloom/ingestor/internal/config"
	"newsloom/ingestor/internal/database"
	"newsloom/ingestor/internal/extract"
	"newsloom/ingestor/internal/feeds"
	"newsloom/ingestor/internal/importfeeds"
	"newsloom/ingestor/internal/normalize"
	"newsloom/ingestor/internal/pipeline"
	"newsloom/ingestor/internal/server"
	"newsloom/ingestor/internal/storage"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func usage() {
	fmt.Println("Usage: ingestor [command] [options]")
	fmt.Println("Commands: import, run, server")
	fmt.Println("\nFor command-specific options, use: ingestor [command] -h")
}

func main() {
	cfg := config.DefaultConfig()

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importCmd.StringVar(&cfg.FeedsCSVPath, "csv", config.GetEnvString("NEWSLOOM_CSV_PATH", config.DefaultFeedsCSVPath),
		"Path to the feeds CSV file (env: NEWSLOOM_CSV_PATH)")
	importCmd.StringVar(&cfg.DBPath, "db", config.GetEnvString("NEWSLOOM_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: NEWSLOOM_DB_PATH)")
	importLogLevel := importCmd.String("log-level", config.GetEnvString("NEWSLOOM_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: NEWSLOOM_LOG_LEVEL)")

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	runCmd.StringVar(&cfg.DBPath, "db", config.GetEnvString("NEWSLOOM_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: NEWSLOOM_DB_PATH)")
	runSettings := runCmd.String("settings", config.GetEnvString("NEWSLOOM_SETTINGS", ""),
		"Path to the YAML settings file (env: NEWSLOOM_SETTINGS)")
	runLogLevel := runCmd.String("log-level", config.GetEnvString("NEWSLOOM_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: NEWSLOOM_LOG_LEVEL)")
	intervalMinutes := runCmd.Int("interval", config.GetEnvInt("NEWSLOOM_INTERVAL", config.DefaultInterval),
		"Interval in minutes between ingestion runs, 0 for one-shot mode (env: NEWSLOOM_INTERVAL)")
	runCmd.IntVar(&cfg.WorkerCount, "workers", config.GetEnvInt("NEWSLOOM_WORKER_COUNT", config.DefaultWorkerCount),
		"Number of concurrent feed workers (env: NEWSLOOM_WORKER_COUNT)")
	runCmd.BoolVar(&cfg.Pipeline.DropUndated, "drop-undated", config.GetEnvBool("NEWSLOOM_DROP_UNDATED", false),
		"Skip entries whose publish timestamp cannot be parsed (env: NEWSLOOM_DROP_UNDATED)")

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	serverCmd.StringVar(&cfg.DBPath, "db", config.GetEnvString("NEWSLOOM_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: NEWSLOOM_DB_PATH)")
	serverSettings := serverCmd.String("settings", config.GetEnvString("NEWSLOOM_SETTINGS", ""),
		"Path to the YAML settings file (env: NEWSLOOM_SETTINGS)")
	serverCmd.StringVar(&cfg.ServerHost, "host", config.GetEnvString("NEWSLOOM_HOST", config.DefaultServerHost),
		"Host to bind the server to (env: NEWSLOOM_HOST)")
	serverCmd.IntVar(&cfg.ServerPort, "port", config.GetEnvInt("NEWSLOOM_PORT", config.DefaultServerPort),
		"Port to listen on (env: NEWSLOOM_PORT)")
	serverLogLevel := serverCmd.String("log-level", config.GetEnvString("NEWSLOOM_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: NEWSLOOM_LOG_LEVEL)")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		importCmd.Parse(os.Args[2:])
		setLogLevel(*importLogLevel)

		if err := runImport(cfg); err != nil {
			log.Error().Err(err).Msg("Import failed")
			os.Exit(1)
		}

	case "run":
		runCmd.Parse(os.Args[2:])
		setLogLevel(*runLogLevel)
		cfg.Interval = time.Duration(*intervalMinutes) * time.Minute

		if err := cfg.LoadSettings(*runSettings); err != nil {
			log.Error().Err(err).Msg("Failed to load settings")
			os.Exit(1)
		}

		if err := runIngestion(cfg); err != nil {
			log.Error().Err(err).Msg("Ingestion failed")
			os.Exit(1)
		}

	case "server":
		serverCmd.Parse(os.Args[2:])
		setLogLevel(*serverLogLevel)

		if err := cfg.LoadSettings(*serverSettings); err != nil {
			log.Error().Err(err).Msg("Failed to load settings")
			os.Exit(1)
		}

		if err := runServer(cfg); err != nil {
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}

	case "-h", "--help", "help":
		usage()
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		usage()
		os.Exit(1)
	}
}

func setLogLevel(levelStr string) {
	level := config.GetEnvLogLevel("NEWSLOOM_LOG_LEVEL", zerolog.InfoLevel)
	if parsed, err := zerolog.ParseLevel(levelStr); err == nil {
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
}

// runImport imports feed configurations from a CSV file.
func runImport(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	importer := importfeeds.NewImporter(storage.NewRepository(db))
	return importer.ImportFeeds(context.Background(), cfg.FeedsCSVPath)
}

// runIngestion executes the pipeline once or periodically based on configuration.
func runIngestion(cfg *config.Config) error {
	if cfg.Interval <= 0 {
		log.Info().Msg("Running in one-shot mode")
	} else {
		log.Info().Int64("interval_minutes", int64(cfg.Interval.Minutes())).Msg("Running in periodic mode")
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-shutdown
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	pipe := buildPipeline(cfg, db)

	runOnce := func() error {
		runCtx, cancelRun := context.WithTimeout(ctx, 30*time.Minute)
		defer cancelRun()

		start := time.Now()
		result := pipe.Run(runCtx)
		log.Info().
			Dur("duration", time.Since(start)).
			Str("status", result.Status).
			Str("message", result.Message).
			Int("processed", result.Processed).
			Msg("Ingestion cycle finished")

		if result.Status == pipeline.StatusError {
			return errors.New(result.Message)
		}
		return nil
	}

	if err := runOnce(); err != nil {
		if cfg.Interval == 0 {
			return err
		}
		log.Error().Err(err).Msg("Ingestion cycle failed")
	}

	if cfg.Interval == 0 {
		log.Info().Msg("One-shot ingestion completed, exiting")
		return nil
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", cfg.Interval).
		Time("next_run", time.Now().Add(cfg.Interval)).
		Msg("Waiting for next ingestion cycle")

	for {
		select {
		case <-ticker.C:
			if err := runOnce(); err != nil {
				log.Error().Err(err).Msg("Ingestion cycle failed")
				// Continue to the next cycle rather than exiting
			}
			log.Info().
				Time("next_run", time.Now().Add(cfg.Interval)).
				Msg("Waiting for next ingestion cycle")

		case <-ctx.Done():
			log.Info().Msg("Shutting down periodic ingestion")
			return nil
		}
	}
}

// runServer starts the HTTP API server with the ingestion trigger enabled.
func runServer(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	pipe := buildPipeline(cfg, db)
	return server.RunServer(db, pipe, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}

func openDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// buildPipeline wires the pipeline stages. Model and connection handles are
// created here and threaded through explicitly; nothing is ambient.
func buildPipeline(cfg *config.Config, db *database.DB) *pipeline.Pipeline {
	repo := storage.NewRepository(db)
	pageClient := &http.Client{Timeout: 15 * time.Second}

	return pipeline.New(pipeline.Deps{
		FeedStore:  repo,
		Enumerator: feeds.NewEnumerator(cfg.Pipeline, nil),
		Extractor:  extract.NewExtractor(pageClient, cfg.Pipeline.MinExtractWords),
		Normalizer: normalize.Normalizer{MinWords: cfg.Pipeline.MinNormalizedWords},
		Annotator:  annotate.New(annotate.NewClient(cfg.Inference, nil)),
		Writer:     repo,
	}, cfg.WorkerCount)
}
