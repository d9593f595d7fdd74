package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"vinechain/config"
	"vinechain/core"
	"vinechain/core/events"
	"vinechain/core/genesis"
	"vinechain/gateway/middleware"
	"vinechain/gateway/routes"
	"vinechain/indexer"
	"vinechain/native/content"
	"vinechain/native/issuance"
	"vinechain/observability/logging"
	"vinechain/observability/metrics"
	telemetry "vinechain/observability/otel"
	"vinechain/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis YAML file (overrides config GenesisFile)")
	flag.Parse()

	if err := run(*configFile, *genesisFlag); err != nil {
		fmt.Fprintf(os.Stderr, "vined: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, genesisOverride string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := logging.Setup(logging.Options{
		Service:    "vined",
		Env:        cfg.Env,
		Level:      cfg.Logging.Level,
		File:       cfg.ResolvePath(cfg.Logging.File),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "vined",
		Environment: cfg.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	economics, err := cfg.Economics.Parse()
	if err != nil {
		return fmt.Errorf("economics: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	spec, err := loadGenesis(cfg, genesisOverride)
	if err != nil {
		db.Close()
		return err
	}

	stream := core.NewEventStream(cfg.Gateway.StreamBuffer)
	stream.OnSubscribe = metrics.Economy().TrackSubscriber
	sinks := events.Fanout{stream}

	var archive routes.Archive
	archiveDB, err := indexer.Open(archiveConfig(cfg))
	if err != nil {
		db.Close()
		return err
	}
	if archiveDB != nil {
		if sqlDB, err := archiveDB.DB(); err == nil {
			defer sqlDB.Close()
		}
		ix := indexer.New(archiveDB, logger.With(slog.String("component", "indexer")))
		sinks = append(sinks, ix)
		archive = ix
		logger.Info("event archive enabled", slog.String("driver", cfg.Indexer.Driver))
	}

	node, err := core.NewNode(db, core.NodeOptions{
		Params: core.ProcessorParams{
			Issuance: issuance.Params{
				CreatorAssetDeposit: economics.CreatorAssetDeposit,
				ExistenceUnits:      economics.ExistenceUnits,
			},
			Content: content.Params{
				CreationReward:    economics.CreationReward,
				ViewerReward:      economics.ViewerReward,
				CreatorViewReward: economics.CreatorViewReward,
				MaxMetadataBytes:  economics.MaxMetadataBytes,
			},
		},
		Genesis: spec,
		Sink:    sinks,
		Logger:  logger.With(slog.String("component", "node")),
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("create node: %w", err)
	}
	defer node.Close()

	handler := routes.New(routes.Config{
		Node:    node,
		Archive: archive,
		Stream:  stream,
		Logger:  logger.With(slog.String("component", "gateway")),
		RateLimit: middleware.RateLimit{
			RatePerSecond: cfg.Gateway.RateLimitPerSecond,
			Burst:         cfg.Gateway.RateLimitBurst,
		},
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName:   "vine-gateway",
			MetricsPrefix: "vine_gateway",
			LogRequests:   strings.EqualFold(cfg.Logging.Level, "debug"),
		}, logger),
	})
	srv := &http.Server{
		Addr:              cfg.Gateway.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Gateway.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Gateway.WriteTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("gateway: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("gateway shutdown", slog.Any("error", err))
	}
	return nil
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	if cfg.Storage.Backend == config.BackendMemory {
		return storage.NewMemDB(), nil
	}
	path := filepath.Join(cfg.DataDir, "state")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return storage.NewLevelDBWithOptions(path, storage.LevelDBOptions{
		CacheMiB:  cfg.Storage.CacheMiB,
		OpenFiles: cfg.Storage.OpenFiles,
	})
}

// archiveConfig anchors a relative sqlite file under DataDir.
func archiveConfig(cfg *config.Config) config.IndexerConfig {
	out := cfg.Indexer
	if out.Driver != config.DriverSQLite || strings.HasPrefix(out.DSN, "file:") || strings.Contains(out.DSN, ":memory:") {
		return out
	}
	out.DSN = cfg.ResolvePath(out.DSN)
	_ = os.MkdirAll(filepath.Dir(out.DSN), 0o755)
	return out
}

func loadGenesis(cfg *config.Config, override string) (*genesis.Spec, error) {
	path := strings.TrimSpace(override)
	if path == "" {
		path = strings.TrimSpace(cfg.GenesisFile)
		if path == "" {
			return nil, nil
		}
		path = cfg.ResolvePath(path)
	}
	spec, err := genesis.LoadSpec(path)
	if err != nil {
		return nil, fmt.Errorf("load genesis: %w", err)
	}
	return spec, nil
}
