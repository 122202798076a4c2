// Package main is the entry point for the AFI signal gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/afi-protocol/afi-gateway/internal/apikey"
	"github.com/afi-protocol/afi-gateway/internal/config"
	"github.com/afi-protocol/afi-gateway/internal/gateway"
	"github.com/afi-protocol/afi-gateway/internal/health"
	"github.com/afi-protocol/afi-gateway/internal/observability"
	"github.com/afi-protocol/afi-gateway/internal/ratelimit"
	"github.com/afi-protocol/afi-gateway/internal/reactor"
	"github.com/afi-protocol/afi-gateway/internal/vault"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)

	run(cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("GATEWAY_CONFIG_PATH", "configs/gateway.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("GATEWAY_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("GATEWAY_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

func printVersion() {
	fmt.Printf("afi-gateway version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func loadAndValidateConfig(path string, logger observability.Logger) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("failed to load configuration",
			observability.String("path", path),
			observability.Error(err),
		)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}
	if cfg.Auth.Salt == "" {
		logger.Warn("auth.salt is empty; credential fingerprints are unsalted")
	}
	return cfg
}

func run(cfg *config.Config, logger observability.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := connectMongo(ctx, cfg, logger)
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect failed", observability.Error(err))
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	hasher := apikey.NewSHA256Hasher(cfg.Auth.Salt)

	store := apikey.NewMongoStore(db.Collection(cfg.Mongo.KeysCollection), hasher,
		apikey.WithMongoStoreLogger(logger),
		apikey.WithOperationTimeout(cfg.Mongo.OperationTimeout),
	)
	factory := vault.NewMongoFactory(db.Collection(cfg.Mongo.VaultCollection),
		vault.WithMongoFactoryLogger(logger),
		vault.WithMongoFactoryTimeout(cfg.Mongo.OperationTimeout),
	)

	// The gateway must not serve traffic without the fingerprint
	// uniqueness guarantee.
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to ensure api key indexes", observability.Error(err))
	}
	if err := factory.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to ensure vault indexes", observability.Error(err))
	}

	metrics := observability.NewMetrics("afi_gateway")
	limiter := buildLimiter(cfg, logger)

	scorer := reactor.NewClient(cfg.Reactor.BaseURL, cfg.Reactor.Timeout,
		reactor.WithClientLogger(logger),
		reactor.WithClientMetrics(metrics),
		reactor.WithSharedSecret(cfg.Reactor.SharedSecret),
	)

	checker := health.NewChecker(gateway.ServiceName)
	checker.RegisterCheck("mongo", func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	checker.RegisterCheck("reactor", func(ctx context.Context) error {
		_, err := scorer.Health(ctx)
		return err
	})

	router := gateway.NewRouter(gateway.RouterConfig{
		Store:   store,
		Factory: factory,
		Limiter: limiter,
		DefaultRule: ratelimit.Rule{
			Limit:  cfg.RateLimit.Limit,
			Window: cfg.RateLimit.Window(),
		},
		Checker: checker,
		Logger:  logger,
		Metrics: metrics,
	})

	server := gateway.NewServer(router, cfg.Server, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", observability.Error(err))
		}
		return
	}

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown failed", observability.Error(err))
	}
	logger.Info("gateway stopped")
}

func connectMongo(ctx context.Context, cfg *config.Config, logger observability.Logger) *mongo.Client {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("failed to connect to mongo", observability.Error(err))
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		logger.Fatal("mongo ping failed", observability.Error(err))
	}

	logger.Info("connected to mongo",
		observability.String("database", cfg.Mongo.Database),
	)
	return client
}

// buildLimiter selects the rate-limit backend: redis when an address
// is configured (shared counters across instances), in-process
// fixed-window counters otherwise.
func buildLimiter(cfg *config.Config, logger observability.Logger) ratelimit.Limiter {
	if cfg.Redis.Address == "" {
		logger.Info("using in-process rate limiter")
		return ratelimit.NewFixedWindowLimiter()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	logger.Info("using redis rate limiter",
		observability.String("address", cfg.Redis.Address),
	)
	return ratelimit.NewRedisLimiter(client, cfg.Redis.Prefix,
		ratelimit.WithRedisLimiterLogger(logger),
	)
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
