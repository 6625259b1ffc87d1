// Command readings-sync runs a single sync pass of the readings file into the store
// and prints the resulting report as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tempdash/backend/libs/logging"
	"tempdash/backend/services/dashboard-service/internal/app"
	"tempdash/backend/services/dashboard-service/internal/auth"
	"tempdash/backend/services/dashboard-service/internal/config"
	"tempdash/backend/services/dashboard-service/internal/ingest"
	"tempdash/backend/services/dashboard-service/internal/repository"
	"tempdash/backend/services/dashboard-service/internal/service"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config")
		source     = flag.String("source", "", "readings file, overrides config")
		logLevel   = flag.String("log-level", "", "log level, overrides LOG_LEVEL")
		hashPass   = flag.String("hash-password", "", "print a bcrypt hash for auth.passwordHash and exit")
	)
	flag.Parse()

	if *hashPass != "" {
		hash, err := auth.HashPassword(*hashPass, bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	logger, err := logging.NewLoggerWithOptions(logging.Options{Level: *logLevel, Console: true})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *source, logger); err != nil {
		logger.Error("sync pass failed", zap.Error(err))
		logger.Sync()
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, configPath, source string, logger *zap.Logger) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	if source != "" {
		cfg.Source.Path = source
	}

	sqlDB, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store, err := repository.NewStore(cfg.Database.Driver, sqlDB)
	if err != nil {
		return err
	}
	normalizer, err := app.NewNormalizer(cfg)
	if err != nil {
		return err
	}

	report, err := service.NewSyncService(store, normalizer, cfg.Source.Path, cfg.DelimiterRune(), logger).Sync(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, ingest.ErrSourceUnavailable):
		return 2
	case errors.Is(err, service.ErrSyncFailed):
		return 3
	default:
		return 1
	}
}
