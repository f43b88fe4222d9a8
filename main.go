package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/phihc116/attr-backfill/internals/backfill"
	"github.com/phihc116/attr-backfill/internals/config"
	"github.com/phihc116/attr-backfill/internals/infrastructure"
	"github.com/phihc116/attr-backfill/internals/ledger"
	"github.com/phihc116/attr-backfill/internals/migrations"
	"github.com/phihc116/attr-backfill/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, logFile := infrastructure.NewLogger(cfg.Logging, os.Stdout)
	defer logFile.Close()

	ctx := context.Background()

	if err := infrastructure.InitDataStore(ctx, cfg); err != nil {
		logger.Error().Err(err).Msg("init data store")
		exit(logFile, 1)
	}
	defer infrastructure.CloseSQL()

	metrics, err := infrastructure.NewMetrics(cfg.Metrics)
	if err != nil {
		logger.Error().Err(err).Msg("init metrics")
		exit(logFile, 1)
	}
	defer metrics.Close()

	opts := []backfill.Option{
		backfill.WithLogger(logger),
		backfill.WithMetrics(metrics),
	}
	if db := infrastructure.GetSQLClient(); db != nil {
		if err := migrations.RunMigrations(db); err != nil {
			logger.Error().Err(err).Msg("migrate ledger")
			exit(logFile, 1)
		}
		opts = append(opts, backfill.WithLedger(ledger.New(db)))
	}

	store := server.NewDynamo(infrastructure.GetDynamoDbClient(), cfg.ConsistentRead)
	runner := backfill.NewRunner(store, backfill.Settings{
		Table:            cfg.Table,
		MissingAttribute: cfg.MissingAttribute,
		TargetAttribute:  cfg.TargetAttribute,
		KeyAttributes:    cfg.KeyAttributes,
		FirstPageLimit:   cfg.FirstPageLimit,
		PageLimit:        cfg.PageLimit,
		Concurrency:      cfg.UpdateConcurrency,
	}, backfill.OwnerIDDeriver{SourceAttribute: cfg.SourceAttribute}, opts...)

	stats, err := runner.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Str("run_id", runner.RunID()).Object("stats", stats).Msg("backfill aborted")
		exit(logFile, 1)
	}

	fmt.Printf("Scanned: %d, missing %s: %d, updated: %d, failed: %d\n",
		stats.Scanned, cfg.MissingAttribute, stats.MissingAttribute, stats.Updated, stats.Failed)
}

// exit closes the log file before os.Exit skips the deferred calls.
func exit(logFile io.Closer, code int) {
	_ = logFile.Close()
	os.Exit(code)
}
