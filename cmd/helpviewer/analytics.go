package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/analytics/aggregator"
	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/postgres"
)

var (
	analyticsPort     int
	analyticsSnapshot time.Duration
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Aggregate search analytics from Kafka",
	Long: `Consumes the events published by "helpviewer serve", keeps running totals
(top queries, zero-result queries, latency percentiles, index builds) and
serves them at /api/v1/analytics. With Postgres enabled the totals are
snapshotted periodically.`,
	Args: cobra.NoArgs,
	RunE: runAnalytics,
}

func init() {
	analyticsCmd.Flags().IntVarP(&analyticsPort, "port", "p", 8081, "listen port for the stats endpoint")
	analyticsCmd.Flags().DurationVar(&analyticsSnapshot, "snapshot-interval", time.Minute, "how often to persist totals to postgres")
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("enable kafka to aggregate analytics: %w", apperrors.ErrAnalyticsDisabled)
	}
	ctx := cmd.Context()
	agg := analytics.NewAggregator()
	checker := health.NewChecker(5 * time.Second)

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting analytics database: %w", err)
		}
		defer db.Close()
		store := aggregator.NewStore(db, cfg.Kafka.ConsumerGroup)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if prev, err := store.LatestSnapshot(ctx); err != nil {
			slog.Warn("could not read previous snapshot", "error", err)
		} else if prev != nil {
			slog.Info("previous snapshot found",
				"total_searches", prev.TotalSearches,
				"zero_result_count", prev.ZeroResultCount,
			)
		}
		store.StartPeriodicSave(ctx, agg, analyticsSnapshot)
		checker.Register("postgres", health.PingCheck(db.Ping))
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg))
	defer consumer.Close()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer stopped", "error", err)
		}
	}()
	slog.Info("analytics consumer started",
		"topic", cfg.Kafka.Topics.AnalyticsEvents,
		"group", cfg.Kafka.ConsumerGroup,
	)

	mux := http.NewServeMux()
	analytics.NewHandler(agg).RegisterRoutes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", analyticsPort),
		Handler:      middleware.Chain(mux, middleware.RequestID),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return listenAndServe(ctx, server, cfg.Server.ShutdownTimeout)
}
