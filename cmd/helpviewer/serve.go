package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/viewer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/redis"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the archive over HTTP",
	Long: `Opens the archive, builds its search index in the background and serves
the contents tree, search and the archive's pages. Redis caching, Kafka
analytics and the Postgres catalog are used when enabled in the config.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	checker := health.NewChecker(5 * time.Second)

	var store catalog.Store = catalog.NewMemoryStore(0)
	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting catalog database: %w", err)
		}
		defer db.Close()
		pgStore := catalog.NewPostgresStore(db, m)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pgStore
		checker.Register("postgres", health.PingCheck(db.Ping))
		slog.Info("catalog stored in postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	var tracker handler.Tracker
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 10000, 100, 5*time.Second)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
	}

	viewerOpts := []viewer.Option{viewer.WithBuildHook(recordBuild(store, tracker))}
	if m != nil {
		viewerOpts = append(viewerOpts, viewer.WithMetrics(m))
	}
	v, err := openArchive(ctx, viewerOpts...)
	if err != nil {
		return err
	}
	defer v.Close()
	recordOpen(ctx, v, store, tracker)
	v.StartIndexing(ctx)

	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		st := v.Status()
		if st.Built {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d pages, %d terms", st.Pages, st.Terms)}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: fmt.Sprintf("building, %d pages so far", st.Pages)}
	})

	handlerOpts := []handler.Option{}
	if m != nil {
		handlerOpts = append(handlerOpts, handler.WithMetrics(m))
	}
	if tracker != nil {
		handlerOpts = append(handlerOpts, handler.WithTracker(tracker))
	}
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheOpts := []cache.Option{}
			if m != nil {
				cacheOpts = append(cacheOpts, cache.WithMetrics(m))
			}
			queryCache := cache.New(redisClient, cfg.Redis.CacheTTL, v.Name(), cacheOpts...)
			handlerOpts = append(handlerOpts, handler.WithCache(queryCache))
			checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
				if err := redisClient.Ping(ctx); err != nil {
					return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
				}
				return health.ComponentHealth{Status: health.StatusUp}
			})
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	mux := http.NewServeMux()
	handler.New(v, cfg.Search, handlerOpts...).RegisterRoutes(mux)
	catalog.NewHandler(store).RegisterRoutes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{middleware.RequestID}
	if m != nil {
		mws = append(mws, middleware.Metrics(m))
		if cfg.Metrics.Port > 0 {
			shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				_ = shutdownMetrics(shutdownCtx)
			}()
		} else {
			mux.Handle("GET /metrics", metrics.Handler())
		}
	}
	mws = append(mws, middleware.Timeout(cfg.Server.WriteTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return listenAndServe(ctx, server, cfg.Server.ShutdownTimeout)
}

// listenAndServe runs server until ctx ends, then shuts it down gracefully.
func listenAndServe(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("help viewer listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("help viewer stopped")
	return nil
}

// recordOpen logs the open to the catalog and analytics. Failures only warn;
// the archive is usable without either.
func recordOpen(ctx context.Context, v *viewer.Viewer, store catalog.Store, tracker handler.Tracker) {
	st := v.Status()
	now := time.Now().UTC()
	err := store.RecordOpen(ctx, catalog.OpenRecord{
		Archive:     st.Archive,
		Entries:     st.Entries,
		TOCSource:   string(st.TOCSource),
		TOCNodes:    st.TOCNodes,
		DefaultPage: st.DefaultPage,
		OpenedAt:    now,
	})
	if err != nil {
		slog.Warn("catalog unavailable, open not recorded", "error", err)
	}
	if tracker != nil {
		tracker.Track(st.Archive, analytics.BuildEvent{
			Type:      analytics.EventArchiveOpen,
			Archive:   st.Archive,
			Entries:   st.Entries,
			TOCSource: string(st.TOCSource),
			Timestamp: now,
		})
	}
}

func recordBuild(store catalog.Store, tracker handler.Tracker) viewer.BuildHook {
	return func(ctx context.Context, v *viewer.Viewer, report indexer.BuildReport, err error) {
		rec := catalog.NewBuildRecord(v.Name(), report, err, time.Now())
		if storeErr := store.RecordBuild(ctx, rec); storeErr != nil {
			slog.Warn("catalog unavailable, build not recorded", "error", storeErr)
		}
		if tracker != nil {
			tracker.Track(v.Name(), analytics.BuildEvent{
				Type:       analytics.EventIndexBuild,
				Archive:    v.Name(),
				Status:     rec.Status,
				Entries:    report.Entries,
				Indexed:    report.Indexed,
				Skipped:    report.Skipped(),
				Terms:      report.Terms,
				DurationMs: rec.DurationMs,
				Timestamp:  rec.FinishedAt,
			})
		}
	}
}
