package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/resilience"
)

// schema is applied by EnsureSchema:
//
//	helpviewer_archives  one row per archive name, refreshed on every open
//	helpviewer_builds    one row per finished index build
var schema = []string{
	`CREATE TABLE IF NOT EXISTS helpviewer_archives (
    name          TEXT PRIMARY KEY,
    entries       INTEGER NOT NULL,
    toc_source    TEXT NOT NULL,
    toc_nodes     INTEGER NOT NULL,
    default_page  TEXT NOT NULL,
    opened_at     TIMESTAMPTZ NOT NULL,
    last_built_at TIMESTAMPTZ
)`,
	`CREATE TABLE IF NOT EXISTS helpviewer_builds (
    id          BIGSERIAL PRIMARY KEY,
    archive     TEXT NOT NULL,
    status      TEXT NOT NULL,
    entries     INTEGER NOT NULL,
    indexed     INTEGER NOT NULL,
    unreadable  INTEGER NOT NULL,
    undecodable INTEGER NOT NULL,
    terms       INTEGER NOT NULL,
    duration_ms BIGINT NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS helpviewer_builds_archive_finished
    ON helpviewer_builds (archive, finished_at DESC)`,
}

// PostgresStore writes the catalog to PostgreSQL. Calls go through a circuit
// breaker so a database outage fails fast instead of stalling every open.
type PostgresStore struct {
	db      *postgres.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

func NewPostgresStore(db *postgres.Client, m *metrics.Metrics) *PostgresStore {
	return &PostgresStore{
		db: db,
		breaker: resilience.NewCircuitBreaker("postgres-catalog", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
			OnStateChange: func(name string, _, to resilience.State) {
				if m != nil {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		}),
		logger: slog.Default().With("component", "catalog"),
	}
}

// EnsureSchema creates the catalog tables if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("applying catalog schema: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) RecordOpen(ctx context.Context, rec OpenRecord) error {
	err := s.breaker.Execute(func() error {
		_, err := s.db.DB.ExecContext(ctx, `
			INSERT INTO helpviewer_archives (name, entries, toc_source, toc_nodes, default_page, opened_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO UPDATE SET
			    entries = EXCLUDED.entries,
			    toc_source = EXCLUDED.toc_source,
			    toc_nodes = EXCLUDED.toc_nodes,
			    default_page = EXCLUDED.default_page,
			    opened_at = EXCLUDED.opened_at`,
			rec.Archive, rec.Entries, rec.TOCSource, rec.TOCNodes, rec.DefaultPage, rec.OpenedAt.UTC(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("recording open of %s: %w", rec.Archive, err)
	}
	s.logger.Debug("archive open recorded", "archive", rec.Archive)
	return nil
}

// RecordBuild inserts the build and, for a successful one, stamps the
// archive's last_built_at in the same transaction.
func (s *PostgresStore) RecordBuild(ctx context.Context, rec BuildRecord) error {
	err := s.breaker.Execute(func() error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO helpviewer_builds
				    (archive, status, entries, indexed, unreadable, undecodable, terms, duration_ms, finished_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				rec.Archive, rec.Status, rec.Entries, rec.Indexed, rec.Unreadable,
				rec.Undecodable, rec.Terms, rec.DurationMs, rec.FinishedAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("inserting build: %w", err)
			}
			if rec.Status != "success" {
				return nil
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE helpviewer_archives SET last_built_at = $2 WHERE name = $1`,
				rec.Archive, rec.FinishedAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("updating archive: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("recording build of %s: %w", rec.Archive, err)
	}
	s.logger.Debug("index build recorded", "archive", rec.Archive, "status", rec.Status)
	return nil
}

func (s *PostgresStore) RecentBuilds(ctx context.Context, archive string, limit int) ([]BuildRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows *sql.Rows
	err := s.breaker.Execute(func() error {
		var err error
		rows, err = s.db.DB.QueryContext(ctx, `
			SELECT archive, status, entries, indexed, unreadable, undecodable, terms, duration_ms, finished_at
			FROM helpviewer_builds
			WHERE $1 = '' OR archive = $1
			ORDER BY finished_at DESC
			LIMIT $2`,
			archive, limit,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	out := []BuildRecord{}
	for rows.Next() {
		var rec BuildRecord
		if err := rows.Scan(&rec.Archive, &rec.Status, &rec.Entries, &rec.Indexed, &rec.Unreadable,
			&rec.Undecodable, &rec.Terms, &rec.DurationMs, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning build row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading build rows: %w", err)
	}
	return out, nil
}
