// Package catalog keeps a history of opened archives and their index builds.
// The Postgres store is used when configured; otherwise an in-memory store
// keeps the recent history for the running process.
package catalog

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer"
)

// OpenRecord is written each time an archive is opened.
type OpenRecord struct {
	Archive     string    `json:"archive"`
	Entries     int       `json:"entries"`
	TOCSource   string    `json:"toc_source"`
	TOCNodes    int       `json:"toc_nodes"`
	DefaultPage string    `json:"default_page"`
	OpenedAt    time.Time `json:"opened_at"`
}

// BuildRecord is written when an index build ends, however it ended.
type BuildRecord struct {
	Archive     string    `json:"archive"`
	Status      string    `json:"status"`
	Entries     int       `json:"entries"`
	Indexed     int       `json:"indexed"`
	Unreadable  int       `json:"unreadable"`
	Undecodable int       `json:"undecodable"`
	Terms       int       `json:"terms"`
	DurationMs  int64     `json:"duration_ms"`
	FinishedAt  time.Time `json:"finished_at"`
}

// NewBuildRecord summarises a build outcome.
func NewBuildRecord(archive string, report indexer.BuildReport, err error, finishedAt time.Time) BuildRecord {
	return BuildRecord{
		Archive:     archive,
		Status:      indexer.BuildStatus(err),
		Entries:     report.Entries,
		Indexed:     report.Indexed,
		Unreadable:  report.Unreadable,
		Undecodable: report.Undecodable,
		Terms:       report.Terms,
		DurationMs:  report.Duration.Milliseconds(),
		FinishedAt:  finishedAt.UTC(),
	}
}

// Store persists catalog records. RecentBuilds lists newest first; an empty
// archive matches every archive.
type Store interface {
	RecordOpen(ctx context.Context, rec OpenRecord) error
	RecordBuild(ctx context.Context, rec BuildRecord) error
	RecentBuilds(ctx context.Context, archive string, limit int) ([]BuildRecord, error)
}
