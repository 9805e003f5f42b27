// Package indexer builds the full-text index for one open archive. An Engine
// is created per archive open, built once, then queried until the archive is
// closed.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/archive"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/markup"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/tracing"
)

const (
	skipUnreadable  = "unreadable"
	skipUndecodable = "undecodable"
)

// BuildReport summarises a finished build.
type BuildReport struct {
	Entries     int           `json:"entries"`
	Pages       int           `json:"pages"`
	Indexed     int           `json:"indexed"`
	Unreadable  int           `json:"unreadable"`
	Undecodable int           `json:"undecodable"`
	Terms       int           `json:"terms"`
	Duration    time.Duration `json:"duration"`
}

// Skipped is the number of page-like entries left out of the index.
func (r BuildReport) Skipped() int {
	return r.Unreadable + r.Undecodable
}

type Engine struct {
	memIndex *index.MemoryIndex
	cfg      config.IndexerConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger

	building atomic.Bool
	built    atomic.Bool

	reportMu sync.RWMutex
	report   BuildReport
}

// Option customises an Engine.
type Option func(*Engine)

// WithMetrics records build progress on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(cfg config.IndexerConfig, opts ...Option) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	e := &Engine{
		memIndex: index.NewMemoryIndex(),
		cfg:      cfg,
		logger:   slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index exposes the index for queries. It is safe to read while Build runs;
// readers see every ingested page whole or not at all.
func (e *Engine) Index() *index.MemoryIndex {
	return e.memIndex
}

// Built reports whether Build has finished successfully.
func (e *Engine) Built() bool {
	return e.built.Load()
}

// Report returns the summary of the last finished build.
func (e *Engine) Report() BuildReport {
	e.reportMu.RLock()
	defer e.reportMu.RUnlock()
	return e.report
}

// ingested is what a worker hands the writer for one entry.
type ingested struct {
	record index.PageRecord
	terms  []string
	skip   string
}

// Build indexes every page-like entry of r. Reading and extraction run on
// cfg.Workers goroutines; a single writer adds the results to the index in
// completion order. Entries that cannot be read or decoded are skipped and
// counted. Cancelling ctx stops the build and leaves Built false.
func (e *Engine) Build(ctx context.Context, r archive.Reader) (BuildReport, error) {
	if e.built.Load() {
		return BuildReport{}, apperrors.ErrAlreadyBuilt
	}
	if !e.building.CompareAndSwap(false, true) {
		return BuildReport{}, apperrors.ErrBuildInProgress
	}
	defer e.building.Store(false)

	start := time.Now()
	ctx, span := tracing.StartChildSpan(ctx, "index.build")
	defer func() {
		span.End()
		span.Log()
	}()

	entries, err := r.ListEntries(ctx)
	if err != nil {
		e.observeBuild(BuildStatus(err), start)
		return BuildReport{}, fmt.Errorf("listing archive entries: %w", err)
	}
	var pages []archive.Entry
	for _, entry := range entries {
		if entry.IsPageLike() {
			pages = append(pages, entry)
		}
	}
	report := BuildReport{Entries: len(entries), Pages: len(pages)}
	e.logger.Info("index build started",
		"entries", len(entries),
		"pages", len(pages),
		"workers", e.cfg.Workers,
	)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan archive.Entry)
	results := make(chan ingested, e.cfg.QueueSize)

	g.Go(func() error {
		defer close(jobs)
		for _, entry := range pages {
			select {
			case jobs <- entry:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for entry := range jobs {
				res, err := e.extract(gctx, r, entry)
				if err != nil {
					return err
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	for res := range results {
		switch res.skip {
		case skipUnreadable:
			report.Unreadable++
			e.countSkip(res.skip)
		case skipUndecodable:
			report.Undecodable++
			e.countSkip(res.skip)
		default:
			e.memIndex.AddPage(res.record, res.terms)
			report.Indexed++
			if e.metrics != nil {
				e.metrics.PagesIndexedTotal.Inc()
			}
		}
	}

	if err := g.Wait(); err != nil {
		report.Duration = time.Since(start)
		e.observeBuild(BuildStatus(err), start)
		e.logger.Warn("index build stopped",
			"indexed", report.Indexed,
			"error", err,
		)
		return report, fmt.Errorf("building index: %w", err)
	}

	e.memIndex.Compact()
	report.Terms = e.memIndex.TermCount()
	report.Duration = time.Since(start)
	e.reportMu.Lock()
	e.report = report
	e.reportMu.Unlock()
	e.built.Store(true)

	e.observeBuild(BuildStatus(nil), start)
	if e.metrics != nil {
		e.metrics.IndexTerms.Set(float64(report.Terms))
	}
	span.SetAttr("pages", report.Indexed)
	span.SetAttr("terms", report.Terms)
	e.logger.Info("index build complete",
		"indexed", report.Indexed,
		"skipped", report.Skipped(),
		"terms", report.Terms,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// extract reads and tokenizes one entry. Only context cancellation is
// returned as an error; any other failure becomes a skip.
func (e *Engine) extract(ctx context.Context, r archive.Reader, entry archive.Entry) (ingested, error) {
	data, err := r.ReadEntry(ctx, entry.Path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ingested{}, ctxErr
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ingested{}, err
		}
		e.logger.Debug("skipping unreadable page", "path", entry.Path, "error", err)
		return ingested{skip: skipUnreadable}, nil
	}
	page, err := markup.ExtractPage(data)
	if err != nil {
		e.logger.Debug("skipping undecodable page", "path", entry.Path, "error", err)
		return ingested{skip: skipUndecodable}, nil
	}
	title := page.Title
	if title == "" {
		title = entry.Filename()
	}
	return ingested{
		record: index.PageRecord{
			Path:      entry.Path,
			Title:     title,
			PlainText: page.Text,
		},
		terms: tokenizer.Terms(page.Text),
	}, nil
}

// BuildStatus labels the outcome of Build: "success", "cancelled" when the
// context ended, otherwise "error".
func BuildStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func (e *Engine) countSkip(reason string) {
	if e.metrics != nil {
		e.metrics.PagesSkippedTotal.WithLabelValues(reason).Inc()
	}
}

func (e *Engine) observeBuild(status string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		e.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	}
}

// PrefixUnion forwards to the index so an Engine can be queried directly.
func (e *Engine) PrefixUnion(prefix string) index.PostingSet {
	return e.memIndex.PrefixUnion(prefix)
}

// Page forwards to the index.
func (e *Engine) Page(path string) (index.PageRecord, bool) {
	return e.memIndex.Page(path)
}
