// Package viewer ties one open archive together: its table of contents, the
// page to show first, the search index being built in the background and
// the raw content served to the browser.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/archive"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/markup"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/toc"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/metrics"
)

// TOCSource says where the table of contents came from.
type TOCSource string

const (
	TOCFromHHC  TOCSource = "hhc"
	TOCFromFlat TOCSource = "flat"
)

// Status is a snapshot of an open archive.
type Status struct {
	Archive     string    `json:"archive"`
	Entries     int       `json:"entries"`
	Pages       int       `json:"pages"`
	Terms       int       `json:"terms"`
	Built       bool      `json:"built"`
	Indexing    bool      `json:"indexing"`
	DefaultPage string    `json:"default_page"`
	TOCSource   TOCSource `json:"toc_source"`
	TOCNodes    int       `json:"toc_nodes"`
}

// Content is an entry prepared for serving.
type Content struct {
	Data     []byte
	MIMEType string
	// Charset is set for text types only.
	Charset markup.Encoding
}

// ContentType renders the HTTP Content-Type header value.
func (c Content) ContentType() string {
	if c.Charset == "" {
		return c.MIMEType
	}
	return c.MIMEType + "; charset=" + string(c.Charset)
}

// BuildHook is told about every finished index build, successful or not.
type BuildHook func(ctx context.Context, v *Viewer, report indexer.BuildReport, err error)

// Option customises a Viewer.
type Option func(*Viewer)

// WithMetrics records TOC and index metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Viewer) {
		v.metrics = m
	}
}

// WithBuildHook registers fn to run after the background build ends.
func WithBuildHook(fn BuildHook) Option {
	return func(v *Viewer) {
		v.hooks = append(v.hooks, fn)
	}
}

type Viewer struct {
	name        string
	reader      archive.Reader
	entries     []archive.Entry
	forest      []toc.TopicNode
	tocSource   TOCSource
	defaultPage string

	engine   *indexer.Engine
	executor *executor.Executor
	metrics  *metrics.Metrics
	hooks    []BuildHook
	logger   *slog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	buildDone chan struct{}
	buildErr  error
}

// Open loads the table of contents and picks the default page. It does not
// build the search index; call StartIndexing for that.
func Open(ctx context.Context, name string, r archive.Reader, cfg *config.Config, opts ...Option) (*Viewer, error) {
	v := &Viewer{
		name:   name,
		reader: r,
		logger: slog.Default().With("component", "viewer", "archive", name),
	}
	for _, opt := range opts {
		opt(v)
	}

	entries, err := r.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", name, err)
	}
	v.entries = entries
	v.loadTOC(ctx, cfg.Archive.TOCPath)

	v.defaultPage = archive.FindDefaultPage(ctx, r)
	if v.defaultPage == "" {
		v.defaultPage = toc.FirstTarget(v.forest)
	}

	var engineOpts []indexer.Option
	var execOpts []executor.Option
	if v.metrics != nil {
		engineOpts = append(engineOpts, indexer.WithMetrics(v.metrics))
		execOpts = append(execOpts, executor.WithMetrics(v.metrics))
		v.metrics.TOCNodes.Set(float64(toc.Count(v.forest)))
	}
	v.engine = indexer.NewEngine(cfg.Indexer, engineOpts...)
	v.executor = executor.New(v.engine, execOpts...)

	v.logger.Info("archive opened",
		"entries", len(entries),
		"toc_source", v.tocSource,
		"toc_nodes", toc.Count(v.forest),
		"default_page", v.defaultPage,
	)
	return v, nil
}

// loadTOC parses the archive's .hhc, or lists its pages when there is no
// usable one.
func (v *Viewer) loadTOC(ctx context.Context, override string) {
	tocPath := override
	if tocPath == "" {
		tocPath = archive.FindTOCPath(v.entries)
	}
	if tocPath != "" {
		forest, err := v.parseTOC(ctx, tocPath)
		switch {
		case err != nil:
			v.logger.Warn("table of contents unusable, listing pages instead", "path", tocPath, "error", err)
		case len(forest) == 0:
			v.logger.Warn("table of contents is empty, listing pages instead", "path", tocPath)
		default:
			v.forest = forest
			v.tocSource = TOCFromHHC
			return
		}
	}
	v.forest = toc.Flat(v.entries)
	v.tocSource = TOCFromFlat
}

func (v *Viewer) parseTOC(ctx context.Context, p string) ([]toc.TopicNode, error) {
	data, err := v.reader.ReadEntry(ctx, p)
	if err != nil {
		return nil, err
	}
	return toc.Parse(data)
}

// Name is the archive's display name.
func (v *Viewer) Name() string {
	return v.name
}

// TOC returns the table of contents. Callers must not modify it.
func (v *Viewer) TOC() []toc.TopicNode {
	return v.forest
}

// DefaultPage returns the page to open first, or "" if the archive has none.
func (v *Viewer) DefaultPage() string {
	return v.defaultPage
}

// Engine exposes the index engine.
func (v *Viewer) Engine() *indexer.Engine {
	return v.engine
}

// StartIndexing builds the search index in the background. Searches run
// during the build see the pages ingested so far. Calling it again while a
// build is running or after it finished does nothing.
func (v *Viewer) StartIndexing(ctx context.Context) {
	v.mu.Lock()
	if v.buildDone != nil {
		v.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	done := make(chan struct{})
	v.buildDone = done
	v.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		report, err := v.engine.Build(ctx, v.reader)
		v.mu.Lock()
		v.buildErr = err
		v.mu.Unlock()
		if err != nil && !errors.Is(err, context.Canceled) {
			v.logger.Error("index build failed", "error", err)
		}
		for _, hook := range v.hooks {
			hook(context.WithoutCancel(ctx), v, report, err)
		}
	}()
}

// WaitIndexed blocks until the background build finishes and returns its
// error. It returns nil at once if indexing was never started.
func (v *Viewer) WaitIndexed(ctx context.Context) error {
	v.mu.Lock()
	done := v.buildDone
	v.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.buildErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Search runs a query against whatever has been indexed so far.
func (v *Viewer) Search(ctx context.Context, query string, limit int) (*executor.QueryResult, error) {
	return v.executor.Execute(ctx, query, limit)
}

// Execute is Search under the name session.Searcher expects.
func (v *Viewer) Execute(ctx context.Context, query string, limit int) (*executor.QueryResult, error) {
	return v.Search(ctx, query, limit)
}

// Content reads an entry for serving. Text entries lose their UTF-8 BOM and
// report the charset they are written in.
func (v *Viewer) Content(ctx context.Context, p string) (Content, error) {
	p = archive.NormalizePath(p)
	data, err := v.reader.ReadEntry(ctx, p)
	if err != nil {
		return Content{}, err
	}
	c := Content{Data: data, MIMEType: archive.MIMEType(p)}
	if strings.HasPrefix(c.MIMEType, "text/") {
		c.Data = trimBOM(data)
		c.Charset = markup.DetectEncoding(c.Data)
	}
	return c, nil
}

// Status reports the archive's current state.
func (v *Viewer) Status() Status {
	stats := v.engine.Index().Stats()
	v.mu.Lock()
	indexing := v.buildDone != nil && !v.engine.Built() && v.buildErr == nil
	v.mu.Unlock()
	return Status{
		Archive:     v.name,
		Entries:     len(v.entries),
		Pages:       stats.Pages,
		Terms:       stats.Terms,
		Built:       v.engine.Built(),
		Indexing:    indexing,
		DefaultPage: v.defaultPage,
		TOCSource:   v.tocSource,
		TOCNodes:    toc.Count(v.forest),
	}
}

// Close stops a running build and waits for it to exit.
func (v *Viewer) Close() error {
	v.mu.Lock()
	cancel, done := v.cancel, v.buildDone
	v.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
