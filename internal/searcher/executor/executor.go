// Package executor runs queries against an archive's index: prefix match per
// query word, AND across words, snippet per hit, results ordered by title.
package executor

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/snippet"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/tracing"
)

// SearchResult is one matching page.
type SearchResult struct {
	Title   string `json:"title"`
	Path    string `json:"path"`
	Snippet string `json:"snippet"`
}

// QueryResult is the full answer to one query. TotalHits counts every
// matching page even when Results is truncated by a limit.
type QueryResult struct {
	Query     string         `json:"query"`
	Terms     []string       `json:"terms"`
	TotalHits int            `json:"total_hits"`
	Built     bool           `json:"built"`
	Results   []SearchResult `json:"results"`
}

// Source is the index a query runs against. It may still be building.
type Source interface {
	PrefixUnion(prefix string) index.PostingSet
	Page(path string) (index.PageRecord, bool)
	Built() bool
}

type Executor struct {
	source  Source
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option customises an Executor.
type Option func(*Executor)

// WithMetrics records query outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func New(source Source, opts ...Option) *Executor {
	e := &Executor{
		source: source,
		logger: slog.Default().With("component", "query-executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute answers query. A query with no words of two or more characters,
// or a source with nothing indexed, yields an empty result rather than an
// error. limit > 0 keeps only the first limit results after sorting. The
// only error is ctx being done.
func (e *Executor) Execute(ctx context.Context, query string, limit int) (*QueryResult, error) {
	start := time.Now()
	ctx, span := tracing.StartChildSpan(ctx, "search.execute")
	defer span.End()

	result := &QueryResult{
		Query:   query,
		Terms:   uniqueTerms(query),
		Built:   e.source.Built(),
		Results: []SearchResult{},
	}
	if len(result.Terms) == 0 {
		e.observe("empty_query", 0)
		return result, nil
	}

	var matches index.PostingSet
	for _, term := range result.Terms {
		if err := ctx.Err(); err != nil {
			e.observe("error", 0)
			return nil, err
		}
		union := e.source.PrefixUnion(term)
		if len(union) == 0 {
			matches = nil
			break
		}
		if matches == nil {
			matches = union
		} else {
			matches = matches.Intersect(union)
		}
		if len(matches) == 0 {
			break
		}
	}

	hits := e.collect(matches)
	result.TotalHits = len(hits)
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	for i := range hits {
		hits[i].Snippet = snippet.Generate(hits[i].text, query)
		result.Results = append(result.Results, hits[i].SearchResult)
	}

	resultType := "hit"
	if result.TotalHits == 0 {
		resultType = "zero_result"
	}
	e.observe(resultType, len(result.Results))
	span.SetAttr("terms", len(result.Terms))
	span.SetAttr("hits", result.TotalHits)
	e.logger.Debug("query executed",
		"query", query,
		"terms", result.Terms,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"latency_us", time.Since(start).Microseconds(),
	)
	return result, nil
}

type hit struct {
	SearchResult
	text string
}

// collect turns matching paths into hits ordered by case-insensitive title.
// Paths are visited in sorted order and the sort is stable, so equal titles
// keep path order.
func (e *Executor) collect(matches index.PostingSet) []hit {
	hits := make([]hit, 0, len(matches))
	for _, p := range matches.Paths() {
		h := hit{SearchResult: SearchResult{Path: p}}
		if rec, ok := e.source.Page(p); ok {
			h.Title = rec.Title
			h.text = rec.PlainText
		}
		if h.Title == "" {
			h.Title = path.Base(p)
		}
		hits = append(hits, h)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return strings.ToLower(hits[i].Title) < strings.ToLower(hits[j].Title)
	})
	return hits
}

func (e *Executor) observe(resultType string, returned int) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	if resultType != "error" {
		e.metrics.SearchResultsCount.Observe(float64(returned))
	}
}

// uniqueTerms tokenizes query and drops repeated words; "go go" asks the
// same thing as "go".
func uniqueTerms(query string) []string {
	terms := tokenizer.Terms(query)
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
