// Package benchmark contains Go benchmarks for the indexer engine, memory
// index, and search pipeline, measuring throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/archive"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/config"
)

const pageText = "Use the calendar view to schedule meetings, configure reminders and print weekly agendas for your team"

func populatedIndex(pages int) *index.MemoryIndex {
	mi := index.NewMemoryIndex()
	terms := tokenizer.Terms(pageText)
	for i := 0; i < pages; i++ {
		mi.AddPage(index.PageRecord{
			Path:      fmt.Sprintf("/topics/page-%d.htm", i),
			Title:     fmt.Sprintf("Topic %d", i),
			PlainText: pageText,
		}, terms)
	}
	return mi
}

// helpArchive builds an in-memory archive with the given number of pages.
func helpArchive(pages int) *archive.MemoryReader {
	files := make(map[string][]byte, pages)
	for i := 0; i < pages; i++ {
		files[fmt.Sprintf("/topics/page-%d.htm", i)] = []byte(fmt.Sprintf(
			"<html><head><title>Topic %d</title></head><body><p>%s</p><p>section %d</p></body></html>",
			i, pageText, i))
	}
	return archive.NewMemoryReader(files)
}

// BenchmarkMemoryIndexAdd measures per-page insert throughput into the
// in-memory inverted index.
func BenchmarkMemoryIndexAdd(b *testing.B) {
	mi := index.NewMemoryIndex()
	terms := tokenizer.Terms(pageText)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mi.AddPage(index.PageRecord{Path: fmt.Sprintf("/p%d.htm", i), PlainText: pageText}, terms)
	}
}

// BenchmarkMemoryIndexPrefixUnion measures prefix lookup over 10 000 pages.
func BenchmarkMemoryIndexPrefixUnion(b *testing.B) {
	mi := populatedIndex(10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mi.PrefixUnion("cal")
	}
}

func BenchmarkMemoryIndexPrefixUnionParallel(b *testing.B) {
	mi := populatedIndex(10000)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = mi.PrefixUnion("sch")
		}
	})
}

// BenchmarkEngineBuild measures a full build of a 1 000 page archive.
func BenchmarkEngineBuild(b *testing.B) {
	r := helpArchive(1000)
	cfg := config.IndexerConfig{Workers: 4, QueueSize: 64}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng := indexer.NewEngine(cfg)
		if _, err := eng.Build(context.Background(), r); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMemoryIndexGrowingVocabulary adds pages that each bring 50 new
// terms, so the vocabulary grows with the archive.
func BenchmarkMemoryIndexGrowingVocabulary(b *testing.B) {
	for _, pages := range []int{1000, 2000, 4000} {
		terms := make([][]string, pages)
		for p := range terms {
			terms[p] = make([]string, 50)
			for i := range terms[p] {
				terms[p][i] = fmt.Sprintf("term%d_%d", p, i)
			}
		}
		b.Run(fmt.Sprintf("pages_%d", pages), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				mi := index.NewMemoryIndex()
				for p := range terms {
					mi.AddPage(index.PageRecord{Path: fmt.Sprintf("/p%d.htm", p)}, terms[p])
				}
				mi.Compact()
			}
		})
	}
}
