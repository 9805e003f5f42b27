package benchmark

import (
	"context"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/snippet"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/config"
)

func builtExecutor(b *testing.B, pages int) *executor.Executor {
	b.Helper()
	eng := indexer.NewEngine(config.IndexerConfig{Workers: 4, QueueSize: 64})
	if _, err := eng.Build(context.Background(), helpArchive(pages)); err != nil {
		b.Fatal(err)
	}
	return executor.New(eng)
}

func BenchmarkExecuteSingleTerm(b *testing.B) {
	exec := builtExecutor(b, 2000)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := exec.Execute(ctx, "calendar", 20); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExecuteMultiTerm(b *testing.B) {
	exec := builtExecutor(b, 2000)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := exec.Execute(ctx, "sched rem print", 20); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExecuteParallel(b *testing.B) {
	exec := builtExecutor(b, 2000)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = exec.Execute(ctx, "week", 20)
		}
	})
}

func BenchmarkSnippet(b *testing.B) {
	text := strings.Repeat("filler words before the match ", 200) + "printing weekly agendas" + strings.Repeat(" trailing text", 200)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = snippet.Generate(text, "agendas")
	}
}
