package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpan_GeneratesTraceID(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "build", "")
	assert.NotEmpty(t, span.TraceID)
	assert.Same(t, span, SpanFromContext(ctx))
}

func TestStartChildSpan_InheritsTrace(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "build", "trace-1")
	_, child := StartChildSpan(ctx, "ingest")
	child.SetAttr("pages", 3)
	child.End()
	root.End()

	assert.Equal(t, "trace-1", child.TraceID)
	require.Len(t, root.Children, 1)
	assert.Equal(t, 3, root.Children[0].Attrs["pages"])
}

func TestStartChildSpan_NoParent(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	assert.NotEmpty(t, span.TraceID)
}

func TestLog_RespectsEnabled(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() {
		slog.SetDefault(prev)
		SetEnabled(false)
	})

	_, span := StartSpan(context.Background(), "query", "t")
	span.End()

	SetEnabled(false)
	span.Log()
	assert.Empty(t, buf.String())

	SetEnabled(true)
	span.Log()
	assert.Contains(t, buf.String(), "span=query")
}
