package tracing

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exportTestSpans runs fn inside spans on a provider wired straight to
// the exporter, then flushes.
func exportTestSpans(t *testing.T, exporter sdktrace.SpanExporter, fn func(tp *sdktrace.TracerProvider)) {
	t.Helper()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	fn(tp)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewFileExporter_CreatesParentDirs(t *testing.T) {
	tmpDir := t.TempDir()
	tracePath := filepath.Join(tmpDir, "nested", "dir", "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err, "parent directories should be created")
	require.NoError(t, exporter.Shutdown(context.Background()))

	_, err = os.Stat(tracePath)
	require.NoError(t, err, "trace file should exist")
}

func TestFileExporter_WritesJSONL(t *testing.T) {
	tmpDir := t.TempDir()
	tracePath := filepath.Join(tmpDir, "traces.jsonl")

	exporter, err := NewFileExporter(tracePath)
	require.NoError(t, err)

	exportTestSpans(t, exporter, func(tp *sdktrace.TracerProvider) {
		tracer := tp.Tracer("test")
		_, span := tracer.Start(context.Background(), "first-span")
		span.SetAttributes(attribute.String("asset", "0xa1"))
		span.End()
		_, span = tracer.Start(context.Background(), "second-span")
		span.End()
	})

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "each span should be one line")

	var record SpanRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record), "each line should be valid JSON")
	require.Equal(t, "first-span", record.Name)
	require.Equal(t, "INTERNAL", record.Kind)
	require.Equal(t, "0xa1", record.Attributes["asset"])
	require.NotEmpty(t, record.TraceID)
	require.NotEmpty(t, record.SpanID)
}

func TestFileExporter_AppendsAcrossSessions(t *testing.T) {
	tmpDir := t.TempDir()
	tracePath := filepath.Join(tmpDir, "traces.jsonl")

	for i := 0; i < 2; i++ {
		exporter, err := NewFileExporter(tracePath)
		require.NoError(t, err)
		exportTestSpans(t, exporter, func(tp *sdktrace.TracerProvider) {
			_, span := tp.Tracer("test").Start(context.Background(), "session-span")
			span.End()
		})
	}

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "second session should append, not truncate")
}

func TestFileExporter_ShutdownTwice(t *testing.T) {
	tmpDir := t.TempDir()
	exporter, err := NewFileExporter(filepath.Join(tmpDir, "traces.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()), "second shutdown should be a no-op")
}
