package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordsJobs(t *testing.T) {
	reader := metric.NewManualReader()
	obs := NewWithReader("prompt-access-test", reader)
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "compile-prompt", "success")
	obs.RecordJobProcessed(ctx, "compile-prompt", "success")
	obs.RecordJobDuration(ctx, "compile-prompt", 15*time.Millisecond, "success")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
			if m.Name == "jobs.processed" {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				require.Len(t, sum.DataPoints, 1)
				assert.Equal(t, int64(2), sum.DataPoints[0].Value)
			}
		}
	}
	assert.True(t, names["jobs.processed"])
	assert.True(t, names["jobs.duration"])
}

func TestObservability_StartSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := NewWithReader("prompt-access-test", metric.NewManualReader(), sdktrace.WithSpanProcessor(recorder))
	defer obs.Shutdown()

	_, span := obs.StartSpan(context.Background(), "prompt.fetch", attribute.String("prompt.name", "greeting"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "prompt.fetch", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("prompt.name", "greeting"))
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	obs := &Observability{}
	obs.RecordJobProcessed(context.Background(), "submit-score", "failed")
	obs.RecordJobDuration(context.Background(), "submit-score", time.Second, "failed")
	_, span := obs.StartSpan(context.Background(), "noop")
	span.End()
	obs.Shutdown()
}
