package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"scholarship-portal/internal/common/logger"
	"scholarship-portal/internal/common/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorders(t *testing.T) {
	o := NewNoop()
	ctx, span := o.StartSpan(context.Background(), "test")
	assert.NotNil(t, ctx)
	span.End()

	assert.NotPanics(t, func() {
		o.RecordSubmission(ctx, "success", time.Second)
		o.RecordUpload(ctx, "ic", "failure")
		o.Shutdown()
	})

	var nilObs *Observability
	assert.NotPanics(t, func() {
		_, s := nilObs.StartSpan(context.Background(), "nil")
		s.End()
		nilObs.RecordSubmission(context.Background(), "failure", 0)
		nilObs.Shutdown()
	})
}

func TestNew(t *testing.T) {
	o := New("scholarship-portal-test", logger.NewTestLogger(t))
	defer o.Shutdown()

	assert.NotNil(t, o.tracer)
	assert.NotPanics(t, func() {
		o.RecordSubmission(context.Background(), "success", 150*time.Millisecond)
		o.RecordUpload(context.Background(), "transcript", "success")
	})

	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.UploadsTotal.WithLabelValues("transcript", metrics.OutcomeSuccess).Inc()

	// Gather fails when two collectors export one name with different labels.
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var otelNames []string
	for _, mf := range families {
		scoped := false
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "otel_scope_name" {
					scoped = true
				}
			}
		}
		if scoped && !strings.HasPrefix(mf.GetName(), "otel_") {
			otelNames = append(otelNames, mf.GetName())
			continue
		}
		assert.NotContains(t, []string{"form_submission_attempts_total", "form_document_uploads_total"}, mf.GetName())
	}

	require.NotEmpty(t, otelNames)
	for _, name := range otelNames {
		assert.True(t, strings.HasPrefix(name, "form_"), "otel metric %s", name)
		assert.NotContains(t, []string{"portal_submissions_total", "portal_uploads_total"}, name)
	}
}
