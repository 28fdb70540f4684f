package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder_AllMethodsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveRenderDuration("live", time.Second)
	r.ObserveStageDuration("render_body", time.Millisecond)
	r.IncRenderResult("export", ResultSuccess)
	r.ObserveExportDuration(time.Second)
	r.IncExportOutcome("success")
	r.SetExportedPages(12)
}

func TestPrometheusRecorder_RegistersAndRecords(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveRenderDuration("live", 25*time.Millisecond)
	pr.IncRenderResult("live", ResultSuccess)
	pr.IncRenderResult("live", ResultNotFound)
	pr.SetExportedPages(7)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["pagesmith_render_duration_seconds"])
	require.True(t, names["pagesmith_render_results_total"])
	require.True(t, names["pagesmith_exported_pages"])
}

func TestPrometheusRecorder_NilReceiverSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveRenderDuration("live", time.Second)
	pr.IncRenderResult("live", ResultError)
	pr.SetExportedPages(1)
}
