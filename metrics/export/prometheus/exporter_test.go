package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	portalauth "github.com/charansai0108/portal-auth"
)

type fakeSource struct {
	snapshot portalauth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() portalauth.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                        { return f.dropped }

func TestRenderCountersAndHistogram(t *testing.T) {
	source := &fakeSource{
		snapshot: portalauth.MetricsSnapshot{
			Counters: map[portalauth.MetricID]uint64{
				portalauth.MetricLoginSuccess: 7,
				portalauth.MetricLoginFailure: 3,
			},
			Histograms: map[portalauth.MetricID][]uint64{
				portalauth.MetricValidateLatency: {2, 1, 0, 0, 0, 0, 0, 1},
			},
		},
		dropped: 5,
	}

	output := NewPrometheusExporterFromSource(source).Render()

	if !strings.Contains(output, "portal_auth_login_success_total 7\n") {
		t.Fatalf("missing login success counter:\n%s", output)
	}
	if !strings.Contains(output, "portal_auth_login_failure_total 3\n") {
		t.Fatalf("missing login failure counter:\n%s", output)
	}
	if !strings.Contains(output, "# TYPE portal_auth_login_success_total counter\n") {
		t.Fatalf("missing counter TYPE line:\n%s", output)
	}
	if !strings.Contains(output, "portal_auth_audit_dropped_total 5\n") {
		t.Fatalf("missing audit dropped counter:\n%s", output)
	}

	// Histogram buckets are cumulative.
	if !strings.Contains(output, "portal_auth_validate_latency_seconds_bucket{le=\"0.005\"} 2\n") {
		t.Fatalf("missing first bucket:\n%s", output)
	}
	if !strings.Contains(output, "portal_auth_validate_latency_seconds_bucket{le=\"0.01\"} 3\n") {
		t.Fatalf("missing cumulative second bucket:\n%s", output)
	}
	if !strings.Contains(output, "portal_auth_validate_latency_seconds_bucket{le=\"+Inf\"} 4\n") {
		t.Fatalf("missing +Inf bucket:\n%s", output)
	}
	if !strings.Contains(output, "portal_auth_validate_latency_seconds_count 4\n") {
		t.Fatalf("missing histogram count:\n%s", output)
	}
}

func TestRenderEmptySnapshot(t *testing.T) {
	source := &fakeSource{
		snapshot: portalauth.MetricsSnapshot{
			Counters:   map[portalauth.MetricID]uint64{},
			Histograms: map[portalauth.MetricID][]uint64{},
		},
	}

	if output := NewPrometheusExporterFromSource(source).Render(); output != "" {
		t.Fatalf("expected empty output, got:\n%s", output)
	}

	var nilExporter *PrometheusExporter
	if output := nilExporter.Render(); output != "" {
		t.Fatalf("expected empty output from nil exporter, got %q", output)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	source := &fakeSource{
		snapshot: portalauth.MetricsSnapshot{
			Counters: map[portalauth.MetricID]uint64{
				portalauth.MetricOTPIssued: 1,
			},
			Histograms: map[portalauth.MetricID][]uint64{},
		},
	}

	recorder := httptest.NewRecorder()
	NewPrometheusExporterFromSource(source).Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type: %q", got)
	}
	if !strings.Contains(recorder.Body.String(), "portal_auth_otp_issued_total 1\n") {
		t.Fatalf("missing counter in response:\n%s", recorder.Body.String())
	}
}
