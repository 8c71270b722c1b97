package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/MrEthical07/goSignup/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snapshot goSignup.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() goSignup.MetricsSnapshot { return f.snapshot }

func TestCollectNothingWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{snapshot: goSignup.MetricsSnapshot{
		Counters:   map[goSignup.MetricID]uint64{},
		Histograms: map[goSignup.MetricID][]uint64{},
	}})

	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestCollectCountersAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{snapshot: goSignup.MetricsSnapshot{
		Counters: map[goSignup.MetricID]uint64{
			goSignup.MetricLoginSuccess: 7,
			goSignup.MetricCodeIssued:   3,
		},
		Histograms: map[goSignup.MetricID][]uint64{
			goSignup.MetricLoginLatency: {1, 2, 3, 4, 5, 6, 7, 8},
		},
	}})

	assert.Equal(t, len(internaldefs.CounterDefs)+1, testutil.CollectAndCount(c))

	expected := `
# HELP gosignup_login_success_total Successful logins.
# TYPE gosignup_login_success_total counter
gosignup_login_success_total 7
# HELP gosignup_code_issued_total Verification codes stored.
# TYPE gosignup_code_issued_total counter
gosignup_code_issued_total 3
# HELP gosignup_login_latency_seconds Login latency.
# TYPE gosignup_login_latency_seconds histogram
gosignup_login_latency_seconds_bucket{le="0.025"} 1
gosignup_login_latency_seconds_bucket{le="0.05"} 3
gosignup_login_latency_seconds_bucket{le="0.1"} 6
gosignup_login_latency_seconds_bucket{le="0.25"} 10
gosignup_login_latency_seconds_bucket{le="0.5"} 15
gosignup_login_latency_seconds_bucket{le="1"} 21
gosignup_login_latency_seconds_bucket{le="2.5"} 28
gosignup_login_latency_seconds_bucket{le="+Inf"} 36
gosignup_login_latency_seconds_sum 0
gosignup_login_latency_seconds_count 36
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"gosignup_login_success_total", "gosignup_code_issued_total", "gosignup_login_latency_seconds")
	require.NoError(t, err)
}

func TestCollectorLintsClean(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{snapshot: goSignup.MetricsSnapshot{
		Counters: map[goSignup.MetricID]uint64{goSignup.MetricLoginFailure: 1},
	}})

	problems, err := testutil.CollectAndLint(c)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestHandlerServesRegistry(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{snapshot: goSignup.MetricsSnapshot{
		Counters: map[goSignup.MetricID]uint64{goSignup.MetricRegistrationSuccess: 2},
	}})
	h, err := Handler(c)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gosignup_registration_success_total 2")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestCollectorReadsLiveEngine(t *testing.T) {
	m := goSignup.NewMetrics(goSignup.MetricsConfig{Enabled: true})
	m.Inc(goSignup.MetricCodeVerified)
	m.Inc(goSignup.MetricCodeVerified)

	c := NewCollectorFromSource(snapshotFunc(m.Snapshot))
	expected := `
# HELP gosignup_code_verified_total Successful verification code checks.
# TYPE gosignup_code_verified_total counter
gosignup_code_verified_total 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "gosignup_code_verified_total"))
}

type snapshotFunc func() goSignup.MetricsSnapshot

func (f snapshotFunc) MetricsSnapshot() goSignup.MetricsSnapshot { return f() }
