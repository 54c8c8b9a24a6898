package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
)

func TestObserveRun_CountsOutcomesAndDiagnostics(t *testing.T) {
	m := New()

	res := &commission.Results{Diagnostics: []commission.Diagnostic{
		{Code: commission.DiagRowSkipped},
		{Code: commission.DiagRowSkipped},
		{Code: commission.DiagZeroTargets},
	}}
	m.ObserveRun(20*time.Millisecond, 5, res, nil)
	m.ObserveRun(time.Millisecond, 0, nil, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.diagnostics.WithLabelValues(string(commission.DiagRowSkipped))))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.salesRowsTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRun(time.Second, 1, nil, nil)
	m.ObserveRequest("GET", "/", 200)
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/runs", 200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `commission_http_requests_total{method="GET",route="/api/runs",status="200"} 1`)
}
