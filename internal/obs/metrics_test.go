package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, ParseBucketsCSV(""))
	require.Equal(t, []float64{5, 50, 500}, ParseBucketsCSV("5,50,500"))
	require.Equal(t, []float64{10}, ParseBucketsCSV(" 10 , junk , -5 , 0 "))
}

func TestDurationMillis(t *testing.T) {
	require.InDelta(t, 1500, DurationMillis(1500*time.Millisecond), 1e-9)
	require.InDelta(t, 0.5, DurationMillis(500*time.Microsecond), 1e-9)
}

func TestHTTPObsRecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics("test", nil, reg)

	handler := HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/store", nil)
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["test_http_requests_total"])
	require.True(t, names["test_http_request_duration_ms"])
}

func TestStatusRecorderDefaultsTo200(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := NewStatusRecorder(rr)
	_, err := rec.Write([]byte("hi"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Status())
	require.EqualValues(t, 2, rec.BytesWritten())
}
