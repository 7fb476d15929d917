package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest("/v1/*", http.MethodPost, 200, 150*time.Millisecond)
	m.Grant("demo")
	m.Reject(429)
	m.SearchResults(2)
	m.UpstreamError("webdav")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	assert.Contains(t, out, `edgegate_http_requests_total{method="POST",route="/v1/*",status="200"} 1`)
	assert.Contains(t, out, `edgegate_credential_grants_total{kind="demo"} 1`)
	assert.Contains(t, out, `edgegate_credential_rejections_total{status="429"} 1`)
	assert.Contains(t, out, `edgegate_search_results_count 1`)
	assert.Contains(t, out, `edgegate_upstream_errors_total{target="webdav"} 1`)
	assert.Contains(t, out, "go_goroutines")
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Grant("shared")

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), `edgegate_credential_grants_total{kind="shared"}`)
}
