package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.ProductsCreated.Inc()
	r.HTTPRequests.WithLabelValues("/api/items", "GET", "200").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "catalog_products_created_total 1")
	assert.Contains(t, body, `catalog_http_requests_total{method="GET",route="/api/items",status="200"} 1`)
}
