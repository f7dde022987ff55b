package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("doctype", "invoice_form"),
		attribute.String("party_id", "456"),
		attribute.String("action", "submit"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("doctype"), attrs[0].Key)
	assert.Equal(t, attribute.Key("action"), attrs[1].Key)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordLedgerEntry(context.Background(), "invoice_form", "posting")
	m.RecordDocumentTransition(context.Background(), "invoice_form", "submit")
	m.RecordReportRendered(context.Background(), "trial_balance", "json")
	m.RecordCommissionInvoices(context.Background(), "Supplier", 2)

	noop := NewNoop()
	require.NotNil(t, noop)
	noop.RecordLedgerEntry(context.Background(), "payment_entry", "reversal")
}

func TestHTTPMetricsCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "agrimarket", Environment: "test"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/health", "200")))
}
