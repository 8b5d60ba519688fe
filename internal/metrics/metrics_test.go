package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/automations/:slug", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/automations/:slug", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/automations/fatura-botu", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/automations/:slug", "418"))

	assert.Equal(t, before+1, after)
}

func TestRecordersAndHandler(t *testing.T) {
	RecordCheckout(nil)
	RecordWebhook("payment_intent.succeeded", "ok")
	RecordEmail("smtp", errors.New("x"))
	RecordJob("expire_pending", nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(emails.WithLabelValues("smtp", "error")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "marketplace_payments_webhook_events_total"))
}
