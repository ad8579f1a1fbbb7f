package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollector_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordExtraction(nil, 2*time.Second)
	c.RecordExtraction(errors.New("boom"), time.Second)
	c.RecordAuthExchangeFailure()
	c.RecordProcessedFetch(true)
	c.RecordProcessedFetch(false)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(500)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"dashboard_extract_success_total 1",
		"dashboard_extract_fail_total 1",
		"dashboard_auth_exchange_fail_total 1",
		`dashboard_processed_fetch_total{outcome="hit"} 1`,
		`dashboard_processed_fetch_total{outcome="miss"} 1`,
		`dashboard_http_status_total{status_code="200"} 1`,
		`dashboard_http_status_total{status_code="500"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering the same metrics twice should panic")
		}
	}()
	NewCollector(reg)
}
