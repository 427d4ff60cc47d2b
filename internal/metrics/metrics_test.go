package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordQuery(t *testing.T) {
	found := testutil.ToFloat64(QueriesTotal.WithLabelValues("recommend", "found"))
	empty := testutil.ToFloat64(QueriesTotal.WithLabelValues("recommend", "empty"))
	failed := testutil.ToFloat64(QueriesTotal.WithLabelValues("recommend", "error"))

	RecordQuery("recommend", 5, nil)
	RecordQuery("recommend", 0, nil)
	RecordQuery("recommend", 0, errors.New("not ready"))

	if got := testutil.ToFloat64(QueriesTotal.WithLabelValues("recommend", "found")); got != found+1 {
		t.Errorf("found = %v, want %v", got, found+1)
	}
	if got := testutil.ToFloat64(QueriesTotal.WithLabelValues("recommend", "empty")); got != empty+1 {
		t.Errorf("empty = %v, want %v", got, empty+1)
	}
	if got := testutil.ToFloat64(QueriesTotal.WithLabelValues("recommend", "error")); got != failed+1 {
		t.Errorf("error = %v, want %v", got, failed+1)
	}
}

func TestRecordCatalogLoad(t *testing.T) {
	failures := testutil.ToFloat64(CatalogLoadsTotal.WithLabelValues("failure"))

	RecordCatalogLoad(42, 10*time.Millisecond, nil)
	if got := testutil.ToFloat64(CatalogVideos); got != 42 {
		t.Errorf("CatalogVideos = %v, want 42", got)
	}
	if testutil.ToFloat64(CatalogLastSuccess) == 0 {
		t.Error("CatalogLastSuccess should be set after a successful load")
	}

	RecordCatalogLoad(0, time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(CatalogVideos); got != 42 {
		t.Errorf("failed load should not change CatalogVideos, got %v", got)
	}
	if got := testutil.ToFloat64(CatalogLoadsTotal.WithLabelValues("failure")); got != failures+1 {
		t.Errorf("failures = %v, want %v", got, failures+1)
	}
}

func TestRecordClassifierCall(t *testing.T) {
	before := testutil.ToFloat64(ClassifierCalls.WithLabelValues("threshold", "success"))
	RecordClassifierCall("threshold", time.Millisecond, nil)
	if got := testutil.ToFloat64(ClassifierCalls.WithLabelValues("threshold", "success")); got != before+1 {
		t.Errorf("success = %v, want %v", got, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommend", "200"))
	RecordAPIRequest("GET", "/api/v1/recommend", "200", 5*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommend", "200")); got != before+1 {
		t.Errorf("requests = %v, want %v", got, before+1)
	}
}
