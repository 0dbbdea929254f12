package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestObserveMergeIncrementsCounter(t *testing.T) {
	c := NewCollector()
	c.ObserveMerge("accepted")
	c.ObserveMerge("accepted")
	c.ObserveMerge("duplicate")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `followstore_merges_total{outcome="accepted"} 2`) {
		t.Fatalf("expected accepted=2 in metrics output, got:\n%s", body)
	}
	if !strings.Contains(body, `followstore_merges_total{outcome="duplicate"} 1`) {
		t.Fatalf("expected duplicate=1 in metrics output, got:\n%s", body)
	}
}

func TestObservePruneRunAccumulates(t *testing.T) {
	c := NewCollector()
	c.ObservePruneRun(3)
	c.ObservePruneRun(0)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "followstore_prune_runs_total 2") {
		t.Fatalf("expected 2 prune runs, got:\n%s", body)
	}
	if !strings.Contains(body, "followstore_pruned_total 3") {
		t.Fatalf("expected 3 pruned total, got:\n%s", body)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveMerge("accepted")
	c.ObserveEvent("mergeMessage")
	c.ObservePruneRun(1)
}
