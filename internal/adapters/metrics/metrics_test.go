package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"roster/internal/domain/apperr"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"classified", apperr.E(apperr.Unauthorized, "add_member", errors.New("no")), "unauthorized"},
		{"bare kind", apperr.NotFound, "not_found"},
		{"unclassified", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outcome(tt.err); got != tt.want {
				t.Errorf("Outcome = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObservers_UpdateCollectors(t *testing.T) {
	m := New()

	m.WatchOpened("lineups")
	m.WatchOpened("lineups")
	m.WatchClosed("lineups")
	if got := testutil.ToFloat64(m.LiveWatches.WithLabelValues("lineups")); got != 1 {
		t.Errorf("live watches = %v, want 1", got)
	}

	m.ObserveMutation("add_lineup", nil)
	m.ObserveMutation("add_lineup", apperr.E(apperr.ValidationFailed, "add_lineup", nil))
	if got := testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add_lineup", "ok")); got != 1 {
		t.Errorf("ok mutations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add_lineup", "validation_failed")); got != 1 {
		t.Errorf("failed mutations = %v, want 1", got)
	}

	m.ObserveDelivery("team_created", "completed")
	if got := testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("team_created", "completed")); got != 1 {
		t.Errorf("deliveries = %v, want 1", got)
	}
}

func TestSummarize(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/teams/search", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/api/teams/search", 200, 20*time.Millisecond)
	m.ObserveRequest("POST", "/api/teams", 422, 5*time.Millisecond)
	m.ObserveRequest("POST", "/api/teams", 201, 5*time.Millisecond)
	m.ObserveMutation("remove_member", nil)
	m.ObserveMutation("remove_member", errors.New("boom"))
	m.ObserveDelivery("team_joined", "retrying")
	m.ObserveDelivery("team_created", "retrying")
	m.IncRateLimitRejection()

	s, err := m.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.HTTP.TotalRequests != 4 {
		t.Errorf("TotalRequests = %v, want 4", s.HTTP.TotalRequests)
	}
	if s.HTTP.ErrorRate != 0.25 {
		t.Errorf("ErrorRate = %v, want 0.25", s.HTTP.ErrorRate)
	}
	if s.HTTP.P95Latency <= 0 || s.HTTP.P95Latency > 0.025 {
		t.Errorf("P95Latency = %v, want within (0, 0.025]", s.HTTP.P95Latency)
	}
	if s.Mutations.Total != 2 || s.Mutations.Failed != 1 {
		t.Errorf("Mutations = %+v, want total 2 failed 1", s.Mutations)
	}
	if s.Notices["retrying"] != 2 {
		t.Errorf("Notices = %v, want retrying 2", s.Notices)
	}
	if s.Server.RateLimitRejections != 1 {
		t.Errorf("RateLimitRejections = %v, want 1", s.Server.RateLimitRejections)
	}
}

func TestHandler_ExposesRosterMetrics(t *testing.T) {
	m := New()
	m.ObserveQuery("query", time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "roster_db_query_duration_seconds") {
		t.Error("exposition is missing roster_db_query_duration_seconds")
	}
}
