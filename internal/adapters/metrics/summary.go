package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON shape of the admin status endpoint.
type Summary struct {
	HTTP      httpSummary        `json:"http"`
	Live      liveSummary        `json:"live"`
	Mutations outcomeSummary     `json:"mutations"`
	Notices   map[string]float64 `json:"notices"`
	Server    serverSummary      `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
}

type liveSummary struct {
	Watches float64 `json:"watches"`
}

type outcomeSummary struct {
	Total  float64 `json:"total"`
	Failed float64 `json:"failed"`
}

type serverSummary struct {
	StartTime           float64 `json:"startTime"`
	UptimeSeconds       float64 `json:"uptimeSeconds"`
	RateLimitRejections float64 `json:"rateLimitRejections"`
	AuthFailures        float64 `json:"authFailures"`
}

// Summarize gathers the registry into a Summary.
func (m *Metrics) Summarize() (Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Summary{}, err
	}
	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	requests := fam["roster_http_requests_total"]
	durations := fam["roster_http_request_duration_seconds"]
	mutations := fam["roster_mutations_total"]
	start := gaugeValue(fam["roster_server_start_time_seconds"])

	s := Summary{
		HTTP: httpSummary{
			TotalRequests: sumCounter(requests),
			ErrorRate:     errorRate(requests),
			P50Latency:    histogramPercentile(durations, 0.50),
			P95Latency:    histogramPercentile(durations, 0.95),
		},
		Live: liveSummary{Watches: sumGauge(fam["roster_live_watches"])},
		Mutations: outcomeSummary{
			Total:  sumCounter(mutations),
			Failed: sumCounter(mutations) - sumCounterWithLabel(mutations, "outcome", "ok"),
		},
		Notices: make(map[string]float64),
		Server: serverSummary{
			StartTime:           start,
			UptimeSeconds:       float64(time.Now().Unix()) - start,
			RateLimitRejections: sumCounter(fam["roster_ratelimit_rejections_total"]),
			AuthFailures:        sumCounter(fam["roster_auth_failures_total"]),
		},
	}
	if f := fam["roster_notice_deliveries_total"]; f != nil {
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "status" {
					s.Notices[lp.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return s, nil
}

// SummaryHandler serves Summarize as JSON.
func (m *Metrics) SummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Summarize()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(s)
	}
}

func sumCounter(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func sumGauge(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetGauge() != nil {
			total += m.GetGauge().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil || len(f.GetMetric()) == 0 {
		return 0
	}
	return f.GetMetric()[0].GetGauge().GetValue()
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func sumCounterWithLabel(f *dto.MetricFamily, name, value string) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if hasLabel(m, name, value) && m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// errorRate is the share of requests answered with a 4xx or 5xx status.
func errorRate(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total, errs float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				if code := lp.GetValue(); len(code) > 0 && code[0] >= '4' {
					errs += v
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return errs / total
}

// histogramPercentile estimates quantile q across every series in the
// family, interpolating linearly inside the bucket that holds it.
func histogramPercentile(f *dto.MetricFamily, q float64) float64 {
	if f == nil {
		return 0
	}
	type bucket struct {
		upper float64
		count uint64
	}
	var total uint64
	merged := make(map[float64]uint64)
	for _, m := range f.GetMetric() {
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		total += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			merged[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if total == 0 {
		return 0
	}

	buckets := make([]bucket, 0, len(merged))
	for ub, c := range merged {
		buckets = append(buckets, bucket{upper: ub, count: c})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].upper < buckets[j].upper })

	rank := q * float64(total)
	var prevUpper float64
	var prevCount uint64
	for _, b := range buckets {
		if math.IsInf(b.upper, 1) {
			break
		}
		if float64(b.count) >= rank {
			in := b.count - prevCount
			if in == 0 {
				return b.upper
			}
			return prevUpper + (rank-float64(prevCount))/float64(in)*(b.upper-prevUpper)
		}
		prevUpper, prevCount = b.upper, b.count
	}
	for i := len(buckets) - 1; i >= 0; i-- {
		if !math.IsInf(buckets[i].upper, 1) {
			return buckets[i].upper
		}
	}
	return 0
}
