package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(rate int, interval time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(rate, interval)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_BucketAndRefill(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request within the interval should be refused")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}

	clock.t = clock.t.Add(59 * time.Second)
	if rl.Allow("1.2.3.4") {
		t.Error("no refill before a whole interval has passed")
	}
	clock.t = clock.t.Add(time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("a whole interval should refill the bucket")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)
	rl.Allow("a")
	clock.t = clock.t.Add(10 * time.Minute)
	rl.Allow("b")

	if n := rl.Sweep(5 * time.Minute); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, ok := rl.visitors["b"]; !ok {
		t.Error("recent visitor should be kept")
	}
}

func TestRateLimit_RejectsWith429(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)
	rejected := 0
	h := RateLimit(rl, func() { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest("GET", "/api/teams/search", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d status = %d, want %d", i, rr.Code, want)
		}
	}
	if rejected != 1 {
		t.Errorf("onReject called %d times, want 1", rejected)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, name := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(name) == "" {
			t.Errorf("missing %s", name)
		}
	}
}

func TestCSRF_ExemptsJSONAndBearer(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	h := CSRF(key, nil, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"json body", map[string]string{"Content-Type": "application/json"}, http.StatusNoContent},
		{"bearer token", map[string]string{"Content-Type": "application/x-www-form-urlencoded", "Authorization": "Bearer abc"}, http.StatusNoContent},
		{"form without token", map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/teams/join", strings.NewReader("code=ABCD-2345"))
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
