package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	l := PerMinute(3)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("4th request should be denied")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other keys have their own bucket")
	}
}

func TestReset(t *testing.T) {
	l := PerMinute(1)
	defer l.Stop()

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second request should be denied")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("after Reset the key should be allowed again")
	}
}

func TestEvictIdle(t *testing.T) {
	l := New(rate.Every(time.Second), 1, time.Minute)
	defer l.Stop()

	l.Allow("old")
	l.Allow("new")
	l.mu.Lock()
	l.buckets["old"].lastSeen = time.Now().Add(-2 * time.Minute)
	l.mu.Unlock()

	l.evictIdle(time.Now())

	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestStop_Idempotent(t *testing.T) {
	l := PerMinute(5)
	l.Stop()
	l.Stop()
}

func TestMiddleware_Returns429(t *testing.T) {
	l := PerMinute(2)
	defer l.Stop()

	h := l.Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header on 429")
		}
	}

	want := []int{200, 200, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status %d, want %d", i+1, codes[i], want[i])
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"remote addr", "", "", "192.168.1.1:1234", "192.168.1.1"},
		{"xff ignored", "203.0.113.5, 10.0.0.1", "", "10.0.0.1:80", "10.0.0.1"},
		{"x-real-ip ignored", "", "198.51.100.7", "10.0.0.1:80", "10.0.0.1"},
		{"no port", "", "", "192.168.1.9", "192.168.1.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware_ForwardedForCannotResetLimit(t *testing.T) {
	l := New(rate.Every(time.Hour), 1, time.Minute)
	defer l.Stop()
	h := l.Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("statuses = %v, want [200 429 429]", codes)
	}
}

func TestMiddleware_BehindRealIP(t *testing.T) {
	l := New(rate.Every(time.Hour), 1, time.Minute)
	defer l.Stop()
	h := middleware.RealIP(l.Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	// through a trusted proxy, distinct clients get distinct buckets
	for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:80"
		req.Header.Set("X-Real-IP", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("client %s: status %d, want 200", client, rec.Code)
		}
	}
}
