package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("fourth request allowed")
	}
	if !rl.Allow("b") {
		t.Error("other client limited")
	}
	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("new window still limited")
	}
	if rl.Hits() != 1 {
		t.Errorf("hits = %d", rl.Hits())
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 3)
	rl.Allow("a")
	*now = now.Add(5 * time.Minute)
	rl.Allow("b")
	*now = now.Add(6 * time.Minute)
	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("active = %d", rl.ActiveClients())
	}
}

func TestMiddlewareOnlyLimitsWrites(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "k" }, Writes, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := []int{}
	for _, m := range []string{http.MethodPost, http.MethodPost, http.MethodGet} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(m, "/", nil))
		codes = append(codes, rr.Code)
	}
	want := []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusNoContent}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes = %v, want %v", codes, want)
			break
		}
	}
}
