package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLimiterAllowsUpToLimit(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	rl := NewLimiter(Config{RequestsPerMinute: 2, Now: c.now})
	defer rl.Stop()

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "clients are limited independently")

	c.t = c.t.Add(time.Minute)
	assert.True(t, rl.Allow("1.1.1.1"), "window resets after a minute")

	m := rl.GetMetrics()
	assert.Equal(t, int64(1), m.TotalHits)
	assert.Equal(t, int64(2), m.ClientCount)
}

func TestLimiterWindowDoesNotSlide(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	rl := NewLimiter(Config{RequestsPerMinute: 1, Now: c.now})
	defer rl.Stop()

	assert.True(t, rl.Allow("ip"))
	for i := 0; i < 5; i++ {
		c.t = c.t.Add(10 * time.Second)
		assert.False(t, rl.Allow("ip"))
	}
	c.t = c.t.Add(10 * time.Second)
	assert.True(t, rl.Allow("ip"))
}

func TestCleanupRemovesIdleClients(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	rl := NewLimiter(Config{Now: c.now})
	defer rl.Stop()

	rl.Allow("a")
	c.t = c.t.Add(11 * time.Minute)
	rl.Allow("b")
	assert.Equal(t, 1, rl.cleanupStaleEntries())
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	rl := NewLimiter(Config{RequestsPerMinute: 1, Now: c.now})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	c.t = c.t.Add(15 * time.Second)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "45", rr.Header().Get("Retry-After"))
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
