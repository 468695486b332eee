package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewMemoryLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for range 2 {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute + time.Second)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "window slid past old requests")
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	rl := NewMemoryLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	_, _ = rl.Allow(context.Background(), "idle")
	now = now.Add(2 * time.Minute)
	_, _ = rl.Allow(context.Background(), "active")
	rl.cleanup()

	assert.NotContains(t, rl.requests, "idle")
	assert.Contains(t, rl.requests, "active")
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	rl := NewMemoryLimiter(10, time.Minute)

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := rl.Allow(context.Background(), "ip")
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRedisLimiter(rdb, "auth", 2, time.Minute)
	ctx := context.Background()

	for range 2 {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("rl:auth:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimit_Middleware(t *testing.T) {
	handler := RateLimit("auth", NewMemoryLimiter(1, time.Minute), nil)(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// a forged forwarding header from an untrusted peer does not reset the budget
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "10.9.8.7")
	req.Header.Set("X-Real-IP", "10.9.8.6")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_BehindTrustedProxy(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	handler := RateLimit("auth", NewMemoryLimiter(1, time.Minute), proxies)(okHandler)

	newReq := func(client string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:443"
		req.Header.Set("X-Forwarded-For", client)
		return req
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq("203.0.113.9"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq("198.51.100.7"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq("203.0.113.9"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	handler := RateLimit("auth", NewRedisLimiter(rdb, "auth", 1, time.Minute), nil)(okHandler)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	proxies := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		trusted    []netip.Prefix
		want       string
	}{
		{name: "peer only", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "headers ignored without proxies", remoteAddr: "192.0.2.1:1234", xff: "203.0.113.9", realIP: "198.51.100.7", want: "192.0.2.1"},
		{name: "headers ignored from untrusted peer", remoteAddr: "192.0.2.1:1234", xff: "203.0.113.9", trusted: proxies, want: "192.0.2.1"},
		{name: "forwarded by trusted proxy", remoteAddr: "10.0.0.2:443", xff: "203.0.113.9", trusted: proxies, want: "203.0.113.9"},
		{name: "spoofed leftmost hop skipped", remoteAddr: "10.0.0.2:443", xff: "1.1.1.1, 203.0.113.9, 10.0.0.3", trusted: proxies, want: "203.0.113.9"},
		{name: "all hops trusted", remoteAddr: "10.0.0.2:443", xff: "10.0.0.5, 10.0.0.3", trusted: proxies, want: "10.0.0.5"},
		{name: "garbage hop falls back to peer", remoteAddr: "10.0.0.2:443", xff: "not-an-ip", trusted: proxies, want: "10.0.0.2"},
		{name: "real ip from trusted proxy", remoteAddr: "10.0.0.2:443", realIP: " 198.51.100.7 ", trusted: proxies, want: "198.51.100.7"},
		{name: "ipv6 peer", remoteAddr: "[::1]:8080", xff: "2001:db8::1", trusted: proxies, want: "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			assert.Equal(t, tt.want, clientIP(req, tt.trusted))
		})
	}
}
