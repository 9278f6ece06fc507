// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/memoria/internal/config"
	"github.com/carterperez-dev/memoria/internal/core"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestTimezoneResolution(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "default", want: "Europe/Berlin"},
		{name: "header", header: "Asia/Tokyo", want: "Asia/Tokyo"},
		{name: "cookie wins", cookie: "America/New_York", header: "Asia/Tokyo", want: "America/New_York"},
		{name: "unknown falls back", header: "Nowhere/Special", want: "Europe/Berlin"},
		{name: "server local zone falls back", header: "Local", want: "Europe/Berlin"},
		{name: "local cookie falls back", cookie: "local", header: "Asia/Tokyo", want: "Europe/Berlin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Timezone(berlin)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = GetLocation(r.Context()).String()
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(TimezoneHeader, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TimezoneCookie, Value: tt.cookie})
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetLocationWithoutMiddleware(t *testing.T) {
	assert.Equal(t, time.UTC, GetLocation(context.Background()))
}

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(context.Context, string) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

func TestAuthenticator(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		status   int
		code     string
	}{
		{name: "missing", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{
			name:     "expired",
			header:   "Bearer tok",
			verifier: stubVerifier{err: core.ErrTokenExpired},
			status:   http.StatusUnauthorized,
			code:     "TOKEN_EXPIRED",
		},
		{
			name:     "garbage",
			header:   "Bearer tok",
			verifier: stubVerifier{err: errors.New("bad signature")},
			status:   http.StatusUnauthorized,
			code:     "TOKEN_INVALID",
		},
		{
			name:     "valid",
			header:   "bearer tok",
			verifier: stubVerifier{claims: &AccessTokenClaims{UserID: "u1", Role: "user"}},
			status:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var userID string
			h := Authenticator(tt.verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				userID = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
			} else {
				assert.Equal(t, "u1", userID)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	serve := func(claims *AccessTokenClaims) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if claims != nil {
			req = req.WithContext(WithClaims(req.Context(), claims))
		}
		rec := httptest.NewRecorder()
		RequireAdmin(okHandler).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&AccessTokenClaims{UserID: "u", Role: "user"}))
	assert.Equal(t, http.StatusOK, serve(&AccessTokenClaims{UserID: "u", Role: RoleAdmin}))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
	h.ServeHTTP(rec, req)
	assert.Len(t, seen, 26)
}

func TestLoggerLevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/missing"`)
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/v1/plans", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/v1/plans", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	SecurityHeaders(false)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/memories/{memoryID}", okHandler)

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/memories/"+id, nil))
	}

	assert.InDelta(t, 3, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/memories/{memoryID}", "200")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
}

func TestKeyByUserAndEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/memories/42/bullets", nil)
	req.RemoteAddr = "10.0.0.5:5555"
	assert.Equal(t, "ratelimit:ip:10.0.0.5:endpoint:/v1/memories/{id}/bullets", KeyByUserAndEndpoint(req))

	req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{UserID: "u7"}))
	assert.Equal(t, "ratelimit:user:u7:endpoint:/v1/memories/{id}/bullets", KeyByUserAndEndpoint(req))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req))
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimiterFallsBackToLocalBucket(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Limit:    PerMinute(1, 2),
		FailOpen: true,
	})
	h := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.50:1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestTieredUsesClaimTier(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{Limit: PerMinute(100, 100)})
	tiers := map[string]TierConfig{
		TierFree: {RequestsPerMinute: 1, BurstSize: 1},
		TierPro:  {RequestsPerMinute: 100, BurstSize: 100},
	}
	h := rl.Tiered(tiers)(okHandler)

	serve := func(userID, tier string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{UserID: userID, Tier: tier}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := serve("free-user", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, TierFree, first.Header().Get("X-RateLimit-Tier"))
	assert.Equal(t, http.StatusTooManyRequests, serve("free-user", "").Code)

	for range 3 {
		rec := serve("pro-user", TierPro)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, TierPro, rec.Header().Get("X-RateLimit-Tier"))
	}
}

func TestPerWindowDefaultsToMinute(t *testing.T) {
	assert.Equal(t, time.Minute, PerWindow(10, 5, 0).Period)
	assert.Equal(t, time.Hour, PerWindow(10, 5, time.Hour).Period)
	assert.True(t, IsKnownTier(TierEnterprise))
	assert.False(t, IsKnownTier("platinum"))
}
