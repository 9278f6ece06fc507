// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/memoria/internal/middleware"
)

type countsFunc func(ctx context.Context) (*ContentCounts, error)

func (f countsFunc) CountContent(ctx context.Context) (*ContentCounts, error) { return f(ctx) }

func asAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
			UserID: "admin-1",
			Role:   middleware.RoleAdmin,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRouter(cfg HandlerConfig) chi.Router {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, asAdmin, middleware.RequireAdmin)
	return r
}

func get(t *testing.T, r http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestSystemStatsReportsPingHealth(t *testing.T) {
	r := newRouter(HandlerConfig{
		DBStats:   func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25, InUse: 3} },
		DBPing:    func(context.Context) error { return nil },
		RedisPing: func(context.Context) error { return errors.New("down") },
	})

	code, body := get(t, r, "/admin/stats")
	require.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]any)
	db := data["database"].(map[string]any)
	rdb := data["redis"].(map[string]any)

	assert.Equal(t, true, db["healthy"])
	assert.InDelta(t, 25, db["stats"].(map[string]any)["max_open_connections"], 0)
	assert.Equal(t, false, rdb["healthy"])
	assert.NotContains(t, rdb, "stats")
	assert.NotEmpty(t, data["runtime"].(map[string]any)["mem_alloc"])
}

func TestContentStats(t *testing.T) {
	r := newRouter(HandlerConfig{
		Content: countsFunc(func(context.Context) (*ContentCounts, error) {
			return &ContentCounts{Users: 2, Sessions: 5, Bullets: 9}, nil
		}),
	})

	code, body := get(t, r, "/admin/stats/content")
	require.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]any)
	assert.InDelta(t, 2, data["users"], 0)
	assert.InDelta(t, 9, data["memory_bullets"], 0)
}

func TestContentStatsUnconfigured(t *testing.T) {
	code, body := get(t, newRouter(HandlerConfig{}), "/admin/stats/content")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["success"])
}

func TestStatsRequireAdmin(t *testing.T) {
	r := chi.NewRouter()
	asUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithClaims(req.Context(), &middleware.AccessTokenClaims{UserID: "u", Role: "user"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
	NewHandler(HandlerConfig{}).RegisterRoutes(r, asUser, middleware.RequireAdmin)

	code, _ := get(t, r, "/admin/stats/runtime")
	assert.Equal(t, http.StatusForbidden, code)
}
