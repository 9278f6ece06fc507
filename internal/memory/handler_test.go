// AngelaMos | 2026
// handler_test.go

package memory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/memoria/internal/core"
)

type fakeRepo struct {
	Repository

	gotFilter Filter
	bullets   []Bullet
}

func (f *fakeRepo) FilterBullets(_ context.Context, _ string, filter Filter) ([]Bullet, error) {
	f.gotFilter = filter
	return f.bullets, nil
}

func (f *fakeRepo) Summarize(context.Context, string) (*Summary, error) {
	return buildSummary(summaryRow{}, nil), nil
}

func (f *fakeRepo) TouchMemory(context.Context, string, int64) (*Memory, error) {
	return nil, core.ErrNotFound
}

func (f *fakeRepo) DeleteBullet(context.Context, string, int64) error {
	return fmt.Errorf("delete bullet: %w", core.ErrNotFound)
}

func (f *fakeRepo) AddBullet(_ context.Context, _ string, b *Bullet) error {
	b.ID = 1
	return nil
}

func newTestRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	pass := func(next http.Handler) http.Handler { return next }
	NewHandler(NewService(repo)).RegisterRoutes(r, pass)
	return r
}

func TestListBulletsEchoesFilter(t *testing.T) {
	repo := &fakeRepo{bullets: []Bullet{{ID: 7, Content: "x", MemoryType: Episodic}}}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/memory-bullets?q=foo&type=2&sort=bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"search_query":"foo"`)
	assert.Contains(t, body, `"active_memory_type":2`)
	assert.Contains(t, body, `"active_sort":"created"`)
	assert.Contains(t, body, `"sort_label":"Created"`)
	assert.Contains(t, body, `"avg_strength":null`)
	assert.Contains(t, body, `"count":1`)
	assert.True(t, repo.gotFilter.Type.Set)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	for _, path := range []string{"/memories/abc", "/memories/-1", "/memories/99"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestNotFoundNamesTheResource(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/memories/99", `"message":"memory not found"`},
		{http.MethodGet, "/memories/abc", `"message":"memory not found"`},
		{http.MethodDelete, "/memory-bullets/99", `"message":"memory bullet not found"`},
		{http.MethodDelete, "/memory-bullets/0", `"message":"memory bullet not found"`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestAddBulletValidates(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing content", `{"memory_type":1}`, http.StatusBadRequest},
		{"bad type", `{"content":"x","memory_type":4}`, http.StatusBadRequest},
		{"negative strength", `{"content":"x","memory_type":1,"strength":-1}`, http.StatusBadRequest},
		{"ok", `{"content":"x","memory_type":3,"tags":["a"]}`, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/memories/1/bullets", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}
