// AngelaMos | 2026
// service_test.go

package billing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/memoria/internal/core"
)

type fakeRepo struct {
	Repository

	plans     map[int64]*Plan
	payments  map[int64]*Payment
	settledAs string
	deleteErr error
}

func (f *fakeRepo) GetPlan(_ context.Context, id int64) (*Plan, error) {
	if p, ok := f.plans[id]; ok {
		return p, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) GetPayment(_ context.Context, id int64) (*Payment, error) {
	if p, ok := f.payments[id]; ok {
		return p, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) SettlePayment(_ context.Context, id int64, status PaymentStatus, tier string) (*Payment, error) {
	f.settledAs = tier
	p := *f.payments[id]
	p.Status = status
	return &p, nil
}

func (f *fakeRepo) DeletePlan(context.Context, int64) error {
	return f.deleteErr
}

func (f *fakeRepo) CreatePlan(_ context.Context, p *Plan) error {
	p.ID = 1
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestRecordOutcomeTier(t *testing.T) {
	repo := &fakeRepo{
		plans: map[int64]*Plan{
			1: {ID: 1, Code: "enterprise"},
			2: {ID: 2, Code: "gold"},
		},
		payments: map[int64]*Payment{
			10: {ID: 10, PlanID: ptr(int64(1)), Status: PaymentPending},
			11: {ID: 11, PlanID: ptr(int64(2)), Status: PaymentPending},
			12: {ID: 12, PlanID: nil, Status: PaymentPending},
		},
	}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.RecordOutcome(ctx, 10, "succeeded")
	require.NoError(t, err)
	assert.Equal(t, "enterprise", repo.settledAs)

	_, err = svc.RecordOutcome(ctx, 11, "succeeded")
	require.NoError(t, err)
	assert.Empty(t, repo.settledAs)

	_, err = svc.RecordOutcome(ctx, 10, "failed")
	require.NoError(t, err)
	assert.Empty(t, repo.settledAs)

	_, err = svc.RecordOutcome(ctx, 12, "succeeded")
	require.NoError(t, err)
	assert.Empty(t, repo.settledAs)

	_, err = svc.RecordOutcome(ctx, 99, "succeeded")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreatePlanRejectsBadSlug(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.CreatePlan(context.Background(), PlanRequest{Name: "x", Code: "pro plan", Interval: ptr(0)})
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "code")
}

func TestAdminErrorMapping(t *testing.T) {
	pass := func(next http.Handler) http.Handler { return next }

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		repo     *fakeRepo
		wantCode int
		wantBody string
	}{
		{
			name:     "protected plan",
			method:   http.MethodDelete,
			path:     "/admin/plans/3",
			repo:     &fakeRepo{deleteErr: core.ErrProtected},
			wantCode: http.StatusConflict,
			wantBody: `"code":"PLAN_PROTECTED"`,
		},
		{
			name:     "malformed id",
			method:   http.MethodDelete,
			path:     "/admin/plans/abc",
			repo:     &fakeRepo{},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "bad interval",
			method:   http.MethodPost,
			path:     "/admin/plans",
			body:     `{"name":"x","code":"x","interval":5}`,
			repo:     &fakeRepo{},
			wantCode: http.StatusBadRequest,
			wantBody: `"interval"`,
		},
		{
			name:     "bad outcome",
			method:   http.MethodPut,
			path:     "/admin/payments/1/status",
			body:     `{"status":"refunded"}`,
			repo:     &fakeRepo{},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(NewService(tt.repo)).RegisterAdminRoutes(r, pass, pass)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestPeriodEndClampsMonthEnd(t *testing.T) {
	tests := []struct {
		interval Interval
		start    string
		want     string
	}{
		{Monthly, "2024-01-31", "2024-02-29"},
		{Monthly, "2024-12-15", "2025-01-15"},
		{Yearly, "2024-02-29", "2025-02-28"},
		{Yearly, "2024-03-01", "2025-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.interval.Label()+" "+tt.start, func(t *testing.T) {
			start, err := time.Parse(time.DateOnly, tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.interval.PeriodEnd(start).Format(time.DateOnly))
		})
	}
}
