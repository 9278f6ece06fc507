// AngelaMos | 2026
// analytics_test.go

package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/memoria/internal/config"
	"github.com/carterperez-dev/memoria/internal/core"
	"github.com/carterperez-dev/memoria/internal/holiday"
	"github.com/carterperez-dev/memoria/internal/memory"
)

type fakeRepo struct {
	Repository

	rows      []ActivityRow
	gotZone   string
	gotSince  time.Time
	sessions  []SessionReportRow
	chatCount ChatCounts
}

func (f *fakeRepo) DailyActivity(_ context.Context, zone string, since time.Time) ([]ActivityRow, error) {
	f.gotZone = zone
	f.gotSince = since
	return f.rows, nil
}

func (f *fakeRepo) SessionsReport(context.Context, string) ([]SessionReportRow, error) {
	return f.sessions, nil
}

func (f *fakeRepo) ChatCounts(context.Context, string) (*ChatCounts, error) {
	return &f.chatCount, nil
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(context.Context, string) (*memory.Summary, error) {
	avg := 12.5
	return &memory.Summary{
		TotalCount:   4,
		AvgStrength:  &avg,
		TotalHelpful: 3,
		ByType:       []memory.TypeCount{{MemoryType: 1, Label: "Semantic", Count: 4}},
	}, nil
}

type fakeMerger struct {
	err     error
	gotCode string
}

func (f *fakeMerger) Merge(_ context.Context, code string, series []holiday.DailyActivity) (*holiday.Payload, error) {
	f.gotCode = code
	if f.err != nil {
		return nil, f.err
	}
	return &holiday.Payload{CountryCode: holiday.NormalizeCode(code), Count: len(series)}, nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestWindowStartUsesLocalDay(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2024-03-01 20:00 UTC is already 2024-03-02 in Tokyo.
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	start := windowStart(now, tokyo, 3)
	assert.Equal(t, "2024-02-29", start.Format(time.DateOnly))
	assert.Equal(t, tokyo, start.Location())

	start = windowStart(now, time.UTC, 1)
	assert.Equal(t, "2024-03-01", start.Format(time.DateOnly))
}

func TestFillDailySeriesZeroFills(t *testing.T) {
	start := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	rows := []ActivityRow{
		{Day: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), ActiveUsers: 2, MessageCount: 9},
	}

	series := fillDailySeries(rows, start, 4)

	assert.Equal(t, []holiday.DailyActivity{
		{Date: "2024-12-30"},
		{Date: "2024-12-31", ActiveUsers: 2, MessageCount: 9},
		{Date: "2025-01-01"},
		{Date: "2025-01-02"},
	}, series)
}

func TestActiveUsersWindow(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, fakeSummarizer{}, &fakeMerger{}, config.AnalyticsConfig{ActivityWindowDays: 30})
	svc.now = fixedNow(time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC))

	feed, err := svc.ActiveUsers(context.Background(), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 30, feed.Count)
	assert.Equal(t, "2024-06-01", feed.Results[0].Date)
	assert.Equal(t, "2024-06-30", feed.Results[29].Date)
	assert.Equal(t, "UTC", repo.gotZone)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), repo.gotSince)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, map[string]string{"format": "must be csv or json"}, appErr.Fields)
}

func TestReportRendersTimesInZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	report := sessionsReport([]SessionReportRow{{
		Title:        `Trip, "Japan"`,
		MessageCount: 4,
		CreatedAt:    time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}}, ny)

	var csvBuf bytes.Buffer
	require.NoError(t, report.Write(&csvBuf, FormatCSV))
	assert.Equal(t,
		"title,message_count,created_at\n\"Trip, \"\"Japan\"\"\",4,2024-01-15T07:00:00-05:00\n",
		csvBuf.String())

	var jsonBuf bytes.Buffer
	require.NoError(t, report.Write(&jsonBuf, FormatJSON))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &records))
	require.Len(t, records, 1)
	assert.InDelta(t, 4, records[0]["message_count"], 0)
	assert.Equal(t, "2024-01-15T07:00:00-05:00", records[0]["created_at"])

	assert.Equal(t, "sessions_report.json", report.Filename(FormatJSON))
}

func TestBulletsReportUsesTypeLabel(t *testing.T) {
	report := bulletsReport([]BulletReportRow{{Content: "c", MemoryType: 3}}, time.UTC)
	assert.Equal(t, "Procedural", report.Rows[0][1])
	assert.Equal(t, "memory_bullets_report.csv", report.Filename(FormatCSV))
}

func TestSummaryCombinesMemoryAndChat(t *testing.T) {
	repo := &fakeRepo{chatCount: ChatCounts{Sessions: 2, Messages: 8}}
	svc := NewService(repo, fakeSummarizer{}, &fakeMerger{}, config.AnalyticsConfig{})

	s, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 4, s.TotalMemories)
	assert.Equal(t, 2, s.TotalSessions)
	assert.Equal(t, 8, s.TotalMessages)
	assert.InDelta(t, 12.5, *s.AvgStrength, 0)
	assert.Len(t, s.TypeDistribution, 1)
}

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	pass := func(next http.Handler) http.Handler { return next }
	h := NewHandler(svc)
	h.RegisterRoutes(r, pass)
	h.RegisterPublicRoutes(r, pass)
	return r
}

func TestHolidayFeedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		query    string
		wantCode int
		wantBody []string
		denyBody []string
	}{
		{
			name:     "invalid country",
			err:      &holiday.InvalidCountryError{Code: "ZZ", Regions: []holiday.Region{{CountryCode: "US", Name: "United States"}}},
			query:    "?q=zz",
			wantCode: http.StatusBadRequest,
			wantBody: []string{`"requested_country_code": "ZZ"`, `"available_regions": [`},
		},
		{
			name:     "upstream down",
			err: fmt.Errorf(
				"available_regions: %w: Get \"http://127.0.0.1:1/api/v3/AvailableCountries\": dial tcp 127.0.0.1:1: connect: connection refused",
				holiday.ErrUnavailable,
			),
			query:    "?country=US",
			wantCode: http.StatusServiceUnavailable,
			wantBody: []string{
				`"error": "Holiday service unavailable"`,
				`"message": "Unable to reach the holiday calendar. Try again later."`,
			},
			denyBody: []string{"127.0.0.1", "dial tcp", "AvailableCountries"},
		},
		{
			name:     "ok",
			query:    "?country=de",
			wantCode: http.StatusOK,
			wantBody: []string{`"country_code": "DE"`, `"count": 30`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeRepo{}, fakeSummarizer{}, &fakeMerger{err: tt.err}, config.AnalyticsConfig{})

			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec,
				httptest.NewRequest(http.MethodGet, "/public/active-users/holidays"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
			for _, deny := range tt.denyBody {
				assert.NotContains(t, rec.Body.String(), deny)
			}
		})
	}
}

func TestHolidayFeedPrefersCountryParam(t *testing.T) {
	merger := &fakeMerger{}
	svc := NewService(&fakeRepo{}, fakeSummarizer{}, merger, config.AnalyticsConfig{})

	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/public/active-users/holidays?country=FR&q=DE", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FR", merger.gotCode)
}

func TestDemoFormats(t *testing.T) {
	router := newTestRouter(NewService(&fakeRepo{}, fakeSummarizer{}, &fakeMerger{}, config.AnalyticsConfig{}))

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"", "application/json", `"project":"MEMORIA"`},
		{"html", "text/html; charset=utf-8", "<h1>MEMORIA API</h1>"},
		{"text", "text/plain; charset=utf-8", "MEMORIA API: Memory Enhanced AI Assistant"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/demo?format="+tt.format, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.True(t, strings.Contains(rec.Body.String(), tt.contains), rec.Body.String())
		})
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	router := newTestRouter(NewService(&fakeRepo{}, fakeSummarizer{}, &fakeMerger{}, config.AnalyticsConfig{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/export/sessions?format=xml", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"format":"must be csv or json"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/export/sessions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="sessions_report.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "title,message_count,created_at\n", rec.Body.String())
}
