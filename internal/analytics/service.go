// AngelaMos | 2026
// service.go

package analytics

import (
	"context"
	"time"

	"github.com/carterperez-dev/memoria/internal/config"
	"github.com/carterperez-dev/memoria/internal/holiday"
	"github.com/carterperez-dev/memoria/internal/memory"
)

type MemorySummarizer interface {
	Summarize(ctx context.Context, userID string) (*memory.Summary, error)
}

type HolidayMerger interface {
	Merge(ctx context.Context, rawCode string, series []holiday.DailyActivity) (*holiday.Payload, error)
}

type DashboardSummary struct {
	TotalMemories    int                `json:"total_memories"`
	TotalSessions    int                `json:"total_sessions"`
	TotalMessages    int                `json:"total_messages"`
	AvgStrength      *float64           `json:"avg_strength"`
	TotalHelpful     int                `json:"total_helpful"`
	TotalHarmful     int                `json:"total_harmful"`
	TypeDistribution []memory.TypeCount `json:"type_distribution"`
}

type ActivityFeed struct {
	Count   int                     `json:"count"`
	Results []holiday.DailyActivity `json:"results"`
}

type Service struct {
	repo     Repository
	memories MemorySummarizer
	holidays HolidayMerger
	window   int
	now      func() time.Time
}

func NewService(
	repo Repository,
	memories MemorySummarizer,
	holidays HolidayMerger,
	cfg config.AnalyticsConfig,
) *Service {
	window := cfg.ActivityWindowDays
	if window <= 0 {
		window = 30
	}

	return &Service{
		repo:     repo,
		memories: memories,
		holidays: holidays,
		window:   window,
		now:      time.Now,
	}
}

func (s *Service) Summary(ctx context.Context, userID string) (*DashboardSummary, error) {
	mem, err := s.memories.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}

	chat, err := s.repo.ChatCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		TotalMemories:    mem.TotalCount,
		TotalSessions:    chat.Sessions,
		TotalMessages:    chat.Messages,
		AvgStrength:      mem.AvgStrength,
		TotalHelpful:     mem.TotalHelpful,
		TotalHarmful:     mem.TotalHarmful,
		TypeDistribution: mem.ByType,
	}, nil
}

// ActiveUsers returns the zero-filled activity window ending today in loc.
func (s *Service) ActiveUsers(ctx context.Context, loc *time.Location) (*ActivityFeed, error) {
	series, err := s.series(ctx, loc)
	if err != nil {
		return nil, err
	}

	return &ActivityFeed{Count: len(series), Results: series}, nil
}

func (s *Service) HolidayActivity(ctx context.Context, code string, loc *time.Location) (*holiday.Payload, error) {
	series, err := s.series(ctx, loc)
	if err != nil {
		return nil, err
	}

	return s.holidays.Merge(ctx, code, series)
}

func (s *Service) series(ctx context.Context, loc *time.Location) ([]holiday.DailyActivity, error) {
	if loc == nil {
		loc = time.UTC
	}

	start := windowStart(s.now(), loc, s.window)
	rows, err := s.repo.DailyActivity(ctx, loc.String(), start)
	if err != nil {
		return nil, err
	}

	return fillDailySeries(rows, start, s.window), nil
}

func (s *Service) SessionsReport(ctx context.Context, userID string, loc *time.Location) (*Report, error) {
	rows, err := s.repo.SessionsReport(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sessionsReport(rows, loc), nil
}

func (s *Service) BulletsReport(ctx context.Context, userID string, loc *time.Location) (*Report, error) {
	rows, err := s.repo.BulletsReport(ctx, userID)
	if err != nil {
		return nil, err
	}
	return bulletsReport(rows, loc), nil
}
