// AngelaMos | 2026
// service.go

package holiday

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/memoria/internal/core"
)

const DefaultCountry = "US"

// DailyActivity is one day of the internal activity series. Date is
// YYYY-MM-DD in the caller's timezone.
type DailyActivity struct {
	Date         string `json:"date"`
	ActiveUsers  int    `json:"active_users"`
	MessageCount int    `json:"message_count"`
}

type MergedDay struct {
	Date              string  `json:"date"`
	ActiveUsers       int     `json:"active_users"`
	MessageCount      int     `json:"message_count"`
	IsNationalHoliday bool    `json:"is_national_holiday"`
	HolidayName       *string `json:"holiday_name"`
	HolidayLocalName  *string `json:"holiday_local_name"`
}

type Analytics struct {
	HolidayDays                 int      `json:"holiday_days"`
	NonHolidayDays              int      `json:"non_holiday_days"`
	AvgActiveUsersOnHolidays    *float64 `json:"avg_active_users_on_holidays"`
	AvgActiveUsersOnNonHolidays *float64 `json:"avg_active_users_on_non_holidays"`
}

type Payload struct {
	CountryCode  string      `json:"country_code"`
	CountryName  *string     `json:"country_name"`
	YearsCovered []int       `json:"years_covered"`
	Count        int         `json:"count"`
	Results      []MergedDay `json:"results"`
	Analytics    Analytics   `json:"analytics"`
}

type Service struct {
	calendar Calendar
}

func NewService(calendar Calendar) *Service {
	return &Service{calendar: calendar}
}

// NormalizeCode trims and uppercases a country code, defaulting to US.
func NormalizeCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return DefaultCountry
	}
	return code
}

// Merge tags each day of series with the country's public holidays and
// compares average activity on holidays against other days.
func (s *Service) Merge(
	ctx context.Context,
	rawCode string,
	series []DailyActivity,
) (*Payload, error) {
	code := NormalizeCode(rawCode)

	regions, err := s.calendar.AvailableRegions(ctx)
	if err != nil {
		return nil, err
	}

	var countryName *string
	for _, r := range regions {
		if r.CountryCode == code {
			name := r.Name
			countryName = &name
			break
		}
	}
	if countryName == nil {
		return nil, &InvalidCountryError{Code: code, Regions: regions}
	}

	payload := &Payload{
		CountryCode:  code,
		CountryName:  countryName,
		YearsCovered: yearsOf(series),
		Results:      []MergedDay{},
	}
	if len(payload.YearsCovered) == 0 {
		return payload, nil
	}

	lookup, err := s.fetchYears(ctx, code, payload.YearsCovered)
	if err != nil {
		return nil, err
	}

	payload.Results, payload.Analytics = mergeSeries(series, lookup)
	payload.Count = len(payload.Results)

	return payload, nil
}

func (s *Service) fetchYears(
	ctx context.Context,
	code string,
	years []int,
) (map[string]Holiday, error) {
	perYear := make([][]Holiday, len(years))

	g, gctx := errgroup.WithContext(ctx)
	for i, year := range years {
		g.Go(func() error {
			holidays, err := s.calendar.PublicHolidays(gctx, year, code)
			if err != nil {
				return err
			}
			perYear[i] = holidays
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lookup := make(map[string]Holiday)
	for _, holidays := range perYear {
		for _, h := range holidays {
			if h.Date == "" {
				continue
			}
			lookup[h.Date] = h
		}
	}

	return lookup, nil
}

func yearsOf(series []DailyActivity) []int {
	seen := make(map[int]struct{})
	years := []int{}
	for _, day := range series {
		if len(day.Date) < 4 {
			continue
		}
		y, err := strconv.Atoi(day.Date[:4])
		if err != nil {
			continue
		}
		if _, ok := seen[y]; !ok {
			seen[y] = struct{}{}
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return years
}

func mergeSeries(series []DailyActivity, lookup map[string]Holiday) ([]MergedDay, Analytics) {
	results := make([]MergedDay, 0, len(series))

	var (
		stats                     Analytics
		holidaySum, nonHolidaySum int
	)

	for _, day := range series {
		row := MergedDay{
			Date:         day.Date,
			ActiveUsers:  day.ActiveUsers,
			MessageCount: day.MessageCount,
		}

		if h, ok := lookup[day.Date]; ok {
			name, local := h.Name, h.LocalName
			row.IsNationalHoliday = true
			row.HolidayName = &name
			row.HolidayLocalName = &local
			stats.HolidayDays++
			holidaySum += day.ActiveUsers
		} else {
			stats.NonHolidayDays++
			nonHolidaySum += day.ActiveUsers
		}

		results = append(results, row)
	}

	stats.AvgActiveUsersOnHolidays = average(holidaySum, stats.HolidayDays)
	stats.AvgActiveUsersOnNonHolidays = average(nonHolidaySum, stats.NonHolidayDays)

	return results, stats
}

func average(sum, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := core.RoundTo(float64(sum)/float64(n), 2)
	return &v
}
