// AngelaMos | 2026
// holiday.go

package holiday

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable covers transport failures, non-2xx answers and payloads
// that do not decode.
var ErrUnavailable = errors.New("holiday calendar unavailable")

// InvalidCountryError rejects a code missing from the supported regions.
type InvalidCountryError struct {
	Code    string
	Regions []Region
}

func (e *InvalidCountryError) Error() string {
	return fmt.Sprintf("invalid country code: %s", e.Code)
}

type Region struct {
	CountryCode string `json:"countryCode"`
	Name        string `json:"name"`
}

type Holiday struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	LocalName string `json:"localName"`
}

// Calendar is an external source of public holidays.
type Calendar interface {
	AvailableRegions(ctx context.Context) ([]Region, error)
	PublicHolidays(ctx context.Context, year int, countryCode string) ([]Holiday, error)
}
