// AngelaMos | 2026
// client.go

package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/memoria/internal/config"
	"github.com/carterperez-dev/memoria/internal/core"
)

const tracerName = "memoria/holiday"

// Client talks to a Nager.Date compatible API. It never retries.
type Client struct {
	baseURL  string
	http     *http.Client
	requests *prometheus.CounterVec
}

// NewClient registers its request counter on reg; a nil reg skips
// registration.
func NewClient(cfg config.HolidayConfig, reg prometheus.Registerer) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "memoria_holiday_upstream_requests_total",
				Help: "Requests sent to the holiday calendar API",
			},
			[]string{"operation", "outcome"},
		),
	}
}

func (c *Client) AvailableRegions(ctx context.Context) ([]Region, error) {
	var payload []Region
	if err := c.getJSON(ctx, "available_regions", "/AvailableCountries", &payload); err != nil {
		return nil, err
	}

	regions := make([]Region, 0, len(payload))
	for _, r := range payload {
		code := strings.ToUpper(strings.TrimSpace(r.CountryCode))
		name := strings.TrimSpace(r.Name)
		if code == "" || name == "" {
			continue
		}
		regions = append(regions, Region{CountryCode: code, Name: name})
	}

	return regions, nil
}

func (c *Client) PublicHolidays(
	ctx context.Context,
	year int,
	countryCode string,
) ([]Holiday, error) {
	path := "/PublicHolidays/" + strconv.Itoa(year) + "/" + countryCode

	var payload []Holiday
	if err := c.getJSON(ctx, "public_holidays", path, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func (c *Client) getJSON(ctx context.Context, operation, path string, dst any) (err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "holiday."+operation,
		attribute.String("http.url", c.baseURL+path))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			core.SetSpanError(ctx, err)
		}
		c.requests.WithLabelValues(operation, outcome).Inc()
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", operation, ErrUnavailable)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", operation, ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: status %d: %w", operation, resp.StatusCode, ErrUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode: %w: %w", operation, ErrUnavailable, err)
	}

	return nil
}

var _ Calendar = (*Client)(nil)
