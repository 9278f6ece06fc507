// AngelaMos | 2026
// timezone.go

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	LocationKey    contextKey = "location"
	TimezoneCookie            = "user_tz"
	TimezoneHeader            = "X-Timezone"
)

// Timezone resolves the caller's IANA zone from the user_tz cookie, then
// the X-Timezone header. Unknown names fall back to def, and so does
// "Local", which names the server's zone and is not an IANA name.
func Timezone(def *time.Location) func(http.Handler) http.Handler {
	if def == nil {
		def = time.UTC
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := def

			name := r.Header.Get(TimezoneHeader)
			if c, err := r.Cookie(TimezoneCookie); err == nil && c.Value != "" {
				name = c.Value
			}
			if name != "" && !strings.EqualFold(name, "Local") {
				if l, err := time.LoadLocation(name); err == nil {
					loc = l
				}
			}

			next.ServeHTTP(w, r.WithContext(WithLocation(r.Context(), loc)))
		})
	}
}

func WithLocation(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, LocationKey, loc)
}

func GetLocation(ctx context.Context) *time.Location {
	if loc, ok := ctx.Value(LocationKey).(*time.Location); ok && loc != nil {
		return loc
	}
	return time.UTC
}
