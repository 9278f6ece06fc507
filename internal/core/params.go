// AngelaMos | 2026
// params.go

package core

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// OptionalInt is a query parameter that is either a non-negative integer
// or unset. Anything that is not all ASCII digits parses as unset.
type OptionalInt struct {
	Value int
	Set   bool
}

func Int(v int) OptionalInt {
	return OptionalInt{Value: v, Set: true}
}

func ParseOptionalInt(raw string) OptionalInt {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return OptionalInt{}
	}

	for _, c := range raw {
		if c < '0' || c > '9' {
			return OptionalInt{}
		}
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return OptionalInt{}
	}

	return OptionalInt{Value: v, Set: true}
}

func QueryOptionalInt(r *http.Request, key string) OptionalInt {
	return ParseOptionalInt(r.URL.Query().Get(key))
}

// Clamp caps a set value at max; unset stays unset.
func (o OptionalInt) Clamp(max int) OptionalInt {
	if o.Set && o.Value > max {
		o.Value = max
	}
	return o
}

func (o OptionalInt) Or(def int) int {
	if !o.Set {
		return def
	}
	return o.Value
}

// EscapeLike makes LIKE metacharacters in s match literally.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

const relativeWindow = 72 * time.Hour

// RelativeTime renders recent times as "3 hours ago" and older ones as a
// local date.
func RelativeTime(t, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	if now.Sub(t) < relativeWindow {
		return humanize.RelTime(t, now, "ago", "from now")
	}
	return t.In(loc).Format(time.DateOnly)
}

func RoundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
