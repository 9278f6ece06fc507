// AngelaMos | 2026
// username.go

package user

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/carterperez-dev/memoria/internal/core"
)

const (
	MaxUsernameLength = 150
	fallbackUsername  = "User"
)

var usernameStrip = regexp.MustCompile(`[^\w.@+-]`)

// BuildUsername derives a username from the first non-blank candidate.
func BuildUsername(candidates ...string) string {
	raw := ""
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			raw = c
			break
		}
	}

	cleaned := usernameStrip.ReplaceAllString(raw, "")
	cleaned = core.TruncateRunes(cleaned, MaxUsernameLength)
	if cleaned == "" {
		cleaned = fallbackUsername
	}

	return CapitalizeFirst(cleaned)
}

// UniqueUsername returns base, or base with the smallest numeric suffix
// starting at 1 that is not taken. The result never exceeds
// MaxUsernameLength.
func UniqueUsername(base string, taken []string) string {
	if base == "" {
		base = fallbackUsername
	}

	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}

	candidate := core.TruncateRunes(base, MaxUsernameLength)
	for suffix := 1; ; suffix++ {
		if _, ok := used[candidate]; !ok {
			return candidate
		}
		s := strconv.Itoa(suffix)
		candidate = core.TruncateRunes(base, MaxUsernameLength-len(s)) + s
	}
}

func CapitalizeFirst(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
