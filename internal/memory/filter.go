// AngelaMos | 2026
// filter.go

package memory

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/carterperez-dev/memoria/internal/core"
)

const MaxListLimit = 500

type SortKey string

const (
	SortCreated  SortKey = "created"
	SortStrength SortKey = "strength"
	SortAffect   SortKey = "affect"
)

// ParseSortKey falls back to SortCreated for anything unrecognized.
func ParseSortKey(raw string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case SortStrength, SortAffect:
		return k
	default:
		return SortCreated
	}
}

func (k SortKey) Label() string {
	switch k {
	case SortStrength:
		return "Strength"
	case SortAffect:
		return "Affect"
	default:
		return "Created"
	}
}

func (k SortKey) orderExpr() string {
	switch k {
	case SortStrength:
		return "b.strength DESC"
	case SortAffect:
		return "(b.helpful_count - b.harmful_count) DESC"
	default:
		return "b.created_at DESC"
	}
}

// Filter selects a subset of a user's bullets. Zero value matches all.
type Filter struct {
	Query       string
	Type        core.OptionalInt
	Topic       string
	StrengthMin core.OptionalInt
	Limit       core.OptionalInt
	Sort        SortKey
}

// ParseFilter reads q, type, topic, strength_min, sort and limit. Numeric
// parameters that are not plain digits are ignored.
func ParseFilter(q url.Values) Filter {
	return Filter{
		Query:       strings.TrimSpace(q.Get("q")),
		Type:        core.ParseOptionalInt(q.Get("type")),
		Topic:       strings.TrimSpace(q.Get("topic")),
		StrengthMin: core.ParseOptionalInt(q.Get("strength_min")),
		Limit:       core.ParseOptionalInt(q.Get("limit")).Clamp(MaxListLimit),
		Sort:        ParseSortKey(q.Get("sort")),
	}
}

// Terms splits the free-text query on whitespace.
func (f Filter) Terms() []string {
	return strings.Fields(f.Query)
}

const bulletColumns = `b.id, b.memory_id, b.content, b.tags, b.helpful_count,
	b.harmful_count, b.memory_type, b.topic, b.concept, b.strength,
	b.ttl_days, b.created_at, b.last_accessed`

// buildBulletQuery renders the filter as one parameterized statement
// scoped to userID.
func buildBulletQuery(userID string, f Filter) (string, []any) {
	var sb strings.Builder
	args := []any{userID}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString("SELECT " + bulletColumns + `
		FROM memory_bullets b
		JOIN memories m ON m.id = b.memory_id
		WHERE m.user_id = $1`)

	for _, term := range f.Terms() {
		sb.WriteString(" AND b.content ILIKE " + next("%"+core.EscapeLike(term)+"%"))
	}

	if f.Type.Set {
		if MemoryType(f.Type.Value).Valid() {
			sb.WriteString(" AND b.memory_type = " + next(f.Type.Value))
		} else {
			sb.WriteString(" AND FALSE")
		}
	}

	if f.Topic != "" {
		sb.WriteString(" AND b.topic ILIKE " + next("%"+core.EscapeLike(f.Topic)+"%"))
	}

	if f.StrengthMin.Set {
		// Bound as bigint so thresholds beyond the INTEGER column still compare.
		sb.WriteString(" AND b.strength >= " + next(f.StrengthMin.Value) + "::bigint")
	}

	sort := f.Sort
	if sort == "" {
		sort = SortCreated
	}
	sb.WriteString(" ORDER BY " + sort.orderExpr() + ", b.last_accessed DESC, b.id DESC")

	if f.Limit.Set {
		sb.WriteString(" LIMIT " + next(f.Limit.Clamp(MaxListLimit).Value))
	}

	return sb.String(), args
}
