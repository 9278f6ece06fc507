// AngelaMos | 2026
// filter_test.go

package memory

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/memoria/internal/core"
)

func TestParseFilterIgnoresNonNumeric(t *testing.T) {
	f := ParseFilter(url.Values{
		"type":         {"abc"},
		"strength_min": {"-5"},
		"limit":        {"1e3"},
	})

	assert.False(t, f.Type.Set)
	assert.False(t, f.StrengthMin.Set)
	assert.False(t, f.Limit.Set)
	assert.Equal(t, SortCreated, f.Sort)
}

func TestParseFilterClampsLimit(t *testing.T) {
	f := ParseFilter(url.Values{"limit": {"9000"}})

	require.True(t, f.Limit.Set)
	assert.Equal(t, MaxListLimit, f.Limit.Value)
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		raw  string
		want SortKey
	}{
		{"strength", SortStrength},
		{" Affect ", SortAffect},
		{"created", SortCreated},
		{"random", SortCreated},
		{"", SortCreated},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSortKey(tt.raw))
		})
	}
}

func TestBuildBulletQueryAllPredicates(t *testing.T) {
	f := Filter{
		Query:       "  alpha   50%_off ",
		Type:        core.Int(2),
		Topic:       "go",
		StrengthMin: core.Int(10),
		Limit:       core.Int(5),
		Sort:        SortAffect,
	}

	query, args := buildBulletQuery("user-1", f)

	assert.Equal(t, []any{
		"user-1",
		"%alpha%",
		`%50\%\_off%`,
		2,
		"%go%",
		10,
		5,
	}, args)

	assert.Contains(t, query, "WHERE m.user_id = $1")
	assert.Contains(t, query, "b.content ILIKE $2")
	assert.Contains(t, query, "b.content ILIKE $3")
	assert.Contains(t, query, "b.memory_type = $4")
	assert.Contains(t, query, "b.topic ILIKE $5")
	assert.Contains(t, query, "b.strength >= $6")
	assert.True(t, strings.HasSuffix(query, "LIMIT $7"))
	assert.Contains(t, query,
		"ORDER BY (b.helpful_count - b.harmful_count) DESC, b.last_accessed DESC, b.id DESC")
}

func TestBuildBulletQueryOutOfRangeNumbers(t *testing.T) {
	f := ParseFilter(url.Values{
		"type":         {"40000"},
		"strength_min": {"3000000000"},
	})
	require.True(t, f.Type.Set)
	require.True(t, f.StrengthMin.Set)

	query, args := buildBulletQuery("user-1", f)

	assert.Equal(t, []any{"user-1", 3000000000}, args)
	assert.Contains(t, query, " AND FALSE")
	assert.NotContains(t, query, "b.memory_type =")
	assert.Contains(t, query, "b.strength >= $2::bigint")
}

func TestBuildBulletQueryZeroFilter(t *testing.T) {
	query, args := buildBulletQuery("user-1", Filter{})

	assert.Equal(t, []any{"user-1"}, args)
	assert.NotContains(t, query, "ILIKE")
	assert.NotContains(t, query, "LIMIT")
	assert.Contains(t, query, "ORDER BY b.created_at DESC")
}

func TestBuildSummaryZeroFillsTypes(t *testing.T) {
	avg := 39.004
	s := buildSummary(
		summaryRow{TotalCount: 2, AvgStrength: &avg},
		[]typeRow{{MemoryType: Episodic, Count: 2}},
	)

	require.NotNil(t, s.AvgStrength)
	assert.InDelta(t, 39.0, *s.AvgStrength, 0.0001)
	assert.Equal(t, []TypeCount{
		{MemoryType: 1, Label: "Semantic", Count: 0},
		{MemoryType: 2, Label: "Episodic", Count: 2},
		{MemoryType: 3, Label: "Procedural", Count: 0},
	}, s.ByType)
}

func TestTagsScan(t *testing.T) {
	var tags Tags
	require.NoError(t, tags.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, Tags{"a", "b"}, tags)

	require.NoError(t, tags.Scan(nil))
	assert.Equal(t, Tags{}, tags)

	assert.Error(t, tags.Scan(42))
}
