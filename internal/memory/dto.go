// AngelaMos | 2026
// dto.go

package memory

import (
	"time"
)

type CreateBulletRequest struct {
	Content    string   `json:"content"     validate:"required,max=10000"`
	Tags       []string `json:"tags"        validate:"max=32,dive,min=1,max=64"`
	MemoryType int      `json:"memory_type" validate:"required,min=1,max=3"`
	Topic      string   `json:"topic"       validate:"max=200"`
	Concept    *string  `json:"concept"     validate:"omitempty,max=10000"`
	Strength   int      `json:"strength"    validate:"gte=0"`
	TTLDays    int      `json:"ttl_days"    validate:"gte=0"`
}

type VoteRequest struct {
	Kind string `json:"kind" validate:"required,oneof=helpful harmful"`
}

type StrengthRequest struct {
	Strength *int `json:"strength" validate:"required,gte=0"`
}

type BulletResponse struct {
	ID              int64     `json:"id"`
	MemoryID        int64     `json:"memory_id"`
	Content         string    `json:"content"`
	Tags            []string  `json:"tags"`
	HelpfulCount    int       `json:"helpful_count"`
	HarmfulCount    int       `json:"harmful_count"`
	Affect          int       `json:"affect"`
	MemoryType      int       `json:"memory_type"`
	MemoryTypeLabel string    `json:"memory_type_label"`
	Topic           string    `json:"topic"`
	Concept         *string   `json:"concept"`
	Strength        int       `json:"strength"`
	TTLDays         int       `json:"ttl_days"`
	CreatedAt       time.Time `json:"created_at"`
	LastAccessed    time.Time `json:"last_accessed"`
}

type MemoryResponse struct {
	ID          int64     `json:"id"`
	AccessClock int       `json:"access_clock"`
	BulletCount int       `json:"bullet_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MemoryDetailResponse struct {
	MemoryResponse
	Bullets []BulletResponse `json:"bullets"`
}

type TypeCount struct {
	MemoryType int    `json:"memory_type"`
	Label      string `json:"label"`
	Count      int    `json:"count"`
}

// Summary aggregates a user's whole bullet set. Strength statistics are
// nil when the set is empty.
type Summary struct {
	TotalCount   int         `json:"total_count"`
	AvgStrength  *float64    `json:"avg_strength"`
	MinStrength  *int        `json:"min_strength"`
	MaxStrength  *int        `json:"max_strength"`
	TotalHelpful int         `json:"total_helpful"`
	TotalHarmful int         `json:"total_harmful"`
	ByType       []TypeCount `json:"type_distribution"`
}

type Choice struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

type ListResponse struct {
	SearchQuery       string           `json:"search_query"`
	ActiveMemoryType  *int             `json:"active_memory_type"`
	ActiveSort        string           `json:"active_sort"`
	SortLabel         string           `json:"sort_label"`
	MemoryTypeChoices []Choice         `json:"memory_type_choices"`
	Summary           Summary          `json:"summary"`
	Count             int              `json:"count"`
	Results           []BulletResponse `json:"results"`
}

func ToBulletResponse(b *Bullet) BulletResponse {
	tags := []string(b.Tags)
	if tags == nil {
		tags = []string{}
	}

	return BulletResponse{
		ID:              b.ID,
		MemoryID:        b.MemoryID,
		Content:         b.Content,
		Tags:            tags,
		HelpfulCount:    b.HelpfulCount,
		HarmfulCount:    b.HarmfulCount,
		Affect:          b.Affect(),
		MemoryType:      int(b.MemoryType),
		MemoryTypeLabel: b.MemoryType.Label(),
		Topic:           b.Topic,
		Concept:         b.Concept,
		Strength:        b.Strength,
		TTLDays:         b.TTLDays,
		CreatedAt:       b.CreatedAt,
		LastAccessed:    b.LastAccessed,
	}
}

func ToBulletResponseList(bullets []Bullet) []BulletResponse {
	out := make([]BulletResponse, 0, len(bullets))
	for i := range bullets {
		out = append(out, ToBulletResponse(&bullets[i]))
	}
	return out
}

func ToMemoryResponse(m *Memory) MemoryResponse {
	return MemoryResponse{
		ID:          m.ID,
		AccessClock: m.AccessClock,
		BulletCount: m.BulletCount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func memoryTypeChoices() []Choice {
	choices := make([]Choice, 0, len(MemoryTypes))
	for _, t := range MemoryTypes {
		choices = append(choices, Choice{Value: int(t), Label: t.Label()})
	}
	return choices
}
