// AngelaMos | 2026
// entity.go

package memory

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type MemoryType int

const (
	Semantic   MemoryType = 1
	Episodic   MemoryType = 2
	Procedural MemoryType = 3
)

var MemoryTypes = []MemoryType{Semantic, Episodic, Procedural}

func (t MemoryType) Valid() bool {
	return t >= Semantic && t <= Procedural
}

func (t MemoryType) Label() string {
	switch t {
	case Semantic:
		return "Semantic"
	case Episodic:
		return "Episodic"
	case Procedural:
		return "Procedural"
	default:
		return "Unknown"
	}
}

func (t MemoryType) String() string {
	return t.Label()
}

// Tags is a string list stored as a JSONB array.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}

type Memory struct {
	ID          int64     `db:"id"`
	UserID      string    `db:"user_id"`
	AccessClock int       `db:"access_clock"`
	BulletCount int       `db:"bullet_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type Bullet struct {
	ID           int64      `db:"id"`
	MemoryID     int64      `db:"memory_id"`
	Content      string     `db:"content"`
	Tags         Tags       `db:"tags"`
	HelpfulCount int        `db:"helpful_count"`
	HarmfulCount int        `db:"harmful_count"`
	MemoryType   MemoryType `db:"memory_type"`
	Topic        string     `db:"topic"`
	Concept      *string    `db:"concept"`
	Strength     int        `db:"strength"`
	TTLDays      int        `db:"ttl_days"`
	CreatedAt    time.Time  `db:"created_at"`
	LastAccessed time.Time  `db:"last_accessed"`
}

// Affect is net feedback: helpful votes minus harmful votes.
func (b *Bullet) Affect() int {
	return b.HelpfulCount - b.HarmfulCount
}

type VoteKind string

const (
	VoteHelpful VoteKind = "helpful"
	VoteHarmful VoteKind = "harmful"
)
