// AngelaMos | 2026
// entity.go

package chat

import (
	"time"
)

type Role int

const (
	RoleSystem    Role = 1
	RoleUser      Role = 2
	RoleAssistant Role = 3
)

func (r Role) Valid() bool {
	return r >= RoleSystem && r <= RoleAssistant
}

func (r Role) Label() string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return "Unknown"
	}
}

func (r Role) String() string {
	return r.Label()
}

type Session struct {
	ID           int64     `db:"id"`
	UserID       string    `db:"user_id"`
	Title        string    `db:"title"`
	MessageCount int       `db:"message_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Message struct {
	ID        int64     `db:"id"`
	SessionID int64     `db:"session_id"`
	Role      Role      `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

type ListSessionsParams struct {
	Search string
	Limit  int
}
