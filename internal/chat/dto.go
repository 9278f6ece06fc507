// AngelaMos | 2026
// dto.go

package chat

import (
	"time"

	"github.com/carterperez-dev/memoria/internal/core"
)

type ContentRequest struct {
	Content string `json:"content" validate:"max=20000"`
}

type RenameRequest struct {
	Title string `json:"title" validate:"max=1000"`
}

type SessionResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UpdatedLabel string    `json:"updated_label"`
}

type MessageResponse struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Role      int       `json:"role"`
	RoleLabel string    `json:"role_label"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionDetailResponse struct {
	SessionResponse
	ActiveRole *int              `json:"active_role"`
	Messages   []MessageResponse `json:"messages"`
}

type MessageListResponse struct {
	SessionID int64             `json:"session_id"`
	Count     int               `json:"count"`
	Messages  []MessageResponse `json:"messages"`
}

type ExchangeResponse struct {
	Session  SessionResponse   `json:"session"`
	Messages []MessageResponse `json:"messages"`
}

type RenameResponse struct {
	OK    bool   `json:"ok"`
	Title string `json:"title"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

func ToSessionResponse(s *Session, now time.Time, loc *time.Location) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		Title:        s.Title,
		MessageCount: s.MessageCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		UpdatedLabel: core.RelativeTime(s.UpdatedAt, now, loc),
	}
}

func ToMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      int(m.Role),
		RoleLabel: m.Role.Label(),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toMessageResponses(messages []Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, ToMessageResponse(&messages[i]))
	}
	return out
}
