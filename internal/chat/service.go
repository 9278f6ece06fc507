// AngelaMos | 2026
// service.go

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/memoria/internal/config"
	"github.com/carterperez-dev/memoria/internal/core"
)

const MaxSessionListLimit = 100

type Service struct {
	repo     Repository
	reply    string
	titleMax int
	now      func() time.Time
}

func NewService(repo Repository, cfg config.ChatConfig) *Service {
	titleMax := cfg.TitleMax
	if titleMax <= 0 {
		titleMax = 200
	}

	return &Service{
		repo:     repo,
		reply:    cfg.AssistantReply,
		titleMax: titleMax,
		now:      time.Now,
	}
}

func (s *Service) ListSessions(
	ctx context.Context,
	userID string,
	search string,
	limit core.OptionalInt,
	loc *time.Location,
) ([]SessionResponse, error) {
	sessions, err := s.repo.ListSessions(ctx, userID, ListSessionsParams{
		Search: strings.TrimSpace(search),
		Limit:  limit.Clamp(MaxSessionListLimit).Or(0),
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, ToSessionResponse(&sessions[i], now, loc))
	}
	return out, nil
}

// StartSession opens a session titled after the first message and records
// the opening exchange.
func (s *Service) StartSession(
	ctx context.Context,
	userID, content string,
	loc *time.Location,
) (*ExchangeResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("start session: empty content: %w", core.ErrInvalidInput)
	}

	session := &Session{
		UserID: userID,
		Title:  core.TruncateRunes(content, s.titleMax),
	}
	messages := s.exchange(content)

	if err := s.repo.CreateWithExchange(ctx, session, messages); err != nil {
		return nil, err
	}

	return &ExchangeResponse{
		Session:  ToSessionResponse(session, s.now(), loc),
		Messages: derefMessages(messages),
	}, nil
}

func (s *Service) GetSession(
	ctx context.Context,
	userID string,
	id int64,
	role core.OptionalInt,
	loc *time.Location,
) (*SessionDetailResponse, error) {
	session, err := s.repo.GetSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	filter := roleFilter(role)
	messages, err := s.repo.ListMessages(ctx, session.ID, filter)
	if err != nil {
		return nil, err
	}

	resp := &SessionDetailResponse{
		SessionResponse: ToSessionResponse(session, s.now(), loc),
		Messages:        toMessageResponses(messages),
	}
	if filter != nil {
		v := int(*filter)
		resp.ActiveRole = &v
	}

	return resp, nil
}

func (s *Service) ListMessages(
	ctx context.Context,
	userID string,
	id int64,
	role core.OptionalInt,
) (*MessageListResponse, error) {
	session, err := s.repo.GetSession(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, session.ID, roleFilter(role))
	if err != nil {
		return nil, err
	}

	return &MessageListResponse{
		SessionID: session.ID,
		Count:     len(messages),
		Messages:  toMessageResponses(messages),
	}, nil
}

func (s *Service) PostMessage(
	ctx context.Context,
	userID string,
	id int64,
	content string,
) ([]MessageResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("post message: empty content: %w", core.ErrInvalidInput)
	}

	messages := s.exchange(content)
	if err := s.repo.AppendExchange(ctx, userID, id, messages); err != nil {
		return nil, err
	}

	return derefMessages(messages), nil
}

// Rename ignores a blank title and reports the title the session ends up
// with.
func (s *Service) Rename(ctx context.Context, userID string, id int64, title string) (*RenameResponse, error) {
	title = core.TruncateRunes(strings.TrimSpace(title), s.titleMax)
	if title == "" {
		session, err := s.repo.GetSession(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		return &RenameResponse{OK: true, Title: session.Title}, nil
	}

	if err := s.repo.Rename(ctx, userID, id, title); err != nil {
		return nil, err
	}

	return &RenameResponse{OK: true, Title: title}, nil
}

func (s *Service) DeleteSession(ctx context.Context, userID string, id int64) error {
	return s.repo.DeleteSession(ctx, userID, id)
}

func (s *Service) exchange(content string) []*Message {
	return []*Message{
		{Role: RoleUser, Content: content},
		{Role: RoleAssistant, Content: s.reply},
	}
}

// roleFilter drops values outside the known roles.
func roleFilter(raw core.OptionalInt) *Role {
	if !raw.Set {
		return nil
	}
	role := Role(raw.Value)
	if !role.Valid() {
		return nil
	}
	return &role
}

func derefMessages(messages []*Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, ToMessageResponse(m))
	}
	return out
}
