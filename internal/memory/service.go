// AngelaMos | 2026
// service.go

package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/memoria/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListMemories(ctx context.Context, userID string) ([]MemoryResponse, error) {
	memories, err := s.repo.ListMemories(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]MemoryResponse, 0, len(memories))
	for i := range memories {
		out = append(out, ToMemoryResponse(&memories[i]))
	}
	return out, nil
}

func (s *Service) CreateMemory(ctx context.Context, userID string) (*MemoryResponse, error) {
	m, err := s.repo.CreateMemory(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := ToMemoryResponse(m)
	return &resp, nil
}

// GetMemory returns a memory with its bullets and counts the read against
// its access clock.
func (s *Service) GetMemory(ctx context.Context, userID string, id int64) (*MemoryDetailResponse, error) {
	m, err := s.repo.TouchMemory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	bullets, err := s.repo.ListMemoryBullets(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	return &MemoryDetailResponse{
		MemoryResponse: ToMemoryResponse(m),
		Bullets:        ToBulletResponseList(bullets),
	}, nil
}

func (s *Service) DeleteMemory(ctx context.Context, userID string, id int64) error {
	return s.repo.DeleteMemory(ctx, userID, id)
}

func (s *Service) AddBullet(
	ctx context.Context,
	userID string,
	memoryID int64,
	req CreateBulletRequest,
) (*BulletResponse, error) {
	memoryType := MemoryType(req.MemoryType)
	if !memoryType.Valid() {
		return nil, fmt.Errorf("add bullet: memory type %d: %w", req.MemoryType, core.ErrInvalidInput)
	}

	tags := make(Tags, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	bullet := &Bullet{
		MemoryID:   memoryID,
		Content:    req.Content,
		Tags:       tags,
		MemoryType: memoryType,
		Topic:      strings.TrimSpace(req.Topic),
		Concept:    req.Concept,
		Strength:   req.Strength,
		TTLDays:    req.TTLDays,
	}

	if err := s.repo.AddBullet(ctx, userID, bullet); err != nil {
		return nil, err
	}

	resp := ToBulletResponse(bullet)
	return &resp, nil
}

// ListBullets runs the filter and attaches the summary of the whole set.
func (s *Service) ListBullets(ctx context.Context, userID string, f Filter) (*ListResponse, error) {
	bullets, err := s.repo.FilterBullets(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort := f.Sort
	if sort == "" {
		sort = SortCreated
	}

	resp := &ListResponse{
		SearchQuery:       f.Query,
		ActiveSort:        string(sort),
		SortLabel:         sort.Label(),
		MemoryTypeChoices: memoryTypeChoices(),
		Summary:           *summary,
		Count:             len(bullets),
		Results:           ToBulletResponseList(bullets),
	}
	if f.Type.Set {
		v := f.Type.Value
		resp.ActiveMemoryType = &v
	}

	return resp, nil
}

func (s *Service) Summarize(ctx context.Context, userID string) (*Summary, error) {
	return s.repo.Summarize(ctx, userID)
}

func (s *Service) Vote(ctx context.Context, userID string, id int64, kind VoteKind) (*BulletResponse, error) {
	b, err := s.repo.Vote(ctx, userID, id, kind)
	if err != nil {
		return nil, err
	}

	resp := ToBulletResponse(b)
	return &resp, nil
}

func (s *Service) SetStrength(ctx context.Context, userID string, id int64, strength int) (*BulletResponse, error) {
	if strength < 0 {
		return nil, fmt.Errorf("set strength %d: %w", strength, core.ErrInvalidInput)
	}

	b, err := s.repo.SetStrength(ctx, userID, id, strength)
	if err != nil {
		return nil, err
	}

	resp := ToBulletResponse(b)
	return &resp, nil
}

func (s *Service) DeleteBullet(ctx context.Context, userID string, id int64) error {
	return s.repo.DeleteBullet(ctx, userID, id)
}
