// AngelaMos | 2026
// repository.go

package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/memoria/internal/core"
)

type Repository interface {
	ListMemories(ctx context.Context, userID string) ([]Memory, error)
	CreateMemory(ctx context.Context, userID string) (*Memory, error)
	TouchMemory(ctx context.Context, userID string, id int64) (*Memory, error)
	DeleteMemory(ctx context.Context, userID string, id int64) error
	ListMemoryBullets(ctx context.Context, memoryID int64) ([]Bullet, error)

	AddBullet(ctx context.Context, userID string, bullet *Bullet) error
	FilterBullets(ctx context.Context, userID string, f Filter) ([]Bullet, error)
	Vote(ctx context.Context, userID string, id int64, kind VoteKind) (*Bullet, error)
	SetStrength(ctx context.Context, userID string, id int64, strength int) (*Bullet, error)
	DeleteBullet(ctx context.Context, userID string, id int64) error

	Summarize(ctx context.Context, userID string) (*Summary, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const memoryColumns = `m.id, m.user_id, m.access_clock, m.created_at, m.updated_at,
	(SELECT COUNT(*) FROM memory_bullets b WHERE b.memory_id = m.id) AS bullet_count`

func (r *repository) ListMemories(ctx context.Context, userID string) ([]Memory, error) {
	query := `
		SELECT ` + memoryColumns + `
		FROM memories m
		WHERE m.user_id = $1
		ORDER BY m.updated_at DESC, m.id DESC`

	memories := []Memory{}
	if err := r.db.SelectContext(ctx, &memories, query, userID); err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	return memories, nil
}

func (r *repository) CreateMemory(ctx context.Context, userID string) (*Memory, error) {
	query := `
		INSERT INTO memories (user_id)
		VALUES ($1)
		RETURNING id, user_id, access_clock, created_at, updated_at`

	var m Memory
	if err := r.db.GetContext(ctx, &m, query, userID); err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}

	return &m, nil
}

// TouchMemory increments the access clock of an owned memory and returns
// it.
func (r *repository) TouchMemory(ctx context.Context, userID string, id int64) (*Memory, error) {
	query := `
		WITH touched AS (
			UPDATE memories
			SET access_clock = access_clock + 1
			WHERE id = $1 AND user_id = $2
			RETURNING id, user_id, access_clock, created_at, updated_at
		)
		SELECT t.*, (SELECT COUNT(*) FROM memory_bullets b WHERE b.memory_id = t.id) AS bullet_count
		FROM touched t`

	var m Memory
	err := r.db.GetContext(ctx, &m, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("touch memory: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("touch memory: %w", err)
	}

	return &m, nil
}

func (r *repository) DeleteMemory(ctx context.Context, userID string, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM memories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}

	return requireRow(result, "delete memory")
}

func (r *repository) ListMemoryBullets(ctx context.Context, memoryID int64) ([]Bullet, error) {
	query := `
		SELECT ` + bulletColumns + `
		FROM memory_bullets b
		WHERE b.memory_id = $1
		ORDER BY b.last_accessed DESC, b.id DESC`

	bullets := []Bullet{}
	if err := r.db.SelectContext(ctx, &bullets, query, memoryID); err != nil {
		return nil, fmt.Errorf("list memory bullets: %w", err)
	}

	return bullets, nil
}

// AddBullet inserts into an owned memory and bumps the memory's
// updated_at in the same transaction.
func (r *repository) AddBullet(ctx context.Context, userID string, bullet *Bullet) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var owned int64
		err := tx.GetContext(ctx, &owned, `
			UPDATE memories SET updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING id`, bullet.MemoryID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("add bullet: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("add bullet: %w", err)
		}

		query := `
			INSERT INTO memory_bullets (
				memory_id, content, tags, memory_type, topic, concept,
				strength, ttl_days
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, helpful_count, harmful_count, created_at, last_accessed`

		row := tx.QueryRowxContext(ctx, query,
			bullet.MemoryID,
			bullet.Content,
			bullet.Tags,
			bullet.MemoryType,
			bullet.Topic,
			bullet.Concept,
			bullet.Strength,
			bullet.TTLDays,
		)
		if err := row.Scan(
			&bullet.ID,
			&bullet.HelpfulCount,
			&bullet.HarmfulCount,
			&bullet.CreatedAt,
			&bullet.LastAccessed,
		); err != nil {
			return fmt.Errorf("insert bullet: %w", err)
		}

		return nil
	})
}

func (r *repository) FilterBullets(ctx context.Context, userID string, f Filter) ([]Bullet, error) {
	query, args := buildBulletQuery(userID, f)

	bullets := []Bullet{}
	if err := r.db.SelectContext(ctx, &bullets, query, args...); err != nil {
		return nil, fmt.Errorf("filter bullets: %w", err)
	}

	return bullets, nil
}

func (r *repository) Vote(ctx context.Context, userID string, id int64, kind VoteKind) (*Bullet, error) {
	var set string
	switch kind {
	case VoteHelpful:
		set = "helpful_count = b.helpful_count + 1"
	case VoteHarmful:
		set = "harmful_count = b.harmful_count + 1"
	default:
		return nil, fmt.Errorf("vote %q: %w", kind, core.ErrInvalidInput)
	}

	return r.updateOwnedBullet(ctx, "vote bullet", set, userID, id)
}

func (r *repository) SetStrength(ctx context.Context, userID string, id int64, strength int) (*Bullet, error) {
	return r.updateOwnedBullet(ctx, "set bullet strength", "strength = $3", userID, id, strength)
}

// updateOwnedBullet applies set to one bullet owned by userID and
// refreshes last_accessed. $1 is the bullet id and $2 the user id.
func (r *repository) updateOwnedBullet(
	ctx context.Context,
	op, set, userID string,
	id int64,
	extra ...any,
) (*Bullet, error) {
	query := `
		UPDATE memory_bullets b
		SET ` + set + `, last_accessed = NOW()
		FROM memories m
		WHERE b.id = $1 AND m.id = b.memory_id AND m.user_id = $2
		RETURNING ` + bulletColumns

	args := append([]any{id, userID}, extra...)

	var b Bullet
	err := r.db.GetContext(ctx, &b, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &b, nil
}

func (r *repository) DeleteBullet(ctx context.Context, userID string, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM memory_bullets b
		USING memories m
		WHERE b.id = $1 AND m.id = b.memory_id AND m.user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bullet: %w", err)
	}

	return requireRow(result, "delete bullet")
}

type summaryRow struct {
	TotalCount   int      `db:"total_count"`
	AvgStrength  *float64 `db:"avg_strength"`
	MinStrength  *int     `db:"min_strength"`
	MaxStrength  *int     `db:"max_strength"`
	TotalHelpful int      `db:"total_helpful"`
	TotalHarmful int      `db:"total_harmful"`
}

type typeRow struct {
	MemoryType MemoryType `db:"memory_type"`
	Count      int        `db:"count"`
}

// Summarize aggregates every bullet the user owns, ignoring any filter.
func (r *repository) Summarize(ctx context.Context, userID string) (*Summary, error) {
	var row summaryRow
	err := r.db.GetContext(ctx, &row, `
		SELECT COUNT(*)                          AS total_count,
		       AVG(b.strength)::float8           AS avg_strength,
		       MIN(b.strength)                   AS min_strength,
		       MAX(b.strength)                   AS max_strength,
		       COALESCE(SUM(b.helpful_count), 0) AS total_helpful,
		       COALESCE(SUM(b.harmful_count), 0) AS total_harmful
		FROM memory_bullets b
		JOIN memories m ON m.id = b.memory_id
		WHERE m.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("summarize bullets: %w", err)
	}

	var types []typeRow
	err = r.db.SelectContext(ctx, &types, `
		SELECT b.memory_type, COUNT(*) AS count
		FROM memory_bullets b
		JOIN memories m ON m.id = b.memory_id
		WHERE m.user_id = $1
		GROUP BY b.memory_type`, userID)
	if err != nil {
		return nil, fmt.Errorf("count bullet types: %w", err)
	}

	return buildSummary(row, types), nil
}

func buildSummary(row summaryRow, types []typeRow) *Summary {
	counts := make(map[MemoryType]int, len(types))
	for _, t := range types {
		counts[t.MemoryType] = t.Count
	}

	byType := make([]TypeCount, 0, len(MemoryTypes))
	for _, t := range MemoryTypes {
		byType = append(byType, TypeCount{
			MemoryType: int(t),
			Label:      t.Label(),
			Count:      counts[t],
		})
	}

	s := &Summary{
		TotalCount:   row.TotalCount,
		MinStrength:  row.MinStrength,
		MaxStrength:  row.MaxStrength,
		TotalHelpful: row.TotalHelpful,
		TotalHarmful: row.TotalHarmful,
		ByType:       byType,
	}
	if row.AvgStrength != nil {
		avg := core.RoundTo(*row.AvgStrength, 2)
		s.AvgStrength = &avg
	}

	return s
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
