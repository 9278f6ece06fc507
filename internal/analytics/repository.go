// AngelaMos | 2026
// repository.go

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/memoria/internal/admin"
)

type ActivityRow struct {
	Day          time.Time `db:"day"`
	ActiveUsers  int       `db:"active_users"`
	MessageCount int       `db:"message_count"`
}

type ChatCounts struct {
	Sessions int `db:"sessions"`
	Messages int `db:"messages"`
}

type SessionReportRow struct {
	Title        string    `db:"title"`
	MessageCount int       `db:"message_count"`
	CreatedAt    time.Time `db:"created_at"`
}

type BulletReportRow struct {
	Content    string    `db:"content"`
	MemoryType int       `db:"memory_type"`
	CreatedAt  time.Time `db:"created_at"`
}

type Repository interface {
	ChatCounts(ctx context.Context, userID string) (*ChatCounts, error)
	// DailyActivity groups messages created at or after since by local
	// calendar day in the named zone.
	DailyActivity(ctx context.Context, zone string, since time.Time) ([]ActivityRow, error)
	SessionsReport(ctx context.Context, userID string) ([]SessionReportRow, error)
	BulletsReport(ctx context.Context, userID string) ([]BulletReportRow, error)
	admin.ContentCounter
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ChatCounts(ctx context.Context, userID string) (*ChatCounts, error) {
	var c ChatCounts
	err := r.db.GetContext(ctx, &c, `
		SELECT
			(SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1) AS sessions,
			(SELECT COUNT(*) FROM messages m
			   JOIN chat_sessions s ON s.id = m.session_id
			  WHERE s.user_id = $1) AS messages`, userID)
	if err != nil {
		return nil, fmt.Errorf("count chat: %w", err)
	}

	return &c, nil
}

func (r *repository) DailyActivity(ctx context.Context, zone string, since time.Time) ([]ActivityRow, error) {
	rows := []ActivityRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT (m.created_at AT TIME ZONE $1)::date                 AS day,
		       COUNT(DISTINCT s.user_id) FILTER (WHERE m.role = 2) AS active_users,
		       COUNT(*)                                            AS message_count
		FROM messages m
		JOIN chat_sessions s ON s.id = m.session_id
		WHERE m.created_at >= $2
		GROUP BY day
		ORDER BY day`, zone, since)
	if err != nil {
		return nil, fmt.Errorf("daily activity: %w", err)
	}

	return rows, nil
}

func (r *repository) SessionsReport(ctx context.Context, userID string) ([]SessionReportRow, error) {
	rows := []SessionReportRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT s.title,
		       (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id) AS message_count,
		       s.created_at
		FROM chat_sessions s
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sessions report: %w", err)
	}

	return rows, nil
}

func (r *repository) BulletsReport(ctx context.Context, userID string) ([]BulletReportRow, error) {
	rows := []BulletReportRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT b.content, b.memory_type, b.created_at
		FROM memory_bullets b
		JOIN memories m ON m.id = b.memory_id
		WHERE m.user_id = $1
		ORDER BY b.created_at DESC, b.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("bullets report: %w", err)
	}

	return rows, nil
}

func (r *repository) CountContent(ctx context.Context) (*admin.ContentCounts, error) {
	var c admin.ContentCounts
	err := r.db.GetContext(ctx, &c, `
		SELECT
			(SELECT COUNT(*) FROM users)          AS users,
			(SELECT COUNT(*) FROM chat_sessions)  AS sessions,
			(SELECT COUNT(*) FROM messages)       AS messages,
			(SELECT COUNT(*) FROM memories)       AS memories,
			(SELECT COUNT(*) FROM memory_bullets) AS memory_bullets,
			(SELECT COUNT(*) FROM subscriptions)  AS subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("count content: %w", err)
	}

	return &c, nil
}
