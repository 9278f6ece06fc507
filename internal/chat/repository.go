// AngelaMos | 2026
// repository.go

package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/memoria/internal/core"
)

type Repository interface {
	ListSessions(ctx context.Context, userID string, params ListSessionsParams) ([]Session, error)
	GetSession(ctx context.Context, userID string, id int64) (*Session, error)
	Rename(ctx context.Context, userID string, id int64, title string) error
	DeleteSession(ctx context.Context, userID string, id int64) error
	ListMessages(ctx context.Context, sessionID int64, role *Role) ([]Message, error)

	// CreateWithExchange inserts the session and its opening messages in
	// one transaction.
	CreateWithExchange(ctx context.Context, session *Session, messages []*Message) error
	// AppendExchange inserts messages into an owned session and bumps
	// its updated_at in one transaction.
	AppendExchange(ctx context.Context, userID string, sessionID int64, messages []*Message) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const sessionColumns = `s.id, s.user_id, s.title, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM messages msg WHERE msg.session_id = s.id) AS message_count`

func (r *repository) ListSessions(
	ctx context.Context,
	userID string,
	params ListSessionsParams,
) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM chat_sessions s WHERE s.user_id = $1`
	args := []any{userID}

	if params.Search != "" {
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		query += " AND s.title ILIKE $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY s.created_at DESC, s.id DESC"

	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	sessions := []Session{}
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

func (r *repository) GetSession(ctx context.Context, userID string, id int64) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM chat_sessions s WHERE s.id = $1 AND s.user_id = $2`

	var s Session
	err := r.db.GetContext(ctx, &s, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

func (r *repository) Rename(ctx context.Context, userID string, id int64, title string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE chat_sessions SET title = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID, title)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}

	return requireRow(result, "rename session")
}

func (r *repository) DeleteSession(ctx context.Context, userID string, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return requireRow(result, "delete session")
}

func (r *repository) ListMessages(ctx context.Context, sessionID int64, role *Role) ([]Message, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = $1`
	args := []any{sessionID}

	if role != nil {
		query += " AND role = $2"
		args = append(args, *role)
	}
	query += " ORDER BY created_at ASC, id ASC"

	messages := []Message{}
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}

func (r *repository) CreateWithExchange(
	ctx context.Context,
	session *Session,
	messages []*Message,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO chat_sessions (user_id, title)
			VALUES ($1, $2)
			RETURNING id, created_at, updated_at`,
			session.UserID, session.Title,
		).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		if err := insertMessages(ctx, tx, session.ID, messages); err != nil {
			return err
		}
		session.MessageCount = len(messages)

		return nil
	})
}

func (r *repository) AppendExchange(
	ctx context.Context,
	userID string,
	sessionID int64,
	messages []*Message,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var owned int64
		err := tx.GetContext(ctx, &owned, `
			UPDATE chat_sessions SET updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING id`, sessionID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("append exchange: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("append exchange: %w", err)
		}

		return insertMessages(ctx, tx, sessionID, messages)
	})
}

// insertMessages stamps each message with clock_timestamp so the order of
// one exchange survives the created_at sort.
func insertMessages(ctx context.Context, tx *sqlx.Tx, sessionID int64, messages []*Message) error {
	for _, m := range messages {
		m.SessionID = sessionID
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO messages (session_id, role, content, created_at)
			VALUES ($1, $2, $3, clock_timestamp())
			RETURNING id, created_at`,
			sessionID, m.Role, m.Content,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	return nil
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
