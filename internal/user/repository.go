// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/memoria/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	CreateWithIdentity(ctx context.Context, user *User, identity *SocialIdentity) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	FindBySocialIdentity(ctx context.Context, provider, subject string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UsernamesWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, username, email, password_hash, display_name, avatar_url,
	role, tier, token_version, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	return insertUser(ctx, r.db, user)
}

func insertUser(ctx context.Context, db core.DBTX, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, display_name,
		                   avatar_url, role, tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at, token_version`

	row := db.QueryRowxContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.AvatarURL,
		user.Role,
		user.Tier,
	)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt, &user.TokenVersion); err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) CreateWithIdentity(
	ctx context.Context,
	user *User,
	identity *SocialIdentity,
) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}

		query := `
			INSERT INTO social_identities (provider, subject, user_id, email)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at`

		identity.UserID = user.ID
		err := tx.GetContext(ctx, &identity.CreatedAt, query,
			identity.Provider,
			identity.Subject,
			identity.UserID,
			identity.Email,
		)
		if err != nil {
			if core.IsDuplicateKeyError(err) {
				return fmt.Errorf("link identity: %w", core.ErrDuplicateKey)
			}
			return fmt.Errorf("link identity: %w", err)
		}

		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsInvalidSyntaxError(err) {
			return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

func (r *repository) FindBySocialIdentity(
	ctx context.Context,
	provider, subject string,
) (*User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.display_name,
		       u.avatar_url, u.role, u.tier, u.token_version,
		       u.created_at, u.updated_at
		FROM social_identities si
		JOIN users u ON u.id = si.user_id
		WHERE si.provider = $1 AND si.subject = $2`

	var user User
	err := r.db.GetContext(ctx, &user, query, provider, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find social identity: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find social identity: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET display_name = $2, email = $3, avatar_url = $4,
		    role = $5, tier = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.DisplayName,
		user.Email,
		user.AvatarURL,
		user.Role,
		user.Tier,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return requireRow(result, "update password")
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return requireRow(result, "increment token version")
}

// Delete removes the user row; owned rows go with it through ON DELETE
// CASCADE.
func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if core.IsInvalidSyntaxError(err) {
			return fmt.Errorf("delete user: %w", core.ErrNotFound)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	return requireRow(result, "delete user")
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(username ILIKE $%d OR email ILIKE $%d OR display_name ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Tier != "" {
		conditions = append(conditions, fmt.Sprintf("tier = $%d", argIdx))
		args = append(args, params.Tier)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) ExistsByUsername(
	ctx context.Context,
	username string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}

	return exists, nil
}

func (r *repository) UsernamesWithPrefix(
	ctx context.Context,
	prefix string,
) ([]string, error) {
	query := `SELECT username FROM users WHERE username LIKE $1`

	var names []string
	err := r.db.SelectContext(ctx, &names, query, core.EscapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}

	return names, nil
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
