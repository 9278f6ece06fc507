// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	AvatarURL    string    `db:"avatar_url"`
	Role         string    `db:"role"`
	Tier         string    `db:"tier"`
	TokenVersion int       `db:"token_version"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword is false for accounts created through social sign-in.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

func validTier(t string) bool {
	return t == TierFree || t == TierPro || t == TierEnterprise
}

// SocialIdentity links an external (provider, subject) pair to a user.
type SocialIdentity struct {
	Provider  string    `db:"provider"`
	Subject   string    `db:"subject"`
	UserID    string    `db:"user_id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}
