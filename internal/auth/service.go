// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/memoria/internal/core"
	"github.com/carterperez-dev/memoria/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrNoLocalPassword    = errors.New("account has no local password")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrSocialDisabled     = errors.New("social sign-in is not configured")
)

type UserInfo struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	Tier         string
	TokenVersion int
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, username, email, passwordHash string) (*UserInfo, error)
	FindOrCreateSocial(ctx context.Context, profile SocialProfile) (*UserInfo, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	redis        redis.Cmdable
	social       IdentityVerifier
}

// NewService wires the account flows. redisClient and social may be nil;
// a nil verifier disables social sign-in.
func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient redis.Cmdable,
	social IdentityVerifier,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		redis:        redisClient,
		social:       social,
	}
}

func (s *Service) SocialEnabled() bool {
	return s.social != nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // keeps unknown usernames as slow as wrong passwords
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	return s.issueTokens(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	exists, err := s.userProvider.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, req.Username, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueTokens(ctx, user, userAgent, ipAddress, "", nil)
}

// SocialLogin verifies an external ID token and signs in the linked user,
// creating the account on first use.
func (s *Service) SocialLogin(
	ctx context.Context,
	idToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	if s.social == nil {
		return nil, ErrSocialDisabled
	}

	profile, err := s.social.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userProvider.FindOrCreateSocial(ctx, *profile)
	if err != nil {
		return nil, fmt.Errorf("resolve social user: %w", err)
	}

	return s.issueTokens(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if stored.IsUsed {
		if err := s.repo.RevokeByFamilyID(ctx, stored.FamilyID); err != nil {
			slog.ErrorContext(ctx, "revoke reused token family failed",
				"family_id", stored.FamilyID, "error", err)
		}
		return nil, ErrTokenReuse
	}

	if !stored.IsValid() {
		if stored.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueTokens(ctx, user, userAgent, ipAddress, stored.FamilyID, &stored.ID)
}

func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userID string,
) error {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if stored.UserID != userID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, stored.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

// LogoutAll revokes every refresh token and bumps the token version so
// outstanding access tokens stop verifying.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	s.forgetTokenVersion(ctx, userID)
	return nil
}

func (s *Service) ListDevices(
	ctx context.Context,
	userID string,
) ([]DeviceInfo, error) {
	tokens, err := s.repo.ListActiveDevices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(tokens))
	for i := range tokens {
		devices = append(devices, tokens[i].toDevice())
	}

	return devices, nil
}

// RevokeDevice signs out one device by revoking its whole rotation family.
func (s *Service) RevokeDevice(
	ctx context.Context,
	userID, deviceID string,
) error {
	token, err := s.repo.FindByID(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("find device: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke device: %w", core.ErrNotFound)
	}

	if err := s.repo.RevokeByFamilyID(ctx, token.FamilyID); err != nil {
		return fmt.Errorf("revoke device: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID string,
	req ChangePasswordRequest,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if user.PasswordHash == "" {
		return ErrNoLocalPassword
	}

	valid, _, err := core.VerifyPasswordWithRehash(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrWrongPassword
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// PruneExpiredTokens deletes refresh tokens that expired more than a day
// ago.
func (s *Service) PruneExpiredTokens(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, time.Now().Add(-24*time.Hour))
}

// VerifyAccessToken validates the signature and then rejects tokens whose
// version predates the user's latest logout-all.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	current, err := s.currentTokenVersion(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
		return nil, err
	}

	if claims.TokenVersion < current {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func tokenVersionKey(userID string) string {
	return "auth:token_version:" + userID
}

func (s *Service) currentTokenVersion(ctx context.Context, userID string) (int, error) {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, tokenVersionKey(userID)).Result()
		if err == nil {
			if v, convErr := strconv.Atoi(raw); convErr == nil {
				return v, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "token version cache read failed", "error", err)
		}
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, tokenVersionKey(userID), user.TokenVersion, s.jwt.AccessTTL()).Err(); err != nil {
			slog.WarnContext(ctx, "token version cache write failed", "error", err)
		}
	}

	return user.TokenVersion, nil
}

func (s *Service) forgetTokenVersion(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, tokenVersionKey(userID)).Err(); err != nil {
		slog.WarnContext(ctx, "token version cache invalidate failed", "error", err)
	}
}

func (s *Service) issueTokens(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	previousID *string,
) (*AuthResponse, error) {
	accessToken, expiresAt, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		Tier:         user.Tier,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if previousID != nil {
		if err := s.repo.MarkAsUsed(ctx, *previousID, newTokenID); err != nil {
			slog.WarnContext(ctx, "mark refresh token used failed", "error", err)
		}
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.jwt.AccessTTL() / time.Second),
			ExpiresAt:    expiresAt,
		},
	}, nil
}

var _ middleware.TokenVerifier = (*Service)(nil)
