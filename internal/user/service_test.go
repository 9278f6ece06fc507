// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/memoria/internal/auth"
	"github.com/carterperez-dev/memoria/internal/core"
)

func TestBuildUsername(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"given name first", []string{"ada", "Ada Lovelace", "ada.l"}, "Ada"},
		{"skips blanks", []string{"  ", "ada lovelace", "x"}, "Adalovelace"},
		{"strips disallowed", []string{"", "", "o'brien+news"}, "Obrien+news"},
		{"falls back", []string{"", "!!!", ""}, "User"},
		{"none", nil, "User"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildUsername(tt.candidates...))
		})
	}
}

func TestBuildUsernameTruncates(t *testing.T) {
	got := BuildUsername(strings.Repeat("a", 400))
	assert.Len(t, got, MaxUsernameLength)
}

func TestUniqueUsername(t *testing.T) {
	assert.Equal(t, "Ada", UniqueUsername("Ada", nil))
	assert.Equal(t, "Ada1", UniqueUsername("Ada", []string{"Ada"}))
	assert.Equal(t, "Ada3", UniqueUsername("Ada", []string{"Ada", "Ada1", "Ada2", "Ada10"}))
	assert.Equal(t, "User", UniqueUsername("", nil))

	long := strings.Repeat("b", MaxUsernameLength)
	got := UniqueUsername(long, []string{long})
	assert.Len(t, got, MaxUsernameLength)
	assert.True(t, strings.HasSuffix(got, "1"))
}

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "Émile", CapitalizeFirst(" émile "))
	assert.Equal(t, "", CapitalizeFirst(""))
	assert.Equal(t, "1abc", CapitalizeFirst("1abc"))
}

type fakeRepo struct {
	Repository

	byIdentity map[string]*User
	byID       map[string]*User
	taken      []string
	createErrs []error
	created    []*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byIdentity: map[string]*User{},
		byID:       map[string]*User{},
	}
}

func (f *fakeRepo) FindBySocialIdentity(_ context.Context, provider, subject string) (*User, error) {
	if u, ok := f.byIdentity[provider+"|"+subject]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("find identity: %w", core.ErrNotFound)
}

func (f *fakeRepo) UsernamesWithPrefix(context.Context, string) ([]string, error) {
	return f.taken, nil
}

func (f *fakeRepo) CreateWithIdentity(_ context.Context, u *User, id *SocialIdentity) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			f.taken = append(f.taken, u.Username)
			return err
		}
	}
	f.created = append(f.created, u)
	f.byIdentity[id.Provider+"|"+id.Subject] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeRepo) Update(_ context.Context, u *User) error {
	f.byID[u.ID] = u
	return nil
}

var googleProfile = auth.SocialProfile{
	Provider:  "google",
	Subject:   "sub-1",
	Email:     "Ada@Example.com",
	Name:      "ada lovelace",
	GivenName: "ada",
	Picture:   "https://example.com/a.png",
}

func TestFindOrCreateSocialCreatesWithDerivedName(t *testing.T) {
	repo := newFakeRepo()
	repo.taken = []string{"Ada", "Ada1"}

	info, err := NewService(repo).FindOrCreateSocial(context.Background(), googleProfile)
	require.NoError(t, err)

	assert.Equal(t, "Ada2", info.Username)
	assert.Equal(t, "ada@example.com", info.Email)
	assert.Equal(t, "Ada lovelace", info.DisplayName)
	assert.Equal(t, TierFree, info.Tier)
	assert.Empty(t, info.PasswordHash)
}

func TestFindOrCreateSocialReturnsLinkedUser(t *testing.T) {
	repo := newFakeRepo()
	linked := &User{ID: "u1", Username: "Existing"}
	repo.byIdentity["google|sub-1"] = linked

	info, err := NewService(repo).FindOrCreateSocial(context.Background(), googleProfile)
	require.NoError(t, err)

	assert.Equal(t, "u1", info.ID)
	assert.Empty(t, repo.created)
}

func TestFindOrCreateSocialRetriesOnUsernameRace(t *testing.T) {
	repo := newFakeRepo()
	repo.createErrs = []error{fmt.Errorf("insert: %w", core.ErrDuplicateKey)}

	info, err := NewService(repo).FindOrCreateSocial(context.Background(), googleProfile)
	require.NoError(t, err)

	assert.Equal(t, "Ada1", info.Username)
	assert.Len(t, repo.created, 1)
}

func TestFindOrCreateSocialGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := newFakeRepo()
	dup := fmt.Errorf("insert: %w", core.ErrDuplicateKey)
	repo.createErrs = []error{dup, dup, dup}

	_, err := NewService(repo).FindOrCreateSocial(context.Background(), googleProfile)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestUpdateUserTierRejectsUnknown(t *testing.T) {
	repo := newFakeRepo()
	repo.byID["u1"] = &User{ID: "u1", Tier: TierFree}
	svc := NewService(repo)

	_, err := svc.UpdateUserTier(context.Background(), "u1", "platinum")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	u, err := svc.UpdateUserTier(context.Background(), "u1", TierPro)
	require.NoError(t, err)
	assert.Equal(t, TierPro, u.Tier)
}

func TestCanDeleteUser(t *testing.T) {
	repo := newFakeRepo()
	repo.byID["admin"] = &User{ID: "admin", Role: RoleAdmin}
	repo.byID["other-admin"] = &User{ID: "other-admin", Role: RoleAdmin}
	repo.byID["u1"] = &User{ID: "u1", Role: RoleUser}
	repo.byID["u2"] = &User{ID: "u2", Role: RoleUser}
	svc := NewService(repo)
	ctx := context.Background()

	assert.NoError(t, svc.CanDeleteUser(ctx, "u1", "u1"))
	assert.NoError(t, svc.CanDeleteUser(ctx, "admin", "u1"))
	assert.ErrorIs(t, svc.CanDeleteUser(ctx, "u1", "u2"), core.ErrForbidden)
	assert.ErrorIs(t, svc.CanDeleteUser(ctx, "admin", "other-admin"), core.ErrForbidden)
}

func TestGetMeRequiresUser(t *testing.T) {
	_, err := NewService(newFakeRepo()).GetMe(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}
