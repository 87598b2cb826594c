package credentials

import (
	"context"
	"testing"

	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/repo/memory"
	"github.com/geocoder89/reviewhub/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// countingHasher records how often Hash runs so double hashing would show up.
type countingHasher struct {
	*security.Hasher
	calls int
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.calls++
	return h.Hasher.Hash(plain)
}

func newStore(t *testing.T) (*Store, *countingHasher, *memory.UsersRepo) {
	t.Helper()
	h := &countingHasher{Hasher: security.NewHasher(bcrypt.MinCost)}
	repo := memory.NewUsersRepo()
	return NewStore(repo, h), h, repo
}

func TestStore_CreateUserHashesOnce(t *testing.T) {
	s, h, repo := newStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "A", "a@x.com", "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, h.calls)
	assert.NotEqual(t, "p1", u.PasswordHash)
	assert.False(t, u.IsVerified)
	assert.Equal(t, user.RoleUser, u.Role)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, stored.PasswordHash)
	assert.True(t, s.VerifyCredential(stored, "p1"))
}

func TestStore_CreateUserDuplicateEmail(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "A", "a@x.com", "p1")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "Someone Else", "a@x.com", "different")
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestStore_VerifyCredential(t *testing.T) {
	s, _, _ := newStore(t)
	u, err := s.CreateUser(context.Background(), "A", "a@x.com", "p1")
	require.NoError(t, err)

	assert.True(t, s.VerifyCredential(u, "p1"))
	assert.False(t, s.VerifyCredential(u, "p2"))
	assert.False(t, s.VerifyCredential(u, ""))
}

func TestStore_MarkVerified(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, "A", "a@x.com", "p1")

	_, err := s.MarkVerified(ctx, u)
	require.NoError(t, err)

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
}

func TestStore_UpdatePassword(t *testing.T) {
	s, h, _ := newStore(t)
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, "A", "a@x.com", "old-password")

	_, err := s.UpdatePassword(ctx, u, "new-password")
	require.NoError(t, err)
	assert.Equal(t, 2, h.calls)

	got, err := s.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, s.VerifyCredential(got, "new-password"))
	assert.False(t, s.VerifyCredential(got, "old-password"))
}

func TestStore_EnsureAdmin(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "Admin", "admin@x.com", "secret")
	require.NoError(t, err)
	assert.True(t, created)

	again, err := s.EnsureAdmin(ctx, "Admin", "admin@x.com", "secret")
	require.NoError(t, err)
	assert.False(t, again)

	admin, err := s.FindByEmail(ctx, "admin@x.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsVerified)

	skipped, err := s.EnsureAdmin(ctx, "Admin", "", "")
	require.NoError(t, err)
	assert.False(t, skipped)
}
