// Package credentials owns user records and their password hashes.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/reviewhub/internal/domain/user"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(hash, plain string) bool
}

// Store is the only place passwords are hashed, so a hash is never hashed again.
type Store struct {
	users  user.Repository
	hasher PasswordHasher
}

func NewStore(users user.Repository, hasher PasswordHasher) *Store {
	return &Store{users: users, hasher: hasher}
}

// CreateUser registers an unverified user with role "user". The email must not be
// registered yet (exact match); otherwise user.ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, name, email, rawPassword string) (user.User, error) {
	return s.create(ctx, name, email, rawPassword, user.RoleUser, false)
}

func (s *Store) create(ctx context.Context, name, email, rawPassword string, role user.Role, verified bool) (user.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return user.User{}, user.ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	// the unique index still guards against a concurrent signup with the same email
	return s.users.Create(ctx, user.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   verified,
		Role:         role,
	})
}

func (s *Store) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *Store) FindByID(ctx context.Context, id string) (user.User, error) {
	return s.users.GetByID(ctx, id)
}

// VerifyCredential compares rawPassword against the stored bcrypt hash.
func (s *Store) VerifyCredential(u user.User, rawPassword string) bool {
	return s.hasher.Matches(u.PasswordHash, rawPassword)
}

func (s *Store) MarkVerified(ctx context.Context, u user.User) (user.User, error) {
	u.IsVerified = true
	if err := s.users.Update(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, u user.User, rawPassword string) (user.User, error) {
	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u.PasswordHash = hash
	if err := s.users.Update(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) Stats(ctx context.Context) (user.Stats, error) {
	return s.users.Stats(ctx)
}

// EnsureAdmin creates a verified admin account unless the email is already registered.
// It reports whether an account was created.
func (s *Store) EnsureAdmin(ctx context.Context, name, email, rawPassword string) (bool, error) {
	if email == "" || rawPassword == "" {
		return false, nil
	}

	_, err := s.create(ctx, name, email, rawPassword, user.RoleAdmin, true)
	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
