// Package onetime issues and redeems single-use secrets bound to a user and a purpose.
package onetime

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/token"
)

// ErrAlreadyIssued is returned while a live token exists for the owner. The caller
// should tell the user to wait out the TTL.
var ErrAlreadyIssued = token.ErrAlreadyIssued

// Kind describes one token variant.
type Kind struct {
	Purpose token.Purpose
	TTL     time.Duration
	// Hashed secrets are stored as bcrypt hashes and compared by rehashing.
	// Unhashed secrets are stored verbatim and compared in constant time.
	Hashed bool
}

func EmailVerification(ttl time.Duration) Kind {
	return Kind{Purpose: token.PurposeEmailVerification, TTL: ttl, Hashed: true}
}

func PasswordReset(ttl time.Duration) Kind {
	return Kind{Purpose: token.PurposePasswordReset, TTL: ttl, Hashed: false}
}

type SecretHasher interface {
	Hash(plain string) (string, error)
	Matches(hash, plain string) bool
}

type Store struct {
	kind   Kind
	repo   token.Repository
	hasher SecretHasher
	now    func() time.Time
}

func NewStore(kind Kind, repo token.Repository, hasher SecretHasher) *Store {
	if kind.TTL <= 0 {
		kind.TTL = time.Hour
	}
	return &Store{kind: kind, repo: repo, hasher: hasher, now: time.Now}
}

func (s *Store) Kind() Kind {
	return s.kind
}

func (s *Store) cutoff() time.Time {
	return s.now().UTC().Add(-s.kind.TTL)
}

// Issue stores a new token for ownerID. The insert is atomic at the storage layer:
// a second Issue for the same owner within the TTL fails with ErrAlreadyIssued.
func (s *Store) Issue(ctx context.Context, ownerID, secret string) (token.Token, error) {
	stored := secret
	if s.kind.Hashed {
		h, err := s.hasher.Hash(secret)
		if err != nil {
			return token.Token{}, fmt.Errorf("hash %s secret: %w", s.kind.Purpose, err)
		}
		stored = h
	}

	t, err := s.repo.InsertIfAbsent(ctx, token.Token{
		OwnerID:   ownerID,
		Purpose:   s.kind.Purpose,
		Secret:    stored,
		CreatedAt: s.now().UTC(),
	}, s.cutoff())
	if err != nil {
		if errors.Is(err, token.ErrAlreadyIssued) {
			return token.Token{}, ErrAlreadyIssued
		}
		return token.Token{}, err
	}
	return t, nil
}

// FindByOwner returns the live token for ownerID or token.ErrNotFound.
func (s *Store) FindByOwner(ctx context.Context, ownerID string) (token.Token, error) {
	return s.repo.GetByOwner(ctx, s.kind.Purpose, ownerID, s.cutoff())
}

// Verify reports whether candidate matches the token's secret.
func (s *Store) Verify(t token.Token, candidate string) bool {
	if candidate == "" {
		return false
	}
	if s.kind.Hashed {
		return s.hasher.Matches(t.Secret, candidate)
	}
	return subtle.ConstantTimeCompare([]byte(t.Secret), []byte(candidate)) == 1
}

// Consume deletes the token. Call it once after a successful Verify.
func (s *Store) Consume(ctx context.Context, tokenID string) error {
	return s.repo.Delete(ctx, tokenID)
}

// Purge deletes every token of this kind older than the TTL.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.kind.Purpose, s.cutoff())
}
