package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/token"
	"github.com/google/uuid"
)

type tokenKey struct {
	purpose token.Purpose
	owner   string
}

// TokensRepo keeps one slot per (purpose, owner), which gives the same
// insert-if-absent behaviour as a unique index.
type TokensRepo struct {
	mu      sync.Mutex
	byID    map[string]token.Token
	byOwner map[tokenKey]string
}

func NewTokensRepo() *TokensRepo {
	return &TokensRepo{
		byID:    make(map[string]token.Token),
		byOwner: make(map[tokenKey]string),
	}
}

func (r *TokensRepo) InsertIfAbsent(_ context.Context, t token.Token, notBefore time.Time) (token.Token, error) {
	key := tokenKey{purpose: t.Purpose, owner: t.OwnerID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byOwner[key]; ok {
		existing := r.byID[id]
		if existing.CreatedAt.After(notBefore) {
			return token.Token{}, token.ErrAlreadyIssued
		}
		// expired, reclaim the slot
		delete(r.byID, id)
		delete(r.byOwner, key)
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	r.byID[t.ID] = t
	r.byOwner[key] = t.ID
	return t, nil
}

func (r *TokensRepo) GetByOwner(_ context.Context, purpose token.Purpose, ownerID string, notBefore time.Time) (token.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byOwner[tokenKey{purpose: purpose, owner: ownerID}]
	if !ok {
		return token.Token{}, token.ErrNotFound
	}

	t := r.byID[id]
	if !t.CreatedAt.After(notBefore) {
		return token.Token{}, token.ErrNotFound
	}
	return t, nil
}

func (r *TokensRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return token.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byOwner, tokenKey{purpose: t.Purpose, owner: t.OwnerID})
	return nil
}

func (r *TokensRepo) DeleteExpired(_ context.Context, purpose token.Purpose, notBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.byID {
		if t.Purpose != purpose || t.CreatedAt.After(notBefore) {
			continue
		}
		delete(r.byID, id)
		delete(r.byOwner, tokenKey{purpose: t.Purpose, owner: t.OwnerID})
		n++
	}
	return n, nil
}
