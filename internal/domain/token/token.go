package token

import (
	"context"
	"errors"
	"time"
)

type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

func (p Purpose) IsValid() bool {
	switch p {
	case PurposeEmailVerification, PurposePasswordReset:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound      = errors.New("token not found")
	ErrAlreadyIssued = errors.New("token already issued")
)

// Token is a single-use secret bound to one owner and one purpose.
// OwnerID is a lookup reference only; deleting the owner does not cascade.
type Token struct {
	ID        string
	OwnerID   string
	Purpose   Purpose
	Secret    string
	CreatedAt time.Time
}

// Repository stores one-time tokens. notBefore is the expiry cutoff: tokens created
// at or before it are treated as absent.
type Repository interface {
	// InsertIfAbsent inserts t unless a live token exists for (t.OwnerID, t.Purpose),
	// in which case it returns ErrAlreadyIssued. An expired token in the way is replaced.
	InsertIfAbsent(ctx context.Context, t Token, notBefore time.Time) (Token, error)
	GetByOwner(ctx context.Context, purpose Purpose, ownerID string, notBefore time.Time) (Token, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, purpose Purpose, notBefore time.Time) (int64, error)
}
