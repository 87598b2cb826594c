package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/token"
	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokensRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *TokensRepo {
	return &TokensRepo{pool: pool, prom: prom}
}

func (r *TokensRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// InsertIfAbsent relies on the UNIQUE (owner_id, purpose) constraint. Expired rows for the
// owner are cleared first in the same transaction so they cannot block a new token.
func (r *TokensRepo) InsertIfAbsent(ctx context.Context, t token.Token, notBefore time.Time) (token.Token, error) {
	if _, err := uuid.Parse(t.OwnerID); err != nil {
		return token.Token{}, fmt.Errorf("token owner %q: %w", t.OwnerID, err)
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	var inserted int64
	err := r.observe("tokens.insert_if_absent", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}

		defer func() { _ = tx.Rollback(ctx) }()

		_, err = tx.Exec(ctx, `
			DELETE FROM one_time_tokens
			WHERE owner_id = $1 AND purpose = $2 AND created_at <= $3
		`, t.OwnerID, string(t.Purpose), notBefore)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO one_time_tokens (id, owner_id, purpose, secret, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (owner_id, purpose) DO NOTHING
		`, t.ID, t.OwnerID, string(t.Purpose), t.Secret, t.CreatedAt)
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected()

		return tx.Commit(ctx)
	})

	if err != nil {
		return token.Token{}, err
	}
	if inserted == 0 {
		return token.Token{}, token.ErrAlreadyIssued
	}
	return t, nil
}

func (r *TokensRepo) GetByOwner(ctx context.Context, purpose token.Purpose, ownerID string, notBefore time.Time) (token.Token, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return token.Token{}, token.ErrNotFound
	}

	var t token.Token
	var p string

	err := r.observe("tokens.get_by_owner", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, owner_id, purpose, secret, created_at
			FROM one_time_tokens
			WHERE owner_id = $1 AND purpose = $2 AND created_at > $3
		`, ownerID, string(purpose), notBefore).Scan(&t.ID, &t.OwnerID, &p, &t.Secret, &t.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return token.Token{}, token.ErrNotFound
		}
		return token.Token{}, err
	}

	t.Purpose = token.Purpose(p)
	return t, nil
}

func (r *TokensRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return token.ErrNotFound
	}

	var tag pgconn.CommandTag
	err := r.observe("tokens.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM one_time_tokens WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return token.ErrNotFound
	}
	return nil
}

func (r *TokensRepo) DeleteExpired(ctx context.Context, purpose token.Purpose, notBefore time.Time) (int64, error) {
	var tag pgconn.CommandTag
	err := r.observe("tokens.delete_expired", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
			DELETE FROM one_time_tokens
			WHERE purpose = $1 AND created_at <= $2
		`, string(purpose), notBefore)
		return err
	})

	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
