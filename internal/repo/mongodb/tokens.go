package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/token"
	"github.com/geocoder89/reviewhub/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// one collection per purpose, each with a unique owner index and a TTL index
var tokenCollections = map[token.Purpose]string{
	token.PurposeEmailVerification: "emailverificationtokens",
	token.PurposePasswordReset:     "passwordresettokens",
}

type tokenDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Owner     primitive.ObjectID `bson:"owner"`
	Token     string             `bson:"token"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d tokenDoc) toDomain(p token.Purpose) token.Token {
	return token.Token{
		ID:        d.ID.Hex(),
		OwnerID:   d.Owner.Hex(),
		Purpose:   p,
		Secret:    d.Token,
		CreatedAt: d.CreatedAt,
	}
}

type TokensRepo struct {
	colls map[token.Purpose]*mongo.Collection
	prom  *observability.Prom
}

func NewTokensRepo(db *mongo.Database, prom *observability.Prom) *TokensRepo {
	colls := make(map[token.Purpose]*mongo.Collection, len(tokenCollections))
	for p, name := range tokenCollections {
		colls[p] = db.Collection(name)
	}
	return &TokensRepo{colls: colls, prom: prom}
}

func (r *TokensRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TokensRepo) coll(p token.Purpose) (*mongo.Collection, error) {
	c, ok := r.colls[p]
	if !ok {
		return nil, fmt.Errorf("unknown token purpose %q", p)
	}
	return c, nil
}

// EnsureIndexes creates the unique owner index and the TTL index for each purpose.
// The server's TTL monitor runs about once a minute, so reads still filter on createdAt.
func (r *TokensRepo) EnsureIndexes(ctx context.Context, ttls map[token.Purpose]time.Duration) error {
	for p, c := range r.colls {
		ttl, ok := ttls[p]
		if !ok || ttl <= 0 {
			ttl = time.Hour
		}

		_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "owner", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_owner"),
			},
			{
				Keys:    bson.D{{Key: "createdAt", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())).SetName("ttl_created_at"),
			},
		})
		if err != nil {
			return fmt.Errorf("token indexes for %s: %w", p, err)
		}
	}
	return nil
}

func (r *TokensRepo) InsertIfAbsent(ctx context.Context, t token.Token, notBefore time.Time) (token.Token, error) {
	c, err := r.coll(t.Purpose)
	if err != nil {
		return token.Token{}, err
	}

	owner, err := primitive.ObjectIDFromHex(t.OwnerID)
	if err != nil {
		return token.Token{}, fmt.Errorf("token owner %q: %w", t.OwnerID, err)
	}

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	doc := tokenDoc{
		ID:        primitive.NewObjectID(),
		Owner:     owner,
		Token:     t.Secret,
		CreatedAt: createdAt,
	}

	insert := func() error {
		_, err := c.InsertOne(ctx, doc)
		return err
	}

	err = r.observe("tokens.insert", insert)
	if err == nil {
		return doc.toDomain(t.Purpose), nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return token.Token{}, err
	}

	// The slot may be held by an expired token the TTL monitor has not removed yet.
	var res *mongo.DeleteResult
	err = r.observe("tokens.reclaim_expired", func() error {
		var derr error
		res, derr = c.DeleteOne(ctx, bson.M{"owner": owner, "createdAt": bson.M{"$lte": notBefore}})
		return derr
	})
	if err != nil {
		return token.Token{}, err
	}
	if res.DeletedCount == 0 {
		return token.Token{}, token.ErrAlreadyIssued
	}

	err = r.observe("tokens.insert", insert)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return token.Token{}, token.ErrAlreadyIssued
		}
		return token.Token{}, err
	}
	return doc.toDomain(t.Purpose), nil
}

func (r *TokensRepo) GetByOwner(ctx context.Context, purpose token.Purpose, ownerID string, notBefore time.Time) (token.Token, error) {
	c, err := r.coll(purpose)
	if err != nil {
		return token.Token{}, err
	}

	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return token.Token{}, token.ErrNotFound
	}

	var doc tokenDoc
	err = r.observe("tokens.get_by_owner", func() error {
		return c.FindOne(ctx, bson.M{
			"owner":     owner,
			"createdAt": bson.M{"$gt": notBefore},
		}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return token.Token{}, token.ErrNotFound
		}
		return token.Token{}, err
	}
	return doc.toDomain(purpose), nil
}

// Delete removes a token by id from whichever collection holds it.
func (r *TokensRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return token.ErrNotFound
	}

	for _, c := range r.colls {
		var res *mongo.DeleteResult
		err := r.observe("tokens.delete", func() error {
			var derr error
			res, derr = c.DeleteOne(ctx, bson.M{"_id": oid})
			return derr
		})
		if err != nil {
			return err
		}
		if res.DeletedCount > 0 {
			return nil
		}
	}
	return token.ErrNotFound
}

func (r *TokensRepo) DeleteExpired(ctx context.Context, purpose token.Purpose, notBefore time.Time) (int64, error) {
	c, err := r.coll(purpose)
	if err != nil {
		return 0, err
	}

	var res *mongo.DeleteResult
	err = r.observe("tokens.delete_expired", func() error {
		var derr error
		res, derr = c.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lte": notBefore}})
		return derr
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
