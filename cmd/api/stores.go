package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/db"
	"github.com/geocoder89/reviewhub/internal/domain/token"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/geocoder89/reviewhub/internal/repo/memory"
	"github.com/geocoder89/reviewhub/internal/repo/mongodb"
	"github.com/geocoder89/reviewhub/internal/repo/postgres"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type stores struct {
	users  user.Repository
	tokens token.Repository
	checks map[string]handlers.Pinger
	close  func()
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, database, err := db.NewMongo(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return stores{}, fmt.Errorf("mongo connect: %w", err)
		}

		users := mongodb.NewUsersRepo(database, prom)
		tokens := mongodb.NewTokensRepo(database, prom)

		disconnect := func() { _ = client.Disconnect(context.Background()) }

		if err := users.EnsureIndexes(ctx); err != nil {
			disconnect()
			return stores{}, fmt.Errorf("user indexes: %w", err)
		}
		if err := tokens.EnsureIndexes(ctx, map[token.Purpose]time.Duration{
			token.PurposeEmailVerification: cfg.VerificationTokenTTL,
			token.PurposePasswordReset:     cfg.ResetTokenTTL,
		}); err != nil {
			disconnect()
			return stores{}, fmt.Errorf("token indexes: %w", err)
		}

		log.Info("store ready", "driver", cfg.StoreDriver, "db", cfg.MongoDB)
		return stores{
			users:  users,
			tokens: tokens,
			checks: map[string]handlers.Pinger{
				"mongo": func(ctx context.Context) error {
					ctx, cancel := context.WithTimeout(ctx, time.Second)
					defer cancel()
					return client.Ping(ctx, readpref.Primary())
				},
			},
			close: disconnect,
		}, nil

	case config.StorePostgres:
		if err := db.Migrate(ctx, cfg.DBURL); err != nil {
			return stores{}, err
		}

		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return stores{}, fmt.Errorf("db connect: %w", err)
		}

		log.Info("store ready", "driver", cfg.StoreDriver)
		return stores{
			users:  postgres.NewUsersRepo(pool, prom),
			tokens: postgres.NewTokensRepo(pool, prom),
			checks: map[string]handlers.Pinger{
				"postgres": func(ctx context.Context) error {
					ctx, cancel := context.WithTimeout(ctx, time.Second)
					defer cancel()
					return pool.Ping(ctx)
				},
			},
			close: pool.Close,
		}, nil

	default:
		log.Warn("using in-memory store; data is lost on restart")
		return stores{
			users:  memory.NewUsersRepo(),
			tokens: memory.NewTokensRepo(),
			close:  func() {},
		}, nil
	}
}
