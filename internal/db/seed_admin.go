package db

import (
	"context"
	"log/slog"

	"github.com/geocoder89/reviewhub/internal/config"
)

type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, name, email, rawPassword string) (bool, error)
}

// EnsureAdminUser seeds the configured admin account. Without ADMIN_EMAIL and
// ADMIN_PASSWORD it does nothing.
func EnsureAdminUser(ctx context.Context, seeder AdminSeeder, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	created, err := seeder.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}

	if created {
		log.Info("admin user seeded", "email", cfg.AdminEmail)
	}
	return nil
}
