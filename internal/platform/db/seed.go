package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostel/internal/domain/auth"
	"hostel/internal/platform/config"
)

// Seed guarantees a sign-in path on a fresh database: one admin account,
// created only when the configured email does not exist yet.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" {
		return nil
	}
	return ensureUser(ctx, pool, "Administrator", email, cfg.SeedAdminPassword, auth.RoleAdmin)
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, name, email, password, role string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (name, email, password_hash, role)
    VALUES ($1,$2,$3,$4)
  `, name, email, hash, role)
	return err
}
