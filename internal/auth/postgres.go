package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend keeps credentials in an accounts table:
//
//	accounts(id uuid pk default gen_random_uuid(), email text unique,
//	         password_hash text, created_at, updated_at, deleted_at)
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) CreateAccount(ctx context.Context, email, password string) (string, error) {
	var exists bool
	err := b.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1 AND deleted_at IS NULL)`,
		email,
	).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return "", ErrEmailExists
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	var id string
	err = b.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email, hashed,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create account: %w", err)
	}
	return id, nil
}

func (b *PostgresBackend) Authenticate(ctx context.Context, email, password string) (string, error) {
	var id, hash string
	err := b.pool.QueryRow(ctx,
		`SELECT id, password_hash FROM accounts WHERE email = $1 AND deleted_at IS NULL`,
		email,
	).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to get account: %w", err)
	}

	if !checkPassword(hash, password) {
		return "", ErrInvalidCredentials
	}
	return id, nil
}

func (b *PostgresBackend) Reauthenticate(ctx context.Context, userID, password string) error {
	var hash string
	err := b.pool.QueryRow(ctx,
		`SELECT password_hash FROM accounts WHERE id = $1 AND deleted_at IS NULL`,
		userID,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	if !checkPassword(hash, password) {
		return ErrInvalidCredentials
	}
	return nil
}

func (b *PostgresBackend) UpdateEmail(ctx context.Context, userID, email string) error {
	result, err := b.pool.Exec(ctx,
		`UPDATE accounts SET email = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`,
		email, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidCredentials
	}
	return nil
}

func (b *PostgresBackend) UpdatePassword(ctx context.Context, userID, password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := b.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`,
		hashed, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidCredentials
	}
	return nil
}

func (b *PostgresBackend) DeleteAccount(ctx context.Context, userID string) error {
	result, err := b.pool.Exec(ctx,
		`UPDATE accounts SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidCredentials
	}
	return nil
}
