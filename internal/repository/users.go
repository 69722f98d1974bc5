package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserExists is returned when a login is already registered.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned when no user matches the login.
	ErrUserNotFound = errors.New("user not found")
)

// uniqueViolation is the PostgreSQL error code for a unique constraint.
const uniqueViolation = "23505"

// User is one registered account.
type User struct {
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository stores accounts in the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, login, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (login, password_hash, created_at) VALUES ($1, $2, now())`,
		login, passwordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("login %q: %w", login, ErrUserExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Get fetches an account by login.
func (r *UserRepository) Get(ctx context.Context, login string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT login, password_hash, created_at FROM users WHERE login = $1`,
		login,
	).Scan(&u.Login, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("login %q: %w", login, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &u, nil
}
