package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StaffUser is a back-office operator account.
type StaffUser struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// Staff provides access to back-office accounts.
type Staff struct {
	Pool *pgxpool.Pool
}

// Create registers a staff account. Duplicate emails return ErrConflict.
func (s Staff) Create(ctx context.Context, email, passwordHash, name string) (StaffUser, error) {
	u := StaffUser{ID: NewUUID(), Email: email, PasswordHash: passwordHash, Name: name}
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO staff_users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`, u.ID, u.Email, u.PasswordHash, u.Name).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return StaffUser{}, ErrConflict
	}
	if err != nil {
		return StaffUser{}, err
	}
	return u, nil
}

// GetByEmail looks up an account for login.
func (s Staff) GetByEmail(ctx context.Context, email string) (StaffUser, error) {
	var u StaffUser
	err := s.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, created_at
		FROM staff_users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StaffUser{}, ErrNotFound
	}
	return u, err
}
