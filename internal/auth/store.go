package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agency-dashboard-backend/internal/db"
)

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB *sql.DB
}

const userColumns = `id, name, email, password_hash, desired_role, status, COALESCE(message,''), requested_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.DesiredRole, &u.Status, &u.Message, &u.RequestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *PGStore) Create(ctx context.Context, u User) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, desired_role, status, message, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.DesiredRole, u.Status, db.NullIfEmpty(u.Message), u.RequestedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PGStore) ByID(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("select user %s: %w", id, err)
	}
	return u, err
}

func (s *PGStore) ByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, err
}

func (s *PGStore) List(ctx context.Context, status Status) ([]User, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE $1 = '' OR status = $1
		ORDER BY requested_at DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PGStore) SetStatus(ctx context.Context, id string, status Status) (User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, `
		UPDATE users SET status=$1 WHERE id=$2 AND status='pending'
		RETURNING `+userColumns, status, id))
	if errors.Is(err, ErrNotFound) {
		if _, err := s.ByID(ctx, id); err != nil {
			return User{}, err
		}
		return User{}, ErrNotPending
	}
	if err != nil {
		return User{}, fmt.Errorf("update user status: %w", err)
	}
	return u, nil
}

func (s *PGStore) CountApprovedAdmins(ctx context.Context, exceptEmail string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users
		WHERE status='approved' AND desired_role='admin' AND lower(email) <> lower($1)
	`, exceptEmail).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func (s *PGStore) UpsertApprovedAdmin(ctx context.Context, u User) (User, error) {
	out, err := scanUser(s.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, desired_role, status, message, requested_at)
		VALUES ($1, $2, $3, $4, 'admin', 'approved', $5, $6)
		ON CONFLICT ((lower(email))) DO UPDATE SET
			desired_role = 'admin',
			status = 'approved',
			password_hash = EXCLUDED.password_hash
		RETURNING `+userColumns,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, db.NullIfEmpty(u.Message), u.RequestedAt))
	if err != nil {
		return User{}, fmt.Errorf("upsert super admin: %w", err)
	}
	return out, nil
}
