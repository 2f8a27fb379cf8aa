package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"deedledger/internal/access"
	"deedledger/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, username, email, password_hash, role, user_type, profession,
	registration_status, email_verified, created_at`

func (s *PostgresStore) Create(ctx context.Context, u User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), string(u.UserType),
		u.Profession, string(u.RegistrationStatus), u.EmailVerified, u.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (User, error) {
	var u User
	var role, userType, status string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &userType,
		&u.Profession, &status, &u.EmailVerified, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	u.Role = access.Role(role)
	u.UserType = access.UserType(userType)
	u.RegistrationStatus = RegistrationStatus(status)
	return u, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status RegistrationStatus) error {
	return s.exec(ctx, `UPDATE users SET registration_status = $1 WHERE id = $2`, string(status), id)
}

func (s *PostgresStore) MarkEmailVerified(ctx context.Context, id string) error {
	return s.exec(ctx, `UPDATE users SET email_verified = true WHERE id = $1`, id)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec user update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("exec user update: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
