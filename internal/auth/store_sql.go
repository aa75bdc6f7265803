package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db} }

const userCols = `id, email, username, password_hash, role, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *SQLStore) CreateUser(ctx context.Context, email, username, passwordHash, role string) (User, error) {
	const q = `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userCols
	u, err := scanUser(s.DB.QueryRowContext(ctx, q, email, username, passwordHash, role))
	var pg *pgconn.PgError
	if errors.As(err, &pg) && pg.Code == "23505" {
		return User{}, ErrEmailTaken
	}
	return u, err
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1 LIMIT 1`
	return scanUser(s.DB.QueryRowContext(ctx, q, email))
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(s.DB.QueryRowContext(ctx, q, id))
}

func (s *SQLStore) UpdateUserPasswordHash(ctx context.Context, userID, newHash string) error {
	const q = `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := s.DB.ExecContext(ctx, q, newHash, userID)
	return err
}
