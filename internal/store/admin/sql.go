package adminstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	admin "github.com/5w1tchy/book-art/internal/api/handlers/admin"
	"github.com/5w1tchy/book-art/internal/store/shared"
)

type Store struct{ db *sql.DB }

func New(db *sql.DB) admin.Store { return &Store{db: db} }

// ---------- helpers ----------

func buildListUsersQuery(f admin.ListFilter) (where string, args []any) {
	clauses := make([]string, 0, 2)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, shared.ContainsPattern(q))
		clauses = append(clauses, fmt.Sprintf(`(email ILIKE $%d ESCAPE '\' OR username ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ---------- methods ----------

func (s *Store) ListUsers(ctx context.Context, f admin.ListFilter) ([]admin.UserRow, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 || f.Size > 200 {
		f.Size = 25
	}
	where, args := buildListUsersQuery(f)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	offset := (f.Page - 1) * f.Size
	argsWithPage := append(append([]any{}, args...), f.Size, offset)
	listSQL := `
SELECT id::text, email, username, role, created_at
FROM users
` + where + `
ORDER BY created_at DESC
LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)

	rows, err := s.db.QueryContext(ctx, listSQL, argsWithPage...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]admin.UserRow, 0, f.Size)
	for rows.Next() {
		var u admin.UserRow
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Role, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetUser returns sql.ErrNoRows for an unknown id.
func (s *Store) GetUser(ctx context.Context, id string) (*admin.UserRow, error) {
	const q = `
SELECT id::text, email, username, role, created_at
FROM users
WHERE id = $1`
	var u admin.UserRow
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.Username, &u.Role, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	const q = `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`
	res, err := s.db.ExecContext(ctx, q, role, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) AdminCount(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users WHERE role = 'admin'`
	var n int
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Stats counts every table in one round trip.
func (s *Store) Stats(ctx context.Context) (*admin.StatsResponse, error) {
	const q = `
SELECT
  (SELECT COUNT(*) FROM series),
  (SELECT COUNT(*) FROM books),
  (SELECT COUNT(*) FROM chapters),
  (SELECT COUNT(*) FROM characters),
  (SELECT COUNT(*) FROM locations),
  (SELECT COUNT(*) FROM items),
  (SELECT COUNT(*) FROM artists),
  (SELECT COUNT(*) FROM art),
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM users WHERE role = 'admin'),
  (SELECT COUNT(*) FROM users WHERE created_at >= now() - interval '24 hours'),
  (SELECT COUNT(*) FROM art WHERE created_at >= now() - interval '7 days')`

	var st admin.StatsResponse
	c := &st.Counts
	if err := s.db.QueryRowContext(ctx, q).Scan(
		&c.Series, &c.Books, &c.Chapters, &c.Characters, &c.Locations, &c.Items, &c.Artists, &c.Art, &c.Users,
		&st.Admins, &st.SignupsLast24h, &st.ArtLast7d,
	); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}
