package catalog

import (
	"context"
	"fmt"

	"github.com/5w1tchy/book-art/internal/store/dbx"
	"github.com/5w1tchy/book-art/internal/validate"
)

// Children lists the rows of a nested projection of r. It reports ErrNotFound when the
// parent row does not exist.
func (s *Store) Children(ctx context.Context, r *Resource, id, name string) ([]dbx.Row, error) {
	c, ok := r.Child(name)
	if !ok {
		return nil, fmt.Errorf("%s has no child %q", r.Name, name)
	}
	if !validate.IsUUID(id) {
		return nil, ErrNotFound
	}
	if err := s.mustExist(ctx, r, id); err != nil {
		return nil, err
	}
	return s.listChild(ctx, c, id)
}

func (s *Store) mustExist(ctx context.Context, r *Resource, id string) error {
	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+r.Table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s: %w", r.Singular, err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (s *Store) listChild(ctx context.Context, c Child, parentID string) ([]dbx.Row, error) {
	of, ok := Lookup(c.Of)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", c.Of)
	}
	query := `SELECT ` + of.selectList() + ` FROM ` + of.Table + ` t`
	if c.Join != "" {
		query += ` JOIN ` + c.Join + ` j ON j.` + c.JoinTarget + ` = t.id WHERE j.` + c.JoinOwner + ` = $1`
	} else {
		query += ` WHERE t.` + c.FK + ` = $1`
	}
	query += ` ORDER BY ` + c.OrderBy

	rows, err := s.DB.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.Name, err)
	}
	return dbx.ScanRows(rows, of.kinds())
}
