package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/5w1tchy/book-art/internal/store/dbx"
	"github.com/5w1tchy/book-art/internal/validate"
)

// TargetKey is the body key naming one target of l, e.g. "bookId".
func TargetKey(l Link) string {
	if t, ok := Lookup(l.Target); ok {
		return t.Singular + "Id"
	}
	return l.TargetCol
}

// AddLink associates one target with the owner row. Adding an existing pair is a no-op.
func (s *Store) AddLink(ctx context.Context, r *Resource, l Link, ownerID, targetID string) error {
	if !validate.IsUUID(ownerID) {
		return ErrNotFound
	}
	if !validate.IsUUID(targetID) {
		return inputErr("%s must be a valid id", TargetKey(l))
	}
	err := dbx.WithinTx(ctx, s.DB, func(tx *sql.Tx) error {
		row, err := s.load(ctx, tx, r, ownerID)
		if err != nil {
			return err
		}
		if r.Scope != nil {
			if err := checkScope(ctx, tx, r, l, row, []string{targetID}); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+l.Junction+` (`+l.OwnerCol+`, `+l.TargetCol+`) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			ownerID, targetID); err != nil {
			return fmt.Errorf("link %s: %w", l.Junction, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// RemoveLink drops one association. It reports ErrNotFound only when the owner is missing.
func (s *Store) RemoveLink(ctx context.Context, r *Resource, l Link, ownerID, targetID string) error {
	if !validate.IsUUID(ownerID) || !validate.IsUUID(targetID) {
		return ErrNotFound
	}
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM `+l.Junction+` WHERE `+l.OwnerCol+` = $1 AND `+l.TargetCol+` = $2`, ownerID, targetID)
	if err != nil {
		return fmt.Errorf("unlink %s: %w", l.Junction, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.mustExist(ctx, r, ownerID)
	}
	s.invalidate(ctx)
	return nil
}

// replaceLinks swaps the owner's whole link set: delete, then one bulk insert.
func replaceLinks(ctx context.Context, q dbx.DB, l Link, ownerID string, ids []string) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM `+l.Junction+` WHERE `+l.OwnerCol+` = $1`, ownerID); err != nil {
		return fmt.Errorf("clear %s: %w", l.Junction, err)
	}
	if len(ids) == 0 {
		return nil
	}

	values := ""
	args := make([]any, 0, len(ids)+1)
	args = append(args, ownerID)
	for i, id := range ids {
		if i > 0 {
			values += ", "
		}
		args = append(args, id)
		values += fmt.Sprintf("($1, $%d)", len(args))
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO `+l.Junction+` (`+l.OwnerCol+`, `+l.TargetCol+`) VALUES `+values+` ON CONFLICT DO NOTHING`,
		args...); err != nil {
		return fmt.Errorf("link %s: %w", l.Junction, err)
	}
	return nil
}

// checkScope verifies every target exists and belongs to the owner's series.
func checkScope(ctx context.Context, q dbx.DB, r *Resource, l Link, row dbx.Row, ids []string) error {
	seriesID, err := r.Scope(ctx, q, row)
	if err != nil {
		return err
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, seriesID)
	for _, id := range ids {
		args = append(args, id)
	}
	var n int
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+l.Target+` WHERE series_id = $1 AND id IN (`+dbx.Placeholders(2, len(ids))+`)`,
		args...).Scan(&n)
	if err != nil {
		return fmt.Errorf("scope %s: %w", l.Target, err)
	}
	if n != len(ids) {
		return inputErr("%s must reference %s in the same series", l.Key, l.Target)
	}
	return nil
}

// attachLinks sets row[l.Field] to the sorted target ids of every link of r.
func (s *Store) attachLinks(ctx context.Context, q dbx.DB, r *Resource, rows []dbx.Row) error {
	if len(r.Links) == 0 || len(rows) == 0 {
		return nil
	}
	ownerIDs := make([]any, 0, len(rows))
	byID := make(map[string]dbx.Row, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		ownerIDs = append(ownerIDs, id)
		byID[id] = row
	}

	for _, l := range r.Links {
		for _, row := range rows {
			row[l.Field] = []string{}
		}
		rs, err := q.QueryContext(ctx,
			`SELECT `+l.OwnerCol+`, `+l.TargetCol+` FROM `+l.Junction+
				` WHERE `+l.OwnerCol+` IN (`+dbx.Placeholders(1, len(ownerIDs))+`) ORDER BY `+l.TargetCol,
			ownerIDs...)
		if err != nil {
			return fmt.Errorf("load %s: %w", l.Junction, err)
		}
		for rs.Next() {
			var owner, target string
			if err := rs.Scan(&owner, &target); err != nil {
				rs.Close()
				return err
			}
			if row, ok := byID[owner]; ok {
				row[l.Field] = append(row[l.Field].([]string), target)
			}
		}
		if err := rs.Err(); err != nil {
			rs.Close()
			return err
		}
		rs.Close()
	}
	return nil
}
