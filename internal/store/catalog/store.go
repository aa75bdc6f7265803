package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/5w1tchy/book-art/internal/logging"
	"github.com/5w1tchy/book-art/internal/store/cache"
	"github.com/5w1tchy/book-art/internal/store/dbx"
	"github.com/5w1tchy/book-art/internal/validate"
)

type Store struct {
	DB *sql.DB
	// Cache holds read results until the next committed write. Nil disables it.
	Cache *cache.Cache
}

func New(db *sql.DB) *Store { return &Store{DB: db} }

// ListQuery carries paging (ignored for unpaged resources) and filters keyed by query param.
type ListQuery struct {
	Page    int
	Limit   int
	Filters map[string]string
}

// key identifies q within r for the read cache.
func (q ListQuery) key(r *Resource) string {
	k := fmt.Sprintf("%s:list:%d:%d", r.Name, q.Page, q.Limit)
	for _, f := range r.Filters {
		k += ":" + q.Filters[f.Param]
	}
	return k
}

type cachedList struct {
	Rows  []dbx.Row `json:"rows"`
	Total int       `json:"total"`
}

func (q ListQuery) offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// List returns the rows of r in its natural order and the total row count.
func (s *Store) List(ctx context.Context, r *Resource, q ListQuery) ([]dbx.Row, int, error) {
	var hit cachedList
	gen, ok := s.Cache.Get(ctx, q.key(r), &hit)
	if ok {
		return hit.Rows, hit.Total, nil
	}
	rows, total, err := s.list(ctx, r, q)
	if err == nil {
		s.Cache.Set(ctx, gen, q.key(r), cachedList{Rows: rows, Total: total})
	}
	return rows, total, err
}

func (s *Store) list(ctx context.Context, r *Resource, q ListQuery) ([]dbx.Row, int, error) {
	var (
		conds []string
		args  []any
	)
	for _, f := range r.Filters {
		v, ok := q.Filters[f.Param]
		if !ok || v == "" {
			continue
		}
		if !validate.IsUUID(v) {
			return nil, 0, inputErr("%s must be a valid id", f.Param)
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("t.%s = $%d", f.Column, len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	total := -1
	query := `SELECT ` + r.selectList() + ` FROM ` + r.Table + ` t` + where + ` ORDER BY ` + r.OrderBy
	if r.Paged {
		if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+r.Table+` t`+where, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count %s: %w", r.Name, err)
		}
		args = append(args, q.Limit, q.offset())
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.Name, err)
	}
	out, err := dbx.ScanRows(rows, r.kinds())
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachLinks(ctx, s.DB, r, out); err != nil {
		return nil, 0, err
	}
	if total < 0 {
		total = len(out)
	}
	return out, total, nil
}

// Get returns one row with its link sets. Malformed ids are reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, r *Resource, id string) (dbx.Row, error) {
	key := r.Name + ":" + id
	var hit dbx.Row
	gen, ok := s.Cache.Get(ctx, key, &hit)
	if ok {
		return hit, nil
	}
	row, err := s.get(ctx, s.DB, r, id)
	if err == nil {
		s.Cache.Set(ctx, gen, key, row)
	}
	return row, err
}

// invalidate drops every cached read after a committed write.
func (s *Store) invalidate(ctx context.Context) {
	if err := s.Cache.Bump(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("catalog cache not invalidated")
	}
}

// load reads one row of r without its link sets.
func (s *Store) load(ctx context.Context, q dbx.DB, r *Resource, id string) (dbx.Row, error) {
	if !validate.IsUUID(id) {
		return nil, ErrNotFound
	}
	rows, err := q.QueryContext(ctx, `SELECT `+r.selectList()+` FROM `+r.Table+` t WHERE t.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.Singular, err)
	}
	row, err := dbx.ScanOne(rows, r.kinds())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return row, err
}

func (s *Store) get(ctx context.Context, q dbx.DB, r *Resource, id string) (dbx.Row, error) {
	row, err := s.load(ctx, q, r, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachLinks(ctx, q, r, []dbx.Row{row}); err != nil {
		return nil, err
	}
	return row, nil
}

// Create inserts a row and its link sets in one transaction.
func (s *Store) Create(ctx context.Context, r *Resource, p Payload) (dbx.Row, error) {
	w, err := r.decode(p, true)
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(w.cols))
	args := make([]any, len(w.cols))
	for i, cv := range w.cols {
		cols[i] = cv.col
		args[i] = cv.val
	}
	query := `INSERT INTO ` + r.Table + ` AS t (` + strings.Join(cols, ", ") + `) VALUES (` +
		dbx.Placeholders(1, len(args)) + `) RETURNING ` + r.selectList()

	var out dbx.Row
	err = dbx.WithinTx(ctx, s.DB, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert %s: %w", r.Singular, err)
		}
		row, err := dbx.ScanOne(rows, r.kinds())
		if err != nil {
			return err
		}
		if err := s.afterWrite(ctx, tx, r, row, w.links); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

// Update applies the fields present in p and replaces the link sets present in p,
// in one transaction. An empty payload only touches updated_at.
func (s *Store) Update(ctx context.Context, r *Resource, id string, p Payload) (dbx.Row, error) {
	if !validate.IsUUID(id) {
		return nil, ErrNotFound
	}
	w, err := r.decode(p, false)
	if err != nil {
		// a missing row wins over a bad payload
		if existErr := s.mustExist(ctx, r, id); existErr != nil {
			return nil, existErr
		}
		return nil, err
	}

	sets := make([]string, 0, len(w.cols)+1)
	args := make([]any, 0, len(w.cols)+1)
	for _, cv := range w.cols {
		args = append(args, cv.val)
		sets = append(sets, fmt.Sprintf("%s = $%d", cv.col, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := `UPDATE ` + r.Table + ` AS t SET ` + strings.Join(sets, ", ") +
		fmt.Sprintf(` WHERE t.id = $%d RETURNING `, len(args)) + r.selectList()

	var out dbx.Row
	err = dbx.WithinTx(ctx, s.DB, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update %s: %w", r.Singular, err)
		}
		row, err := dbx.ScanOne(rows, r.kinds())
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := s.afterWrite(ctx, tx, r, row, w.links); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

// Delete hard-deletes a row; dependents go with it through ON DELETE CASCADE.
func (s *Store) Delete(ctx context.Context, r *Resource, id string) error {
	if !validate.IsUUID(id) {
		return ErrNotFound
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM `+r.Table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.Singular, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx)
	return nil
}

func (s *Store) afterWrite(ctx context.Context, tx *sql.Tx, r *Resource, row dbx.Row, links map[string][]string) error {
	if r.Check != nil {
		if err := r.Check(ctx, tx, row); err != nil {
			return err
		}
	}
	id, _ := row["id"].(string)
	for _, l := range r.Links {
		ids, present := links[l.Key]
		if !present {
			continue
		}
		if len(ids) > 0 && r.Scope != nil {
			if err := checkScope(ctx, tx, r, l, row, ids); err != nil {
				return err
			}
		}
		if err := replaceLinks(ctx, tx, l, id, ids); err != nil {
			return err
		}
	}
	return s.attachLinks(ctx, tx, r, []dbx.Row{row})
}
