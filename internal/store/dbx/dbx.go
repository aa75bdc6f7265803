package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Queryer/Execer/Getter let these helpers work with *sql.DB and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
type Getter interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is satisfied by both *sql.DB and *sql.Tx.
type DB interface {
	Queryer
	Execer
	Getter
}

// WithinTx runs fn in a transaction (commit on nil, rollback on error).
func WithinTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Kind tells the scanner how to read a column.
type Kind int

const (
	Text Kind = iota // text, uuid
	Int
	Time
	Tags // text[]
)

var typeMap = pgtype.NewMap()

// Row is one result row keyed by column name.
type Row = map[string]any

// ScanRows reads every row into a map keyed by column name. Columns missing from
// kinds are read as Text. NULLs become nil.
func ScanRows(rows *sql.Rows, kinds map[string]Kind) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		dest := make([]any, len(cols))
		for i, c := range cols {
			dest[i] = newHolder(kinds[c])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", strings.Join(cols, ","), err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = holderValue(dest[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ScanOne is ScanRows for queries expected to return at most one row.
// It returns sql.ErrNoRows when the result is empty.
func ScanOne(rows *sql.Rows, kinds map[string]Kind) (Row, error) {
	all, err := ScanRows(rows, kinds)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, sql.ErrNoRows
	}
	return all[0], nil
}

type tagsHolder struct {
	v []string
}

func (t *tagsHolder) Scan(src any) error {
	if src == nil {
		t.v = nil
		return nil
	}
	return typeMap.SQLScanner(&t.v).Scan(src)
}

func newHolder(k Kind) any {
	switch k {
	case Int:
		return new(sql.NullInt64)
	case Time:
		return new(sql.NullTime)
	case Tags:
		return new(tagsHolder)
	default:
		return new(sql.NullString)
	}
}

func holderValue(h any) any {
	switch v := h.(type) {
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullTime:
		if v.Valid {
			return v.Time
		}
	case *tagsHolder:
		if v.v == nil {
			return []string{}
		}
		return v.v
	}
	return nil
}

// Placeholders returns "$from, $from+1, ..." for n arguments.
func Placeholders(from, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", from+i)
	}
	return b.String()
}
