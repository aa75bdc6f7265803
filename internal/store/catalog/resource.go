// Package catalog stores the Book Art entities. Each entity is described by a Resource
// and served by the same generic list/get/create/update/delete code paths.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/5w1tchy/book-art/internal/casemap"
	"github.com/5w1tchy/book-art/internal/store/dbx"
)

var ErrNotFound = errors.New("not found")

// InputError is a client mistake; its message is safe to return as-is.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErr(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

type Kind int

const (
	KindText Kind = iota
	KindUUID
	KindInt
	KindTags
)

func (k Kind) scan() dbx.Kind {
	switch k {
	case KindInt:
		return dbx.Int
	case KindTags:
		return dbx.Tags
	default:
		return dbx.Text
	}
}

// Field is a writable column.
type Field struct {
	Column    string
	Kind      Kind
	Required  bool
	Immutable bool // settable on create only
	Default   any  // stored when the client sends null on a NOT NULL column
}

func (f Field) Key() string { return casemap.SnakeToCamel(f.Column) }

// Link is a many-to-many set maintained through a junction table.
type Link struct {
	Key       string // payload key, e.g. "bookIds"
	Field     string // row key holding the id set, e.g. "book_ids"
	Junction  string
	OwnerCol  string
	TargetCol string
	Target    string // target table; must carry series_id
}

// Child is a read-only nested projection, either by foreign key or through a junction.
type Child struct {
	Name       string // route segment and response key
	Of         string // resource name providing the columns
	FK         string // child column pointing at the parent
	Join       string // junction table, when set FK is unused
	JoinOwner  string // junction column pointing at the parent
	JoinTarget string // junction column pointing at the child
	OrderBy    string
}

// Filter narrows a list by an id-valued query parameter.
type Filter struct {
	Param  string
	Column string
}

type Resource struct {
	Name     string // plural, route segment and list key
	Singular string
	Label    string
	Table    string
	Fields   []Field
	OrderBy  string
	Paged    bool
	Filters  []Filter
	Links    []Link
	Children []Child

	// Scope returns the series id link targets must belong to.
	Scope func(ctx context.Context, q dbx.DB, row dbx.Row) (string, error)
	// Check runs after every write, inside the transaction.
	Check func(ctx context.Context, q dbx.DB, row dbx.Row) error
}

func (r *Resource) field(key string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Key() == key {
			return f, true
		}
	}
	return Field{}, false
}

func (r *Resource) link(key string) (Link, bool) {
	for _, l := range r.Links {
		if l.Key == key {
			return l, true
		}
	}
	return Link{}, false
}

// LinkTo returns the link of r whose target table is target.
func (r *Resource) LinkTo(target string) (Link, bool) {
	for _, l := range r.Links {
		if l.Target == target {
			return l, true
		}
	}
	return Link{}, false
}

func (r *Resource) Child(name string) (Child, bool) {
	for _, c := range r.Children {
		if c.Name == name {
			return c, true
		}
	}
	return Child{}, false
}

func (r *Resource) columns() []string {
	cols := make([]string, 0, len(r.Fields)+3)
	cols = append(cols, "id")
	for _, f := range r.Fields {
		cols = append(cols, f.Column)
	}
	return append(cols, "created_at", "updated_at")
}

// selectList renders "t.id, t.col, ..." for alias t.
func (r *Resource) selectList() string {
	cols := r.columns()
	for i, c := range cols {
		cols[i] = "t." + c
	}
	return strings.Join(cols, ", ")
}

func (r *Resource) kinds() map[string]dbx.Kind {
	k := map[string]dbx.Kind{"created_at": dbx.Time, "updated_at": dbx.Time}
	for _, f := range r.Fields {
		k[f.Column] = f.Kind.scan()
	}
	return k
}
