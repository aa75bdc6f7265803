package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/5w1tchy/book-art/internal/store/dbx"
	"github.com/5w1tchy/book-art/internal/store/shared"
	"github.com/5w1tchy/book-art/internal/validate"
)

// ArtView loads an art row and composes its artist and tagged entities.
func (s *Store) ArtView(ctx context.Context, id string) (dbx.Row, error) {
	key := "art:view:" + id
	var hit dbx.Row
	gen, ok := s.Cache.Get(ctx, key, &hit)
	if ok {
		return hit, nil
	}
	row, err := s.get(ctx, s.DB, Art, id)
	if err != nil {
		return nil, err
	}

	var (
		artist     dbx.Row
		characters []dbx.Row
		locations  []dbx.Row
		items      []dbx.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		aid, ok := row["artist_id"].(string)
		if !ok {
			return nil
		}
		rows, err := s.DB.QueryContext(gctx,
			`SELECT `+Artists.selectList()+` FROM artists t WHERE t.id = $1`, aid)
		if err != nil {
			return fmt.Errorf("load artist: %w", err)
		}
		all, err := dbx.ScanRows(rows, Artists.kinds())
		if err != nil {
			return err
		}
		if len(all) > 0 {
			artist = all[0]
		}
		return nil
	})
	load := func(name string, dst *[]dbx.Row) {
		c, _ := Art.Child(name)
		g.Go(func() error {
			rows, err := s.listChild(gctx, c, id)
			*dst = rows
			return err
		})
	}
	load("characters", &characters)
	load("locations", &locations)
	load("items", &items)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if artist != nil {
		row["artist"] = artist
	} else {
		row["artist"] = nil
	}
	row["characters"] = characters
	row["locations"] = locations
	row["items"] = items
	s.Cache.Set(ctx, gen, key, row)
	return row, nil
}

// ArtQuery narrows SearchArt. Empty fields are ignored.
type ArtQuery struct {
	Q         string
	BookID    string
	ChapterID string
	Limit     int
}

// SearchArt matches q case-insensitively against title and description, newest first.
func (s *Store) SearchArt(ctx context.Context, q ArtQuery) ([]dbx.Row, error) {
	var (
		conds []string
		args  []any
	)
	if term := shared.CleanText(q.Q); term != "" {
		args = append(args, shared.ContainsPattern(term))
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(t.title ILIKE $%d ESCAPE '\' OR t.description ILIKE $%d ESCAPE '\')`, n, n))
	}
	for _, f := range []struct{ param, col, val string }{
		{"bookId", "book_id", q.BookID},
		{"chapterId", "chapter_id", q.ChapterID},
	} {
		if f.val == "" {
			continue
		}
		if !validate.IsUUID(f.val) {
			return nil, inputErr("%s must be a valid id", f.param)
		}
		args = append(args, f.val)
		conds = append(conds, fmt.Sprintf("t.%s = $%d", f.col, len(args)))
	}

	query := `SELECT ` + Art.selectList() + ` FROM art t`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, q.Limit)
	query += fmt.Sprintf(` ORDER BY t.created_at DESC LIMIT $%d`, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search art: %w", err)
	}
	return dbx.ScanRows(rows, Art.kinds())
}
