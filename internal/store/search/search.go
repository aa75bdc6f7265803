// Package search runs the cross-entity substring search.
package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/5w1tchy/book-art/internal/store/shared"
)

var ErrEmptyQuery = errors.New("search: empty query")

type Result struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	ParentID    *string `json:"parentId"`
	ParentName  *string `json:"parentName"`
	Type        string  `json:"type"`
}

type Groups struct {
	Series     []Result `json:"series"`
	Books      []Result `json:"books"`
	Chapters   []Result `json:"chapters"`
	Characters []Result `json:"characters"`
	Locations  []Result `json:"locations"`
	Items      []Result `json:"items"`
}

type Response struct {
	Query      string `json:"query"`
	TotalCount int    `json:"totalCount"`
	Results    Groups `json:"results"`
}

// source describes how one table is searched. Parent columns are empty for top-level tables.
type source struct {
	typ        string
	table      string
	name       string
	desc       string
	image      string
	parent     string
	fk         string
	parentName string
}

var (
	seriesSrc     = source{typ: "series", table: "series", name: "title", desc: "description", image: "cover_image_url"}
	booksSrc      = source{typ: "book", table: "books", name: "title", desc: "description", image: "cover_image_url", parent: "series", fk: "series_id", parentName: "title"}
	chaptersSrc   = source{typ: "chapter", table: "chapters", name: "title", desc: "summary", parent: "books", fk: "book_id", parentName: "title"}
	charactersSrc = source{typ: "character", table: "characters", name: "name", desc: "description", image: "image_url", parent: "series", fk: "series_id", parentName: "title"}
	locationsSrc  = source{typ: "location", table: "locations", name: "name", desc: "description", image: "image_url", parent: "series", fk: "series_id", parentName: "title"}
	itemsSrc      = source{typ: "item", table: "items", name: "name", desc: "description", image: "image_url", parent: "series", fk: "series_id", parentName: "title"}
)

// query matches $1 (contains pattern) against name or description and puts
// $2 (prefix pattern) matches first, then orders by name.
func (s source) query() string {
	image, parentID, parentName, join := "NULL", "NULL", "NULL", ""
	if s.image != "" {
		image = "t." + s.image
	}
	if s.parent != "" {
		parentID = "t." + s.fk
		parentName = "p." + s.parentName
		join = " LEFT JOIN " + s.parent + " p ON p.id = t." + s.fk
	}
	return fmt.Sprintf(`SELECT t.id, t.%[1]s, t.%[2]s, %[3]s, %[4]s, %[5]s FROM %[6]s t%[7]s `+
		`WHERE t.%[1]s ILIKE $1 ESCAPE '\' OR t.%[2]s ILIKE $1 ESCAPE '\' `+
		`ORDER BY CASE WHEN t.%[1]s ILIKE $2 ESCAPE '\' THEN 0 ELSE 1 END, t.%[1]s ASC LIMIT $3`,
		s.name, s.desc, image, parentID, parentName, s.table, join)
}

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store { return &Store{DB: db} }

// Normalize trims and NFC-normalises a raw query.
func Normalize(q string) string { return shared.CleanText(q) }

// Search runs one query per entity type concurrently. Any failure fails the whole search.
func (s *Store) Search(ctx context.Context, raw string, limit int) (*Response, error) {
	q := Normalize(raw)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	contains, prefix := shared.ContainsPattern(q), shared.PrefixPattern(q)

	resp := &Response{Query: q}
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range []struct {
		src source
		dst *[]Result
	}{
		{seriesSrc, &resp.Results.Series},
		{booksSrc, &resp.Results.Books},
		{chaptersSrc, &resp.Results.Chapters},
		{charactersSrc, &resp.Results.Characters},
		{locationsSrc, &resp.Results.Locations},
		{itemsSrc, &resp.Results.Items},
	} {
		g.Go(func() error {
			out, err := s.run(gctx, job.src, contains, prefix, limit)
			*job.dst = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := resp.Results
	resp.TotalCount = len(r.Series) + len(r.Books) + len(r.Chapters) +
		len(r.Characters) + len(r.Locations) + len(r.Items)
	return resp, nil
}

func (s *Store) run(ctx context.Context, src source, contains, prefix string, limit int) ([]Result, error) {
	rows, err := s.DB.QueryContext(ctx, src.query(), contains, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", src.table, err)
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var (
			res                               = Result{Type: src.typ}
			desc, image, parentID, parentName sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.Name, &desc, &image, &parentID, &parentName); err != nil {
			return nil, fmt.Errorf("scan %s: %w", src.table, err)
		}
		res.Description = nullable(desc)
		res.ImageURL = nullable(image)
		res.ParentID = nullable(parentID)
		res.ParentName = nullable(parentName)
		out = append(out, res)
	}
	return out, rows.Err()
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
