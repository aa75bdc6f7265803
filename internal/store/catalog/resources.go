package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/5w1tchy/book-art/internal/store/dbx"
)

var Series = &Resource{
	Name: "series", Singular: "series", Label: "Series", Table: "series",
	Fields: []Field{
		{Column: "title", Kind: KindText, Required: true},
		{Column: "author", Kind: KindText},
		{Column: "description", Kind: KindText},
		{Column: "cover_image_url", Kind: KindText},
	},
	OrderBy: "t.title ASC",
	Children: []Child{
		{Name: "books", Of: "books", FK: "series_id", OrderBy: "t.title ASC"},
		{Name: "characters", Of: "characters", FK: "series_id", OrderBy: "t.name ASC"},
		{Name: "locations", Of: "locations", FK: "series_id", OrderBy: "t.name ASC"},
		{Name: "items", Of: "items", FK: "series_id", OrderBy: "t.name ASC"},
	},
}

var Books = &Resource{
	Name: "books", Singular: "book", Label: "Book", Table: "books",
	Fields: []Field{
		{Column: "series_id", Kind: KindUUID, Required: true, Immutable: true},
		{Column: "title", Kind: KindText, Required: true},
		{Column: "author", Kind: KindText},
		{Column: "description", Kind: KindText},
		{Column: "cover_image_url", Kind: KindText},
	},
	OrderBy: "t.created_at DESC",
	Filters: []Filter{{Param: "seriesId", Column: "series_id"}},
	Children: []Child{
		{Name: "chapters", Of: "chapters", FK: "book_id", OrderBy: "t.chapter_number ASC, t.title ASC"},
		{Name: "art", Of: "art", FK: "book_id", OrderBy: "t.order_index ASC, t.created_at ASC"},
		{Name: "characters", Of: "characters", Join: "book_characters", JoinOwner: "book_id", JoinTarget: "character_id", OrderBy: "t.name ASC"},
		{Name: "locations", Of: "locations", Join: "book_locations", JoinOwner: "book_id", JoinTarget: "location_id", OrderBy: "t.name ASC"},
		{Name: "items", Of: "items", Join: "book_items", JoinOwner: "book_id", JoinTarget: "item_id", OrderBy: "t.name ASC"},
	},
}

var Chapters = &Resource{
	Name: "chapters", Singular: "chapter", Label: "Chapter", Table: "chapters",
	Fields: []Field{
		{Column: "book_id", Kind: KindUUID, Required: true, Immutable: true},
		{Column: "title", Kind: KindText, Required: true},
		{Column: "chapter_number", Kind: KindInt, Required: true},
		{Column: "summary", Kind: KindText},
	},
	OrderBy: "t.chapter_number ASC, t.title ASC",
	Filters: []Filter{{Param: "bookId", Column: "book_id"}},
	Children: []Child{
		{Name: "art", Of: "art", FK: "chapter_id", OrderBy: "t.order_index ASC, t.created_at ASC"},
	},
}

var Characters = seriesEntity("characters", "character", "Character", "book_characters", "art_characters", "character_id")
var Locations = seriesEntity("locations", "location", "Location", "book_locations", "art_locations", "location_id")
var Items = seriesEntity("items", "item", "Item", "book_items", "art_items", "item_id")

// seriesEntity describes characters, locations and items, which share one shape.
func seriesEntity(name, singular, label, bookJunction, artJunction, ownerCol string) *Resource {
	return &Resource{
		Name: name, Singular: singular, Label: label, Table: name,
		Fields: []Field{
			{Column: "series_id", Kind: KindUUID, Required: true, Immutable: true},
			{Column: "name", Kind: KindText, Required: true},
			{Column: "description", Kind: KindText},
			{Column: "image_url", Kind: KindText},
		},
		OrderBy: "t.name ASC",
		Paged:   true,
		Filters: []Filter{{Param: "seriesId", Column: "series_id"}},
		Links: []Link{
			{Key: "bookIds", Field: "book_ids", Junction: bookJunction, OwnerCol: ownerCol, TargetCol: "book_id", Target: "books"},
		},
		Children: []Child{
			{Name: "art", Of: "art", Join: artJunction, JoinOwner: ownerCol, JoinTarget: "art_id", OrderBy: "t.created_at DESC"},
			{Name: "books", Of: "books", Join: bookJunction, JoinOwner: ownerCol, JoinTarget: "book_id", OrderBy: "t.title ASC"},
		},
		Scope: func(_ context.Context, _ dbx.DB, row dbx.Row) (string, error) {
			sid, _ := row["series_id"].(string)
			return sid, nil
		},
	}
}

var Artists = &Resource{
	Name: "artists", Singular: "artist", Label: "Artist", Table: "artists",
	Fields: []Field{
		{Column: "name", Kind: KindText, Required: true},
		{Column: "website", Kind: KindText},
		{Column: "bio", Kind: KindText},
	},
	OrderBy: "t.name ASC",
	Children: []Child{
		{Name: "art", Of: "art", FK: "artist_id", OrderBy: "t.created_at DESC"},
	},
}

var Art = &Resource{
	Name: "art", Singular: "art", Label: "Art", Table: "art",
	Fields: []Field{
		{Column: "book_id", Kind: KindUUID, Required: true, Immutable: true},
		{Column: "chapter_id", Kind: KindUUID},
		{Column: "artist_id", Kind: KindUUID},
		{Column: "title", Kind: KindText},
		{Column: "description", Kind: KindText},
		{Column: "image_url", Kind: KindText, Required: true},
		{Column: "tags", Kind: KindTags, Default: []string{}},
		{Column: "order_index", Kind: KindInt, Default: int64(0)},
	},
	OrderBy: "t.created_at DESC",
	Paged:   true,
	Filters: []Filter{
		{Param: "bookId", Column: "book_id"},
		{Param: "chapterId", Column: "chapter_id"},
		{Param: "artistId", Column: "artist_id"},
	},
	Links: []Link{
		{Key: "characters", Field: "character_ids", Junction: "art_characters", OwnerCol: "art_id", TargetCol: "character_id", Target: "characters"},
		{Key: "locations", Field: "location_ids", Junction: "art_locations", OwnerCol: "art_id", TargetCol: "location_id", Target: "locations"},
		{Key: "items", Field: "item_ids", Junction: "art_items", OwnerCol: "art_id", TargetCol: "item_id", Target: "items"},
	},
	Children: []Child{
		{Name: "characters", Of: "characters", Join: "art_characters", JoinOwner: "art_id", JoinTarget: "character_id", OrderBy: "t.name ASC"},
		{Name: "locations", Of: "locations", Join: "art_locations", JoinOwner: "art_id", JoinTarget: "location_id", OrderBy: "t.name ASC"},
		{Name: "items", Of: "items", Join: "art_items", JoinOwner: "art_id", JoinTarget: "item_id", OrderBy: "t.name ASC"},
	},
	Scope: bookSeries,
	Check: chapterInBook,
}

// All lists every resource in route order.
var All = []*Resource{Series, Books, Chapters, Characters, Locations, Items, Artists, Art}

func Lookup(name string) (*Resource, bool) {
	for _, r := range All {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

func bookSeries(ctx context.Context, q dbx.DB, row dbx.Row) (string, error) {
	var sid string
	err := q.QueryRowContext(ctx, `SELECT series_id FROM books WHERE id = $1`, row["book_id"]).Scan(&sid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", inputErr("bookId does not exist")
	}
	return sid, err
}

func chapterInBook(ctx context.Context, q dbx.DB, row dbx.Row) error {
	chapterID, ok := row["chapter_id"].(string)
	if !ok {
		return nil
	}
	var bookID string
	err := q.QueryRowContext(ctx, `SELECT book_id FROM chapters WHERE id = $1`, chapterID).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return inputErr("chapterId does not exist")
	}
	if err != nil {
		return err
	}
	if bookID != row["book_id"] {
		return inputErr("chapterId must belong to the same book")
	}
	return nil
}
