package dbx_test

import (
	"database/sql"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/5w1tchy/book-art/internal/store/dbx"
	"github.com/DATA-DOG/go-sqlmock"
)

func TestWithinTx_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM art_items WHERE art_id = $1`)).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err = dbx.WithinTx(t.Context(), db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(t.Context(), `DELETE FROM art_items WHERE art_id = $1`, "a1")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = dbx.WithinTx(t.Context(), db, func(tx *sql.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestScanRows_Kinds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, order_index, tags, created_at FROM art`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "order_index", "tags", "created_at"}).
			AddRow("a1", "Cover", int64(3), "{dragon,\"night sky\"}", ts).
			AddRow("a2", nil, int64(0), nil, ts))

	rows, err := db.QueryContext(t.Context(), `SELECT id, title, order_index, tags, created_at FROM art`)
	if err != nil {
		t.Fatal(err)
	}
	got, err := dbx.ScanRows(rows, map[string]dbx.Kind{
		"order_index": dbx.Int,
		"tags":        dbx.Tags,
		"created_at":  dbx.Time,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	want := []dbx.Row{
		{"id": "a1", "title": "Cover", "order_index": int64(3), "tags": []string{"dragon", "night sky"}, "created_at": ts},
		{"id": "a2", "title": nil, "order_index": int64(0), "tags": []string{}, "created_at": ts},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows mismatch\n got: %#v\nwant: %#v", got, want)
	}
}

func TestScanOne_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM series WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := db.QueryContext(t.Context(), `SELECT id FROM series WHERE id = $1`, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dbx.ScanOne(rows, nil); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := dbx.Placeholders(2, 3); got != "$2, $3, $4" {
		t.Fatalf("got %q", got)
	}
	if got := dbx.Placeholders(1, 0); got != "" {
		t.Fatalf("got %q", got)
	}
}
