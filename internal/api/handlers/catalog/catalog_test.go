package catalog_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"github.com/5w1tchy/book-art/internal/api/handlers/catalog"
	storecatalog "github.com/5w1tchy/book-art/internal/store/catalog"
)

const (
	seriesID  = "11111111-1111-1111-1111-111111111111"
	bookID    = "22222222-2222-2222-2222-222222222222"
	seriesSel = `t.id, t.title, t.author, t.description, t.cover_image_url, t.created_at, t.updated_at`
)

var (
	ts         = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seriesCols = []string{"id", "title", "author", "description", "cover_image_url", "created_at", "updated_at"}
)

func passthrough(next http.Handler) http.Handler { return next }

func forbid(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
}

func newServer(t *testing.T, admin func(http.Handler) http.Handler) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s := storecatalog.New(db)
	r := chi.NewRouter()
	for _, res := range storecatalog.All {
		catalog.Mount(r, s, res, admin)
	}
	return r, mock
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestList_CamelCaseEnvelope(t *testing.T) {
	h, mock := newServer(t, passthrough)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + seriesSel + ` FROM series t ORDER BY t.title ASC`)).
		WillReturnRows(sqlmock.NewRows(seriesCols).
			AddRow(seriesID, "Dune", "Herbert", nil, "https://img/dune.png", ts, ts))

	rec := do(h, http.MethodGet, "/series", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	list, ok := body["series"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("series = %#v", body["series"])
	}
	row := list[0].(map[string]any)
	if row["coverImageUrl"] != "https://img/dune.png" || row["createdAt"] == nil {
		t.Fatalf("row keys not camelCased: %#v", row)
	}
	if _, paged := body["total"]; paged {
		t.Fatal("series list is not paged")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGet_NotFoundMessages(t *testing.T) {
	h, mock := newServer(t, passthrough)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM books t WHERE t.id = $1`)).
		WithArgs(bookID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	for target, want := range map[string]string{
		"/series/not-a-uuid": "Series not found",
		"/books/" + bookID:   "Book not found",
	} {
		rec := do(h, http.MethodGet, target, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d", target, rec.Code)
		}
		if got := decode(t, rec)["error"]; got != want {
			t.Fatalf("%s: error = %v, want %q", target, got, want)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_Envelope(t *testing.T) {
	h, mock := newServer(t, passthrough)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO series AS t (title) VALUES ($1) RETURNING ` + seriesSel)).
		WithArgs("Dune").
		WillReturnRows(sqlmock.NewRows(seriesCols).AddRow(seriesID, "Dune", nil, nil, nil, ts, ts))
	mock.ExpectCommit()

	rec := do(h, http.MethodPost, "/series", `{"title":"Dune"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	if body["message"] != "Series created successfully" {
		t.Fatalf("message = %v", body["message"])
	}
	if body["series"].(map[string]any)["id"] != seriesID {
		t.Fatalf("series = %#v", body["series"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_BadInput(t *testing.T) {
	h, _ := newServer(t, passthrough)

	cases := []struct {
		body, want string
	}{
		{`{"title":"Dune","rating":5}`, "Unknown field: rating"},
		{`{"author":"Herbert"}`, "title is required"},
		{`not json`, "Invalid JSON body"},
		{`null`, "Invalid JSON body"},
	}
	for _, c := range cases {
		rec := do(h, http.MethodPost, "/series", c.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", c.body, rec.Code)
		}
		if got := decode(t, rec)["error"]; got != c.want {
			t.Fatalf("%s: error = %v, want %q", c.body, got, c.want)
		}
	}
}

func TestUpdate_PutAndPatch(t *testing.T) {
	h, mock := newServer(t, passthrough)
	for range 2 {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(
			`UPDATE series AS t SET author = $1, updated_at = NOW() WHERE t.id = $2 RETURNING ` + seriesSel)).
			WithArgs("Frank Herbert", seriesID).
			WillReturnRows(sqlmock.NewRows(seriesCols).AddRow(seriesID, "Dune", "Frank Herbert", nil, nil, ts, ts))
		mock.ExpectCommit()
	}

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		rec := do(h, method, "/series/"+seriesID, `{"author":"Frank Herbert"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d body=%s", method, rec.Code, rec.Body)
		}
		if got := decode(t, rec)["message"]; got != "Series updated successfully" {
			t.Fatalf("%s: message = %v", method, got)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDelete(t *testing.T) {
	h, mock := newServer(t, passthrough)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(bookID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs(bookID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := do(h, http.MethodDelete, "/books/"+bookID, "")
	if rec.Code != http.StatusOK || decode(t, rec)["message"] != "Book deleted successfully" {
		t.Fatalf("first delete: %d %s", rec.Code, rec.Body)
	}
	rec = do(h, http.MethodDelete, "/books/"+bookID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWritesRequireAdmin(t *testing.T) {
	h, mock := newServer(t, forbid)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM series t ORDER BY`)).
		WillReturnRows(sqlmock.NewRows(seriesCols))

	if rec := do(h, http.MethodGet, "/series", ""); rec.Code != http.StatusOK {
		t.Fatalf("read: status = %d", rec.Code)
	}
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		target := "/series"
		if method != http.MethodPost {
			target += "/" + seriesID
		}
		if rec := do(h, method, target, `{}`); rec.Code != http.StatusForbidden {
			t.Fatalf("%s: status = %d", method, rec.Code)
		}
	}
}

func TestList_StorageFailureIsGeneric(t *testing.T) {
	h, mock := newServer(t, passthrough)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM series t`)).
		WillReturnError(errors.New("dial tcp: connection refused"))

	rec := do(h, http.MethodGet, "/series", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "Failed to fetch series" {
		t.Fatalf("error = %v", got)
	}
}

func TestArtSearch_BadFilter(t *testing.T) {
	h, _ := newServer(t, passthrough)

	rec := do(h, http.MethodGet, "/art/search?q=x&bookId=nope", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "bookId must be a valid id" {
		t.Fatalf("error = %v", got)
	}
}

func TestChildren_MissingParent(t *testing.T) {
	h, mock := newServer(t, passthrough)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM series WHERE id = $1)`)).
		WithArgs(seriesID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	rec := do(h, http.MethodGet, "/series/"+seriesID+"/books", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["error"]; got != "Series not found" {
		t.Fatalf("error = %v", got)
	}
}

func TestLinks_AddAndRemove(t *testing.T) {
	h, mock := newServer(t, passthrough)
	locationID := "77777777-7777-7777-7777-777777777777"
	locationCols := []string{"id", "series_id", "name", "description", "image_url", "created_at", "updated_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM locations t WHERE t.id = $1`)).
		WithArgs(locationID).
		WillReturnRows(sqlmock.NewRows(locationCols).AddRow(locationID, seriesID, "Rivendell", nil, nil, ts, ts))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM books WHERE series_id = $1 AND id IN ($2)`)).
		WithArgs(seriesID, bookID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO book_locations (location_id, book_id) VALUES ($1, $2)`)).
		WithArgs(locationID, bookID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM book_locations WHERE location_id = $1 AND book_id = $2`)).
		WithArgs(locationID, bookID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := do(h, http.MethodPost, "/locations/"+locationID+"/books", `{"bookId":"`+bookID+`"}`)
	if rec.Code != http.StatusCreated || decode(t, rec)["message"] != "Location associated with book" {
		t.Fatalf("add: %d %s", rec.Code, rec.Body)
	}
	rec = do(h, http.MethodDelete, "/locations/"+locationID+"/books/"+bookID, "")
	if rec.Code != http.StatusOK || decode(t, rec)["message"] != "Location removed from book" {
		t.Fatalf("remove: %d %s", rec.Code, rec.Body)
	}

	rec = do(h, http.MethodPost, "/locations/"+locationID+"/books", `{}`)
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "bookId is required" {
		t.Fatalf("missing id: %d %s", rec.Code, rec.Body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
