package auth_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/5w1tchy/book-art/internal/auth"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var userCols = []string{"id", "email", "username", "password_hash", "role", "created_at", "updated_at"}

func TestSQLStore_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, username, password_hash, role)`)).
		WithArgs("a@b.co", "a", "phc", "user").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "a@b.co", "a", "phc", "user", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("a@b.co", "a", "phc", "user").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	s := auth.NewSQLStore(db)
	u, err := s.CreateUser(t.Context(), "a@b.co", "a", "phc", "user")
	if err != nil || u.ID != "u1" {
		t.Fatalf("u=%+v err=%v", u, err)
	}
	if _, err := s.CreateUser(t.Context(), "a@b.co", "a", "phc", "user"); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSQLStore_FindMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1 LIMIT 1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(userCols))

	if _, err := auth.NewSQLStore(db).FindUserByID(t.Context(), "nope"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
