package apperr

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Problem is a client-safe rendering of a database failure.
type Problem struct {
	Status  int
	Message string
}

// FromPG maps a pgconn.PgError to a Problem. Returns (Problem, true) if mapped
// to a client error; server-side failures are left to the caller.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	switch pg.Code {
	case "23505": // unique_violation
		return Problem{http.StatusBadRequest, "Record already exists"}, true
	case "23503": // foreign_key_violation
		return Problem{http.StatusBadRequest, "Referenced record does not exist"}, true
	case "23502": // not_null_violation
		return Problem{http.StatusBadRequest, "Missing required field"}, true
	case "23514": // check_violation
		return Problem{http.StatusBadRequest, "Constraint failed"}, true
	case "22P02": // invalid_text_representation (bad uuid, bad int)
		return Problem{http.StatusBadRequest, "Invalid identifier"}, true
	case "22001": // string_data_right_truncation
		return Problem{http.StatusBadRequest, "Value is too long"}, true
	case "22003": // numeric_value_out_of_range
		return Problem{http.StatusBadRequest, "Number out of range"}, true
	}
	return Problem{}, false
}

// HandleDBError maps err to a client error when possible, else logs it and answers 500
// with fallback. Returns true if a response was written.
func HandleDBError(w http.ResponseWriter, r *http.Request, err error, fallback string) bool {
	if err == nil {
		return false
	}
	if p, ok := FromPG(err); ok {
		Write(w, p.Status, p.Message)
		return true
	}
	Internal(w, r, err, fallback)
	return true
}
