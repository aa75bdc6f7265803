package middlewares_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mw "github.com/5w1tchy/book-art/internal/api/middlewares"
)

const testLimit = 1024

var readAll = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if _, err := io.ReadAll(r.Body); err != nil {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	w.WriteHeader(http.StatusOK)
})

func TestBodySizeLimit_AcceptsSmallBodies(t *testing.T) {
	wrapped := mw.BodySizeLimit(testLimit)(readAll)

	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte("small body")))
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestBodySizeLimit_RejectsLargeBodies(t *testing.T) {
	wrapped := mw.BodySizeLimit(testLimit)(readAll)

	for _, method := range []string{"POST", "PUT", "PATCH"} {
		req := httptest.NewRequest(method, "/test", bytes.NewReader(bytes.Repeat([]byte("a"), testLimit+1)))
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("%s: expected 413, got %d", method, rec.Code)
		}
	}
}

func TestBodySizeLimit_OnlyAppliesToMutatingMethods(t *testing.T) {
	wrapped := mw.BodySizeLimit(testLimit)(readAll)

	// GET request should not have body size limit applied
	req := httptest.NewRequest("GET", "/test", strings.NewReader(strings.Repeat("x", testLimit*2)))
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for GET, got %d", rec.Code)
	}
}
