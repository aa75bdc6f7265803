package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mw "github.com/5w1tchy/book-art/internal/api/middlewares"
)

func TestResponseTime(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := mw.ResponseTime(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	responseTime := rec.Header().Get("X-Response-Time")
	if !strings.HasSuffix(responseTime, "ms") {
		t.Errorf("Response time seems invalid: %q", responseTime)
	}
}

func TestResponseTime_WithWrite(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("test response"))
	})

	wrapped := mw.ResponseTime(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Header().Get("X-Response-Time") == "" {
		t.Error("Expected X-Response-Time header when using Write")
	}
}

func TestResponseTime_NothingWritten(t *testing.T) {
	wrapped := mw.ResponseTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("HEAD", "/test", nil))

	if rec.Header().Get("X-Response-Time") == "" {
		t.Error("Expected X-Response-Time header on an empty response")
	}
}
