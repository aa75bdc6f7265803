package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/5w1tchy/book-art/internal/api/middlewares"
	"github.com/5w1tchy/book-art/internal/auth"
	jwtutil "github.com/5w1tchy/book-art/internal/security/jwt"
	"github.com/5w1tchy/book-art/internal/security/password"
)

type memStore struct {
	mu       sync.Mutex
	users    map[string]auth.User // by email
	rehashes int
}

func newMemStore() *memStore { return &memStore{users: map[string]auth.User{}} }

func (m *memStore) CreateUser(_ context.Context, email, username, hash, role string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return auth.User{}, auth.ErrEmailTaken
	}
	u := auth.User{ID: "u-" + username, Email: email, Username: username, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	m.users[email] = u
	return u, nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) FindUserByID(_ context.Context, id string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (m *memStore) UpdateUserPasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, u := range m.users {
		if u.ID == id {
			u.PasswordHash = hash
			m.users[k] = u
			m.rehashes++
		}
	}
	return nil
}

var cheap = password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newHandler(store auth.UserStore, params password.Params) *auth.Handler {
	signer := jwtutil.New(jwtutil.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), TTL: time.Hour})
	return auth.New(store, auth.NewSessions(signer, nil), password.New(params), []string{" Boss@Example.com "})
}

func do(h http.HandlerFunc, method, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("bad json %q: %v", rr.Body.String(), err)
	}
	return m
}

func TestRegister(t *testing.T) {
	h := newHandler(newMemStore(), cheap)

	rr := do(h.Register, http.MethodPost, `{"email":"Reader@Example.com","password":"Tr0ub4dor&3-Horse!","username":"reader"}`, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body)
	}
	body := decode(t, rr)
	user := body["user"].(map[string]any)
	if user["email"] != "reader@example.com" || user["isAdmin"] != false {
		t.Fatalf("user = %#v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatal("password hash leaked")
	}
	if body["token"] == "" || body["passwordWarning"] != nil {
		t.Fatalf("body = %#v", body)
	}

	rr = do(h.Register, http.MethodPost, `{"email":"reader@example.com","password":"Tr0ub4dor&3-Horse!","username":"again"}`, "")
	if rr.Code != http.StatusBadRequest || decode(t, rr)["error"] != "Email already registered" {
		t.Fatalf("duplicate: %d %s", rr.Code, rr.Body)
	}
}

func TestRegister_AdminEmailAndWarning(t *testing.T) {
	h := newHandler(newMemStore(), cheap)

	rr := do(h.Register, http.MethodPost, `{"email":"boss@example.com","password":"bossboss","username":"boss"}`, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body)
	}
	body := decode(t, rr)
	if body["user"].(map[string]any)["role"] != "admin" {
		t.Fatalf("want admin role, got %#v", body["user"])
	}
	if body["passwordWarning"] == nil {
		t.Fatal("expected a password warning")
	}
}

func TestRegister_Validation(t *testing.T) {
	h := newHandler(newMemStore(), cheap)
	cases := map[string]struct{ body, want string }{
		"bad json":    {`{`, "Invalid JSON"},
		"bad email":   {`{"email":"nope","password":"longenough","username":"x"}`, "email must be a valid email"},
		"short":       {`{"email":"a@b.co","password":"short","username":"x"}`, "password must be at least 8 characters"},
		"no username": {`{"email":"a@b.co","password":"longenough","username":"  "}`, "username is required"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := do(h.Register, http.MethodPost, tc.body, "")
			if rr.Code != http.StatusBadRequest || decode(t, rr)["error"] != tc.want {
				t.Fatalf("got %d %s", rr.Code, rr.Body)
			}
		})
	}
}

func TestLogin_AndRehash(t *testing.T) {
	store := newMemStore()
	do(newHandler(store, cheap).Register, http.MethodPost,
		`{"email":"r@example.com","password":"Tr0ub4dor&3-Horse!","username":"r"}`, "")

	stronger := cheap
	stronger.Iterations = 2
	h := newHandler(store, stronger)

	rr := do(h.Login, http.MethodPost, `{"email":"r@example.com","password":"wrong-password"}`, "")
	if rr.Code != http.StatusUnauthorized || decode(t, rr)["error"] != "Invalid credentials" {
		t.Fatalf("wrong password: %d %s", rr.Code, rr.Body)
	}
	rr = do(h.Login, http.MethodPost, `{"email":"ghost@example.com","password":"whatever1"}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: %d", rr.Code)
	}

	rr = do(h.Login, http.MethodPost, `{"email":"R@example.com","password":"Tr0ub4dor&3-Horse!"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body)
	}
	if decode(t, rr)["token"] == "" {
		t.Fatal("missing token")
	}
	if store.rehashes != 1 {
		t.Fatalf("expected one rehash, got %d", store.rehashes)
	}
}

func TestMe(t *testing.T) {
	store := newMemStore()
	h := newHandler(store, cheap)
	rr := do(h.Register, http.MethodPost, `{"email":"r@example.com","password":"Tr0ub4dor&3-Horse!","username":"r"}`, "")
	token := decode(t, rr)["token"].(string)

	guarded := middlewares.RequireAuth(h.Sessions)(http.HandlerFunc(h.Me))
	rr = do(guarded.ServeHTTP, http.MethodGet, "", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rr.Code, rr.Body)
	}
	if decode(t, rr)["user"].(map[string]any)["id"] != "u-r" {
		t.Fatalf("me body = %s", rr.Body)
	}

	delete(store.users, "r@example.com")
	rr = do(guarded.ServeHTTP, http.MethodGet, "", token)
	if rr.Code != http.StatusNotFound || decode(t, rr)["error"] != "User not found" {
		t.Fatalf("deleted user: %d %s", rr.Code, rr.Body)
	}
}

func TestLogout_AlwaysOK(t *testing.T) {
	h := newHandler(newMemStore(), cheap)
	for _, tok := range []string{"", "garbage"} {
		rr := do(h.Logout, http.MethodPost, "", tok)
		if rr.Code != http.StatusOK || decode(t, rr)["message"] != "Logged out successfully" {
			t.Fatalf("logout(%q): %d %s", tok, rr.Code, rr.Body)
		}
	}
}

func TestGuards(t *testing.T) {
	store := newMemStore()
	h := newHandler(store, cheap)
	admin := decode(t, do(h.Register, http.MethodPost, `{"email":"boss@example.com","password":"Tr0ub4dor&3-Horse!","username":"boss"}`, ""))["token"].(string)
	user := decode(t, do(h.Register, http.MethodPost, `{"email":"u@example.com","password":"Tr0ub4dor&3-Horse!","username":"u"}`, ""))["token"].(string)

	var seen middlewares.Session
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middlewares.SessionFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	guard := middlewares.RequireAdmin(h.Sessions)(ok)

	cases := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "Unauthorized"},
		{"malformed", "Token abc", http.StatusUnauthorized, "Unauthorized"},
		{"invalid", "Bearer abc.def.ghi", http.StatusUnauthorized, "Unauthorized: invalid credential"},
		{"not admin", "Bearer " + user, http.StatusForbidden, "Forbidden"},
		{"admin", "bearer " + admin, http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/series", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			guard.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if tc.msg != "" && decode(t, rr)["error"] != tc.msg {
				t.Fatalf("body = %s", rr.Body)
			}
		})
	}
	if !seen.IsAdmin || seen.UserID != "u-boss" || seen.TokenID == "" {
		t.Fatalf("session not propagated: %+v", seen)
	}
}
