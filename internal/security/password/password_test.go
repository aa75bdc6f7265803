package password_test

import (
	"errors"
	"testing"

	"github.com/5w1tchy/book-art/internal/security/password"
)

// cheap parameters keep the tests fast
var weak = password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashVerify(t *testing.T) {
	h := password.New(weak)
	phc, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	ok, rehash, err := h.Verify("correct horse battery", phc)
	if err != nil || !ok || rehash {
		t.Fatalf("ok=%v rehash=%v err=%v", ok, rehash, err)
	}
	if ok, _, _ := h.Verify("wrong", phc); ok {
		t.Fatal("wrong password verified")
	}
}

func TestNeedsRehash_WhenPolicyGrows(t *testing.T) {
	phc, err := password.New(weak).Hash("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	stronger := weak
	stronger.Iterations = 2
	if !password.New(stronger).NeedsRehash(phc) {
		t.Fatal("expected rehash under a stronger policy")
	}
	if !password.New(weak).NeedsRehash("not-a-phc") {
		t.Fatal("unparseable hash should need rehash")
	}
}

func TestValidate(t *testing.T) {
	if _, _, err := password.Validate("  short "); !errors.Is(err, password.ErrTooShort) {
		t.Fatalf("want ErrTooShort, got %v", err)
	}
	trimmed, warn, err := password.Validate(" alice123 ", "alice@example.com", "alice")
	if err != nil || trimmed != "alice123" || warn == nil {
		t.Fatalf("trimmed=%q warn=%v err=%v", trimmed, warn, err)
	}
	if _, warn, _ := password.Validate("Tr0ub4dor&3-Horse!"); warn != nil {
		t.Fatalf("strong password warned: %+v", warn)
	}
}
