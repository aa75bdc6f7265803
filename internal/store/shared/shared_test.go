package shared_test

import (
	"reflect"
	"testing"

	"github.com/5w1tchy/book-art/internal/store/shared"
)

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"  The Hobbit  ":                   "The Hobbit",
		"<b>Bold</b> claim":                "Bold claim",
		"<script>alert(1)</script>Gandalf": "Gandalf",
		"Cafe\u0301":                       "Caf\u00e9",
		"a < b":                            "a < b",
		"Tom & Jerry <3":                   "Tom & Jerry <3",
		"Fish > Fowl & Co":                 "Fish > Fowl & Co",
		"<i>Sting</i> & Glamdring":         "Sting & Glamdring",
	}
	for in, want := range cases {
		if got := shared.CleanText(in); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDedup(t *testing.T) {
	got := shared.Dedup([]string{"b", " a ", "b", "", "a"})
	if want := []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestPatterns_EscapeWildcards(t *testing.T) {
	if got := shared.ContainsPattern(`50%_off\`); got != `%50\%\_off\\%` {
		t.Errorf("contains: %q", got)
	}
	if got := shared.PrefixPattern("ring"); got != "ring%" {
		t.Errorf("prefix: %q", got)
	}
}
