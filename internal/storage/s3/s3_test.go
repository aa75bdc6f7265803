package s3_test

import (
	"regexp"
	"testing"

	"github.com/5w1tchy/book-art/internal/storage/s3"
)

var keyRe = regexp.MustCompile(`^art/[0-9a-f-]{36}(\.[a-z0-9]+)?$`)

func TestArtKey(t *testing.T) {
	cases := map[string]string{
		"Cover.PNG":             ".png",
		`C:\Users\me\scan.jpeg`: ".jpeg",
		"noext":                 "",
		"weird.a b":             "",
	}
	for in, ext := range cases {
		k := s3.ArtKey(in)
		if !keyRe.MatchString(k) || (ext != "" && k[len(k)-len(ext):] != ext) {
			t.Fatalf("ArtKey(%q) = %q", in, k)
		}
	}
	if s3.ArtKey("a.png") == s3.ArtKey("a.png") {
		t.Fatal("keys must be unique")
	}
}

func TestPublicURL(t *testing.T) {
	c := &s3.S3Client{Bucket: "art", PublicBaseURL: "https://cdn.example.com"}
	if got := c.PublicURL("art/x.png"); got != "https://cdn.example.com/art/x.png" {
		t.Fatalf("got %q", got)
	}
	c.PublicBaseURL = ""
	if got := c.PublicURL("art/x.png"); got != "https://art.s3.amazonaws.com/art/x.png" {
		t.Fatalf("got %q", got)
	}
}
