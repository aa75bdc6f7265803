package shared

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var strict = bluemonday.StrictPolicy()

// CleanText trims, NFC-normalises and strips markup from free text. Text that
// survives the sanitizer is returned as typed, not HTML-encoded.
func CleanText(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if strings.ContainsAny(s, "<>") {
		s = strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
	}
	return s
}

// Dedup drops empty and repeated values, keeping first-seen order.
func Dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns an ILIKE pattern matching s anywhere.
func ContainsPattern(s string) string { return "%" + likeEscaper.Replace(s) + "%" }

// PrefixPattern returns an ILIKE pattern matching s at the start.
func PrefixPattern(s string) string { return likeEscaper.Replace(s) + "%" }
