package middlewares

import (
	"net/http"
	"slices"
)

type HPPOptions struct {
	Whitelist []string
}

// HPP guards against HTTP parameter pollution in the query string: repeated
// parameters collapse to their first value and unknown parameters are dropped.
func HPP(opts HPPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				filterQueryParams(r, opts.Whitelist)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func filterQueryParams(r *http.Request, whitelist []string) {
	query := r.URL.Query()
	for k, v := range query {
		if !slices.Contains(whitelist, k) {
			query.Del(k)
			continue
		}
		if len(v) > 1 {
			query.Set(k, v[0])
		}
	}
	r.URL.RawQuery = query.Encode()
}

func DefaultHPPOptions() HPPOptions {
	return HPPOptions{
		Whitelist: []string{
			"q", "page", "limit",
			"seriesId", "bookId", "chapterId", "artistId",
		},
	}
}
