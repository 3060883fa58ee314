package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminAuth guards the admin routes with static API keys sent as
// "Authorization: Bearer <key>". With no non-empty keys configured the
// admin routes are open.
func AdminAuth(apiKeys []string) func(http.Handler) http.Handler {
	var keys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r.Header.Get("Authorization"))
			if msg == "" && !anyKeyMatches(keys, token) {
				msg = "invalid api key"
			}
			if msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="blogdex-admin"`)
				writeError(w, http.StatusUnauthorized, codeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential of a Bearer header. The scheme is
// case-insensitive. A non-empty msg explains why the header is unusable.
func bearerToken(header string) (token []byte, msg string) {
	if header == "" {
		return nil, "missing authorization header"
	}
	scheme, cred, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, "authorization header must use Bearer scheme"
	}
	return []byte(strings.TrimSpace(cred)), ""
}

// anyKeyMatches compares against every key so timing does not reveal which
// one matched.
func anyKeyMatches(keys [][]byte, token []byte) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(k, token)
	}
	return match == 1
}
