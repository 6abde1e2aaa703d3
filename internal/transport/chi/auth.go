package chi

import (
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// TokenCookie carries the API key for browser reads: the form page and the
// suggest script fetch are sent without an Authorization header. It never
// authorizes a write, so a cross-site form post cannot ride on it.
const TokenCookie = "taginput_token"

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// GET and HEAD requests without an Authorization header fall back to the
// TokenCookie cookie. If apiKeys is empty, authentication is disabled
// (pass-through). Static assets are always public.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled, pass everything through
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok || strings.HasPrefix(r.URL.Path, AssetsPath+"/") {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := requestToken(r)
			if msg != "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
				return
			}
			if _, ok := validKeys[token]; !ok {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestToken returns the presented key, or a message explaining why there is none.
func requestToken(r *http.Request) (string, string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		c, err := r.Cookie(TokenCookie)
		if err != nil || c.Value == "" {
			return "", "missing authorization header"
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			return "", "token cookie only authorizes GET and HEAD"
		}
		return c.Value, ""
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", "authorization header must use Bearer scheme"
	}
	return auth[len(bearerPrefix):], ""
}
