package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/tabrest/tabrest/pkg/httputil"
)

// BasicAuthConfig holds the username-password pairs for basic authentication.
type BasicAuthConfig struct {
	Credentials map[string]string
}

// VerifyBasicAuth is a middleware function for basic authentication.
func VerifyBasicAuth(config *BasicAuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
				httputil.Error(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}

			if !strings.HasPrefix(authHeader, "Basic ") {
				httputil.Error(w, http.StatusUnauthorized, "Invalid authorization format")
				return
			}

			credentials, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "Invalid base64 encoding")
				return
			}

			creds := strings.SplitN(string(credentials), ":", 2)
			if len(creds) != 2 {
				httputil.Error(w, http.StatusUnauthorized, "Invalid credentials format")
				return
			}

			username, password := creds[0], creds[1]
			validPassword, ok := config.Credentials[username]
			if !ok || subtle.ConstantTimeCompare([]byte(validPassword), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
				httputil.Error(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}

			ctx := context.WithValue(r.Context(), httputil.BasicAuthCtxKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
