package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/smartstudy/smartstudy/internal/ctxkeys"
	"github.com/smartstudy/smartstudy/internal/respond"
)

// TokenVerifier validates an access token and returns its user id.
type TokenVerifier interface {
	VerifyJWT(token string) (string, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the verified user id in the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			userID, err := verifier.VerifyJWT(token)
			if err != nil {
				slog.Debug("token rejected", "path", r.URL.Path, "error", err)
				respond.Error(w, http.StatusUnauthorized, "Token is not valid")
				return
			}

			ctx := ctxkeys.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
