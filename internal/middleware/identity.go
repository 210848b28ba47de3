package middleware

import (
	"context"
	"net/http"

	"github.com/atwebdev/storefront-service/pkg/utils"
)

// Identity is established by the fronting auth layer, which sets these
// headers after validating the caller's token.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

type userIDKey struct{}
type userEmailKey struct{}

// RequireUser rejects requests without an authenticated user id and stores
// the caller's identity in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			utils.WriteError(w, "authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		if email := r.Header.Get(HeaderUserEmail); email != "" {
			ctx = context.WithValue(ctx, userEmailKey{}, email)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey{}).(string)
	return email
}
