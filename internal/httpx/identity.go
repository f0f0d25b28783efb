package httpx

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/emranffl/gain-solutions/internal/store"
)

// UserIDHeader carries the caller's identity, set by the upstream auth
// gateway after token verification. This layer trusts the signature
// work already done upstream but still resolves the id to a user.
const UserIDHeader = "X-User-Id"

type ctxKey int

const userIDKey ctxKey = iota

// RequireUser rejects requests without a well-formed identity header
// (401) and requests naming a user that does not exist (404), and puts
// the resolved user id on the request context for handlers.
func RequireUser(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(UserIDHeader)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "missing user identity")
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeError(w, http.StatusUnauthorized, "invalid user identity")
				return
			}
			if _, err := store.GetUser(r.Context(), db, id); err != nil {
				writeDomainError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
		})
	}
}

// userFrom returns the id RequireUser resolved earlier in the chain.
func userFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}
