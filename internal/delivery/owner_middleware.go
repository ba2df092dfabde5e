package delivery

import (
	"context"
	"net/http"
)

type ctxKey int

const ownerKey ctxKey = iota

// OwnerMiddleware pulls the already-authorized owner identity set by the
// upstream access layer. The pipeline never defaults or guesses an owner,
// so requests without one are rejected outright.
func OwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get("X-Owner-ID")
		if owner == "" {
			http.Error(w, "missing owner identity", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerID(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}
