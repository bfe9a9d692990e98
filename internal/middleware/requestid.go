package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"autobuilder/internal/infra"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or mints a uuid, echoes it on the
// response and stores it on the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(RequestIDHeader)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		ctx := infra.WithRequestID(r.Context(), rid)
		w.Header().Set(RequestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestIDFromContext(ctx context.Context) string {
	return infra.RequestID(ctx)
}
