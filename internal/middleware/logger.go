package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"autobuilder/internal/infra"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			l.Info().
				Str("request_id", infra.RequestID(r.Context())).
				Int("status", rw.status).
				Dur("elapsed", time.Since(start)).
				Msgf("%s %s", r.Method, r.URL.Path)
		})
	}
}
