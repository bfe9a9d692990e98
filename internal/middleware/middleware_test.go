package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDGeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", seen, err)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("header = %q, context = %q", rec.Header().Get(RequestIDHeader), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Fatalf("incoming id not reused: %q", seen)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantCode   int
	}{
		{name: "allowed", allowed: []string{"https://a.test"}, origin: "https://a.test", method: http.MethodPost, wantOrigin: "https://a.test", wantCode: http.StatusOK},
		{name: "denied", allowed: []string{"https://a.test"}, origin: "https://b.test", method: http.MethodPost, wantOrigin: "", wantCode: http.StatusOK},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://b.test", method: http.MethodGet, wantOrigin: "*", wantCode: http.StatusOK},
		{name: "preflight", allowed: []string{"https://a.test"}, origin: "https://a.test", method: http.MethodOptions, wantOrigin: "https://a.test", wantCode: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			CORS(tc.allowed)(next).ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tc.wantOrigin)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}
