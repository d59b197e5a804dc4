package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mw := NewLoggingMiddleware(zap.New(core), nil)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/x", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("logged status = %v, want %d", fields["status"], http.StatusTeapot)
	}
	if fields["method"] != "GET" {
		t.Errorf("logged method = %v, want GET", fields["method"])
	}
	if fields["bytes"] != int64(len("short and stout")) {
		t.Errorf("logged bytes = %v, want %d", fields["bytes"], len("short and stout"))
	}
}

func TestLoggingMiddlewareSkipPaths(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mw := NewLoggingMiddleware(zap.New(core), []string{"/health"})

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if n := logs.Len(); n != 0 {
		t.Errorf("log entries for skipped path = %d, want 0", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"plain remote addr", "10.0.0.5:1234", "", "10.0.0.5"},
		{"forwarded single", "10.0.0.5:1234", "203.0.113.9", "203.0.113.9"},
		{"forwarded chain", "10.0.0.5:1234", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
