package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggingMiddleware_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	// Headers are only logged at debug level
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/v1/spin", nil)
	req.Header.Set(HeaderAPIKey, "secret-key-123")
	req.Header.Set(HeaderAuthorization, "Bearer mytoken")
	req.Header.Set("X-Session-ID", "session-42")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := buf.String()
	if !strings.Contains(out, LogMsgRequestHeaders) {
		t.Fatalf("headers were never logged: %s", out)
	}

	if strings.Contains(out, "secret-key-123") {
		t.Errorf("log output leaks the API key: %s", out)
	}
	if strings.Contains(out, "Bearer mytoken") {
		t.Errorf("log output leaks the Authorization value: %s", out)
	}

	// Non-sensitive headers still come through; the session ID is how
	// requests are correlated in the logs.
	if !strings.Contains(out, "session-42") {
		t.Errorf("log output missing session header: %s", out)
	}
}

func TestLoggingMiddleware_SkipsProbeEndpoints(t *testing.T) {
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	if out := buf.String(); strings.Contains(out, LogMsgRequestStarted) {
		t.Errorf("probe traffic should not be logged: %s", out)
	}
}
