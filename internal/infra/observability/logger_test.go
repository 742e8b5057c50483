package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func loggedRequest(t *testing.T, path string, status int) []observer.LoggedEntry {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	h := ZapLoggerMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	return logs.All()
}

func TestZapLoggerMiddleware_SkipsHealthyProbes(t *testing.T) {
	if entries := loggedRequest(t, "/healthz", http.StatusOK); len(entries) != 0 {
		t.Errorf("healthy probe logged %d entries, want 0", len(entries))
	}
	if entries := loggedRequest(t, "/metrics", http.StatusOK); len(entries) != 0 {
		t.Errorf("scrape logged %d entries, want 0", len(entries))
	}
}

func TestZapLoggerMiddleware_LogsTrafficAndFailedProbes(t *testing.T) {
	entries := loggedRequest(t, "/v1/dashboard", http.StatusOK)
	if len(entries) != 1 {
		t.Fatalf("request logged %d entries, want 1", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("level = %v, want info", entries[0].Level)
	}

	// A failing probe is still worth a log line.
	entries = loggedRequest(t, "/healthz", http.StatusInternalServerError)
	if len(entries) != 1 {
		t.Fatalf("failing probe logged %d entries, want 1", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want error", entries[0].Level)
	}
}
