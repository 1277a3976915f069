package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

const testAPIKey = "test-secret-key-12345"

// mockHandler is a simple handler that records if it was called
func mockHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}), &called
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
	}{
		{"valid token", "Bearer " + testAPIKey, http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
		{"invalid token", "Bearer wrong-token", http.StatusUnauthorized, false},
		{"no bearer prefix", testAPIKey, http.StatusUnauthorized, false},
		{"empty token", "Bearer ", http.StatusUnauthorized, false},
		{"whitespace token", "Bearer    ", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLogs(t)
			handler, called := mockHandler()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(testAPIKey)(handler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if *called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", *called, tt.wantCalled)
			}
		})
	}
}

func TestAuthMiddleware_EmptyKeyDisablesAuth(t *testing.T) {
	// Given: no API key configured, as permitted in dev mode
	captureLogs(t)
	mw := AuthMiddleware("")

	for _, header := range []string{"", "Bearer anything"} {
		handler, called := mockHandler()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()

		// When
		mw(handler).ServeHTTP(w, req)

		// Then: the request reaches the handler
		if w.Code != http.StatusOK || !*called {
			t.Errorf("header %q: status = %d, called = %v", header, w.Code, *called)
		}
	}
}

func TestAuthMiddleware_ResponseFormat_RFC7807(t *testing.T) {
	captureLogs(t)
	handler, _ := mockHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()

	AuthMiddleware(testAPIKey)(handler).ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v, want application/problem+json", ct)
	}

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal response as RFC 7807: %v", err)
	}
	if p.Type != "https://larder.dev/errors/unauthorized" {
		t.Errorf("type = %v", p.Type)
	}
	if p.Status != 401 || p.Instance != "/api/v1/recipes" {
		t.Errorf("problem = %+v", p)
	}
	if strings.Contains(w.Body.String(), testAPIKey) {
		t.Error("response body contains the expected API key")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"valid token", "Bearer abc123", "abc123"},
		{"missing header", "", ""},
		{"no bearer prefix", "abc123", ""},
		{"empty after bearer", "Bearer ", ""},
		{"lowercase bearer", "bearer abc123", ""},
		{"basic auth", "Basic abc123", ""},
		{"token with spaces trimmed", "Bearer  abc123 ", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := extractBearerToken(req); got != tt.expected {
				t.Errorf("extractBearerToken() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstantTimeEqual(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"abc123", "abc123", true},
		{"abc123", "xyz789", false},
		{"abc", "abcdef", false},
		{"", "", true},
		{"abc", "", false},
	}

	for _, tt := range tests {
		if got := constantTimeEqual(tt.a, tt.b); got != tt.expected {
			t.Errorf("constantTimeEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestLogLevelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{202, slog.LevelInfo},
		{304, slog.LevelInfo},
		{400, slog.LevelWarn},
		{429, slog.LevelWarn},
		{500, slog.LevelError},
		{503, slog.LevelError},
	}

	for _, tt := range tests {
		if got := logLevelForStatus(tt.status); got != tt.want {
			t.Errorf("logLevelForStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestGetRequestID(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(empty) = %q, want empty", got)
	}

	var seen string
	h := chiMiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Error("GetRequestID inside RequestID chain is empty")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	// Given: captured logs and a handler returning 404
	logBuf := captureLogs(t)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	// When
	chiMiddleware.RequestID(LoggingMiddleware(inner)).ServeHTTP(httptest.NewRecorder(), req)

	// Then: one warn line with the request fields and no credentials
	out := logBuf.String()
	for _, want := range []string{"request completed", "level=WARN", "status=404", "method=GET", "path=/api/v1/recipes", "request_id=", "duration_ms=", "remote_addr="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, testAPIKey) {
		t.Error("log output contains the API key")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logBuf := captureLogs(t)
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})

	w := httptest.NewRecorder()
	RecoveryMiddleware(panicHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/patterns", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Detail != "Internal Server Error" {
		t.Errorf("detail = %q, want generic message", p.Detail)
	}
	if strings.Contains(w.Body.String(), "something went wrong") {
		t.Error("panic value leaked to client")
	}
	if !strings.Contains(logBuf.String(), "panic recovered") {
		t.Error("panic not logged")
	}
}

func TestEventRateLimit(t *testing.T) {
	// Given: a limit of two events per minute
	handler, _ := mockHandler()
	limited := EventRateLimit(2)(handler)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	// Then: the third is rejected
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// And: another client is unaffected
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.RemoteAddr = "10.0.0.8:5555"
	w := httptest.NewRecorder()
	limited.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d", w.Code)
	}
}

func TestEventRateLimit_ZeroDisables(t *testing.T) {
	handler, _ := mockHandler()
	limited := EventRateLimit(0)(handler)
	for i := range 50 {
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
}

func TestRouter_HealthBypassesAuth(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(testAPIKey))
			r.Get("/recipes", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		})
	})
	captureLogs(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health without auth = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("recipes without auth = %d", w.Code)
	}
}
