package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// captureHandler collects slog records emitted during a test.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) attr(t *testing.T, key string) (string, bool) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rec := range h.records {
		var val string
		found := false
		rec.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				val = a.Value.String()
				found = true
				return false
			}
			return true
		})
		if found {
			return val, true
		}
	}
	return "", false
}

func withCapturedLogs(t *testing.T) *captureHandler {
	t.Helper()
	capture := &captureHandler{}
	prev := slog.Default()
	slog.SetDefault(slog.New(capture))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return capture
}

func TestRequestLoggingIncludesSubject(t *testing.T) {
	capture := withCapturedLogs(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setLoggedSubject(r.Context(), "builder-7")
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	RequestLogging(inner).ServeHTTP(w, httptest.NewRequest("GET", "/api/forms", nil))

	sub, ok := capture.attr(t, "subject")
	if !ok {
		t.Fatal("request log has no subject attribute")
	}
	if sub != "builder-7" {
		t.Errorf("subject = %q, want builder-7", sub)
	}
}

func TestRequestLoggingOmitsSubjectOnPublicRoutes(t *testing.T) {
	capture := withCapturedLogs(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	RequestLogging(inner).ServeHTTP(w, httptest.NewRequest("GET", "/f/form-1", nil))

	if _, ok := capture.attr(t, "subject"); ok {
		t.Error("request log carries a subject on an unauthenticated request")
	}
}
