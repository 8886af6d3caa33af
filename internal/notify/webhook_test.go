package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/model"
)

func testSubmission() (model.Form, model.Submission) {
	form := model.Form{ID: "form-1", Title: "Contact us"}
	sub := model.Submission{
		ID:        "sub-1",
		FormID:    "form-1",
		Data:      map[string]any{"name": "Ada"},
		Status:    model.SubmissionPending,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	return form, sub
}

func TestWebhookDeliversEvent(t *testing.T) {
	var mu sync.Mutex
	var received []webhookEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var ev webhookEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
	}))
	defer srv.Close()

	n := NewWebhookNotifier([]string{srv.URL}, time.Second, nil, zap.NewNop())
	form, sub := testSubmission()
	n.SubmissionAccepted(context.Background(), form, sub)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(received))
	}
	ev := received[0]
	if ev.Event != "submission.created" {
		t.Errorf("event = %q", ev.Event)
	}
	if ev.FormID != "form-1" || ev.FormTitle != "Contact us" || ev.SubmissionID != "sub-1" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Data["name"] != "Ada" {
		t.Errorf("data = %v", ev.Data)
	}
}

func TestWebhookFansOutToAllURLs(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	handler := func(name string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits[name]++
			mu.Unlock()
		})
	}
	a := httptest.NewServer(handler("a"))
	defer a.Close()
	b := httptest.NewServer(handler("b"))
	defer b.Close()

	n := NewWebhookNotifier([]string{a.URL, b.URL}, time.Second, nil, zap.NewNop())
	form, sub := testSubmission()
	n.SubmissionAccepted(context.Background(), form, sub)

	mu.Lock()
	defer mu.Unlock()
	if hits["a"] != 1 || hits["b"] != 1 {
		t.Errorf("hits = %v, want one per URL", hits)
	}
}

func TestWebhookFailureDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	srv.Close() // immediately closed: connection refused

	n := NewWebhookNotifier([]string{srv.URL}, 200*time.Millisecond, nil, zap.NewNop())
	form, sub := testSubmission()
	n.SubmissionAccepted(context.Background(), form, sub)
}

func TestWebhookRejectedStatusIsLoggedOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier([]string{srv.URL}, time.Second, nil, zap.NewNop())
	form, sub := testSubmission()
	n.SubmissionAccepted(context.Background(), form, sub)
}

func TestWebhookNoURLsIsNoop(t *testing.T) {
	n := NewWebhookNotifier(nil, time.Second, nil, zap.NewNop())
	form, sub := testSubmission()
	n.SubmissionAccepted(context.Background(), form, sub)
}

func TestWebhookDeliveryOutcomesAreCounted(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer rejecting.Close()
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	metrics := observability.InitMetrics(prometheus.NewRegistry())
	n := NewWebhookNotifier([]string{ok.URL, rejecting.URL, dead.URL}, time.Second, metrics, zap.NewNop())

	form, sub := testSubmission()
	n.SubmissionAccepted(context.Background(), form, sub)

	for status, want := range map[string]float64{"ok": 1, "rejected": 1, "error": 1} {
		got := testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues(status))
		if got != want {
			t.Errorf("deliveries with status %q = %v, want %v", status, got, want)
		}
	}
}
