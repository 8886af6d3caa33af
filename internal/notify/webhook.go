// Package notify fans out accepted submissions to downstream consumers.
// Delivery failures are logged and never surfaced to the respondent.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/model"
)

// Notifier is invoked after a submission has been persisted.
type Notifier interface {
	SubmissionAccepted(ctx context.Context, form model.Form, sub model.Submission)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// SubmissionAccepted does nothing.
func (NopNotifier) SubmissionAccepted(context.Context, model.Form, model.Submission) {}

// WebhookNotifier POSTs an event payload to each configured URL.
type WebhookNotifier struct {
	urls    []string
	client  *http.Client
	timeout time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewWebhookNotifier creates a notifier delivering to the given URLs with a
// per-delivery timeout. Metrics may be nil.
func NewWebhookNotifier(urls []string, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *WebhookNotifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		urls:    urls,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// webhookEvent is the delivery payload.
type webhookEvent struct {
	Event        string         `json:"event"`
	FormID       string         `json:"form_id"`
	FormTitle    string         `json:"form_title"`
	SubmissionID string         `json:"submission_id"`
	Data         map[string]any `json:"data"`
	CreatedAt    time.Time      `json:"created_at"`
}

// SubmissionAccepted delivers a submission.created event to every URL.
// Each delivery gets its own timeout; failures are logged at warn.
func (n *WebhookNotifier) SubmissionAccepted(ctx context.Context, form model.Form, sub model.Submission) {
	if len(n.urls) == 0 {
		return
	}

	payload, err := json.Marshal(webhookEvent{
		Event:        "submission.created",
		FormID:       form.ID,
		FormTitle:    form.Title,
		SubmissionID: sub.ID,
		Data:         sub.Data,
		CreatedAt:    sub.CreatedAt,
	})
	if err != nil {
		n.logger.Error("webhook payload marshal failed", zap.Error(err))
		return
	}

	for _, url := range n.urls {
		n.deliver(ctx, url, payload, sub.ID)
	}
}

func (n *WebhookNotifier) deliver(ctx context.Context, url string, payload []byte, submissionID string) {
	dctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	start := time.Now()

	req, err := http.NewRequestWithContext(dctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		n.logger.Warn("webhook request build failed",
			zap.String("url", url), zap.Error(err))
		n.recordDelivery("error", start)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("url", url),
			zap.String("submission_id", submissionID),
			zap.Error(err))
		n.recordDelivery("error", start)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("webhook delivery rejected",
			zap.String("url", url),
			zap.String("submission_id", submissionID),
			zap.Int("status", resp.StatusCode))
		n.recordDelivery("rejected", start)
		return
	}
	n.recordDelivery("ok", start)
}

func (n *WebhookNotifier) recordDelivery(status string, start time.Time) {
	if n.metrics != nil {
		n.metrics.RecordWebhookDelivery(status, time.Since(start))
	}
}
