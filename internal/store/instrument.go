package store

import (
	"context"
	"time"

	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/model"
)

// WithMetrics wraps a store so every operation records its outcome and
// duration. A nil metrics handle returns the store unwrapped.
func WithMetrics(inner Store, metrics *observability.Metrics) Store {
	if metrics == nil {
		return inner
	}
	return &instrumentedStore{inner: inner, metrics: metrics}
}

type instrumentedStore struct {
	inner   Store
	metrics *observability.Metrics
}

func (s *instrumentedStore) record(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordStoreOperation(op, status, time.Since(start))
}

func (s *instrumentedStore) CreateForm(ctx context.Context, form model.Form) error {
	start := time.Now()
	err := s.inner.CreateForm(ctx, form)
	s.record("create_form", start, err)
	return err
}

func (s *instrumentedStore) GetForm(ctx context.Context, formID string) (model.Form, error) {
	start := time.Now()
	form, err := s.inner.GetForm(ctx, formID)
	s.record("get_form", start, err)
	return form, err
}

func (s *instrumentedStore) UpdateForm(ctx context.Context, form model.Form) error {
	start := time.Now()
	err := s.inner.UpdateForm(ctx, form)
	s.record("update_form", start, err)
	return err
}

func (s *instrumentedStore) DeleteForm(ctx context.Context, formID string) error {
	start := time.Now()
	err := s.inner.DeleteForm(ctx, formID)
	s.record("delete_form", start, err)
	return err
}

func (s *instrumentedStore) ListForms(ctx context.Context, filters FormFilters) ([]model.Form, error) {
	start := time.Now()
	forms, err := s.inner.ListForms(ctx, filters)
	s.record("list_forms", start, err)
	return forms, err
}

func (s *instrumentedStore) CreateSubmission(ctx context.Context, sub model.Submission) error {
	start := time.Now()
	err := s.inner.CreateSubmission(ctx, sub)
	s.record("create_submission", start, err)
	return err
}

func (s *instrumentedStore) ListSubmissions(ctx context.Context, formID string, filters SubmissionFilters) ([]model.Submission, error) {
	start := time.Now()
	subs, err := s.inner.ListSubmissions(ctx, formID, filters)
	s.record("list_submissions", start, err)
	return subs, err
}

func (s *instrumentedStore) CountSubmissions(ctx context.Context, formID string) (int, error) {
	start := time.Now()
	n, err := s.inner.CountSubmissions(ctx, formID)
	s.record("count_submissions", start, err)
	return n, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record("ping", start, err)
	return err
}
