package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/formloom/formloom/model"
)

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu          sync.RWMutex
	forms       map[string]model.Form
	submissions map[string][]model.Submission // key: form ID
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		forms:       make(map[string]model.Form),
		submissions: make(map[string][]model.Submission),
	}
}

// CreateForm persists a new form.
func (s *MemoryStore) CreateForm(_ context.Context, form model.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.forms[form.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("form %q already exists", form.ID))
	}
	s.forms[form.ID] = cloneForm(form)
	return nil
}

// GetForm retrieves a form by ID.
func (s *MemoryStore) GetForm(_ context.Context, formID string) (model.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, exists := s.forms[formID]
	if !exists {
		return model.Form{}, model.NewNotFoundError(fmt.Sprintf("form %q not found", formID))
	}
	return cloneForm(form), nil
}

// UpdateForm persists an updated form with optimistic locking.
func (s *MemoryStore) UpdateForm(_ context.Context, form model.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.forms[form.ID]
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("form %q not found", form.ID))
	}
	if existing.Version != form.Version {
		return model.NewConflictError(
			fmt.Sprintf("form %q version conflict (expected %d, got %d)",
				form.ID, existing.Version, form.Version),
		)
	}

	form.Version++
	form.UpdatedAt = time.Now().UTC()
	s.forms[form.ID] = cloneForm(form)
	return nil
}

// DeleteForm removes a form and its submissions.
func (s *MemoryStore) DeleteForm(_ context.Context, formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.forms[formID]; !exists {
		return model.NewNotFoundError(fmt.Sprintf("form %q not found", formID))
	}
	delete(s.forms, formID)
	delete(s.submissions, formID)
	return nil
}

// ListForms returns forms matching the filters, newest first.
func (s *MemoryStore) ListForms(_ context.Context, filters FormFilters) ([]model.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Form
	for _, form := range s.forms {
		if filters.Status != "" && form.Status != filters.Status {
			continue
		}
		out = append(out, cloneForm(form))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filters.Limit, filters.Offset), nil
}

// CreateSubmission persists a new submission.
func (s *MemoryStore) CreateSubmission(_ context.Context, sub model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions[sub.FormID] = append(s.submissions[sub.FormID], sub)
	return nil
}

// ListSubmissions returns a form's submissions, newest first.
func (s *MemoryStore) ListSubmissions(_ context.Context, formID string, filters SubmissionFilters) ([]model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.submissions[formID]
	out := make([]model.Submission, len(subs))
	copy(out, subs)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, filters.Limit, filters.Offset), nil
}

// CountSubmissions returns the number of submissions for a form.
func (s *MemoryStore) CountSubmissions(_ context.Context, formID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submissions[formID]), nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// cloneForm deep-copies the field slice so callers cannot mutate stored
// state through the returned value.
func cloneForm(form model.Form) model.Form {
	fields := make([]model.Field, len(form.Fields))
	copy(fields, form.Fields)
	form.Fields = fields
	return form
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
