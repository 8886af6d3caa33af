// Package store persists forms and submissions. Three drivers implement the
// same interface: an in-memory store for tests and development, SQLite for
// single-node deployments, and PostgreSQL.
package store

import (
	"context"

	"github.com/formloom/formloom/model"
)

// Store persists forms and submissions.
type Store interface {
	// CreateForm persists a new form. Returns CONFLICT if the ID exists.
	CreateForm(ctx context.Context, form model.Form) error

	// GetForm retrieves a form by ID. Returns NOT_FOUND if absent.
	GetForm(ctx context.Context, formID string) (model.Form, error)

	// UpdateForm persists an updated form with optimistic locking. The
	// version must match the stored version; CONFLICT otherwise. The stored
	// version is incremented.
	UpdateForm(ctx context.Context, form model.Form) error

	// DeleteForm removes a form and its submissions.
	DeleteForm(ctx context.Context, formID string) error

	// ListForms returns forms matching the filters, newest first.
	ListForms(ctx context.Context, filters FormFilters) ([]model.Form, error)

	// CreateSubmission persists a new submission.
	CreateSubmission(ctx context.Context, sub model.Submission) error

	// ListSubmissions returns a form's submissions, newest first.
	ListSubmissions(ctx context.Context, formID string, filters SubmissionFilters) ([]model.Submission, error)

	// CountSubmissions returns the number of submissions for a form.
	CountSubmissions(ctx context.Context, formID string) (int, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// FormFilters are optional filters for listing forms.
type FormFilters struct {
	Status model.FormStatus
	Limit  int
	Offset int
}

// SubmissionFilters are optional filters for listing submissions.
type SubmissionFilters struct {
	Limit  int
	Offset int
}
