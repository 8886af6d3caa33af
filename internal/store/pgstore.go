package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formloom/formloom/model"
)

// PgStore is a PostgreSQL-backed Store using pgx/v5. Settings, branding,
// fields, and submission data are stored as JSONB documents.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PostgreSQL store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// CreateForm inserts a new form.
func (s *PgStore) CreateForm(ctx context.Context, form model.Form) error {
	settingsJSON, brandingJSON, fieldsJSON, err := marshalForm(form)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO forms (
			id, title, description, status,
			settings, branding, fields, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		form.ID, form.Title, form.Description, form.Status,
		settingsJSON, brandingJSON, fieldsJSON, form.Version,
		form.CreatedAt, form.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert form: %w", err)
	}
	return nil
}

// GetForm retrieves a form by ID.
func (s *PgStore) GetForm(ctx context.Context, formID string) (model.Form, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, description, status,
		       settings, branding, fields, version,
		       created_at, updated_at
		FROM forms
		WHERE id = $1`,
		formID,
	)
	form, err := scanForm(row)
	if err == pgx.ErrNoRows {
		return model.Form{}, model.NewNotFoundError(fmt.Sprintf("form %q not found", formID))
	}
	if err != nil {
		return model.Form{}, fmt.Errorf("query form: %w", err)
	}
	return form, nil
}

// UpdateForm persists an updated form with optimistic locking.
func (s *PgStore) UpdateForm(ctx context.Context, form model.Form) error {
	settingsJSON, brandingJSON, fieldsJSON, err := marshalForm(form)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE forms SET
			title = $1, description = $2, status = $3,
			settings = $4, branding = $5, fields = $6,
			version = $7, updated_at = $8
		WHERE id = $9 AND version = $10`,
		form.Title, form.Description, form.Status,
		settingsJSON, brandingJSON, fieldsJSON,
		form.Version+1, time.Now().UTC(),
		form.ID, form.Version,
	)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(
			fmt.Sprintf("form %q version conflict (expected %d)", form.ID, form.Version),
		)
	}
	return nil
}

// DeleteForm removes a form and its submissions.
func (s *PgStore) DeleteForm(ctx context.Context, formID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM forms WHERE id = $1`, formID)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(fmt.Sprintf("form %q not found", formID))
	}
	// Submissions cascade via the foreign key.
	return nil
}

// ListForms returns forms matching the filters, newest first.
func (s *PgStore) ListForms(ctx context.Context, filters FormFilters) ([]model.Form, error) {
	query := `
		SELECT id, title, description, status,
		       settings, branding, fields, version,
		       created_at, updated_at
		FROM forms`
	args := []any{}
	if filters.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filters.Status)
	}
	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filters.Limit)
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filters.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query forms: %w", err)
	}
	defer rows.Close()

	var out []model.Form
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		out = append(out, form)
	}
	return out, rows.Err()
}

// CreateSubmission inserts a new submission.
func (s *PgStore) CreateSubmission(ctx context.Context, sub model.Submission) error {
	dataJSON, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("marshal submission data: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO submissions (
			id, form_id, data, status, ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.FormID, dataJSON, sub.Status,
		sub.IPAddress, sub.UserAgent, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListSubmissions returns a form's submissions, newest first.
func (s *PgStore) ListSubmissions(ctx context.Context, formID string, filters SubmissionFilters) ([]model.Submission, error) {
	query := `
		SELECT id, form_id, data, status, ip_address, user_agent, created_at
		FROM submissions
		WHERE form_id = $1
		ORDER BY created_at DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filters.Limit)
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filters.Offset)
	}

	rows, err := s.pool.Query(ctx, query, formID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var sub model.Submission
		var dataJSON []byte
		if err := rows.Scan(
			&sub.ID, &sub.FormID, &dataJSON, &sub.Status,
			&sub.IPAddress, &sub.UserAgent, &sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal(dataJSON, &sub.Data); err != nil {
			return nil, fmt.Errorf("unmarshal submission data: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// CountSubmissions returns the number of submissions for a form.
func (s *PgStore) CountSubmissions(ctx context.Context, formID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE form_id = $1`, formID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// Ping checks connectivity to PostgreSQL.
func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// marshalForm serializes the JSONB columns of a form row.
func marshalForm(form model.Form) (settings, branding, fields []byte, err error) {
	if settings, err = json.Marshal(form.Settings); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal settings: %w", err)
	}
	if branding, err = json.Marshal(form.Branding); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal branding: %w", err)
	}
	if fields, err = json.Marshal(form.Fields); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal fields: %w", err)
	}
	return settings, branding, fields, nil
}

// scanForm reads one form row, deserializing the JSONB columns.
func scanForm(row pgx.Row) (model.Form, error) {
	var form model.Form
	var settingsJSON, brandingJSON, fieldsJSON []byte

	err := row.Scan(
		&form.ID, &form.Title, &form.Description, &form.Status,
		&settingsJSON, &brandingJSON, &fieldsJSON, &form.Version,
		&form.CreatedAt, &form.UpdatedAt,
	)
	if err != nil {
		return model.Form{}, err
	}

	if err := json.Unmarshal(settingsJSON, &form.Settings); err != nil {
		return model.Form{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := json.Unmarshal(brandingJSON, &form.Branding); err != nil {
		return model.Form{}, fmt.Errorf("unmarshal branding: %w", err)
	}
	if err := json.Unmarshal(fieldsJSON, &form.Fields); err != nil {
		return model.Form{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	return form, nil
}
