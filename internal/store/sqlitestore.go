package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/formloom/formloom/model"
)

//go:embed migrations
var sqliteMigrations embed.FS

// SQLiteStore is a SQLite-backed Store for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path, applies
// pending migrations, and returns the store. Close the returned store's DB
// via Close when shutting down.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer; avoid SQLITE_BUSY.
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func migrateSQLite(db *sql.DB) error {
	src, err := iofs.New(sqliteMigrations, "migrations")
	if err != nil {
		return err
	}
	dst, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// CreateForm inserts a new form.
func (s *SQLiteStore) CreateForm(ctx context.Context, form model.Form) error {
	settingsJSON, brandingJSON, fieldsJSON, err := marshalForm(form)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forms (
			id, title, description, status,
			settings, branding, fields, version,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
func (s *SQLiteStore) GetForm(ctx context.Context, formID string) (model.Form, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status,
		       settings, branding, fields, version,
		       created_at, updated_at
		FROM forms
		WHERE id = ?`,
		formID,
	)
	form, err := scanFormSQL(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Form{}, model.NewNotFoundError(fmt.Sprintf("form %q not found", formID))
	}
	if err != nil {
		return model.Form{}, fmt.Errorf("query form: %w", err)
	}
	return form, nil
}

// UpdateForm persists an updated form with optimistic locking.
func (s *SQLiteStore) UpdateForm(ctx context.Context, form model.Form) error {
	settingsJSON, brandingJSON, fieldsJSON, err := marshalForm(form)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE forms SET
			title = ?, description = ?, status = ?,
			settings = ?, branding = ?, fields = ?,
			version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		form.Title, form.Description, form.Status,
		settingsJSON, brandingJSON, fieldsJSON,
		form.Version+1, time.Now().UTC(),
		form.ID, form.Version,
	)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	if n == 0 {
		return model.NewConflictError(
			fmt.Sprintf("form %q version conflict (expected %d)", form.ID, form.Version),
		)
	}
	return nil
}

// DeleteForm removes a form; submissions cascade via the foreign key.
func (s *SQLiteStore) DeleteForm(ctx context.Context, formID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, formID)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if n == 0 {
		return model.NewNotFoundError(fmt.Sprintf("form %q not found", formID))
	}
	return nil
}

// ListForms returns forms matching the filters, newest first.
func (s *SQLiteStore) ListForms(ctx context.Context, filters FormFilters) ([]model.Form, error) {
	query := `
		SELECT id, title, description, status,
		       settings, branding, fields, version,
		       created_at, updated_at
		FROM forms`
	args := []any{}
	if filters.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filters.Status)
	}
	query += ` ORDER BY created_at DESC` + limitOffsetSQL(filters.Limit, filters.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query forms: %w", err)
	}
	defer rows.Close()

	var out []model.Form
	for rows.Next() {
		form, err := scanFormSQL(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		out = append(out, form)
	}
	return out, rows.Err()
}

// CreateSubmission inserts a new submission.
func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub model.Submission) error {
	dataJSON, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("marshal submission data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (
			id, form_id, data, status, ip_address, user_agent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.FormID, dataJSON, sub.Status,
		sub.IPAddress, sub.UserAgent, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListSubmissions returns a form's submissions, newest first.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, formID string, filters SubmissionFilters) ([]model.Submission, error) {
	query := `
		SELECT id, form_id, data, status, ip_address, user_agent, created_at
		FROM submissions
		WHERE form_id = ?
		ORDER BY created_at DESC` + limitOffsetSQL(filters.Limit, filters.Offset)

	rows, err := s.db.QueryContext(ctx, query, formID)
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
func (s *SQLiteStore) CountSubmissions(ctx context.Context, formID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE form_id = ?`, formID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// Ping checks connectivity to the database.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// limitOffsetSQL renders pagination clauses. SQLite only accepts OFFSET
// after LIMIT, so an offset without a limit gets LIMIT -1 (unbounded).
func limitOffsetSQL(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, offset)
	case limit > 0:
		return fmt.Sprintf(` LIMIT %d`, limit)
	case offset > 0:
		return fmt.Sprintf(` LIMIT -1 OFFSET %d`, offset)
	default:
		return ""
	}
}

// sqlRow is satisfied by both *sql.Row and *sql.Rows.
type sqlRow interface {
	Scan(dest ...any) error
}

func scanFormSQL(row sqlRow) (model.Form, error) {
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
