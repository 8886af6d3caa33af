package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloom/formloom/model"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func fullForm(id string) model.Form {
	minLen := 2
	maxVal := 100.0
	width := 3
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return model.Form{
		ID:          id,
		Title:       "Feedback",
		Description: "Tell us how we did",
		Status:      model.StatusPublished,
		Settings: model.FormSettings{
			RedirectURL:    "https://example.com/thanks",
			SubmitText:     "Send",
			SuccessMessage: "Got it",
			LogicEnabled:   true,
		},
		Branding: model.Branding{
			PrimaryColor: "#ff0000",
			FontSize:     model.FontLG,
			BorderRadius: "large",
			BorderWidth:  &width,
			InputStyle:   model.InputFilled,
			LogoURL:      "https://example.com/logo.png",
		},
		Fields: []model.Field{
			{
				ID: "name", Type: model.FieldText, Label: "Name",
				Required: true, Position: 0,
				Validation: &model.Validation{MinLength: &minLen},
			},
			{
				ID: "score", Type: model.FieldNumber, Label: "Score",
				Position: 1,
				Validation: &model.Validation{MaxValue: &maxVal},
			},
			{
				ID: "color", Type: model.FieldDropdown, Label: "Color",
				Position: 2,
				Options: []model.FieldOption{
					{Label: "Red", Value: "red"},
					{Label: "Blue", Value: "blue"},
				},
				Logic: []model.LogicRule{
					{TriggerFieldID: "name", Operator: model.OpEquals, Value: "Ada", Action: model.ActionShow},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteFormRoundTrip(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	want := fullForm("form-1")
	require.NoError(t, st.CreateForm(ctx, want))

	got, err := st.GetForm(ctx, "form-1")
	require.NoError(t, err)

	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Settings, got.Settings)
	assert.Equal(t, want.Branding, got.Branding)

	require.Len(t, got.Fields, 3)
	for i := range want.Fields {
		assert.Equal(t, want.Fields[i].ID, got.Fields[i].ID, "field order must survive")
	}
	assert.Equal(t, want.Fields[0].Validation, got.Fields[0].Validation)
	assert.Equal(t, want.Fields[1].Validation, got.Fields[1].Validation)
	assert.Equal(t, want.Fields[2].Options, got.Fields[2].Options)
	assert.Equal(t, want.Fields[2].Logic, got.Fields[2].Logic)
}

func TestSQLiteGetFormUnknown(t *testing.T) {
	st := openTestSQLite(t)

	_, err := st.GetForm(context.Background(), "ghost")
	var ee *model.ErrorEnvelope
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, model.ErrNotFound, ee.Code)
}

func TestSQLiteUpdateFormOptimisticLock(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	form := fullForm("form-1")
	require.NoError(t, st.CreateForm(ctx, form))

	form.Title = "Renamed"
	require.NoError(t, st.UpdateForm(ctx, form))

	got, err := st.GetForm(ctx, "form-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 1, got.Version)

	// Stale writer still holds version 0.
	form.Title = "Stale write"
	err = st.UpdateForm(ctx, form)
	var ee *model.ErrorEnvelope
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, model.ErrConflict, ee.Code)
}

func TestSQLiteListFormsFilterAndPage(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		form := fullForm(id)
		form.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if id == "b" {
			form.Status = model.StatusDraft
		}
		require.NoError(t, st.CreateForm(ctx, form))
	}

	all, err := st.ListForms(ctx, FormFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	published, err := st.ListForms(ctx, FormFilters{Status: model.StatusPublished})
	require.NoError(t, err)
	assert.Len(t, published, 2)

	page, err := st.ListForms(ctx, FormFilters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)
}

func TestSQLiteListFormsOffsetWithoutLimit(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		form := fullForm(id)
		form.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.CreateForm(ctx, form))
	}

	rest, err := st.ListForms(ctx, FormFilters{Offset: 1})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "b", rest[0].ID)
	assert.Equal(t, "a", rest[1].ID)
}

func TestSQLiteSubmissions(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, st.CreateForm(ctx, fullForm("form-1")))

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"x", "y", "z"} {
		sub := model.Submission{
			ID:        id,
			FormID:    "form-1",
			Data:      map[string]any{"name": "Ada", "score": 42.0},
			Status:    model.SubmissionPending,
			IPAddress: "203.0.113.9",
			UserAgent: "go-test",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, st.CreateSubmission(ctx, sub))
	}

	subs, err := st.ListSubmissions(ctx, "form-1", SubmissionFilters{})
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "z", subs[0].ID, "newest first")
	assert.Equal(t, "Ada", subs[0].Data["name"])
	assert.Equal(t, 42.0, subs[0].Data["score"])
	assert.Equal(t, "203.0.113.9", subs[0].IPAddress)

	tail, err := st.ListSubmissions(ctx, "form-1", SubmissionFilters{Offset: 2})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "x", tail[0].ID)

	count, err := st.CountSubmissions(ctx, "form-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteDeleteFormCascades(t *testing.T) {
	st := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, st.CreateForm(ctx, fullForm("form-1")))
	require.NoError(t, st.CreateSubmission(ctx, model.Submission{
		ID: "s1", FormID: "form-1", Data: map[string]any{},
		Status: model.SubmissionPending, CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, st.DeleteForm(ctx, "form-1"))

	count, err := st.CountSubmissions(ctx, "form-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	var ee *model.ErrorEnvelope
	err = st.DeleteForm(ctx, "form-1")
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, model.ErrNotFound, ee.Code)
}
