package transport

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/formloom/formloom/model"
)

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) *model.ErrorEnvelope {
	t.Helper()
	var body struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error == nil {
		t.Fatal("response has no error field")
	}
	return body.Error
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{model.NewBadRequestError("bad"), 400, model.ErrBadRequest},
		{model.NewUnauthorizedError("no"), 401, model.ErrUnauthorized},
		{model.NewForbiddenError("no"), 403, model.ErrForbidden},
		{model.NewNotFoundError("gone"), 404, model.ErrNotFound},
		{model.NewConflictError("stale"), 409, model.ErrConflict},
		{model.NewFormNotOpenError("closed"), 409, model.ErrFormNotOpen},
		{model.NewInternalError(), 500, model.ErrInternalError},
		{model.NewStoreUnavailableError(), 503, model.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := decodeErrorBody(t, w).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestWriteErrorNonEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("plumbing leaked"))
	if w.Code != 500 {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	ee := decodeErrorBody(t, w)
	if ee.Code != model.ErrInternalError {
		t.Errorf("code = %q, want %q", ee.Code, model.ErrInternalError)
	}
}

func TestWriteErrorUnknownCode(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, &model.ErrorEnvelope{Code: "SOMETHING_NEW", Message: "?"})
	if w.Code != 500 {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestWriteValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteValidationError(w, []model.FieldError{
		{FieldID: "email", Code: "bad_format", Message: "Enter a valid email address"},
	})
	if w.Code != 422 {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	ee := decodeErrorBody(t, w)
	if ee.Code != model.ErrValidationError {
		t.Errorf("code = %q", ee.Code)
	}
	if len(ee.Details) != 1 || ee.Details[0].FieldID != "email" {
		t.Errorf("details = %+v", ee.Details)
	}
}

func TestWriteJSONHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, 200, map[string]string{"ok": "yes"})
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}
