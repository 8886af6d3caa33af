package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formloom/formloom/internal/builder"
	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/model"
)

func handleInsertField(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type model.FieldType `json:"type"`
		}
		if err := decodeJSON(r, &req); err != nil {
			WriteError(w, err)
			return
		}

		form, err := editor.InsertField(r.Context(), chi.URLParam(r, "formId"), req.Type)
		if err != nil {
			writeEditError(w, metrics, err)
			return
		}
		if metrics != nil {
			metrics.RecordFieldEdit("insert", string(req.Type))
		}
		WriteJSON(w, http.StatusCreated, form)
	}
}

func handleUpdateField(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch builder.FieldPatch
		if err := decodeJSON(r, &patch); err != nil {
			WriteError(w, err)
			return
		}

		formID := chi.URLParam(r, "formId")
		fieldID := chi.URLParam(r, "fieldId")
		form, err := editor.UpdateField(r.Context(), formID, fieldID, patch)
		if err != nil {
			writeEditError(w, metrics, err)
			return
		}
		if metrics != nil {
			metrics.RecordFieldEdit("update", fieldTypeOf(&form, fieldID))
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

func handleRemoveField(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formId")
		fieldID := chi.URLParam(r, "fieldId")
		form, err := editor.RemoveField(r.Context(), formID, fieldID)
		if err != nil {
			writeEditError(w, metrics, err)
			return
		}
		if metrics != nil {
			metrics.RecordFieldEdit("remove", "")
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

func handleMoveField(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Direction string `json:"direction"`
		}
		if err := decodeJSON(r, &req); err != nil {
			WriteError(w, err)
			return
		}

		formID := chi.URLParam(r, "formId")
		fieldID := chi.URLParam(r, "fieldId")
		form, err := editor.MoveField(r.Context(), formID, fieldID, req.Direction)
		if err != nil {
			writeEditError(w, metrics, err)
			return
		}
		if metrics != nil {
			metrics.RecordFieldEdit("move", fieldTypeOf(&form, fieldID))
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

func handleDuplicateField(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formId")
		fieldID := chi.URLParam(r, "fieldId")
		form, err := editor.DuplicateField(r.Context(), formID, fieldID)
		if err != nil {
			writeEditError(w, metrics, err)
			return
		}
		if metrics != nil {
			metrics.RecordFieldEdit("duplicate", fieldTypeOf(&form, fieldID))
		}
		WriteJSON(w, http.StatusCreated, form)
	}
}

func fieldTypeOf(form *model.Form, fieldID string) string {
	if f, ok := form.FieldByID(fieldID); ok {
		return string(f.Type)
	}
	return ""
}
