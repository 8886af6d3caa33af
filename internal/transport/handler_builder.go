package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/formloom/formloom/internal/builder"
	"github.com/formloom/formloom/internal/logic"
	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/internal/render"
	"github.com/formloom/formloom/internal/store"
	"github.com/formloom/formloom/model"
)

func handleCreateForm(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := decodeJSON(r, &req); err != nil {
			WriteError(w, err)
			return
		}

		form, err := editor.CreateForm(r.Context(), req.Title, req.Description)
		if err != nil {
			WriteError(w, err)
			return
		}
		if metrics != nil {
			metrics.FormCreationsTotal.Inc()
		}
		WriteJSON(w, http.StatusCreated, form)
	}
}

func handleListForms(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := store.FormFilters{
			Status: model.FormStatus(r.URL.Query().Get("status")),
			Limit:  queryInt(r, "limit", 50),
			Offset: queryInt(r, "offset", 0),
		}

		forms, err := st.ListForms(r.Context(), filters)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"forms": forms})
	}
}

func handleGetForm(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := st.GetForm(r.Context(), chi.URLParam(r, "formId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

func handleUpdateForm(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch builder.FormPatch
		if err := decodeJSON(r, &patch); err != nil {
			WriteError(w, err)
			return
		}

		form, err := editor.UpdateForm(r.Context(), chi.URLParam(r, "formId"), patch)
		if err != nil {
			writeEditError(w, metrics, err)
			return
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

func handleDeleteForm(editor *builder.Editor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := editor.DeleteForm(r.Context(), chi.URLParam(r, "formId")); err != nil {
			WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handlePublishForm(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := editor.Publish(r.Context(), chi.URLParam(r, "formId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		if metrics != nil {
			metrics.FormPublishesTotal.Inc()
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

func handleArchiveForm(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := editor.Archive(r.Context(), chi.URLParam(r, "formId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		if metrics != nil {
			metrics.FormArchivesTotal.Inc()
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

func handleUndoForm(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := editor.Undo(r.Context(), chi.URLParam(r, "formId"))
		if err != nil {
			writeEditError(w, metrics, err)
			return
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

func handleRedoForm(editor *builder.Editor, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := editor.Redo(r.Context(), chi.URLParam(r, "formId"))
		if err != nil {
			writeEditError(w, metrics, err)
			return
		}
		WriteJSON(w, http.StatusOK, form)
	}
}

// handlePreviewForm renders the form for the builder canvas. The mode query
// parameter selects editable (default) or preview rendering; all fields are
// shown regardless of logic rules.
func handlePreviewForm(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := st.GetForm(r.Context(), chi.URLParam(r, "formId"))
		if err != nil {
			WriteError(w, err)
			return
		}

		mode := model.ModeEditable
		if r.URL.Query().Get("mode") == string(model.ModePreview) {
			mode = model.ModePreview
		}

		view := render.Form(&form, mode, nil, logic.AllVisible(&form))
		WriteJSON(w, http.StatusOK, view)
	}
}

// --- helpers ---

// writeEditError writes an editor error response, counting optimistic
// locking conflicts.
func writeEditError(w http.ResponseWriter, metrics *observability.Metrics, err error) {
	if ee, ok := err.(*model.ErrorEnvelope); ok && ee.Code == model.ErrConflict && metrics != nil {
		metrics.FormVersionConflicts.Inc()
	}
	WriteError(w, err)
}

// decodeJSON decodes a JSON request body, mapping malformed input to a
// BAD_REQUEST error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewBadRequestError("Malformed JSON request body")
	}
	return nil
}

// queryInt extracts an integer query param with a default.
func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
