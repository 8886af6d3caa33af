package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formloom/formloom/internal/store"
)

// handleListSubmissions returns a form's submissions, newest first, with
// the total count for pagination.
func handleListSubmissions(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "formId")

		// Confirm the form exists so an unknown ID is a 404, not an empty list.
		if _, err := st.GetForm(r.Context(), formID); err != nil {
			WriteError(w, err)
			return
		}

		filters := store.SubmissionFilters{
			Limit:  queryInt(r, "limit", 50),
			Offset: queryInt(r, "offset", 0),
		}
		subs, err := st.ListSubmissions(r.Context(), formID, filters)
		if err != nil {
			WriteError(w, err)
			return
		}
		total, err := st.CountSubmissions(r.Context(), formID)
		if err != nil {
			WriteError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, map[string]any{
			"submissions": subs,
			"total":       total,
		})
	}
}
