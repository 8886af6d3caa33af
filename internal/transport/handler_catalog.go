package transport

import (
	"net/http"

	"github.com/formloom/formloom/internal/catalog"
)

// handleListFieldTypes returns the field type palette shown in the builder
// sidebar, grouped and ordered for display.
func handleListFieldTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"field_types": catalog.All(),
		})
	}
}
