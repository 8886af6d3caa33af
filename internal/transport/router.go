package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formloom/formloom/internal/builder"
	"github.com/formloom/formloom/internal/config"
	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/internal/store"
	"github.com/formloom/formloom/internal/submission"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Store        store.Store
	Editor       *builder.Editor
	Pipeline     *submission.Pipeline
	Metrics      *observability.Metrics
	Authenticate func(http.Handler) http.Handler
	Health       http.HandlerFunc
	Ready        http.HandlerFunc
	MetricsPage  http.Handler
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, metrics, and the public rendering
// and submission routes bypass the authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery)
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(observability.TracingMiddleware)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.MetricsMiddleware)
	}

	// Operational endpoints.
	if deps.Health != nil {
		r.Get("/health", deps.Health)
	}
	if deps.Ready != nil {
		r.Get("/ready", deps.Ready)
	}
	if deps.MetricsPage != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsPage)
	}

	// Public respondent routes, no authentication.
	r.Group(func(r chi.Router) {
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(MaxBodyBytes(deps.Config.Submissions.MaxBodyBytes))
		r.Use(RequestLogging)

		r.Get("/f/{formId}", handleRenderForm(deps.Store, deps.Metrics))
		r.Post("/f/{formId}/submissions", handleCreateSubmission(deps.Store, deps.Pipeline, deps.Metrics))
	})

	// Builder API, authenticated.
	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging)

		r.Get("/field-types", handleListFieldTypes())

		r.Route("/forms", func(r chi.Router) {
			r.Post("/", handleCreateForm(deps.Editor, deps.Metrics))
			r.Get("/", handleListForms(deps.Store))

			r.Route("/{formId}", func(r chi.Router) {
				r.Get("/", handleGetForm(deps.Store))
				r.Patch("/", handleUpdateForm(deps.Editor, deps.Metrics))
				r.Delete("/", handleDeleteForm(deps.Editor))
				r.Post("/publish", handlePublishForm(deps.Editor, deps.Metrics))
				r.Post("/archive", handleArchiveForm(deps.Editor, deps.Metrics))
				r.Post("/undo", handleUndoForm(deps.Editor, deps.Metrics))
				r.Post("/redo", handleRedoForm(deps.Editor, deps.Metrics))
				r.Get("/preview", handlePreviewForm(deps.Store))
				r.Get("/submissions", handleListSubmissions(deps.Store))

				r.Route("/fields", func(r chi.Router) {
					r.Post("/", handleInsertField(deps.Editor, deps.Metrics))
					r.Patch("/{fieldId}", handleUpdateField(deps.Editor, deps.Metrics))
					r.Delete("/{fieldId}", handleRemoveField(deps.Editor, deps.Metrics))
					r.Post("/{fieldId}/move", handleMoveField(deps.Editor, deps.Metrics))
					r.Post("/{fieldId}/duplicate", handleDuplicateField(deps.Editor, deps.Metrics))
				})
			})
		})
	})

	return r
}
