package transport

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/formloom/formloom/internal/logic"
	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/internal/render"
	"github.com/formloom/formloom/internal/store"
	"github.com/formloom/formloom/internal/submission"
	"github.com/formloom/formloom/model"
)

// handleRenderForm serves the public live rendering of a published form.
// The initial render carries no answers, so conditional fields whose show
// rules have not fired yet are absent from the view.
func handleRenderForm(st store.Store, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := loadOpenForm(r, st)
		if err != nil {
			WriteError(w, err)
			return
		}

		start := time.Now()
		visible := visibleFields(form, nil)
		view := render.Form(form, model.ModeLive, nil, visible)
		if metrics != nil {
			metrics.RecordRender(string(model.ModeLive), time.Since(start))
		}
		WriteJSON(w, http.StatusOK, view)
	}
}

func handleCreateSubmission(st store.Store, pipeline *submission.Pipeline, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := loadOpenForm(r, st)
		if err != nil {
			WriteError(w, err)
			if metrics != nil {
				metrics.RecordSubmissionRejected(chi.URLParam(r, "formId"), rejectReason(err))
			}
			return
		}

		var req struct {
			Answers map[string]any `json:"answers"`
		}
		if err := decodeJSON(r, &req); err != nil {
			WriteError(w, err)
			return
		}

		meta := submission.Meta{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		}
		sub, fieldErrs, err := pipeline.Submit(r.Context(), form, req.Answers, meta)
		if err != nil {
			WriteError(w, err)
			if metrics != nil {
				metrics.RecordSubmissionRejected(form.ID, rejectReason(err))
			}
			return
		}
		if len(fieldErrs) > 0 {
			WriteValidationError(w, fieldErrs)
			if metrics != nil {
				metrics.RecordSubmissionRejected(form.ID, "validation")
			}
			return
		}

		if metrics != nil {
			metrics.RecordSubmissionAccepted(form.ID, len(sub.Data))
		}
		WriteJSON(w, http.StatusCreated, map[string]any{
			"id":              sub.ID,
			"status":          sub.Status,
			"success_message": form.Settings.SuccessMessage,
			"redirect_url":    form.Settings.RedirectURL,
		})
	}
}

// loadOpenForm loads the form for a public route. Draft and archived forms
// are reported as FORM_NOT_OPEN rather than leaking their existence details.
func loadOpenForm(r *http.Request, st store.Store) (*model.Form, error) {
	form, err := st.GetForm(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		return nil, err
	}
	if form.Status != model.StatusPublished {
		return nil, model.NewFormNotOpenError("This form is not accepting responses")
	}
	return &form, nil
}

// visibleFields computes the visible field set honoring the form's logic
// toggle.
func visibleFields(form *model.Form, answers map[string]any) map[string]bool {
	if form.Settings.LogicEnabled {
		return logic.VisibleSet(form, answers)
	}
	return logic.AllVisible(form)
}

func rejectReason(err error) string {
	if ee, ok := err.(*model.ErrorEnvelope); ok {
		return strings.ToLower(ee.Code)
	}
	return "error"
}

// clientIP extracts the respondent's IP, honoring X-Forwarded-For when set
// by a trusted proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
