// Package submission accepts a respondent's answers: it validates every
// visible field in one pass, persists accepted answer sets, and hands the
// record to the after-persist notifier.
package submission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formloom/formloom/internal/catalog"
	"github.com/formloom/formloom/internal/logic"
	"github.com/formloom/formloom/internal/notify"
	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/internal/store"
	"github.com/formloom/formloom/internal/validate"
	"github.com/formloom/formloom/model"
)

// Meta is the request metadata captured with a submission.
type Meta struct {
	IPAddress string
	UserAgent string
}

// Pipeline runs the submit flow for public forms.
type Pipeline struct {
	store    store.Store
	notifier notify.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewPipeline creates a Pipeline. Metrics may be nil.
func NewPipeline(st store.Store, notifier notify.Notifier, metrics *observability.Metrics, logger *zap.Logger) *Pipeline {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{store: st, notifier: notifier, metrics: metrics, logger: logger}
}

// Submit validates the answers against every visible field of the form. If
// any field fails, the full set of per-field errors is returned and nothing
// is persisted. On success the submission is persisted and the notifier is
// invoked; notifier failures never reach the respondent.
func (p *Pipeline) Submit(ctx context.Context, form *model.Form, answers map[string]any, meta Meta) (model.Submission, []model.FieldError, error) {
	var visible map[string]bool
	if form.Settings.LogicEnabled {
		visible = logic.VisibleSet(form, answers)
	} else {
		visible = logic.AllVisible(form)
	}

	if errs := validate.Form(form, answers, visible); len(errs) > 0 {
		if p.metrics != nil {
			for _, fe := range errs {
				p.metrics.RecordValidationFailure(fieldTypeOf(form, fe.FieldID), fe.Code)
			}
		}
		if ce := p.logger.Check(zap.DebugLevel, "submission rejected"); ce != nil {
			ce.Write(
				zap.String("form_id", form.ID),
				zap.Int("field_errors", len(errs)),
				zap.Any("answers", observability.RedactAnswers(answers, nil)),
			)
		}
		return model.Submission{}, errs, nil
	}

	sub := model.Submission{
		ID:        uuid.NewString(),
		FormID:    form.ID,
		Data:      collectAnswers(form, answers, visible),
		Status:    model.SubmissionPending,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now().UTC(),
	}

	if err := p.store.CreateSubmission(ctx, sub); err != nil {
		p.logger.Error("submission persist failed",
			zap.String("form_id", form.ID), zap.Error(err))
		return model.Submission{}, nil, model.NewStoreUnavailableError()
	}

	// Downstream fan-out happens after persistence and outside the request's
	// cancellation scope.
	go p.notifier.SubmissionAccepted(context.WithoutCancel(ctx), *form, sub)

	return sub, nil, nil
}

func fieldTypeOf(form *model.Form, fieldID string) string {
	if f, ok := form.FieldByID(fieldID); ok {
		return string(f.Type)
	}
	return ""
}

// collectAnswers keeps only answers addressed to visible, answer-carrying
// fields of the form; stray keys are dropped.
func collectAnswers(form *model.Form, answers map[string]any, visible map[string]bool) map[string]any {
	data := make(map[string]any)
	for _, f := range form.Fields {
		if catalog.Kind(f.Type) == catalog.KindNone {
			continue
		}
		if !visible[f.ID] {
			continue
		}
		if v, ok := answers[f.ID]; ok && v != nil {
			data[f.ID] = v
		}
	}
	return data
}
