// Package render resolves a form definition into a render-ready view:
// branding collapsed into one resolved style, fields dispatched to per-type
// presentation branches, and the ordered field list grouped into pages.
package render

import (
	"github.com/formloom/formloom/model"
)

// handler fills in the type-specific parts of a FieldView.
type handler func(f model.Field, v *model.FieldView)

// handlers maps each field type to its presentation branch. An unrecognized
// type has no entry and renders nothing.
var handlers = map[model.FieldType]handler{
	model.FieldText:      inputHandler("text"),
	model.FieldEmail:     inputHandler("email"),
	model.FieldPhone:     inputHandler("tel"),
	model.FieldURL:       inputHandler("url"),
	model.FieldNumber:    inputHandler("number"),
	model.FieldTextarea:  controlHandler(model.ControlTextarea),
	model.FieldDropdown:  optionsHandler(model.ControlSelect),
	model.FieldCheckbox:  optionsHandler(model.ControlCheckboxGroup),
	model.FieldRadio:     optionsHandler(model.ControlRadioGroup),
	model.FieldSwitch:    controlHandler(model.ControlToggle),
	model.FieldDate:      controlHandler(model.ControlDatePicker),
	model.FieldFile:      controlHandler(model.ControlFileDrop),
	model.FieldRating:    ratingHandler,
	model.FieldSignature: controlHandler(model.ControlSignaturePad),
	model.FieldSection:   controlHandler(model.ControlHeading),
	model.FieldImage:     imageHandler,
	model.FieldPageBreak: controlHandler(model.ControlPageBreak),
}

func inputHandler(inputType string) handler {
	return func(_ model.Field, v *model.FieldView) {
		v.Control = model.ControlInput
		v.InputType = inputType
	}
}

func controlHandler(control string) handler {
	return func(_ model.Field, v *model.FieldView) {
		v.Control = control
	}
}

func optionsHandler(control string) handler {
	return func(f model.Field, v *model.FieldView) {
		v.Control = control
		v.Options = f.Options
	}
}

// ratingHandler renders a 5-point control, widened to 10 points when the
// field's max value asks for it.
func ratingHandler(f model.Field, v *model.FieldView) {
	v.Control = model.ControlRating
	v.Scale = 5
	if f.Validation != nil && f.Validation.MaxValue != nil && *f.Validation.MaxValue >= 10 {
		v.Scale = 10
	}
}

// imageHandler shows a static image; the placeholder carries the asset URL
// for display-only types.
func imageHandler(f model.Field, v *model.FieldView) {
	v.Control = model.ControlImage
	v.ImageURL = f.Placeholder
}

// Form resolves a complete form view for the given mode.
//
// In live mode the page structure drops page_break markers, answers are
// bound to their fields, and fields absent from the visible set are
// omitted. In editable and preview modes the break markers stay in place
// for editing and visibility rules are not applied. Preview additionally
// disables every control.
func Form(form *model.Form, mode model.RenderMode, answers map[string]any, visible map[string]bool) model.FormView {
	style := ResolveStyle(form.Branding)

	view := model.FormView{
		ID:             form.ID,
		Title:          form.Title,
		Description:    form.Description,
		Mode:           mode,
		Style:          style,
		SubmitText:     form.Settings.SubmitText,
		SuccessMessage: form.Settings.SuccessMessage,
		RedirectURL:    form.Settings.RedirectURL,
	}
	if view.SubmitText == "" {
		view.SubmitText = "Submit"
	}

	live := mode == model.ModeLive
	pages := SplitPages(form.Fields, !live)

	for i, page := range pages {
		pv := model.PageView{Index: i, Fields: []model.FieldView{}}
		for _, f := range page {
			if live && visible != nil && !visible[f.ID] {
				continue
			}
			fv, ok := renderField(f, mode, answers)
			if !ok {
				continue // Unrecognized type: render nothing.
			}
			pv.Fields = append(pv.Fields, fv)
		}
		view.Pages = append(view.Pages, pv)
	}
	return view
}

// renderField builds the view of a single field. The second result is false
// for unrecognized field types, which are silently skipped.
func renderField(f model.Field, mode model.RenderMode, answers map[string]any) (model.FieldView, bool) {
	h, ok := handlers[f.Type]
	if !ok {
		return model.FieldView{}, false
	}

	v := model.FieldView{
		ID:          f.ID,
		Type:        f.Type,
		Label:       f.Label,
		Placeholder: f.Placeholder,
		HelpText:    f.HelpText,
		Required:    f.Required,
		Disabled:    mode == model.ModePreview,
	}
	h(f, &v)

	if mode == model.ModeLive && answers != nil {
		v.Value = answers[f.ID]
	}
	return v, true
}
