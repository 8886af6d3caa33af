package model

// RenderMode selects how a form is rendered.
type RenderMode string

// Render modes.
const (
	// ModeEditable renders interactive controls inside the builder canvas.
	ModeEditable RenderMode = "editable"
	// ModePreview renders the same visuals non-interactive, for the builder
	// canvas preview.
	ModePreview RenderMode = "preview"
	// ModeLive renders fully interactive controls bound to a respondent's
	// in-progress answers, for the public page.
	ModeLive RenderMode = "live"
)

// Control names the presentation branch a field renders as. The frontend
// maps each control to one component.
const (
	ControlInput         = "input"
	ControlTextarea      = "textarea"
	ControlSelect        = "select"
	ControlCheckboxGroup = "checkbox_group"
	ControlRadioGroup    = "radio_group"
	ControlToggle        = "toggle"
	ControlDatePicker    = "date_picker"
	ControlFileDrop      = "file_drop"
	ControlRating        = "rating"
	ControlSignaturePad  = "signature_pad"
	ControlHeading       = "heading"
	ControlImage         = "image"
	// ControlPageBreak appears only in builder-mode views, where the break
	// marker itself stays selectable and movable.
	ControlPageBreak = "page_break"
)

// FormView is a fully resolved, render-ready form: branding collapsed into
// one ResolvedStyle, fields grouped into pages, all per-mode decisions
// already taken. Derived, never persisted.
type FormView struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Mode           RenderMode    `json:"mode"`
	Style          ResolvedStyle `json:"style"`
	Pages          []PageView    `json:"pages"`
	SubmitText     string        `json:"submit_text"`
	SuccessMessage string        `json:"success_message,omitempty"`
	RedirectURL    string        `json:"redirect_url,omitempty"`
}

// PageView is one navigable step of a rendered form.
type PageView struct {
	Index  int         `json:"index"`
	Fields []FieldView `json:"fields"`
}

// FieldView is the rendered form of one field. InputType carries the HTML
// input subtype for ControlInput fields (text, email, tel, url, number).
type FieldView struct {
	ID          string        `json:"id"`
	Type        FieldType     `json:"type"`
	Control     string        `json:"control"`
	Label       string        `json:"label"`
	Placeholder string        `json:"placeholder,omitempty"`
	HelpText    string        `json:"help_text,omitempty"`
	Required    bool          `json:"required,omitempty"`
	Disabled    bool          `json:"disabled,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
	Value       any           `json:"value,omitempty"`
	Scale       int           `json:"scale,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	InputType   string        `json:"input_type,omitempty"`
}

// ResolvedStyle is the branding of a form with every value made concrete.
// It is computed once per render pass and threaded into the renderer, so no
// fallback literals are scattered through render branches.
type ResolvedStyle struct {
	PrimaryColor    string `json:"primary_color"`
	BackgroundColor string `json:"background_color"`
	SuccessColor    string `json:"success_color"`
	FontFamily      string `json:"font_family"`
	FontSizePx      int    `json:"font_size_px"`
	BorderRadiusPx  int    `json:"border_radius_px"`
	BorderWidthPx   int    `json:"border_width_px"`
	InputStyle      string `json:"input_style"`
	LogoURL         string `json:"logo_url,omitempty"`
}
