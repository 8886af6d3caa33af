// Package model holds the domain types shared across the builder, renderer,
// and submission pipeline: form definitions on the authoring side and
// rendered views on the delivery side.
package model

import "time"

// FormStatus is the lifecycle state of a form. A form has exactly one status
// at a time; only published forms are reachable by the public renderer.
type FormStatus string

// Form lifecycle states.
const (
	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
	StatusArchived  FormStatus = "archived"
)

// Form is a named, ordered collection of fields plus global settings and
// branding. Version is an optimistic-lock counter bumped on every store write.
type Form struct {
	ID          string       `yaml:"id"          json:"id"`
	Title       string       `yaml:"title"       json:"title"`
	Description string       `yaml:"description" json:"description,omitempty"`
	Status      FormStatus   `yaml:"status"      json:"status"`
	Settings    FormSettings `yaml:"settings"    json:"settings"`
	Branding    Branding     `yaml:"branding"    json:"branding"`
	Fields      []Field      `yaml:"fields"      json:"fields"`
	Version     int          `yaml:"version"     json:"version"`
	CreatedAt   time.Time    `yaml:"created_at"  json:"created_at"`
	UpdatedAt   time.Time    `yaml:"updated_at"  json:"updated_at"`
}

// FormSettings are the behavioral settings of a form.
type FormSettings struct {
	RedirectURL    string `yaml:"redirect_url"    json:"redirect_url,omitempty"`
	SubmitText     string `yaml:"submit_text"     json:"submit_text,omitempty"`
	SuccessMessage string `yaml:"success_message" json:"success_message,omitempty"`

	// LogicEnabled gates conditional visibility in live rendering and
	// submission. Deployments selling logic as a paid feature flip this
	// per form.
	LogicEnabled bool `yaml:"logic_enabled" json:"logic_enabled"`
}

// Font size tiers.
const (
	FontXS   = "xs"
	FontSM   = "sm"
	FontBase = "base"
	FontLG   = "lg"
)

// Input visual styles.
const (
	InputDefault = "default"
	InputFilled  = "filled"
	InputFlushed = "flushed"
)

// Branding is the visual theme of a form. Every field is optional; the
// renderer resolves omitted values to documented defaults once per pass.
type Branding struct {
	PrimaryColor    string `yaml:"primary_color"    json:"primary_color,omitempty"`
	BackgroundColor string `yaml:"background_color" json:"background_color,omitempty"`
	SuccessColor    string `yaml:"success_color"    json:"success_color,omitempty"`
	FontFamily      string `yaml:"font_family"      json:"font_family,omitempty"`
	FontSize        string `yaml:"font_size"        json:"font_size,omitempty"`
	BorderRadius    string `yaml:"border_radius"    json:"border_radius,omitempty"`
	BorderWidth     *int   `yaml:"border_width"     json:"border_width,omitempty"`
	InputStyle      string `yaml:"input_style"      json:"input_style,omitempty"`
	LogoURL         string `yaml:"logo_url"         json:"logo_url,omitempty"`
}

// FieldByID returns the field with the given ID.
func (f *Form) FieldByID(fieldID string) (Field, bool) {
	for _, fld := range f.Fields {
		if fld.ID == fieldID {
			return fld, true
		}
	}
	return Field{}, false
}
