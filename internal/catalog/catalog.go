// Package catalog is the static registry of supported field types: display
// metadata for the builder palette, the value kind each type stores, and
// type-appropriate defaults for newly created fields.
package catalog

import (
	"sort"

	"github.com/formloom/formloom/model"
)

// ValueKind classifies the answer a field type stores.
type ValueKind string

// Answer value kinds.
const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindMulti  ValueKind = "multi"
	// KindNone marks display-only types that never carry an answer.
	KindNone ValueKind = "none"
)

// Palette groups for the builder sidebar.
const (
	GroupBasic  = "basic"
	GroupChoice = "choice"
	GroupMedia  = "media"
	GroupLayout = "layout"
)

// Entry is the catalog record for one field type.
type Entry struct {
	Type       model.FieldType `json:"type"`
	Label      string          `json:"label"`
	Icon       string          `json:"icon"`
	Group      string          `json:"group"`
	Kind       ValueKind       `json:"kind"`
	HasOptions bool            `json:"has_options"`
	// Validatable is false for layout and display-only types, which never
	// carry validation or options.
	Validatable bool `json:"validatable"`
}

var entries = map[model.FieldType]Entry{
	model.FieldText:      {Type: model.FieldText, Label: "Short Text", Icon: "type", Group: GroupBasic, Kind: KindString, Validatable: true},
	model.FieldEmail:     {Type: model.FieldEmail, Label: "Email", Icon: "mail", Group: GroupBasic, Kind: KindString, Validatable: true},
	model.FieldNumber:    {Type: model.FieldNumber, Label: "Number", Icon: "hash", Group: GroupBasic, Kind: KindNumber, Validatable: true},
	model.FieldTextarea:  {Type: model.FieldTextarea, Label: "Paragraph", Icon: "align-left", Group: GroupBasic, Kind: KindString, Validatable: true},
	model.FieldPhone:     {Type: model.FieldPhone, Label: "Phone", Icon: "phone", Group: GroupBasic, Kind: KindString, Validatable: true},
	model.FieldURL:       {Type: model.FieldURL, Label: "Website", Icon: "link", Group: GroupBasic, Kind: KindString, Validatable: true},
	model.FieldDate:      {Type: model.FieldDate, Label: "Date", Icon: "calendar", Group: GroupBasic, Kind: KindString, Validatable: true},
	model.FieldDropdown:  {Type: model.FieldDropdown, Label: "Dropdown", Icon: "chevron-down", Group: GroupChoice, Kind: KindString, HasOptions: true, Validatable: true},
	model.FieldCheckbox:  {Type: model.FieldCheckbox, Label: "Checkboxes", Icon: "check-square", Group: GroupChoice, Kind: KindMulti, HasOptions: true, Validatable: true},
	model.FieldRadio:     {Type: model.FieldRadio, Label: "Multiple Choice", Icon: "circle-dot", Group: GroupChoice, Kind: KindString, HasOptions: true, Validatable: true},
	model.FieldRating:    {Type: model.FieldRating, Label: "Rating", Icon: "star", Group: GroupChoice, Kind: KindNumber, Validatable: true},
	model.FieldSwitch:    {Type: model.FieldSwitch, Label: "Yes / No", Icon: "toggle-left", Group: GroupChoice, Kind: KindBool, Validatable: true},
	model.FieldFile:      {Type: model.FieldFile, Label: "File Upload", Icon: "upload", Group: GroupMedia, Kind: KindString, Validatable: true},
	model.FieldSignature: {Type: model.FieldSignature, Label: "Signature", Icon: "pen-tool", Group: GroupMedia, Kind: KindString, Validatable: true},
	model.FieldImage:     {Type: model.FieldImage, Label: "Image", Icon: "image", Group: GroupMedia, Kind: KindNone},
	model.FieldSection:   {Type: model.FieldSection, Label: "Section Header", Icon: "heading", Group: GroupLayout, Kind: KindNone},
	model.FieldPageBreak: {Type: model.FieldPageBreak, Label: "Page Break", Icon: "scissors", Group: GroupLayout, Kind: KindNone},
}

// Lookup returns the catalog entry for a field type.
func Lookup(t model.FieldType) (Entry, bool) {
	e, ok := entries[t]
	return e, ok
}

// Known reports whether the field type is in the catalog.
func Known(t model.FieldType) bool {
	_, ok := entries[t]
	return ok
}

// Kind returns the value kind of a field type, or KindNone for unknown types.
func Kind(t model.FieldType) ValueKind {
	e, ok := entries[t]
	if !ok {
		return KindNone
	}
	return e.Kind
}

// All returns every catalog entry, ordered by group then label, for the
// builder palette.
func All() []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// NewField returns a field of the given type with type-appropriate defaults,
// as created when the type is dropped onto the canvas. The caller assigns
// identity and position.
func NewField(t model.FieldType) (model.Field, bool) {
	e, ok := entries[t]
	if !ok {
		return model.Field{}, false
	}

	f := model.Field{
		Type:  t,
		Label: e.Label,
	}
	if e.HasOptions {
		f.Options = []model.FieldOption{
			{Label: "Option 1", Value: "option_1"},
			{Label: "Option 2", Value: "option_2"},
		}
	}
	switch t {
	case model.FieldText, model.FieldTextarea:
		f.Placeholder = "Type your answer"
	case model.FieldEmail:
		f.Placeholder = "name@example.com"
	case model.FieldURL:
		f.Placeholder = "https://"
	case model.FieldSection:
		f.Label = "Section"
	}
	return f, true
}
