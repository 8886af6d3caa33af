package model

// FieldType is the wire-stable tag identifying one kind of form field.
// Other components dispatch on it; adding a type means adding a catalog
// entry, a render handler, and a validate handler.
type FieldType string

// All supported field types.
const (
	FieldText      FieldType = "text"
	FieldEmail     FieldType = "email"
	FieldNumber    FieldType = "number"
	FieldTextarea  FieldType = "textarea"
	FieldDropdown  FieldType = "dropdown"
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldDate      FieldType = "date"
	FieldFile      FieldType = "file"
	FieldRating    FieldType = "rating"
	FieldSwitch    FieldType = "switch"
	FieldPhone     FieldType = "phone"
	FieldURL       FieldType = "url"
	FieldSection   FieldType = "section"
	FieldPageBreak FieldType = "page_break"
	FieldImage     FieldType = "image"
	FieldSignature FieldType = "signature"
)

// Field is one input or display unit within a Form. Position defines a
// total order among a form's fields; gaps are tolerated after removal.
type Field struct {
	ID          string        `yaml:"id"          json:"id"`
	Type        FieldType     `yaml:"type"        json:"type"`
	Label       string        `yaml:"label"       json:"label"`
	Placeholder string        `yaml:"placeholder" json:"placeholder,omitempty"`
	HelpText    string        `yaml:"help_text"   json:"help_text,omitempty"`
	Required    bool          `yaml:"required"    json:"required,omitempty"`
	Position    int           `yaml:"position"    json:"position"`
	Options     []FieldOption `yaml:"options"     json:"options,omitempty"`
	Validation  *Validation   `yaml:"validation"  json:"validation,omitempty"`
	Logic       []LogicRule   `yaml:"logic"       json:"logic,omitempty"`
}

// FieldOption is a label/value pair owned by a choice-like field. The value
// is stored as the answer; the label is display text. Values are unique
// within one field.
type FieldOption struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// Validation holds the optional constraints of a field. Absent bounds impose
// no check.
type Validation struct {
	MinLength   *int     `yaml:"min_length"   json:"min_length,omitempty"`
	MaxLength   *int     `yaml:"max_length"   json:"max_length,omitempty"`
	MinValue    *float64 `yaml:"min_value"    json:"min_value,omitempty"`
	MaxValue    *float64 `yaml:"max_value"    json:"max_value,omitempty"`
	Pattern     string   `yaml:"pattern"      json:"pattern,omitempty"`
	CustomError string   `yaml:"custom_error" json:"custom_error,omitempty"`
}

// Logic rule operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
)

// Logic rule actions.
const (
	ActionShow = "show"
	ActionHide = "hide"
)

// LogicRule is a show/hide instruction attached to a field (the target),
// keyed on another field's value (the trigger). The trigger must be a
// different, comparison-compatible field.
type LogicRule struct {
	TriggerFieldID string `yaml:"field_id" json:"field_id"`
	Operator       string `yaml:"operator" json:"operator"`
	Value          string `yaml:"value"    json:"value"`
	Action         string `yaml:"action"   json:"action"`
}
