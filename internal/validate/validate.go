// Package validate is the field validation evaluator: a pure decision over
// a field's declared constraints and a candidate answer. The submission
// pipeline evaluates every visible field in one pass and aggregates all
// errors, so a respondent sees every problem at once.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/formloom/formloom/internal/catalog"
	"github.com/formloom/formloom/model"
)

// Error codes attached to FieldErrors.
const (
	CodeRequired  = "required"
	CodeTooShort  = "too_short"
	CodeTooLong   = "too_long"
	CodeTooSmall  = "too_small"
	CodeTooLarge  = "too_large"
	CodeBadFormat = "bad_format"
	CodeBadType   = "bad_type"
)

// emailPattern accepts the standard local@domain.tld shape.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// check runs one constraint against a non-empty value.
type check func(f model.Field, value any) *model.FieldError

// checks maps each validatable field type to its constraint handlers, run in
// order. Adding a field type means adding one entry here and one in the
// renderer's handler table.
var checks = map[model.FieldType][]check{
	model.FieldText:      {checkString, checkLength, checkPattern},
	model.FieldTextarea:  {checkString, checkLength, checkPattern},
	model.FieldEmail:     {checkString, checkEmail, checkLength},
	model.FieldPhone:     {checkString, checkLength, checkPattern},
	model.FieldURL:       {checkString, checkLength, checkPattern},
	model.FieldDate:      {checkString},
	model.FieldDropdown:  {checkString},
	model.FieldRadio:     {checkString},
	model.FieldCheckbox:  {checkMulti},
	model.FieldNumber:    {checkNumber, checkRange},
	model.FieldRating:    {checkNumber, checkRange},
	model.FieldSwitch:    {checkBool},
	model.FieldFile:      {checkString},
	model.FieldSignature: {checkString},
}

// Field validates one answer against one field's constraints. A nil result
// means the value is accepted. Layout and display-only types, and unknown
// types, always pass.
func Field(f model.Field, value any) *model.FieldError {
	entry, ok := catalog.Lookup(f.Type)
	if !ok || !entry.Validatable {
		return nil
	}

	if isEmpty(value) {
		if f.Required {
			return fieldErr(f, CodeRequired, fmt.Sprintf("%s is required", f.Label))
		}
		return nil // Absent optional answers impose no further checks.
	}

	for _, c := range checks[f.Type] {
		if ferr := c(f, value); ferr != nil {
			return ferr
		}
	}
	return nil
}

// Form validates every field in visible order and returns all errors.
// Fields absent from the visible set are skipped entirely.
func Form(form *model.Form, answers map[string]any, visible map[string]bool) []model.FieldError {
	var errs []model.FieldError
	for _, f := range form.Fields {
		if visible != nil && !visible[f.ID] {
			continue
		}
		if ferr := Field(f, answers[f.ID]); ferr != nil {
			errs = append(errs, *ferr)
		}
	}
	return errs
}

// isEmpty reports whether the answer counts as absent: nil, an empty string,
// or an empty sequence for multi-valued types.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func checkString(f model.Field, value any) *model.FieldError {
	if _, ok := value.(string); !ok {
		return fieldErr(f, CodeBadType, fmt.Sprintf("%s expects a text answer", f.Label))
	}
	return nil
}

func checkBool(f model.Field, value any) *model.FieldError {
	if _, ok := value.(bool); !ok {
		return fieldErr(f, CodeBadType, fmt.Sprintf("%s expects a yes/no answer", f.Label))
	}
	return nil
}

func checkMulti(f model.Field, value any) *model.FieldError {
	switch v := value.(type) {
	case []string:
		return nil
	case []any:
		for _, item := range v {
			if _, ok := item.(string); !ok {
				return fieldErr(f, CodeBadType, fmt.Sprintf("%s expects a list of choices", f.Label))
			}
		}
		return nil
	default:
		return fieldErr(f, CodeBadType, fmt.Sprintf("%s expects a list of choices", f.Label))
	}
}

func checkNumber(f model.Field, value any) *model.FieldError {
	if _, ok := asNumber(value); !ok {
		return fieldErr(f, CodeBadType, fmt.Sprintf("%s expects a number", f.Label))
	}
	return nil
}

func checkLength(f model.Field, value any) *model.FieldError {
	if f.Validation == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return nil
	}
	n := len([]rune(s))
	if f.Validation.MinLength != nil && n < *f.Validation.MinLength {
		return fieldErr(f, CodeTooShort,
			fmt.Sprintf("%s must be at least %d characters", f.Label, *f.Validation.MinLength))
	}
	if f.Validation.MaxLength != nil && n > *f.Validation.MaxLength {
		return fieldErr(f, CodeTooLong,
			fmt.Sprintf("%s must be at most %d characters", f.Label, *f.Validation.MaxLength))
	}
	return nil
}

func checkRange(f model.Field, value any) *model.FieldError {
	if f.Validation == nil {
		return nil
	}
	n, ok := asNumber(value)
	if !ok {
		return nil
	}
	// Bounds are inclusive.
	if f.Validation.MinValue != nil && n < *f.Validation.MinValue {
		return fieldErr(f, CodeTooSmall,
			fmt.Sprintf("%s must be at least %v", f.Label, *f.Validation.MinValue))
	}
	if f.Validation.MaxValue != nil && n > *f.Validation.MaxValue {
		return fieldErr(f, CodeTooLarge,
			fmt.Sprintf("%s must be at most %v", f.Label, *f.Validation.MaxValue))
	}
	return nil
}

func checkEmail(f model.Field, value any) *model.FieldError {
	s, _ := value.(string)
	if !emailPattern.MatchString(s) {
		return fieldErr(f, CodeBadFormat, fmt.Sprintf("%s must be a valid email address", f.Label))
	}
	return nil
}

func checkPattern(f model.Field, value any) *model.FieldError {
	if f.Validation == nil || f.Validation.Pattern == "" {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return nil
	}
	re, err := regexp.Compile(f.Validation.Pattern)
	if err != nil {
		// A broken pattern never blocks a respondent.
		return nil
	}
	if !re.MatchString(s) {
		return fieldErr(f, CodeBadFormat, fmt.Sprintf("%s has an invalid format", f.Label))
	}
	return nil
}

// asNumber widens JSON number representations to float64.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// fieldErr builds a FieldError, honoring the field's custom error text.
func fieldErr(f model.Field, code, msg string) *model.FieldError {
	if f.Validation != nil && f.Validation.CustomError != "" && code != CodeRequired {
		msg = f.Validation.CustomError
	}
	return &model.FieldError{FieldID: f.ID, Code: code, Message: msg}
}
