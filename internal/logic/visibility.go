// Package logic evaluates conditional show/hide rules against a
// respondent's in-progress answers.
//
// Combination policy when a field carries several rules: AND. The field is
// visible only if every "show" rule fires (when any exist) and no "hide"
// rule fires.
package logic

import (
	"strconv"
	"strings"

	"github.com/formloom/formloom/model"
)

// Visible reports whether the target field should be shown given the current
// answers. Fields without rules are always visible. Rules whose trigger
// field no longer exists in the form are skipped.
func Visible(form *model.Form, field model.Field, answers map[string]any) bool {
	showSatisfied := true
	for _, rule := range field.Logic {
		if _, ok := form.FieldByID(rule.TriggerFieldID); !ok {
			continue
		}
		fires := ruleFires(rule, answers[rule.TriggerFieldID])
		switch rule.Action {
		case model.ActionHide:
			if fires {
				return false
			}
		case model.ActionShow:
			if !fires {
				showSatisfied = false
			}
		}
	}
	return showSatisfied
}

// VisibleSet computes visibility for every field of the form in one pass.
func VisibleSet(form *model.Form, answers map[string]any) map[string]bool {
	out := make(map[string]bool, len(form.Fields))
	for _, f := range form.Fields {
		out[f.ID] = Visible(form, f, answers)
	}
	return out
}

// AllVisible returns a visibility set with every field shown, used when
// conditional logic is disabled for a form.
func AllVisible(form *model.Form) map[string]bool {
	out := make(map[string]bool, len(form.Fields))
	for _, f := range form.Fields {
		out[f.ID] = true
	}
	return out
}

// ruleFires evaluates one rule's operator against the trigger field's
// current value. Numeric operators with non-numeric operands are vacuously
// false.
func ruleFires(rule model.LogicRule, triggerValue any) bool {
	switch rule.Operator {
	case model.OpEquals:
		return equal(triggerValue, rule.Value)
	case model.OpNotEquals:
		return triggerValue != nil && !equal(triggerValue, rule.Value)
	case model.OpContains:
		return contains(triggerValue, rule.Value)
	case model.OpGreaterThan:
		a, aok := asNumber(triggerValue)
		b, bok := parseNumber(rule.Value)
		return aok && bok && a > b
	case model.OpLessThan:
		a, aok := asNumber(triggerValue)
		b, bok := parseNumber(rule.Value)
		return aok && bok && a < b
	default:
		return false
	}
}

// equal compares the trigger value with the rule's comparison value using
// exact string or numeric equality.
func equal(value any, want string) bool {
	switch v := value.(type) {
	case string:
		return v == want
	case bool:
		return strconv.FormatBool(v) == want
	case float64:
		if n, ok := parseNumber(want); ok {
			return v == n
		}
		return false
	case int:
		if n, ok := parseNumber(want); ok {
			return float64(v) == n
		}
		return false
	default:
		return false
	}
}

// contains uses substring matching for text triggers and membership for
// multi-valued triggers.
func contains(value any, want string) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(v, want)
	case []string:
		for _, item := range v {
			if item == want {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		return parseNumber(v)
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
