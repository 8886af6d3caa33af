package logic

import (
	"testing"

	"github.com/formloom/formloom/model"
)

func countryForm() *model.Form {
	return &model.Form{
		Fields: []model.Field{
			{ID: "country", Type: model.FieldDropdown, Label: "Country", Position: 0},
			{ID: "state", Type: model.FieldText, Label: "State", Position: 1,
				Logic: []model.LogicRule{
					{TriggerFieldID: "country", Operator: model.OpEquals, Value: "USA", Action: model.ActionShow},
				}},
		},
	}
}

func TestShowRuleFires(t *testing.T) {
	form := countryForm()
	state, _ := form.FieldByID("state")

	if Visible(form, state, map[string]any{"country": "USA"}) != true {
		t.Error("state should be visible when country is USA")
	}
	if Visible(form, state, map[string]any{"country": "Canada"}) != false {
		t.Error("state should be hidden when country is Canada")
	}
	if Visible(form, state, nil) != false {
		t.Error("state should be hidden before country is answered")
	}
}

func TestHideRuleFires(t *testing.T) {
	form := &model.Form{
		Fields: []model.Field{
			{ID: "member", Type: model.FieldSwitch, Position: 0},
			{ID: "signup", Type: model.FieldText, Position: 1,
				Logic: []model.LogicRule{
					{TriggerFieldID: "member", Operator: model.OpEquals, Value: "true", Action: model.ActionHide},
				}},
		},
	}
	signup, _ := form.FieldByID("signup")

	if Visible(form, signup, map[string]any{"member": true}) {
		t.Error("signup should be hidden for members")
	}
	if !Visible(form, signup, map[string]any{"member": false}) {
		t.Error("signup should be visible for non-members")
	}
	if !Visible(form, signup, nil) {
		t.Error("hide rule that has not fired leaves the field visible")
	}
}

func TestRuleCombinationIsAnd(t *testing.T) {
	form := &model.Form{
		Fields: []model.Field{
			{ID: "a", Type: model.FieldText, Position: 0},
			{ID: "b", Type: model.FieldText, Position: 1},
			{ID: "target", Type: model.FieldText, Position: 2,
				Logic: []model.LogicRule{
					{TriggerFieldID: "a", Operator: model.OpEquals, Value: "x", Action: model.ActionShow},
					{TriggerFieldID: "b", Operator: model.OpEquals, Value: "y", Action: model.ActionShow},
				}},
		},
	}
	target, _ := form.FieldByID("target")

	if Visible(form, target, map[string]any{"a": "x"}) {
		t.Error("one of two show rules satisfied: want hidden")
	}
	if !Visible(form, target, map[string]any{"a": "x", "b": "y"}) {
		t.Error("both show rules satisfied: want visible")
	}
}

func TestHideRuleWinsOverShow(t *testing.T) {
	form := &model.Form{
		Fields: []model.Field{
			{ID: "a", Type: model.FieldText, Position: 0},
			{ID: "target", Type: model.FieldText, Position: 1,
				Logic: []model.LogicRule{
					{TriggerFieldID: "a", Operator: model.OpContains, Value: "x", Action: model.ActionShow},
					{TriggerFieldID: "a", Operator: model.OpEquals, Value: "xx", Action: model.ActionHide},
				}},
		},
	}
	target, _ := form.FieldByID("target")

	if Visible(form, target, map[string]any{"a": "xx"}) {
		t.Error("firing hide rule must win over a satisfied show rule")
	}
}

func TestMissingTriggerFieldSkipsRule(t *testing.T) {
	form := &model.Form{
		Fields: []model.Field{
			{ID: "target", Type: model.FieldText, Position: 0,
				Logic: []model.LogicRule{
					{TriggerFieldID: "deleted", Operator: model.OpEquals, Value: "x", Action: model.ActionShow},
				}},
		},
	}
	target, _ := form.FieldByID("target")

	if !Visible(form, target, nil) {
		t.Error("rule with a deleted trigger should be skipped, leaving the field visible")
	}
}

func TestOperators(t *testing.T) {
	cases := []struct {
		name    string
		rule    model.LogicRule
		value   any
		fires   bool
	}{
		{"equals string", model.LogicRule{Operator: model.OpEquals, Value: "a"}, "a", true},
		{"equals case-sensitive", model.LogicRule{Operator: model.OpEquals, Value: "a"}, "A", false},
		{"equals number", model.LogicRule{Operator: model.OpEquals, Value: "5"}, 5.0, true},
		{"equals bool", model.LogicRule{Operator: model.OpEquals, Value: "true"}, true, true},
		{"not_equals", model.LogicRule{Operator: model.OpNotEquals, Value: "a"}, "b", true},
		{"not_equals unanswered", model.LogicRule{Operator: model.OpNotEquals, Value: "a"}, nil, false},
		{"contains substring", model.LogicRule{Operator: model.OpContains, Value: "ell"}, "hello", true},
		{"contains membership", model.LogicRule{Operator: model.OpContains, Value: "red"}, []any{"red", "blue"}, true},
		{"contains non-member", model.LogicRule{Operator: model.OpContains, Value: "green"}, []string{"red"}, false},
		{"greater_than", model.LogicRule{Operator: model.OpGreaterThan, Value: "10"}, 11.0, true},
		{"greater_than equal", model.LogicRule{Operator: model.OpGreaterThan, Value: "10"}, 10.0, false},
		{"less_than", model.LogicRule{Operator: model.OpLessThan, Value: "10"}, 9.0, true},
		{"numeric on text", model.LogicRule{Operator: model.OpGreaterThan, Value: "10"}, "abc", false},
		{"numeric string coerces", model.LogicRule{Operator: model.OpGreaterThan, Value: "10"}, "11", true},
		{"unknown operator", model.LogicRule{Operator: "between", Value: "1"}, 5.0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ruleFires(tc.rule, tc.value); got != tc.fires {
				t.Errorf("ruleFires(%+v, %v) = %v, want %v", tc.rule, tc.value, got, tc.fires)
			}
		})
	}
}

func TestVisibleSet(t *testing.T) {
	form := countryForm()

	set := VisibleSet(form, map[string]any{"country": "USA"})
	if !set["country"] || !set["state"] {
		t.Errorf("set = %v, want both visible", set)
	}

	set = VisibleSet(form, nil)
	if !set["country"] || set["state"] {
		t.Errorf("set = %v, want only country visible", set)
	}
}

func TestAllVisible(t *testing.T) {
	form := countryForm()
	set := AllVisible(form)
	for id, v := range set {
		if !v {
			t.Errorf("field %s hidden in AllVisible", id)
		}
	}
	if len(set) != 2 {
		t.Errorf("len = %d, want 2", len(set))
	}
}
