// Package builder implements the authoring operations on a form definition:
// field insertion, in-place update, removal, reordering, duplication, and
// the form lifecycle. Every mutation is persisted through the store with
// optimistic versioning.
package builder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/formloom/formloom/internal/catalog"
	"github.com/formloom/formloom/internal/store"
	"github.com/formloom/formloom/model"
)

// Move directions.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

// Editor applies authoring operations to stored forms. Each form accumulates
// a linear undo/redo history of its post-mutation snapshots.
type Editor struct {
	store store.Store

	mu        sync.Mutex
	histories map[string]*History
}

// NewEditor creates an Editor backed by the given store.
func NewEditor(st store.Store) *Editor {
	return &Editor{
		store:     st,
		histories: make(map[string]*History),
	}
}

// CreateForm creates an empty draft form.
func (e *Editor) CreateForm(ctx context.Context, title, description string) (model.Form, error) {
	now := time.Now().UTC()
	form := model.Form{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      model.StatusDraft,
		Settings: model.FormSettings{
			SubmitText:   "Submit",
			LogicEnabled: true,
		},
		Fields:    []model.Field{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if form.Title == "" {
		form.Title = "Untitled form"
	}
	if err := e.store.CreateForm(ctx, form); err != nil {
		return model.Form{}, err
	}
	e.mu.Lock()
	e.histories[form.ID] = NewHistory(form)
	e.mu.Unlock()
	return form, nil
}

// FormPatch is a partial update of a form's metadata, settings, and branding.
type FormPatch struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Settings    *model.FormSettings `json:"settings,omitempty"`
	Branding    *model.Branding     `json:"branding,omitempty"`
}

// UpdateForm merges a patch into the form's metadata.
func (e *Editor) UpdateForm(ctx context.Context, formID string, patch FormPatch) (model.Form, error) {
	return e.mutate(ctx, formID, func(form *model.Form) error {
		if patch.Title != nil {
			form.Title = *patch.Title
		}
		if patch.Description != nil {
			form.Description = *patch.Description
		}
		if patch.Settings != nil {
			form.Settings = *patch.Settings
		}
		if patch.Branding != nil {
			form.Branding = *patch.Branding
		}
		return nil
	})
}

// Publish makes the form reachable by the public renderer.
func (e *Editor) Publish(ctx context.Context, formID string) (model.Form, error) {
	return e.mutate(ctx, formID, func(form *model.Form) error {
		form.Status = model.StatusPublished
		return nil
	})
}

// Archive retires the form. Archived forms are excluded from active-use
// counts but retained with their submissions.
func (e *Editor) Archive(ctx context.Context, formID string) (model.Form, error) {
	return e.mutate(ctx, formID, func(form *model.Form) error {
		form.Status = model.StatusArchived
		return nil
	})
}

// InsertField appends a new field of the given type with type-appropriate
// defaults. Position is the current field count; existing fields are never
// renumbered.
func (e *Editor) InsertField(ctx context.Context, formID string, fieldType model.FieldType) (model.Form, error) {
	return e.mutate(ctx, formID, func(form *model.Form) error {
		f, ok := catalog.NewField(fieldType)
		if !ok {
			return model.NewBadRequestError(fmt.Sprintf("unknown field type %q", fieldType))
		}
		f.ID = uuid.NewString()
		f.Position = len(form.Fields)
		form.Fields = append(form.Fields, f)
		return nil
	})
}

// FieldPatch is a partial update of one field, as issued by the properties
// panel. Nil members leave the field unchanged.
type FieldPatch struct {
	Label       *string              `json:"label,omitempty"`
	Placeholder *string              `json:"placeholder,omitempty"`
	HelpText    *string              `json:"help_text,omitempty"`
	Required    *bool                `json:"required,omitempty"`
	Options     *[]model.FieldOption `json:"options,omitempty"`
	Validation  *model.Validation    `json:"validation,omitempty"`
	Logic       *[]model.LogicRule   `json:"logic,omitempty"`
}

// UpdateField merges a patch into the matching field. Unknown field IDs
// return NOT_FOUND.
func (e *Editor) UpdateField(ctx context.Context, formID, fieldID string, patch FieldPatch) (model.Form, error) {
	return e.mutate(ctx, formID, func(form *model.Form) error {
		idx := fieldIndex(form, fieldID)
		if idx < 0 {
			return model.NewNotFoundError(fmt.Sprintf("field %q not found", fieldID))
		}
		f := &form.Fields[idx]
		entry, _ := catalog.Lookup(f.Type)

		if patch.Label != nil {
			f.Label = *patch.Label
		}
		if patch.Placeholder != nil {
			f.Placeholder = *patch.Placeholder
		}
		if patch.HelpText != nil {
			f.HelpText = *patch.HelpText
		}
		if patch.Required != nil {
			if !entry.Validatable && *patch.Required {
				return model.NewBadRequestError(
					fmt.Sprintf("field type %q cannot be required", f.Type))
			}
			f.Required = *patch.Required
		}
		if patch.Options != nil {
			if !entry.HasOptions {
				return model.NewBadRequestError(
					fmt.Sprintf("field type %q does not carry options", f.Type))
			}
			if err := checkOptions(*patch.Options); err != nil {
				return err
			}
			f.Options = *patch.Options
		}
		if patch.Validation != nil {
			if !entry.Validatable {
				return model.NewBadRequestError(
					fmt.Sprintf("field type %q does not carry validation", f.Type))
			}
			f.Validation = patch.Validation
		}
		if patch.Logic != nil {
			if err := checkLogic(form, f.ID, *patch.Logic); err != nil {
				return err
			}
			f.Logic = *patch.Logic
		}
		return nil
	})
}

// RemoveField deletes the field. Positions of the remaining fields are not
// compacted; gaps are tolerated. Logic rules on other fields that trigger
// off the removed field are not cascaded; evaluation skips them.
func (e *Editor) RemoveField(ctx context.Context, formID, fieldID string) (model.Form, error) {
	return e.mutate(ctx, formID, func(form *model.Form) error {
		idx := fieldIndex(form, fieldID)
		if idx < 0 {
			return model.NewNotFoundError(fmt.Sprintf("field %q not found", fieldID))
		}
		form.Fields = append(form.Fields[:idx], form.Fields[idx+1:]...)
		return nil
	})
}

// MoveField swaps the field with its immediate neighbor in position order.
// Moving the first field up or the last field down is a no-op.
func (e *Editor) MoveField(ctx context.Context, formID, fieldID, direction string) (model.Form, error) {
	if direction != MoveUp && direction != MoveDown {
		return model.Form{}, model.NewBadRequestError(
			fmt.Sprintf("invalid move direction %q", direction))
	}
	return e.mutate(ctx, formID, func(form *model.Form) error {
		if fieldIndex(form, fieldID) < 0 {
			return model.NewNotFoundError(fmt.Sprintf("field %q not found", fieldID))
		}

		// Work over position order, not slice order.
		order := make([]*model.Field, len(form.Fields))
		for i := range form.Fields {
			order[i] = &form.Fields[i]
		}
		sort.SliceStable(order, func(i, j int) bool {
			return order[i].Position < order[j].Position
		})

		at := -1
		for i, f := range order {
			if f.ID == fieldID {
				at = i
				break
			}
		}

		neighbor := at - 1
		if direction == MoveDown {
			neighbor = at + 1
		}
		if neighbor < 0 || neighbor >= len(order) {
			return nil // Boundary: no-op.
		}

		order[at].Position, order[neighbor].Position = order[neighbor].Position, order[at].Position
		return nil
	})
}

// DuplicateField clones a field's configuration under a new identity, with
// the label suffixed, appended at the end of the form.
func (e *Editor) DuplicateField(ctx context.Context, formID, fieldID string) (model.Form, error) {
	return e.mutate(ctx, formID, func(form *model.Form) error {
		idx := fieldIndex(form, fieldID)
		if idx < 0 {
			return model.NewNotFoundError(fmt.Sprintf("field %q not found", fieldID))
		}

		dup := form.Fields[idx]
		dup.ID = uuid.NewString()
		dup.Label += " (copy)"
		dup.Position = len(form.Fields)
		dup.Options = append([]model.FieldOption(nil), dup.Options...)
		dup.Logic = append([]model.LogicRule(nil), dup.Logic...)
		if dup.Validation != nil {
			v := *dup.Validation
			dup.Validation = &v
		}
		form.Fields = append(form.Fields, dup)
		return nil
	})
}

// DeleteForm removes the form, its submissions, and its edit history.
func (e *Editor) DeleteForm(ctx context.Context, formID string) error {
	if err := e.store.DeleteForm(ctx, formID); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.histories, formID)
	e.mu.Unlock()
	return nil
}

// Undo restores the previous snapshot of the form and persists it. Returns
// BAD_REQUEST when no earlier snapshot exists.
func (e *Editor) Undo(ctx context.Context, formID string) (model.Form, error) {
	return e.step(ctx, formID, (*History).Undo, (*History).Redo, "nothing to undo")
}

// Redo reapplies the snapshot undone by the last Undo. Returns BAD_REQUEST
// when no later snapshot exists.
func (e *Editor) Redo(ctx context.Context, formID string) (model.Form, error) {
	return e.step(ctx, formID, (*History).Redo, (*History).Undo, "nothing to redo")
}

// step moves the history pointer with fwd and persists the reached snapshot
// under the form's current store version. A failed save moves the pointer
// back with rev so history and store stay aligned.
func (e *Editor) step(ctx context.Context, formID string, fwd, rev func(*History) (model.Form, bool), emptyMsg string) (model.Form, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.histories[formID]
	if !ok {
		return model.Form{}, model.NewBadRequestError(emptyMsg)
	}
	snapshot, ok := fwd(h)
	if !ok {
		return model.Form{}, model.NewBadRequestError(emptyMsg)
	}

	current, err := e.store.GetForm(ctx, formID)
	if err != nil {
		rev(h)
		return model.Form{}, err
	}
	snapshot.Version = current.Version
	if err := e.store.UpdateForm(ctx, snapshot); err != nil {
		rev(h)
		return model.Form{}, err
	}
	snapshot.Version++
	snapshot.UpdatedAt = time.Now().UTC()
	return snapshot, nil
}

// mutate loads the form, applies fn, saves it, and records the result as a
// new history snapshot. The returned form carries the post-save version.
func (e *Editor) mutate(ctx context.Context, formID string, fn func(*model.Form) error) (model.Form, error) {
	form, err := e.store.GetForm(ctx, formID)
	if err != nil {
		return model.Form{}, err
	}
	before := snapshotOf(form)
	if err := fn(&form); err != nil {
		return model.Form{}, err
	}
	if err := e.store.UpdateForm(ctx, form); err != nil {
		return model.Form{}, err
	}
	form.Version++
	form.UpdatedAt = time.Now().UTC()

	e.mu.Lock()
	h, ok := e.histories[formID]
	if !ok {
		// Form predates this process; seed history with its prior state.
		h = NewHistory(before)
		e.histories[formID] = h
	}
	h.Record(snapshotOf(form))
	e.mu.Unlock()

	return form, nil
}

// snapshotOf deep-copies a form so a history snapshot cannot be changed by
// later in-place field edits.
func snapshotOf(form model.Form) model.Form {
	fields := make([]model.Field, len(form.Fields))
	copy(fields, form.Fields)
	for i := range fields {
		fields[i].Options = append([]model.FieldOption(nil), fields[i].Options...)
		fields[i].Logic = append([]model.LogicRule(nil), fields[i].Logic...)
		if fields[i].Validation != nil {
			v := *fields[i].Validation
			fields[i].Validation = &v
		}
	}
	form.Fields = fields
	return form
}

func fieldIndex(form *model.Form, fieldID string) int {
	for i, f := range form.Fields {
		if f.ID == fieldID {
			return i
		}
	}
	return -1
}

// checkOptions enforces unique option values within one field.
func checkOptions(opts []model.FieldOption) error {
	seen := make(map[string]bool, len(opts))
	for _, o := range opts {
		if seen[o.Value] {
			return model.NewBadRequestError(
				fmt.Sprintf("duplicate option value %q", o.Value))
		}
		seen[o.Value] = true
	}
	return nil
}

// triggerTypes are the comparison-compatible field types a logic rule may
// trigger off.
var triggerTypes = map[model.FieldType]bool{
	model.FieldText:     true,
	model.FieldNumber:   true,
	model.FieldDropdown: true,
	model.FieldRadio:    true,
	model.FieldCheckbox: true,
}

var validOperators = map[string]bool{
	model.OpEquals:      true,
	model.OpNotEquals:   true,
	model.OpContains:    true,
	model.OpGreaterThan: true,
	model.OpLessThan:    true,
}

// checkLogic enforces that every rule references a different, trigger-capable
// field with a known operator and action.
func checkLogic(form *model.Form, targetID string, rules []model.LogicRule) error {
	for _, r := range rules {
		if r.TriggerFieldID == targetID {
			return model.NewBadRequestError("a field cannot trigger off itself")
		}
		trigger, ok := form.FieldByID(r.TriggerFieldID)
		if !ok {
			return model.NewBadRequestError(
				fmt.Sprintf("trigger field %q not found", r.TriggerFieldID))
		}
		if !triggerTypes[trigger.Type] {
			return model.NewBadRequestError(
				fmt.Sprintf("field type %q cannot be a logic trigger", trigger.Type))
		}
		if !validOperators[r.Operator] {
			return model.NewBadRequestError(
				fmt.Sprintf("unknown operator %q", r.Operator))
		}
		if r.Action != model.ActionShow && r.Action != model.ActionHide {
			return model.NewBadRequestError(
				fmt.Sprintf("unknown action %q", r.Action))
		}
	}
	return nil
}
