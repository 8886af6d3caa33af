package builder

import "github.com/formloom/formloom/model"

// maxSnapshots bounds the history; the oldest snapshot is dropped first.
const maxSnapshots = 100

// History is a linear undo/redo log over form snapshots: an index into an
// append-only snapshot list. Any new edit truncates the forward (redo)
// history.
type History struct {
	snapshots []model.Form
	index     int
}

// NewHistory starts a history at the given initial state.
func NewHistory(initial model.Form) *History {
	return &History{snapshots: []model.Form{initial}}
}

// Record appends a new snapshot after the current position, discarding any
// redo history.
func (h *History) Record(form model.Form) {
	h.snapshots = append(h.snapshots[:h.index+1], form)
	if len(h.snapshots) > maxSnapshots {
		h.snapshots = h.snapshots[1:]
	}
	h.index = len(h.snapshots) - 1
}

// CanUndo reports whether an earlier snapshot exists.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether a later snapshot exists.
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

// Undo steps back one snapshot. The second result is false at the start of
// history.
func (h *History) Undo() (model.Form, bool) {
	if !h.CanUndo() {
		return model.Form{}, false
	}
	h.index--
	return h.snapshots[h.index], true
}

// Redo steps forward one snapshot. The second result is false at the end of
// history.
func (h *History) Redo() (model.Form, bool) {
	if !h.CanRedo() {
		return model.Form{}, false
	}
	h.index++
	return h.snapshots[h.index], true
}

// Current returns the snapshot at the current position.
func (h *History) Current() model.Form {
	return h.snapshots[h.index]
}
