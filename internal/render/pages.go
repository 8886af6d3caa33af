package render

import (
	"sort"

	"github.com/formloom/formloom/model"
)

// SplitPages partitions a form's field list into an ordered sequence of
// pages, treating each page_break field as the terminator of the page it
// ends. With keepBreaks the break marker is retained at the end of the page
// it terminates, so the builder can still select, move, and delete it; the
// live renderer drops it. A form with no breaks yields one page; a trailing
// break yields a final empty page.
func SplitPages(fields []model.Field, keepBreaks bool) [][]model.Field {
	ordered := make([]model.Field, len(fields))
	copy(ordered, fields)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	pages := [][]model.Field{{}}
	for _, f := range ordered {
		last := len(pages) - 1
		if f.Type == model.FieldPageBreak {
			if keepBreaks {
				pages[last] = append(pages[last], f)
			}
			pages = append(pages, []model.Field{})
			continue
		}
		pages[last] = append(pages[last], f)
	}
	return pages
}

// PageOfField returns the index of the page containing the field, or -1.
func PageOfField(pages [][]model.Field, fieldID string) int {
	for i, page := range pages {
		for _, f := range page {
			if f.ID == fieldID {
				return i
			}
		}
	}
	return -1
}

// Navigator tracks the current page of a multi-step form and keeps the
// index in range as the page count changes.
type Navigator struct {
	current int
	count   int
}

// NewNavigator creates a Navigator over the given number of pages, starting
// on the first page. A non-positive count is treated as one page.
func NewNavigator(pageCount int) *Navigator {
	if pageCount < 1 {
		pageCount = 1
	}
	return &Navigator{count: pageCount}
}

// Current returns the current page index.
func (n *Navigator) Current() int { return n.current }

// IsFirst reports whether the current page is the first; no back control is
// shown there.
func (n *Navigator) IsFirst() bool { return n.current == 0 }

// IsLast reports whether the current page is the last; the forward control
// there is the terminal submit action.
func (n *Navigator) IsLast() bool { return n.current == n.count-1 }

// Next advances one page. On the last page it is a no-op for index
// advancement and returns false.
func (n *Navigator) Next() bool {
	if n.IsLast() {
		return false
	}
	n.current++
	return true
}

// Previous retreats one page, or returns false on the first page.
func (n *Navigator) Previous() bool {
	if n.IsFirst() {
		return false
	}
	n.current--
	return true
}

// Resize updates the page count and clamps the current index into range,
// e.g. after deleting the page break that created the last page.
func (n *Navigator) Resize(pageCount int) {
	if pageCount < 1 {
		pageCount = 1
	}
	n.count = pageCount
	if n.current > n.count-1 {
		n.current = n.count - 1
	}
}

// JumpToField switches the current page to the one containing the given
// field, keeping builder selection and canvas view consistent. Unknown
// fields leave the index unchanged.
func (n *Navigator) JumpToField(pages [][]model.Field, fieldID string) {
	if idx := PageOfField(pages, fieldID); idx >= 0 && idx < n.count {
		n.current = idx
	}
}
