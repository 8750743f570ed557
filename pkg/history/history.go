// Package history implements a linear undo/redo stack of scene snapshots.
package history

import (
	"bytes"
)

// History is an ordered sequence of snapshots with a cursor.
//
// The entry at the cursor is the current state. Undo and Redo move the
// cursor; pushing a new snapshot discards every entry after the cursor.
type History struct {
	entries [][]byte
	cursor  int
	limit   int
}

// New creates a history with the initial snapshot as its only entry.
//
// If limit is greater than zero, no more than limit entries are kept
// and the oldest entries are dropped first.
func New(initial []byte, limit int) *History {
	h := &History{limit: limit}
	h.Reset(initial)
	return h
}

// Reset discards all entries and starts over with the given snapshot.
func (h *History) Reset(initial []byte) {
	h.entries = [][]byte{clone(initial)}
	h.cursor = 0
}

// Push records a new snapshot after the current one.
// Any "future" entries beyond the cursor are discarded.
//
// Pushing a snapshot identical to the current one is a no-op.
func (h *History) Push(snapshot []byte) {
	if bytes.Equal(h.entries[h.cursor], snapshot) {
		return
	}

	h.entries = append(h.entries[:h.cursor+1], clone(snapshot))
	h.cursor = len(h.entries) - 1

	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([][]byte(nil), h.entries[drop:]...)
		h.cursor -= drop
	}
}

// Undo moves the cursor back by one and returns the snapshot there.
// At the first entry, this is a no-op and ok is false.
func (h *History) Undo() (snapshot []byte, ok bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return h.Current(), true
}

// Redo moves the cursor forward by one and returns the snapshot there.
// At the last entry, this is a no-op and ok is false.
func (h *History) Redo() (snapshot []byte, ok bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return h.Current(), true
}

// Current returns a copy of the snapshot at the cursor.
func (h *History) Current() []byte {
	return clone(h.entries[h.cursor])
}

// CanUndo tells if there is an entry before the cursor.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo tells if there is an entry after the cursor.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Cursor returns the index of the current entry.
func (h *History) Cursor() int {
	return h.cursor
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
