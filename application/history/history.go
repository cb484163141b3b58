// Package history implements snapshot-based undo/redo over the object
// store. Entries are full deep copies of the object list; the cursor walks
// the entry list and restores the store wholesale. A nullable pending
// snapshot supports the save-before / commit-after protocol used by
// operations whose result is not known up front, such as kernel round
// trips.
package history

import (
	"time"

	"go.uber.org/zap"

	"cascade-engine/application/store"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
)

// Entry is one point-in-time snapshot of the scene
type Entry struct {
	ID        string
	Timestamp time.Time
	Label     string
	Objects   []*entities.SceneObject
	Selection []valueobjects.ObjectID
}

// Engine keeps the bounded history of scene snapshots
type Engine struct {
	store      *store.Store
	entries    []*Entry
	cursor     int // index of the entry representing the current state
	pending    *Entry
	maxEntries int
	logger     *zap.Logger
}

// NewEngine creates a history engine over the given store
func NewEngine(s *store.Store, maxEntries int, logger *zap.Logger) *Engine {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:      s,
		cursor:     -1,
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// SaveToHistory truncates any redo tail and pushes a snapshot of the
// current object list and selection. The oldest entry is dropped once the
// bound is reached. History never fails the enclosing user action.
func (e *Engine) SaveToHistory(label string) {
	entry := e.snapshot(label)

	// Drop the redo tail.
	if e.cursor < len(e.entries)-1 {
		e.entries = e.entries[:e.cursor+1]
	}
	e.entries = append(e.entries, entry)
	if len(e.entries) > e.maxEntries {
		e.entries = e.entries[len(e.entries)-e.maxEntries:]
	}
	e.cursor = len(e.entries) - 1
}

// SaveStateBeforeAction captures a pending "before" snapshot. Idempotent:
// a second call while a snapshot is pending is a no-op.
func (e *Engine) SaveStateBeforeAction() {
	if e.pending != nil {
		return
	}
	e.pending = e.snapshot("")
}

// CommitToHistory completes a two-phase operation. With a pending snapshot
// present, the pending state is treated as already represented by the
// previous entry and the current post-operation state is pushed; without
// one this is a plain SaveToHistory.
func (e *Engine) CommitToHistory(label string) {
	if e.pending == nil {
		e.SaveToHistory(label)
		return
	}
	e.pending = nil
	e.SaveToHistory(label)
}

// DiscardPending drops the pending snapshot without committing, used when
// a two-phase operation aborts before mutating the store.
func (e *Engine) DiscardPending() {
	e.pending = nil
}

// HasPending reports whether a before-snapshot is outstanding
func (e *Engine) HasPending() bool {
	return e.pending != nil
}

// CanUndo reports whether an earlier state exists
func (e *Engine) CanUndo() bool {
	return e.cursor > 0
}

// CanRedo reports whether a later state exists
func (e *Engine) CanRedo() bool {
	return e.cursor >= 0 && e.cursor < len(e.entries)-1
}

// Undo moves the cursor back one entry and restores it. No-op at the
// boundary.
func (e *Engine) Undo() bool {
	if !e.CanUndo() {
		return false
	}
	e.cursor--
	e.restore(e.entries[e.cursor])
	return true
}

// Redo moves the cursor forward one entry and restores it. No-op at the
// boundary.
func (e *Engine) Redo() bool {
	if !e.CanRedo() {
		return false
	}
	e.cursor++
	e.restore(e.entries[e.cursor])
	return true
}

// MergeHistory discards all entries after index, making it the new tip
func (e *Engine) MergeHistory(index int) {
	if index < 0 || index >= len(e.entries) {
		return
	}
	e.entries = e.entries[:index+1]
	if e.cursor > index {
		e.cursor = index
	}
}

// Len returns the number of history entries
func (e *Engine) Len() int {
	return len(e.entries)
}

// Cursor returns the index of the entry representing the current state
func (e *Engine) Cursor() int {
	return e.cursor
}

// Entries returns the entry list for inspection; callers must not mutate
// the snapshots.
func (e *Engine) Entries() []*Entry {
	return append([]*Entry(nil), e.entries...)
}

// Clear drops all history and the pending snapshot
func (e *Engine) Clear() {
	e.entries = nil
	e.cursor = -1
	e.pending = nil
}

func (e *Engine) snapshot(label string) *Entry {
	objects := e.store.Objects()
	clones := make([]*entities.SceneObject, len(objects))
	for i, obj := range objects {
		clones[i] = obj.Clone()
	}
	return &Entry{
		ID:        valueobjects.NewObjectID().String(),
		Timestamp: time.Now(),
		Label:     label,
		Objects:   clones,
		Selection: e.store.Selection(),
	}
}

// restore replaces the store wholesale with clones of the entry's
// snapshot, so later mutations cannot corrupt the stored history.
func (e *Engine) restore(entry *Entry) {
	clones := make([]*entities.SceneObject, len(entry.Objects))
	for i, obj := range entry.Objects {
		clones[i] = obj.Clone()
	}
	e.store.ReplaceObjects(clones, entry.Selection)
}
