package history

import (
	"go.uber.org/zap"

	"cascade-engine/application/store"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
)

// ExportRecords converts the history to its persisted form, returning the
// records and the cursor index.
func (e *Engine) ExportRecords() ([]store.HistoryRecord, int) {
	records := make([]store.HistoryRecord, len(e.entries))
	for i, entry := range e.entries {
		objects := make([]store.ObjectRecord, len(entry.Objects))
		for j, obj := range entry.Objects {
			objects[j] = store.RecordFromObject(obj)
		}
		selection := make([]string, len(entry.Selection))
		for j, id := range entry.Selection {
			selection[j] = id.String()
		}
		records[i] = store.HistoryRecord{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			Label:     entry.Label,
			Objects:   objects,
			Selection: selection,
		}
	}
	return records, e.cursor
}

// LoadRecords restores history from persisted form. Corruption is repaired
// best-effort: an object that cannot be rebuilt is dropped from its
// snapshot with a log line, and the cursor is clamped to the restored
// length. Loading never fails the enclosing project load.
func (e *Engine) LoadRecords(records []store.HistoryRecord, cursor int) {
	if len(records) > e.maxEntries {
		records = records[len(records)-e.maxEntries:]
	}
	entries := make([]*Entry, 0, len(records))
	for _, rec := range records {
		objects := make([]*entities.SceneObject, 0, len(rec.Objects))
		for _, objRec := range rec.Objects {
			obj, err := store.ObjectFromRecord(objRec)
			if err != nil {
				e.logger.Warn("dropping corrupt object from history snapshot",
					zap.String("entry", rec.ID),
					zap.String("object", objRec.ID),
					zap.Error(err))
				continue
			}
			objects = append(objects, obj)
		}
		selection := make([]valueobjects.ObjectID, 0, len(rec.Selection))
		for _, raw := range rec.Selection {
			id, err := valueobjects.ParseObjectID(raw)
			if err != nil {
				continue
			}
			selection = append(selection, id)
		}
		entries = append(entries, &Entry{
			ID:        rec.ID,
			Timestamp: rec.Timestamp,
			Label:     rec.Label,
			Objects:   objects,
			Selection: selection,
		})
	}
	e.entries = entries
	e.pending = nil
	if cursor < 0 {
		cursor = len(entries) - 1
	}
	if cursor >= len(entries) {
		cursor = len(entries) - 1
	}
	e.cursor = cursor
}
