package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cascade-engine/application/engine"
	"cascade-engine/pkg/api"
)

// HistoryHandler serves undo/redo and the history listing
type HistoryHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewHistoryHandler creates a history handler
func NewHistoryHandler(eng *engine.Engine, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{engine: eng, logger: logger}
}

// HistoryEntrySummary is one row in the history listing; snapshots are
// not included.
type HistoryEntrySummary struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
}

// HistoryState is the response for GET /history
type HistoryState struct {
	Entries []HistoryEntrySummary `json:"entries"`
	Cursor  int                   `json:"cursor"`
	CanUndo bool                  `json:"canUndo"`
	CanRedo bool                  `json:"canRedo"`
}

// Get handles GET /history
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	hist := h.engine.History()
	entries := hist.Entries()
	summaries := make([]HistoryEntrySummary, len(entries))
	for i, e := range entries {
		summaries[i] = HistoryEntrySummary{ID: e.ID, Timestamp: e.Timestamp, Label: e.Label}
	}
	api.Success(w, http.StatusOK, HistoryState{
		Entries: summaries,
		Cursor:  hist.Cursor(),
		CanUndo: hist.CanUndo(),
		CanRedo: hist.CanRedo(),
	})
}

// UndoRedoResponse reports the outcome of an undo or redo
type UndoRedoResponse struct {
	Applied bool `json:"applied"`
	Cursor  int  `json:"cursor"`
}

// Undo handles POST /history/undo
func (h *HistoryHandler) Undo(w http.ResponseWriter, r *http.Request) {
	applied := h.engine.Undo()
	api.Success(w, http.StatusOK, UndoRedoResponse{Applied: applied, Cursor: h.engine.History().Cursor()})
}

// Redo handles POST /history/redo
func (h *HistoryHandler) Redo(w http.ResponseWriter, r *http.Request) {
	applied := h.engine.Redo()
	api.Success(w, http.StatusOK, UndoRedoResponse{Applied: applied, Cursor: h.engine.History().Cursor()})
}

// MergeRequest is the body for POST /history/merge
type MergeRequest struct {
	Index int `json:"index"`
}

// Merge handles POST /history/merge, dropping all entries after the index
func (h *HistoryHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.engine.MergeHistory(req.Index)
	api.Success(w, http.StatusNoContent, nil)
}
