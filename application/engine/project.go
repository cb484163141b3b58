package engine

import (
	"context"

	"go.uber.org/zap"

	"cascade-engine/application/store"
	"cascade-engine/domain/core/entities"
)

// GetSceneData assembles the complete persisted form of the current
// project, history included.
func (e *Engine) GetSceneData() *store.SceneData {
	e.mu.Lock()
	defer e.mu.Unlock()
	records, cursor := e.history.ExportRecords()
	return &store.SceneData{
		Objects:      e.store.SnapshotRecords(),
		Layers:       e.store.Layers(),
		Areas:        e.store.Areas(),
		Viewport:     e.store.Viewport(),
		History:      records,
		HistoryIndex: cursor,
	}
}

// LoadScene replaces the whole project state with a persisted scene.
// Objects that cannot be rebuilt are dropped with a log line; loading a
// damaged project yields the salvageable subset rather than an error.
// The kernel is cleared so no shapes from the previous project linger;
// geometry is recreated lazily on first use.
func (e *Engine) LoadScene(ctx context.Context, data *store.SceneData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	objects := make([]*entities.SceneObject, 0, len(data.Objects))
	for _, rec := range data.Objects {
		obj, err := store.ObjectFromRecord(rec)
		if err != nil {
			e.logger.Warn("dropping unreadable object from project",
				zap.String("object", rec.ID), zap.Error(err))
			continue
		}
		objects = append(objects, obj)
	}
	e.store.ReplaceObjects(objects, nil)

	layers := data.Layers
	if len(layers) == 0 {
		layers = []entities.Layer{entities.DefaultLayer()}
	}
	e.store.SetLayers(layers)
	e.store.SetAreas(data.Areas)
	e.store.SetViewport(data.Viewport)

	e.history.Clear()
	e.history.LoadRecords(data.History, data.HistoryIndex)
	if e.history.Len() == 0 {
		e.history.SaveToHistory("Open project")
	}

	if err := e.bridge.ClearAllShapes(ctx); err != nil {
		e.logger.Warn("kernel clear on project load failed", zap.Error(err))
	}

	// Older project files carry derived stations that drifted from their
	// inputs; one full pass restores continuity.
	e.propagator.RecalculateHydraulicChain()
	e.analyzer.AnalyzeScene()
	return nil
}
