// Package store holds the canonical scene graph: every scene object, the
// layer/area grouping and the current selection. All engine mutations flow
// through it so that history capture, chain propagation and kernel
// synchronization observe a single consistent object list.
package store

import (
	"sync"

	"go.uber.org/zap"

	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// Store is the canonical object list. Structural mutations replace the
// backing slice wholesale and in-place object updates run under the write
// lock; readers that convert to records under the read lock observe either
// the pre- or post-mutation state, never a partially updated one. The live
// object pointers returned by GetObject and Objects are confined to the
// engine's serialized mutation path.
type Store struct {
	mu        sync.RWMutex
	objects   []*entities.SceneObject
	layers    []entities.Layer
	areas     []entities.Area
	selection []valueobjects.ObjectID
	viewport  Viewport
	logger    *zap.Logger
}

// Viewport carries the camera and grid settings persisted with a project.
// The engine never interprets them; they round-trip for the renderer.
type Viewport struct {
	CameraPosition valueobjects.Vector3 `json:"cameraPosition"`
	CameraTarget   valueobjects.Vector3 `json:"cameraTarget"`
	GridSize       float64              `json:"gridSize"`
	GridVisible    bool                 `json:"gridVisible"`
}

// New creates an empty store with the default layer
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		layers:   []entities.Layer{entities.DefaultLayer()},
		viewport: Viewport{GridSize: 1.0, GridVisible: true},
		logger:   logger,
	}
}

// AddObject appends an object to the scene
func (s *Store) AddObject(obj *entities.SceneObject) error {
	if obj == nil {
		return pkgerrors.NewValidation("object cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.objects {
		if existing.ID().Equals(obj.ID()) {
			return pkgerrors.NewConflict("object already exists: " + obj.ID().String())
		}
	}
	next := make([]*entities.SceneObject, len(s.objects)+1)
	copy(next, s.objects)
	next[len(s.objects)] = obj
	s.objects = next
	return nil
}

// GetObject returns the live object with the given id. HTTP readers use
// Record instead; the pointer is shared with the scene.
func (s *Store) GetObject(id valueobjects.ObjectID) (*entities.SceneObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obj := range s.objects {
		if obj.ID().Equals(id) {
			return obj, nil
		}
	}
	return nil, pkgerrors.NewNotFound("object not found: " + id.String())
}

// Objects returns a snapshot slice of the current object list
func (s *Store) Objects() []*entities.SceneObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.SceneObject, len(s.objects))
	copy(out, s.objects)
	return out
}

// HydraulicObjects returns the channels, transitions and chutes
func (s *Store) HydraulicObjects() []*entities.SceneObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entities.SceneObject
	for _, obj := range s.objects {
		if obj.Kind().IsHydraulic() {
			out = append(out, obj)
		}
	}
	return out
}

// Count returns the number of objects in the scene
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// DeleteObject removes an object from the scene and the selection
func (s *Store) DeleteObject(id valueobjects.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*entities.SceneObject, 0, len(s.objects))
	found := false
	for _, obj := range s.objects {
		if obj.ID().Equals(id) {
			found = true
			continue
		}
		next = append(next, obj)
	}
	if !found {
		return pkgerrors.NewNotFound("object not found: " + id.String())
	}
	s.objects = next
	s.selection = removeID(s.selection, id)
	return nil
}

// ReplaceObjects swaps the entire object list and selection, used by
// undo/redo and project load
func (s *Store) ReplaceObjects(objects []*entities.SceneObject, selection []valueobjects.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*entities.SceneObject, len(objects))
	copy(next, objects)
	s.objects = next
	s.selection = append([]valueobjects.ObjectID(nil), selection...)
}

// ReplaceWithCompound atomically removes the operand objects of a boolean
// pipeline and inserts the single result object. The swap happens under one
// lock so no observer ever sees operands and result together.
func (s *Store) ReplaceWithCompound(operandIDs []valueobjects.ObjectID, result *entities.SceneObject) error {
	if result == nil {
		return pkgerrors.NewValidation("result object cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(operandIDs))
	for _, id := range operandIDs {
		drop[id.String()] = true
	}
	next := make([]*entities.SceneObject, 0, len(s.objects))
	removed := 0
	for _, obj := range s.objects {
		if drop[obj.ID().String()] {
			removed++
			continue
		}
		next = append(next, obj)
	}
	if removed != len(operandIDs) {
		return pkgerrors.NewNotFound("boolean operand missing from scene")
	}
	s.objects = append(next, result)

	sel := s.selection
	for _, id := range operandIDs {
		sel = removeID(sel, id)
	}
	s.selection = append(sel, result.ID())
	return nil
}

// Selection returns a copy of the selected object ids
func (s *Store) Selection() []valueobjects.ObjectID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]valueobjects.ObjectID(nil), s.selection...)
}

// SetSelection replaces the selection, dropping ids not present in the scene
func (s *Store) SetSelection(ids []valueobjects.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	present := make(map[string]bool, len(s.objects))
	for _, obj := range s.objects {
		present[obj.ID().String()] = true
	}
	next := make([]valueobjects.ObjectID, 0, len(ids))
	for _, id := range ids {
		if present[id.String()] {
			next = append(next, id)
		}
	}
	s.selection = next
}

// Viewport returns the persisted camera and grid settings
func (s *Store) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// SetViewport replaces the camera and grid settings
func (s *Store) SetViewport(v Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
}

func removeID(ids []valueobjects.ObjectID, id valueobjects.ObjectID) []valueobjects.ObjectID {
	out := ids[:0:0]
	for _, existing := range ids {
		if !existing.Equals(id) {
			out = append(out, existing)
		}
	}
	return out
}
