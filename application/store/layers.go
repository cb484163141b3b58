package store

import (
	"cascade-engine/domain/core/entities"
	pkgerrors "cascade-engine/pkg/errors"
)

// Layers returns a copy of the layer list
func (s *Store) Layers() []entities.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Layer(nil), s.layers...)
}

// AddLayer appends a new layer
func (s *Store) AddLayer(layer entities.Layer) error {
	if layer.ID == "" || layer.Name == "" {
		return pkgerrors.NewValidation("layer id and name are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.layers {
		if existing.ID == layer.ID {
			return pkgerrors.NewConflict("layer already exists: " + layer.ID)
		}
	}
	s.layers = append(append([]entities.Layer(nil), s.layers...), layer)
	return nil
}

// UpdateLayer replaces a layer's attributes
func (s *Store) UpdateLayer(layer entities.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := append([]entities.Layer(nil), s.layers...)
	for i, existing := range next {
		if existing.ID == layer.ID {
			next[i] = layer
			s.layers = next
			return nil
		}
	}
	return pkgerrors.NewNotFound("layer not found: " + layer.ID)
}

// RemoveLayer deletes a layer; objects on it move to the default layer.
// The default layer itself cannot be removed.
func (s *Store) RemoveLayer(layerID string) error {
	if layerID == "default" {
		return pkgerrors.NewValidation("the default layer cannot be removed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]entities.Layer, 0, len(s.layers))
	found := false
	for _, existing := range s.layers {
		if existing.ID == layerID {
			found = true
			continue
		}
		next = append(next, existing)
	}
	if !found {
		return pkgerrors.NewNotFound("layer not found: " + layerID)
	}
	s.layers = next
	for _, obj := range s.objects {
		if obj.LayerID() == layerID {
			obj.SetLayer("default")
		}
	}
	return nil
}

// Areas returns a copy of the area list
func (s *Store) Areas() []entities.Area {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Area(nil), s.areas...)
}

// AddArea appends a new area grouping
func (s *Store) AddArea(area entities.Area) error {
	if area.ID == "" || area.Name == "" {
		return pkgerrors.NewValidation("area id and name are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.areas {
		if existing.ID == area.ID {
			return pkgerrors.NewConflict("area already exists: " + area.ID)
		}
	}
	s.areas = append(append([]entities.Area(nil), s.areas...), area)
	return nil
}

// RemoveArea deletes an area; member objects become ungrouped
func (s *Store) RemoveArea(areaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]entities.Area, 0, len(s.areas))
	found := false
	for _, existing := range s.areas {
		if existing.ID == areaID {
			found = true
			continue
		}
		next = append(next, existing)
	}
	if !found {
		return pkgerrors.NewNotFound("area not found: " + areaID)
	}
	s.areas = next
	for _, obj := range s.objects {
		if obj.AreaID() == areaID {
			obj.SetArea("")
		}
	}
	return nil
}

// SetLayers replaces the layer list wholesale, used by project load
func (s *Store) SetLayers(layers []entities.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(layers) == 0 {
		layers = []entities.Layer{entities.DefaultLayer()}
	}
	s.layers = append([]entities.Layer(nil), layers...)
}

// SetAreas replaces the area list wholesale, used by project load
func (s *Store) SetAreas(areas []entities.Area) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areas = append([]entities.Area(nil), areas...)
}
