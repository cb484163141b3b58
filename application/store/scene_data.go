package store

import (
	"time"

	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// ObjectRecord is the persisted form of a scene object
type ObjectRecord struct {
	ID        string                    `json:"id"`
	Kind      string                    `json:"kind"`
	Name      string                    `json:"name"`
	LayerID   string                    `json:"layerId"`
	AreaID    string                    `json:"areaId,omitempty"`
	Transform valueobjects.Transform    `json:"transform"`
	Visible   bool                      `json:"visible"`
	Locked    bool                      `json:"locked"`
	Metadata  map[string]any            `json:"metadata,omitempty"`
	Mesh      *valueobjects.EncodedMesh `json:"mesh,omitempty"`
	Hydraulic *entities.HydraulicData   `json:"hydraulic,omitempty"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// HistoryRecord is the persisted form of one history entry
type HistoryRecord struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Label     string         `json:"label"`
	Objects   []ObjectRecord `json:"objects"`
	Selection []string       `json:"selection"`
}

// SceneData is the complete persisted project state
type SceneData struct {
	Objects      []ObjectRecord   `json:"objects"`
	Layers       []entities.Layer `json:"layers"`
	Areas        []entities.Area  `json:"areas"`
	Viewport     Viewport         `json:"viewport"`
	History      []HistoryRecord  `json:"history"`
	HistoryIndex int              `json:"historyIndex"`
}

// RecordFromObject converts a scene object to its persisted form
func RecordFromObject(obj *entities.SceneObject) ObjectRecord {
	return ObjectRecord{
		ID:        obj.ID().String(),
		Kind:      string(obj.Kind()),
		Name:      obj.Name(),
		LayerID:   obj.LayerID(),
		AreaID:    obj.AreaID(),
		Transform: obj.Transform(),
		Visible:   obj.Visible(),
		Locked:    obj.Locked(),
		Metadata:  obj.Metadata(),
		Mesh:      obj.Mesh().Encode(),
		Hydraulic: obj.Hydraulic().Clone(),
		CreatedAt: obj.CreatedAt(),
		UpdatedAt: obj.UpdatedAt(),
	}
}

// ObjectFromRecord rebuilds a scene object from its persisted form,
// migrating older payloads: hydraulic defaults are filled in for elements
// saved before the field existed, transitions get an outlet section
// mirroring the inlet, and mesh buffers go through the tolerant decoder.
func ObjectFromRecord(rec ObjectRecord) (*entities.SceneObject, error) {
	id, err := valueobjects.ParseObjectID(rec.ID)
	if err != nil {
		return nil, err
	}
	kind := entities.ObjectKind(rec.Kind)

	hydraulic := rec.Hydraulic.Clone()
	if kind.IsHydraulic() {
		if hydraulic == nil {
			hydraulic = entities.NewHydraulicData(kind)
		}
		if kind == entities.KindTransition && hydraulic.OutletSection == nil {
			outlet := hydraulic.Section
			hydraulic.OutletSection = &outlet
		}
	}

	layerID := rec.LayerID
	if layerID == "" {
		layerID = "default"
	}
	transform := rec.Transform
	if transform.Scale == (valueobjects.Vector3{}) {
		transform.Scale = valueobjects.Vector3{X: 1, Y: 1, Z: 1}
	}

	return entities.ReconstructSceneObject(
		id,
		kind,
		rec.Name,
		layerID,
		rec.AreaID,
		transform,
		rec.Visible,
		rec.Locked,
		rec.Metadata,
		rec.Mesh.Decode(),
		hydraulic,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
}

// SnapshotRecords converts the current object list to persisted form. The
// conversion runs under the store lock so a concurrent update is observed
// either in full or not at all.
func (s *Store) SnapshotRecords() []ObjectRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ObjectRecord, len(s.objects))
	for i, obj := range s.objects {
		out[i] = RecordFromObject(obj)
	}
	return out
}

// Record converts one object to its persisted form under the store lock.
// Readers outside the engine's serialized mutation path go through this
// instead of holding a live object pointer.
func (s *Store) Record(id valueobjects.ObjectID) (ObjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obj := range s.objects {
		if obj.ID().Equals(id) {
			return RecordFromObject(obj), nil
		}
	}
	return ObjectRecord{}, pkgerrors.NewNotFound("object not found: " + id.String())
}
