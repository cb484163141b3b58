package entities

import (
	"time"

	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// ObjectKind discriminates the scene object variants
type ObjectKind string

const (
	KindShape      ObjectKind = "shape"
	KindChannel    ObjectKind = "channel"
	KindTransition ObjectKind = "transition"
	KindChute      ObjectKind = "chute"
	KindStructure  ObjectKind = "structure"
	KindAnnotation ObjectKind = "annotation"
)

// IsHydraulic reports whether objects of this kind participate in
// station/elevation chains
func (k ObjectKind) IsHydraulic() bool {
	return k == KindChannel || k == KindTransition || k == KindChute
}

// Well-known metadata keys. Metadata is an opaque map as far as the store is
// concerned; these keys are the contract between the kernel bridge, the
// persistence layer and the renderer.
const (
	MetaBackendShapeID  = "backendShapeId"
	MetaOperation       = "operation"
	MetaSourceShapes    = "sourceShapes"
	MetaBrep            = "brep"
	MetaPrimitiveType   = "primitiveType"
	MetaPrimitiveParams = "primitiveParams"
	MetaSegments        = "segments"
	MetaImportPath      = "importPath"
	MetaMaterial        = "material"
	MetaBimVolume       = "bimVolume"
	MetaBimArea         = "bimArea"
)

// SceneObject is a single element of the scene graph. It is owned
// exclusively by the object store; history entries hold deep copies and the
// kernel id map references it weakly by id.
type SceneObject struct {
	id        valueobjects.ObjectID
	name      string
	kind      ObjectKind
	layerID   string
	areaID    string
	transform valueobjects.Transform
	visible   bool
	locked    bool
	metadata  map[string]any
	mesh      *valueobjects.Mesh
	hydraulic *HydraulicData
	createdAt time.Time
	updatedAt time.Time
}

// NewSceneObject creates a scene object with validation
func NewSceneObject(kind ObjectKind, name string) (*SceneObject, error) {
	if name == "" {
		return nil, pkgerrors.NewValidation("object name cannot be empty")
	}
	switch kind {
	case KindShape, KindChannel, KindTransition, KindChute, KindStructure, KindAnnotation:
	default:
		return nil, pkgerrors.NewValidation("unknown object kind: " + string(kind))
	}

	now := time.Now()
	obj := &SceneObject{
		id:        valueobjects.NewObjectID(),
		name:      name,
		kind:      kind,
		layerID:   "default",
		transform: valueobjects.IdentityTransform(),
		visible:   true,
		metadata:  make(map[string]any),
		createdAt: now,
		updatedAt: now,
	}
	if kind.IsHydraulic() {
		obj.hydraulic = NewHydraulicData(kind)
	}
	return obj, nil
}

// ReconstructSceneObject rebuilds an object from persisted data with
// preserved identity and timestamps
func ReconstructSceneObject(
	id valueobjects.ObjectID,
	kind ObjectKind,
	name string,
	layerID, areaID string,
	transform valueobjects.Transform,
	visible, locked bool,
	metadata map[string]any,
	mesh *valueobjects.Mesh,
	hydraulic *HydraulicData,
	createdAt, updatedAt time.Time,
) (*SceneObject, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidation("object id cannot be empty")
	}
	if name == "" {
		return nil, pkgerrors.NewValidation("object name cannot be empty")
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}
	if kind.IsHydraulic() && hydraulic == nil {
		hydraulic = NewHydraulicData(kind)
	}
	return &SceneObject{
		id:        id,
		name:      name,
		kind:      kind,
		layerID:   layerID,
		areaID:    areaID,
		transform: transform,
		visible:   visible,
		locked:    locked,
		metadata:  metadata,
		mesh:      mesh,
		hydraulic: hydraulic,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// ID returns the object's unique identifier
func (o *SceneObject) ID() valueobjects.ObjectID { return o.id }

// Name returns the display name
func (o *SceneObject) Name() string { return o.name }

// Kind returns the object kind
func (o *SceneObject) Kind() ObjectKind { return o.kind }

// LayerID returns the owning layer
func (o *SceneObject) LayerID() string { return o.layerID }

// AreaID returns the owning area, empty when ungrouped
func (o *SceneObject) AreaID() string { return o.areaID }

// Transform returns the object's placement
func (o *SceneObject) Transform() valueobjects.Transform { return o.transform }

// Visible reports render visibility
func (o *SceneObject) Visible() bool { return o.visible }

// Locked reports whether edits are blocked in the UI
func (o *SceneObject) Locked() bool { return o.locked }

// CreatedAt returns the creation timestamp
func (o *SceneObject) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last-modified timestamp
func (o *SceneObject) UpdatedAt() time.Time { return o.updatedAt }

// Rename changes the display name
func (o *SceneObject) Rename(name string) error {
	if name == "" {
		return pkgerrors.NewValidation("object name cannot be empty")
	}
	o.name = name
	o.touch()
	return nil
}

// SetTransform replaces the object's placement
func (o *SceneObject) SetTransform(t valueobjects.Transform) {
	o.transform = t
	o.touch()
}

// SetLayer moves the object to another layer
func (o *SceneObject) SetLayer(layerID string) {
	o.layerID = layerID
	o.touch()
}

// SetArea assigns the object to an area group
func (o *SceneObject) SetArea(areaID string) {
	o.areaID = areaID
	o.touch()
}

// SetVisible toggles render visibility
func (o *SceneObject) SetVisible(visible bool) {
	o.visible = visible
	o.touch()
}

// SetLocked toggles the edit lock
func (o *SceneObject) SetLocked(locked bool) {
	o.locked = locked
	o.touch()
}

// Mesh returns the render mesh, nil when not tessellated
func (o *SceneObject) Mesh() *valueobjects.Mesh { return o.mesh }

// SetMesh replaces the render mesh
func (o *SceneObject) SetMesh(mesh *valueobjects.Mesh) {
	o.mesh = mesh
	o.touch()
}

// Metadata returns a shallow copy of the metadata map
func (o *SceneObject) Metadata() map[string]any {
	out := make(map[string]any, len(o.metadata))
	for k, v := range o.metadata {
		out[k] = v
	}
	return out
}

// MetadataValue looks up a single metadata entry
func (o *SceneObject) MetadataValue(key string) (any, bool) {
	v, ok := o.metadata[key]
	return v, ok
}

// MetadataString looks up a metadata entry as a string
func (o *SceneObject) MetadataString(key string) string {
	if v, ok := o.metadata[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetMetadata writes a single metadata entry
func (o *SceneObject) SetMetadata(key string, value any) {
	o.metadata[key] = value
	o.touch()
}

// DeleteMetadata removes a metadata entry
func (o *SceneObject) DeleteMetadata(key string) {
	delete(o.metadata, key)
	o.touch()
}

// Hydraulic returns the element's hydraulic data, nil for non-hydraulic
// kinds. The returned pointer is live; mutations must go through the store
// so derived values and chain propagation stay consistent.
func (o *SceneObject) Hydraulic() *HydraulicData { return o.hydraulic }

// SetHydraulic replaces the hydraulic data wholesale
func (o *SceneObject) SetHydraulic(h *HydraulicData) {
	o.hydraulic = h
	o.touch()
}

// Touch stamps the object as modified. Hydraulic mutations are applied
// through the live data pointer rather than a setter, so the store calls
// this after a hydraulic patch.
func (o *SceneObject) Touch() {
	o.touch()
}

// Clone returns a deep copy of the object for history snapshots
func (o *SceneObject) Clone() *SceneObject {
	clone := &SceneObject{
		id:        o.id,
		name:      o.name,
		kind:      o.kind,
		layerID:   o.layerID,
		areaID:    o.areaID,
		transform: o.transform,
		visible:   o.visible,
		locked:    o.locked,
		metadata:  make(map[string]any, len(o.metadata)),
		mesh:      o.mesh.Clone(),
		hydraulic: o.hydraulic.Clone(),
		createdAt: o.createdAt,
		updatedAt: o.updatedAt,
	}
	for k, v := range o.metadata {
		clone.metadata[k] = cloneMetadataValue(v)
	}
	return clone
}

func (o *SceneObject) touch() {
	o.updatedAt = time.Now()
}

// cloneMetadataValue deep-copies the container shapes JSON decoding
// produces; scalars are copied by value.
func cloneMetadataValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneMetadataValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneMetadataValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []float64:
		out := make([]float64, len(t))
		copy(out, t)
		return out
	case map[string]float64:
		out := make(map[string]float64, len(t))
		for k, f := range t {
			out[k] = f
		}
		return out
	default:
		return v
	}
}
