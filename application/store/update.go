package store

import (
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// UpdateRequest is a partial patch applied to a scene object. Nil fields
// are left untouched.
type UpdateRequest struct {
	Name      *string
	Transform *valueobjects.Transform
	LayerID   *string
	AreaID    *string
	Visible   *bool
	Locked    *bool
	Mesh      *valueobjects.Mesh
	SetMesh   bool // distinguishes "clear the mesh" from "leave it alone"
	Metadata  map[string]any
	Hydraulic *HydraulicPatch
}

// HydraulicPatch is the hydraulic portion of an update. Nil fields are
// left untouched.
type HydraulicPatch struct {
	Length         *float64
	Slope          *float64
	Drop           *float64
	StartStation   *float64
	StartElevation *float64
	EndStation     *float64 // transitions store endpoints directly
	EndElevation   *float64
	Discharge      *float64
	Section        *valueobjects.CrossSection
	OutletSection  *valueobjects.CrossSection
	UpstreamID     *valueobjects.ObjectID
	DownstreamID   *valueobjects.ObjectID
	Basin          *entities.StillingBasinConfig
}

// Change reports which aspects of an object an update touched, so the
// engine can run the right consistency passes after the mutation commits.
type Change struct {
	// PositionAffecting is set when a field that feeds station/elevation
	// chain propagation changed.
	PositionAffecting bool
	// SectionAffecting is set when a cross-section changed, which requires
	// the adjacent transition sync rules.
	SectionAffecting bool
	// ConnectivityAffecting is set when upstream/downstream wiring changed.
	ConnectivityAffecting bool
}

// Any reports whether the update changed anything the engine reacts to
func (c Change) Any() bool {
	return c.PositionAffecting || c.SectionAffecting || c.ConnectivityAffecting
}

// UpdateObject applies a partial update. The object's derived hydraulic end
// values are recomputed inline; chain propagation to neighbors is the
// engine's responsibility, driven by the returned Change.
func (s *Store) UpdateObject(id valueobjects.ObjectID, req UpdateRequest) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var obj *entities.SceneObject
	for _, candidate := range s.objects {
		if candidate.ID().Equals(id) {
			obj = candidate
			break
		}
	}
	if obj == nil {
		return Change{}, pkgerrors.NewNotFound("object not found: " + id.String())
	}

	var change Change

	if req.Name != nil {
		if err := obj.Rename(*req.Name); err != nil {
			return Change{}, err
		}
	}
	if req.Transform != nil {
		obj.SetTransform(*req.Transform)
	}
	if req.LayerID != nil {
		obj.SetLayer(*req.LayerID)
	}
	if req.AreaID != nil {
		obj.SetArea(*req.AreaID)
	}
	if req.Visible != nil {
		obj.SetVisible(*req.Visible)
	}
	if req.Locked != nil {
		obj.SetLocked(*req.Locked)
	}
	if req.SetMesh {
		obj.SetMesh(req.Mesh)
	}
	for key, value := range req.Metadata {
		obj.SetMetadata(key, value)
	}

	if req.Hydraulic != nil {
		h := obj.Hydraulic()
		if h == nil {
			return Change{}, pkgerrors.NewValidation("object has no hydraulic data: " + id.String())
		}
		change = applyHydraulicPatch(h, req.Hydraulic)
		if change.PositionAffecting {
			h.ComputeEnd(obj.Kind())
		}
		obj.Touch()
	}
	return change, nil
}

// RecomputeEnd refreshes a hydraulic element's derived end station and
// elevation from its current fields.
func (s *Store) RecomputeEnd(id valueobjects.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range s.objects {
		if obj.ID().Equals(id) {
			h := obj.Hydraulic()
			if h == nil {
				return pkgerrors.NewValidation("object is not a hydraulic element: " + id.String())
			}
			h.ComputeEnd(obj.Kind())
			return nil
		}
	}
	return pkgerrors.NewNotFound("object not found: " + id.String())
}

func applyHydraulicPatch(h *entities.HydraulicData, patch *HydraulicPatch) Change {
	var change Change

	setFloat := func(dst *float64, src *float64, positional bool) {
		if src != nil && *dst != *src {
			*dst = *src
			if positional {
				change.PositionAffecting = true
			}
		}
	}

	setFloat(&h.Length, patch.Length, true)
	setFloat(&h.Slope, patch.Slope, true)
	setFloat(&h.Drop, patch.Drop, true)
	setFloat(&h.StartStation, patch.StartStation, true)
	setFloat(&h.StartElevation, patch.StartElevation, true)
	setFloat(&h.EndStation, patch.EndStation, true)
	setFloat(&h.EndElevation, patch.EndElevation, true)
	setFloat(&h.Discharge, patch.Discharge, false)

	if patch.Section != nil && !h.Section.Equals(*patch.Section) {
		h.Section = *patch.Section
		change.SectionAffecting = true
	}
	if patch.OutletSection != nil {
		outlet := *patch.OutletSection
		h.OutletSection = &outlet
		change.SectionAffecting = true
	}
	if patch.UpstreamID != nil && !h.UpstreamID.Equals(*patch.UpstreamID) {
		h.UpstreamID = *patch.UpstreamID
		change.ConnectivityAffecting = true
	}
	if patch.DownstreamID != nil && !h.DownstreamID.Equals(*patch.DownstreamID) {
		h.DownstreamID = *patch.DownstreamID
		change.ConnectivityAffecting = true
	}
	if patch.Basin != nil {
		h.Basin = patch.Basin.Clone()
	}
	return change
}
