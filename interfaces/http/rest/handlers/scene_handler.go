// Package handlers contains the HTTP handlers of the engine API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cascade-engine/application/engine"
	"cascade-engine/application/store"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	"cascade-engine/pkg/api"
)

// SceneHandler serves scene objects, selection and layers
type SceneHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewSceneHandler creates a scene handler
func NewSceneHandler(eng *engine.Engine, logger *zap.Logger) *SceneHandler {
	return &SceneHandler{engine: eng, logger: logger}
}

// CreateObjectRequest is the body for creating a non-parametric object
type CreateObjectRequest struct {
	Kind string `json:"kind" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// HydraulicPatchRequest is the hydraulic portion of an object update
type HydraulicPatchRequest struct {
	Length         *float64                   `json:"length,omitempty"`
	Slope          *float64                   `json:"slope,omitempty"`
	Drop           *float64                   `json:"drop,omitempty"`
	StartStation   *float64                   `json:"startStation,omitempty"`
	StartElevation *float64                   `json:"startElevation,omitempty"`
	EndStation     *float64                   `json:"endStation,omitempty"`
	EndElevation   *float64                   `json:"endElevation,omitempty"`
	Discharge      *float64                   `json:"discharge,omitempty"`
	Section        *valueobjects.CrossSection `json:"section,omitempty"`
	OutletSection  *valueobjects.CrossSection `json:"outletSection,omitempty"`
}

// UpdateObjectRequest is a partial object update
type UpdateObjectRequest struct {
	Name      *string                 `json:"name,omitempty"`
	Transform *valueobjects.Transform `json:"transform,omitempty"`
	LayerID   *string                 `json:"layerId,omitempty"`
	AreaID    *string                 `json:"areaId,omitempty"`
	Visible   *bool                   `json:"visible,omitempty"`
	Locked    *bool                   `json:"locked,omitempty"`
	Metadata  map[string]any          `json:"metadata,omitempty"`
	Hydraulic *HydraulicPatchRequest  `json:"hydraulic,omitempty"`
	Label     string                  `json:"label,omitempty"`
}

// GetScene handles GET /scene
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.engine.GetSceneData())
}

// ListObjects handles GET /objects
func (h *SceneHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.engine.Store().SnapshotRecords())
}

// CreateObject handles POST /objects
func (h *SceneHandler) CreateObject(w http.ResponseWriter, r *http.Request) {
	var req CreateObjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	obj, err := h.engine.CreateObject(entities.ObjectKind(req.Kind), req.Name)
	if err != nil {
		api.AppError(w, err)
		return
	}
	rec, err := h.engine.Store().Record(obj.ID())
	if err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, rec)
}

// GetObject handles GET /objects/{objectID}
func (h *SceneHandler) GetObject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	rec, err := h.engine.Store().Record(id)
	if err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusOK, rec)
}

// UpdateObject handles PATCH /objects/{objectID}
func (h *SceneHandler) UpdateObject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	var req UpdateObjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	update := store.UpdateRequest{
		Name:      req.Name,
		Transform: req.Transform,
		LayerID:   req.LayerID,
		AreaID:    req.AreaID,
		Visible:   req.Visible,
		Locked:    req.Locked,
		Metadata:  req.Metadata,
	}
	if req.Hydraulic != nil {
		update.Hydraulic = &store.HydraulicPatch{
			Length:         req.Hydraulic.Length,
			Slope:          req.Hydraulic.Slope,
			Drop:           req.Hydraulic.Drop,
			StartStation:   req.Hydraulic.StartStation,
			StartElevation: req.Hydraulic.StartElevation,
			EndStation:     req.Hydraulic.EndStation,
			EndElevation:   req.Hydraulic.EndElevation,
			Discharge:      req.Hydraulic.Discharge,
			Section:        req.Hydraulic.Section,
			OutletSection:  req.Hydraulic.OutletSection,
		}
	}
	if err := h.engine.UpdateObject(id, update, req.Label); err != nil {
		api.AppError(w, err)
		return
	}
	rec, err := h.engine.Store().Record(id)
	if err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusOK, rec)
}

// DeleteObject handles DELETE /objects/{objectID}
func (h *SceneHandler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.objectID(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeleteObject(r.Context(), id); err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

// SetSelectionRequest is the body for PUT /selection
type SetSelectionRequest struct {
	IDs []string `json:"ids"`
}

// SetSelection handles PUT /selection
func (h *SceneHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SetSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids := make([]valueobjects.ObjectID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := valueobjects.ParseObjectID(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid object id: "+raw)
			return
		}
		ids = append(ids, id)
	}
	h.engine.Store().SetSelection(ids)
	api.Success(w, http.StatusNoContent, nil)
}

func (h *SceneHandler) objectID(w http.ResponseWriter, r *http.Request) (valueobjects.ObjectID, bool) {
	raw := chi.URLParam(r, "objectID")
	id, err := valueobjects.ParseObjectID(raw)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid object id: "+raw)
		return valueobjects.ObjectID{}, false
	}
	return id, true
}
