package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cascade-engine/application/engine"
	"cascade-engine/application/ports"
	"cascade-engine/domain/core/valueobjects"
	"cascade-engine/pkg/api"
)

// GeometryHandler serves the kernel-backed shape operations
type GeometryHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewGeometryHandler creates a geometry handler
func NewGeometryHandler(eng *engine.Engine, logger *zap.Logger) *GeometryHandler {
	return &GeometryHandler{engine: eng, logger: logger}
}

// CreatePrimitiveRequest is the body for POST /shapes/primitives
type CreatePrimitiveRequest struct {
	Type   string             `json:"type" validate:"required"`
	Name   string             `json:"name"`
	Params map[string]float64 `json:"params" validate:"required"`
}

// CreatePrimitive handles POST /shapes/primitives
func (h *GeometryHandler) CreatePrimitive(w http.ResponseWriter, r *http.Request) {
	var req CreatePrimitiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	obj, err := h.engine.CreatePrimitive(r.Context(),
		ports.PrimitiveKind(req.Type), req.Name, req.Params)
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

// BooleanRequest is the body for POST /shapes/boolean
type BooleanRequest struct {
	Op  string   `json:"op" validate:"required,oneof=fuse cut common"`
	IDs []string `json:"ids" validate:"required,min=2"`
}

// Boolean handles POST /shapes/boolean
func (h *GeometryHandler) Boolean(w http.ResponseWriter, r *http.Request) {
	var req BooleanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids, err := parseObjectIDs(req.IDs)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.engine.ExecuteBoolean(r.Context(), ports.BooleanOp(req.Op), ids)
	if err != nil {
		api.AppError(w, err)
		return
	}
	rec, err := h.engine.Store().Record(result.ID())
	if err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusOK, rec)
}

// ModifyRequest is the body for POST /shapes/{objectID}/modify
type ModifyRequest struct {
	Op        string  `json:"op" validate:"required,oneof=fillet chamfer shell"`
	Parameter float64 `json:"parameter" validate:"gt=0"`
}

// Modify handles POST /shapes/{objectID}/modify
func (h *GeometryHandler) Modify(w http.ResponseWriter, r *http.Request) {
	id, ok := shapeID(w, r)
	if !ok {
		return
	}
	var req ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.engine.ApplyModification(r.Context(),
		ports.ModifyOp(req.Op), id, req.Parameter)
	if err != nil {
		api.AppError(w, err)
		return
	}
	rec, err := h.engine.Store().Record(result.ID())
	if err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusOK, rec)
}

// UpdateParametersRequest is the body for PUT /shapes/{objectID}/parameters
type UpdateParametersRequest struct {
	Params map[string]float64 `json:"params" validate:"required"`
}

// UpdateParameters handles PUT /shapes/{objectID}/parameters
func (h *GeometryHandler) UpdateParameters(w http.ResponseWriter, r *http.Request) {
	id, ok := shapeID(w, r)
	if !ok {
		return
	}
	var req UpdateParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.engine.UpdateShapeParameters(r.Context(), id, req.Params); err != nil {
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

// ImportStepRequest is the body for POST /shapes/import
type ImportStepRequest struct {
	Path string `json:"path" validate:"required"`
}

// ImportStep handles POST /shapes/import
func (h *GeometryHandler) ImportStep(w http.ResponseWriter, r *http.Request) {
	var req ImportStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	obj, err := h.engine.ImportStep(r.Context(), req.Path)
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

func shapeID(w http.ResponseWriter, r *http.Request) (valueobjects.ObjectID, bool) {
	raw := chi.URLParam(r, "objectID")
	id, err := valueobjects.ParseObjectID(raw)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid object id: "+raw)
		return valueobjects.ObjectID{}, false
	}
	return id, true
}

func parseObjectIDs(raw []string) ([]valueobjects.ObjectID, error) {
	ids := make([]valueobjects.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := valueobjects.ParseObjectID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
