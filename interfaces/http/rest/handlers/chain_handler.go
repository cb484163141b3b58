package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"cascade-engine/application/engine"
	"cascade-engine/domain/core/valueobjects"
	"cascade-engine/pkg/api"
)

// ChainHandler serves hydraulic chain connectivity operations
type ChainHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewChainHandler creates a chain handler
func NewChainHandler(eng *engine.Engine, logger *zap.Logger) *ChainHandler {
	return &ChainHandler{engine: eng, logger: logger}
}

// ConnectRequest is the body for POST /chain/connect
type ConnectRequest struct {
	UpstreamID   string `json:"upstreamId" validate:"required"`
	DownstreamID string `json:"downstreamId" validate:"required"`
}

// Connect handles POST /chain/connect
func (h *ChainHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	up, err := valueobjects.ParseObjectID(req.UpstreamID)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid upstream id")
		return
	}
	down, err := valueobjects.ParseObjectID(req.DownstreamID)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid downstream id")
		return
	}
	if err := h.engine.ConnectElements(up, down); err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

// DisconnectRequest is the body for POST /chain/disconnect
type DisconnectRequest struct {
	UpstreamID string `json:"upstreamId" validate:"required"`
}

// Disconnect handles POST /chain/disconnect
func (h *ChainHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	var req DisconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	up, err := valueobjects.ParseObjectID(req.UpstreamID)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid upstream id")
		return
	}
	if err := h.engine.DisconnectElements(up); err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

// Recalculate handles POST /chain/recalculate
func (h *ChainHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	h.engine.RecalculateChain()
	api.Success(w, http.StatusNoContent, nil)
}
