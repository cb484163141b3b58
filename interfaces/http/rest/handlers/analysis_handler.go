package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cascade-engine/application/engine"
	"cascade-engine/domain/core/entities"
	"cascade-engine/pkg/api"
)

// AnalysisHandler serves the notification analyzer
type AnalysisHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewAnalysisHandler creates an analysis handler
func NewAnalysisHandler(eng *engine.Engine, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{engine: eng, logger: logger}
}

// Run handles POST /analysis/run
func (h *AnalysisHandler) Run(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.engine.AnalyzeScene())
}

// List handles GET /notifications
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.engine.Analyzer().Notifications())
}

// Dismiss handles POST /notifications/{notificationID}/dismiss
func (h *AnalysisHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "notificationID")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "notification id is required")
		return
	}
	h.engine.DismissNotification(id)
	api.Success(w, http.StatusNoContent, nil)
}

// RemediateRequest is the body for POST /notifications/remediate
type RemediateRequest struct {
	Type     string         `json:"type" validate:"required"`
	TargetID string         `json:"targetId" validate:"required"`
	Params   map[string]any `json:"params,omitempty"`
}

// Remediate handles POST /notifications/remediate
func (h *AnalysisHandler) Remediate(w http.ResponseWriter, r *http.Request) {
	var req RemediateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	action := &entities.RemediationAction{
		Type:     req.Type,
		TargetID: req.TargetID,
		Params:   req.Params,
	}
	if err := h.engine.ApplyRemediation(action); err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusOK, h.engine.Analyzer().Notifications())
}
