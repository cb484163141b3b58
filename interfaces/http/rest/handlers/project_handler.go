package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cascade-engine/application/engine"
	"cascade-engine/infrastructure/persistence/sqlite"
	"cascade-engine/pkg/api"
)

// ProjectHandler serves project save/load against the local database
type ProjectHandler struct {
	engine   *engine.Engine
	projects *sqlite.ProjectStore
	logger   *zap.Logger
}

// NewProjectHandler creates a project handler
func NewProjectHandler(eng *engine.Engine, projects *sqlite.ProjectStore, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{engine: eng, projects: projects, logger: logger}
}

// List handles GET /projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.projects.ListProjects(r.Context())
	if err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusOK, infos)
}

// Save handles POST /projects/{projectName}/save
func (h *ProjectHandler) Save(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "projectName")
	data := h.engine.GetSceneData()
	if err := h.projects.SaveProject(r.Context(), name, data); err != nil {
		api.AppError(w, err)
		return
	}
	h.logger.Info("project saved",
		zap.String("name", name),
		zap.Int("objects", len(data.Objects)))
	api.Success(w, http.StatusNoContent, nil)
}

// Load handles POST /projects/{projectName}/load
func (h *ProjectHandler) Load(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "projectName")
	data, err := h.projects.LoadProject(r.Context(), name)
	if err != nil {
		api.AppError(w, err)
		return
	}
	if err := h.engine.LoadScene(r.Context(), data); err != nil {
		api.AppError(w, err)
		return
	}
	h.logger.Info("project loaded",
		zap.String("name", name),
		zap.Int("objects", h.engine.Store().Count()))
	api.Success(w, http.StatusOK, h.engine.GetSceneData())
}

// Delete handles DELETE /projects/{projectName}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "projectName")
	if err := h.projects.DeleteProject(r.Context(), name); err != nil {
		api.AppError(w, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}
