// Package rest assembles the chi router over the engine API.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"cascade-engine/application/engine"
	"cascade-engine/infrastructure/persistence/sqlite"
	"cascade-engine/interfaces/http/rest/handlers"
	"cascade-engine/interfaces/http/rest/middleware"
	"cascade-engine/pkg/api"
	"cascade-engine/pkg/observability"
)

// Router builds the HTTP surface of the engine
type Router struct {
	engine   *engine.Engine
	projects *sqlite.ProjectStore
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewRouter creates a router instance. The project store and metrics
// collector are optional; the matching routes are omitted when nil.
func NewRouter(
	eng *engine.Engine,
	projects *sqlite.ProjectStore,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		engine:   eng,
		projects: projects,
		metrics:  metrics,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
		router.Use(rt.sceneGauges)
	}

	// The API serves a local desktop frontend
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "tauri://localhost"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		sceneHandler := handlers.NewSceneHandler(rt.engine, rt.logger)
		r.Get("/scene", sceneHandler.GetScene)
		r.Put("/selection", sceneHandler.SetSelection)
		r.Route("/objects", func(r chi.Router) {
			r.Get("/", sceneHandler.ListObjects)
			r.Post("/", sceneHandler.CreateObject)
			r.Get("/{objectID}", sceneHandler.GetObject)
			r.Patch("/{objectID}", sceneHandler.UpdateObject)
			r.Delete("/{objectID}", sceneHandler.DeleteObject)
		})

		geometryHandler := handlers.NewGeometryHandler(rt.engine, rt.logger)
		r.Route("/shapes", func(r chi.Router) {
			r.Post("/primitives", geometryHandler.CreatePrimitive)
			r.Post("/boolean", geometryHandler.Boolean)
			r.Post("/import", geometryHandler.ImportStep)
			r.Post("/{objectID}/modify", geometryHandler.Modify)
			r.Put("/{objectID}/parameters", geometryHandler.UpdateParameters)
		})

		chainHandler := handlers.NewChainHandler(rt.engine, rt.logger)
		r.Route("/chain", func(r chi.Router) {
			r.Post("/connect", chainHandler.Connect)
			r.Post("/disconnect", chainHandler.Disconnect)
			r.Post("/recalculate", chainHandler.Recalculate)
		})

		historyHandler := handlers.NewHistoryHandler(rt.engine, rt.logger)
		r.Route("/history", func(r chi.Router) {
			r.Get("/", historyHandler.Get)
			r.Post("/undo", historyHandler.Undo)
			r.Post("/redo", historyHandler.Redo)
			r.Post("/merge", historyHandler.Merge)
		})

		analysisHandler := handlers.NewAnalysisHandler(rt.engine, rt.logger)
		r.Post("/analysis/run", analysisHandler.Run)
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", analysisHandler.List)
			r.Post("/remediate", analysisHandler.Remediate)
			r.Post("/{notificationID}/dismiss", analysisHandler.Dismiss)
		})

		if rt.projects != nil {
			projectHandler := handlers.NewProjectHandler(rt.engine, rt.projects, rt.logger)
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/{projectName}/save", projectHandler.Save)
				r.Post("/{projectName}/load", projectHandler.Load)
				r.Delete("/{projectName}", projectHandler.Delete)
			})
		}
	})

	return router
}

// sceneGauges refreshes the scene-level gauges after each request, so the
// metrics endpoint reflects the state the last mutation left behind.
func (rt *Router) sceneGauges(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		rt.metrics.ObjectsInScene.Set(float64(rt.engine.Store().Count()))
		rt.metrics.HistoryDepth.Set(float64(rt.engine.History().Len()))
		counts := make(map[string]int)
		for _, n := range rt.engine.Analyzer().Notifications() {
			counts[string(n.Severity)]++
		}
		for _, severity := range []string{"info", "warning", "error"} {
			rt.metrics.Notifications.WithLabelValues(severity).Set(float64(counts[severity]))
		}
	})
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}
