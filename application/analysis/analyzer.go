// Package analysis derives severity-tagged design notifications from the
// current scene graph. The analyzer is stateless between passes: every
// call to AnalyzeScene regenerates the full notification set from the
// hydraulic and geometric heuristics, with no diffing against the
// previous set.
package analysis

import (
	"sync"

	"go.uber.org/zap"

	"cascade-engine/application/history"
	"cascade-engine/application/store"
	domainconfig "cascade-engine/domain/config"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
)

// Analyzer runs the rule battery over the scene
type Analyzer struct {
	store   *store.Store
	history *history.Engine
	cfg     *domainconfig.DomainConfig
	logger  *zap.Logger

	mu            sync.Mutex
	notifications []entities.DesignNotification
	dismissed     map[string]bool
}

// New creates an analyzer over the given store
func New(s *store.Store, h *history.Engine, cfg *domainconfig.DomainConfig, logger *zap.Logger) *Analyzer {
	if cfg == nil {
		cfg = domainconfig.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		store:     s,
		history:   h,
		cfg:       cfg,
		logger:    logger,
		dismissed: make(map[string]bool),
	}
}

// AnalyzeScene applies the full rule battery to every hydraulic element
// and then walks the chain structure for connection issues. The resulting
// set replaces the previous one wholesale.
func (a *Analyzer) AnalyzeScene() []entities.DesignNotification {
	var findings []entities.DesignNotification

	hydraulics := a.store.HydraulicObjects()
	for _, obj := range hydraulics {
		switch obj.Kind() {
		case entities.KindChannel:
			findings = append(findings, a.analyzeChannel(obj)...)
		case entities.KindTransition:
			findings = append(findings, a.analyzeTransition(obj)...)
		case entities.KindChute:
			findings = append(findings, a.analyzeChute(obj)...)
		}
	}
	findings = append(findings, a.analyzeConnections(hydraulics)...)

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range findings {
		if a.dismissed[findings[i].ID] {
			findings[i].Dismissed = true
		}
	}
	a.notifications = findings
	return append([]entities.DesignNotification(nil), findings...)
}

// Notifications returns the result of the last analysis pass
func (a *Analyzer) Notifications() []entities.DesignNotification {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]entities.DesignNotification(nil), a.notifications...)
}

// Dismiss hides a notification. Dismissal is keyed by the notification's
// deterministic id, so it survives regeneration as long as the underlying
// finding persists.
func (a *Analyzer) Dismiss(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dismissed[id] = true
	for i := range a.notifications {
		if a.notifications[i].ID == id {
			a.notifications[i].Dismissed = true
		}
	}
}

// notificationID builds a deterministic id from the rule and target so a
// finding keeps its identity (and dismissal) across regeneration passes.
func notificationID(rule string, target valueobjects.ObjectID) string {
	return rule + ":" + target.String()
}
