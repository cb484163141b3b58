// Package engine is the application facade over the scene mutation
// subsystems. Every public mutation follows the same protocol: snapshot
// before the action, apply the change, run the consistency passes the
// change demands, then commit the snapshot so undo lands on the state
// before the action.
package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"cascade-engine/application/analysis"
	"cascade-engine/application/bridge"
	"cascade-engine/application/history"
	"cascade-engine/application/ports"
	"cascade-engine/application/propagation"
	"cascade-engine/application/store"
	domainconfig "cascade-engine/domain/config"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
)

// Engine wires the store, history, propagator, kernel bridge and the
// notification analyzer into one mutation surface.
type Engine struct {
	store      *store.Store
	history    *history.Engine
	propagator *propagation.Propagator
	bridge     *bridge.Bridge
	analyzer   *analysis.Analyzer
	cfg        *domainconfig.DomainConfig
	logger     *zap.Logger

	// mu serializes public mutations. The history engine's two-phase
	// protocol assumes one mutation in flight at a time.
	mu sync.Mutex
}

// New assembles an engine around the given kernel client
func New(kernel ports.KernelClient, cfg *domainconfig.DomainConfig, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = domainconfig.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := store.New(logger)
	h := history.NewEngine(s, cfg.MaxHistoryEntries, logger)
	// Baseline entry so the first user action can be undone.
	h.SaveToHistory("New project")
	return &Engine{
		store:      s,
		history:    h,
		propagator: propagation.New(s, logger),
		bridge:     bridge.New(kernel, s, h, cfg, logger),
		analyzer:   analysis.New(s, h, cfg, logger),
		cfg:        cfg,
		logger:     logger,
	}
}

func (e *Engine) Store() *store.Store                 { return e.store }
func (e *Engine) History() *history.Engine            { return e.history }
func (e *Engine) Bridge() *bridge.Bridge              { return e.bridge }
func (e *Engine) Analyzer() *analysis.Analyzer        { return e.analyzer }
func (e *Engine) Propagator() *propagation.Propagator { return e.propagator }

// AddObject inserts a new object and records a history entry
func (e *Engine) AddObject(obj *entities.SceneObject) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.AddObject(obj); err != nil {
		return err
	}
	e.history.SaveToHistory("Add " + obj.Name())
	e.analyzer.AnalyzeScene()
	return nil
}

// CreateObject builds a fresh object of the given kind and adds it
func (e *Engine) CreateObject(kind entities.ObjectKind, name string) (*entities.SceneObject, error) {
	obj, err := entities.NewSceneObject(kind, name)
	if err != nil {
		return nil, err
	}
	if err := e.AddObject(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// UpdateObject applies a partial update under the history protocol and
// immediately runs the consistency passes the change calls for. Derived
// values on every affected element are settled before this returns; there
// is no deferred recalculation.
func (e *Engine) UpdateObject(id valueobjects.ObjectID, req store.UpdateRequest, label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.SaveStateBeforeAction()
	change, err := e.store.UpdateObject(id, req)
	if err != nil {
		e.history.DiscardPending()
		return err
	}
	e.settle(id, change)
	if label == "" {
		label = "Edit object"
	}
	e.history.CommitToHistory(label)
	e.analyzer.AnalyzeScene()
	return nil
}

// settle runs the propagation passes a committed change requires
func (e *Engine) settle(id valueobjects.ObjectID, change store.Change) {
	if !change.Any() {
		return
	}
	if change.PositionAffecting || change.ConnectivityAffecting {
		if err := e.propagator.PropagatePositions(id); err != nil {
			e.logger.Error("downstream propagation failed",
				zap.String("id", id.String()), zap.Error(err))
		}
		if err := e.propagator.PropagatePositionsUpstream(id); err != nil {
			e.logger.Error("upstream propagation failed",
				zap.String("id", id.String()), zap.Error(err))
		}
	}
	if change.SectionAffecting {
		obj, err := e.store.GetObject(id)
		if err == nil && obj.Kind() == entities.KindChannel {
			if err := e.propagator.SyncTransitionsWithChannel(id); err != nil {
				e.logger.Error("transition section sync failed",
					zap.String("id", id.String()), zap.Error(err))
			}
			if err := e.propagator.SyncTransitionElevationsFromDownstream(id); err != nil {
				e.logger.Error("transition elevation sync failed",
					zap.String("id", id.String()), zap.Error(err))
			}
		}
	}
}

// DeleteObject removes an object, unlinking it from the chain and
// releasing its kernel shape first.
func (e *Engine) DeleteObject(ctx context.Context, id valueobjects.ObjectID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	obj, err := e.store.GetObject(id)
	if err != nil {
		return err
	}
	e.history.SaveStateBeforeAction()

	if h := obj.Hydraulic(); h != nil {
		if !h.DownstreamID.IsZero() {
			if err := e.propagator.DisconnectElements(id); err != nil {
				e.logger.Warn("downstream unlink failed", zap.Error(err))
			}
		}
		if !h.UpstreamID.IsZero() {
			if err := e.propagator.DisconnectElements(h.UpstreamID); err != nil {
				e.logger.Warn("upstream unlink failed", zap.Error(err))
			}
		}
	}
	e.bridge.CleanupShape(ctx, id)

	if err := e.store.DeleteObject(id); err != nil {
		e.history.DiscardPending()
		return err
	}
	e.history.CommitToHistory("Delete " + obj.Name())
	e.analyzer.AnalyzeScene()
	return nil
}

// ConnectElements wires two hydraulic elements under the history protocol
func (e *Engine) ConnectElements(upstreamID, downstreamID valueobjects.ObjectID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.SaveStateBeforeAction()
	if err := e.propagator.ConnectElements(upstreamID, downstreamID); err != nil {
		e.history.DiscardPending()
		return err
	}
	e.history.CommitToHistory("Connect elements")
	e.analyzer.AnalyzeScene()
	return nil
}

// DisconnectElements severs an element's downstream link
func (e *Engine) DisconnectElements(upstreamID valueobjects.ObjectID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.SaveStateBeforeAction()
	if err := e.propagator.DisconnectElements(upstreamID); err != nil {
		e.history.DiscardPending()
		return err
	}
	e.history.CommitToHistory("Disconnect elements")
	e.analyzer.AnalyzeScene()
	return nil
}

// MergeHistory squashes all entries after the given index into one
func (e *Engine) MergeHistory(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.MergeHistory(index)
}

// AnalyzeScene re-runs the full notification analysis
func (e *Engine) AnalyzeScene() []entities.DesignNotification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer.AnalyzeScene()
}

// DismissNotification marks a finding as acknowledged
func (e *Engine) DismissNotification(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.analyzer.Dismiss(id)
}

// ApplyRemediation executes a notification's suggested fix
func (e *Engine) ApplyRemediation(action *entities.RemediationAction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer.ApplyRemediation(action)
}

// Undo steps the scene back one history entry
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.history.Undo() {
		return false
	}
	e.analyzer.AnalyzeScene()
	return true
}

// Redo steps the scene forward one history entry
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.history.Redo() {
		return false
	}
	e.analyzer.AnalyzeScene()
	return true
}
