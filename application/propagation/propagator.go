// Package propagation keeps the station/elevation fields of connected
// hydraulic elements mutually consistent. Elements form a forest of simple
// chains: each has at most one upstream and one downstream neighbor, and
// cycle-forming connections are rejected at edit time.
package propagation

import (
	"go.uber.org/zap"

	"cascade-engine/application/store"
	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// Propagator recomputes chain continuity after an element changes
type Propagator struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a propagator over the given store
func New(s *store.Store, logger *zap.Logger) *Propagator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Propagator{store: s, logger: logger}
}

// PropagatePositions recomputes the end station/elevation of the element
// at startID from its own per-type rule, then cascades downstream:
// each neighbor's start is overwritten with the predecessor's end, its end
// recomputed, and so on to the chain tail. The visited set is a hard stop
// against mis-wired graphs; a cycle is logged and propagation halts.
func (p *Propagator) PropagatePositions(startID valueobjects.ObjectID) error {
	obj, err := p.store.GetObject(startID)
	if err != nil {
		return err
	}
	if obj.Hydraulic() == nil {
		return pkgerrors.NewValidation("object is not a hydraulic element: " + startID.String())
	}
	if err := p.store.RecomputeEnd(startID); err != nil {
		return err
	}

	visited := map[string]bool{startID.String(): true}
	current := obj
	for {
		ch := current.Hydraulic()
		if ch.DownstreamID.IsZero() {
			return nil
		}
		if visited[ch.DownstreamID.String()] {
			p.logger.Error("cycle detected in hydraulic chain, propagation halted",
				zap.String("at", ch.DownstreamID.String()))
			return nil
		}
		visited[ch.DownstreamID.String()] = true

		next, err := p.store.GetObject(ch.DownstreamID)
		if err != nil {
			// Dangling downstream pointer: stop at the break.
			p.logger.Warn("downstream element missing, chain truncated",
				zap.String("from", current.ID().String()),
				zap.String("missing", ch.DownstreamID.String()))
			return nil
		}
		if next.Hydraulic() == nil {
			return nil
		}
		start := ch.EndStation
		elevation := ch.EndElevation
		if _, err := p.store.UpdateObject(next.ID(), store.UpdateRequest{
			Hydraulic: &store.HydraulicPatch{
				StartStation:   &start,
				StartElevation: &elevation,
			},
		}); err != nil {
			return err
		}
		if err := p.store.RecomputeEnd(next.ID()); err != nil {
			return err
		}
		current = next
	}
}

// PropagatePositionsUpstream updates an upstream transition's stored end
// station/elevation to match the element's start after the start position
// changed. Deliberately a single step: cascading further upstream is not
// part of the continuity contract.
func (p *Propagator) PropagatePositionsUpstream(startID valueobjects.ObjectID) error {
	obj, err := p.store.GetObject(startID)
	if err != nil {
		return err
	}
	h := obj.Hydraulic()
	if h == nil || h.UpstreamID.IsZero() {
		return nil
	}
	up, err := p.store.GetObject(h.UpstreamID)
	if err != nil {
		return nil
	}
	if up.Kind() != entities.KindTransition {
		return nil
	}
	endStation := h.StartStation
	endElevation := h.StartElevation
	_, err = p.store.UpdateObject(up.ID(), store.UpdateRequest{
		Hydraulic: &store.HydraulicPatch{
			EndStation:   &endStation,
			EndElevation: &endElevation,
		},
	})
	return err
}

// RecalculateHydraulicChain restores chain consistency from scratch by
// propagating from every root element, used after bulk edits such as a
// project load.
func (p *Propagator) RecalculateHydraulicChain() {
	for _, obj := range p.store.HydraulicObjects() {
		if obj.Hydraulic().UpstreamID.IsZero() {
			if err := p.PropagatePositions(obj.ID()); err != nil {
				p.logger.Warn("chain recalculation failed for root",
					zap.String("root", obj.ID().String()),
					zap.Error(err))
			}
		}
	}
}

// SyncTransitionsWithChannel mirrors an edited channel's cross-section
// onto its adjacent transitions: the upstream transition's outlet and the
// downstream transition's inlet copy the channel section.
func (p *Propagator) SyncTransitionsWithChannel(channelID valueobjects.ObjectID) error {
	channel, err := p.store.GetObject(channelID)
	if err != nil {
		return err
	}
	h := channel.Hydraulic()
	if h == nil {
		return pkgerrors.NewValidation("object is not a hydraulic element: " + channelID.String())
	}

	if up := p.transitionAt(h.UpstreamID); up != nil {
		section := h.Section
		if _, err := p.store.UpdateObject(up.ID(), store.UpdateRequest{
			Hydraulic: &store.HydraulicPatch{OutletSection: &section},
		}); err != nil {
			return err
		}
	}
	if down := p.transitionAt(h.DownstreamID); down != nil {
		section := h.Section
		if _, err := p.store.UpdateObject(down.ID(), store.UpdateRequest{
			Hydraulic: &store.HydraulicPatch{Section: &section},
		}); err != nil {
			return err
		}
	}
	return nil
}

// SyncTransitionElevationsFromDownstream mirrors a channel's start
// elevation onto its upstream transition's stored end elevation after the
// channel elevation is edited directly.
func (p *Propagator) SyncTransitionElevationsFromDownstream(channelID valueobjects.ObjectID) error {
	channel, err := p.store.GetObject(channelID)
	if err != nil {
		return err
	}
	h := channel.Hydraulic()
	if h == nil {
		return pkgerrors.NewValidation("object is not a hydraulic element: " + channelID.String())
	}
	if up := p.transitionAt(h.UpstreamID); up != nil {
		endStation := h.StartStation
		endElevation := h.StartElevation
		if _, err := p.store.UpdateObject(up.ID(), store.UpdateRequest{
			Hydraulic: &store.HydraulicPatch{
				EndStation:   &endStation,
				EndElevation: &endElevation,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Propagator) transitionAt(id valueobjects.ObjectID) *entities.SceneObject {
	if id.IsZero() {
		return nil
	}
	obj, err := p.store.GetObject(id)
	if err != nil || obj.Kind() != entities.KindTransition {
		return nil
	}
	return obj
}
