package propagation

import (
	"cascade-engine/application/store"
	"cascade-engine/domain/core/valueobjects"
	pkgerrors "cascade-engine/pkg/errors"
)

// ConnectElements wires upstream -> downstream and propagates continuity
// through the extended chain. A connection that would close a cycle, or
// that would give either element a second neighbor on the same side, is
// rejected before any pointer is written.
func (p *Propagator) ConnectElements(upstreamID, downstreamID valueobjects.ObjectID) error {
	if upstreamID.Equals(downstreamID) {
		return pkgerrors.NewValidation("cannot connect an element to itself")
	}
	up, err := p.store.GetObject(upstreamID)
	if err != nil {
		return err
	}
	down, err := p.store.GetObject(downstreamID)
	if err != nil {
		return err
	}
	uh, dh := up.Hydraulic(), down.Hydraulic()
	if uh == nil || dh == nil {
		return pkgerrors.NewValidation("both elements must be hydraulic")
	}
	if !uh.DownstreamID.IsZero() {
		return pkgerrors.NewConflict("upstream element already has a downstream neighbor")
	}
	if !dh.UpstreamID.IsZero() {
		return pkgerrors.NewConflict("downstream element already has an upstream neighbor")
	}

	// Walking downstream from the proposed tail must never reach the
	// proposed head, otherwise the connection closes a cycle.
	if p.reachesDownstream(downstreamID, upstreamID) {
		return pkgerrors.NewValidation("connection would create a cycle in the hydraulic chain")
	}

	if _, err := p.store.UpdateObject(upstreamID, store.UpdateRequest{
		Hydraulic: &store.HydraulicPatch{DownstreamID: &downstreamID},
	}); err != nil {
		return err
	}
	if _, err := p.store.UpdateObject(downstreamID, store.UpdateRequest{
		Hydraulic: &store.HydraulicPatch{UpstreamID: &upstreamID},
	}); err != nil {
		return err
	}
	return p.PropagatePositions(upstreamID)
}

// DisconnectElements removes the downstream link of the given element
func (p *Propagator) DisconnectElements(upstreamID valueobjects.ObjectID) error {
	up, err := p.store.GetObject(upstreamID)
	if err != nil {
		return err
	}
	uh := up.Hydraulic()
	if uh == nil {
		return pkgerrors.NewValidation("object is not a hydraulic element: " + upstreamID.String())
	}
	if uh.DownstreamID.IsZero() {
		return nil
	}
	none := valueobjects.ObjectID{}
	if down, err := p.store.GetObject(uh.DownstreamID); err == nil {
		if dh := down.Hydraulic(); dh != nil && dh.UpstreamID.Equals(upstreamID) {
			if _, err := p.store.UpdateObject(down.ID(), store.UpdateRequest{
				Hydraulic: &store.HydraulicPatch{UpstreamID: &none},
			}); err != nil {
				return err
			}
		}
	}
	_, err = p.store.UpdateObject(upstreamID, store.UpdateRequest{
		Hydraulic: &store.HydraulicPatch{DownstreamID: &none},
	})
	return err
}

// reachesDownstream reports whether walking downstream from `from` ever
// arrives at `target`.
func (p *Propagator) reachesDownstream(from, target valueobjects.ObjectID) bool {
	visited := map[string]bool{}
	current := from
	for !current.IsZero() && !visited[current.String()] {
		if current.Equals(target) {
			return true
		}
		visited[current.String()] = true
		obj, err := p.store.GetObject(current)
		if err != nil {
			return false
		}
		h := obj.Hydraulic()
		if h == nil {
			return false
		}
		current = h.DownstreamID
	}
	return false
}
