package analysis

import (
	"fmt"
	"math"

	"cascade-engine/domain/core/entities"
	"cascade-engine/domain/core/valueobjects"
)

// elevationGapTolerance separates numerical noise from a real mismatch
// at a connection point.
const elevationGapTolerance = 0.001

func (a *Analyzer) analyzeConnections(hydraulics []*entities.SceneObject) []entities.DesignNotification {
	var out []entities.DesignNotification

	byID := make(map[valueobjects.ObjectID]*entities.SceneObject, len(hydraulics))
	for _, obj := range hydraulics {
		byID[obj.ID()] = obj
	}

	for _, obj := range hydraulics {
		h := obj.Hydraulic()

		if len(hydraulics) > 1 && h.UpstreamID.IsZero() && h.DownstreamID.IsZero() {
			out = append(out, a.finding("isolated", obj, entities.SeverityInfo,
				entities.CategoryConnections,
				"Isolated Element",
				"This element is not connected to the hydraulic chain.",
				"Connect it upstream or downstream, or remove it from the design."))
		}

		if h.DownstreamID.IsZero() {
			continue
		}
		next, ok := byID[h.DownstreamID]
		if !ok {
			out = append(out, a.finding("dangling-link", obj, entities.SeverityError,
				entities.CategoryConnections,
				"Broken Connection",
				"The downstream reference points at an element that no longer exists.",
				"Disconnect and reconnect this element."))
			continue
		}

		gap := math.Abs(h.EndElevation - next.Hydraulic().StartElevation)
		if gap <= elevationGapTolerance {
			continue
		}
		severity := entities.SeverityWarning
		recommendation := "Adjust the downstream invert or insert a drop structure."
		if gap >= a.cfg.ElevationGapError {
			severity = entities.SeverityError
			recommendation = "A gap this large breaks flow continuity; realign the inverts."
		}
		out = append(out, a.finding("elevation-gap", obj, severity,
			entities.CategoryConnections,
			"Elevation Gap at Connection",
			fmt.Sprintf("Invert elevation jumps %.0f cm between %s and %s.",
				gap*100, obj.Name(), next.Name()),
			recommendation))
	}
	return out
}
