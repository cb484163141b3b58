package analysis

import (
	"fmt"
	"math"
	"time"

	"cascade-engine/domain/core/entities"
)

func (a *Analyzer) analyzeChannel(obj *entities.SceneObject) []entities.DesignNotification {
	h := obj.Hydraulic()
	var out []entities.DesignNotification

	if h.Slope >= a.cfg.SteepSlopeError {
		out = append(out, a.finding("slope-excessive", obj, entities.SeverityError,
			entities.CategoryHydraulics,
			"Excessive Channel Slope",
			fmt.Sprintf("Slope %.3f exceeds the limit for an open channel (%.3f).",
				h.Slope, a.cfg.SteepSlopeError),
			"Replace this reach with a chute or drop structure."))
	} else if h.Slope >= a.cfg.SteepSlopeWarning {
		out = append(out, a.finding("slope-steep", obj, entities.SeverityWarning,
			entities.CategoryHydraulics,
			"Steep Channel Slope",
			fmt.Sprintf("Slope %.3f is above the recommended maximum of %.3f for lined channels.",
				h.Slope, a.cfg.SteepSlopeWarning),
			"Consider a chute with energy dissipation instead of a steep channel."))
	}

	if h.Section.Freeboard < a.cfg.MinFreeboard {
		out = append(out, a.finding("freeboard-low", obj, entities.SeverityWarning,
			entities.CategoryHydraulics,
			"Insufficient Freeboard",
			fmt.Sprintf("Freeboard %.2f m is below the %.2f m minimum.",
				h.Section.Freeboard, a.cfg.MinFreeboard),
			"Increase the section depth or the freeboard allowance."))
	}

	// Velocity and Froude estimates need a design discharge; without one
	// the Manning heuristics are skipped.
	if h.Discharge > 0 && h.Slope > 0 {
		depth := normalDepthEstimate(h)
		velocity := h.Section.ManningVelocity(depth, h.Slope)
		if velocity > a.cfg.MaxVelocity {
			out = append(out, a.finding("velocity-high", obj, entities.SeverityWarning,
				entities.CategoryHydraulics,
				"High Flow Velocity",
				fmt.Sprintf("Estimated velocity %.1f m/s exceeds the %.1f m/s erosion limit.",
					velocity, a.cfg.MaxVelocity),
				"Flatten the slope or armor the channel lining."))
		}
		froude := h.Section.FroudeNumber(velocity, depth)
		if froude >= a.cfg.FroudeOscillatingLow && froude <= a.cfg.FroudeOscillatingHi {
			out = append(out, a.finding("froude-oscillating", obj, entities.SeverityInfo,
				entities.CategoryHydraulics,
				"Oscillating Flow Regime",
				fmt.Sprintf("Froude number %.1f falls in the unstable 2.5-4.5 band.", froude),
				"An oscillating jump erodes banks; adjust slope or section to leave the band."))
		}
	}
	return out
}

func (a *Analyzer) analyzeTransition(obj *entities.SceneObject) []entities.DesignNotification {
	h := obj.Hydraulic()
	var out []entities.DesignNotification

	length := h.EndStation - h.StartStation
	if length < a.cfg.MinTransitionLength {
		out = append(out, a.finding("transition-short", obj, entities.SeverityWarning,
			entities.CategoryGeometry,
			"Transition Too Short",
			fmt.Sprintf("Length %.2f m is below the %.2f m minimum.",
				length, a.cfg.MinTransitionLength),
			"Lengthen the transition for gradual flow contraction or expansion."))
	}

	if h.OutletSection != nil && length > 0 {
		widthChange := h.OutletSection.BottomWidth - h.Section.BottomWidth
		var maxAngle float64
		var rule, title string
		if widthChange > 0 {
			maxAngle = a.cfg.MaxExpansionAngle
			rule, title = "transition-expansion", "Transition Expansion Too Abrupt"
		} else {
			maxAngle = a.cfg.MaxContractionAngle
			rule, title = "transition-contraction", "Transition Contraction Too Abrupt"
		}
		required := (math.Abs(widthChange) / 2) / math.Tan(maxAngle*math.Pi/180)
		if length < required {
			out = append(out, a.finding(rule, obj, entities.SeverityWarning,
				entities.CategoryGeometry,
				title,
				fmt.Sprintf("Width change of %.2f m over %.2f m exceeds the %.1f° wall angle limit (needs %.2f m).",
					math.Abs(widthChange), length, maxAngle, required),
				"Lengthen the transition to keep the wall angle within limits."))
		}
	}
	return out
}

func (a *Analyzer) analyzeChute(obj *entities.SceneObject) []entities.DesignNotification {
	h := obj.Hydraulic()
	var out []entities.DesignNotification

	if h.Discharge > 0 && h.Drop > 0 {
		y1, velocity := chuteToeConditions(h)
		froude := h.Section.FroudeNumber(velocity, y1)

		if h.Basin == nil && froude > 1.7 {
			recommended := entities.SelectBasinType(froude, velocity)
			out = append(out, entities.DesignNotification{
				ID:         notificationID("basin-missing", obj.ID()),
				TargetID:   obj.ID(),
				TargetName: obj.Name(),
				Severity:   entities.SeverityWarning,
				Category:   entities.CategoryStructures,
				Title:      "Missing Stilling Basin",
				Message: fmt.Sprintf("Chute toe Froude number %.1f forms a %s hydraulic jump with no energy dissipation.",
					froude, entities.ClassifyJump(froude)),
				Recommendation: fmt.Sprintf("Add a %s stilling basin at the chute outlet.", recommended),
				Remediation: &entities.RemediationAction{
					Type:     entities.RemediationAddStillingBasin,
					TargetID: obj.ID().String(),
					Params:   map[string]any{"basinType": string(recommended)},
				},
				CreatedAt: time.Now(),
			})
		}

		if h.Basin != nil {
			low, high := h.Basin.BasinType.FroudeRange()
			if froude < low || froude > high {
				out = append(out, a.finding("basin-incompatible", obj, entities.SeverityError,
					entities.CategoryStructures,
					"Incompatible Stilling Basin",
					fmt.Sprintf("Basin %s is designed for Froude %.1f-%.1f but the toe Froude number is %.1f.",
						h.Basin.BasinType, low, high, froude),
					"Redesign the basin for the actual inflow conditions."))
			}
		}
	}
	return out
}

// normalDepthEstimate approximates flow depth for the Manning heuristics.
// A full normal-depth iteration is overkill for a design warning; flow at
// the section's design depth (total depth minus freeboard) bounds the
// velocity from above for the slopes the rules care about.
func normalDepthEstimate(h *entities.HydraulicData) float64 {
	depth := h.Section.Depth - h.Section.Freeboard
	if depth <= 0 {
		depth = h.Section.Depth
	}
	return depth
}

// chuteToeConditions estimates the contracted depth and velocity at the
// chute toe from the drop energy, ignoring approach velocity and friction.
func chuteToeConditions(h *entities.HydraulicData) (depth, velocity float64) {
	velocity = math.Sqrt(2 * 9.81 * h.Drop)
	width := h.Section.BottomWidth
	if width <= 0 {
		width = 1
	}
	unitDischarge := h.Discharge / width
	depth = unitDischarge / velocity
	if depth <= 0 {
		depth = 0.01
	}
	return depth, velocity
}

func (a *Analyzer) finding(
	rule string,
	obj *entities.SceneObject,
	severity entities.Severity,
	category, title, message, recommendation string,
) entities.DesignNotification {
	return entities.DesignNotification{
		ID:             notificationID(rule, obj.ID()),
		TargetID:       obj.ID(),
		TargetName:     obj.Name(),
		Severity:       severity,
		Category:       category,
		Title:          title,
		Message:        message,
		Recommendation: recommendation,
		CreatedAt:      time.Now(),
	}
}
