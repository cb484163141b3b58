package entities

import (
	"math"

	"cascade-engine/domain/core/valueobjects"
)

// StillingBasinType enumerates the USBR basin variants plus the
// Saint Anthony Falls basin
type StillingBasinType string

const (
	BasinTypeI   StillingBasinType = "type-i"
	BasinTypeII  StillingBasinType = "type-ii"
	BasinTypeIII StillingBasinType = "type-iii"
	BasinTypeIV  StillingBasinType = "type-iv"
	BasinSAF     StillingBasinType = "saf"
)

// SelectBasinType picks a basin type from the inflow Froude number and
// velocity, following the USBR selection chart.
func SelectBasinType(froude, velocity float64) StillingBasinType {
	switch {
	case froude < 1.7:
		return BasinTypeI
	case froude < 2.5:
		if velocity <= 10.0 {
			return BasinSAF
		}
		return BasinTypeII
	case froude < 4.5:
		if velocity <= 15.0 {
			return BasinTypeII
		}
		return BasinTypeIV
	case velocity <= 15.0:
		return BasinTypeIII
	default:
		return BasinTypeII
	}
}

// FroudeRange returns the inflow Froude band a basin type is designed for
func (t StillingBasinType) FroudeRange() (low, high float64) {
	switch t {
	case BasinTypeI:
		return 1.0, 1.7
	case BasinTypeII:
		return 2.5, 4.5
	case BasinTypeIII:
		return 4.5, 17.0
	case BasinTypeIV:
		return 2.5, 4.5
	case BasinSAF:
		return 1.7, 17.0
	default:
		return 0, 0
	}
}

// HydraulicJumpType classifies a jump by inflow Froude number
// (Chow 1959 bands)
type HydraulicJumpType string

const (
	JumpNone        HydraulicJumpType = "none"
	JumpUndular     HydraulicJumpType = "undular"
	JumpWeak        HydraulicJumpType = "weak"
	JumpOscillating HydraulicJumpType = "oscillating"
	JumpSteady      HydraulicJumpType = "steady"
	JumpStrong      HydraulicJumpType = "strong"
)

// ClassifyJump returns the jump regime for an inflow Froude number
func ClassifyJump(froude float64) HydraulicJumpType {
	switch {
	case froude <= 1.0:
		return JumpNone
	case froude <= 1.7:
		return JumpUndular
	case froude <= 2.5:
		return JumpWeak
	case froude <= 4.5:
		return JumpOscillating
	case froude <= 9.0:
		return JumpSteady
	default:
		return JumpStrong
	}
}

// ConjugateDepth solves the Belanger equation for the sequent depth of a
// hydraulic jump: y2 = y1/2 * (sqrt(1 + 8 Fr1^2) - 1)
func ConjugateDepth(y1, froude float64) float64 {
	if y1 <= 0 || froude <= 1.0 {
		return y1
	}
	return y1 * 0.5 * (math.Sqrt(1+8*froude*froude) - 1)
}

// StillingBasinConfig is a fully proportioned energy-dissipation basin
// attached to a chute outlet. Dimensions are in meters.
type StillingBasinConfig struct {
	BasinType         StillingBasinType `json:"basinType"`
	Length            float64           `json:"length"`
	EntryDepth        float64           `json:"entryDepth"`
	SequentDepth      float64           `json:"sequentDepth"`
	Froude            float64           `json:"froude"`
	ChuteBlockHeight  float64           `json:"chuteBlockHeight"`
	ChuteBlockWidth   float64           `json:"chuteBlockWidth"`
	BaffleBlockHeight float64           `json:"baffleBlockHeight"`
	BaffleBlockWidth  float64           `json:"baffleBlockWidth"`
	BaffleOffset      float64           `json:"baffleOffset"`
	EndSillHeight     float64           `json:"endSillHeight"`
}

// Clone returns a copy of the basin config
func (b *StillingBasinConfig) Clone() *StillingBasinConfig {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// HydraulicData carries the chain and flow parameters of a channel,
// transition or chute. Start station/elevation are authoritative inputs;
// end station/elevation are derived by the chain propagator except for
// transitions, whose endpoints are stored directly.
type HydraulicData struct {
	Section       valueobjects.CrossSection  `json:"section"`
	OutletSection *valueobjects.CrossSection `json:"outletSection,omitempty"`

	Length float64 `json:"length"`
	Slope  float64 `json:"slope"`
	Drop   float64 `json:"drop"`

	StartStation   float64 `json:"startStation"`
	StartElevation float64 `json:"startElevation"`
	EndStation     float64 `json:"endStation"`
	EndElevation   float64 `json:"endElevation"`

	// Design discharge in m3/s, used by the notification analyzer
	Discharge float64 `json:"discharge"`

	UpstreamID   valueobjects.ObjectID `json:"upstreamId"`
	DownstreamID valueobjects.ObjectID `json:"downstreamId"`

	Basin *StillingBasinConfig `json:"basin,omitempty"`
}

// NewHydraulicData returns hydraulic defaults for the given kind
func NewHydraulicData(kind ObjectKind) *HydraulicData {
	h := &HydraulicData{
		Section: valueobjects.DefaultCrossSection(),
		Length:  10.0,
	}
	if kind == KindTransition {
		outlet := valueobjects.DefaultCrossSection()
		h.OutletSection = &outlet
		h.Length = 5.0
	}
	h.ComputeEnd(kind)
	return h
}

// ComputeEnd recalculates the derived end station/elevation from the
// element's own shape-defining parameters. Transitions store their
// endpoints directly, so for them this is a no-op.
func (h *HydraulicData) ComputeEnd(kind ObjectKind) {
	switch kind {
	case KindChannel:
		h.EndStation = h.StartStation + h.Length
		h.EndElevation = h.StartElevation - h.Length*h.Slope
	case KindChute:
		h.EndStation = h.StartStation + h.Length
		h.EndElevation = h.StartElevation - h.Drop
	}
}

// Clone returns a deep copy of the hydraulic data
func (h *HydraulicData) Clone() *HydraulicData {
	if h == nil {
		return nil
	}
	clone := *h
	if h.OutletSection != nil {
		outlet := *h.OutletSection
		clone.OutletSection = &outlet
	}
	clone.Basin = h.Basin.Clone()
	return &clone
}
