package valueobjects

import "math"

// gravity in m/s^2
const gravity = 9.81

// SectionShape identifies the cross-section geometry of a hydraulic element
type SectionShape string

const (
	SectionRectangular SectionShape = "rectangular"
	SectionTrapezoidal SectionShape = "trapezoidal"
	SectionTriangular  SectionShape = "triangular"
)

// CrossSection describes the flow geometry of a channel, chute or
// transition end. Dimensions are in meters; SideSlope is horizontal run
// per unit rise (z in z:1 notation).
type CrossSection struct {
	Shape       SectionShape `json:"shape"`
	BottomWidth float64      `json:"bottomWidth"`
	Depth       float64      `json:"depth"`
	SideSlope   float64      `json:"sideSlope"`
	ManningN    float64      `json:"manningN"`
	Freeboard   float64      `json:"freeboard"`
}

// DefaultCrossSection returns a one-meter rectangular section with a
// typical concrete roughness.
func DefaultCrossSection() CrossSection {
	return CrossSection{
		Shape:       SectionRectangular,
		BottomWidth: 1.0,
		Depth:       1.0,
		ManningN:    0.015,
		Freeboard:   0.3,
	}
}

// Equals compares two cross sections exactly
func (c CrossSection) Equals(other CrossSection) bool {
	return c == other
}

// TopWidth returns the water-surface width at the given flow depth
func (c CrossSection) TopWidth(depth float64) float64 {
	switch c.Shape {
	case SectionTriangular:
		return 2 * c.SideSlope * depth
	case SectionTrapezoidal:
		return c.BottomWidth + 2*c.SideSlope*depth
	default:
		return c.BottomWidth
	}
}

// FlowArea returns the wetted area at the given flow depth
func (c CrossSection) FlowArea(depth float64) float64 {
	switch c.Shape {
	case SectionTriangular:
		return c.SideSlope * depth * depth
	case SectionTrapezoidal:
		return (c.BottomWidth + c.SideSlope*depth) * depth
	default:
		return c.BottomWidth * depth
	}
}

// WettedPerimeter returns the wetted perimeter at the given flow depth
func (c CrossSection) WettedPerimeter(depth float64) float64 {
	sideLen := depth * math.Sqrt(1+c.SideSlope*c.SideSlope)
	switch c.Shape {
	case SectionTriangular:
		return 2 * sideLen
	case SectionTrapezoidal:
		return c.BottomWidth + 2*sideLen
	default:
		return c.BottomWidth + 2*depth
	}
}

// HydraulicRadius returns area over wetted perimeter at the given depth
func (c CrossSection) HydraulicRadius(depth float64) float64 {
	p := c.WettedPerimeter(depth)
	if p <= 0 {
		return 0
	}
	return c.FlowArea(depth) / p
}

// ManningVelocity estimates the uniform-flow velocity for a bed slope
// using the Manning equation, v = (1/n) R^(2/3) S^(1/2).
func (c CrossSection) ManningVelocity(depth, slope float64) float64 {
	if c.ManningN <= 0 || slope <= 0 || depth <= 0 {
		return 0
	}
	r := c.HydraulicRadius(depth)
	return math.Pow(r, 2.0/3.0) * math.Sqrt(slope) / c.ManningN
}

// FroudeNumber returns the Froude number for the given velocity and depth,
// using hydraulic depth (area over top width) as the length scale.
func (c CrossSection) FroudeNumber(velocity, depth float64) float64 {
	if depth <= 0 || velocity <= 0 {
		return 0
	}
	top := c.TopWidth(depth)
	if top <= 0 {
		return 0
	}
	hydraulicDepth := c.FlowArea(depth) / top
	if hydraulicDepth <= 0 {
		return 0
	}
	return velocity / math.Sqrt(gravity*hydraulicDepth)
}
