package config

// DomainConfig holds engineering thresholds and engine limits. Values are
// tunable per project; the defaults follow USBR open-channel practice.
type DomainConfig struct {
	// History
	MaxHistoryEntries int

	// Notification thresholds
	SteepSlopeWarning    float64 // m/m, above this a channel warrants a chute
	SteepSlopeError      float64 // m/m, above this a channel design is rejected
	MaxVelocity          float64 // m/s, erosion limit for concrete lining
	MinFreeboard         float64 // m
	ElevationGapError    float64 // m, gap at a connection treated as an error
	MaxExpansionAngle    float64 // degrees, transition widening
	MaxContractionAngle  float64 // degrees, transition narrowing
	MinTransitionLength  float64 // m
	FroudeOscillatingLow float64 // unstable jump band, avoid in design
	FroudeOscillatingHi  float64

	// Kernel transform baking
	TransformEpsilon float64 // below this a transform step is skipped
}

// DefaultDomainConfig returns the standard thresholds
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxHistoryEntries:    50,
		SteepSlopeWarning:    0.05,
		SteepSlopeError:      0.15,
		MaxVelocity:          6.0,
		MinFreeboard:         0.3,
		ElevationGapError:    0.10,
		MaxExpansionAngle:    12.5,
		MaxContractionAngle:  25.0,
		MinTransitionLength:  1.0,
		FroudeOscillatingLow: 2.5,
		FroudeOscillatingHi:  4.5,
		TransformEpsilon:     1e-6,
	}
}
