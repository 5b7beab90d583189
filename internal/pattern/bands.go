package pattern

import (
	"fmt"

	"github.com/Veraticus/phonocorrect/internal/common"
)

// Confidence band labels.
const (
	BandHigh   = "High"
	BandMedium = "Medium"
	BandLow    = "Low"
)

// Bands holds the lower confidence bound of each display band.
type Bands struct {
	High   float64 `mapstructure:"high"`
	Medium float64 `mapstructure:"medium"`
}

// DefaultBands returns the stock display thresholds.
func DefaultBands() Bands {
	return Bands{High: 0.9, Medium: 0.7}
}

// Label maps a confidence to its band.
func (b Bands) Label(confidence float64) string {
	switch {
	case confidence >= b.High:
		return BandHigh
	case confidence >= b.Medium:
		return BandMedium
	default:
		return BandLow
	}
}

// Validate checks that thresholds are ordered and within [0, 1].
func (b Bands) Validate() error {
	if b.Medium < 0 || b.High > 1 {
		return fmt.Errorf("%w: band thresholds must be within [0, 1], got medium=%.2f high=%.2f",
			common.ErrInvalidConfig, b.Medium, b.High)
	}
	if b.Medium > b.High {
		return fmt.Errorf("%w: medium threshold %.2f exceeds high threshold %.2f",
			common.ErrInvalidConfig, b.Medium, b.High)
	}
	return nil
}
