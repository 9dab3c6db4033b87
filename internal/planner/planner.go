// Package planner compares an estimated content height with the available
// page height and derives a bounded compression ratio and tier.
package planner

import (
	"fmt"
	"math"
)

// Ratio bounds. A ratio of MaxRatio means no compression.
const (
	MinRatio = 0.55
	MaxRatio = 1.0

	// AggressiveBelow is the ratio under which the aggressive tier applies.
	AggressiveBelow = 0.75
)

// Tier selects the blend of font, spacing and header scales.
type Tier int

const (
	TierModerate Tier = iota
	TierAggressive
)

// String returns "moderate" or "aggressive".
func (t Tier) String() string {
	if t == TierAggressive {
		return "aggressive"
	}
	return "moderate"
}

// MarshalText encodes the tier as its name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TierFor returns the tier for an already clamped ratio.
func TierFor(ratio float64) Tier {
	if ratio < AggressiveBelow {
		return TierAggressive
	}
	return TierModerate
}

// Plan is the outcome of Compute.
type Plan struct {
	Estimate            float64 `json:"estimate"`
	Available           float64 `json:"available"`
	Ratio               float64 `json:"ratio"`
	RequiresCompression bool    `json:"requires_compression"`
	Tier                Tier    `json:"tier"`

	// Saturated is set when the unclamped ratio fell below MinRatio: even
	// the strongest compression is predicted to overflow.
	Saturated bool `json:"saturated"`
}

func (p Plan) String() string {
	return fmt.Sprintf("estimate=%.1f available=%.1f ratio=%.3f tier=%s", p.Estimate, p.Available, p.Ratio, p.Tier)
}

// NoCompression is the plan returned when there is nothing to do.
func NoCompression(estimate, available float64) Plan {
	return Plan{
		Estimate:  estimate,
		Available: available,
		Ratio:     MaxRatio,
		Tier:      TierModerate,
	}
}

// Compute derives a plan. It never fails: a non-finite or non-positive
// estimate and a non-finite or negative available height yield
// NoCompression. Zero available height saturates at MinRatio. The returned
// ratio is always in [MinRatio, MaxRatio].
func Compute(estimate, available float64) Plan {
	if !usable(estimate) || !finite(available) || available < 0 || estimate <= available {
		return NoCompression(estimate, available)
	}

	raw := available / estimate
	ratio := clamp(raw, MinRatio, MaxRatio)
	return Plan{
		Estimate:            estimate,
		Available:           available,
		Ratio:               ratio,
		RequiresCompression: true,
		Tier:                TierFor(ratio),
		Saturated:           raw < MinRatio,
	}
}

func usable(v float64) bool {
	return v > 0 && finite(v)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
