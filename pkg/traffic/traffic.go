// Package traffic derives per-mode traversal costs from edge base lengths
// and a simulated time of day.
//
// The model is pure: for a fixed (base length, mode, hour) triple the cost
// is always the same value, with no random state involved. This keeps
// routing reproducible for a fixed clock. Time-of-day only affects driving,
// through a congestion factor with two smooth rush-hour peaks; walking is
// constant and transit pays a fixed wait penalty per boarding segment.
package traffic

import (
	"math"

	"github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/network"
)

// Model holds the speed constants and the congestion curve shape. All
// fields are configurable; start from DefaultModel and override.
//
// Speeds are in hyperbolic length units per time unit, so a cost is simply
// time: length / speed, scaled for drive by the congestion factor.
type Model struct {
	WalkSpeed    float64 `json:"walk_speed" toml:"walk_speed"`
	DriveSpeed   float64 `json:"drive_speed" toml:"drive_speed"`
	TransitSpeed float64 `json:"transit_speed" toml:"transit_speed"`

	// TransitWait is the fixed boarding penalty added to every transit
	// segment, independent of its length.
	TransitWait float64 `json:"transit_wait" toml:"transit_wait"`

	// PeakFactor is the congestion multiplier at the exact center of a
	// rush-hour peak. 1 disables congestion entirely.
	PeakFactor float64 `json:"peak_factor" toml:"peak_factor"`

	// MorningPeak and EveningPeak are the rush-hour centers on the 24h
	// clock; PeakWidth is the Gaussian sigma of each bump.
	MorningPeak float64 `json:"morning_peak" toml:"morning_peak"`
	EveningPeak float64 `json:"evening_peak" toml:"evening_peak"`
	PeakWidth   float64 `json:"peak_width" toml:"peak_width"`
}

// DefaultModel returns the canonical cost model: walking at 1, driving at 8,
// transit at 5 length units per hour, a 0.5 boarding penalty, and congestion
// doubling drive times at the 08:00 and 17:30 peaks.
func DefaultModel() Model {
	return Model{
		WalkSpeed:    1.0,
		DriveSpeed:   8.0,
		TransitSpeed: 5.0,
		TransitWait:  0.5,
		PeakFactor:   2.0,
		MorningPeak:  8.0,
		EveningPeak:  17.5,
		PeakWidth:    1.5,
	}
}

// Validate rejects non-physical model parameters.
func (m Model) Validate() error {
	for name, speed := range map[string]float64{
		"walk speed":    m.WalkSpeed,
		"drive speed":   m.DriveSpeed,
		"transit speed": m.TransitSpeed,
	} {
		if !(speed > 0) || math.IsInf(speed, 1) {
			return errors.New(errors.ErrCodeInvalidParameter, "%s must be positive and finite, got %v", name, speed)
		}
	}
	if m.TransitWait < 0 || math.IsNaN(m.TransitWait) || math.IsInf(m.TransitWait, 0) {
		return errors.New(errors.ErrCodeInvalidParameter, "transit wait must be non-negative and finite, got %v", m.TransitWait)
	}
	if m.PeakFactor < 1 || math.IsNaN(m.PeakFactor) || math.IsInf(m.PeakFactor, 0) {
		return errors.New(errors.ErrCodeInvalidParameter, "peak factor must be at least 1, got %v", m.PeakFactor)
	}
	if !(m.PeakWidth > 0) || math.IsInf(m.PeakWidth, 1) {
		return errors.New(errors.ErrCodeInvalidParameter, "peak width must be positive and finite, got %v", m.PeakWidth)
	}
	if err := errors.ValidateTimeOfDay(m.MorningPeak); err != nil {
		return err
	}
	return errors.ValidateTimeOfDay(m.EveningPeak)
}

// Congestion returns the drive-time multiplier at the given hour: two
// Gaussian bumps over a floor of 1, peaking at PeakFactor. The clock is
// circular, so 23:30 sits half an hour from a midnight peak, not 23.5
// hours. Hours outside [0, 24) are wrapped.
func (m Model) Congestion(hour float64) float64 {
	hour = math.Mod(hour, 24)
	if hour < 0 {
		hour += 24
	}
	bump := gaussian(clockDelta(hour, m.MorningPeak), m.PeakWidth) +
		gaussian(clockDelta(hour, m.EveningPeak), m.PeakWidth)
	return 1 + (m.PeakFactor-1)*bump
}

// Cost converts a base length into a traversal cost for the given mode at
// the given hour. Unknown modes cost +Inf: they can never win a comparison
// and never produce a finite route.
func (m Model) Cost(baseLength float64, mode network.Mode, hour float64) float64 {
	switch mode {
	case network.ModeWalk:
		return baseLength / m.WalkSpeed
	case network.ModeDrive:
		return baseLength / m.DriveSpeed * m.Congestion(hour)
	case network.ModeTransit:
		return baseLength/m.TransitSpeed + m.TransitWait
	default:
		return math.Inf(1)
	}
}

// EdgeCost is Cost applied to an edge, honoring eligibility and the edge's
// generation-time drive jitter. Ineligible mode/edge combinations cost +Inf,
// the "unusable" encoding shared with the per-mode graph views.
func (m Model) EdgeCost(e network.Edge, mode network.Mode, hour float64) float64 {
	if !e.Eligible(mode) {
		return math.Inf(1)
	}
	cost := m.Cost(e.BaseLength, mode, hour)
	if mode == network.ModeDrive {
		cost *= e.Jitter
	}
	return cost
}

// gaussian evaluates exp(-d²/2σ²), the unnormalized bell shape.
func gaussian(d, sigma float64) float64 {
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// clockDelta returns the circular distance between two hours, in [0, 12].
func clockDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 12 {
		d = 24 - d
	}
	return d
}
