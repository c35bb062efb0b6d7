/*
Copyright © 2026 the AquaNova authors.
This file is part of AquaNova.

AquaNova is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AquaNova is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AquaNova.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package dutycycle simulates low-pressure membrane filtration (UF and
// MF) as a repeating cycle of filtration and cleaning steps. Dissolved
// solids pass through unchanged; the split between filtrate and waste is
// a split in flow and time only.
package dutycycle

import "math"

func clamp(x, lo, hi float64) float64 { return math.Max(lo, math.Min(x, hi)) }

// Viscosity returns the dynamic viscosity of water [mPa·s] at
// temperature t [°C] from a Vogel-type correlation.
func Viscosity(t float64) float64 {
	return 1.234 * math.Pow(10, 247.8/(t+133.15)-1.2)
}

// mu20 is the reference viscosity at 20 °C [mPa·s].
const mu20 = 1.002

// TemperatureCorrection returns the factor that converts a permeability
// at 20 °C to temperature t, clamped to [0.25, 4].
func TemperatureCorrection(t float64) float64 {
	return clamp(mu20/math.Max(1e-9, Viscosity(t)), 0.25, 4)
}

// Cycle holds the time fractions of a filtration cycle.
type Cycle struct {
	// Total is the cycle length [min].
	Total float64

	// Filtration, Backwash and ForwardFlush are the fractions of the
	// cycle spent in each step.
	Filtration, Backwash, ForwardFlush float64
}

// NewCycle returns the cycle made of the given filtration time [min] and
// cleaning step durations [s].
func NewCycle(filtrationMin, backwashSec, airScourSec, forwardFlushSec float64) Cycle {
	total := math.Max(1e-6, filtrationMin+(backwashSec+airScourSec+forwardFlushSec)/60)
	return Cycle{
		Total:        total,
		Filtration:   filtrationMin / total,
		Backwash:     backwashSec / 60 / total,
		ForwardFlush: forwardFlushSec / 60 / total,
	}
}
