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

package hrro

import "math"

const (
	// lmhToMPS converts a flux in L/m²/h to m/s.
	lmhToMPS = 1e-3 / 3600

	paToBar = 1e-5

	// muRef is the reference viscosity of the A and B corrections [Pa s].
	muRef = 0.00089
)

func clamp(x, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, x)) }

// Water holds the physical properties of saline water.
type Water struct {
	// Density [kg/m³].
	Rho float64

	// Dynamic viscosity [Pa s].
	Mu float64

	// Osmotic pressure [bar].
	Pi float64
}

// Properties returns the density, viscosity and osmotic pressure of
// water with the given TDS [mg/L] at temperature t [°C]. osmotic gives
// the ideal osmotic pressure at a TDS; a salinity uplift is applied on
// top of it.
func Properties(tds, t float64, osmotic func(float64) float64) Water {
	t = clamp(t, 5, 45)
	tds = math.Max(0, tds)
	w := Water{
		Rho: 1000 + tds/1000*0.75,
		Mu:  2.414e-5 * math.Pow(10, 247.8/(t+133.15)) * (1 + 0.0015*tds/1000),
	}
	if osmotic != nil {
		w.Pi = math.Max(0, osmotic(tds)*(1+0.15*tds/100000))
	}
	return w
}

// CorrectMembrane adjusts the water and salt permeabilities measured at
// 25 °C to temperature t.
func CorrectMembrane(a, b, t float64) (float64, float64) {
	dt := t - 25
	return a * math.Exp(0.027*dt), b * math.Exp(0.05*dt)
}

// HydraulicDiameter returns the hydraulic diameter [m] of a spacer-filled
// channel of height h [m] and voidage eps.
func HydraulicDiameter(h, eps float64) float64 {
	h = math.Max(1e-6, h)
	eps = clamp(eps, 0.3, 0.95)
	return math.Max(2*h*eps/(2-eps), 1e-6)
}

// frictionFactor is the Schock and Miquel Darcy friction factor of a
// spacer-filled channel.
func frictionFactor(re float64) float64 {
	return 6.23 * math.Pow(math.Max(re, 1), -0.3)
}

// SpacerPressureDrop returns the pressure drop [bar] over a channel of
// length l [m], capped at 3 bar.
func SpacerPressureDrop(w Water, v, dh, l float64) float64 {
	re := w.Rho * v * dh / w.Mu
	dp := frictionFactor(re) * (l / dh) * (w.Rho * v * v / 2)
	return clamp(dp*paToBar, 0, 3)
}

// MassTransfer returns the mass-transfer coefficient [m/s] at
// cross-flow velocity v [m/s] from the Sherwood correlation
// Sh = 0.065 Re^0.875 Sc^0.25.
func MassTransfer(w Water, v, dh, diffusivity float64) float64 {
	re := math.Max(w.Rho*v*dh/w.Mu, 1)
	sc := math.Max(w.Mu/(w.Rho*diffusivity), 1)
	sh := 0.065 * math.Pow(re, 0.875) * math.Pow(sc, 0.25)
	return math.Max(sh*diffusivity/dh, 1e-8)
}
