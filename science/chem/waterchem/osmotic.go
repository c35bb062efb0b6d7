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

package waterchem

// OsmoticPressure returns the osmotic pressure of p [bar] from a
// modified van't Hoff sum where each species is weighted by its
// apparent osmotic coefficient. When p carries no ion detail, TDS is
// treated as sodium chloride.
func (c *Calibration) OsmoticPressure(p Profile) float64 {
	tK := p.Temperature + 273.15
	var osmolarity float64 // mol/L
	for _, ion := range AllIons() {
		v := p.Ions[ion]
		if v <= 0 {
			continue
		}
		mw, _ := MolarMass(ion)
		osmolarity += v / mw / 1000 * c.phi(ion)
	}
	if osmolarity < 1e-9 && p.TDS > 0 {
		osmolarity = p.TDS / mwNaCl / 1000 * 2 * c.NaClPhi
	}
	return osmolarity * c.R * tK
}

// OsmoticFunc returns a function giving the osmotic pressure [bar] of
// base concentrated or diluted to a TDS of c [mg/L]. Transport solvers
// use it to evaluate bulk and wall osmotic pressure.
func (c *Calibration) OsmoticFunc(base Profile) func(tds float64) float64 {
	return func(tds float64) float64 {
		if tds <= 0 {
			return 0
		}
		return c.OsmoticPressure(base.ScaleTo(tds))
	}
}

// OsmoticFunc uses the default calibration.
func OsmoticFunc(base Profile) func(tds float64) float64 {
	return defaultCalibration.OsmoticFunc(base)
}
