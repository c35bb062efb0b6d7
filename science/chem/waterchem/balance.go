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

import "math"

// BalanceReport describes an ion-balance correction.
type BalanceReport struct {
	// Cations and Anions are the equivalents before correction [meq/L].
	Cations, Anions float64

	// ErrorPercent is (cations − anions)/(cations + anions) × 100
	// before correction.
	ErrorPercent float64

	// Added is the species added to close the balance, or "" if the
	// profile was already balanced.
	Added Ion

	// AddedMass is the concentration of Added [mg/L].
	AddedMass float64
}

// Equivalents returns the cation and anion charge equivalents of p
// [meq/L].
func Equivalents(p Profile) (cations, anions float64) {
	for _, ion := range AllIons() {
		v := p.Ions[ion]
		z, _ := Charge(ion)
		if v <= 0 || z == 0 {
			continue
		}
		mw, _ := MolarMass(ion)
		meq := v / mw * math.Abs(float64(z))
		if z > 0 {
			cations += meq
		} else {
			anions += meq
		}
	}
	return
}

// Balance returns a copy of p whose cation and anion equivalents match.
// Excess cations are balanced with chloride and excess anions with
// sodium; TDS rises by the mass added. Profiles without ion detail and
// profiles that are already balanced are returned unchanged.
func (c *Calibration) Balance(p Profile) (Profile, BalanceReport) {
	cat, an := Equivalents(p)
	r := BalanceReport{Cations: cat, Anions: an}
	if cat+an > 0 {
		r.ErrorPercent = (cat - an) / (cat + an) * 100
	}
	o := p.Clone()
	diff := cat - an
	if cat+an == 0 || math.Abs(diff) <= c.BalanceTolerance {
		return o, r
	}
	var add Ion
	if diff > 0 {
		add = Cl
	} else {
		add = Na
	}
	mw, _ := MolarMass(add)
	z, _ := Charge(add)
	mass := math.Abs(diff) * mw / math.Abs(float64(z))
	if o.Ions == nil {
		o.Ions = make(Ions)
	}
	o.Ions[add] += mass
	o.TDS += mass
	r.Added = add
	r.AddedMass = mass
	return o, r
}
