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

package catalog

import (
	"fmt"

	"github.com/aquanova/aquanova/science/chem/waterchem"
	"github.com/aquanova/aquanova/units"
)

// TestConditions are the standard test conditions a vendor rates an
// element at.
type TestConditions struct {
	// PermeateFlow is the rated permeate flow [gal/day].
	PermeateFlow float64

	// Rejection is the rated salt rejection [%].
	Rejection float64

	// Pressure [bar] and TDS [mg/L NaCl] of the test feed.
	Pressure, TDS float64

	// Recovery of the test [%]. If 0, 15 % is used.
	Recovery float64

	// Area is the active area of the element [m²].
	Area float64
}

// Rate derives the water permeability A [L/m²/h/bar] and the salt
// permeability B [L/m²/h] that reproduce the rated performance, using
// the mean of the feed and concentrate as the feed-side concentration.
func Rate(t TestConditions) (a, b float64, err error) {
	if t.Area <= 0 || t.PermeateFlow <= 0 || t.Rejection <= 0 || t.Rejection >= 100 {
		return 0, 0, fmt.Errorf("catalog: invalid test conditions %+v", t)
	}
	qp, err := units.Convert(t.PermeateFlow, "gpd", "m3/h")
	if err != nil {
		return 0, 0, err
	}
	r := t.Recovery
	if r <= 0 {
		r = 15
	}
	r /= 100
	j := qp * 1000 / t.Area

	cp := t.TDS * (1 - t.Rejection/100)
	cc := (t.TDS - r*cp) / (1 - r)
	cm := (t.TDS + cc) / 2

	pi := waterchem.OsmoticFunc(waterchem.Profile{TDS: t.TDS, Temperature: 25, PH: 7})
	ndp := t.Pressure - (pi(cm) - pi(cp))
	if ndp <= 0 {
		return 0, 0, fmt.Errorf("catalog: test pressure %g bar does not exceed the osmotic pressure", t.Pressure)
	}
	return j / ndp, j * cp / (cm - cp), nil
}
