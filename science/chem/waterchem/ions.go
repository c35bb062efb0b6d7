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

// Package waterchem contains the water-chemistry engine: ion-balance
// correction, osmotic pressure and mineral scaling indices for a
// water composition.
package waterchem

import (
	"fmt"
	"sort"
	"strings"
)

// Atomic masses [g/mol].
const (
	mwH  = 1.008
	mwC  = 12.011
	mwN  = 14.007
	mwO  = 15.999
	mwNa = 22.990
	mwMg = 24.305
	mwAl = 26.982
	mwSi = 28.085
	mwP  = 30.974
	mwS  = 32.065
	mwCl = 35.453
	mwK  = 39.098
	mwCa = 40.078
	mwMn = 54.938
	mwFe = 55.845
	mwF  = 18.998
	mwB  = 10.811
	mwSr = 87.62
	mwBa = 137.327
	mwBr = 79.904
)

// Molar masses of compounds [g/mol].
const (
	mwCaCO3 = 100.09
	mwSO4   = mwS + 4*mwO
	mwHCO3  = mwH + mwC + 3*mwO
	mwNO3   = mwN + 3*mwO
	mwCO3   = mwC + 3*mwO
	mwPO4   = mwP + 4*mwO
	mwNH4   = mwN + 4*mwH
	mwSiO2  = mwSi + 2*mwO
	mwCO2   = mwC + 2*mwO
	mwNaCl  = mwNa + mwCl
)

// Ion is a dissolved species in a water analysis.
type Ion string

// Species tracked by the engine.
const (
	NH4  Ion = "NH4"
	K    Ion = "K"
	Na   Ion = "Na"
	Mg   Ion = "Mg"
	Ca   Ion = "Ca"
	Sr   Ion = "Sr"
	Ba   Ion = "Ba"
	Fe   Ion = "Fe"
	Mn   Ion = "Mn"
	Al   Ion = "Al"
	CO3  Ion = "CO3"
	HCO3 Ion = "HCO3"
	NO3  Ion = "NO3"
	Cl   Ion = "Cl"
	F    Ion = "F"
	SO4  Ion = "SO4"
	Br   Ion = "Br"
	PO4  Ion = "PO4"
	SiO2 Ion = "SiO2"
	B    Ion = "B"
	CO2  Ion = "CO2"
)

type species struct {
	mw     float64 // g/mol
	charge int
}

// speciesTable holds the molar mass and charge of every tracked species.
// Neutral species have zero charge and do not enter the ion balance.
var speciesTable = map[Ion]species{
	NH4:  {mwNH4, 1},
	K:    {mwK, 1},
	Na:   {mwNa, 1},
	Mg:   {mwMg, 2},
	Ca:   {mwCa, 2},
	Sr:   {mwSr, 2},
	Ba:   {mwBa, 2},
	Fe:   {mwFe, 2},
	Mn:   {mwMn, 2},
	Al:   {mwAl, 3},
	CO3:  {mwCO3, -2},
	HCO3: {mwHCO3, -1},
	NO3:  {mwNO3, -1},
	Cl:   {mwCl, -1},
	F:    {mwF, -1},
	SO4:  {mwSO4, -2},
	Br:   {mwBr, -1},
	PO4:  {mwPO4, -3},
	SiO2: {mwSiO2, 0},
	B:    {mwB, 0},
	CO2:  {mwCO2, 0},
}

// ionOrder lists the tracked species alphabetically so that sums over a
// water analysis do not depend on map iteration order.
var ionOrder = func() []Ion {
	o := make([]Ion, 0, len(speciesTable))
	for i := range speciesTable {
		o = append(o, i)
	}
	sort.Slice(o, func(i, j int) bool { return o[i] < o[j] })
	return o
}()

// AllIons returns every tracked species in a stable order.
func AllIons() []Ion {
	return append([]Ion(nil), ionOrder...)
}

// MolarMass returns the molar mass of ion in g/mol.
func MolarMass(ion Ion) (float64, error) {
	s, ok := speciesTable[ion]
	if !ok {
		return 0, fmt.Errorf("waterchem: invalid ion %s", ion)
	}
	return s.mw, nil
}

// Charge returns the valence of ion.
func Charge(ion Ion) (int, error) {
	s, ok := speciesTable[ion]
	if !ok {
		return 0, fmt.Errorf("waterchem: invalid ion %s", ion)
	}
	return s.charge, nil
}

// ParseIon matches a species name case-insensitively.
func ParseIon(name string) (Ion, error) {
	for i := range speciesTable {
		if strings.EqualFold(string(i), strings.TrimSpace(name)) {
			return i, nil
		}
	}
	return "", fmt.Errorf("waterchem: invalid ion %s", name)
}

// Ions holds species concentrations in mg/L.
type Ions map[Ion]float64

// Clone returns a deep copy of i.
func (i Ions) Clone() Ions {
	if i == nil {
		return nil
	}
	o := make(Ions, len(i))
	for k, v := range i {
		o[k] = v
	}
	return o
}

// Sum returns the summed mass concentration of all species [mg/L].
func (i Ions) Sum() float64 {
	var s float64
	for _, v := range i {
		if v > 0 {
			s += v
		}
	}
	return s
}

// Scale returns a copy of i with every concentration multiplied by factor.
func (i Ions) Scale(factor float64) Ions {
	if i == nil {
		return nil
	}
	o := make(Ions, len(i))
	for k, v := range i {
		o[k] = v * factor
	}
	return o
}
