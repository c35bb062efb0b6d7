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

// Profile is the water quality at one point of a treatment train
// (feed, loop or brine). Transforms return new profiles; a Profile
// is never modified in place.
type Profile struct {
	// TDS is total dissolved solids [mg/L].
	TDS float64 `toml:"tds_mgL" json:"tds_mgL"`

	// Temperature [°C].
	Temperature float64 `toml:"temperature_C" json:"temperature_C"`

	PH float64 `toml:"ph" json:"ph"`

	// Ions are the species concentrations [mg/L]. A nil map means
	// only TDS is known.
	Ions Ions `toml:"ions" json:"ions,omitempty"`

	// Alkalinity and CalciumHardness are legacy aggregate fields
	// [mg/L as CaCO₃]. Zero means "derive from HCO3 or Ca".
	Alkalinity      float64 `toml:"alkalinity_mgL_as_CaCO3" json:"alkalinity_mgL_as_CaCO3,omitempty"`
	CalciumHardness float64 `toml:"calcium_hardness_mgL_as_CaCO3" json:"calcium_hardness_mgL_as_CaCO3,omitempty"`
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	p.Ions = p.Ions.Clone()
	return p
}

// HasIons reports whether p carries any ion detail.
func (p Profile) HasIons() bool {
	return p.Ions.Sum() > 0
}

// ion returns the concentration of ion, or 0 if absent.
func (p Profile) ion(i Ion) float64 {
	if p.Ions == nil {
		return 0
	}
	if v := p.Ions[i]; v > 0 {
		return v
	}
	return 0
}

// ScaleTo returns a copy of p concentrated (or diluted) to tds, with
// every ion and aggregate field scaled by tds / p.TDS.
func (p Profile) ScaleTo(tds float64) Profile {
	base := p.TDS
	if base < 1e-6 {
		base = 1e-6
	}
	f := tds / base
	o := p.Clone()
	o.TDS = tds
	o.Ions = p.Ions.Scale(f)
	o.Alkalinity = p.Alkalinity * f
	o.CalciumHardness = p.CalciumHardness * f
	return o
}

// calciumHardness returns calcium hardness [mg/L as CaCO₃], derived from
// Ca when not given.
func (p Profile) calciumHardness() float64 {
	if p.CalciumHardness > 0 {
		return p.CalciumHardness
	}
	return p.ion(Ca) * mwCaCO3 / mwCa
}

// alkalinity returns alkalinity [mg/L as CaCO₃], derived from HCO3 when
// not given.
func (p Profile) alkalinity() float64 {
	if p.Alkalinity > 0 {
		return p.Alkalinity
	}
	return p.ion(HCO3) * 50.0 / mwHCO3
}

// calcium returns Ca [mg/L], derived from hardness when Ca is absent.
func (p Profile) calcium() float64 {
	if c := p.ion(Ca); c > 0 {
		return c
	}
	return p.CalciumHardness * mwCa / mwCaCO3
}
