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

// Indices holds scaling indices for a water profile. A nil field means
// the inputs needed for that index were not available.
type Indices struct {
	LSI     *float64 `json:"lsi,omitempty"`
	RSI     *float64 `json:"rsi,omitempty"`
	SDSI    *float64 `json:"s_dsi,omitempty"`
	CaCO3SI *float64 `json:"caco3_si,omitempty"`

	CaSO4SI *float64 `json:"caso4_si,omitempty"`
	BaSO4SI *float64 `json:"baso4_si,omitempty"`
	SrSO4SI *float64 `json:"srso4_si,omitempty"`
	CaF2SI  *float64 `json:"caf2_si,omitempty"`
	SiO2SI  *float64 `json:"sio2_si,omitempty"`

	// Percent saturation, 10^SI × 100.
	CaSO4Sat *float64 `json:"caso4_sat_pct,omitempty"`
	BaSO4Sat *float64 `json:"baso4_sat_pct,omitempty"`
	SrSO4Sat *float64 `json:"srso4_sat_pct,omitempty"`
	CaF2Sat  *float64 `json:"caf2_sat_pct,omitempty"`
	SiO2Sat  *float64 `json:"sio2_sat_pct,omitempty"`
}

func log10(x float64) float64 { return math.Log10(math.Max(x, 1e-30)) }

func ptr(v float64) *float64 { return &v }

// saturation converts a saturation index to percent saturation rounded
// to two decimals.
func saturation(si float64) *float64 {
	return ptr(math.Round(math.Pow(10, si)*100*100) / 100)
}

// molar converts mg/L to mol/L.
func molar(mgL, mw float64) float64 { return mgL / 1000 / mw }

// Indices calculates the Langelier family of calcium carbonate indices
// (APHA method) and the saturation indices of sparingly soluble salts.
func (c *Calibration) Indices(p Profile) Indices {
	var o Indices

	caH, alk := p.calciumHardness(), p.alkalinity()
	if p.TDS > 0 && caH > 0 && alk > 0 {
		a := (log10(p.TDS) - 1) / 10
		b := -13.12*log10(p.Temperature+273) + 34.55
		cc := log10(caH) - 0.4
		d := log10(alk)
		pHs := 9.3 + a + b - (cc + d)
		lsi := p.PH - pHs
		o.LSI = ptr(lsi)
		o.RSI = ptr(2*pHs - p.PH)
		o.CaCO3SI = ptr(lsi)
		if p.TDS > 10000 {
			o.SDSI = ptr(lsi - 0.2)
		} else {
			o.SDSI = ptr(lsi)
		}
	}

	ca, so4 := molar(p.calcium(), mwCa), molar(p.ion(SO4), mwSO4)
	if so4 > 0 {
		if ca > 0 {
			si := log10(ca * so4 / c.KspCaSO4)
			o.CaSO4SI, o.CaSO4Sat = ptr(si), saturation(si)
		}
		if ba := molar(p.ion(Ba), mwBa); ba > 0 {
			si := log10(ba * so4 / c.KspBaSO4)
			o.BaSO4SI, o.BaSO4Sat = ptr(si), saturation(si)
		}
		if sr := molar(p.ion(Sr), mwSr); sr > 0 {
			si := log10(sr * so4 / c.KspSrSO4)
			o.SrSO4SI, o.SrSO4Sat = ptr(si), saturation(si)
		}
	}
	if f := molar(p.ion(F), mwF); ca > 0 && f > 0 {
		si := log10(ca * f * f / c.KspCaF2)
		o.CaF2SI, o.CaF2Sat = ptr(si), saturation(si)
	}
	if s := p.ion(SiO2); s > 0 {
		si := log10(s / c.SilicaSaturation)
		o.SiO2SI, o.SiO2Sat = ptr(si), saturation(si)
	}
	return o
}
