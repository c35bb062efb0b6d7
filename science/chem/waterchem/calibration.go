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

// Calibration holds the empirical constants of the engine. They are
// fitted values rather than physical invariants, so callers may supply
// their own.
type Calibration struct {
	// R is the gas constant [L·bar/(K·mol)].
	R float64

	// Phi holds the apparent osmotic coefficient of each species.
	// Species missing from the map use 1.
	Phi map[Ion]float64

	// NaClPhi is the coefficient applied to the sodium-chloride
	// equivalent of TDS when no ion detail is available.
	NaClPhi float64

	// Solubility products at 25 °C [mol²/L²; mol³/L³ for CaF₂].
	KspCaSO4, KspSrSO4, KspBaSO4, KspCaF2 float64

	// SilicaSaturation is the SiO₂ solubility limit [mg/L].
	SilicaSaturation float64

	// BalanceTolerance is the cation/anion mismatch [meq/L] below which
	// a profile is considered balanced.
	BalanceTolerance float64
}

// DefaultCalibration returns a fresh copy of the default constants.
func DefaultCalibration() *Calibration {
	return &Calibration{
		R: 0.0831446,
		Phi: map[Ion]float64{
			Na:   0.93,
			K:    0.93,
			Ca:   0.85,
			Mg:   0.85,
			NH4:  0.90,
			Sr:   0.85,
			Ba:   0.85,
			Fe:   0.80,
			Mn:   0.80,
			Cl:   0.93,
			SO4:  0.65,
			HCO3: 0.93,
			NO3:  0.90,
			F:    0.90,
			CO3:  0.65,
			PO4:  0.60,
			Br:   0.93,
			SiO2: 1.0,
			B:    1.0,
			CO2:  1.0,
		},
		NaClPhi:          0.93,
		KspCaSO4:         2.25e-4,
		KspSrSO4:         1.44e-4,
		KspBaSO4:         1.0e-10,
		KspCaF2:          3.9e-11,
		SilicaSaturation: 150,
		BalanceTolerance: 1e-6,
	}
}

var defaultCalibration = DefaultCalibration()

func (c *Calibration) phi(i Ion) float64 {
	if v, ok := c.Phi[i]; ok {
		return v
	}
	return 1
}

// OsmoticPressure returns the osmotic pressure of p [bar] using the
// default calibration.
func OsmoticPressure(p Profile) float64 { return defaultCalibration.OsmoticPressure(p) }

// Balance corrects the ion balance of p using the default calibration.
func Balance(p Profile) (Profile, BalanceReport) { return defaultCalibration.Balance(p) }

// ScalingIndices returns the scaling indices of p using the default
// calibration.
func ScalingIndices(p Profile) Indices { return defaultCalibration.Indices(p) }
