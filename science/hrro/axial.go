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

// AxialInput holds the inputs of the axial model of one pressure vessel.
type AxialInput struct {
	// Temperature [°C].
	Temperature float64

	// A [L/m²/h/bar] and B [L/m²/h] at the feed temperature.
	A, B float64

	// Area is the membrane area of the vessel [m²] and DP its total
	// pressure drop [bar].
	Area, DP float64

	// Q [m³/h] and C [mg/L] are the vessel inlet flow and concentration.
	Q, C float64

	// Osmotic returns the ideal osmotic pressure [bar] at a TDS.
	Osmotic func(tds float64) float64

	Physics Physics
}

// AxialResult holds the outputs of the axial model.
type AxialResult struct {
	PIn      float64 `json:"p_in_bar"`
	POut     float64 `json:"p_out_bar"`
	AvgFlux  float64 `json:"avg_flux_lmh"`
	LeadFlux float64 `json:"lead_flux_lmh"`
	NDP      float64 `json:"avg_ndp_bar"`
	MaxBeta  float64 `json:"max_beta"`

	Qp   float64 `json:"qp_m3h"`
	Cp   float64 `json:"cp_mgL"`
	QOut float64 `json:"q_out_m3h"`
	COut float64 `json:"c_out_mgL"`

	// CPConverged is false if any segment's polarization fixed point
	// exhausted its iterations.
	CPConverged bool `json:"cp_converged"`
}

func (in *AxialInput) segments() int {
	n := in.Physics.Segments
	if n <= 0 {
		n = 1
	}
	if n > 200 {
		n = 200
	}
	return n
}

// Axial marches along the vessel from inlet pressure pIn, solving the
// local flux and concentration polarization in each segment.
func Axial(in AxialInput, pIn float64) AxialResult {
	ph := &in.Physics
	n := in.segments()
	area := in.Area / float64(n)
	dh := ph.dh()
	o := AxialResult{PIn: pIn, MaxBeta: 1, CPConverged: true}

	q, c, p := math.Max(0, in.Q), math.Max(0, in.C), pIn
	var salt, ndp float64
	for i := 0; i < n && q > 1e-12 && area > 0; i++ {
		w := Properties(c, in.Temperature, in.Osmotic)
		ratio := muRef / w.Mu
		a := in.A * math.Pow(ratio, ph.AMuExp) * math.Exp(-ph.CompactionK*p)
		b := in.B * math.Pow(ratio, ph.BMuExp) * (1 + ph.BSalSlope*c/35000)
		k := math.Max(MassTransfer(w, ph.velocity(q), dh, ph.Diffusivity)*ph.KMultiplier, ph.KMin)

		j := math.Max(0, a*(p-w.Pi))
		var beta, cw, cp, drive float64
		converged := false
		for it := 0; it < ph.CPMaxIter; it++ {
			beta = math.Exp(math.Min(j*lmhToMPS/k, ph.CPExpMax))
			cw = c * beta
			cp = 0
			if j+b > 0 {
				cp = b * cw / (j + b)
			}
			drive = p - (Properties(cw, in.Temperature, in.Osmotic).Pi -
				Properties(cp, in.Temperature, in.Osmotic).Pi)
			next := j + ph.CPRelax*(math.Max(0, a*drive)-j)
			if math.Abs(next-j) <= math.Max(ph.CPAbsTol, ph.CPRelTol*math.Abs(j)) {
				j = next
				converged = true
				break
			}
			j = next
		}
		if !converged {
			o.CPConverged = false
		}

		qp := math.Min(j*area/1000, 0.95*q)
		j = qp * 1000 / area
		if j+b > 0 {
			cp = b * cw / (j + b)
		}
		cp = math.Min(cp, cw)

		if i == 0 {
			o.LeadFlux = j
		}
		o.MaxBeta = math.Max(o.MaxBeta, beta)
		ndp += drive
		o.Qp += qp
		salt += qp * cp

		qOut := q - qp
		c = math.Max(0, (q*c-qp*cp)/qOut)
		q = qOut
		p = math.Max(0, p-in.DP/float64(n))
	}
	o.QOut, o.COut, o.POut = q, c, p
	o.NDP = ndp / float64(n)
	if o.Qp > 0 {
		o.Cp = salt / o.Qp
	}
	if in.Area > 0 {
		o.AvgFlux = o.Qp * 1000 / in.Area
	}
	return o
}

// SolveInletPressure bisects the inlet pressure over [0, pLimit] until
// the average flux is within tol of target. If no pressure meets the
// tolerance within maxIter iterations, it returns the best pressure
// found and converged is false.
func SolveInletPressure(in AxialInput, target, pLimit, tol float64, maxIter int) (p float64, r AxialResult, iterations int, converged bool) {
	lo, hi := 0.0, pLimit
	bestErr := math.Inf(1)
	for iterations < maxIter {
		iterations++
		mid := (lo + hi) / 2
		res := Axial(in, mid)
		e := res.AvgFlux - target
		if math.Abs(e) < bestErr {
			bestErr = math.Abs(e)
			p, r = mid, res
		}
		if math.Abs(e) <= tol {
			return mid, res, iterations, true
		}
		if e < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return p, r, iterations, false
}
