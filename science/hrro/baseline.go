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

// Package hrro simulates closed-circuit (high-recovery) reverse osmosis
// stages. A spreadsheet-derived formula block sets the design flows; an
// optional axial physics model finds the feed pressure that delivers the
// design flux, and a batch-cycle model produces the pressure and
// concentration time series of the sawtooth operating cycle.
package hrro

// BaselineInput holds the inputs of the design formula block.
type BaselineInput struct {
	// Feed is the raw feed flow [m³/h].
	Feed float64

	// CCRORecovery is the overall recovery [%].
	CCRORecovery float64

	// PFFeedRatio is the pre-flush feed ratio [%] and PFRecovery the
	// pre-flush recovery [%].
	PFFeedRatio float64
	PFRecovery  float64

	// CCRecycle is the closed-circuit recycle flow per pressure vessel
	// [m³/h].
	CCRecycle float64

	Vessels           int
	ElementsPerVessel int

	// AreaPerElement [m²].
	AreaPerElement float64
}

// Baseline holds the outputs of the design formula block. Flows are in
// m³/h, fluxes in L/m²/h and recoveries in percent.
type Baseline struct {
	TotalElements int     `json:"total_elements"`
	TotalArea     float64 `json:"total_area_m2"`

	CCROQp   float64 `json:"ccro_qp_m3h"`
	CCROQc   float64 `json:"ccro_qc_m3h"`
	CCROFlux float64 `json:"ccro_flux_lmh"`

	// PFHelper, PFStep and PFExtra are the intermediate terms of the
	// pre-flush feed.
	PFHelper float64 `json:"pf_helper_m3h"`
	PFStep   float64 `json:"pf_step"`
	PFExtra  float64 `json:"pf_extra_m3h"`

	PFFeed float64 `json:"pf_feed_m3h"`
	CCFeed float64 `json:"cc_feed_m3h"`
	PFQp   float64 `json:"pf_qp_m3h"`
	PFQc   float64 `json:"pf_qc_m3h"`
	PFFlux float64 `json:"pf_flux_lmh"`

	CCMakeupPerPV float64 `json:"cc_makeup_m3h_per_pv"`
	CCBlendPerPV  float64 `json:"cc_blend_feed_m3h_per_pv"`
	CCQpPerPV     float64 `json:"cc_qp_m3h_per_pv"`
	CCQcPerPV     float64 `json:"cc_qc_m3h_per_pv"`
	CCRecovery    float64 `json:"cc_recovery_pct"`
	CCFlux        float64 `json:"cc_flux_lmh"`
}

// ComputeBaseline evaluates the design formula block. It is
// deterministic and does not iterate.
func ComputeBaseline(in BaselineInput) Baseline {
	vessels := in.Vessels
	if vessels < 1 {
		vessels = 1
	}
	var b Baseline
	b.TotalElements = vessels * in.ElementsPerVessel
	b.TotalArea = float64(b.TotalElements) * in.AreaPerElement

	flux := func(q float64) float64 {
		if b.TotalArea <= 0 {
			return 0
		}
		return q * 1000 / b.TotalArea
	}

	q := in.Feed
	b.CCROQp = q * in.CCRORecovery / 100
	b.CCROQc = q - b.CCROQp
	b.CCROFlux = flux(b.CCROQp)

	if in.PFFeedRatio >= 101 {
		b.PFHelper = q * (in.CCRORecovery / 100) / 10
	}
	b.PFStep = (in.PFFeedRatio - 100) / 10
	b.PFExtra = b.PFHelper * b.PFStep
	b.PFFeed = q + b.PFExtra
	b.CCFeed = b.PFFeed
	if in.PFFeedRatio > 0 {
		b.CCFeed = b.PFFeed / (in.PFFeedRatio / 100)
	}
	b.PFQp = b.PFFeed * in.PFRecovery / 100
	b.PFQc = b.PFFeed - b.PFQp
	b.PFFlux = flux(b.PFQp)

	b.CCMakeupPerPV = b.CCFeed / float64(vessels)
	b.CCQpPerPV = b.CCMakeupPerPV
	b.CCQcPerPV = in.CCRecycle
	b.CCBlendPerPV = b.CCQcPerPV + b.CCMakeupPerPV
	if b.CCBlendPerPV > 0 {
		b.CCRecovery = b.CCQpPerPV / b.CCBlendPerPV * 100
	}
	b.CCFlux = flux(b.CCQpPerPV)
	return b
}

// Map returns b as a map keyed by the JSON names of its fields, for
// debug payloads.
func (b Baseline) Map() map[string]interface{} {
	return map[string]interface{}{
		"total_elements":           b.TotalElements,
		"total_area_m2":            b.TotalArea,
		"ccro_qp_m3h":              b.CCROQp,
		"ccro_qc_m3h":              b.CCROQc,
		"ccro_flux_lmh":            b.CCROFlux,
		"pf_feed_m3h":              b.PFFeed,
		"cc_feed_m3h":              b.CCFeed,
		"pf_qp_m3h":                b.PFQp,
		"pf_qc_m3h":                b.PFQc,
		"pf_flux_lmh":              b.PFFlux,
		"cc_blend_feed_m3h_per_pv": b.CCBlendPerPV,
		"cc_qp_m3h_per_pv":         b.CCQpPerPV,
		"cc_qc_m3h_per_pv":         b.CCQcPerPV,
		"cc_recovery_pct":          b.CCRecovery,
		"cc_flux_lmh":              b.CCFlux,
	}
}
