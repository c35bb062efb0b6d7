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

package dutycycle

import (
	"math"

	"github.com/aquanova/aquanova"
)

// MF simulates a flux-driven microfiltration stage with periodic
// backwash and a lumped clean-in-place loss.
type MF struct {
	// Permeability25 is the permeability at 25 °C [L/m²/h/bar]. If zero,
	// 500 is used.
	Permeability25 float64
}

// Type implements aquanova.Module.
func (MF) Type() aquanova.ModuleType { return aquanova.MF }

// Compute implements aquanova.Module.
func (mf MF) Compute(cfg *aquanova.StageConfig, feed aquanova.FeedStream) (*aquanova.StageMetric, error) {
	d := make(aquanova.Defaults)
	c := cfg.Cycle

	elements := d.Int("elements", cfg.TotalElements(), 1)
	area := float64(elements) * d.Float("membrane_area_m2", cfg.AreaPerElement, 60)

	flux := d.Float("flux_lmh", cfg.Flux, 80)
	bwFlux := c.BackwashFlux
	if bwFlux <= 0 {
		d["cycle.backwash_flux_lmh"] = true
		bwFlux = flux * d.Float("cycle.backwash_flux_multiplier", c.BackwashMultiplier, 2)
	}

	filt := math.Max(0.1, d.Float("cycle.filtration_cycle_min", c.FiltrationMinutes, 20))
	cycle := NewCycle(filt, d.Float("cycle.backwash_duration_sec", c.BackwashSeconds, 60), 0, 0)
	cip := clamp(d.Float("cycle.cip_loss_factor", c.CIPLossFactor, 0.98), 0.7, 1)

	qf := math.Max(0, feed.Flow)
	gross := flux * area / 1000
	if qf > 0 && gross > qf {
		gross = qf
		flux = gross * 1000 / area
	}
	bw := bwFlux * area / 1000
	net := math.Max(0, (gross*cycle.Filtration-bw*cycle.Backwash)*cip)
	if net > qf {
		net = qf
	}

	p25 := mf.Permeability25
	if p25 <= 0 {
		p25 = 500
	}
	corr := clamp(1+0.025*(feed.Temperature-25), 0.5, 2)
	tmp := math.Max(0, flux/math.Max(1e-9, p25*corr))

	pOut := d.Float("permeate_back_pressure_bar", cfg.PermeateBackPressure, 0.5)
	header := math.Max(0, cfg.DPModule)
	pIn := pOut + tmp + header
	eff := clamp(d.Float("pump_eff", cfg.PumpEfficiency, 0.75), 0.2, 0.95)

	m := &aquanova.StageMetric{
		Module:         aquanova.MF,
		Qf:             qf,
		Qp:             net,
		Qc:             qf - net,
		Cf:             feed.TDS,
		Cp:             feed.TDS,
		Cc:             feed.TDS,
		Flux:           flux,
		DesignFlux:     cfg.DesignFlux,
		NDP:            tmp,
		TMP:            tmp,
		PIn:            pIn,
		POut:           pOut,
		DP:             header,
		PumpEfficiency: eff,
		GrossFlow:      gross,
		NetFlow:        net,
		BackwashLoss:   bw * cycle.Backwash,
		CycleMinutes:   filt,
		Converged:      true,
		Defaulted:      d.List(),
	}
	if qf > 1e-12 {
		m.Recovery = net / qf * 100
		m.NetRecovery = m.Recovery
	}
	if qf > 0 && pIn > 0 {
		m.Power = qf * pIn / 36 / eff
	}
	if net > 1e-12 {
		m.SEC = m.Power / net
	}
	m.Details = map[string]interface{}{
		"model": map[string]interface{}{
			"area_m2":              area,
			"cycle_total_min":      cycle.Total,
			"filt_frac":            cycle.Filtration,
			"bw_frac":              cycle.Backwash,
			"cip_loss_factor":      cip,
			"temp_corr":            corr,
			"permeability_lmh_bar": p25 * corr,
		},
	}
	return m, nil
}
