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

// UF simulates a feed-driven ultrafiltration stage: the operating flux
// is back-calculated so that the whole incoming feed is processed, and
// the configured design flux is kept only as a reference.
type UF struct {
	// Lp20 is the clean-membrane permeability at 20 °C [L/m²/h/bar].
	// If zero, 250 is used.
	Lp20 float64
}

// Type implements aquanova.Module.
func (UF) Type() aquanova.ModuleType { return aquanova.UF }

// Compute implements aquanova.Module.
func (u UF) Compute(cfg *aquanova.StageConfig, feed aquanova.FeedStream) (*aquanova.StageMetric, error) {
	d := make(aquanova.Defaults)
	c := cfg.Cycle

	elements := d.Int("elements", cfg.TotalElements(), 1)
	area := float64(elements) * d.Float("membrane_area_m2", cfg.AreaPerElement, 77)

	filt := d.Float("cycle.filtration_cycle_min", c.FiltrationMinutes, 60)
	cycle := NewCycle(filt,
		d.Float("cycle.backwash_duration_sec", c.BackwashSeconds, 60),
		d.Float("cycle.air_scour_duration_sec", c.AirScourSeconds, 30),
		d.Float("cycle.forward_flush_duration_sec", c.ForwardFlushSeconds, 30))

	designFlux := d.Float("design_flux_lmh", cfg.DesignFlux, 55.5)
	bwFlux := d.Float("cycle.backwash_flux_lmh", c.BackwashFlux, 100)
	ffPerModule := d.Float("cycle.forward_flush_flow_m3h_per_mod", c.ForwardFlushFlow, 2.83)
	strainer := clamp(d.Float("cycle.strainer_recovery_pct", c.StrainerRecovery, 99.5)/100, 0.01, 1)

	qf := math.Max(0, feed.Flow)
	inlet := qf * strainer
	strainerLoss := qf - inlet

	ffLoss := ffPerModule * float64(elements) * cycle.ForwardFlush
	avgGross := math.Max(0, inlet-ffLoss)
	var gross float64
	if cycle.Filtration > 0 {
		gross = avgGross / cycle.Filtration
	}
	operatingFlux := gross * 1000 / area

	bwLoss := bwFlux * area / 1000 * cycle.Backwash
	net := math.Max(0, avgGross-bwLoss)

	lp20 := u.Lp20
	if lp20 <= 0 {
		lp20 = 250
	}
	corr := TemperatureCorrection(feed.Temperature)
	ff := clamp(d.Float("flow_factor", cfg.FlowFactor, 1), 0.1, 1)
	tmp := operatingFlux / math.Max(lp20*corr*ff, 1e-9)

	pOut := d.Float("permeate_back_pressure_bar", cfg.PermeateBackPressure, 0.5)
	header := d.Float("dp_module_bar", cfg.DPModule, 0.2)
	pIn := pOut + tmp + header
	eff := clamp(d.Float("pump_eff", cfg.PumpEfficiency, 0.75), 0.2, 0.95)

	m := &aquanova.StageMetric{
		Module:         aquanova.UF,
		Qf:             qf,
		Qp:             net,
		Qc:             qf - net,
		Cf:             feed.TDS,
		Cp:             feed.TDS,
		Cc:             feed.TDS,
		Flux:           net * 1000 / area,
		DesignFlux:     designFlux,
		NDP:            tmp,
		TMP:            tmp,
		PIn:            pIn,
		POut:           pOut,
		DP:             header,
		PumpEfficiency: eff,
		GrossFlow:      gross,
		NetFlow:        net,
		BackwashLoss:   bwLoss + ffLoss,
		CycleMinutes:   filt,
		Converged:      true,
		Defaulted:      d.List(),
	}
	if qf > 0 {
		m.Recovery = net / qf * 100
		m.NetRecovery = m.Recovery
	}
	if inlet > 0 {
		m.Power = inlet * pIn / 36 / eff
	}
	if net > 1e-12 {
		m.SEC = m.Power / net
	}
	var grossRecovery float64
	if inlet > 0 {
		grossRecovery = avgGross / inlet * 100
	}
	m.Details = map[string]interface{}{
		"model": map[string]interface{}{
			"area_m2":             area,
			"cycle_total_min":     cycle.Total,
			"filtration_fraction": cycle.Filtration,
			"strainer_loss_m3h":   strainerLoss,
			"forward_flush_m3h":   ffLoss,
			"backwash_m3h":        bwLoss,
			"operating_flux_lmh":  operatingFlux,
			"gross_recovery_pct":  grossRecovery,
			"temp_corr_factor":    corr,
			"Lp_actual_lmh_bar":   lp20 * corr,
		},
	}
	return m, nil
}
