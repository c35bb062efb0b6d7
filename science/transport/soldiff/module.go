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

package soldiff

import (
	"math"

	"github.com/aquanova/aquanova"
	"github.com/aquanova/aquanova/science/chem/waterchem"
)

// RO simulates a reverse osmosis stage. The zero value is ready to use.
type RO struct {
	// Chem is the water-chemistry calibration. If nil, the default is used.
	Chem *waterchem.Calibration

	// Params overrides ROParams when MaxIter is set.
	Params Params
}

// Type implements aquanova.Module.
func (RO) Type() aquanova.ModuleType { return aquanova.RO }

// Compute implements aquanova.Module.
func (r RO) Compute(cfg *aquanova.StageConfig, feed aquanova.FeedStream) (*aquanova.StageMetric, error) {
	d := make(aquanova.Defaults)
	s := newStage(cfg, d, 40)
	s.in.A = d.Float("membrane_A_lmh_bar", cfg.A, 3)
	s.in.B = d.Float("membrane_B_lmh", cfg.B, 0.1)
	s.in.Sigma = 1
	s.in.PIn = d.Float("pressure_bar", cfg.Pressure, 15)

	p := r.Params
	if p.MaxIter == 0 {
		p = ROParams
	}
	return s.solve(aquanova.RO, cfg, feed, r.Chem, p, d), nil
}

// NF simulates a nanofiltration stage, where the permeate concentration
// follows from a nominal rejection and the osmotic pressure difference
// is scaled by that rejection.
type NF struct {
	Chem *waterchem.Calibration

	// Params overrides NFParams when MaxIter is set.
	Params Params
}

// Type implements aquanova.Module.
func (NF) Type() aquanova.ModuleType { return aquanova.NF }

// Compute implements aquanova.Module.
func (n NF) Compute(cfg *aquanova.StageConfig, feed aquanova.FeedStream) (*aquanova.StageMetric, error) {
	d := make(aquanova.Defaults)
	s := newStage(cfg, d, 37)
	s.in.A = d.Float("membrane_A_lmh_bar", cfg.A, 7)
	rej := clamp(d.Float("membrane_salt_rejection_pct", cfg.Rejection, 90), 0, 99.9) / 100
	s.in.Sigma = rej
	s.in.Rejection = rej
	s.in.PIn = d.Float("pressure_bar", cfg.Pressure, 5)

	p := n.Params
	if p.MaxIter == 0 {
		p = NFParams
	}
	m := s.solve(aquanova.NF, cfg, feed, n.Chem, p, d)
	m.Details["model"].(map[string]interface{})["rejection_pct"] = rej * 100
	return m, nil
}

// stage holds the inputs shared by RO and NF stages.
type stage struct {
	in       Input
	elements int
	dpModule float64
	eff      float64
}

func newStage(cfg *aquanova.StageConfig, d aquanova.Defaults, area float64) *stage {
	s := &stage{
		elements: d.Int("elements", cfg.TotalElements(), 1),
		dpModule: d.Float("dp_module_bar", cfg.DPModule, 0.2),
		eff:      clamp(d.Float("pump_eff", cfg.PumpEfficiency, 0.8), 0.2, 0.95),
	}
	s.in.Area = float64(s.elements) * d.Float("membrane_area_m2", cfg.AreaPerElement, area)
	s.in.DP = float64(s.elements) * s.dpModule
	s.in.PPerm = math.Max(0, cfg.PermeateBackPressure)
	return s
}

func (s *stage) solve(mt aquanova.ModuleType, cfg *aquanova.StageConfig, feed aquanova.FeedStream,
	chem *waterchem.Calibration, p Params, d aquanova.Defaults) *aquanova.StageMetric {
	if chem == nil {
		chem = waterchem.DefaultCalibration()
	}
	s.in.Qf = math.Max(0, feed.Flow)
	s.in.Cf = math.Max(0, feed.TDS)
	s.in.Osmotic = chem.OsmoticFunc(feed.Profile())

	o := p.Solve(s.in)

	m := &aquanova.StageMetric{
		Module:         mt,
		Qf:             s.in.Qf,
		Cf:             s.in.Cf,
		Qp:             o.Qp,
		Qc:             o.Qc,
		Cp:             o.Cp,
		Cc:             o.Cc,
		Flux:           o.Flux,
		DesignFlux:     cfg.DesignFlux,
		NDP:            o.NDP,
		PIn:            s.in.PIn,
		POut:           math.Max(0, s.in.PIn-s.in.DP),
		DP:             s.in.DP,
		DeltaPi:        o.PiWall * s.in.Sigma,
		PumpEfficiency: s.eff,
		Converged:      o.Converged,
		Iterations:     o.Iterations,
		Defaulted:      d.List(),
	}
	if m.Qf > 0 {
		m.Recovery = m.Qp / m.Qf * 100
	}
	if m.Qf > 0 && m.PIn > 0 {
		m.Power = m.Qf * m.PIn / 36 / s.eff
	}
	if m.Qp > 1e-12 {
		m.SEC = m.Power / m.Qp
	}

	brine := cfg.Chemistry.Apply(feed.Profile()).ScaleTo(o.Cc)
	indices := chem.Indices(brine)
	m.Scaling = &indices

	m.Details = map[string]interface{}{
		"model": map[string]interface{}{
			"elements":         s.elements,
			"area_m2":          s.in.Area,
			"dp_total_bar":     s.in.DP,
			"avg_pressure_bar": o.PEff,
			"avg_conc_mgL":     o.Bulk,
			"wall_conc_mgL":    o.Wall,
			"cp_factor":        o.Beta,
			"pi_wall_bar":      o.PiWall,
			"p_perm_bar":       s.in.PPerm,
		},
	}
	return m
}
