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

import (
	"fmt"
	"math"
	"strings"

	"github.com/aquanova/aquanova"
	"github.com/aquanova/aquanova/science/chem/waterchem"
)

// Engine modes.
const (
	// ExcelOnly takes the flows from the design formulas and the
	// pressure and energy from the batch cycle.
	ExcelOnly = "excel_only"

	// ExcelPhysics additionally solves the inlet pressure with the axial
	// model.
	ExcelPhysics = "excel_physics"
)

// Module simulates closed-circuit RO stages. The zero value is ready to
// use.
type Module struct {
	// Chem is the water-chemistry calibration. If nil, the default is used.
	Chem *waterchem.Calibration

	// Physics is the model calibration. If nil, DefaultPhysics is used.
	// Stage configuration values take precedence over it.
	Physics *Physics
}

// Type implements aquanova.Module.
func (Module) Type() aquanova.ModuleType { return aquanova.HRRO }

// design holds the resolved inputs of a stage.
type design struct {
	engine, cpMode string

	q, rec   float64
	vessels  int
	epv      int
	area     float64 // per element
	a, b     float64 // at feed temperature, flow factor applied
	eff      float64
	baseline Baseline
	phys     Physics
	osmotic  func(float64) float64
}

// Compute implements aquanova.Module.
func (mod Module) Compute(cfg *aquanova.StageConfig, feed aquanova.FeedStream) (*aquanova.StageMetric, error) {
	d := make(aquanova.Defaults)
	s, err := mod.design(cfg, feed, d)
	if err != nil {
		return nil, err
	}
	h := cfg.HRRO

	batch, err := BatchCycle(BatchInput{
		Feed:              s.q,
		Recovery:          s.rec,
		Cf:                feed.TDS,
		Temperature:       feed.Temperature,
		Osmotic:           s.osmotic,
		Area:              s.baseline.TotalArea,
		A:                 s.a,
		B:                 s.b,
		PumpEfficiency:    s.eff,
		BackPressure:      math.Max(0, cfg.PermeateBackPressure),
		Circulation:       s.baseline.CCQcPerPV + s.q/float64(s.vessels),
		ElementsPerVessel: s.epv,
		Stop:              stopExpression(h),
		Physics:           s.phys,
	})
	if err != nil {
		return nil, err
	}

	m := &aquanova.StageMetric{
		Module:         aquanova.HRRO,
		Qf:             s.q,
		Cf:             feed.TDS,
		Qp:             s.baseline.CCROQp,
		Qc:             s.baseline.CCROQc,
		Flux:           s.baseline.CCROFlux,
		DesignFlux:     cfg.DesignFlux,
		PumpEfficiency: s.eff,
		CycleMinutes:   batch.CycleMinutes,
		TimeHistory:    batch.Points,
	}
	m.Details = map[string]interface{}{
		"baseline": s.baseline.Map(),
		"batch": map[string]interface{}{
			"cycle_min":   batch.CycleMinutes,
			"cc_min":      batch.CCMinutes,
			"pf_min":      batch.PFMinutes,
			"max_dp_bar":  batch.MaxDP,
			"max_beta":    batch.MaxBeta,
			"stopped":     batch.Stopped,
			"points":      len(batch.Points),
			"loop_vol_m3": s.phys.LoopVolume,
		},
		"model": map[string]interface{}{
			"engine":            s.engine,
			"cp_mode":           s.cpMode,
			"A_base_lmh_bar":    s.a,
			"B_base_lmh":        s.b,
			"total_area_m2":     s.baseline.TotalArea,
			"elements_per_pv":   s.epv,
			"vessel_count":      s.vessels,
			"recovery_pct":      s.rec,
			"hydraulic_diam_m":  s.phys.dh(),
			"pressure_limit":    s.phys.PressureLimit,
			"permeate_back_bar": math.Max(0, cfg.PermeateBackPressure),
		},
	}

	checks := Checks{
		FeedFlowPerVessel: f(s.q / float64(s.vessels)),
		ElementRecovery:   f(s.rec / float64(s.epv)),
		Beta:              f(batch.MaxBeta),
	}
	if h.FluxDecline > 0 {
		checks.FluxDecline = f(h.FluxDecline)
	}

	switch s.engine {
	case ExcelOnly:
		if err := s.excelOnly(m, cfg, batch); err != nil {
			return nil, err
		}
	case ExcelPhysics:
		r := s.excelPhysics(m, cfg, feed)
		checks.LeadFlux = f(r.LeadFlux)
		checks.Beta = f(math.Max(batch.MaxBeta, r.MaxBeta))
	}
	checks.AvgFlux = f(m.Flux)
	checks.ConcFlowPerVessel = f(m.Qc / float64(s.vessels))
	checks.DPPerVessel = f(m.DP)

	if m.Qf > 0 {
		m.Recovery = m.Qp / m.Qf * 100
		m.NetRecovery = m.Recovery
	}

	profile, reason := h.GuidelineProfile, "configured"
	if profile == "" {
		var sdi *float64
		if feed.Fouling.SDI15 > 0 {
			sdi = f(feed.Fouling.SDI15)
		}
		profile, reason = ChooseProfile(feed.WaterType, feed.WaterSubType, sdi, feed.TDS)
	}
	inch := cfg.ElementInch
	if inch != 4 && inch != 8 {
		inch = ElementInch(s.area)
	}
	used, violations := Check(profile, inch, checks)
	used.Reason = reason
	if violations == nil {
		violations = []aquanova.Violation{}
	}
	m.Violations = violations
	m.Details["guideline"] = used
	m.Details["violations"] = violations

	chem := mod.Chem
	if chem == nil {
		chem = waterchem.DefaultCalibration()
	}
	brine := cfg.Chemistry.Apply(feed.Profile()).ScaleTo(m.Cc)
	indices := chem.Indices(brine)
	m.Scaling = &indices

	m.Defaulted = d.List()
	return m, nil
}

// design resolves the stage inputs and evaluates the design formulas.
func (mod Module) design(cfg *aquanova.StageConfig, feed aquanova.FeedStream, d aquanova.Defaults) (*design, error) {
	h := cfg.HRRO
	s := new(design)

	s.engine = strings.ToLower(strings.TrimSpace(d.String("hrro.engine", h.Engine, ExcelOnly)))
	if s.engine != ExcelOnly && s.engine != ExcelPhysics {
		return nil, fmt.Errorf("hrro: invalid engine mode %q", h.Engine)
	}
	s.cpMode = strings.ToLower(strings.TrimSpace(d.String("hrro.cp_mode", h.CPMode, FixedRejection)))
	switch s.cpMode {
	case FixedRejection, ModelRejection, NoPermeate:
	default:
		return nil, fmt.Errorf("hrro: invalid cp mode %q", h.CPMode)
	}

	s.q = cfg.FeedFlow
	if s.q <= 0 {
		s.q = d.Float("feed_flow_m3h", feed.Flow, 100)
	}
	rec := h.CCRORecovery
	if rec <= 0 {
		rec = d.Float("recovery_target_pct", cfg.RecoveryTarget, 90)
	}
	s.rec = clamp(rec, 0, 99.5)

	s.vessels = d.Int("vessel_count", cfg.VesselCount, 1)
	s.epv = cfg.ElementsPerVessel
	if s.epv <= 0 && cfg.Elements > 0 {
		s.epv = cfg.Elements / s.vessels
	}
	s.epv = d.Int("elements_per_vessel", s.epv, 6)
	s.area = d.Float("membrane_area_m2", cfg.AreaPerElement, 40.9)

	a0 := d.Float("membrane_A_lmh_bar", cfg.A, 6.35)
	b0 := d.Float("membrane_B_lmh", cfg.B, 0.058)
	s.a, s.b = CorrectMembrane(a0, b0, feed.Temperature)
	s.a *= d.Float("flow_factor", cfg.FlowFactor, 0.85)
	s.eff = clamp(d.Float("pump_eff", cfg.PumpEfficiency, 0.8), 0.1, 1)

	s.baseline = ComputeBaseline(BaselineInput{
		Feed:              s.q,
		CCRORecovery:      s.rec,
		PFFeedRatio:       d.Float("hrro.pf_feed_ratio_pct", h.PFFeedRatio, 110),
		PFRecovery:        d.Float("hrro.pf_recovery_pct", h.PFRecovery, 10),
		CCRecycle:         d.Float("hrro.cc_recycle_m3h_per_pv", h.CCRecycle, 4.33),
		Vessels:           s.vessels,
		ElementsPerVessel: s.epv,
		AreaPerElement:    s.area,
	})

	phys := mod.Physics
	if phys == nil {
		phys = DefaultPhysics()
	}
	s.phys = phys.with(h)
	if s.phys.Segments <= 0 {
		s.phys.Segments = s.epv
	}

	chem := mod.Chem
	if chem == nil {
		chem = waterchem.DefaultCalibration()
	}
	s.osmotic = chem.OsmoticFunc(feed.Profile())
	return s, nil
}

func stopExpression(h aquanova.HRROConfig) string {
	if h.StopExpression != "" {
		return h.StopExpression
	}
	return StopExpression(h.StopRecovery, h.StopPermeateTDS)
}

// excelOnly fills m from the design flows, the permeate model and the
// batch cycle.
func (s *design) excelOnly(m *aquanova.StageMetric, cfg *aquanova.StageConfig, batch *Batch) error {
	h := cfg.HRRO
	rej := h.FixedRejection
	if rej <= 0 {
		rej = cfg.Rejection
	}
	pq, err := PermeateQuality(PermeateInput{
		Mode:         s.cpMode,
		Cf:           m.Cf,
		Qf:           m.Qf,
		Qp:           m.Qp,
		Rejection:    rej,
		MinRejection: h.MinModelRejection,
		Flux:         m.Flux,
		B:            s.b,
	})
	if err != nil {
		return err
	}
	if pq.OK {
		m.Cp, m.Cc = pq.Cp, pq.Cc
		m.Details["model"].(map[string]interface{})["rejection_pct"] = pq.Rejection
	} else {
		m.Cp = batch.MeanPermeateTDS()
		m.Cc = saltBalance(m.Cf, m.Qf, m.Qp, m.Cp)
	}

	m.PIn = batch.MaxPressure()
	m.DP = batch.MaxDP
	m.POut = math.Max(0, m.PIn-m.DP)
	m.NDP = batch.MeanNDP()
	m.SEC = batch.MeanSEC()
	m.Power = m.SEC * m.Qp
	m.Converged = true
	return nil
}

// excelPhysics solves the inlet pressure that delivers the target flux
// in one vessel and fills m from it.
func (s *design) excelPhysics(m *aquanova.StageMetric, cfg *aquanova.StageConfig, feed aquanova.FeedStream) AxialResult {
	b := s.baseline
	target := b.CCFlux
	override := cfg.Flux > 0
	if override {
		target = cfg.Flux
	}

	cfMax := 1 / math.Max(1e-6, 1-s.rec/100)
	in := AxialInput{
		Temperature: feed.Temperature,
		A:           s.a,
		B:           s.b,
		Area:        float64(s.epv) * s.area,
		Q:           b.CCBlendPerPV,
		C:           m.Cf * (1 + cfMax) / 2,
		Osmotic:     s.osmotic,
		Physics:     s.phys,
	}
	if cfg.DPModule > 0 {
		in.DP = cfg.DPModule * float64(s.epv)
	} else {
		w := Properties(in.C, in.Temperature, in.Osmotic)
		in.DP = SpacerPressureDrop(w, s.phys.velocity(in.Q), s.phys.dh(), s.phys.ElementLength) * float64(s.epv)
	}

	p, r, it, ok := SolveInletPressure(in, target, s.phys.PressureLimit, s.phys.FluxTol, s.phys.MaxIter)

	mode := "excel_baseline"
	var fromFlux float64
	clamped := false
	if override {
		mode = "flux_override"
		fromFlux = cfg.Flux * b.TotalArea / 1000
		m.Qp = math.Min(fromFlux, m.Qf)
		clamped = fromFlux > m.Qf
		m.Qc = m.Qf - m.Qp
		if b.TotalArea > 0 {
			m.Flux = m.Qp * 1000 / b.TotalArea
		}
	}

	m.Cp = r.Cp
	m.Cc = saltBalance(m.Cf, m.Qf, m.Qp, m.Cp)
	m.PIn = p
	m.DP = in.DP
	m.POut = math.Max(0, p-in.DP)
	m.NDP = r.NDP
	m.Power = m.Qf * p / 36 / s.eff
	if m.Qp > 1e-12 {
		m.SEC = m.Power / m.Qp
	}
	m.Converged = ok
	m.Iterations = it
	if !ok {
		m.Warn("not_converged", fmt.Sprintf("inlet pressure search did not reach %.1f LMH within %d iterations, best %.2f LMH at %.2f bar",
			target, it, r.AvgFlux, p))
	}
	if !r.CPConverged {
		m.Warn("cp_not_converged", "concentration polarization did not converge in every segment")
	}

	m.Details["design_excel"] = map[string]interface{}{
		"baseline": b.Map(),
		"physics": map[string]interface{}{
			"flow_mode":              mode,
			"qp_total_m3h":           m.Qp,
			"qc_total_m3h":           m.Qc,
			"qp_total_from_flux_m3h": fromFlux,
			"qp_total_clamped":       clamped,
			"p_in_bar":               p,
			"avg_flux_lmh":           r.AvgFlux,
			"lead_flux_lmh":          r.LeadFlux,
			"target_flux_lmh":        target,
			"converged":              ok,
		},
	}
	return r
}
