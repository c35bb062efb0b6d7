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

package aquanova

import "github.com/aquanova/aquanova/science/chem/waterchem"

// StageMetric is the output of a module solver for one stage. It is
// read-only once returned.
type StageMetric struct {
	// Stage is the 1-based position of the stage in the train.
	Stage  int        `json:"stage"`
	Name   string     `json:"stage_id,omitempty"`
	Module ModuleType `json:"module_type"`

	// Flows [m³/h] and concentrations [mg/L] of the feed (f),
	// permeate (p) and concentrate (c) streams.
	Qf float64 `json:"Qf"`
	Qp float64 `json:"Qp"`
	Qc float64 `json:"Qc"`
	Cf float64 `json:"Cf"`
	Cp float64 `json:"Cp"`
	Cc float64 `json:"Cc"`

	// Recovery is Qp/Qf [%].
	Recovery float64 `json:"recovery_pct"`

	// Flux is the average permeate flux [L/m²/h].
	Flux       float64 `json:"flux_lmh"`
	DesignFlux float64 `json:"design_flux_lmh,omitempty"`

	// Pressures [bar].
	NDP     float64 `json:"ndp_bar"`
	PIn     float64 `json:"p_in_bar"`
	POut    float64 `json:"p_out_bar"`
	DP      float64 `json:"dp_bar"`
	TMP     float64 `json:"tmp_bar,omitempty"`
	DeltaPi float64 `json:"delta_pi_bar,omitempty"`

	// Power [kW] and specific energy [kWh/m³ permeate].
	Power          float64 `json:"power_kw"`
	SEC            float64 `json:"sec_kwhm3"`
	PumpEfficiency float64 `json:"pump_eff"`

	// Duty-cycle flows of UF and MF stages [m³/h].
	GrossFlow    float64 `json:"gross_flow_m3h,omitempty"`
	NetFlow      float64 `json:"net_flow_m3h,omitempty"`
	BackwashLoss float64 `json:"backwash_loss_m3h,omitempty"`
	NetRecovery  float64 `json:"net_recovery_pct,omitempty"`

	// CycleMinutes is the filtration time of a UF or MF cycle, or the
	// length of an HRRO batch cycle.
	CycleMinutes float64 `json:"cycle_min,omitempty"`

	// Converged is false when an iterative solver exhausted its
	// iteration budget; the result is then the best available iterate.
	Converged  bool `json:"converged"`
	Iterations int  `json:"iterations"`

	TimeHistory []TimeSeriesPoint `json:"time_history,omitempty"`

	// Scaling holds the scaling indices of the concentrate, when the
	// module computes them.
	Scaling *waterchem.Indices `json:"chemistry,omitempty"`

	// Details is a free-form debug payload.
	Details map[string]interface{} `json:"details,omitempty"`

	Violations []Violation `json:"violations,omitempty"`
	Warnings   []Warning   `json:"warnings,omitempty"`

	// Defaulted lists the configuration values that were substituted
	// with defaults.
	Defaulted []string `json:"defaulted,omitempty"`
}

// Balance sets Qc, Cc and the recovery of m from Qf, Cf, Qp and Cp by
// mass and salt balance.
func (m *StageMetric) Balance() {
	m.Qc = m.Qf - m.Qp
	if m.Qc < 0 {
		m.Qc = 0
	}
	if m.Qc > 1e-12 {
		m.Cc = (m.Qf*m.Cf - m.Qp*m.Cp) / m.Qc
		if m.Cc < 0 {
			m.Cc = 0
		}
	} else {
		m.Cc = m.Cf
	}
	if m.Qf > 0 {
		m.Recovery = m.Qp / m.Qf * 100
	}
}

// Warn adds a stage-local warning to m.
func (m *StageMetric) Warn(key, message string) {
	m.Warnings = append(m.Warnings, Warning{Key: key, Message: message, Level: "WARN"})
}

// TimeSeriesPoint is one sample of a batch cycle.
type TimeSeriesPoint struct {
	Time         float64 `json:"time_min"`
	Recovery     float64 `json:"recovery_pct"`
	Pressure     float64 `json:"pressure_bar"`
	TDS          float64 `json:"tds_mgL"`
	Flux         float64 `json:"flux_lmh"`
	NDP          float64 `json:"ndp_bar"`
	PermeateFlow float64 `json:"permeate_flow_m3h"`
	PermeateTDS  float64 `json:"permeate_tds_mgL"`
	SEC          float64 `json:"specific_energy_kwh_m3"`
	Polarization float64 `json:"beta"`
}

// Violation is a guideline limit that a stage exceeds. Limit holds a
// float64 for a one-sided check or a [2]float64 range.
type Violation struct {
	Key     string      `json:"key"`
	Message string      `json:"message"`
	Value   float64     `json:"value"`
	Limit   interface{} `json:"limit"`
	Unit    string      `json:"unit"`
}

// Warning is a non-fatal diagnostic attached to a run.
type Warning struct {
	Stage   int         `json:"stage,omitempty"`
	Module  ModuleType  `json:"module_type,omitempty"`
	Key     string      `json:"key"`
	Message string      `json:"message"`
	Value   *float64    `json:"value,omitempty"`
	Limit   interface{} `json:"limit,omitempty"`
	Unit    string      `json:"unit,omitempty"`
	Level   string      `json:"level"`
}
