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

import (
	"fmt"
	"math"

	"github.com/aquanova/aquanova/science/chem/waterchem"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Result is the output of a simulation run.
type Result struct {
	SchemaVersion int    `json:"schema_version"`
	Name          string `json:"scenario_name,omitempty"`

	// Streams holds the Feed, Product and Brine streams, in that order.
	Streams []Stream `json:"streams"`

	KPI KPI `json:"kpi"`

	Stages []*StageMetric `json:"stage_metrics"`

	Chemistry *ChemistrySummary `json:"chemistry,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`

	// TimeHistory is the batch-cycle series of the first stage that
	// reports one.
	TimeHistory []TimeSeriesPoint `json:"time_history,omitempty"`

	// Units maps each physical quantity to the unit its values are
	// reported in.
	Units map[string]string `json:"units"`
}

// Stream is a system-level water stream.
type Stream struct {
	Label    string  `json:"label"`
	Flow     float64 `json:"flow_m3h"`
	TDS      float64 `json:"tds_mgL"`
	PH       float64 `json:"ph"`
	Pressure float64 `json:"pressure_bar"`
}

// KPI holds the system key performance indicators.
type KPI struct {
	Recovery     float64 `json:"recovery_pct"`
	Flux         float64 `json:"flux_lmh"`
	NDP          float64 `json:"ndp_bar"`
	SEC          float64 `json:"sec_kwhm3"`
	ProductTDS   float64 `json:"prod_tds"`
	FeedFlow     float64 `json:"feed_m3h"`
	PermeateFlow float64 `json:"permeate_m3h"`

	// BatchCycle is the filtration cycle of the last UF or MF stage or,
	// failing that, the batch cycle of the last HRRO stage [min].
	BatchCycle *float64 `json:"batchcycle,omitempty"`

	MassBalance MassBalance `json:"mass_balance"`
}

// MassBalance reports the flow and salt closure of the system.
type MassBalance struct {
	FlowError        float64 `json:"flow_error_m3h"`
	FlowErrorPercent float64 `json:"flow_error_pct"`
	SaltError        float64 `json:"salt_error_kgh"`
	SaltErrorPercent float64 `json:"salt_error_pct"`
	SystemRejection  float64 `json:"system_rejection_pct"`
	IsBalanced       bool    `json:"is_balanced"`
}

// ChemistrySummary holds the scaling indices of the feed and of the
// final brine.
type ChemistrySummary struct {
	Feed       waterchem.Indices `json:"feed"`
	FinalBrine waterchem.Indices `json:"final_brine"`
}

// DefaultUnits are the units the engine computes in.
func DefaultUnits() map[string]string {
	return map[string]string{
		"flow":        "m3/h",
		"pressure":    "bar",
		"temperature": "C",
		"flux":        "LMH",
		"tds":         "mg/L",
		"sec":         "kWh/m3",
	}
}

// round rounds x to n decimal places.
func round(x float64, n int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	p := math.Pow(10, float64(n))
	return math.Round(x*p) / p
}

// stagePower returns the pumping power of a stage [kW].
func stagePower(m *StageMetric) float64 {
	eff := m.PumpEfficiency
	if eff <= 1e-9 {
		eff = 0.8
	}
	if m.Qf <= 0 || m.PIn <= 0 {
		return 0
	}
	return m.Qf * m.PIn / 36 / eff
}

// product returns the system product flow, TDS, flux and NDP.
func product(metrics []*StageMetric, feed FeedStream) (flow, tds, flux, ndp float64) {
	var q, cp, j, p []float64
	for _, m := range metrics {
		if !m.Module.PressureDriven() {
			continue
		}
		q = append(q, m.Qp)
		cp = append(cp, m.Cp)
		j = append(j, m.Flux)
		p = append(p, m.NDP)
	}
	if len(q) == 0 {
		last := metrics[len(metrics)-1]
		tds = last.Cp
		if tds == 0 {
			tds = feed.TDS
		}
		return last.Qp, tds, last.Flux, last.NDP
	}
	flow = floats.Sum(q)
	if flow <= 1e-12 {
		return flow, 0, 0, 0
	}
	return flow, stat.Mean(cp, q), stat.Mean(j, q), stat.Mean(p, q)
}

func massBalance(qf, cf, qp, cp, qb, cb float64) MassBalance {
	flowErr := qf - (qp + qb)
	saltErr := qf*cf - (qp*cp + qb*cb) // g/h
	var flowPct, saltPct, rej float64
	if qf > 0 {
		flowPct = flowErr / qf * 100
	}
	if qf*cf > 0 {
		saltPct = saltErr / (qf * cf) * 100
	}
	if cf > 0 {
		rej = (1 - cp/cf) * 100
	}
	return MassBalance{
		FlowError:        round(flowErr, 4),
		FlowErrorPercent: round(flowPct, 2),
		SaltError:        round(saltErr/1000, 4),
		SaltErrorPercent: round(saltPct, 2),
		SystemRejection:  round(rej, 2),
		IsBalanced:       math.Abs(flowPct) < 1 && math.Abs(saltPct) < 5,
	}
}

// aggregate builds the system result from the stage metrics.
func (s *Simulation) aggregate(req *Request, r *runState) *Result {
	feed := r.feed
	metrics := r.metrics
	last := metrics[len(metrics)-1]

	prodFlow, prodTDS, flux, ndp := product(metrics, feed)
	var recovery float64
	if feed.Flow > 0 {
		recovery = prodFlow / feed.Flow * 100
	}

	var sec float64
	if len(metrics) == 1 && last.Module == HRRO {
		sec = last.SEC
	} else if prodFlow > 1e-12 {
		var power float64
		for _, m := range metrics {
			power += stagePower(m)
		}
		sec = power / prodFlow
	}

	brineFlow, brineTDS := last.Qc, last.Cc

	mb := massBalance(feed.Flow, feed.TDS, prodFlow, prodTDS, brineFlow, brineTDS)

	res := &Result{
		SchemaVersion: SchemaVersion,
		Name:          req.Name,
		Stages:        metrics,
		Units:         DefaultUnits(),
		KPI: KPI{
			Recovery:     round(recovery, 2),
			Flux:         round(flux, 1),
			NDP:          round(ndp, 2),
			SEC:          round(sec, 3),
			ProductTDS:   round(prodTDS, 2),
			FeedFlow:     feed.Flow,
			PermeateFlow: round(prodFlow, 6),
			BatchCycle:   batchCycle(metrics),
			MassBalance:  mb,
		},
		Streams: []Stream{
			{Label: "Feed", Flow: feed.Flow, TDS: feed.TDS, PH: feed.PH, Pressure: feed.Pressure},
			{Label: "Product", Flow: round(prodFlow, 2), TDS: round(prodTDS, 2), PH: feed.PH},
			{Label: "Brine", Flow: round(brineFlow, 2), TDS: round(brineTDS, 2), PH: feed.PH},
		},
	}

	for _, m := range metrics {
		if len(m.TimeHistory) > 0 {
			res.TimeHistory = m.TimeHistory
			break
		}
	}

	res.Warnings = rollup(metrics)
	if !mb.IsBalanced {
		s.log().WithFields(logrus.Fields{
			"flow_error_pct": mb.FlowErrorPercent,
			"salt_error_pct": mb.SaltErrorPercent,
		}).Warn("system mass balance does not close")
		res.Warnings = append(res.Warnings, Warning{
			Key: "mass_balance",
			Message: fmt.Sprintf("flow closure %.2f %%, salt closure %.2f %%",
				mb.FlowErrorPercent, mb.SaltErrorPercent),
			Value: &mb.FlowErrorPercent,
			Unit:  "%",
			Level: "WARN",
		})
	}

	feedProfile := req.Chemistry.Apply(feed.Profile())
	chem := s.chem()
	res.Chemistry = &ChemistrySummary{
		Feed:       chem.Indices(feedProfile),
		FinalBrine: chem.Indices(feedProfile.ScaleTo(brineTDS)),
	}
	return res
}

func batchCycle(metrics []*StageMetric) *float64 {
	for i := len(metrics) - 1; i >= 0; i-- {
		if m := metrics[i]; !m.Module.PressureDriven() && m.CycleMinutes > 0 {
			v := m.CycleMinutes
			return &v
		}
	}
	for i := len(metrics) - 1; i >= 0; i-- {
		if m := metrics[i]; m.Module == HRRO && m.CycleMinutes > 0 {
			v := m.CycleMinutes
			return &v
		}
	}
	return nil
}

// rollup collects the guideline violations and warnings of every stage.
func rollup(metrics []*StageMetric) []Warning {
	var o []Warning
	for _, m := range metrics {
		for _, v := range m.Violations {
			value := v.Value
			o = append(o, Warning{
				Stage:   m.Stage,
				Module:  m.Module,
				Key:     v.Key,
				Message: v.Message,
				Value:   &value,
				Limit:   v.Limit,
				Unit:    v.Unit,
				Level:   "WARN",
			})
		}
		for _, w := range m.Warnings {
			w.Stage = m.Stage
			w.Module = m.Module
			if w.Level == "" {
				w.Level = "WARN"
			}
			o = append(o, w)
		}
	}
	return o
}
