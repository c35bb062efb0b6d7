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

package aquanovautil

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aquanova/aquanova"
	"github.com/tealeg/xlsx"
)

// WriteJSON writes res to w as indented JSON.
func WriteJSON(w io.Writer, res *aquanova.Result) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(res); err != nil {
		return fmt.Errorf("aquanova: writing result: %v", err)
	}
	return nil
}

// stageColumns are the columns of the stages sheet.
var stageColumns = []struct {
	name  string
	value func(m *aquanova.StageMetric) float64
}{
	{"Qf", func(m *aquanova.StageMetric) float64 { return m.Qf }},
	{"Qp", func(m *aquanova.StageMetric) float64 { return m.Qp }},
	{"Qc", func(m *aquanova.StageMetric) float64 { return m.Qc }},
	{"Cf", func(m *aquanova.StageMetric) float64 { return m.Cf }},
	{"Cp", func(m *aquanova.StageMetric) float64 { return m.Cp }},
	{"Cc", func(m *aquanova.StageMetric) float64 { return m.Cc }},
	{"recovery_pct", func(m *aquanova.StageMetric) float64 { return m.Recovery }},
	{"flux", func(m *aquanova.StageMetric) float64 { return m.Flux }},
	{"ndp", func(m *aquanova.StageMetric) float64 { return m.NDP }},
	{"p_in", func(m *aquanova.StageMetric) float64 { return m.PIn }},
	{"p_out", func(m *aquanova.StageMetric) float64 { return m.POut }},
	{"dp", func(m *aquanova.StageMetric) float64 { return m.DP }},
	{"power_kw", func(m *aquanova.StageMetric) float64 { return m.Power }},
	{"sec_kwhm3", func(m *aquanova.StageMetric) float64 { return m.SEC }},
}

// historyColumns are the columns of the time_history sheet.
var historyColumns = []struct {
	name  string
	value func(p aquanova.TimeSeriesPoint) float64
}{
	{"time_min", func(p aquanova.TimeSeriesPoint) float64 { return p.Time }},
	{"recovery_pct", func(p aquanova.TimeSeriesPoint) float64 { return p.Recovery }},
	{"pressure", func(p aquanova.TimeSeriesPoint) float64 { return p.Pressure }},
	{"tds_mgL", func(p aquanova.TimeSeriesPoint) float64 { return p.TDS }},
	{"flux", func(p aquanova.TimeSeriesPoint) float64 { return p.Flux }},
	{"ndp", func(p aquanova.TimeSeriesPoint) float64 { return p.NDP }},
	{"permeate_flow", func(p aquanova.TimeSeriesPoint) float64 { return p.PermeateFlow }},
	{"permeate_tds_mgL", func(p aquanova.TimeSeriesPoint) float64 { return p.PermeateTDS }},
	{"sec_kwhm3", func(p aquanova.TimeSeriesPoint) float64 { return p.SEC }},
	{"beta", func(p aquanova.TimeSeriesPoint) float64 { return p.Polarization }},
}

func header(s *xlsx.Sheet, names ...string) {
	r := s.AddRow()
	for _, n := range names {
		r.AddCell().SetString(n)
	}
}

// WriteXLSX saves res as a spreadsheet with summary, streams, stages
// and, for batch processes, time_history sheets.
func WriteXLSX(path string, res *aquanova.Result) error {
	f := xlsx.NewFile()
	sheet := func(name string) *xlsx.Sheet {
		s, err := f.AddSheet(name)
		if err != nil {
			panic(err) // Sheet names are constant and unique.
		}
		return s
	}

	summary := sheet("summary")
	header(summary, "kpi", "value")
	for _, kv := range []struct {
		name string
		v    float64
	}{
		{"recovery_pct", res.KPI.Recovery},
		{"flux", res.KPI.Flux},
		{"ndp", res.KPI.NDP},
		{"sec_kwhm3", res.KPI.SEC},
		{"prod_tds", res.KPI.ProductTDS},
		{"feed_flow", res.KPI.FeedFlow},
		{"permeate_flow", res.KPI.PermeateFlow},
		{"system_rejection_pct", res.KPI.MassBalance.SystemRejection},
	} {
		r := summary.AddRow()
		r.AddCell().SetString(kv.name)
		r.AddCell().SetFloat(kv.v)
	}
	if res.KPI.BatchCycle != nil {
		r := summary.AddRow()
		r.AddCell().SetString("batchcycle")
		r.AddCell().SetFloat(*res.KPI.BatchCycle)
	}
	for _, q := range []string{"flow", "pressure", "temperature", "flux", "tds", "sec"} {
		r := summary.AddRow()
		r.AddCell().SetString("unit_" + q)
		r.AddCell().SetString(res.Units[q])
	}

	streams := sheet("streams")
	header(streams, "label", "flow", "tds_mgL", "ph", "pressure")
	for _, st := range res.Streams {
		r := streams.AddRow()
		r.AddCell().SetString(st.Label)
		r.AddCell().SetFloat(st.Flow)
		r.AddCell().SetFloat(st.TDS)
		r.AddCell().SetFloat(st.PH)
		r.AddCell().SetFloat(st.Pressure)
	}

	stages := sheet("stages")
	names := []string{"stage", "module_type"}
	for _, c := range stageColumns {
		names = append(names, c.name)
	}
	header(stages, append(names, "converged")...)
	for _, m := range res.Stages {
		r := stages.AddRow()
		r.AddCell().SetInt(m.Stage)
		r.AddCell().SetString(string(m.Module))
		for _, c := range stageColumns {
			r.AddCell().SetFloat(c.value(m))
		}
		r.AddCell().SetBool(m.Converged)
	}

	if len(res.TimeHistory) > 0 {
		h := sheet("time_history")
		names = names[:0]
		for _, c := range historyColumns {
			names = append(names, c.name)
		}
		header(h, names...)
		for _, p := range res.TimeHistory {
			r := h.AddRow()
			for _, c := range historyColumns {
				r.AddCell().SetFloat(c.value(p))
			}
		}
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("aquanova: saving %s: %v", path, err)
	}
	return nil
}
