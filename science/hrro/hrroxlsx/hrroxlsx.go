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

// Package hrroxlsx reads the reference HRRO design workbook and checks
// its cached formula results against hrro.ComputeBaseline.
package hrroxlsx

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aquanova/aquanova/science/hrro"
	"github.com/ctessum/requestcache"
	"github.com/tealeg/xlsx"
)

// DefaultSheet is the name of the cover sheet of the workbook.
const DefaultSheet = "CCRO표지"

// Input cells of the cover sheet.
const (
	FeedCell              = "C7"
	RecoveryCell          = "G7"
	PFFeedRatioCell       = "K5"
	PFRecoveryCell        = "K6"
	CCRecycleCell         = "O5"
	VesselsCell           = "H18"
	ElementsPerVesselCell = "H19"
	AreaCell              = "C22"
)

// outputs maps the formula cells of the cover sheet to the baseline
// values they hold.
var outputs = map[string]struct {
	name  string
	value func(b hrro.Baseline) float64
}{
	"H24": {"total_area_m2", func(b hrro.Baseline) float64 { return b.TotalArea }},
	"G8":  {"ccro_qp_m3h", func(b hrro.Baseline) float64 { return b.CCROQp }},
	"G9":  {"ccro_qc_m3h", func(b hrro.Baseline) float64 { return b.CCROQc }},
	"G10": {"ccro_flux_lmh", func(b hrro.Baseline) float64 { return b.CCROFlux }},
	"T7":  {"pf_helper_m3h", func(b hrro.Baseline) float64 { return b.PFHelper }},
	"V9":  {"pf_feed_m3h", func(b hrro.Baseline) float64 { return b.PFFeed }},
	"V10": {"cc_feed_m3h", func(b hrro.Baseline) float64 { return b.CCFeed }},
	"K7":  {"pf_feed_m3h", func(b hrro.Baseline) float64 { return b.PFFeed }},
	"K8":  {"pf_qp_m3h", func(b hrro.Baseline) float64 { return b.PFQp }},
	"K9":  {"pf_qc_m3h", func(b hrro.Baseline) float64 { return b.PFQc }},
	"K10": {"pf_flux_lmh", func(b hrro.Baseline) float64 { return b.PFFlux }},
	"O6":  {"cc_recovery_pct", func(b hrro.Baseline) float64 { return b.CCRecovery }},
	"O7":  {"cc_makeup_m3h_per_pv", func(b hrro.Baseline) float64 { return b.CCMakeupPerPV }},
	"O8":  {"cc_blend_feed_m3h_per_pv", func(b hrro.Baseline) float64 { return b.CCBlendPerPV }},
	"O9":  {"cc_qp_m3h_per_pv", func(b hrro.Baseline) float64 { return b.CCQpPerPV }},
	"O10": {"cc_qc_m3h_per_pv", func(b hrro.Baseline) float64 { return b.CCQcPerPV }},
	"O11": {"cc_flux_lmh", func(b hrro.Baseline) float64 { return b.CCFlux }},
}

// Workbook holds the inputs and the cached results of the cover sheet.
type Workbook struct {
	Input hrro.BaselineInput

	// Values holds the numeric values of the output cells that are set,
	// by cell address.
	Values map[string]float64
}

// cell returns the cell at an A1-style address, or nil if the sheet does
// not extend that far.
func cell(s *xlsx.Sheet, addr string) (*xlsx.Cell, error) {
	col, row, err := xlsx.GetCoordsFromCellIDString(addr)
	if err != nil {
		return nil, fmt.Errorf("hrroxlsx: cell %s: %v", addr, err)
	}
	if row >= len(s.Rows) || s.Rows[row] == nil || col >= len(s.Rows[row].Cells) {
		return nil, nil
	}
	return s.Rows[row].Cells[col], nil
}

// number returns the numeric value of a cell and false if it is empty.
func number(s *xlsx.Sheet, addr string) (float64, bool, error) {
	c, err := cell(s, addr)
	if err != nil || c == nil {
		return 0, false, err
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("hrroxlsx: cell %s: %v", addr, err)
	}
	return f, true, nil
}

// Read extracts the cover sheet of f.
func Read(f *xlsx.File, sheet string) (*Workbook, error) {
	s, ok := f.Sheet[sheet]
	if !ok {
		return nil, fmt.Errorf("hrroxlsx: no sheet %s", sheet)
	}
	in := make(map[string]float64)
	for _, addr := range []string{FeedCell, RecoveryCell, PFFeedRatioCell, PFRecoveryCell,
		CCRecycleCell, VesselsCell, ElementsPerVesselCell, AreaCell} {
		v, ok, err := number(s, addr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("hrroxlsx: input cell %s is empty", addr)
		}
		in[addr] = v
	}
	w := &Workbook{
		Input: hrro.BaselineInput{
			Feed:              in[FeedCell],
			CCRORecovery:      in[RecoveryCell],
			PFFeedRatio:       in[PFFeedRatioCell],
			PFRecovery:        in[PFRecoveryCell],
			CCRecycle:         in[CCRecycleCell],
			Vessels:           int(in[VesselsCell]),
			ElementsPerVessel: int(in[ElementsPerVesselCell]),
			AreaPerElement:    in[AreaCell],
		},
		Values: make(map[string]float64),
	}
	for addr := range outputs {
		v, ok, err := number(s, addr)
		if err != nil {
			return nil, err
		}
		if ok {
			w.Values[addr] = v
		}
	}
	return w, nil
}

// Difference compares one output cell with the computed baseline.
type Difference struct {
	Cell     string  `json:"cell"`
	Name     string  `json:"name"`
	Workbook float64 `json:"workbook"`
	Computed float64 `json:"computed"`
	Diff     float64 `json:"abs_diff"`
}

// Compare evaluates the baseline for the workbook inputs and returns the
// differences of every output cell the workbook sets, sorted by cell.
func (w *Workbook) Compare() (hrro.Baseline, []Difference) {
	b := hrro.ComputeBaseline(w.Input)
	o := make([]Difference, 0, len(w.Values))
	for addr, v := range w.Values {
		c := outputs[addr].value(b)
		o = append(o, Difference{
			Cell:     addr,
			Name:     outputs[addr].name,
			Workbook: v,
			Computed: c,
			Diff:     math.Abs(c - v),
		})
	}
	sort.Slice(o, func(i, j int) bool { return o[i].Cell < o[j].Cell })
	return b, o
}

// Mismatches returns the differences larger than tol.
func Mismatches(d []Difference, tol float64) []Difference {
	var o []Difference
	for _, x := range d {
		if x.Diff > tol || math.IsNaN(x.Diff) {
			o = append(o, x)
		}
	}
	return o
}

// Loader opens workbooks, keeping recently used ones in memory. It is
// safe for concurrent use.
type Loader struct {
	// Sheet is the cover sheet name. If empty, DefaultSheet is used.
	Sheet string

	// CacheSize is the number of workbooks kept in memory. If 0, 10
	// workbooks are kept.
	CacheSize int

	once  sync.Once
	cache *requestcache.Cache
}

// Load reads the cover sheet of the workbook at path.
func (l *Loader) Load(ctx context.Context, path string) (*Workbook, error) {
	l.once.Do(func() {
		n := l.CacheSize
		if n <= 0 {
			n = 10
		}
		l.cache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			f, err := xlsx.OpenFile(req.(string))
			if err != nil {
				return nil, fmt.Errorf("hrroxlsx: opening xlsx file: %v", err)
			}
			sheet := l.Sheet
			if sheet == "" {
				sheet = DefaultSheet
			}
			return Read(f, sheet)
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(n))
	})
	r, err := l.cache.NewRequest(ctx, path, path).Result()
	if err != nil {
		return nil, err
	}
	return r.(*Workbook), nil
}

// set stores v at an A1-style address, extending the sheet as needed.
func set(s *xlsx.Sheet, addr string, v float64) error {
	col, row, err := xlsx.GetCoordsFromCellIDString(addr)
	if err != nil {
		return fmt.Errorf("hrroxlsx: cell %s: %v", addr, err)
	}
	for len(s.Rows) <= row {
		s.AddRow()
	}
	r := s.Rows[row]
	for len(r.Cells) <= col {
		r.AddCell()
	}
	r.Cells[col].SetFloat(v)
	return nil
}

// Write saves a cover sheet with the given inputs and the baseline
// computed from them to path.
func Write(path string, in hrro.BaselineInput) error {
	f := xlsx.NewFile()
	s, err := f.AddSheet(DefaultSheet)
	if err != nil {
		return fmt.Errorf("hrroxlsx: %v", err)
	}
	b := hrro.ComputeBaseline(in)
	cells := map[string]float64{
		FeedCell:              in.Feed,
		RecoveryCell:          in.CCRORecovery,
		PFFeedRatioCell:       in.PFFeedRatio,
		PFRecoveryCell:        in.PFRecovery,
		CCRecycleCell:         in.CCRecycle,
		VesselsCell:           float64(in.Vessels),
		ElementsPerVesselCell: float64(in.ElementsPerVessel),
		AreaCell:              in.AreaPerElement,
	}
	for addr, o := range outputs {
		cells[addr] = o.value(b)
	}
	for addr, v := range cells {
		if err := set(s, addr, v); err != nil {
			return err
		}
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("hrroxlsx: saving %s: %v", path, err)
	}
	return nil
}
