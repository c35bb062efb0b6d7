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

// Package aquanova simulates multi-stage membrane water-treatment trains
// (reverse osmosis, nanofiltration, ultrafiltration, microfiltration and
// closed-circuit RO). It chains per-stage module solvers together and
// aggregates system flow, quality, energy and scaling results.
package aquanova

import (
	"fmt"
	"strings"

	"github.com/aquanova/aquanova/science/chem/waterchem"
)

// Version gives the version number.
const Version = "1.2.0"

// ModuleType identifies the membrane process of a stage.
type ModuleType string

// The supported membrane processes.
const (
	RO   ModuleType = "RO"
	NF   ModuleType = "NF"
	UF   ModuleType = "UF"
	MF   ModuleType = "MF"
	HRRO ModuleType = "HRRO"
)

// ParseModuleType matches s case-insensitively against the supported
// module types.
func ParseModuleType(s string) (ModuleType, error) {
	for _, m := range []ModuleType{RO, NF, UF, MF, HRRO} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("aquanova: invalid module type %q", s)
}

// UnmarshalText decodes a module type case-insensitively. Unknown names
// are kept as given so that the run can fall back to RO with a warning.
func (m *ModuleType) UnmarshalText(b []byte) error {
	t, err := ParseModuleType(string(b))
	if err != nil {
		*m = ModuleType(b)
		return nil
	}
	*m = t
	return nil
}

// PressureDriven reports whether m is a desalting process whose permeate
// is system product (RO, NF and HRRO).
func (m ModuleType) PressureDriven() bool {
	return m == RO || m == NF || m == HRRO
}

// ExportsPermeate reports whether the permeate of m feeds the next stage.
// Pretreatment (UF, MF) passes its filtrate on; desalting stages pass
// their concentrate on.
func (m ModuleType) ExportsPermeate() bool {
	return m == UF || m == MF
}

// Fouling holds optional fouling indicators of a feed water.
type Fouling struct {
	Turbidity float64 `toml:"turbidity_ntu" json:"turbidity_ntu,omitempty"`
	SDI15     float64 `toml:"sdi15" json:"sdi15,omitempty"`
	TOC       float64 `toml:"toc_mgL" json:"toc_mgL,omitempty"`
	TSS       float64 `toml:"tss_mgL" json:"tss_mgL,omitempty"`
}

// FeedStream is the water entering a stage.
type FeedStream struct {
	// Flow is the volumetric flow rate [m³/h].
	Flow float64 `toml:"flow_m3h" json:"flow_m3h"`

	// TDS is total dissolved solids [mg/L].
	TDS float64 `toml:"tds_mgL" json:"tds_mgL"`

	// Temperature [°C].
	Temperature float64 `toml:"temperature_C" json:"temperature_C"`

	PH float64 `toml:"ph" json:"ph"`

	// Pressure [bar].
	Pressure float64 `toml:"pressure_bar" json:"pressure_bar"`

	// Ions is the optional full composition [mg/L].
	Ions waterchem.Ions `toml:"ions" json:"ions,omitempty"`

	Fouling Fouling `toml:"fouling" json:"fouling"`

	// WaterType and WaterSubType describe the source water, for example
	// "Seawater" and "beach well". They steer guideline selection.
	WaterType    string `toml:"water_type" json:"water_type,omitempty"`
	WaterSubType string `toml:"water_subtype" json:"water_subtype,omitempty"`
}

// Clone returns a deep copy of f.
func (f FeedStream) Clone() FeedStream {
	f.Ions = f.Ions.Clone()
	return f
}

// Profile returns the chemistry profile of f.
func (f FeedStream) Profile() waterchem.Profile {
	return waterchem.Profile{
		TDS:         f.TDS,
		Temperature: f.Temperature,
		PH:          f.PH,
		Ions:        f.Ions.Clone(),
	}
}

// Derive returns the stream leaving a stage with the given flow and TDS.
// Other properties carry forward; ions are rescaled to the new TDS.
func (f FeedStream) Derive(flow, tds, pressure float64) FeedStream {
	o := f.Clone()
	o.Flow = flow
	o.Pressure = pressure
	if f.Ions != nil {
		o.Ions = f.Profile().ScaleTo(tds).Ions
	}
	o.TDS = tds
	return o
}

func (f FeedStream) validate() error {
	switch {
	case f.Flow <= 0:
		return fmt.Errorf("%w: flow must be > 0, got %g", ErrInvalidFeed, f.Flow)
	case f.TDS < 0:
		return fmt.Errorf("%w: TDS must be >= 0, got %g", ErrInvalidFeed, f.TDS)
	case f.Temperature < 0 || f.Temperature > 100:
		return fmt.Errorf("%w: temperature must be in [0, 100] °C, got %g", ErrInvalidFeed, f.Temperature)
	case f.PH <= 0 || f.PH > 14:
		return fmt.Errorf("%w: pH must be in (0, 14], got %g", ErrInvalidFeed, f.PH)
	}
	return nil
}

// ChemistryInput holds legacy aggregate chemistry that can be supplied
// for the whole train or per stage. Zero fields are unknown.
type ChemistryInput struct {
	Alkalinity      float64 `toml:"alkalinity_mgL_as_CaCO3" json:"alkalinity_mgL_as_CaCO3,omitempty"`
	CalciumHardness float64 `toml:"calcium_hardness_mgL_as_CaCO3" json:"calcium_hardness_mgL_as_CaCO3,omitempty"`
	Sulfate         float64 `toml:"sulfate_mgL" json:"sulfate_mgL,omitempty"`
	Barium          float64 `toml:"barium_mgL" json:"barium_mgL,omitempty"`
	Strontium       float64 `toml:"strontium_mgL" json:"strontium_mgL,omitempty"`
	Silica          float64 `toml:"silica_mgL_SiO2" json:"silica_mgL_SiO2,omitempty"`
}

// Apply returns a copy of p with any species missing from p filled in
// from c.
func (c *ChemistryInput) Apply(p waterchem.Profile) waterchem.Profile {
	o := p.Clone()
	if c == nil {
		return o
	}
	if o.Alkalinity == 0 {
		o.Alkalinity = c.Alkalinity
	}
	if o.CalciumHardness == 0 {
		o.CalciumHardness = c.CalciumHardness
	}
	for ion, v := range map[waterchem.Ion]float64{
		waterchem.SO4:  c.Sulfate,
		waterchem.Ba:   c.Barium,
		waterchem.Sr:   c.Strontium,
		waterchem.SiO2: c.Silica,
	} {
		if v <= 0 || o.Ions[ion] > 0 {
			continue
		}
		if o.Ions == nil {
			o.Ions = make(waterchem.Ions)
		}
		o.Ions[ion] = v
	}
	return o
}

// Request is a simulation request: a feed water and an ordered list of
// stages.
type Request struct {
	Name      string          `toml:"scenario_name" json:"scenario_name"`
	Feed      FeedStream      `toml:"feed" json:"feed"`
	Stages    []StageConfig   `toml:"stages" json:"stages"`
	Chemistry *ChemistryInput `toml:"chemistry" json:"chemistry,omitempty"`
	Options   *Options        `toml:"options" json:"options,omitempty"`
}

// Options holds request settings that do not change the simulation.
type Options struct {
	// Units gives the display units the request is written in and the
	// result is reported in.
	Units UnitOptions `toml:"units" json:"units"`
}

// UnitOptions names display units. Empty fields mean engine units
// (m3/h, bar, C and LMH).
type UnitOptions struct {
	Flow        string `toml:"flow" json:"flow,omitempty"`
	Pressure    string `toml:"pressure" json:"pressure,omitempty"`
	Temperature string `toml:"temperature" json:"temperature,omitempty"`
	Flux        string `toml:"flux" json:"flux,omitempty"`
}
