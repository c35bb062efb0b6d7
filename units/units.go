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

// Package units converts simulation requests and results between the
// engine units (m³/h, bar, °C, L/m²/h) and display units.
package units

import (
	"fmt"
	"strings"

	"github.com/ctessum/unit"
)

var tempDim unit.Dimension

func init() {
	tempDim = unit.NewDimension("degC")
}

// Dimensions of the converted quantities.
var (
	volumeFlow = unit.Dimensions{
		unit.LengthDim: 3,
		unit.TimeDim:   -1}
	pressure = unit.Dimensions{
		unit.MassDim:   1,
		unit.LengthDim: -1,
		unit.TimeDim:   -2}
	flux = unit.Dimensions{
		unit.LengthDim: 1,
		unit.TimeDim:   -1}
	temperature = unit.Dimensions{
		tempDim: 1}
)

const gallon = 3.785411784e-3 // m³

// def defines a display unit as SI = (v + offset) × factor.
type def struct {
	factor, offset float64
	dims           unit.Dimensions
}

var defs = map[string]def{
	"m3/h": {factor: 1.0 / 3600, dims: volumeFlow},
	"m3/d": {factor: 1.0 / 86400, dims: volumeFlow},
	"gpm":  {factor: gallon / 60, dims: volumeFlow},
	"gpd":  {factor: gallon / 86400, dims: volumeFlow},
	"mgd":  {factor: gallon * 1e6 / 86400, dims: volumeFlow},

	"bar": {factor: 1e5, dims: pressure},
	"kpa": {factor: 1e3, dims: pressure},
	"psi": {factor: 6894.757293168361, dims: pressure},

	"lmh": {factor: 1e-3 / 3600, dims: flux},
	"gfd": {factor: gallon / 0.09290304 / 86400, dims: flux},

	"c": {factor: 1, dims: temperature},
	"f": {factor: 5.0 / 9, offset: -32, dims: temperature},
}

func lookup(name string) (def, error) {
	d, ok := defs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return def{}, fmt.Errorf("units: unknown unit %q", name)
	}
	return d, nil
}

// New returns v in the given unit as a quantity in SI base units
// (temperature in °C).
func New(v float64, name string) (*unit.Unit, error) {
	d, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return unit.New((v+d.offset)*d.factor, d.dims), nil
}

// Convert converts v from one unit to another of the same dimension.
func Convert(v float64, from, to string) (float64, error) {
	u, err := New(v, from)
	if err != nil {
		return 0, err
	}
	d, err := lookup(to)
	if err != nil {
		return 0, err
	}
	if !u.Dimensions().Matches(d.dims) {
		return 0, fmt.Errorf("units: cannot convert %s (%v) to %s (%v)", from, u.Dimensions(), to, d.dims)
	}
	return u.Value()/d.factor - d.offset, nil
}

// System is a set of display units. Empty fields mean engine units.
type System struct {
	Flow        string `toml:"flow" json:"flow"`
	Pressure    string `toml:"pressure" json:"pressure"`
	Temperature string `toml:"temperature" json:"temperature"`
	Flux        string `toml:"flux" json:"flux"`
}

// Engine is the unit system the simulation computes in.
var Engine = System{Flow: "m3/h", Pressure: "bar", Temperature: "C", Flux: "LMH"}

// US is the customary US unit system.
var US = System{Flow: "gpm", Pressure: "psi", Temperature: "F", Flux: "gfd"}

// withDefaults fills the empty fields of s from Engine.
func (s System) withDefaults() System {
	if s.Flow == "" {
		s.Flow = Engine.Flow
	}
	if s.Pressure == "" {
		s.Pressure = Engine.Pressure
	}
	if s.Temperature == "" {
		s.Temperature = Engine.Temperature
	}
	if s.Flux == "" {
		s.Flux = Engine.Flux
	}
	return s
}

// Validate checks that every unit of s is known and has the right
// dimension.
func (s System) Validate() error {
	s = s.withDefaults()
	for _, c := range []struct {
		name string
		dims unit.Dimensions
	}{
		{s.Flow, volumeFlow},
		{s.Pressure, pressure},
		{s.Temperature, temperature},
		{s.Flux, flux},
	} {
		d, err := lookup(c.name)
		if err != nil {
			return err
		}
		if !d.dims.Matches(c.dims) {
			return fmt.Errorf("units: %s is not a unit of %v", c.name, c.dims)
		}
	}
	return nil
}

// Labels returns the unit labels of s in the layout of
// aquanova.Result.Units.
func (s System) Labels() map[string]string {
	s = s.withDefaults()
	return map[string]string{
		"flow":        s.Flow,
		"pressure":    s.Pressure,
		"temperature": s.Temperature,
		"flux":        s.Flux,
		"tds":         "mg/L",
		"sec":         "kWh/m3",
	}
}

// converter converts many values, keeping the first error.
type converter struct {
	err error
}

func (c *converter) do(v *float64, from, to string) {
	if c.err != nil || from == to {
		return
	}
	o, err := Convert(*v, from, to)
	if err != nil {
		c.err = err
		return
	}
	*v = o
}
