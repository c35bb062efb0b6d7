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

// Module is an interface for the membrane process solvers.
type Module interface {
	// Type returns the membrane process the module simulates.
	Type() ModuleType

	// Compute simulates one stage with configuration cfg fed by feed.
	// The configuration has its membrane already resolved against the
	// catalog. Compute must not modify cfg or feed. Invalid stage
	// inputs are defaulted and recorded in StageMetric.Defaulted;
	// only invalid modes or expressions are returned as errors.
	Compute(cfg *StageConfig, feed FeedStream) (*StageMetric, error)
}

// Modules is a dispatch table from module type to solver. It is built
// once by the caller and read-only afterward.
type Modules map[ModuleType]Module

// MembraneSpec holds the transport properties of a membrane element.
type MembraneSpec struct {
	ID     string `json:"id"`
	Vendor string `json:"vendor,omitempty"`

	// Family is one of RO, SWRO, NF, UF or MF.
	Family string `json:"family"`

	// Size is the element size, for example "8040".
	Size string `json:"size,omitempty"`

	// Area is the active area of one element [m²].
	Area float64 `json:"area_m2"`

	// A is the water permeability [L/m²/h/bar].
	A float64 `json:"A_lmh_bar"`

	// B is the salt permeability [L/m²/h].
	B float64 `json:"B_lmh"`

	// Rejection is the nominal salt rejection fraction.
	Rejection float64 `json:"rejection"`
}

// Catalog is a source of membrane specifications.
type Catalog interface {
	// Lookup returns the specification of the membrane with the given id,
	// and false if there is no such membrane.
	Lookup(id string) (MembraneSpec, bool)
}

// resolve fills the unset membrane properties of cfg from the catalog.
// It returns a copy and leaves cfg unchanged.
func resolve(cfg StageConfig, cat Catalog, d Defaults) StageConfig {
	if cfg.MembraneID == "" || cat == nil {
		return cfg
	}
	spec, ok := cat.Lookup(cfg.MembraneID)
	if !ok {
		d["membrane_model"] = true
		return cfg
	}
	if cfg.AreaPerElement <= 0 {
		cfg.AreaPerElement = spec.Area
	}
	if cfg.A <= 0 {
		cfg.A = spec.A
	}
	if cfg.B <= 0 {
		cfg.B = spec.B
	}
	if cfg.Rejection <= 0 && spec.Rejection > 0 {
		cfg.Rejection = spec.Rejection * 100
	}
	return cfg
}
