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
)

// Permeate models of the excel_only engine.
const (
	FixedRejection = "fixed_rejection"
	ModelRejection = "model"
	NoPermeate     = "none"
)

// DefaultRejection is the fallback salt rejection [%].
const DefaultRejection = 99.63

// PermeateInput holds the inputs of PermeateQuality.
type PermeateInput struct {
	Mode string

	// Cf [mg/L], Qf and Qp [m³/h] of the stage.
	Cf, Qf, Qp float64

	// Rejection [%] is used in fixed_rejection mode; 0 means
	// DefaultRejection.
	Rejection float64

	// MinRejection [%] floors the model rejection.
	MinRejection float64

	// Flux [L/m²/h] and B [L/m²/h] drive the model rejection.
	Flux, B float64
}

// Permeate is the result of PermeateQuality. OK is false in "none"
// mode, where Cp and Cc are not computed.
type Permeate struct {
	Cp, Cc    float64
	Rejection float64
	OK        bool
}

// PermeateQuality returns the permeate and concentrate concentrations
// of a stage with the given flows. Cc follows from the salt balance.
func PermeateQuality(in PermeateInput) (Permeate, error) {
	var rej float64
	switch in.Mode {
	case FixedRejection:
		rej = in.Rejection
		if rej <= 0 {
			rej = DefaultRejection
		}
	case ModelRejection:
		rej = DefaultRejection
		if in.Flux+in.B > 0 {
			rej = in.Flux / (in.Flux + in.B) * 100
		}
		rej = math.Max(rej, in.MinRejection)
	case NoPermeate:
		return Permeate{}, nil
	default:
		return Permeate{}, fmt.Errorf("hrro: invalid cp mode %q", in.Mode)
	}
	rej = clamp(rej, 0, 100)
	o := Permeate{Rejection: rej, OK: true, Cp: in.Cf * (1 - rej/100)}
	o.Cc = saltBalance(in.Cf, in.Qf, in.Qp, o.Cp)
	return o, nil
}

// saltBalance returns the concentrate concentration of a stage.
func saltBalance(cf, qf, qp, cp float64) float64 {
	qc := qf - qp
	if qc <= 1e-12 {
		return cf
	}
	return math.Max(0, (qf*cf-qp*cp)/qc)
}
