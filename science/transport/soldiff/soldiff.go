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

// Package soldiff simulates reverse osmosis and nanofiltration stages
// with a lumped solution-diffusion model and an exponential
// concentration-polarization correction.
package soldiff

import "math"

// Params holds the numerical settings of the solver.
type Params struct {
	// Seed is the initial bulk concentration as a multiple of the feed
	// concentration.
	Seed float64

	MaxIter int

	// RelTol is the relative change in bulk concentration below which
	// the fixed point is considered converged.
	RelTol float64

	// CPScale is the flux [L/m²/h] that raises the polarization factor
	// by e, and CPMax its upper bound.
	CPScale float64
	CPMax   float64

	// MaxRecovery caps the permeate flow as a fraction of the feed flow.
	MaxRecovery float64

	// NDPFloor is the smallest net driving pressure [bar].
	NDPFloor float64
}

// ROParams are the settings used for reverse osmosis.
var ROParams = Params{
	Seed:        1.2,
	MaxIter:     20,
	RelTol:      0.01,
	CPScale:     150,
	CPMax:       5,
	MaxRecovery: 0.95,
}

// NFParams are the settings used for nanofiltration.
var NFParams = Params{
	Seed:        1.1,
	MaxIter:     10,
	RelTol:      0.01,
	CPScale:     150,
	CPMax:       5,
	MaxRecovery: 0.95,
	NDPFloor:    0.1,
}

// Input holds the operating conditions of a stage.
type Input struct {
	// Qf [m³/h] and Cf [mg/L] are the feed flow and concentration.
	Qf, Cf float64

	// Osmotic returns the osmotic pressure [bar] of the feed water
	// concentrated to the given TDS [mg/L].
	Osmotic func(tds float64) float64

	// PIn is the feed pressure, DP the total pressure drop along the
	// stage and PPerm the permeate back pressure [bar].
	PIn, DP, PPerm float64

	// Area is the installed membrane area [m²].
	Area float64

	// A [L/m²/h/bar] and B [L/m²/h] are the water and salt
	// permeabilities.
	A, B float64

	// Sigma is the reflection coefficient applied to the osmotic
	// pressure difference.
	Sigma float64

	// Rejection, if positive, fixes the permeate concentration to
	// (1 - Rejection) times the wall concentration instead of using B.
	Rejection float64
}

// Output is the solution of a stage.
type Output struct {
	Qp, Qc, Cp, Cc float64

	// Flux [L/m²/h] and NDP [bar] are averages over the stage.
	Flux, NDP float64

	// PEff is the average feed-side pressure [bar].
	PEff float64

	// Bulk is the average feed-channel concentration and Wall the
	// concentration at the membrane surface [mg/L].
	Bulk, Wall float64

	// Beta is the concentration polarization factor.
	Beta float64

	// PiWall is the osmotic pressure at the membrane surface [bar].
	PiWall float64

	Converged  bool
	Iterations int
}

func clamp(x, lo, hi float64) float64 { return math.Max(lo, math.Min(x, hi)) }

// Solve finds the self-consistent bulk concentration of the stage by
// fixed-point iteration and returns the solution evaluated at it.
func (p Params) Solve(in Input) Output {
	peff := math.Max(0, in.PIn-in.DP/2-in.PPerm)
	if in.Qf <= 1e-12 || in.A <= 0 || in.Area <= 1e-12 {
		return Output{
			Qc:        in.Qf,
			Cc:        in.Cf,
			PEff:      peff,
			Bulk:      in.Cf,
			Wall:      in.Cf,
			Beta:      1,
			PiWall:    in.Osmotic(in.Cf),
			Converged: true,
		}
	}

	bulk := math.Max(0, in.Cf*p.Seed)
	o := Output{PEff: peff}
	for o.Iterations < p.MaxIter {
		o.Iterations++
		s := p.evaluate(in, peff, bulk)
		next := (in.Cf + s.Cc) / 2
		rel := math.Abs(next-bulk) / math.Max(1e-12, bulk)
		bulk = next
		if rel < p.RelTol {
			o.Converged = true
			break
		}
	}

	s := p.evaluate(in, peff, bulk)
	s.Converged, s.Iterations = o.Converged, o.Iterations
	return s
}

// evaluate calculates one pass of the transport model at the given bulk
// concentration.
func (p Params) evaluate(in Input, peff, bulk float64) Output {
	piBulk := in.Osmotic(bulk)
	prov := in.A * math.Max(0, peff-piBulk*in.Sigma)

	beta := 1.0
	if prov > 0 {
		beta = clamp(math.Exp(math.Min(prov/p.CPScale, 80)), 1, p.CPMax)
	}
	wall := math.Max(0, bulk*beta)

	piWall := in.Osmotic(wall)
	ndp := math.Max(p.NDPFloor, peff-piWall*in.Sigma)
	flux := in.A * ndp

	var cp float64
	if in.Rejection > 0 {
		cp = wall * (1 - in.Rejection)
	} else if flux+in.B > 1e-12 {
		cp = in.B * wall / (flux + in.B)
	}
	cp = clamp(cp, 0, in.Cf)

	qp := flux * in.Area / 1000
	if limit := in.Qf * p.MaxRecovery; qp > limit {
		qp = limit
		flux = qp * 1000 / in.Area
	}
	qc := math.Max(1e-12, in.Qf-qp)
	cc := math.Max(0, (in.Qf*in.Cf-qp*cp)/qc)

	return Output{
		Qp:     qp,
		Qc:     in.Qf - qp,
		Cp:     cp,
		Cc:     cc,
		Flux:   flux,
		NDP:    ndp,
		PEff:   peff,
		Bulk:   bulk,
		Wall:   wall,
		Beta:   beta,
		PiWall: piWall,
	}
}
