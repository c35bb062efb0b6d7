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

import "github.com/aquanova/aquanova"

// Physics holds the calibration constants of the HRRO physics and
// batch-cycle models.
type Physics struct {
	// AMuExp and BMuExp are the viscosity-ratio exponents of the water
	// and salt permeabilities.
	AMuExp float64
	BMuExp float64

	// BSalSlope is the salinity sensitivity of the salt permeability per
	// 35 000 mg/L.
	BSalSlope float64

	// CompactionK [1/bar] reduces the water permeability with pressure.
	CompactionK float64

	// Feed channel geometry.
	ChannelArea       float64 // [m²]
	Voidage           float64
	ThicknessMM       float64
	HydraulicDiameter float64 // [m], computed from the spacer if 0
	ElementLength     float64 // [m]

	// Diffusivity of the solute [m²/s].
	Diffusivity float64

	// Concentration-polarization fixed point.
	CPExpMax  float64
	CPRelTol  float64
	CPAbsTol  float64 // [L/m²/h]
	CPRelax   float64
	CPMaxIter int

	KMultiplier float64
	KMin        float64 // [m/s]

	// Segments is the number of axial segments per vessel. If 0, one
	// segment per element is used.
	Segments int

	// Inlet-pressure bisection.
	PressureLimit float64 // [bar]
	FluxTol       float64 // [L/m²/h]
	MaxIter       int

	// Batch cycle.
	LoopVolume      float64 // [m³]
	MaxMinutes      float64
	TimestepSeconds float64
}

// DefaultPhysics returns the default calibration.
func DefaultPhysics() *Physics {
	return &Physics{
		AMuExp:          0.7,
		BMuExp:          0.3,
		BSalSlope:       0.45,
		CompactionK:     0.003,
		ChannelArea:     0.015,
		Voidage:         0.85,
		ThicknessMM:     0.76,
		ElementLength:   1.016,
		Diffusivity:     1.5e-9,
		CPExpMax:        1,
		CPRelTol:        1e-4,
		CPAbsTol:        1e-3,
		CPRelax:         0.5,
		CPMaxIter:       50,
		KMultiplier:     1,
		KMin:            1e-6,
		PressureLimit:   83,
		FluxTol:         0.05,
		MaxIter:         40,
		LoopVolume:      1.36,
		MaxMinutes:      30,
		TimestepSeconds: 30,
	}
}

func or(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// with returns a copy of p with the positive values of c taking
// precedence.
func (p Physics) with(c aquanova.HRROConfig) Physics {
	p.AMuExp = or(c.AMuExp, p.AMuExp)
	p.BMuExp = or(c.BMuExp, p.BMuExp)
	p.BSalSlope = or(c.BSalSlope, p.BSalSlope)
	p.CompactionK = or(c.CompactionK, p.CompactionK)
	p.ChannelArea = or(c.MassTransfer.ChannelArea, p.ChannelArea)
	p.Voidage = or(c.Spacer.Voidage, p.Voidage)
	p.ThicknessMM = or(c.Spacer.ThicknessMM, p.ThicknessMM)
	p.HydraulicDiameter = or(c.Spacer.HydraulicDiameterM, p.HydraulicDiameter)
	p.ElementLength = or(c.ElementLength, p.ElementLength)
	p.Diffusivity = or(c.MassTransfer.Diffusivity, p.Diffusivity)
	p.CPExpMax = or(c.MassTransfer.CPExpMax, p.CPExpMax)
	p.CPRelTol = or(c.MassTransfer.CPRelTol, p.CPRelTol)
	p.CPAbsTol = or(c.MassTransfer.CPAbsTol, p.CPAbsTol)
	p.CPRelax = or(c.MassTransfer.CPRelax, p.CPRelax)
	if c.MassTransfer.CPMaxIter > 0 {
		p.CPMaxIter = c.MassTransfer.CPMaxIter
	}
	p.KMultiplier = or(c.MassTransfer.KMultiplier, p.KMultiplier)
	p.KMin = or(c.MassTransfer.KMin, p.KMin)
	if c.Segments > 0 {
		p.Segments = c.Segments
	}
	p.PressureLimit = or(c.PressureLimit, p.PressureLimit)
	p.LoopVolume = or(c.LoopVolume, p.LoopVolume)
	p.MaxMinutes = or(c.MaxMinutes, p.MaxMinutes)
	p.TimestepSeconds = or(c.TimestepSeconds, p.TimestepSeconds)
	return p
}

// dh returns the hydraulic diameter of the feed channel [m].
func (p *Physics) dh() float64 {
	if p.HydraulicDiameter > 0 {
		return p.HydraulicDiameter
	}
	return HydraulicDiameter(p.ThicknessMM/1000, p.Voidage)
}

// velocity returns the cross-flow velocity [m/s] of flow q [m³/h].
func (p *Physics) velocity(q float64) float64 {
	return q / 3600 / (p.ChannelArea * p.Voidage)
}
