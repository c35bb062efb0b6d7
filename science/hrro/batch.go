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
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/aquanova/aquanova"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BatchInput holds the inputs of the batch-cycle model.
type BatchInput struct {
	// Feed is the raw feed flow [m³/h] and Recovery the final cycle
	// recovery [%].
	Feed, Recovery float64

	// Cf [mg/L] and Temperature [°C] of the feed.
	Cf, Temperature float64

	// Osmotic returns the ideal osmotic pressure [bar] at a TDS.
	Osmotic func(tds float64) float64

	// Area is the total membrane area [m²].
	Area float64

	// A [L/m²/h/bar] and B [L/m²/h] at the feed temperature.
	A, B float64

	PumpEfficiency float64
	BackPressure   float64 // [bar]

	// Circulation is the closed-circuit flow per vessel [m³/h].
	Circulation float64

	ElementsPerVessel int

	// Stop is a boolean expression over the point variables that ends
	// the series when true. It may be empty.
	Stop string

	Physics Physics
}

// Batch is a simulated batch cycle.
type Batch struct {
	Points []aquanova.TimeSeriesPoint

	// CycleMinutes is the length of one closed-circuit plus pre-flush
	// cycle.
	CycleMinutes float64
	CCMinutes    float64
	PFMinutes    float64

	// MaxDP is the largest vessel pressure drop [bar] and MaxBeta the
	// largest polarization factor.
	MaxDP   float64
	MaxBeta float64

	// Stopped is true if the stop expression ended the series early.
	Stopped bool
}

// stopVars lists the variables a stop expression may use.
var stopVars = map[string]bool{
	"time_min":         true,
	"recovery_pct":     true,
	"pressure_bar":     true,
	"tds_mgL":          true,
	"flux_lmh":         true,
	"ndp_bar":          true,
	"permeate_tds_mgL": true,
	"sec_kwhm3":        true,
	"beta":             true,
}

var stopFuncs = map[string]govaluate.ExpressionFunction{
	"min": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("hrro: got %d arguments for function 'min', but needs 2", len(args))
		}
		return math.Min(args[0].(float64), args[1].(float64)), nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("hrro: got %d arguments for function 'max', but needs 2", len(args))
		}
		return math.Max(args[0].(float64), args[1].(float64)), nil
	},
}

// StopExpression builds the default stop expression from a recovery
// [%] and a permeate TDS [mg/L] limit. Zero limits are omitted.
func StopExpression(recovery, permeateTDS float64) string {
	var terms []string
	if recovery > 0 {
		terms = append(terms, fmt.Sprintf("recovery_pct >= %g", recovery))
	}
	if permeateTDS > 0 {
		terms = append(terms, fmt.Sprintf("permeate_tds_mgL >= %g", permeateTDS))
	}
	return strings.Join(terms, " || ")
}

// compileStop parses a stop expression and checks its variables.
func compileStop(expr string) (*govaluate.EvaluableExpression, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, stopFuncs)
	if err != nil {
		return nil, fmt.Errorf("hrro: stop expression %q: %v", expr, err)
	}
	for _, v := range e.Vars() {
		if !stopVars[v] {
			return nil, fmt.Errorf("hrro: stop expression %q: unknown variable %q", expr, v)
		}
	}
	return e, nil
}

func stopped(e *govaluate.EvaluableExpression, pt aquanova.TimeSeriesPoint) (bool, error) {
	if e == nil {
		return false, nil
	}
	r, err := e.Evaluate(map[string]interface{}{
		"time_min":         pt.Time,
		"recovery_pct":     pt.Recovery,
		"pressure_bar":     pt.Pressure,
		"tds_mgL":          pt.TDS,
		"flux_lmh":         pt.Flux,
		"ndp_bar":          pt.NDP,
		"permeate_tds_mgL": pt.PermeateTDS,
		"sec_kwhm3":        pt.SEC,
		"beta":             pt.Polarization,
	})
	if err != nil {
		return false, fmt.Errorf("hrro: stop expression %q: %v", e.String(), err)
	}
	b, ok := r.(bool)
	if !ok {
		return false, fmt.Errorf("hrro: stop expression %q: result is %T, not bool", e.String(), r)
	}
	return b, nil
}

func round(x float64, n int) float64 {
	p := math.Pow(10, float64(n))
	return math.Round(x*p) / p
}

// BatchCycle simulates the sawtooth concentration cycle of a
// closed-circuit stage: the loop concentrates during the closed-circuit
// phase and is displaced by fresh feed during the pre-flush phase. The
// required pressure at each point delivers the design flux against the
// wall osmotic pressure.
func BatchCycle(in BatchInput) (*Batch, error) {
	stop, err := compileStop(in.Stop)
	if err != nil {
		return nil, err
	}
	ph := &in.Physics
	rec := clamp(in.Recovery, 0, 99.5) / 100
	area := math.Max(1e-9, in.Area)

	vol := ph.LoopVolume
	if vol <= 0.1 {
		vol = area * ph.ThicknessMM / 1000 * 1.3
	}
	qp := in.Feed * rec
	cfMax := 1 / math.Max(1e-6, 1-rec)

	o := &Batch{MaxBeta: 1}
	o.CCMinutes = (cfMax - 1) * vol / math.Max(qp, 1e-6) * 60
	o.PFMinutes = vol / math.Max(in.Feed, 1e-6) * 60
	o.CycleMinutes = o.CCMinutes + o.PFMinutes

	dt := math.Max(0.05, ph.TimestepSeconds/60)
	n := int(math.Round(math.Max(1, ph.MaxMinutes)/dt)) + 1
	if n > 1000 {
		n = 1000
	}
	if n < 5 {
		n = 5
	}

	dh := ph.dh()
	v := math.Max(ph.velocity(in.Circulation), 0.05)
	flux := qp * 1000 / area
	j := flux * lmhToMPS
	eff := math.Max(0.1, in.PumpEfficiency)

	for i := 0; i < n; i++ {
		t := float64(i) * dt
		var local float64
		if o.CycleMinutes > 0 {
			local = math.Mod(t, o.CycleMinutes)
		}
		var bulk, r float64
		if local <= o.CCMinutes {
			frac := 1.0
			if o.CCMinutes > 0 {
				frac = local / o.CCMinutes
			}
			bulk = in.Cf * (1 + (cfMax-1)*frac)
			r = rec * 100 * frac
		} else {
			frac := (local - o.CCMinutes) / o.PFMinutes
			bulk = in.Cf * (cfMax - (cfMax-1)*frac)
		}

		w := Properties(bulk, in.Temperature, in.Osmotic)
		ratio := muRef / w.Mu
		d := ph.Diffusivity * clamp(math.Pow(ratio, 0.8), 0.2, 5)
		k := MassTransfer(w, v, dh, d)
		beta := clamp(math.Exp(j/math.Max(k, 1e-9)), 1, 1.2)

		wall := bulk * beta
		piWall := Properties(wall, in.Temperature, in.Osmotic).Pi
		a := in.A * math.Pow(ratio, ph.AMuExp)
		if piWall > 25 {
			a *= math.Exp(-ph.CompactionK * (piWall - 25))
		}
		b := in.B * math.Pow(ratio, ph.BMuExp) * (1 + ph.BSalSlope*math.Min(wall/35000, 15))

		var cp float64
		if b > 0 {
			cp = b * wall / (flux + b)
		}
		ndp := flux / math.Max(a, 0.1)
		dp := SpacerPressureDrop(w, v, dh, ph.ElementLength) * float64(in.ElementsPerVessel)
		o.MaxDP = math.Max(o.MaxDP, dp)
		o.MaxBeta = math.Max(o.MaxBeta, beta)

		p := piWall + ndp + dp/2 + in.BackPressure
		power := in.Feed * (p + 3) / 36 / eff
		var sec float64
		if qp > 0 {
			sec = power / qp
		}

		pt := aquanova.TimeSeriesPoint{
			Time:         round(t, 3),
			Recovery:     round(r, 2),
			Pressure:     round(p, 2),
			TDS:          round(bulk, 0),
			Flux:         round(flux, 2),
			NDP:          round(ndp, 2),
			PermeateFlow: round(qp, 4),
			PermeateTDS:  round(cp, 2),
			SEC:          round(sec, 2),
			Polarization: round(beta, 3),
		}
		o.Points = append(o.Points, pt)
		s, err := stopped(stop, pt)
		if err != nil {
			return nil, err
		}
		if s {
			o.Stopped = true
			break
		}
	}
	return o, nil
}

func (b *Batch) column(f func(aquanova.TimeSeriesPoint) float64) []float64 {
	x := make([]float64, len(b.Points))
	for i, p := range b.Points {
		x[i] = f(p)
	}
	return x
}

// MeanSEC returns the mean specific energy of the cycle [kWh/m³].
func (b *Batch) MeanSEC() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return stat.Mean(b.column(func(p aquanova.TimeSeriesPoint) float64 { return p.SEC }), nil)
}

// MeanPermeateTDS returns the mean permeate TDS of the cycle [mg/L].
func (b *Batch) MeanPermeateTDS() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return stat.Mean(b.column(func(p aquanova.TimeSeriesPoint) float64 { return p.PermeateTDS }), nil)
}

// MeanNDP returns the mean net driving pressure of the cycle [bar].
func (b *Batch) MeanNDP() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return stat.Mean(b.column(func(p aquanova.TimeSeriesPoint) float64 { return p.NDP }), nil)
}

// MaxPressure returns the highest feed pressure of the cycle [bar].
func (b *Batch) MaxPressure() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return floats.Max(b.column(func(p aquanova.TimeSeriesPoint) float64 { return p.Pressure }))
}

// MaxTDS returns the highest loop TDS of the cycle [mg/L].
func (b *Batch) MaxTDS() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return floats.Max(b.column(func(p aquanova.TimeSeriesPoint) float64 { return p.TDS }))
}
