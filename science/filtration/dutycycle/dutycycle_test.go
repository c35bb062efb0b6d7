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

package dutycycle

import (
	"math"
	"testing"

	"github.com/aquanova/aquanova"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func feed(flow float64) aquanova.FeedStream {
	return aquanova.FeedStream{Flow: flow, TDS: 500, Temperature: 25, PH: 7.5}
}

func TestNewCycle(t *testing.T) {
	c := NewCycle(60, 60, 30, 30)
	if c.Total != 62 {
		t.Errorf("total: have %g, want 62", c.Total)
	}
	if different(c.Filtration+c.Backwash+c.ForwardFlush+0.5/62, 1, 1e-12) {
		t.Errorf("fractions do not add up: %+v", c)
	}
}

func TestUF(t *testing.T) {
	m, err := UF{}.Compute(&aquanova.StageConfig{Module: aquanova.UF, Elements: 10}, feed(100))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		name       string
		have, want float64
	}{
		{"gross", m.GrossFlow, 102.58083333333333},
		{"net", m.NetFlow, 98.02983870967742},
		{"flux", m.Flux, 127.31147884373692},
		{"tmp", m.TMP, 1.527389587628931},
		{"p_in", m.PIn, 2.227389587628931},
		{"sec", m.SEC, 0.08373310838830907},
		{"backwash", m.BackwashLoss, 1.4701612903225807},
	} {
		if different(c.have, c.want, 1e-9) {
			t.Errorf("%s: have %g, want %g", c.name, c.have, c.want)
		}
	}
	if m.DesignFlux != 55.5 {
		t.Errorf("design flux: have %g, want 55.5", m.DesignFlux)
	}
	if m.CycleMinutes != 60 {
		t.Errorf("cycle: have %g, want 60", m.CycleMinutes)
	}
	if m.Cp != m.Cf || m.Cc != m.Cf {
		t.Error("UF should not change TDS")
	}
	if different(m.Qp+m.Qc, m.Qf, 1e-12) {
		t.Errorf("flow balance: %g + %g != %g", m.Qp, m.Qc, m.Qf)
	}
}

func TestUFFeedDriven(t *testing.T) {
	// The operating flux follows the feed, not the design flux.
	cfg := &aquanova.StageConfig{Module: aquanova.UF, Elements: 10, DesignFlux: 40}
	low, _ := UF{}.Compute(cfg, feed(50))
	high, _ := UF{}.Compute(cfg, feed(100))
	if high.Flux <= low.Flux {
		t.Errorf("flux should increase with feed: %g <= %g", high.Flux, low.Flux)
	}
	if low.DesignFlux != 40 || high.DesignFlux != 40 {
		t.Error("design flux should be kept as reference")
	}
}

func TestMF(t *testing.T) {
	tests := []struct {
		name           string
		flow           float64
		net, flux, sec float64
	}{
		{"flux limited", 100, 40.32, 80, 0.06062610229276896},
		{"feed limited", 20, 14.186666666666666, 33.333333333333336, 0.02958785853522695},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, err := MF{}.Compute(&aquanova.StageConfig{Module: aquanova.MF, Elements: 10}, feed(test.flow))
			if err != nil {
				t.Fatal(err)
			}
			if different(m.NetFlow, test.net, 1e-9) {
				t.Errorf("net: have %g, want %g", m.NetFlow, test.net)
			}
			if different(m.Flux, test.flux, 1e-9) {
				t.Errorf("flux: have %g, want %g", m.Flux, test.flux)
			}
			if different(m.SEC, test.sec, 1e-9) {
				t.Errorf("sec: have %g, want %g", m.SEC, test.sec)
			}
			if m.Qp > m.Qf {
				t.Errorf("net %g exceeds feed %g", m.Qp, m.Qf)
			}
			if different(m.Qp+m.Qc, m.Qf, 1e-12) {
				t.Errorf("flow balance: %g + %g != %g", m.Qp, m.Qc, m.Qf)
			}
		})
	}
}

func TestMFCIPClamp(t *testing.T) {
	cfg := &aquanova.StageConfig{Module: aquanova.MF, Elements: 10}
	cfg.Cycle.CIPLossFactor = 0.1
	m, err := MF{}.Compute(cfg, feed(100))
	if err != nil {
		t.Fatal(err)
	}
	if cip := m.Details["model"].(map[string]interface{})["cip_loss_factor"].(float64); cip != 0.7 {
		t.Errorf("cip loss factor: have %g, want 0.7", cip)
	}
}

func TestTemperatureCorrection(t *testing.T) {
	for _, temp := range []float64{-200, 0, 25, 100, 1000} {
		c := TemperatureCorrection(temp)
		if c < 0.25 || c > 4 || math.IsNaN(c) {
			t.Errorf("%g °C: correction %g out of range", temp, c)
		}
	}
	if TemperatureCorrection(35) <= TemperatureCorrection(15) {
		t.Error("permeability should increase with temperature")
	}
}
