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

package units

import (
	"fmt"
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

func TestConvert(t *testing.T) {
	tests := []struct {
		v        float64
		from, to string
		want     float64
	}{
		{1, "m3/h", "gpm", 4.402867539302473},
		{1, "bar", "psi", 14.503773773020923},
		{1, "LMH", "gfd", 0.5890172819306676},
		{25, "C", "F", 77},
		{212, "F", "C", 100},
		{24, "m3/d", "m3/h", 1},
		{100, "kPa", "bar", 1},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s->%s", test.from, test.to), func(t *testing.T) {
			have, err := Convert(test.v, test.from, test.to)
			if err != nil {
				t.Fatal(err)
			}
			if different(have, test.want, 1e-9) {
				t.Errorf("have %g, want %g", have, test.want)
			}
			back, err := Convert(have, test.to, test.from)
			if err != nil {
				t.Fatal(err)
			}
			if different(back, test.v, 1e-12) {
				t.Errorf("round trip: have %g, want %g", back, test.v)
			}
		})
	}
}

func TestConvertErrors(t *testing.T) {
	if _, err := Convert(1, "bar", "gpm"); err == nil {
		t.Error("dimension mismatch should be an error")
	}
	if _, err := Convert(1, "furlongs", "bar"); err == nil {
		t.Error("unknown unit should be an error")
	}
	if err := (System{Flow: "psi"}).Validate(); err == nil {
		t.Error("pressure unit for flow should be an error")
	}
}

func TestRequest(t *testing.T) {
	req := &aquanova.Request{
		Feed: aquanova.FeedStream{Flow: 440.2867539302473, TDS: 2000, Temperature: 77, PH: 7},
		Stages: []aquanova.StageConfig{
			{Module: aquanova.RO, Pressure: 14.503773773020923 * 15, Flux: 0.5890172819306676 * 20},
		},
	}
	o, err := US.Request(req)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		name       string
		have, want float64
	}{
		{"flow", o.Feed.Flow, 100},
		{"temperature", o.Feed.Temperature, 25},
		{"pressure", o.Stages[0].Pressure, 15},
		{"flux", o.Stages[0].Flux, 20},
		{"tds", o.Feed.TDS, 2000},
	} {
		if different(c.have, c.want, 1e-9) {
			t.Errorf("%s: have %g, want %g", c.name, c.have, c.want)
		}
	}
	if req.Feed.Flow != 440.2867539302473 || req.Stages[0].Flux == o.Stages[0].Flux {
		t.Error("input request should not be modified")
	}
}

func TestResult(t *testing.T) {
	hist := []aquanova.TimeSeriesPoint{{Pressure: 10, Flux: 20}}
	res := &aquanova.Result{
		Streams: []aquanova.Stream{{Label: "Feed", Flow: 1, Pressure: 1}},
		KPI:     aquanova.KPI{Flux: 1, FeedFlow: 1},
		Stages: []*aquanova.StageMetric{
			{Qf: 1, PIn: 1, Flux: 1, TimeHistory: hist},
		},
		TimeHistory: hist,
	}
	if err := US.Result(res); err != nil {
		t.Fatal(err)
	}
	if different(res.Streams[0].Flow, 4.402867539302473, 1e-9) {
		t.Errorf("stream flow: have %g", res.Streams[0].Flow)
	}
	if different(res.Stages[0].PIn, 14.503773773020923, 1e-9) {
		t.Errorf("stage pressure: have %g", res.Stages[0].PIn)
	}
	if different(res.TimeHistory[0].Pressure, 145.03773773020923, 1e-9) {
		t.Errorf("shared time history converted twice: have %g", res.TimeHistory[0].Pressure)
	}
	if res.Units["flow"] != "gpm" || res.Units["tds"] != "mg/L" {
		t.Errorf("labels: %v", res.Units)
	}
}

func ExampleConvert() {
	v, _ := Convert(100, "m3/h", "gpm")
	fmt.Printf("%.1f gpm\n", v)
	// Output: 440.3 gpm
}
