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

package catalog

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/aquanova/aquanova"
	"github.com/kr/pretty"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestLookup(t *testing.T) {
	c := New(0)
	tests := []struct {
		id   string
		want aquanova.MembraneSpec
	}{
		{
			id: "FilmTec SOAR 6000i",
			want: aquanova.MembraneSpec{ID: "filmtec-soar-6000i", Vendor: "FilmTec", Family: "RO",
				Size: "8040", Area: 40.9, A: 6.35, B: 0.058, Rejection: 0.995},
		},
		{
			id: "GENERIC-BWRO-4040",
			want: aquanova.MembraneSpec{ID: "generic-bwro-4040", Vendor: "Generic", Family: "RO",
				Size: "4040", Area: 7.9, A: 3, B: 0.1, Rejection: 0.99},
		},
		{
			id: " generic-bwro-8040 ",
			want: aquanova.MembraneSpec{ID: "generic-bwro-8040", Vendor: "Generic", Family: "RO",
				Size: "8040", Area: 40.9, A: 3, B: 0.1, Rejection: 0.99},
		},
	}
	for _, test := range tests {
		t.Run(test.id, func(t *testing.T) {
			have, ok := c.Lookup(test.id)
			if !ok {
				t.Fatal("not found")
			}
			if diff := pretty.Diff(have, test.want); len(diff) != 0 {
				t.Error(diff)
			}
		})
	}
}

func TestLookupBMPS(t *testing.T) {
	s, ok := New(1).Lookup("filmtec-bw30-400")
	if !ok {
		t.Fatal("not found")
	}
	if different(s.B, 0.1008, 1e-12) {
		t.Errorf("B: have %g, want 0.1008", s.B)
	}
}

func TestLookupRated(t *testing.T) {
	s, ok := New(1).Lookup("Hydranautics ESPA2-LD")
	if !ok {
		t.Fatal("not found")
	}
	if different(s.A, 3.2280333114351603, 1e-9) {
		t.Errorf("A: have %g, want 3.2280333114351603", s.A)
	}
	if different(s.B, 0.20557597741322148, 1e-9) {
		t.Errorf("B: have %g, want 0.20557597741322148", s.B)
	}
	if s.Rejection != 0.995 || s.Area != 37.2 {
		t.Errorf("rejection %g, area %g", s.Rejection, s.Area)
	}
}

func TestEntriesComplete(t *testing.T) {
	for _, s := range List("") {
		if s.A <= 0 || s.Area <= 0 {
			t.Errorf("%s: A %g, area %g", s.ID, s.A, s.Area)
		}
		if s.Family != "UF" && s.Family != "MF" && s.B <= 0 {
			t.Errorf("%s: B %g", s.ID, s.B)
		}
	}
}

func TestLookupMissing(t *testing.T) {
	if _, ok := New(1).Lookup("no-such-membrane"); ok {
		t.Error("should not be found")
	}
}

func TestLookupConcurrent(t *testing.T) {
	c := New(2)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := []string{"filmtec-soar-6000i", "lg-bw-440-es", "hydranautics-cpa3"}[i%3]
			if _, ok := c.Lookup(id); !ok {
				t.Errorf("%s not found", id)
			}
		}(i)
	}
	wg.Wait()
}

func TestList(t *testing.T) {
	for _, test := range []struct {
		family string
		n      int
	}{
		{"", 10},
		{"RO", 8},
		{"hrro", 8},
		{"BWRO", 7},
		{"SWRO", 1},
		{"NF", 1},
		{"UF", 1},
		{"MF", 0},
	} {
		if have := List(test.family); len(have) != test.n {
			t.Errorf("%q: have %d membranes, want %d", test.family, len(have), test.n)
		}
	}
	if have := List("RO")[0].ID; have != "filmtec-bw30-400" {
		t.Errorf("first: have %s, want filmtec-bw30-400", have)
	}
}

func TestRate(t *testing.T) {
	a, b, err := Rate(TestConditions{
		PermeateFlow: 10500,
		Rejection:    99.5,
		Pressure:     15.5,
		TDS:          2000,
		Area:         37.2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if different(a, 3.2280333114351603, 1e-9) {
		t.Errorf("A: have %g, want 3.2280333114351603", a)
	}
	if different(b, 0.20557597741322148, 1e-9) {
		t.Errorf("B: have %g, want 0.20557597741322148", b)
	}

	if _, _, err := Rate(TestConditions{PermeateFlow: 10500, Rejection: 99.5, Pressure: 0.5, TDS: 2000, Area: 37.2}); err == nil {
		t.Error("pressure below osmotic pressure should be an error")
	}
	if _, _, err := Rate(TestConditions{}); err == nil {
		t.Error("empty conditions should be an error")
	}
}

func ExampleList() {
	for _, m := range List("SWRO") {
		fmt.Printf("%s %.1f m² A=%.2f B=%.3f\n", m.ID, m.Area, m.A, m.B)
	}
	// Output: filmtec-sw30hrle-440i 41.0 m² A=1.10 B=0.036
}
