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

// Package catalog holds the specifications of common membrane elements.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/aquanova/aquanova"
	"github.com/golang/groupcache/lru"
)

// entry is a raw catalog record as published by the vendor. Salt
// permeability is given either in L/m²/h or in m/s. Vendors that only
// publish a rated performance give the test conditions instead.
type entry struct {
	id, name, vendor, family, size string

	area float64 // m², 0 if unpublished
	a    float64 // L/m²/h/bar
	bLMH float64
	bMPS float64

	rejection float64 // %, 0 if unpublished

	rated *TestConditions
}

var entries = []entry{
	{id: "filmtec-soar-6000i", name: "FilmTec SOAR 6000i", vendor: "FilmTec", family: "RO", size: "8040",
		area: 40.9, a: 6.35, bLMH: 0.058, rejection: 99.5},
	{id: "filmtec-bw30-400", name: "FilmTec BW30-400", vendor: "FilmTec", family: "RO", size: "8040",
		area: 37.2, a: 3.3, bMPS: 2.8e-8, rejection: 99.5},
	{id: "filmtec-sw30hrle-440i", name: "FilmTec SW30HRLE-440i", vendor: "FilmTec", family: "SWRO", size: "8040",
		area: 41, a: 1.1, bMPS: 1e-8, rejection: 99.8},
	{id: "filmtec-nf270-400", name: "FilmTec NF270-400", vendor: "FilmTec", family: "NF", size: "8040",
		area: 37, a: 11, bLMH: 15, rejection: 50},
	{id: "lg-bw-440-es", name: "LG BW 440 ES", vendor: "LG Chem", family: "RO", size: "8040",
		area: 40.9, a: 3.7, bLMH: 0.11, rejection: 99.5},
	{id: "hydranautics-cpa3", name: "Hydranautics CPA3", vendor: "Hydranautics", family: "RO", size: "8040",
		area: 37.2, a: 3.5, bLMH: 0.12, rejection: 99.6},
	{id: "hydranautics-espa2-ld", name: "Hydranautics ESPA2-LD", vendor: "Hydranautics", family: "RO", size: "8040",
		area: 37.2, rated: &TestConditions{PermeateFlow: 10500, Rejection: 99.5, Pressure: 15.5, TDS: 2000}},
	{id: "uf-sfp-2860xp", name: "UF SFP-2860XP", vendor: "DuPont", family: "UF", size: "2860",
		area: 77, a: 250},
	{id: "generic-bwro-8040", name: "Generic BWRO 8040", vendor: "Generic", family: "RO", size: "8040",
		a: 3, bLMH: 0.1},
	{id: "generic-bwro-4040", name: "Generic BWRO 4040", vendor: "Generic", family: "RO", size: "4040",
		a: 3, bLMH: 0.1},
}

// defaultRejection is the nominal salt rejection [%] by family.
var defaultRejection = map[string]float64{
	"RO":   99,
	"SWRO": 99.5,
	"NF":   60,
	"UF":   0,
	"MF":   0,
}

// families maps family synonyms to catalog families.
var families = map[string][]string{
	"RO":   {"RO", "SWRO"},
	"BWRO": {"RO"},
	"HRRO": {"RO", "SWRO"},
	"SWRO": {"SWRO"},
	"NF":   {"NF"},
	"UF":   {"UF"},
	"MF":   {"MF"},
}

// normalize converts e to engine units, filling in unpublished values.
func (e entry) normalize() aquanova.MembraneSpec {
	s := aquanova.MembraneSpec{
		ID:     e.id,
		Vendor: e.vendor,
		Family: e.family,
		Size:   e.size,
		Area:   e.area,
		A:      e.a,
		B:      e.bLMH,
	}
	if s.Area <= 0 {
		if strings.HasPrefix(e.size, "8040") {
			s.Area = 40.9
		} else {
			s.Area = 7.9
		}
	}
	if s.B <= 0 && e.bMPS > 0 {
		s.B = e.bMPS * 3.6e6
	}
	rej := e.rejection
	if e.rated != nil {
		t := *e.rated
		if t.Area <= 0 {
			t.Area = s.Area
		}
		if a, b, err := Rate(t); err == nil {
			s.A, s.B = a, b
		}
		if rej <= 0 {
			rej = t.Rejection
		}
	}
	if rej <= 0 {
		rej = defaultRejection[e.family]
	}
	s.Rejection = rej / 100
	return s
}

// key normalizes a membrane id or name: "FilmTec SOAR 6000i" and
// "filmtec-soar-6000i" are the same membrane.
func key(id string) string {
	return strings.Join(strings.Fields(strings.ToLower(id)), "-")
}

// Catalog is a static membrane catalog. It is safe for concurrent use.
type Catalog struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// New returns a catalog that keeps up to cacheSize normalized
// specifications in memory. If cacheSize is 0, 128 are kept.
func New(cacheSize int) *Catalog {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	return &Catalog{cache: lru.New(cacheSize)}
}

// Lookup implements aquanova.Catalog. Ids and display names match case
// insensitively.
func (c *Catalog) Lookup(id string) (aquanova.MembraneSpec, bool) {
	k := key(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache.Get(k); ok {
		return v.(aquanova.MembraneSpec), true
	}
	for _, e := range entries {
		if k == e.id || k == key(e.name) {
			s := e.normalize()
			c.cache.Add(k, s)
			return s, true
		}
	}
	return aquanova.MembraneSpec{}, false
}

// List returns the membranes of the given family, sorted by vendor and
// id. Family synonyms (BWRO, SWRO, HRRO) are accepted; an empty family
// returns every membrane.
func List(family string) []aquanova.MembraneSpec {
	f := strings.ToUpper(strings.TrimSpace(family))
	want := make(map[string]bool)
	for _, x := range families[f] {
		want[x] = true
	}
	var o []aquanova.MembraneSpec
	for _, e := range entries {
		if f != "" && !want[e.family] {
			continue
		}
		o = append(o, e.normalize())
	}
	sort.Slice(o, func(i, j int) bool {
		if o[i].Vendor != o[j].Vendor {
			return o[i].Vendor < o[j].Vendor
		}
		return o[i].ID < o[j].ID
	})
	return o
}
