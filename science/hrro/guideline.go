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
	"sort"
	"strings"

	"github.com/aquanova/aquanova"
)

// Limits holds the design guideline limits of one profile and element
// size. A nil limit is not checked.
type Limits struct {
	SDI string `json:"sdi"`

	AvgFluxMin *float64 `json:"avg_flux_min_lmh,omitempty"`
	AvgFluxMax *float64 `json:"avg_flux_max_lmh,omitempty"`

	LeadFluxMax        *float64 `json:"lead_flux_max_lmh,omitempty"`
	ConcFlowMin        *float64 `json:"conc_flow_min_m3h_per_vessel,omitempty"`
	FeedFlowMax        *float64 `json:"feed_flow_max_m3h_per_vessel,omitempty"`
	DPMax              *float64 `json:"dp_max_bar,omitempty"`
	ElementRecoveryMax *float64 `json:"element_recovery_max_pct,omitempty"`
	BetaMax            *float64 `json:"beta_max,omitempty"`
	FluxDeclineMax     *float64 `json:"flux_decline_ratio_max_pct,omitempty"`
}

func f(v float64) *float64 { return &v }

// eight returns the 8-inch limits shared by most profiles.
func eight(sdi string, fluxMin, fluxMax, lead, conc, feed, dp, rec, beta, decline float64) Limits {
	return Limits{
		SDI:                sdi,
		AvgFluxMin:         f(fluxMin),
		AvgFluxMax:         f(fluxMax),
		LeadFluxMax:        f(lead),
		ConcFlowMin:        f(conc),
		FeedFlowMax:        f(feed),
		DPMax:              f(dp),
		ElementRecoveryMax: f(rec),
		BetaMax:            f(beta),
		FluxDeclineMax:     f(decline),
	}
}

// four returns 4-inch limits, which only constrain the vessel flows.
// A negative concentrate limit means none.
func four(sdi string, conc, feed float64) Limits {
	l := Limits{SDI: sdi, FeedFlowMax: f(feed)}
	if conc >= 0 {
		l.ConcFlowMin = f(conc)
	}
	return l
}

// The guideline profile names.
const (
	Municipal           = "municipal Supply"
	BrackishWells       = "Brackish Wells"
	SurfaceMedia        = "Surface Water media fillteration"
	SurfaceMFUF         = "Surface Water MF/UF Filteration"
	SecondaryWasteMedia = "Secondary Waste media Filteration"
	SecondaryWasteMFUF  = "Secondary Waste MF/UF Filteration"
	SeawaterIntakeMedia = "Seawater Intake media Filteration"
	SeawaterIntakeMFUF  = "SeaWater Intake MF/UF filtertation"
	SeawaterBeachWells  = "Seawater Beach Wells"
	ROPermeate          = "RO Pemeate"
)

// guidelines is indexed by profile name and element size in inches. It
// is never modified.
var guidelines = map[string]map[int]Limits{
	Municipal: {
		8: eight("<5", 20, 26, 31, 3.6, 15, 2, 15, 1.2, 13),
		4: four("<5", 0.7, 2.8),
	},
	BrackishWells: {
		8: eight("<3", 23, 29, 34, 3.0, 16, 3, 20, 1.2, 10),
		4: four("<3", 0.6, 3.2),
	},
	SurfaceMedia: {
		8: eight("<5", 20, 26, 31, 3.6, 15, 2, 15, 1.2, 13),
		4: four("<5", 0.7, 2.6),
	},
	SurfaceMFUF: {
		8: eight("<3", 23, 29, 34, 3.0, 16, 3, 20, 1.2, 10),
		4: four("<3", 0.6, 3.2),
	},
	SecondaryWasteMedia: {
		8: eight("<5", 14, 20, 24, 4.1, 14, 2, 12, 1.2, 18),
		4: four("<5", 0.8, 2.6),
	},
	SecondaryWasteMFUF: {
		8: eight("<3", 17, 23, 28, 3.6, 14, 2, 17, 1.2, 15),
		4: four("<3", 0.7, 2.8),
	},
	SeawaterIntakeMedia: {
		8: eight("<5", 11, 17, 30, 3.6, 14, 2, 13, 1.2, 8),
		4: four("<5", 0.7, 2.8),
	},
	SeawaterIntakeMFUF: {
		8: eight("<3", 14, 20, 35, 3.4, 16, 3, 15, 1.2, 6),
		4: four("<3", 0.7, 3.0),
	},
	SeawaterBeachWells: {
		8: eight("<3", 14, 20, 35, 3.4, 16, 3, 15, 1.2, 6),
		4: four("<3", -1, 3.0),
	},
	ROPermeate: {
		8: eight("<1", 32, 42, 48, 2.4, 17, 3, 30, 1.3, 6),
		4: four("<1", 0.5, 3.6),
	},
}

// Profiles returns the sorted guideline profile names.
func Profiles() []string {
	o := make([]string, 0, len(guidelines))
	for k := range guidelines {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// Guideline returns the limits of the given profile and element size.
func Guideline(profile string, inch int) (Limits, bool) {
	l, ok := guidelines[profile][inch]
	return l, ok
}

// ElementInch infers the element diameter from its area.
func ElementInch(areaPerElement float64) int {
	if areaPerElement >= 20 {
		return 8
	}
	return 4
}

// ChooseProfile selects a guideline profile from the feed water
// description. sdi may be nil if unknown. It returns the profile name and
// the reason it was chosen.
func ChooseProfile(waterType, subType string, sdi *float64, tds float64) (profile, reason string) {
	wt := strings.ToLower(strings.TrimSpace(waterType))
	sub := strings.ToLower(strings.TrimSpace(subType))
	filtered := strings.Contains(sub, "mf") || strings.Contains(sub, "uf") || (sdi != nil && *sdi <= 3)

	switch {
	case tds <= 200 && sdi != nil && *sdi <= 1:
		return ROPermeate, "tds<=200 & sdi<=1 -> RO permeate"
	case strings.Contains(wt, "seawater"):
		if strings.Contains(sub, "beach") {
			return SeawaterBeachWells, "water_type=seawater & subtype contains beach"
		}
		if filtered {
			return SeawaterIntakeMFUF, "seawater + (mf/uf or sdi<=3)"
		}
		return SeawaterIntakeMedia, "seawater default(media filtration)"
	case strings.Contains(wt, "surface"):
		if filtered {
			return SurfaceMFUF, "surface + (mf/uf or sdi<=3)"
		}
		return SurfaceMedia, "surface default(media filtration)"
	case strings.Contains(wt, "wastewater"):
		if filtered {
			return SecondaryWasteMFUF, "wastewater + (mf/uf or sdi<=3)"
		}
		return SecondaryWasteMedia, "wastewater default(media filtration)"
	case strings.Contains(wt, "brackish") || strings.Contains(wt, "groundwater"):
		return BrackishWells, "brackish/groundwater -> brackish wells"
	}
	return Municipal, "default fallback(municipal)"
}

// Checks holds the design values checked against a guideline. Nil
// values are not checked.
type Checks struct {
	AvgFlux           *float64
	LeadFlux          *float64
	ConcFlowPerVessel *float64
	FeedFlowPerVessel *float64
	DPPerVessel       *float64
	ElementRecovery   *float64
	Beta              *float64
	FluxDecline       *float64
}

// GuidelineUsed identifies the guideline a stage was checked against.
type GuidelineUsed struct {
	Profile     string `json:"profile"`
	ElementInch int    `json:"element_inch"`
	Reason      string `json:"profile_reason,omitempty"`
	Limits      Limits `json:"limits"`
}

// Check compares c against the limits of the given profile and element
// size and returns every violated limit. An unknown profile falls back
// to the municipal profile.
func Check(profile string, inch int, c Checks) (GuidelineUsed, []aquanova.Violation) {
	l, ok := Guideline(profile, inch)
	if !ok {
		profile = Municipal
		l, _ = Guideline(profile, inch)
	}
	used := GuidelineUsed{Profile: profile, ElementInch: inch, Limits: l}

	var o []aquanova.Violation
	over := func(key, what string, v, limit *float64, unit string) {
		if v == nil || limit == nil || *v <= *limit+1e-9 {
			return
		}
		o = append(o, aquanova.Violation{
			Key:     key,
			Message: fmt.Sprintf("%s %.3f %s exceeds guideline max %g", what, *v, unit, *limit),
			Value:   *v,
			Limit:   *limit,
			Unit:    unit,
		})
	}

	if v := c.AvgFlux; v != nil && l.AvgFluxMin != nil && l.AvgFluxMax != nil {
		if *v < *l.AvgFluxMin || *v > *l.AvgFluxMax {
			o = append(o, aquanova.Violation{
				Key: "avg_flux_range",
				Message: fmt.Sprintf("Average flux %.3f LMH is out of guideline range [%g..%g]",
					*v, *l.AvgFluxMin, *l.AvgFluxMax),
				Value: *v,
				Limit: [2]float64{*l.AvgFluxMin, *l.AvgFluxMax},
				Unit:  "LMH",
			})
		}
	}
	over("lead_flux_max", "Lead element flux", c.LeadFlux, l.LeadFluxMax, "LMH")
	if v := c.ConcFlowPerVessel; v != nil && l.ConcFlowMin != nil && *v+1e-12 < *l.ConcFlowMin {
		o = append(o, aquanova.Violation{
			Key: "conc_flow_min",
			Message: fmt.Sprintf("Concentrate flow/vessel %.3f m3/h is below guideline min %g",
				*v, *l.ConcFlowMin),
			Value: *v,
			Limit: *l.ConcFlowMin,
			Unit:  "m3/h",
		})
	}
	over("feed_flow_max", "Feed flow/vessel", c.FeedFlowPerVessel, l.FeedFlowMax, "m3/h")
	over("dp_max", "Pressure drop/vessel", c.DPPerVessel, l.DPMax, "bar")
	over("element_recovery_max", "Element recovery", c.ElementRecovery, l.ElementRecoveryMax, "%")
	over("beta_max", "Polarization factor", c.Beta, l.BetaMax, "")
	over("flux_decline_ratio_max", "Flux decline", c.FluxDecline, l.FluxDeclineMax, "%")
	return used, o
}
