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
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/aquanova/aquanova"
	"github.com/aquanova/aquanova/science/chem/waterchem"
	"github.com/kr/pretty"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func feed() aquanova.FeedStream {
	return aquanova.FeedStream{Flow: 100, TDS: 1000, Temperature: 25, PH: 7}
}

func TestBaseline(t *testing.T) {
	tests := []struct {
		name           string
		in             BaselineInput
		pfFeed, ccFeed float64
	}{
		{
			name:   "pre-flush helper",
			in:     BaselineInput{Feed: 10, CCRORecovery: 85, PFFeedRatio: 110},
			pfFeed: 10.85,
			ccFeed: 9.863636363636363,
		},
		{
			name:   "below helper threshold",
			in:     BaselineInput{Feed: 10, CCRORecovery: 85, PFFeedRatio: 100.9},
			pfFeed: 10,
			ccFeed: 10 / 1.009,
		},
		{
			name:   "design case",
			in:     BaselineInput{Feed: 100, CCRORecovery: 80, PFFeedRatio: 110},
			pfFeed: 108,
			ccFeed: 98.18181818181817,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := ComputeBaseline(test.in)
			if different(b.PFFeed, test.pfFeed, 1e-12) {
				t.Errorf("pf feed: have %g, want %g", b.PFFeed, test.pfFeed)
			}
			if different(b.CCFeed, test.ccFeed, 1e-12) {
				t.Errorf("cc feed: have %g, want %g", b.CCFeed, test.ccFeed)
			}
		})
	}
}

func TestBaselineDeterministic(t *testing.T) {
	in := BaselineInput{
		Feed:              100,
		CCRORecovery:      80,
		PFFeedRatio:       110,
		PFRecovery:        10,
		CCRecycle:         4.33,
		Vessels:           2,
		ElementsPerVessel: 6,
		AreaPerElement:    37,
	}
	b := ComputeBaseline(in)
	if b.CCROQp != 80 || b.CCROQc != 20 {
		t.Errorf("flows: have %g/%g, want 80/20", b.CCROQp, b.CCROQc)
	}
	if b.TotalElements != 12 || b.TotalArea != 444 {
		t.Errorf("geometry: have %d elements, %g m², want 12, 444", b.TotalElements, b.TotalArea)
	}
	if round(b.CCROFlux, 2) != 180.18 {
		t.Errorf("flux: have %g, want 180.18", b.CCROFlux)
	}
	if b.CCQpPerPV != b.CCMakeupPerPV || b.CCBlendPerPV != b.CCQcPerPV+b.CCMakeupPerPV {
		t.Errorf("per-vessel circulation is inconsistent: %+v", b)
	}
	if diff := pretty.Diff(b, ComputeBaseline(in)); len(diff) != 0 {
		t.Errorf("baseline is not deterministic: %v", diff)
	}
}

func TestChooseProfile(t *testing.T) {
	sdi := func(v float64) *float64 { return &v }
	tests := []struct {
		waterType, subType string
		sdi                *float64
		tds                float64
		want               string
	}{
		{"Seawater", "beach well", nil, 35000, SeawaterBeachWells},
		{"seawater", "", sdi(2.5), 35000, SeawaterIntakeMFUF},
		{"Seawater", "open intake", nil, 35000, SeawaterIntakeMedia},
		{"", "", sdi(0.5), 150, ROPermeate},
		{"Surface", "UF", nil, 500, SurfaceMFUF},
		{"wastewater", "", sdi(4), 1000, SecondaryWasteMedia},
		{"Wastewater", "MF", nil, 1000, SecondaryWasteMFUF},
		{"Brackish", "", nil, 3000, BrackishWells},
		{"groundwater", "", nil, 3000, BrackishWells},
		{"", "", nil, 500, Municipal},
	}
	for _, test := range tests {
		have, reason := ChooseProfile(test.waterType, test.subType, test.sdi, test.tds)
		if have != test.want {
			t.Errorf("%s/%s: have %q, want %q", test.waterType, test.subType, have, test.want)
		}
		if reason == "" {
			t.Errorf("%s/%s: missing reason", test.waterType, test.subType)
		}
	}
}

func TestElementInch(t *testing.T) {
	if have := ElementInch(37); have != 8 {
		t.Errorf("have %d, want 8", have)
	}
	if have := ElementInch(7.9); have != 4 {
		t.Errorf("have %d, want 4", have)
	}
}

func TestGuidelines(t *testing.T) {
	if len(Profiles()) != 10 {
		t.Errorf("have %d profiles, want 10", len(Profiles()))
	}
	for _, p := range Profiles() {
		for _, inch := range []int{4, 8} {
			if _, ok := Guideline(p, inch); !ok {
				t.Errorf("%s %d\": missing", p, inch)
			}
		}
	}
	l, _ := Guideline(Municipal, 8)
	want := Limits{
		SDI:                "<5",
		AvgFluxMin:         f(20),
		AvgFluxMax:         f(26),
		LeadFluxMax:        f(31),
		ConcFlowMin:        f(3.6),
		FeedFlowMax:        f(15),
		DPMax:              f(2),
		ElementRecoveryMax: f(15),
		BetaMax:            f(1.2),
		FluxDeclineMax:     f(13),
	}
	if diff := pretty.Diff(l, want); len(diff) != 0 {
		t.Errorf("municipal 8\": %v", diff)
	}
}

func TestCheckAvgFlux(t *testing.T) {
	used, v := Check(Municipal, 8, Checks{AvgFlux: f(30)})
	if used.Profile != Municipal || used.ElementInch != 8 {
		t.Errorf("used %s %d\"", used.Profile, used.ElementInch)
	}
	if len(v) != 1 {
		t.Fatalf("have %d violations, want 1", len(v))
	}
	if v[0].Key != "avg_flux_range" {
		t.Errorf("key: have %s, want avg_flux_range", v[0].Key)
	}
	const msg = "Average flux 30.000 LMH is out of guideline range [20..26]"
	if v[0].Message != msg {
		t.Errorf("message: have %q, want %q", v[0].Message, msg)
	}
	if lim, ok := v[0].Limit.([2]float64); !ok || lim != [2]float64{20, 26} {
		t.Errorf("limit: have %v, want [20 26]", v[0].Limit)
	}
	b, err := json.Marshal(v[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"limit":[20,26]`) {
		t.Errorf("json: have %s, want a limit of [20,26]", b)
	}
}

func TestCheckAll(t *testing.T) {
	_, v := Check(Municipal, 8, Checks{
		AvgFlux:           f(30),
		LeadFlux:          f(40),
		ConcFlowPerVessel: f(1),
		FeedFlowPerVessel: f(20),
		DPPerVessel:       f(3),
		ElementRecovery:   f(20),
		Beta:              f(1.3),
		FluxDecline:       f(20),
	})
	var keys []string
	for _, x := range v {
		keys = append(keys, x.Key)
	}
	want := []string{"avg_flux_range", "lead_flux_max", "conc_flow_min", "feed_flow_max",
		"dp_max", "element_recovery_max", "beta_max", "flux_decline_ratio_max"}
	if diff := pretty.Diff(keys, want); len(diff) != 0 {
		t.Errorf("keys: %v", diff)
	}
	if lim, ok := v[1].Limit.(float64); !ok || lim != 31 {
		t.Errorf("lead_flux_max limit: have %v, want 31", v[1].Limit)
	}
	if lim, ok := v[2].Limit.(float64); !ok || lim != 3.6 {
		t.Errorf("conc_flow_min limit: have %v, want 3.6", v[2].Limit)
	}

	_, v = Check(Municipal, 8, Checks{AvgFlux: f(23), FeedFlowPerVessel: f(15), ConcFlowPerVessel: f(3.6)})
	if len(v) != 0 {
		t.Errorf("values at the limits should pass, have %v", v)
	}
}

func TestCheckFourInch(t *testing.T) {
	_, v := Check(SeawaterBeachWells, 4, Checks{AvgFlux: f(50), ConcFlowPerVessel: f(0.1), FeedFlowPerVessel: f(2)})
	if len(v) != 0 {
		t.Errorf("have %v, want no violations", v)
	}
	_, v = Check(SeawaterBeachWells, 4, Checks{FeedFlowPerVessel: f(3.5)})
	if len(v) != 1 || v[0].Key != "feed_flow_max" {
		t.Errorf("have %v, want feed_flow_max", v)
	}
}

func TestCheckUnknownProfile(t *testing.T) {
	used, _ := Check("no such profile", 8, Checks{})
	if used.Profile != Municipal {
		t.Errorf("have %q, want %q", used.Profile, Municipal)
	}
}

func TestProperties(t *testing.T) {
	if have, want := HydraulicDiameter(0.00076, 0.85), 0.0011234782608695653; different(have, want, 1e-12) {
		t.Errorf("dh: have %g, want %g", have, want)
	}
	if a, b := CorrectMembrane(3, 0.1, 25); a != 3 || b != 0.1 {
		t.Errorf("25 °C should be uncorrected, have %g, %g", a, b)
	}
	if a, _ := CorrectMembrane(3, 0.1, 35); a <= 3 {
		t.Errorf("warmer water should raise A, have %g", a)
	}
	w := Properties(35000, 25, nil)
	if w.Rho <= 1000 || w.Mu <= 0 || w.Pi != 0 {
		t.Errorf("properties: %+v", w)
	}
	if dp := SpacerPressureDrop(w, 100, 0.001, 100); dp != 3 {
		t.Errorf("pressure drop should be capped at 3 bar, have %g", dp)
	}
}

func TestPermeateQuality(t *testing.T) {
	in := PermeateInput{Mode: FixedRejection, Cf: 1000, Qf: 100, Qp: 80, Rejection: 99}
	p, err := PermeateQuality(in)
	if err != nil {
		t.Fatal(err)
	}
	if different(p.Cp, 10, 1e-12) || different(p.Cc, 4960, 1e-12) {
		t.Errorf("have Cp %g, Cc %g, want 10, 4960", p.Cp, p.Cc)
	}

	in.Mode, in.Flux, in.B, in.MinRejection = ModelRejection, 20, 0.1, 0
	p, err = PermeateQuality(in)
	if err != nil {
		t.Fatal(err)
	}
	if different(p.Rejection, 99.50248756218905, 1e-12) {
		t.Errorf("model rejection: have %g, want 99.50248756218905", p.Rejection)
	}
	in.MinRejection = 99.7
	if p, _ = PermeateQuality(in); p.Rejection != 99.7 {
		t.Errorf("floored rejection: have %g, want 99.7", p.Rejection)
	}

	in.Mode = NoPermeate
	if p, _ = PermeateQuality(in); p.OK {
		t.Error("none mode should not compute a permeate")
	}
	in.Mode = "bogus"
	if _, err = PermeateQuality(in); err == nil {
		t.Error("invalid mode should be an error")
	}
}

func TestSolveInletPressure(t *testing.T) {
	ph := *DefaultPhysics()
	ph.Segments = 1
	ph.ChannelArea = 0.015
	ph.Voidage = 0.85
	ph.HydraulicDiameter = 0.0012
	ph.Diffusivity = 1.5e-9
	ph.CPExpMax = 0
	in := AxialInput{
		Temperature: 25,
		A:           1,
		B:           0,
		Area:        222,
		Q:           10,
		C:           100,
		Osmotic:     waterchem.OsmoticFunc(waterchem.Profile{TDS: 100, Temperature: 25, PH: 7}),
		Physics:     ph,
	}
	p, r, _, ok := SolveInletPressure(in, 10, 60, 0.2, 40)
	if !ok {
		t.Error("should converge")
	}
	if math.Abs(r.AvgFlux-10) > 0.2 {
		t.Errorf("flux: have %g, want 10 ± 0.2", r.AvgFlux)
	}
	if p < 0 || p > 60 {
		t.Errorf("pressure %g out of range", p)
	}
	if r.Cp != 0 {
		t.Errorf("zero salt permeability should give a salt-free permeate, have %g", r.Cp)
	}
	if different(r.Qp+r.QOut, in.Q, 1e-12) {
		t.Errorf("flow balance: %g + %g != %g", r.Qp, r.QOut, in.Q)
	}
}

func TestAxialMonotonic(t *testing.T) {
	ph := *DefaultPhysics()
	ph.Segments = 6
	in := AxialInput{
		Temperature: 25,
		A:           3,
		B:           0.05,
		Area:        240,
		DP:          1,
		Q:           20,
		C:           2000,
		Osmotic:     waterchem.OsmoticFunc(waterchem.Profile{TDS: 2000, Temperature: 25, PH: 7}),
		Physics:     ph,
	}
	prev := -1.0
	for p := 2.0; p <= 40; p += 2 {
		r := Axial(in, p)
		if r.AvgFlux < prev {
			t.Fatalf("flux fell from %g to %g at %g bar", prev, r.AvgFlux, p)
		}
		prev = r.AvgFlux
		if salt := r.Qp*r.Cp + r.QOut*r.COut; different(salt, in.Q*in.C, 1e-9) {
			t.Errorf("%g bar: salt balance %g != %g", p, salt, in.Q*in.C)
		}
	}
}

func batchInput() BatchInput {
	return BatchInput{
		Feed:              100,
		Recovery:          80,
		Cf:                1000,
		Temperature:       25,
		Osmotic:           waterchem.OsmoticFunc(waterchem.Profile{TDS: 1000, Temperature: 25, PH: 7}),
		Area:              444,
		A:                 5.4,
		B:                 0.058,
		PumpEfficiency:    0.8,
		Circulation:       54.33,
		ElementsPerVessel: 6,
		Physics:           *DefaultPhysics(),
	}
}

func TestBatchCycle(t *testing.T) {
	b, err := BatchCycle(batchInput())
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Points) != 61 {
		t.Errorf("have %d points, want 61", len(b.Points))
	}
	if different(b.CCMinutes, 4.08, 1e-12) {
		t.Errorf("cc minutes: have %g, want 4.08", b.CCMinutes)
	}
	if different(b.PFMinutes, 0.816, 1e-12) {
		t.Errorf("pf minutes: have %g, want 0.816", b.PFMinutes)
	}
	if b.Points[0].TDS != 1000 || b.Points[0].Recovery != 0 {
		t.Errorf("first point: %+v", b.Points[0])
	}
	if b.MaxTDS() > 5000 || b.MaxTDS() <= 1000 {
		t.Errorf("max tds %g should be in (1000, 5000]", b.MaxTDS())
	}
	for _, p := range b.Points {
		if p.Polarization < 1 || p.Polarization > 1.2 {
			t.Errorf("t=%g: beta %g out of range", p.Time, p.Polarization)
		}
	}
	if b.MaxPressure() <= 0 || b.MeanSEC() <= 0 {
		t.Errorf("pressure %g, sec %g should be positive", b.MaxPressure(), b.MeanSEC())
	}
}

func TestBatchCycleStop(t *testing.T) {
	in := batchInput()
	in.Stop = StopExpression(40, 0)
	if in.Stop != "recovery_pct >= 40" {
		t.Errorf("expression: have %q", in.Stop)
	}
	b, err := BatchCycle(in)
	if err != nil {
		t.Fatal(err)
	}
	if !b.Stopped || len(b.Points) != 6 {
		t.Errorf("have %d points (stopped %v), want 6", len(b.Points), b.Stopped)
	}

	if have := StopExpression(90, 500); have != "recovery_pct >= 90 || permeate_tds_mgL >= 500" {
		t.Errorf("expression: have %q", have)
	}

	for _, expr := range []string{"foo >= 1", "recovery_pct + 1", "recovery_pct >="} {
		in.Stop = expr
		if _, err := BatchCycle(in); err == nil {
			t.Errorf("%q should be an error", expr)
		}
	}
}

func stage(engine string) *aquanova.StageConfig {
	return &aquanova.StageConfig{
		Module:            aquanova.HRRO,
		VesselCount:       2,
		ElementsPerVessel: 6,
		AreaPerElement:    37,
		HRRO: aquanova.HRROConfig{
			Engine:         engine,
			CCRORecovery:   80,
			FixedRejection: 99,
		},
	}
}

func TestExcelOnly(t *testing.T) {
	m, err := Module{}.Compute(stage(""), feed())
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		name       string
		have, want float64
	}{
		{"Qp", m.Qp, 80},
		{"Qc", m.Qc, 20},
		{"Cp", m.Cp, 10},
		{"Cc", m.Cc, 4960},
		{"flux", m.Flux, 180.18018018018017},
		{"recovery", m.Recovery, 80},
	} {
		if different(c.have, c.want, 1e-9) {
			t.Errorf("%s: have %g, want %g", c.name, c.have, c.want)
		}
	}
	if salt := m.Qp*m.Cp + m.Qc*m.Cc; different(salt, m.Qf*m.Cf, 1e-9) {
		t.Errorf("salt balance: %g != %g", salt, m.Qf*m.Cf)
	}
	if !m.Converged || len(m.TimeHistory) == 0 || m.CycleMinutes <= 0 {
		t.Errorf("converged %v, %d points, cycle %g", m.Converged, len(m.TimeHistory), m.CycleMinutes)
	}
	if _, ok := m.Details["violations"]; !ok {
		t.Error("missing violations")
	}
	if m.Scaling == nil {
		t.Error("missing scaling indices")
	}
	// 180 LMH is far above every guideline.
	var found bool
	for _, v := range m.Violations {
		if v.Key == "avg_flux_range" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing avg_flux_range violation: %v", m.Violations)
	}
}

func TestExcelOnlyNoPermeateModel(t *testing.T) {
	cfg := stage(ExcelOnly)
	cfg.HRRO.CPMode = NoPermeate
	m, err := Module{}.Compute(cfg, feed())
	if err != nil {
		t.Fatal(err)
	}
	if salt := m.Qp*m.Cp + m.Qc*m.Cc; different(salt, m.Qf*m.Cf, 1e-9) {
		t.Errorf("salt balance: %g != %g", salt, m.Qf*m.Cf)
	}
	if m.Cp <= 0 || m.Cp >= m.Cf {
		t.Errorf("Cp %g should be in (0, %g)", m.Cp, m.Cf)
	}
}

func TestExcelPhysicsBaseline(t *testing.T) {
	m, err := Module{}.Compute(stage(ExcelPhysics), feed())
	if err != nil {
		t.Fatal(err)
	}
	if different(m.Qp, 80, 1e-12) || different(m.Qc, 20, 1e-12) {
		t.Errorf("flows: have %g/%g, want 80/20", m.Qp, m.Qc)
	}
	phys := m.Details["design_excel"].(map[string]interface{})["physics"].(map[string]interface{})
	if phys["flow_mode"] != "excel_baseline" {
		t.Errorf("flow mode: have %v", phys["flow_mode"])
	}
	if m.PIn <= 0 || m.PIn > 83 {
		t.Errorf("p_in %g out of range", m.PIn)
	}
}

func TestExcelPhysicsFluxOverride(t *testing.T) {
	cfg := stage(ExcelPhysics)
	cfg.VesselCount = 1
	cfg.Flux = 5
	m, err := Module{}.Compute(cfg, feed())
	if err != nil {
		t.Fatal(err)
	}
	if different(m.Qp, 1.11, 1e-9) || different(m.Qc, 98.89, 1e-9) {
		t.Errorf("flows: have %g/%g, want 1.11/98.89", m.Qp, m.Qc)
	}
	if different(m.Flux, 5, 1e-9) {
		t.Errorf("flux: have %g, want 5", m.Flux)
	}
	phys := m.Details["design_excel"].(map[string]interface{})["physics"].(map[string]interface{})
	if phys["flow_mode"] != "flux_override" || phys["qp_total_clamped"] != false {
		t.Errorf("physics: %v", phys)
	}
	if !m.Converged {
		t.Errorf("should converge after %d iterations", m.Iterations)
	}
}

func TestInvalidModes(t *testing.T) {
	cfg := stage("excel_magic")
	if _, err := (Module{}).Compute(cfg, feed()); err == nil || !strings.Contains(err.Error(), "invalid engine mode") {
		t.Errorf("have %v, want invalid engine mode", err)
	}
	cfg = stage(ExcelOnly)
	cfg.HRRO.CPMode = "magic"
	if _, err := (Module{}).Compute(cfg, feed()); err == nil || !strings.Contains(err.Error(), "invalid cp mode") {
		t.Errorf("have %v, want invalid cp mode", err)
	}
}

func TestDefaults(t *testing.T) {
	m, err := Module{}.Compute(&aquanova.StageConfig{Module: aquanova.HRRO}, feed())
	if err != nil {
		t.Fatal(err)
	}
	if different(m.Recovery, 90, 1e-12) {
		t.Errorf("recovery: have %g, want 90", m.Recovery)
	}
	want := map[string]bool{"hrro.engine": true, "vessel_count": true, "elements_per_vessel": true,
		"membrane_area_m2": true, "recovery_target_pct": true}
	for _, k := range m.Defaulted {
		delete(want, k)
	}
	if len(want) != 0 {
		t.Errorf("missing defaults %v in %v", want, m.Defaulted)
	}
}

func ExampleComputeBaseline() {
	b := ComputeBaseline(BaselineInput{
		Feed:              100,
		CCRORecovery:      80,
		PFFeedRatio:       110,
		PFRecovery:        10,
		CCRecycle:         4.33,
		Vessels:           2,
		ElementsPerVessel: 6,
		AreaPerElement:    37,
	})
	fmt.Printf("Qp %.2f m3/h, Qc %.2f m3/h, flux %.2f LMH\n", b.CCROQp, b.CCROQc, b.CCROFlux)
	// Output: Qp 80.00 m3/h, Qc 20.00 m3/h, flux 180.18 LMH
}
