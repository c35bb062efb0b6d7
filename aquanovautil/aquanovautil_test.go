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

package aquanovautil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aquanova/aquanova"
	"github.com/aquanova/aquanova/catalog"
	"github.com/aquanova/aquanova/science/hrro"
	"github.com/aquanova/aquanova/science/hrro/hrroxlsx"
	"github.com/aquanova/aquanova/units"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/tealeg/xlsx"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "aquanovautil")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func readResult(t *testing.T, path string) *aquanova.Result {
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	res := new(aquanova.Result)
	if err := json.NewDecoder(f).Decode(res); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "AquaNova v" + aquanova.Version; !strings.Contains(buf.String(), want) {
		t.Errorf("have %q, want it to contain %q", buf.String(), want)
	}
}

func TestRun(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "result.json")

	Cfg.Set("scenario", "testdata/ro.toml")
	Cfg.Set("output_file", out)
	Root.SetArgs([]string{"run"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	res := readResult(t, out)
	if res.SchemaVersion != aquanova.SchemaVersion {
		t.Errorf("schema version: have %d, want %d", res.SchemaVersion, aquanova.SchemaVersion)
	}
	if res.Name != "brackish two-stage" {
		t.Errorf("name: have %q", res.Name)
	}
	if len(res.Stages) != 2 {
		t.Fatalf("have %d stages, want 2", len(res.Stages))
	}
	if res.Stages[0].Module != aquanova.UF || res.Stages[1].Module != aquanova.RO {
		t.Errorf("modules: have %s, %s", res.Stages[0].Module, res.Stages[1].Module)
	}
	if res.KPI.Recovery <= 0 || res.KPI.Recovery >= 100 {
		t.Errorf("recovery %g out of range", res.KPI.Recovery)
	}
	if res.Units["flow"] != "m3/h" || res.Units["pressure"] != "bar" {
		t.Errorf("units: have %v", res.Units)
	}
	for _, d := range res.Stages[1].Defaulted {
		if d == "membrane_A_lmh_bar" || d == "membrane_B_lmh" {
			t.Errorf("%s should come from the catalog", d)
		}
	}
}

func TestRunJSONScenario(t *testing.T) {
	var buf bytes.Buffer
	err := Run(&buf, "testdata/ro.json", "", units.Engine, hrro.ExcelOnly, nil, logrus.StandardLogger())
	if err != nil {
		t.Fatal(err)
	}
	res := new(aquanova.Result)
	if err := json.Unmarshal(buf.Bytes(), res); err != nil {
		t.Fatal(err)
	}
	if len(res.Stages) != 1 || res.Stages[0].Module != aquanova.RO {
		t.Fatalf("unexpected stages %+v", res.Stages)
	}
	if different(res.KPI.FeedFlow, 100, 1e-9) {
		t.Errorf("feed flow: have %g, want 100", res.KPI.FeedFlow)
	}
}

func TestRunUSUnits(t *testing.T) {
	run := func(scenario string, sys units.System) *aquanova.Result {
		var buf bytes.Buffer
		if err := Run(&buf, scenario, "", sys, hrro.ExcelOnly, catalog.New(0), logrus.StandardLogger()); err != nil {
			t.Fatal(err)
		}
		res := new(aquanova.Result)
		if err := json.Unmarshal(buf.Bytes(), res); err != nil {
			t.Fatal(err)
		}
		return res
	}
	si := run("testdata/ro.toml", units.Engine)
	us := run("testdata/ro_us.toml", units.US)

	if us.Units["flow"] != "gpm" || us.Units["flux"] != "gfd" {
		t.Errorf("units: have %v", us.Units)
	}
	gpm, err := units.Convert(si.KPI.PermeateFlow, "m3/h", "gpm")
	if err != nil {
		t.Fatal(err)
	}
	if different(us.KPI.PermeateFlow, gpm, 1e-3) {
		t.Errorf("permeate flow: have %g gpm, want %g gpm", us.KPI.PermeateFlow, gpm)
	}
	if different(us.KPI.Recovery, si.KPI.Recovery, 1e-3) {
		t.Errorf("recovery: have %g, want %g", us.KPI.Recovery, si.KPI.Recovery)
	}

	opt := run("testdata/ro_options.toml", units.Engine)
	if opt.Units["flow"] != "gpm" || opt.Units["temperature"] != "F" {
		t.Errorf("scenario units should take precedence, have %v", opt.Units)
	}
	if different(opt.KPI.PermeateFlow, us.KPI.PermeateFlow, 1e-9) {
		t.Errorf("permeate flow: have %g, want %g", opt.KPI.PermeateFlow, us.KPI.PermeateFlow)
	}
}

func TestRunXLSX(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "result.xlsx")
	if err := Run(nil, "testdata/hrro.toml", out, units.Engine, hrro.ExcelOnly, catalog.New(0), logrus.StandardLogger()); err != nil {
		t.Fatal(err)
	}
	f, err := xlsx.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"summary", "streams", "stages", "time_history"} {
		if _, ok := f.Sheet[name]; !ok {
			t.Errorf("missing sheet %s", name)
		}
	}
	stages := f.Sheet["stages"]
	if len(stages.Rows) != 2 {
		t.Fatalf("stages sheet: have %d rows, want 2", len(stages.Rows))
	}
	if v := stages.Rows[1].Cells[1].Value; v != string(aquanova.HRRO) {
		t.Errorf("module type: have %q", v)
	}
	if len(f.Sheet["time_history"].Rows) < 2 {
		t.Error("time history should not be empty")
	}
}

func TestRunHRROEngine(t *testing.T) {
	for _, engine := range []string{hrro.ExcelOnly, hrro.ExcelPhysics} {
		t.Run(engine, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Run(&buf, "testdata/hrro.toml", "", units.Engine, engine, catalog.New(0), logrus.StandardLogger()); err != nil {
				t.Fatal(err)
			}
			res := new(aquanova.Result)
			if err := json.Unmarshal(buf.Bytes(), res); err != nil {
				t.Fatal(err)
			}
			if len(res.TimeHistory) == 0 {
				t.Error("missing time history")
			}
			if res.KPI.BatchCycle == nil {
				t.Error("missing batch cycle")
			}
		})
	}
	var buf bytes.Buffer
	if err := Run(&buf, "testdata/hrro.toml", "", units.Engine, "bogus", nil, logrus.StandardLogger()); err == nil {
		t.Error("invalid engine should be an error")
	}
}

func TestRunErrors(t *testing.T) {
	log := logrus.StandardLogger()
	for name, f := range map[string]func() error{
		"no scenario": func() error { return Run(nil, "", "", units.Engine, hrro.ExcelOnly, nil, log) },
		"missing":     func() error { return Run(nil, "testdata/missing.toml", "", units.Engine, hrro.ExcelOnly, nil, log) },
		"units": func() error {
			return Run(nil, "testdata/ro.toml", "", units.System{Flow: "psi"}, hrro.ExcelOnly, nil, log)
		},
		"output dir": func() error {
			return Run(nil, "testdata/ro.toml", "no/such/dir/out.json", units.Engine, hrro.ExcelOnly, nil, log)
		},
	} {
		if err := f(); err == nil {
			t.Errorf("%s: should be an error", name)
		}
	}
}

func TestLoadScenario(t *testing.T) {
	for _, path := range []string{"testdata/no_temperature.toml", "testdata/no_temperature.json"} {
		_, err := LoadScenario(path)
		if !errors.Is(err, aquanova.ErrInvalidFeed) {
			t.Errorf("%s: have %v, want ErrInvalidFeed", path, err)
		}
		err = Run(ioutil.Discard, path, "", units.Engine, hrro.ExcelOnly, nil, logrus.StandardLogger())
		if !errors.Is(err, aquanova.ErrInvalidFeed) {
			t.Errorf("%s: Run: have %v, want ErrInvalidFeed", path, err)
		}
	}

	req, err := LoadScenario("testdata/nf_lower.toml")
	if err != nil {
		t.Fatal(err)
	}
	want := []aquanova.ModuleType{aquanova.UF, aquanova.NF}
	for i, w := range want {
		if req.Stages[i].Module != w {
			t.Errorf("stage %d: have %q, want %q", i+1, req.Stages[i].Module, w)
		}
	}
	if req.Feed.Temperature != 20 {
		t.Errorf("temperature: have %g, want 20", req.Feed.Temperature)
	}
}

func TestListMembranes(t *testing.T) {
	var buf bytes.Buffer
	if err := ListMembranes(&buf, "NF"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("have %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "filmtec-nf270-400") {
		t.Errorf("have %q", lines[1])
	}
	if err := ListMembranes(&buf, "MF"); err == nil {
		t.Error("empty family should be an error")
	}
}

func TestCheckWorkbook(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "ccro.xlsx")
	in := hrro.BaselineInput{
		Feed:              20,
		CCRORecovery:      90,
		PFFeedRatio:       110,
		PFRecovery:        10,
		CCRecycle:         4.33,
		Vessels:           4,
		ElementsPerVessel: 6,
		AreaPerElement:    40.9,
	}
	if err := hrroxlsx.Write(path, in); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	log, hook := logtest.NewNullLogger()
	if err := CheckWorkbook(context.Background(), &buf, path, hrroxlsx.DefaultSheet, 1e-6, log); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "H24") {
		t.Errorf("output should list cell H24:\n%s", buf.String())
	}
	e := hook.LastEntry()
	if e == nil || e.Message != "checked reference workbook" {
		t.Fatalf("have log entry %v, want the workbook summary", e)
	}
	if e.Data["workbook"] != path || e.Data["mismatches"] != 0 {
		t.Errorf("log fields: have %v", e.Data)
	}
	if err := CheckWorkbook(context.Background(), &buf, "", hrroxlsx.DefaultSheet, 1e-6, log); err == nil {
		t.Error("missing workbook should be an error")
	}
}

func TestSetLogging(t *testing.T) {
	if err := setLogging("debug"); err != nil {
		t.Fatal(err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("have level %s, want debug", logrus.GetLevel())
	}
	if err := setLogging("loud"); err == nil {
		t.Error("invalid level should be an error")
	}
	setLogging("info")
}

func TestCacheSize(t *testing.T) {
	Cfg.Set("catalog.cache_size", "64")
	defer Cfg.Set("catalog.cache_size", 128)
	n, err := cacheSize()
	if err != nil {
		t.Fatal(err)
	}
	if n != 64 {
		t.Errorf("have %d, want 64", n)
	}
	Cfg.Set("catalog.cache_size", "many")
	if _, err := cacheSize(); err == nil {
		t.Error("should be an error")
	}
}
