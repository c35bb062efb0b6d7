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
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aquanova/aquanova"
	"github.com/aquanova/aquanova/science/filtration/dutycycle"
	"github.com/aquanova/aquanova/science/hrro"
	"github.com/aquanova/aquanova/science/transport/soldiff"
	"github.com/aquanova/aquanova/units"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
)

// DefaultModules returns the module solvers that are used in typical
// simulations.
func DefaultModules() aquanova.Modules {
	return aquanova.Modules{
		aquanova.RO:   soldiff.RO{},
		aquanova.NF:   soldiff.NF{},
		aquanova.UF:   dutycycle.UF{},
		aquanova.MF:   dutycycle.MF{},
		aquanova.HRRO: hrro.Module{},
	}
}

// unitSystem reads the display units from cfg.
func unitSystem(cfg *viper.Viper) units.System {
	return units.System{
		Flow:        cfg.GetString("units.flow"),
		Pressure:    cfg.GetString("units.pressure"),
		Temperature: cfg.GetString("units.temperature"),
		Flux:        cfg.GetString("units.flux"),
	}
}

// withOptions overrides the units of sys with those set in the request
// options.
func withOptions(sys units.System, o *aquanova.Options) units.System {
	if o == nil {
		return sys
	}
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&sys.Flow, o.Units.Flow},
		{&sys.Pressure, o.Units.Pressure},
		{&sys.Temperature, o.Units.Temperature},
		{&sys.Flux, o.Units.Flux},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return sys
}

// LoadScenario reads a simulation request from a TOML or, if the file
// name ends in .json, a JSON file.
func LoadScenario(path string) (*aquanova.Request, error) {
	if path == "" {
		return nil, fmt.Errorf("aquanova: you need to specify a scenario file (for example: --scenario=scenario.toml)")
	}
	path = os.ExpandEnv(path)
	req := new(aquanova.Request)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		b, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("aquanova: opening scenario: %v", err)
		}
		if err := json.Unmarshal(b, req); err != nil {
			return nil, fmt.Errorf("aquanova: reading scenario %s: %v", path, err)
		}
		var keys struct {
			Feed map[string]json.RawMessage `json:"feed"`
		}
		if err := json.Unmarshal(b, &keys); err != nil {
			return nil, fmt.Errorf("aquanova: reading scenario %s: %v", path, err)
		}
		if _, ok := keys.Feed["temperature_C"]; !ok {
			return nil, missingTemperature(path)
		}
		return req, nil
	}
	md, err := toml.DecodeFile(path, req)
	if err != nil {
		return nil, fmt.Errorf("aquanova: reading scenario %s: %v", path, err)
	}
	if !md.IsDefined("feed", "temperature_C") {
		return nil, missingTemperature(path)
	}
	return req, nil
}

// missingTemperature is returned for a scenario without a feed
// temperature, which would otherwise decode as 0 °C.
func missingTemperature(path string) error {
	return fmt.Errorf("%w: scenario %s: feed temperature_C is required", aquanova.ErrInvalidFeed, path)
}

// checkOutputFile expands any environment variables in the output file
// path and makes sure its directory exists. An empty path is allowed
// and means standard output.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return f, nil
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("aquanova: the output_file directory doesn't exist: %v", err)
	}
	return f, nil
}

// Run simulates the scenario in the file at scenarioPath and writes the
// result to outputFile, or to w if outputFile is empty.
//
// sys gives the units the scenario is written in and the result is
// reported in. Units set in the scenario options take precedence.
//
// engine is the HRRO engine used for HRRO stages that do not set one.
//
// cat resolves the membrane models named in the scenario. It may be nil.
func Run(w io.Writer, scenarioPath, outputFile string, sys units.System, engine string, cat aquanova.Catalog, log logrus.FieldLogger) error {
	outputFile, err := checkOutputFile(outputFile)
	if err != nil {
		return err
	}
	req, err := LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	sys = withOptions(sys, req.Options)
	if err := sys.Validate(); err != nil {
		return err
	}
	for i := range req.Stages {
		s := &req.Stages[i]
		if s.Module == aquanova.HRRO && s.HRRO.Engine == "" {
			s.HRRO.Engine = engine
		}
	}
	req, err = sys.Request(req)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"scenario": req.Name,
		"stages":   len(req.Stages),
		"feed_m3h": req.Feed.Flow,
	}).Info("starting simulation")

	s := &aquanova.Simulation{
		Modules: DefaultModules(),
		Catalog: cat,
		Log:     log,
	}
	res, err := s.Run(req)
	if err != nil {
		return err
	}
	if err := sys.Result(res); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"recovery_pct": res.KPI.Recovery,
		"sec_kwhm3":    res.KPI.SEC,
		"warnings":     len(res.Warnings),
	}).Info("simulation finished")

	switch {
	case outputFile == "":
		return WriteJSON(w, res)
	case strings.EqualFold(filepath.Ext(outputFile), ".xlsx"):
		return WriteXLSX(outputFile, res)
	default:
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("aquanova: creating output file: %v", err)
		}
		if err := WriteJSON(f, res); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}
