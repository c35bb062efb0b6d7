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

package aquanova

import (
	"fmt"

	"github.com/aquanova/aquanova/science/chem/waterchem"
	"github.com/sirupsen/logrus"
)

// SchemaVersion is the version of the Result layout.
const SchemaVersion = 2

// Simulation holds the collaborators of a treatment-train run. A
// Simulation may be shared by concurrent runs as long as its fields are
// not modified.
type Simulation struct {
	// Modules is the dispatch table. It must contain an RO module,
	// which unknown module types fall back to.
	Modules Modules

	// Chem holds the water-chemistry calibration. If nil,
	// waterchem.DefaultCalibration is used.
	Chem *waterchem.Calibration

	// Catalog resolves StageConfig.MembraneID. It may be nil.
	Catalog Catalog

	// Log receives progress messages. If nil, the logrus standard
	// logger is used.
	Log logrus.FieldLogger
}

func (s *Simulation) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

func (s *Simulation) chem() *waterchem.Calibration {
	if s.Chem == nil {
		return waterchem.DefaultCalibration()
	}
	return s.Chem
}

// Run simulates the treatment train described by req. The request is not
// modified.
func (s *Simulation) Run(req *Request) (*Result, error) {
	feed := req.Feed.Clone()
	if err := feed.validate(); err != nil {
		return nil, err
	}
	if len(req.Stages) == 0 {
		return nil, ErrNoStages
	}
	if _, ok := s.Modules[RO]; !ok {
		return nil, fmt.Errorf("aquanova: dispatch table has no %s module", RO)
	}

	feed = s.balanceFeed(feed)

	r := &runState{feed: feed}
	current := feed
	for i, cfg := range req.Stages {
		m, next, err := s.step(i, cfg, current, req.Chemistry)
		if err != nil {
			return nil, err
		}
		r.metrics = append(r.metrics, m)
		current = next
	}
	return s.aggregate(req, r), nil
}

// runState accumulates the results of the stage fold.
type runState struct {
	feed    FeedStream // ion-balanced system feed
	metrics []*StageMetric
}

// balanceFeed applies the ion-balance correction to a feed with a known
// ion composition.
func (s *Simulation) balanceFeed(feed FeedStream) FeedStream {
	if len(feed.Ions) == 0 {
		return feed
	}
	balanced, report := s.chem().Balance(feed.Profile())
	if report.Added == "" {
		return feed
	}
	feed.TDS = balanced.TDS
	feed.Ions = balanced.Ions
	if report.ErrorPercent > 1e-4 {
		s.log().WithFields(logrus.Fields{
			"initial_error_pct": report.ErrorPercent,
			"added_ion":         report.Added,
			"added_mgL":         report.AddedMass,
			"tds_mgL":           feed.TDS,
		}).Info("feed ion balance adjusted")
	}
	return feed
}

// step runs stage i on feed and returns its metric along with the feed
// of the following stage.
func (s *Simulation) step(i int, cfg StageConfig, feed FeedStream, chem *ChemistryInput) (*StageMetric, FeedStream, error) {
	log := s.log().WithFields(logrus.Fields{"stage": i + 1, "module_type": cfg.Module})

	requested := cfg.Module
	mod, ok := s.Modules[cfg.Module]
	fallback := !ok
	if fallback {
		log.Warnf("unknown module type %q, using %s", cfg.Module, RO)
		mod = s.Modules[RO]
		cfg.Module = RO
	}
	if cfg.Chemistry == nil {
		cfg.Chemistry = chem
	}
	d := make(Defaults)
	cfg = resolve(cfg, s.Catalog, d)

	log.WithFields(logrus.Fields{"Qf": feed.Flow, "Cf": feed.TDS}).Debug("computing stage")
	m, err := mod.Compute(&cfg, feed.Clone())
	if err != nil {
		return nil, FeedStream{}, fmt.Errorf("aquanova: stage %d: %w", i+1, err)
	}
	m.Stage = i + 1
	m.Name = cfg.Name
	m.Module = mod.Type()
	m.Defaulted = mergeDefaulted(m.Defaulted, d)

	if fallback {
		m.Warnings = append(m.Warnings, Warning{
			Key:     "module_type_fallback",
			Message: fmt.Sprintf("unknown module type %q simulated as %s", requested, RO),
			Level:   "WARN",
		})
	}
	if !m.Converged && !hasWarning(m, "not_converged") {
		m.Warn("not_converged", fmt.Sprintf("solver did not converge after %d iterations", m.Iterations))
	}
	if !m.Converged {
		log.WithField("iterations", m.Iterations).Warn("stage did not converge")
	}

	var next FeedStream
	if m.Module.ExportsPermeate() {
		next = feed.Derive(m.Qp, m.Cp, feed.Pressure)
	} else {
		next = feed.Derive(m.Qc, m.Cc, feed.Pressure)
	}
	return m, next, nil
}

func mergeDefaulted(have []string, d Defaults) []string {
	for _, k := range have {
		d[k] = true
	}
	return d.List()
}

func hasWarning(m *StageMetric, key string) bool {
	for _, w := range m.Warnings {
		if w.Key == key {
			return true
		}
	}
	return false
}
