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

import "github.com/aquanova/aquanova"

// Request returns a copy of req with its quantities converted from the
// display units of s to engine units.
func (s System) Request(req *aquanova.Request) (*aquanova.Request, error) {
	s = s.withDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	o := *req
	o.Feed = req.Feed.Clone()
	o.Stages = append([]aquanova.StageConfig(nil), req.Stages...)

	c := new(converter)
	flow := func(v *float64) { c.do(v, s.Flow, Engine.Flow) }
	press := func(v *float64) { c.do(v, s.Pressure, Engine.Pressure) }
	fl := func(v *float64) { c.do(v, s.Flux, Engine.Flux) }

	flow(&o.Feed.Flow)
	press(&o.Feed.Pressure)
	c.do(&o.Feed.Temperature, s.Temperature, Engine.Temperature)
	for i := range o.Stages {
		st := &o.Stages[i]
		flow(&st.FeedFlow)
		flow(&st.Cycle.ForwardFlushFlow)
		flow(&st.HRRO.CCRecycle)
		press(&st.Pressure)
		press(&st.DPModule)
		press(&st.PermeateBackPressure)
		press(&st.HRRO.PressureLimit)
		fl(&st.Flux)
		fl(&st.DesignFlux)
		fl(&st.Cycle.BackwashFlux)
	}
	if c.err != nil {
		return nil, c.err
	}
	return &o, nil
}

// Result converts the quantities of res from engine units to the
// display units of s in place and records the unit labels.
func (s System) Result(res *aquanova.Result) error {
	s = s.withDefaults()
	if err := s.Validate(); err != nil {
		return err
	}
	c := new(converter)
	flow := func(v *float64) { c.do(v, Engine.Flow, s.Flow) }
	press := func(v *float64) { c.do(v, Engine.Pressure, s.Pressure) }
	fl := func(v *float64) { c.do(v, Engine.Flux, s.Flux) }

	for i := range res.Streams {
		flow(&res.Streams[i].Flow)
		press(&res.Streams[i].Pressure)
	}
	k := &res.KPI
	fl(&k.Flux)
	press(&k.NDP)
	flow(&k.FeedFlow)
	flow(&k.PermeateFlow)
	flow(&k.MassBalance.FlowError)

	for _, m := range res.Stages {
		for _, v := range []*float64{&m.Qf, &m.Qp, &m.Qc, &m.GrossFlow, &m.NetFlow, &m.BackwashLoss} {
			flow(v)
		}
		for _, v := range []*float64{&m.NDP, &m.PIn, &m.POut, &m.DP, &m.TMP, &m.DeltaPi} {
			press(v)
		}
		fl(&m.Flux)
		fl(&m.DesignFlux)
		history(c, m.TimeHistory, s)
	}
	// The run-level series aliases the first stage series unless it was
	// copied; convert it only when it is a distinct slice.
	if len(res.TimeHistory) > 0 && !aliased(res) {
		history(c, res.TimeHistory, s)
	}
	if c.err != nil {
		return c.err
	}
	res.Units = s.Labels()
	return nil
}

func history(c *converter, h []aquanova.TimeSeriesPoint, s System) {
	for i := range h {
		p := &h[i]
		c.do(&p.Pressure, Engine.Pressure, s.Pressure)
		c.do(&p.NDP, Engine.Pressure, s.Pressure)
		c.do(&p.Flux, Engine.Flux, s.Flux)
		c.do(&p.PermeateFlow, Engine.Flow, s.Flow)
	}
}

func aliased(res *aquanova.Result) bool {
	for _, m := range res.Stages {
		if len(m.TimeHistory) > 0 && &m.TimeHistory[0] == &res.TimeHistory[0] {
			return true
		}
	}
	return false
}
