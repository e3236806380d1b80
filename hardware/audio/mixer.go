// This file is part of Gophergen.
//
// Gophergen is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gophergen is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gophergen.  If not, see <https://www.gnu.org/licenses/>.

package audio

import (
	"math"

	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
)

// how much mixed output is buffered when the host's AudioOutput reports
// errors. expressed in milliseconds of stereo output; once exceeded the
// oldest samples are dropped
const pendingLimitMs = 20

// SourceID identifies one audio generator registered with a Mixer.
type SourceID int

type source struct {
	name      string
	resampler *Resampler
	gain      float64
	enabled   bool

	// optional per-chip filters, applied before resampling
	firstOrderL  *FirstOrderIIR
	firstOrderR  *FirstOrderIIR
	secondOrderL *SecondOrderIIR
	secondOrderR *SecondOrderIIR
}

// Mixer owns one Resampler per audio generator and combines their outputs
// into the single stereo stream handed to the host. Samples are pushed to
// the host only when every source has produced at least one output-rate
// sample, keeping the sources phase-aligned.
type Mixer struct {
	sources    []*source
	outputRate uint64

	// mixed samples not yet accepted by the host
	pending [][2]float64
}

// NewMixer creates a Mixer with no sources.
func NewMixer(outputRate uint64) *Mixer {
	return &Mixer{outputRate: outputRate}
}

// AddSource registers an audio generator. The taps argument selects the
// resampler kernel length and gainDb the per-source gain.
func (m *Mixer) AddSource(name string, taps int, sourceRate float64, gainDb float64) SourceID {
	m.sources = append(m.sources, &source{
		name:      name,
		resampler: NewResampler(taps, sourceRate, m.outputRate),
		gain:      math.Pow(10, gainDb/20),
		enabled:   true,
	})
	return SourceID(len(m.sources) - 1)
}

// SetFirstOrderFilter attaches a chip-level first-order filter pair to the
// source. A nil constructor removes the filter.
func (m *Mixer) SetFirstOrderFilter(id SourceID, construct func() *FirstOrderIIR) {
	s := m.sources[id]
	if construct == nil {
		s.firstOrderL = nil
		s.firstOrderR = nil
		return
	}
	s.firstOrderL = construct()
	s.firstOrderR = construct()
}

// SetSecondOrderFilter attaches a chip-level second-order filter pair to
// the source. A nil constructor removes the filter.
func (m *Mixer) SetSecondOrderFilter(id SourceID, construct func() *SecondOrderIIR) {
	s := m.sources[id]
	if construct == nil {
		s.secondOrderL = nil
		s.secondOrderR = nil
		return
	}
	s.secondOrderL = construct()
	s.secondOrderR = construct()
}

// SetEnabled includes or excludes a source from the mix. A disabled source
// still consumes its input samples so that it stays in phase.
func (m *Mixer) SetEnabled(id SourceID, enabled bool) {
	m.sources[id].enabled = enabled
}

// Collect accepts the next native-rate sample pair from a source. Samples
// must arrive in strict temporal order per source.
func (m *Mixer) Collect(id SourceID, l float64, r float64) {
	s := m.sources[id]

	if s.firstOrderL != nil {
		l = s.firstOrderL.Filter(l)
		r = s.firstOrderR.Filter(r)
	}
	if s.secondOrderL != nil {
		l = s.secondOrderL.Filter(l)
		r = s.secondOrderR.Filter(r)
	}

	s.resampler.Collect(l, r)
}

// SetOutputRate rebuilds every source's kernel for the new output rate. The
// change is atomic with respect to Drain(): in-flight samples stay
// buffered.
func (m *Mixer) SetOutputRate(outputRate uint64) {
	m.outputRate = outputRate
	for _, s := range m.sources {
		s.resampler.SetOutputRate(outputRate)
	}
}

func (m *Mixer) pendingLimit() int {
	return int(m.outputRate) * pendingLimitMs / 1000
}

// Drain mixes whatever output samples are ready and pushes them to the
// host. On a host error the mixed samples are retained (up to the buffering
// limit, beyond which the oldest are dropped) and the error is returned
// under the hardware.Audio pattern.
func (m *Mixer) Drain(out hardware.AudioOutput) error {
	// mix: one output sample per source, for as long as every source has one
	for {
		ready := len(m.sources) > 0
		for _, s := range m.sources {
			if s.resampler.Pending() == 0 {
				ready = false
				break
			}
		}
		if !ready {
			break
		}

		var mixL, mixR float64
		for _, s := range m.sources {
			l, r, _ := s.resampler.Next()
			if s.enabled {
				mixL += l * s.gain
				mixR += r * s.gain
			}
		}

		mixL = math.Max(-1.0, math.Min(1.0, mixL))
		mixR = math.Max(-1.0, math.Min(1.0, mixR))
		m.pending = append(m.pending, [2]float64{mixL, mixR})
	}

	// push to host
	for len(m.pending) > 0 {
		s := m.pending[0]
		if err := out.PushSample(s[0], s[1]); err != nil {
			if over := len(m.pending) - m.pendingLimit(); over > 0 {
				m.pending = m.pending[over:]
			}
			return curated.Errorf(hardware.Audio, err)
		}
		m.pending = m.pending[1:]
	}

	return nil
}
