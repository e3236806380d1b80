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

package audio_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/hardware/audio"
	"github.com/jetsetilly/gophergen/test"
)

const taps = 64

func TestConstantInputConvergence(t *testing.T) {
	// a constant 1.0 input at a 1MHz source rate must read back as 1.0 at
	// 48kHz output, with no overshoot past the clipping boundary
	r := audio.NewResampler(taps, 1_000_000.0, 48_000)

	var sum float64
	var count int
	for i := 0; count < taps; i++ {
		r.Collect(1.0, 1.0)
		for {
			l, right, ok := r.Next()
			if !ok {
				break
			}
			if l > 1.0 || right > 1.0 {
				t.Fatalf("output escaped clipping: %v %v", l, right)
			}
			sum += l
			count++
		}
	}

	avg := sum / float64(count)
	if avg < 1.0-1e-3 || avg > 1.0+1e-3 {
		t.Errorf("running average %v not within 1e-3 of 1.0", avg)
	}
}

func TestConvergenceIndependentOfRates(t *testing.T) {
	// the convergence property must hold regardless of the rate pair
	for _, rates := range [][2]float64{
		{32552.0, 48000},
		{44100.0, 48000},
		{262144.0, 22050},
		{48000.0, 48000},
	} {
		r := audio.NewResampler(taps, rates[0], uint64(rates[1]))

		// run in four times the kernel length then check the latest output
		var last float64
		for i := 0; i < taps*4; i++ {
			r.Collect(0.25, 0.25)
			for {
				l, _, ok := r.Next()
				if !ok {
					break
				}
				last = l
			}
		}

		test.ExpectApproximate(t, last, 0.25, 1e-6)
	}
}

type recordingOutput struct {
	samples [][2]float64
	fail    bool
	err     error
}

func (o *recordingOutput) PushSample(l, r float64) error {
	if o.fail {
		return o.err
	}
	o.samples = append(o.samples, [2]float64{l, r})
	return nil
}

type failError struct{}

func (failError) Error() string { return "host refused sample" }

func TestMixerClipping(t *testing.T) {
	m := audio.NewMixer(48_000)

	// two sources at full amplitude must clip to 1.0 after mixing
	a := m.AddSource("a", taps, 96_000.0, 0)
	b := m.AddSource("b", taps, 96_000.0, 0)

	out := &recordingOutput{}
	for i := 0; i < taps*8; i++ {
		m.Collect(a, 0.8, 0.8)
		m.Collect(b, 0.8, 0.8)
		test.ExpectSuccess(t, m.Drain(out))
	}

	test.ExpectSuccess(t, len(out.samples) > 0)
	last := out.samples[len(out.samples)-1]
	test.ExpectEquality(t, last[0], 1.0)
	test.ExpectEquality(t, last[1], 1.0)
}

func TestMixerHostError(t *testing.T) {
	m := audio.NewMixer(48_000)
	a := m.AddSource("a", taps, 48_000.0, 0)

	out := &recordingOutput{fail: true, err: failError{}}
	var sawError bool
	for i := 0; i < 48_000/10; i++ {
		m.Collect(a, 0.5, 0.5)
		if err := m.Drain(out); err != nil {
			sawError = true
		}
	}
	test.ExpectSuccess(t, sawError)

	// after the host recovers, playback resumes with at most 20ms of
	// backlog
	out.fail = false
	test.ExpectSuccess(t, m.Drain(out))
	if len(out.samples) > 48_000*20/1000 {
		t.Errorf("backlog exceeded 20ms: %d samples", len(out.samples))
	}
}
