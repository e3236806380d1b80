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
)

// the sample-count product is kept in units scaled by this factor so that
// fractional source rates (the 60Hz-adjusted APU clocks) survive the
// conversion to integer arithmetic without drift
const resampleScalingFactor = 1 << 16

// Resampler converts a stereo sample stream at an arbitrary source rate to
// the output rate, low-pass filtering with a windowed-sinc kernel as it
// goes. Output is deterministic given the input history: the decision of
// when to emit an output sample uses only integer arithmetic.
type Resampler struct {
	taps int

	samplesL ring
	samplesR ring

	// (l, r) pairs ready for collection
	output [][2]float64

	sampleCountProduct uint64
	outputRate         uint64
	scaledSourceRate   uint64
	sourceRate         float64

	coefficients []float64
}

// NewResampler creates a Resampler for the given source and output rates.
// The kernel length (taps) trades quality for arithmetic per sample; 64 is
// enough for the PSG-class sources, 128 or more suits wide-band FM.
func NewResampler(taps int, sourceRate float64, outputRate uint64) *Resampler {
	r := &Resampler{
		taps:     taps,
		samplesL: newRing(taps),
		samplesR: newRing(taps),
		output:   make([][2]float64, 0, outputRate/30),
	}
	r.sourceRate = sourceRate
	r.outputRate = outputRate
	r.scaledSourceRate = scaleRate(sourceRate)
	r.coefficients = sincKernel(taps, sourceRate, float64(outputRate))
	return r
}

func scaleRate(rate float64) uint64 {
	return uint64(math.Round(rate * resampleScalingFactor))
}

// Collect accepts the next source-rate sample pair. Zero or more output-rate
// samples become available as a result.
func (r *Resampler) Collect(l float64, right float64) {
	r.samplesL.push(l)
	r.samplesR.push(right)

	r.sampleCountProduct += r.outputRate * resampleScalingFactor
	for r.sampleCountProduct >= r.scaledSourceRate {
		r.sampleCountProduct -= r.scaledSourceRate

		r.output = append(r.output, [2]float64{
			outputSample(&r.samplesL, r.coefficients),
			outputSample(&r.samplesR, r.coefficients),
		})
	}
}

// Pending returns the number of output samples ready for collection.
func (r *Resampler) Pending() int {
	return len(r.output)
}

// Next returns the oldest pending output sample. The second return value is
// false if no samples are pending.
func (r *Resampler) Next() (l float64, right float64, ok bool) {
	if len(r.output) == 0 {
		return 0, 0, false
	}
	s := r.output[0]
	r.output = r.output[1:]
	return s[0], s[1], true
}

// SetOutputRate rebuilds the kernel for a new output rate. In-flight input
// samples stay in their rings; pending output samples stay queued.
func (r *Resampler) SetOutputRate(outputRate uint64) {
	r.outputRate = outputRate
	r.coefficients = sincKernel(r.taps, r.sourceRate, float64(outputRate))
}

// SetSourceRate rebuilds the kernel for a new source rate.
func (r *Resampler) SetSourceRate(sourceRate float64) {
	r.sourceRate = sourceRate
	r.scaledSourceRate = scaleRate(sourceRate)
	r.coefficients = sincKernel(r.taps, sourceRate, float64(r.outputRate))
}

func outputSample(samples *ring, coefficients []float64) float64 {
	sum := applyFIR(samples, coefficients)

	// clip to the legal sample range
	return math.Max(-1.0, math.Min(1.0, sum))
}

func applyFIR(samples *ring, coefficients []float64) float64 {
	w := samples.window()
	n := len(coefficients)

	var sum float64
	if len(w) >= n {
		for i, c := range coefficients {
			sum += c * w[i]
		}
		return sum
	}

	// start-up: fewer samples than taps. the newest sample meets coefficient
	// 0 and the partial sum is renormalised by the weight of the
	// coefficients actually used, so a constant input reads back as itself
	// even before the ring fills
	var weight float64
	for i := 0; i < len(w); i++ {
		sum += coefficients[i] * w[i]
		weight += coefficients[i]
	}
	if weight > 1e-12 || weight < -1e-12 {
		sum /= weight
	}
	return sum
}

// sincKernel builds a Blackman-windowed sinc low-pass. The cutoff tracks
// the narrower of the two Nyquist frequencies and the kernel is normalised
// to unity gain at DC, so a constant input converges to the same constant
// regardless of the rate pair.
func sincKernel(taps int, sourceRate float64, outputRate float64) []float64 {
	cutoff := 0.5 * math.Min(1.0, outputRate/sourceRate)
	centre := float64(taps-1) / 2

	kernel := make([]float64, taps)
	var sum float64
	for i := range kernel {
		x := float64(i) - centre

		// normalised sinc at the cutoff frequency
		var s float64
		if x == 0 {
			s = 2 * cutoff
		} else {
			s = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
		}

		// blackman window
		w := 0.42 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(taps-1)) +
			0.08*math.Cos(4*math.Pi*float64(i)/float64(taps-1))

		kernel[i] = s * w
		sum += kernel[i]
	}

	for i := range kernel {
		kernel[i] /= sum
	}

	return kernel
}
