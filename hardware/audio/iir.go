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

// FirstOrderIIR is a direct-form-I first-order IIR filter.
type FirstOrderIIR struct {
	b [2]float64
	a [2]float64

	prevInput  float64
	prevOutput float64
}

// NewFirstOrderIIR creates a filter from feedforward (b) and feedback (a)
// coefficients. a[0] is expected to be 1.
func NewFirstOrderIIR(b [2]float64, a [2]float64) *FirstOrderIIR {
	return &FirstOrderIIR{b: b, a: a}
}

// Filter the next sample.
func (f *FirstOrderIIR) Filter(sample float64) float64 {
	output := f.b[0]*sample + f.b[1]*f.prevInput - f.a[1]*f.prevOutput
	f.prevInput = sample
	f.prevOutput = output
	return output
}

// SecondOrderIIR is a direct-form-I second-order (biquad) IIR filter.
type SecondOrderIIR struct {
	b [3]float64
	a [3]float64

	prevInputs  [2]float64
	prevOutputs [2]float64
}

// NewSecondOrderIIR creates a filter from feedforward (b) and feedback (a)
// coefficients. a[0] is expected to be 1.
func NewSecondOrderIIR(b [3]float64, a [3]float64) *SecondOrderIIR {
	return &SecondOrderIIR{b: b, a: a}
}

// Filter the next sample.
func (f *SecondOrderIIR) Filter(sample float64) float64 {
	output := f.b[0]*sample + f.b[1]*f.prevInputs[0] + f.b[2]*f.prevInputs[1] -
		f.a[1]*f.prevOutputs[0] - f.a[2]*f.prevOutputs[1]

	f.prevInputs[1] = f.prevInputs[0]
	f.prevInputs[0] = sample
	f.prevOutputs[1] = f.prevOutputs[0]
	f.prevOutputs[0] = output

	return output
}

// NewGenesisModel1LowPass returns the low-pass filter found on the Model 1
// VA2 Genesis board. First-order Butterworth, 3390Hz cutoff, designed
// against the given source frequency of the YM2612/PSG sample stream.
//
// Coefficients are precomputed for two source rates: the 44100Hz design is
// used for any source rate of 40000Hz or more, the 32552Hz design for
// everything lower.
func NewGenesisModel1LowPass(sourceRate float64) *FirstOrderIIR {
	// first-order Butterworth targeting 3390Hz at 32552Hz / 44100Hz source
	if sourceRate >= 40000 {
		return NewFirstOrderIIR(
			[2]float64{0.1976272152714313, 0.1976272152714313},
			[2]float64{1.0, -0.6047455694571374},
		)
	}
	return NewFirstOrderIIR(
		[2]float64{0.2533767724796169, 0.2533767724796169},
		[2]float64{1.0, -0.49324645504076625},
	)
}

// NewPCM8kHzLowPass returns the low-pass applied to the Sega CD PCM chip
// output. Second-order Butterworth, 7973Hz cutoff, 32552Hz source.
func NewPCM8kHzLowPass() *SecondOrderIIR {
	return NewSecondOrderIIR(
		[3]float64{0.28362508499709993, 0.5672501699941999, 0.28362508499709993},
		[3]float64{1.0, -0.03731874083716955, 0.17181908082556915},
	)
}
