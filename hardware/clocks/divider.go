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

package clocks

// Ratio expresses a secondary clock frequency as an exact fraction of the
// master clock: secondary = master × Num ÷ Den. Both terms are 64 bits so
// that rates with no small integer divider (the 60Hz-adjusted APU clocks for
// example) can still be held exactly.
type Ratio struct {
	Num uint64
	Den uint64
}

// Integer creates a Ratio for the common case of a plain integer divider.
func Integer(div uint64) Ratio {
	return Ratio{Num: 1, Den: div}
}

// Multiplier creates a Ratio for a secondary clock faster than the master
// clock.
func Multiplier(mul uint64) Ratio {
	return Ratio{Num: mul, Den: 1}
}

// Divider converts master-clock cycle counts into a secondary clock domain
// without drift. The fractional remainder is carried between calls so that,
// at all times, the total number of secondary cycles produced equals
// floor(totalMasterCycles × Num ÷ Den).
type Divider struct {
	Ratio Ratio

	// scaled units short of the next secondary cycle
	Remainder uint64
}

// NewDivider creates a Divider with a zero remainder.
func NewDivider(ratio Ratio) Divider {
	return Divider{Ratio: ratio}
}

// Steps returns the number of secondary cycles elapsed after the master
// clock advances by masterCycles.
func (d *Divider) Steps(masterCycles uint64) uint64 {
	d.Remainder += masterCycles * d.Ratio.Num
	steps := d.Remainder / d.Ratio.Den
	d.Remainder %= d.Ratio.Den
	return steps
}

// Reset the fractional remainder. Called on hard reset; soft reset leaves
// clock phase alone, as the hardware does.
func (d *Divider) Reset() {
	d.Remainder = 0
}
