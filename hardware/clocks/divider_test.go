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

package clocks_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/hardware/clocks"
	"github.com/jetsetilly/gophergen/test"
)

func TestIntegerDivider(t *testing.T) {
	d := clocks.NewDivider(clocks.Integer(15))

	var secondary uint64
	for i := 0; i < 1000; i++ {
		secondary += d.Steps(7)
	}

	// 7000 master cycles / 15
	test.ExpectEquality(t, secondary, uint64(466))
	test.ExpectEquality(t, d.Remainder, uint64(7000%15))
}

func TestNoDrift(t *testing.T) {
	// an awkward rational ratio: the 24576000Hz clock of the spec example
	// against a 21477272Hz master. feed a large number of master cycles in
	// uneven chunks and check the total against the closed form
	r := clocks.Ratio{Num: 24_576_000, Den: 21_477_272}
	d := clocks.NewDivider(r)

	var secondary uint64
	var master uint64
	chunks := []uint64{3, 17, 151, 7, 1, 1023, 64}
	for i := 0; i < 10000; i++ {
		c := chunks[i%len(chunks)]
		master += c
		secondary += d.Steps(c)
	}

	test.ExpectEquality(t, secondary, master*r.Num/r.Den)
}

func TestMultiplier(t *testing.T) {
	d := clocks.NewDivider(clocks.Multiplier(3))
	test.ExpectEquality(t, d.Steps(10), uint64(30))
}
