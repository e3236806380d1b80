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
	"testing"

	"github.com/jetsetilly/gophergen/test"
)

func TestRingBasic(t *testing.T) {
	r := newRing(3)
	test.ExpectEquality(t, r.idx, len(r.buffer))
	test.ExpectEquality(t, r.length, 0)

	r.push(3.0)
	test.ExpectEquality(t, r.idx, len(r.buffer)-1)
	test.ExpectEquality(t, r.buffer[r.idx], 3.0)

	r.push(5.0)
	r.push(7.0)
	test.ExpectEquality(t, r.length, 3)
	w := r.window()
	test.ExpectEquality(t, w[0], 7.0)
	test.ExpectEquality(t, w[1], 5.0)
	test.ExpectEquality(t, w[2], 3.0)

	// ring is now full; the next push moves the starting point but not the
	// length
	r.push(9.0)
	test.ExpectEquality(t, r.length, 3)
	w = r.window()
	test.ExpectEquality(t, w[0], 9.0)
	test.ExpectEquality(t, w[1], 7.0)
	test.ExpectEquality(t, w[2], 5.0)
}

func TestRingWrap(t *testing.T) {
	const n = 4

	r := newRing(n)

	// push enough samples to force the copy-to-end wrap at least twice. the
	// window must always hold the last n samples newest first
	for i := 0; i < len(r.buffer)*3; i++ {
		r.push(float64(i))

		if r.length == n {
			w := r.window()
			for j := 0; j < n; j++ {
				test.ExpectEquality(t, w[j], float64(i-j))
			}
		}
	}
}
