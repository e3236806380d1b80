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

// ring holds the most recent N input samples, newest first, guaranteeing
// that the window is contiguous in memory. this matters for the filter dot
// product when N is large; a modulo ring would split the window in two.
//
// the buffer is 32×N long. pushes walk the index backwards; when it reaches
// zero the newest N-1 samples are copied to the end of the buffer and the
// walk restarts from there.
type ring struct {
	buffer []float64
	idx    int
	length int
	n      int
}

func newRing(n int) ring {
	capacity := 32 * n
	return ring{
		buffer: make([]float64, capacity),
		idx:    capacity,
		n:      n,
	}
}

func (r *ring) push(sample float64) {
	if r.length < r.n {
		r.idx--
		r.buffer[r.idx] = sample
		r.length++
		return
	}

	if r.idx == 0 {
		for i := 1; i < r.n; i++ {
			r.buffer[len(r.buffer)-r.n+i] = r.buffer[i-1]
		}
		r.idx = len(r.buffer) - r.n
		r.buffer[r.idx] = sample
		return
	}

	r.idx--
	r.buffer[r.idx] = sample
}

// window returns the newest-first view of the buffered samples. the slice
// is only full length once N samples have been pushed.
func (r *ring) window() []float64 {
	return r.buffer[r.idx : r.idx+r.length]
}
