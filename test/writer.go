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

package test

import (
	"strings"
)

// Writer is an implementation of the io.Writer interface. It is useful for
// testing functions that write to an io.Writer, the output of which can be
// compared to an expected string.
type Writer struct {
	buffer strings.Builder
}

// Write implements the io.Writer interface.
func (tw *Writer) Write(p []byte) (n int, err error) {
	return tw.buffer.Write(p)
}

// Compare buffered output with expected string.
func (tw *Writer) Compare(expected string) bool {
	return tw.buffer.String() == expected
}

// String returns the buffered output.
func (tw *Writer) String() string {
	return tw.buffer.String()
}

// Clear the buffer.
func (tw *Writer) Clear() {
	tw.buffer.Reset()
}
