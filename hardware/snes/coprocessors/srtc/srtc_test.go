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

package srtc_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/hardware/snes/coprocessors/srtc"
	"github.com/jetsetilly/gophergen/test"
)

type fakeClock struct {
	nanos int64
}

func (c *fakeClock) NowNanos() int64 {
	return c.nanos
}

// readTimestamp walks the read protocol: acknowledge, thirteen digits, end
func readTimestamp(t *testing.T, s *srtc.SRTC) [13]uint8 {
	t.Helper()

	test.ExpectEquality(t, s.Read(), uint8(0x0f))

	var digits [13]uint8
	for i := range digits {
		digits[i] = s.Read()
	}

	test.ExpectEquality(t, s.Read(), uint8(0x0f))
	return digits
}

// writeTimestamp runs the set-time command: $e, $0, twelve digits
func writeTimestamp(s *srtc.SRTC, digits [12]uint8) {
	s.Write(0x0e)
	s.Write(0x00)
	for _, d := range digits {
		s.Write(d)
	}
	s.Write(0x0d)
}

func TestReadProtocol(t *testing.T) {
	clock := &fakeClock{}
	s := srtc.New(clock)

	digits := readTimestamp(t, s)

	// power-on time: 1900-01-01 00:00:00, a Monday
	test.ExpectEquality(t, digits[0], uint8(0)) // seconds ones
	test.ExpectEquality(t, digits[6], uint8(1)) // day ones
	test.ExpectEquality(t, digits[8], uint8(1)) // month
	test.ExpectEquality(t, digits[11], uint8(9)) // century
	test.ExpectEquality(t, digits[12], uint8(1)) // day of week
}

func TestClockAdvance(t *testing.T) {
	clock := &fakeClock{}
	s := srtc.New(clock)

	// advance 1 day, 1 hour, 1 minute, 1 second
	clock.nanos += (86400 + 3600 + 60 + 1) * 1_000_000_000

	digits := readTimestamp(t, s)
	test.ExpectEquality(t, digits[0], uint8(1)) // seconds
	test.ExpectEquality(t, digits[2], uint8(1)) // minutes
	test.ExpectEquality(t, digits[4], uint8(1)) // hours
	test.ExpectEquality(t, digits[6], uint8(2)) // day
}

func TestWriteProtocol(t *testing.T) {
	clock := &fakeClock{}
	s := srtc.New(clock)

	// set 1996-02-28 23:59:59: the leap-year boundary
	writeTimestamp(s, [12]uint8{9, 5, 9, 5, 3, 2, 8, 2, 2, 6, 9, 9})

	// one second later it is February 29th
	clock.nanos += 1_000_000_000
	digits := readTimestamp(t, s)
	test.ExpectEquality(t, digits[0], uint8(0))
	test.ExpectEquality(t, digits[4], uint8(0))
	test.ExpectEquality(t, digits[6], uint8(9))
	test.ExpectEquality(t, digits[7], uint8(2))
	test.ExpectEquality(t, digits[8], uint8(2))
}

func TestSaveRestore(t *testing.T) {
	clock := &fakeClock{}
	s := srtc.New(clock)

	clock.nanos += 3600 * 1_000_000_000
	readTimestamp(t, s)

	blob := s.Save()

	s2 := srtc.New(clock)
	s2.Restore(blob)

	a := readTimestamp(t, s)
	b := readTimestamp(t, s2)
	test.ExpectEquality(t, a, b)
}
