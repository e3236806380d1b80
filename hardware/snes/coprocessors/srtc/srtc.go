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

// Package srtc emulates the S-RTC, the Sharp real-time clock chip found on
// Daikaijuu Monogatari II. The chip holds a full calendar and speaks
// through a pair of 4-bit ports: reads walk the timestamp a digit at a
// time, writes run a small command protocol to set it.
package srtc

import (
	"encoding/binary"

	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/savestate"
)

// the read port walks: acknowledge, thirteen digits, end
type readState int

const (
	readAck readState = iota
	readDigit
	readEnd
)

// the write protocol: $e starts a command, $0 begins a timestamp load,
// $d returns to the start
type writeState int

const (
	writeStart writeState = iota
	writeCommand
	writeDigit
	writeEnd
)

// SRTC is the clock chip.
type SRTC struct {
	clock hardware.ClockSource

	lastUpdateNanos int64
	nanos           uint32

	seconds   uint8
	minutes   uint8
	hours     uint8
	day       uint8
	month     uint8
	year      uint8
	century   uint8
	dayOfWeek uint8

	readState  readState
	readIdx    uint8
	writeState writeState
	writeIdx   uint8
}

// New creates an S-RTC set to 1900-01-01.
func New(clock hardware.ClockSource) *SRTC {
	s := &SRTC{
		clock:           clock,
		lastUpdateNanos: clock.NowNanos(),
		day:             1,
		month:           1,
		century:         9,
	}
	s.updateDayOfWeek()
	return s
}

// Read services a read of the 4-bit data port.
func (s *SRTC) Read() uint8 {
	s.writeState = writeStart
	s.updateTime()

	switch s.readState {
	case readAck:
		s.readState = readDigit
		s.readIdx = 0
		return 0x0f

	case readDigit:
		var value uint8
		switch s.readIdx {
		case 0:
			value = s.seconds % 10
		case 1:
			value = s.seconds / 10
		case 2:
			value = s.minutes % 10
		case 3:
			value = s.minutes / 10
		case 4:
			value = s.hours % 10
		case 5:
			value = s.hours / 10
		case 6:
			value = s.day % 10
		case 7:
			value = s.day / 10
		case 8:
			value = s.month
		case 9:
			value = s.year % 10
		case 10:
			value = s.year / 10
		case 11:
			value = s.century
		case 12:
			value = s.dayOfWeek
		}

		if s.readIdx == 12 {
			s.readState = readEnd
		} else {
			s.readIdx++
		}
		return value
	}

	s.readState = readAck
	return 0x0f
}

// Write services a write of the 4-bit data port.
func (s *SRTC) Write(value uint8) {
	s.readState = readAck
	s.updateTime()

	value &= 0x0f

	switch s.writeState {
	case writeStart:
		if value == 0x0e {
			s.writeState = writeCommand
		}

	case writeCommand:
		switch value {
		case 0x04:
			// unknown command, possibly 24-hour mode select
			s.writeState = writeEnd
		case 0x00:
			s.writeState = writeDigit
			s.writeIdx = 0
		}

	case writeDigit:
		s.writeTimestampDigit(s.writeIdx, value)
		if s.writeIdx == 11 {
			s.writeState = writeEnd
		} else {
			s.writeIdx++
		}

	case writeEnd:
		if value == 0x0d {
			s.writeState = writeStart
		}
	}
}

// ResetState clears the port protocol, leaving the time running.
func (s *SRTC) ResetState() {
	s.readState = readAck
	s.writeState = writeStart
}

func (s *SRTC) writeTimestampDigit(idx uint8, value uint8) {
	switch idx {
	case 0:
		s.seconds = s.seconds/10*10 + value
	case 1:
		s.seconds = 10*value + s.seconds%10
	case 2:
		s.minutes = s.minutes/10*10 + value
	case 3:
		s.minutes = 10*value + s.minutes%10
	case 4:
		s.hours = s.hours/10*10 + value
	case 5:
		s.hours = 10*value + s.hours%10
	case 6:
		s.day = s.day/10*10 + value
		s.updateDayOfWeek()
	case 7:
		s.day = 10*value + s.day%10
		s.updateDayOfWeek()
	case 8:
		s.month = value
		s.updateDayOfWeek()
	case 9:
		s.year = s.year/10*10 + value
		s.updateDayOfWeek()
	case 10:
		s.year = 10*value + s.year%10
		s.updateDayOfWeek()
	case 11:
		s.century = value
		s.updateDayOfWeek()
	}
}

func (s *SRTC) fourDigitYear() int {
	return 1000 + 100*int(s.century) + int(s.year)
}

func (s *SRTC) updateDayOfWeek() {
	s.dayOfWeek = dayOfWeek(int(s.day), int(s.month), s.fourDigitYear())
}

func (s *SRTC) updateTime() {
	now := s.clock.NowNanos()
	elapsed := now - s.lastUpdateNanos
	if elapsed < 0 {
		elapsed = 0
	}
	s.lastUpdateNanos = now

	total := uint64(s.nanos) + uint64(elapsed)
	s.nanos = uint32(total % 1_000_000_000)

	for i := uint64(0); i < total/1_000_000_000; i++ {
		s.incrementSeconds()
	}
}

func (s *SRTC) incrementSeconds() {
	s.seconds++
	if s.seconds < 60 {
		return
	}
	s.seconds = 0

	s.minutes++
	if s.minutes < 60 {
		return
	}
	s.minutes = 0

	s.hours++
	if s.hours < 24 {
		return
	}
	s.hours = 0

	s.day++
	s.dayOfWeek = (s.dayOfWeek + 1) % 7
	if s.day <= daysInMonth(int(s.month), s.fourDigitYear()) {
		return
	}
	s.day = 1

	s.month++
	if s.month <= 12 {
		return
	}
	s.month = 1

	s.year++
	if s.year > 99 {
		s.year = 0
		s.century++
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(month int, year int) uint8 {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	}
	return 31
}

// dayOfWeek computes the weekday (0 = Sunday) with Zeller's congruence.
func dayOfWeek(day int, month int, year int) uint8 {
	if month < 3 {
		month += 12
		year--
	}
	k := year % 100
	j := year / 100
	h := (day + 13*(month+1)/5 + k + k/4 + j/4 + 5*j) % 7

	// Zeller's h has 0 = Saturday; rotate to 0 = Sunday
	return uint8((h + 6) % 7)
}

// the serialised layout is fixed and little-endian
const blobLen = 8 + 4 + 8

// Save serialises the clock for the save file.
func (s *SRTC) Save() []byte {
	blob := make([]byte, 0, blobLen)
	blob = binary.LittleEndian.AppendUint64(blob, uint64(s.lastUpdateNanos))
	blob = binary.LittleEndian.AppendUint32(blob, s.nanos)
	blob = append(blob, s.seconds, s.minutes, s.hours, s.day, s.month, s.year, s.century, s.dayOfWeek)
	return blob
}

// Restore loads a previously serialised clock. Blobs of the wrong length
// are ignored.
func (s *SRTC) Restore(blob []byte) {
	if len(blob) != blobLen {
		return
	}
	s.lastUpdateNanos = int64(binary.LittleEndian.Uint64(blob[0:]))
	s.nanos = binary.LittleEndian.Uint32(blob[8:])
	s.seconds = blob[12]
	s.minutes = blob[13]
	s.hours = blob[14]
	s.day = blob[15]
	s.month = blob[16]
	s.year = blob[17]
	s.century = blob[18]
	s.dayOfWeek = blob[19]
}

// Snapshot encodes the clock for a save state.
func (s *SRTC) Snapshot(enc *savestate.Encoder) {
	enc.PutInt64(s.lastUpdateNanos)
	enc.PutUint32(s.nanos)
	enc.PutUint8(s.seconds)
	enc.PutUint8(s.minutes)
	enc.PutUint8(s.hours)
	enc.PutUint8(s.day)
	enc.PutUint8(s.month)
	enc.PutUint8(s.year)
	enc.PutUint8(s.century)
	enc.PutUint8(s.dayOfWeek)
	enc.PutUint8(uint8(s.readState))
	enc.PutUint8(s.readIdx)
	enc.PutUint8(uint8(s.writeState))
	enc.PutUint8(s.writeIdx)
}

// RestoreState decodes the clock from a save state.
func (s *SRTC) RestoreState(dec *savestate.Decoder) {
	s.lastUpdateNanos = dec.Int64()
	s.nanos = dec.Uint32()
	s.seconds = dec.Uint8()
	s.minutes = dec.Uint8()
	s.hours = dec.Uint8()
	s.day = dec.Uint8()
	s.month = dec.Uint8()
	s.year = dec.Uint8()
	s.century = dec.Uint8()
	s.dayOfWeek = dec.Uint8()
	s.readState = readState(dec.Uint8())
	s.readIdx = dec.Uint8()
	s.writeState = writeState(dec.Uint8())
	s.writeIdx = dec.Uint8()
}
