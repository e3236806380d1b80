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

package cartridge

import (
	"encoding/binary"

	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/logger"
	"github.com/jetsetilly/gophergen/savestate"
)

// the HuC-3 RAM window is mode-switched: a write to the low control window
// selects what $a000-$bfff exposes
type huc3Mapping int

const (
	// $0
	huc3RAMReadOnly huc3Mapping = iota
	// $a
	huc3RAMReadWrite
	// $b
	huc3RTCCommand
	// $c
	huc3RTCResponse
	// $d
	huc3RTCSemaphore
	// $e
	huc3IR
	// other values
	huc3OpenBus
)

func huc3MappingFromByte(v uint8) huc3Mapping {
	switch v & 0x0f {
	case 0x0:
		return huc3RAMReadOnly
	case 0xa:
		return huc3RAMReadWrite
	case 0xb:
		return huc3RTCCommand
	case 0xc:
		return huc3RTCResponse
	case 0xd:
		return huc3RTCSemaphore
	case 0xe:
		return huc3IR
	}
	return huc3OpenBus
}

// huc3 is the HuC-3 mapper: an 8-bit ROM bank register (bank zero allowed
// in the upper window), banked RAM, a real-time clock reached through the
// mode-switched RAM window, and an infra-red port stub.
type huc3 struct {
	romBank     uint8
	romAddrMask uint32
	ramBank     uint8
	ramAddrMask uint32
	mapping     huc3Mapping
	rtc         huc3RTC
}

func newHuC3(romLen uint32, ramLen uint32, clock hardware.ClockSource) *huc3 {
	return &huc3{
		romAddrMask: romLen - 1,
		ramAddrMask: ramLen - 1,
		rtc:         newHuC3RTC(clock),
	}
}

func (m *huc3) MapROMAddress(address uint16) (uint32, bool) {
	return basicMapROMAddress(address, uint32(m.romBank), true, m.romAddrMask), true
}

func (m *huc3) MapRAMAddress(address uint16) (uint32, bool) {
	switch m.mapping {
	case huc3RAMReadOnly, huc3RAMReadWrite:
		return basicMapRAMAddress(true, address, uint32(m.ramBank), m.ramAddrMask)
	}
	return 0, false
}

func (m *huc3) WriteControl(address uint16, data uint8) {
	switch {
	case address < 0x2000:
		m.mapping = huc3MappingFromByte(data)
	case address < 0x4000:
		m.romBank = data
	case address < 0x6000:
		m.ramBank = data
	default:
		// unknown functionality; ignored
	}
}

func (m *huc3) readRAM(address uint16, sram []uint8) uint8 {
	switch m.mapping {
	case huc3RAMReadOnly, huc3RAMReadWrite:
		if offset, ok := m.MapRAMAddress(address); ok {
			return sram[offset]
		}
		return 0xff

	case huc3RTCResponse:
		return 0x80 | m.rtc.command<<4 | m.rtc.response

	case huc3RTCSemaphore:
		if m.rtc.busyCyclesRemaining == 0 {
			return 0xff
		}
		return 0xfe

	case huc3IR:
		// $c1 means "saw light"; the stub never does
		return 0xc0
	}

	return 0xff
}

func (m *huc3) writeRAM(address uint16, data uint8, sram []uint8) bool {
	switch m.mapping {
	case huc3RAMReadWrite:
		if offset, ok := m.MapRAMAddress(address); ok {
			sram[offset] = data
			return true
		}

	case huc3RTCCommand:
		m.rtc.command = data >> 4 & 0x07
		m.rtc.argument = data & 0x0f

	case huc3RTCSemaphore:
		if data&0x01 == 0 {
			m.rtc.executeCommand()
		}
	}

	return false
}

func (m *huc3) Tick(cpuCycles uint64) {
	m.rtc.tick(cpuCycles)
}

func (m *huc3) Reset() {
	m.romBank = 0
	m.ramBank = 0
	m.mapping = huc3RAMReadOnly
	m.rtc.resetPorts()
}

func (m *huc3) updateTime() {
	m.rtc.updateTime()
}

func (m *huc3) rtcSave() []byte {
	return m.rtc.save()
}

func (m *huc3) rtcRestore(blob []byte) {
	m.rtc.restore(blob)
}

func (m *huc3) Snapshot(enc *savestate.Encoder) {
	enc.PutUint8(m.romBank)
	enc.PutUint8(m.ramBank)
	enc.PutUint8(uint8(m.mapping))
	m.rtc.snapshot(enc)
}

func (m *huc3) Restore(dec *savestate.Decoder) {
	m.romBank = dec.Uint8()
	m.ramBank = dec.Uint8()
	m.mapping = huc3Mapping(dec.Uint8())
	m.rtc.restoreState(dec)
}

const (
	nanosPerMinute = 60 * 1_000_000_000
	minutesPerDay  = 1440

	huc3RTCRAMLen = 256

	// commands take effect after a delay; games poll the semaphore for it
	rtcBusyCycles = 1000
)

// huc3RTC is the clock half of the HuC-3. Time is counted as nanoseconds
// within the current minute, minutes within the current day (modulo 1440)
// and a 16-bit day counter that wraps. The chip also carries 256 nibbles of
// scratch memory, addressed through the command port.
type huc3RTC struct {
	clock hardware.ClockSource

	memory        []uint8
	memoryAddress uint8

	lastUpdateNanos int64
	nanosOfMinute   uint64
	minutesOfDay    uint16
	day             uint16

	command  uint8
	argument uint8
	response uint8

	busyCyclesRemaining uint16
}

func newHuC3RTC(clock hardware.ClockSource) huc3RTC {
	// memory and time start zeroed. hardware powers on with undefined
	// values but zero keeps creation deterministic
	return huc3RTC{
		clock:           clock,
		memory:          make([]uint8, huc3RTCRAMLen),
		lastUpdateNanos: clock.NowNanos(),
	}
}

// tick counts down the busy delay. one count per CPU cycle.
func (r *huc3RTC) tick(cpuCycles uint64) {
	if uint64(r.busyCyclesRemaining) <= cpuCycles {
		r.busyCyclesRemaining = 0
	} else {
		r.busyCyclesRemaining -= uint16(cpuCycles)
	}
}

// updateTime advances the counters by the wall-clock time elapsed since
// the last update.
func (r *huc3RTC) updateTime() {
	now := r.clock.NowNanos()
	elapsed := now - r.lastUpdateNanos
	if elapsed < 0 {
		elapsed = 0
	}
	r.lastUpdateNanos = now

	r.nanosOfMinute += uint64(elapsed)

	elapsedMinutes := r.nanosOfMinute / nanosPerMinute
	r.nanosOfMinute %= nanosPerMinute

	newMinutes := uint64(r.minutesOfDay) + elapsedMinutes
	r.minutesOfDay = uint16(newMinutes % minutesPerDay)

	// the day counter wraps at 65536
	r.day += uint16(newMinutes / minutesPerDay)

	// these addresses appear to mirror the current time at all times
	copy(r.memory[0x10:0x13], toNibbles(r.minutesOfDay))
	copy(r.memory[0x13:0x16], toNibbles(r.day))
}

func (r *huc3RTC) executeCommand() {
	r.busyCyclesRemaining = rtcBusyCycles

	switch r.command {
	case 0x1:
		// read value and increment address
		r.response = r.memory[r.memoryAddress] & 0x0f
		r.memoryAddress++

	case 0x3:
		// write value and increment address
		r.memory[r.memoryAddress] = r.argument
		r.memoryAddress++

	case 0x4:
		// update address low nibble
		r.memoryAddress = r.memoryAddress&0xf0 | r.argument

	case 0x5:
		// update address high nibble
		r.memoryAddress = r.memoryAddress&0x0f | r.argument<<4

	case 0x6:
		switch r.argument {
		case 0x0:
			// snapshot current time to the base of RTC memory
			copy(r.memory[0:3], toNibbles(r.minutesOfDay))
			copy(r.memory[3:6], toNibbles(r.day))
		case 0x1:
			// restore current time from the base of RTC memory
			r.minutesOfDay = fromNibbles(r.memory[0:3])
			r.day = fromNibbles(r.memory[3:6])
		case 0x2:
			// a status command of some sort; games expect the answer 1
			r.response = 0x01
		case 0xe:
			logger.Log("huc3", "tone generator is not emulated")
		default:
			logger.Logf("huc3", "unexpected extended command %x", r.argument)
		}

	default:
		logger.Logf("huc3", "unexpected command %x argument %x", r.command, r.argument)
	}
}

// resetPorts clears the command interface but not the time, which keeps
// running on battery across a console reset.
func (r *huc3RTC) resetPorts() {
	r.command = 0
	r.argument = 0
	r.response = 0
	r.busyCyclesRemaining = 0
}

// the serialised RTC layout is fixed and little-endian: update timestamp,
// sub-minute nanoseconds, minutes of day, day, memory address, then the
// scratch memory
const huc3RTCBlobLen = 8 + 8 + 2 + 2 + 1 + huc3RTCRAMLen

func (r *huc3RTC) save() []byte {
	blob := make([]byte, 0, huc3RTCBlobLen)
	blob = binary.LittleEndian.AppendUint64(blob, uint64(r.lastUpdateNanos))
	blob = binary.LittleEndian.AppendUint64(blob, r.nanosOfMinute)
	blob = binary.LittleEndian.AppendUint16(blob, r.minutesOfDay)
	blob = binary.LittleEndian.AppendUint16(blob, r.day)
	blob = append(blob, r.memoryAddress)
	blob = append(blob, r.memory...)
	return blob
}

func (r *huc3RTC) restore(blob []byte) {
	if len(blob) != huc3RTCBlobLen {
		logger.Log("huc3", "ignoring RTC save of the wrong length")
		return
	}

	r.lastUpdateNanos = int64(binary.LittleEndian.Uint64(blob[0:]))
	r.nanosOfMinute = binary.LittleEndian.Uint64(blob[8:])
	r.minutesOfDay = binary.LittleEndian.Uint16(blob[16:])
	r.day = binary.LittleEndian.Uint16(blob[18:])
	r.memoryAddress = blob[20]
	copy(r.memory, blob[21:])
}

func (r *huc3RTC) snapshot(enc *savestate.Encoder) {
	enc.PutBytes(r.memory)
	enc.PutUint8(r.memoryAddress)
	enc.PutInt64(r.lastUpdateNanos)
	enc.PutUint64(r.nanosOfMinute)
	enc.PutUint16(r.minutesOfDay)
	enc.PutUint16(r.day)
	enc.PutUint8(r.command)
	enc.PutUint8(r.argument)
	enc.PutUint8(r.response)
	enc.PutUint16(r.busyCyclesRemaining)
}

func (r *huc3RTC) restoreState(dec *savestate.Decoder) {
	dec.BytesInto(r.memory)
	r.memoryAddress = dec.Uint8()
	r.lastUpdateNanos = dec.Int64()
	r.nanosOfMinute = dec.Uint64()
	r.minutesOfDay = dec.Uint16()
	r.day = dec.Uint16()
	r.command = dec.Uint8()
	r.argument = dec.Uint8()
	r.response = dec.Uint8()
	r.busyCyclesRemaining = dec.Uint16()
}

func toNibbles(v uint16) []uint8 {
	return []uint8{uint8(v & 0x0f), uint8(v >> 4 & 0x0f), uint8(v >> 8 & 0x0f)}
}

func fromNibbles(nibbles []uint8) uint16 {
	return uint16(nibbles[0]) | uint16(nibbles[1])<<4 | uint16(nibbles[2])<<8
}
