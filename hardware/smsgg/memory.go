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

package smsgg

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// cartridge RAM is two banks of 16KB, mappable into slot 2
const sramLen = 32 * 1024

// memory is the Sega paged memory system: three 16KB ROM slots banked
// through the control registers at the top of RAM, 8KB of work RAM, and
// optional battery-backed cartridge RAM mappable into slot 2.
type memory struct {
	rom  []uint8
	ram  []uint8
	sram []uint8

	romBankMask uint8

	// control registers $fffc-$ffff
	ramControl uint8
	pages      [3]uint8

	sramDirty bool
}

func newMemory(rom []uint8, initialSave []uint8) *memory {
	m := &memory{
		rom:  rom,
		ram:  make([]uint8, 8*1024),
		sram: make([]uint8, sramLen),
	}

	banks := len(rom) / 0x4000
	if banks < 1 {
		banks = 1
	}
	m.romBankMask = uint8(banks - 1)

	// power-on: slots map the first three banks
	m.pages = [3]uint8{0, 1, 2}

	if len(initialSave) == sramLen {
		copy(m.sram, initialSave)
	}

	return m
}

// sramMapped reports whether cartridge RAM is mapped into slot 2.
func (m *memory) sramMapped() bool {
	return m.ramControl&0x08 != 0
}

func (m *memory) sramBank() uint32 {
	if m.ramControl&0x04 != 0 {
		return 1
	}
	return 0
}

func (m *memory) read(address uint16) uint8 {
	switch {
	case address < 0x0400:
		// the first 1KB is never paged: interrupt vectors stay put
		return m.rom[address&0x03ff]

	case address < 0x4000:
		return m.rom[uint32(m.pages[0]&m.romBankMask)<<14|uint32(address&0x3fff)]

	case address < 0x8000:
		return m.rom[uint32(m.pages[1]&m.romBankMask)<<14|uint32(address&0x3fff)]

	case address < 0xc000:
		if m.sramMapped() {
			return m.sram[m.sramBank()<<14|uint32(address&0x3fff)]
		}
		return m.rom[uint32(m.pages[2]&m.romBankMask)<<14|uint32(address&0x3fff)]
	}

	return m.ram[address&0x1fff]
}

func (m *memory) write(address uint16, data uint8) {
	if address < 0x8000 {
		// ROM: writes dropped
		return
	}

	if address < 0xc000 {
		if m.sramMapped() {
			m.sram[m.sramBank()<<14|uint32(address&0x3fff)] = data
			m.sramDirty = true
		}
		return
	}

	m.ram[address&0x1fff] = data

	// the control registers shadow the top of RAM
	switch address {
	case 0xfffc:
		m.ramControl = data
	case 0xfffd:
		m.pages[0] = data
	case 0xfffe:
		m.pages[1] = data
	case 0xffff:
		m.pages[2] = data
	}
}

func (m *memory) reset() {
	m.ramControl = 0
	m.pages = [3]uint8{0, 1, 2}
}

func (m *memory) snapshot(enc *savestate.Encoder) {
	enc.PutBytes(m.ram)
	enc.PutBytes(m.sram)
	enc.PutUint8(m.ramControl)
	enc.PutUint8(m.pages[0])
	enc.PutUint8(m.pages[1])
	enc.PutUint8(m.pages[2])
	enc.PutBool(m.sramDirty)
}

func (m *memory) restore(dec *savestate.Decoder) {
	dec.BytesInto(m.ram)
	dec.BytesInto(m.sram)
	m.ramControl = dec.Uint8()
	m.pages[0] = dec.Uint8()
	m.pages[1] = dec.Uint8()
	m.pages[2] = dec.Uint8()
	m.sramDirty = dec.Bool()
}
