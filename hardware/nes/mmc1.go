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

package nes

import (
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/savestate"
)

// mmc1 is mapper 1: registers are written serially, one bit at a time,
// through a five-bit shift register. A write with bit 7 set resets the
// shifter and forces PRG mode 3.
type mmc1 struct {
	prg []uint8
	ram []uint8

	shift      uint8
	shiftCount uint8

	control  uint8
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	ramDirty bool
}

func newMMC1(prg []uint8, initialSave []uint8) *mmc1 {
	b := &mmc1{
		prg: prg,
		ram: make([]uint8, 8*1024),

		// power-on: PRG mode 3 (fix last bank at $c000)
		control: 0x0c,
	}
	if len(initialSave) == len(b.ram) {
		copy(b.ram, initialSave)
	}
	return b
}

func (b *mmc1) ramEnabled() bool {
	return b.prgBank&0x10 == 0
}

func (b *mmc1) prgBanks() int {
	return len(b.prg) / 0x4000
}

func (b *mmc1) readPRG(address uint16) uint8 {
	switch {
	case address < 0x6000:
		return bus.OpenBus

	case address < 0x8000:
		if !b.ramEnabled() {
			return bus.OpenBus
		}
		return b.ram[address&0x1fff]
	}

	bank := int(b.prgBank & 0x0f)
	offset := int(address & 0x3fff)

	switch b.control >> 2 & 0x03 {
	case 0, 1:
		// 32KB mode: the bank's low bit is ignored
		bank &^= 0x01
		if address >= 0xc000 {
			bank |= 0x01
		}
	case 2:
		// fix the first bank at $8000
		if address < 0xc000 {
			bank = 0
		}
	default:
		// fix the last bank at $c000
		if address >= 0xc000 {
			bank = b.prgBanks() - 1
		}
	}

	return b.prg[(bank%b.prgBanks())*0x4000+offset]
}

func (b *mmc1) writePRG(address uint16, data uint8) {
	if address < 0x6000 {
		return
	}

	if address < 0x8000 {
		if b.ramEnabled() {
			b.ram[address&0x1fff] = data
			b.ramDirty = true
		}
		return
	}

	if data&0x80 != 0 {
		// reset: clear the shifter and force PRG mode 3
		b.shift = 0
		b.shiftCount = 0
		b.control |= 0x0c
		return
	}

	// bits arrive least significant first
	b.shift = b.shift>>1 | (data&0x01)<<4
	b.shiftCount++
	if b.shiftCount < 5 {
		return
	}

	value := b.shift
	b.shift = 0
	b.shiftCount = 0

	// address bits 13-14 select the destination register
	switch address >> 13 & 0x03 {
	case 0:
		b.control = value
	case 1:
		b.chrBank0 = value
	case 2:
		b.chrBank1 = value
	case 3:
		b.prgBank = value
	}
}

func (b *mmc1) mapCHRAddress(address uint16) uint32 {
	address &= 0x1fff

	if b.control&0x10 == 0 {
		// 8KB mode: chrBank0's low bit is ignored
		return uint32(b.chrBank0&0x1e)<<12 | uint32(address)
	}

	// 4KB mode
	if address < 0x1000 {
		return uint32(b.chrBank0)<<12 | uint32(address&0x0fff)
	}
	return uint32(b.chrBank1)<<12 | uint32(address&0x0fff)
}

func (b *mmc1) mirroring() mirroring {
	switch b.control & 0x03 {
	case 0:
		return mirrorSingleLow
	case 1:
		return mirrorSingleHigh
	case 2:
		return mirrorVertical
	}
	return mirrorHorizontal
}

func (b *mmc1) snapshot(enc *savestate.Encoder) {
	enc.PutBytes(b.ram)
	enc.PutUint8(b.shift)
	enc.PutUint8(b.shiftCount)
	enc.PutUint8(b.control)
	enc.PutUint8(b.chrBank0)
	enc.PutUint8(b.chrBank1)
	enc.PutUint8(b.prgBank)
	enc.PutBool(b.ramDirty)
}

func (b *mmc1) restore(dec *savestate.Decoder) {
	dec.BytesInto(b.ram)
	b.shift = dec.Uint8()
	b.shiftCount = dec.Uint8()
	b.control = dec.Uint8()
	b.chrBank0 = dec.Uint8()
	b.chrBank1 = dec.Uint8()
	b.prgBank = dec.Uint8()
	b.ramDirty = dec.Bool()
}
