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
	"github.com/jetsetilly/gophergen/hardware/eeprom"
	"github.com/jetsetilly/gophergen/savestate"
)

// bandaiFCG is Bandai's FCG board family (mappers 16 and 159): banked PRG
// and CHR, an IRQ counter decremented once per CPU cycle, and an X24C01
// serial EEPROM for saves.
// The EEPROM's data line is wired to write bit 6, the clock to write bit
// 5; the chip's output is read back on bit 4.
type bandaiFCG struct {
	prg []uint8

	prgBank  uint8
	chrBanks [8]uint8
	mirror   mirroring

	irqEnabled bool
	irqCounter uint16
	irqPending bool

	chip *eeprom.Chip
}

func newBandaiFCG(prg []uint8, initialSave []uint8) *bandaiFCG {
	return &bandaiFCG{
		prg:  prg,
		chip: eeprom.NewChip(eeprom.X24C01, initialSave),
	}
}

func (b *bandaiFCG) prgBanks() int {
	return len(b.prg) / 0x4000
}

func (b *bandaiFCG) readPRG(address uint16) uint8 {
	switch {
	case address < 0x6000:
		return bus.OpenBus

	case address < 0x8000:
		// the EEPROM data line reads on bit 4
		if b.chip.Read() {
			return 0x10
		}
		return 0x00

	case address < 0xc000:
		return b.prg[(int(b.prgBank)%b.prgBanks())*0x4000+int(address&0x3fff)]
	}

	// the last bank is fixed at $c000
	return b.prg[(b.prgBanks()-1)*0x4000+int(address&0x3fff)]
}

func (b *bandaiFCG) writePRG(address uint16, data uint8) {
	if address < 0x6000 {
		return
	}

	switch address & 0x0f {
	case 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07:
		b.chrBanks[address&0x07] = data

	case 0x08:
		b.prgBank = data & 0x0f

	case 0x09:
		switch data & 0x03 {
		case 0:
			b.mirror = mirrorVertical
		case 1:
			b.mirror = mirrorHorizontal
		case 2:
			b.mirror = mirrorSingleLow
		default:
			b.mirror = mirrorSingleHigh
		}

	case 0x0a:
		b.irqEnabled = data&0x01 != 0
		b.irqPending = false

	case 0x0b:
		b.irqCounter = b.irqCounter&0xff00 | uint16(data)

	case 0x0c:
		b.irqCounter = b.irqCounter&0x00ff | uint16(data)<<8

	case 0x0d:
		// the serial EEPROM port
		b.chip.Write(data&0x40 != 0, data&0x20 != 0)
	}
}

// tick advances the IRQ counter by elapsed CPU cycles.
func (b *bandaiFCG) tick(cpuCycles uint64) {
	if !b.irqEnabled {
		return
	}
	for i := uint64(0); i < cpuCycles; i++ {
		b.irqCounter--
		if b.irqCounter == 0 {
			b.irqPending = true
			b.irqEnabled = false
			break
		}
	}
}

func (b *bandaiFCG) mapCHRAddress(address uint16) uint32 {
	address &= 0x1fff
	return uint32(b.chrBanks[address>>10])<<10 | uint32(address&0x03ff)
}

func (b *bandaiFCG) mirroring() mirroring {
	return b.mirror
}

func (b *bandaiFCG) snapshot(enc *savestate.Encoder) {
	enc.PutUint8(b.prgBank)
	for _, c := range b.chrBanks {
		enc.PutUint8(c)
	}
	enc.PutUint8(uint8(b.mirror))
	enc.PutBool(b.irqEnabled)
	enc.PutUint16(b.irqCounter)
	enc.PutBool(b.irqPending)
	b.chip.Snapshot(enc)
}

func (b *bandaiFCG) restore(dec *savestate.Decoder) {
	b.prgBank = dec.Uint8()
	for i := range b.chrBanks {
		b.chrBanks[i] = dec.Uint8()
	}
	b.mirror = mirroring(dec.Uint8())
	b.irqEnabled = dec.Bool()
	b.irqCounter = dec.Uint16()
	b.irqPending = dec.Bool()
	b.chip.Restore(dec)
}
