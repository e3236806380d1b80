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

package gameboy

import (
	"github.com/jetsetilly/gophergen/hardware/bus"
)

// busCapability is the transient bus handed to the CPU for the duration of
// one instruction. it holds nothing but a reference back to the system
// root; a fresh value is created per Step() so no component keeps a lasting
// reference to a sibling.
type busCapability struct {
	gb *GameBoy
}

// Read8 implements the bus.Interface interface.
func (b busCapability) Read8(address uint32) uint8 {
	gb := b.gb
	addr := uint16(address)

	switch {
	case addr < 0x8000:
		return gb.cart.Read(addr)

	case addr < 0xa000:
		return gb.ppu.ReadVRAM(addr)

	case addr < 0xc000:
		return gb.cart.Read(addr)

	case addr < 0xe000:
		return gb.wram[addr&0x1fff]

	case addr < 0xfe00:
		// echo RAM
		return gb.wram[addr&0x1fff]

	case addr < 0xfea0:
		return gb.ppu.ReadOAM(addr - 0xfe00)

	case addr < 0xff00:
		// the unusable range
		return bus.OpenBus

	case addr < 0xff80:
		return gb.readIO(addr)

	case addr < 0xffff:
		return gb.hram[addr&0x7f]
	}

	return gb.irq.enable
}

// Write8 implements the bus.Interface interface.
func (b busCapability) Write8(address uint32, data uint8) {
	gb := b.gb
	addr := uint16(address)

	switch {
	case addr < 0x8000:
		gb.cart.Write(addr, data)

	case addr < 0xa000:
		gb.ppu.WriteVRAM(addr, data)

	case addr < 0xc000:
		gb.cart.Write(addr, data)

	case addr < 0xe000:
		gb.wram[addr&0x1fff] = data

	case addr < 0xfe00:
		gb.wram[addr&0x1fff] = data

	case addr < 0xfea0:
		gb.ppu.WriteOAM(addr-0xfe00, data)

	case addr < 0xff00:
		// the unusable range; writes are dropped

	case addr < 0xff80:
		gb.writeIO(addr, data)

	case addr < 0xffff:
		gb.hram[addr&0x7f] = data

	default:
		gb.irq.enable = data
	}
}

// Read16 implements the bus.Interface interface.
func (b busCapability) Read16(address uint32) uint16 {
	return uint16(b.Read8(address)) | uint16(b.Read8(address+1))<<8
}

// Write16 implements the bus.Interface interface.
func (b busCapability) Write16(address uint32, data uint16) {
	b.Write8(address, uint8(data))
	b.Write8(address+1, uint8(data>>8))
}

// Idle implements the bus.Interface interface. The SM83 includes its idle
// cycles in the value it returns from Step(), so there is nothing extra to
// account here; bus stalls (the OAM DMA) go through the system root's
// stall accumulator instead.
func (b busCapability) Idle(cycles uint64) {
}

// InterruptLevel implements the bus.Interface interface.
func (b busCapability) InterruptLevel() int {
	return b.gb.irq.level()
}

func (gb *GameBoy) readIO(addr uint16) uint8 {
	switch {
	case addr == 0xff00:
		return gb.input.read()

	case addr == 0xff01:
		return gb.serialSB

	case addr == 0xff02:
		return 0x7e | gb.serialSC

	case addr >= 0xff04 && addr <= 0xff07:
		return gb.timer.read(addr)

	case addr == 0xff0f:
		return gb.irq.readFlags()

	case addr >= 0xff10 && addr <= 0xff3f:
		return gb.apu.ReadRegister(addr)

	case addr == 0xff46:
		return gb.dmaSource

	case addr >= 0xff40 && addr <= 0xff4b:
		return gb.ppu.ReadRegister(addr)
	}

	return bus.OpenBus
}

func (gb *GameBoy) writeIO(addr uint16, data uint8) {
	switch {
	case addr == 0xff00:
		gb.input.write(data)

	case addr == 0xff01:
		gb.serialSB = data

	case addr == 0xff02:
		// serial transfers have no link partner: a started transfer
		// completes immediately, shifting in disconnected-line ones
		gb.serialSC = data & 0x01
		if data&0x80 != 0 {
			gb.serialSB = 0xff
			gb.irq.raise(intSerial)
		}

	case addr >= 0xff04 && addr <= 0xff07:
		gb.timer.write(addr, data)

	case addr == 0xff0f:
		gb.irq.writeFlags(data)

	case addr >= 0xff10 && addr <= 0xff3f:
		gb.apu.WriteRegister(addr, data)

	case addr == 0xff46:
		gb.startOAMDMA(data)

	case addr >= 0xff40 && addr <= 0xff4b:
		gb.ppu.WriteRegister(addr, data)
	}
}

// the OAM DMA transfers one byte per machine cycle, 160 machine cycles in
// master-clock terms
const oamDMAStallCycles = 160 * 4

// startOAMDMA copies a 160-byte page into OAM. The copy itself is
// immediate but the bus is lost for the transfer's duration: the stall is
// charged to the instruction that started the DMA, inflating its cycle
// cost through the stall accumulator the scheduler drains. The
// restriction of the CPU to HRAM during the transfer is not modelled; any
// program following the conventional wait-loop-in-HRAM pattern behaves
// identically either way.
func (gb *GameBoy) startOAMDMA(source uint8) {
	gb.dmaSource = source

	bc := busCapability{gb: gb}
	base := uint32(source) << 8
	for i := uint32(0); i < 160; i++ {
		gb.ppu.WriteOAM(uint16(i), bc.Read8(base+i))
	}

	gb.stallCycles += oamDMAStallCycles
}
