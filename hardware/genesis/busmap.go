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

package genesis

import (
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/savestate"
)

// m68kBus is the transient bus capability handed to the 68000 per
// instruction. Words are big-endian as on the 68000 bus.
type m68kBus struct {
	sys *Genesis
}

// Read8 implements the bus.Interface interface.
func (b m68kBus) Read8(address uint32) uint8 {
	sys := b.sys
	address &= 0xffffff

	switch {
	case address < 0x400000:
		// the cartridge window: external save memory shadows part of it
		if v, ok := sys.external.readByte(address); ok {
			return v
		}
		if int(address) < len(sys.rom) {
			return sys.rom[address]
		}
		return bus.OpenBus

	case address >= 0xa00000 && address < 0xa10000:
		// the Z80 address space; only reachable while the 68000 holds the
		// Z80 bus
		if sys.z80BusReq {
			return z80Bus{sys: sys}.Read8(address & 0x7fff)
		}
		return bus.OpenBus

	case address >= 0xa10000 && address < 0xa10020:
		return sys.ioRead(address)

	case address == 0xa11100:
		// busack: bit 0 of the even byte is clear once the bus is granted
		if sys.z80BusReq {
			return 0x00
		}
		return 0x01

	case address == 0xa11101:
		return 0x00

	case address >= 0xc00000 && address < 0xc00010:
		word := b.Read16(address &^ 1)
		if address&0x01 == 0 {
			return uint8(word >> 8)
		}
		return uint8(word)

	case address >= 0xe00000:
		return sys.workRAM[address&0xffff]
	}

	return bus.OpenBus
}

// Read16 implements the bus.Interface interface.
func (b m68kBus) Read16(address uint32) uint16 {
	sys := b.sys
	address &= 0xfffffe

	switch {
	case address >= 0xc00000 && address < 0xc00010:
		switch address & 0x0e {
		case 0x00, 0x02:
			return sys.vdp.ReadData()
		case 0x04, 0x06:
			return sys.vdp.ReadStatus()
		default:
			return sys.vdp.ReadHVCounter()
		}
	}

	return uint16(b.Read8(address))<<8 | uint16(b.Read8(address+1))
}

// Write8 implements the bus.Interface interface.
func (b m68kBus) Write8(address uint32, data uint8) {
	sys := b.sys
	address &= 0xffffff

	switch {
	case address < 0x400000:
		sys.external.writeByte(address, data)

	case address >= 0xa00000 && address < 0xa10000:
		if sys.z80BusReq {
			z80Bus{sys: sys}.Write8(address&0x7fff, data)
		}

	case address >= 0xa10000 && address < 0xa10020:
		sys.ioWrite(address, data)

	case address == 0xa11100 || address == 0xa11101:
		sys.setBusReq(data&0x01 != 0)

	case address == 0xa11200 || address == 0xa11201:
		sys.setZ80Reset(data&0x01 == 0)

	case address >= 0xc00000 && address < 0xc00010:
		// a byte write to the VDP ports writes the byte to both halves
		b.Write16(address&^1, uint16(data)<<8|uint16(data))

	case address >= 0xe00000:
		sys.workRAM[address&0xffff] = data
	}
}

// Write16 implements the bus.Interface interface.
func (b m68kBus) Write16(address uint32, data uint16) {
	sys := b.sys
	address &= 0xfffffe

	switch {
	case address >= 0xc00000 && address < 0xc00010:
		switch address & 0x0e {
		case 0x00, 0x02:
			sys.vdp.WriteData(data)
		case 0x04, 0x06:
			sys.vdp.WriteControl(data, b)
		}
		return

	case address >= 0xc00010 && address < 0xc00018:
		sys.psg.Write(uint8(data))
		return
	}

	b.Write8(address, uint8(data>>8))
	b.Write8(address+1, uint8(data))
}

// readWordForDMA implements the dmaSource interface: DMA reads bypass the
// external-memory shadowing and read ROM or work RAM directly.
func (b m68kBus) readWordForDMA(address uint32) uint16 {
	sys := b.sys
	address &= 0xfffffe

	if address < 0x400000 {
		if int(address)+1 < len(sys.rom) {
			return uint16(sys.rom[address])<<8 | uint16(sys.rom[address+1])
		}
		return 0xffff
	}
	if address >= 0xe00000 {
		a := address & 0xffff
		return uint16(sys.workRAM[a])<<8 | uint16(sys.workRAM[(a+1)&0xffff])
	}
	return 0xffff
}

// Idle implements the bus.Interface interface.
func (b m68kBus) Idle(cycles uint64) {
}

// InterruptLevel implements the bus.Interface interface: the VDP's
// vertical interrupt is level 6, horizontal level 4.
func (b m68kBus) InterruptLevel() int {
	level := b.sys.vdp.InterruptLevel()
	if level == 0 {
		return -1
	}
	return level
}

func (sys *Genesis) setBusReq(req bool) {
	// the Z80 is instruction-atomic in this scheduler, so "finish the
	// current instruction then stall" reduces to stopping it from being
	// scheduled while the request holds
	sys.z80BusReq = req
}

func (sys *Genesis) setZ80Reset(reset bool) {
	if reset && !sys.z80Reset {
		sys.z80.Reset()
		sys.ym2612 = NewYM2612()
	}
	sys.z80Reset = reset
}

// z80Bus is the transient bus capability handed to the Z80 per
// instruction.
type z80Bus struct {
	sys *Genesis
}

// Read8 implements the bus.Interface interface.
func (b z80Bus) Read8(address uint32) uint8 {
	sys := b.sys
	address &= 0xffff

	switch {
	case address < 0x4000:
		return sys.z80RAM[address&0x1fff]

	case address < 0x6000:
		return sys.ym2612.ReadStatus()

	case address < 0x8000:
		return bus.OpenBus

	default:
		// the banked 68000 window
		m68kAddr := sys.z80BankRegister | address&0x7fff
		if m68kAddr < 0x400000 && int(m68kAddr) < len(sys.rom) {
			return sys.rom[m68kAddr]
		}
		if m68kAddr >= 0xe00000 {
			return sys.workRAM[m68kAddr&0xffff]
		}
		return bus.OpenBus
	}
}

// Write8 implements the bus.Interface interface.
func (b z80Bus) Write8(address uint32, data uint8) {
	sys := b.sys
	address &= 0xffff

	switch {
	case address < 0x4000:
		sys.z80RAM[address&0x1fff] = data

	case address < 0x6000:
		switch address & 0x03 {
		case 0x00:
			sys.ym2612.WriteAddress1(data)
		case 0x01:
			sys.ym2612.WriteData1(data)
		case 0x02:
			sys.ym2612.WriteAddress2(data)
		case 0x03:
			sys.ym2612.WriteData2(data)
		}

	case address < 0x6100:
		// the bank register receives one bit per write, building the
		// 32KB-aligned 68000 base address serially
		sys.z80BankRegister = (sys.z80BankRegister>>1 | uint32(data&0x01)<<23) & 0xff8000

	case address == 0x7f11:
		sys.psg.Write(data)
	}
}

// Read16 implements the bus.Interface interface.
func (b z80Bus) Read16(address uint32) uint16 {
	return uint16(b.Read8(address)) | uint16(b.Read8(address+1))<<8
}

// Write16 implements the bus.Interface interface.
func (b z80Bus) Write16(address uint32, data uint16) {
	b.Write8(address, uint8(data))
	b.Write8(address+1, uint8(data>>8))
}

// Idle implements the bus.Interface interface.
func (b z80Bus) Idle(cycles uint64) {
}

// InterruptLevel implements the bus.Interface interface. The Z80's
// maskable interrupt follows the VDP vertical interrupt.
func (b z80Bus) InterruptLevel() int {
	if b.sys.vdp.InterruptLevel() == 6 {
		return 0
	}
	return -1
}

// io is the controller and version-register block at $a10000.
type io struct {
	p1 hardware.Gamepad
	p2 hardware.Gamepad

	// TH select and control registers per port
	dataTH  [2]bool
	control [2]uint8
}

func (o *io) snapshot(inputs hardware.Inputs) {
	o.p1 = inputs.P1
	o.p2 = inputs.P2
}

// pad reads a 3-button pad: the TH line selects between two views of the
// button matrix, active low.
func (o *io) pad(pad hardware.Gamepad, th bool) uint8 {
	v := uint8(0x3f)
	if th {
		v |= 0x40
		if pad.Pressed(hardware.Up) {
			v &^= 0x01
		}
		if pad.Pressed(hardware.Down) {
			v &^= 0x02
		}
		if pad.Pressed(hardware.Left) {
			v &^= 0x04
		}
		if pad.Pressed(hardware.Right) {
			v &^= 0x08
		}
		if pad.Pressed(hardware.B) {
			v &^= 0x10
		}
		if pad.Pressed(hardware.C) {
			v &^= 0x20
		}
	} else {
		if pad.Pressed(hardware.Up) {
			v &^= 0x01
		}
		if pad.Pressed(hardware.Down) {
			v &^= 0x02
		}
		if pad.Pressed(hardware.A) {
			v &^= 0x10
		}
		if pad.Pressed(hardware.Start) {
			v &^= 0x20
		}
		v &^= 0x0c // left/right read low with TH clear
	}
	return v
}

func (sys *Genesis) ioRead(address uint32) uint8 {
	switch address | 1 {
	case 0xa10001:
		// version register: overseas NTSC, no expansion unit
		if sys.config.Timing == hardware.PAL {
			return 0xe0
		}
		return 0xa0

	case 0xa10003:
		return sys.io.pad(sys.io.p1, sys.io.dataTH[0])

	case 0xa10005:
		return sys.io.pad(sys.io.p2, sys.io.dataTH[1])

	case 0xa10009:
		return sys.io.control[0]

	case 0xa1000b:
		return sys.io.control[1]
	}

	return bus.OpenBus
}

func (sys *Genesis) ioWrite(address uint32, data uint8) {
	switch address | 1 {
	case 0xa10003:
		sys.io.dataTH[0] = data&0x40 != 0
	case 0xa10005:
		sys.io.dataTH[1] = data&0x40 != 0
	case 0xa10009:
		sys.io.control[0] = data
	case 0xa1000b:
		sys.io.control[1] = data
	}
}

func (o *io) snapshotState(enc *savestate.Encoder) {
	enc.PutUint16(uint16(o.p1))
	enc.PutUint16(uint16(o.p2))
	enc.PutBool(o.dataTH[0])
	enc.PutBool(o.dataTH[1])
	enc.PutUint8(o.control[0])
	enc.PutUint8(o.control[1])
}

func (o *io) restoreState(dec *savestate.Decoder) {
	o.p1 = hardware.Gamepad(dec.Uint16())
	o.p2 = hardware.Gamepad(dec.Uint16())
	o.dataTH[0] = dec.Bool()
	o.dataTH[1] = dec.Bool()
	o.control[0] = dec.Uint8()
	o.control[1] = dec.Uint8()
}
