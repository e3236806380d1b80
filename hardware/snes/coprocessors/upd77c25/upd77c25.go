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

// Package upd77c25 emulates the NEC µPD77C25 digital signal processor, the
// chip inside the DSP-1 through DSP-4 SNES cartridge coprocessors.
//
// The host CPU sees two registers: an 8-bit view of the 16-bit data
// register DR, and a status register whose request-for-master bit is the
// handshake. The DSP runs one instruction per two master-clock cycles and
// idles once it is waiting on the master with nothing else to do.
package upd77c25

import (
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/savestate"
)

// Error pattern raised at creation time.
const BadProgramROM = "upd77c25: bad program rom: %v"

const (
	programROMLenOpcodes = 2048
	dataROMLenWords      = 1024
	ramLenWords          = 256

	// the DSP variant has a 4-entry hardware stack
	stackLen = 4
)

type flags struct {
	z   bool
	c   bool
	s0  bool
	s1  bool
	ov0 bool
	ov1 bool
}

func (f *flags) pack() uint8 {
	var v uint8
	if f.ov0 {
		v |= 0x01
	}
	if f.ov1 {
		v |= 0x02
	}
	if f.z {
		v |= 0x04
	}
	if f.c {
		v |= 0x08
	}
	if f.s0 {
		v |= 0x10
	}
	if f.s1 {
		v |= 0x20
	}
	return v
}

func (f *flags) unpack(v uint8) {
	f.ov0 = v&0x01 != 0
	f.ov1 = v&0x02 != 0
	f.z = v&0x04 != 0
	f.c = v&0x08 != 0
	f.s0 = v&0x10 != 0
	f.s1 = v&0x20 != 0
}

// UPD77C25 is the DSP core plus its host-facing registers.
type UPD77C25 struct {
	programROM []uint32
	dataROM    []uint16
	ram        []uint16

	// registers
	dp    uint16
	rp    uint16
	pc    uint16
	stack [stackLen]uint16
	stackIdx uint8

	k uint16
	l uint16

	accA   uint16
	accB   uint16
	flagsA flags
	flagsB flags

	tr  uint16
	trb uint16
	sn  uint16
	dr  uint16

	// status register
	requestForMaster bool
	userFlag0        bool
	userFlag1        bool
	drBusy           bool
	drEightBit       bool

	// serial output registers; present in the register map but unwired on
	// cartridge boards
	so uint16

	idling bool

	masterCyclesElapsed uint64
}

// New creates a DSP from the combined program+data ROM image. Endianness
// is autodetected from the known opcode pattern at the top of program ROM.
func New(rom []uint8) (*UPD77C25, error) {
	if len(rom) < 3*programROMLenOpcodes+2*dataROMLenWords {
		return nil, curated.Errorf(BadProgramROM, "image too small")
	}

	little := detectLittleEndian(rom)

	u := &UPD77C25{
		programROM: make([]uint32, programROMLenOpcodes),
		dataROM:    make([]uint16, dataROMLenWords),
		ram:        make([]uint16, ramLenWords),
		rp:         0x3ff,
	}

	for i := range u.programROM {
		c := rom[i*3 : i*3+3]
		if little {
			u.programROM[i] = uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16
		} else {
			u.programROM[i] = uint32(c[2]) | uint32(c[1])<<8 | uint32(c[0])<<16
		}
	}

	base := 3 * programROMLenOpcodes
	for i := range u.dataROM {
		c := rom[base+i*2 : base+i*2+2]
		if little {
			u.dataROM[i] = uint16(c[0]) | uint16(c[1])<<8
		} else {
			u.dataROM[i] = uint16(c[1]) | uint16(c[0])<<8
		}
	}

	return u, nil
}

// all known program ROMs contain the opcode $97c00x in the first four
// opcodes, where x is four times the opcode number
func detectLittleEndian(rom []uint8) bool {
	for i := 0; i < 4; i++ {
		c := rom[i*3 : i*3+3]
		if c[0] == uint8(i<<2) && c[1] == 0xc0 && c[2] == 0x97 {
			return true
		}
		if c[0] == 0x97 && c[1] == 0xc0 && c[2] == uint8(i<<2) {
			return false
		}
	}
	// default to little-endian when the pattern is absent
	return true
}

// ReadData services a host read of the data register. In 16-bit mode two
// reads return the low then high byte; the request handshake completes on
// the high byte.
func (u *UPD77C25) ReadData() uint8 {
	var value uint8

	if u.drEightBit {
		u.requestForMaster = false
		value = uint8(u.dr >> 8)
	} else if u.drBusy {
		u.drBusy = false
		u.requestForMaster = false
		value = uint8(u.dr >> 8)
	} else {
		u.drBusy = true
		value = uint8(u.dr)
	}

	if !u.requestForMaster {
		u.idling = false
	}

	return value
}

// WriteData services a host write of the data register.
func (u *UPD77C25) WriteData(value uint8) {
	if u.drEightBit {
		u.requestForMaster = false
		u.dr = uint16(value)
	} else if u.drBusy {
		u.drBusy = false
		u.requestForMaster = false
		u.dr = u.dr&0x00ff | uint16(value)<<8
	} else {
		u.drBusy = true
		u.dr = u.dr&0xff00 | uint16(value)
	}

	if !u.requestForMaster {
		u.idling = false
	}
}

// ReadStatus services a host read of the status register.
func (u *UPD77C25) ReadStatus() uint8 {
	var v uint8
	if u.requestForMaster {
		v |= 0x80
	}
	if u.userFlag1 {
		v |= 0x40
	}
	if u.userFlag0 {
		v |= 0x20
	}
	if u.drBusy {
		v |= 0x10
	}
	if u.drEightBit {
		v |= 0x04
	}
	return v
}

// Tick advances the DSP by elapsed master-clock cycles: one instruction
// per two cycles, unless the core is idling on the handshake.
func (u *UPD77C25) Tick(masterCycles uint64) {
	u.masterCyclesElapsed += masterCycles

	for u.masterCyclesElapsed >= 2 {
		u.masterCyclesElapsed -= 2
		if !u.idling {
			u.execute(u.programROM[u.pc&(programROMLenOpcodes-1)])
		}
	}
}

// Reset returns the DSP to its power-on state. ROM contents survive.
func (u *UPD77C25) Reset() {
	u.pc = 0
	u.rp = 0x3ff
	u.flagsA = flags{}
	u.flagsB = flags{}
	u.requestForMaster = false
	u.userFlag0 = false
	u.userFlag1 = false
	u.drBusy = false
	u.drEightBit = false
	u.idling = false
}

func (u *UPD77C25) pushStack(pc uint16) {
	u.stack[u.stackIdx] = pc
	u.stackIdx = (u.stackIdx + 1) & (stackLen - 1)
}

func (u *UPD77C25) popStack() uint16 {
	u.stackIdx = (u.stackIdx - 1) & (stackLen - 1)
	return u.stack[u.stackIdx]
}

// Snapshot encodes the DSP state. ROMs are rebuilt at creation and not
// recorded.
func (u *UPD77C25) Snapshot(enc *savestate.Encoder) {
	for _, w := range u.ram {
		enc.PutUint16(w)
	}
	enc.PutUint16(u.dp)
	enc.PutUint16(u.rp)
	enc.PutUint16(u.pc)
	for _, s := range u.stack {
		enc.PutUint16(s)
	}
	enc.PutUint8(u.stackIdx)
	enc.PutUint16(u.k)
	enc.PutUint16(u.l)
	enc.PutUint16(u.accA)
	enc.PutUint16(u.accB)
	enc.PutUint8(u.flagsA.pack())
	enc.PutUint8(u.flagsB.pack())
	enc.PutUint16(u.tr)
	enc.PutUint16(u.trb)
	enc.PutUint16(u.sn)
	enc.PutUint16(u.dr)
	enc.PutUint16(u.so)
	enc.PutBool(u.requestForMaster)
	enc.PutBool(u.userFlag0)
	enc.PutBool(u.userFlag1)
	enc.PutBool(u.drBusy)
	enc.PutBool(u.drEightBit)
	enc.PutBool(u.idling)
	enc.PutUint64(u.masterCyclesElapsed)
}

// Restore decodes the DSP state.
func (u *UPD77C25) Restore(dec *savestate.Decoder) {
	for i := range u.ram {
		u.ram[i] = dec.Uint16()
	}
	u.dp = dec.Uint16()
	u.rp = dec.Uint16()
	u.pc = dec.Uint16()
	for i := range u.stack {
		u.stack[i] = dec.Uint16()
	}
	u.stackIdx = dec.Uint8()
	u.k = dec.Uint16()
	u.l = dec.Uint16()
	u.accA = dec.Uint16()
	u.accB = dec.Uint16()
	u.flagsA.unpack(dec.Uint8())
	u.flagsB.unpack(dec.Uint8())
	u.tr = dec.Uint16()
	u.trb = dec.Uint16()
	u.sn = dec.Uint16()
	u.dr = dec.Uint16()
	u.so = dec.Uint16()
	u.requestForMaster = dec.Bool()
	u.userFlag0 = dec.Bool()
	u.userFlag1 = dec.Bool()
	u.drBusy = dec.Bool()
	u.drEightBit = dec.Bool()
	u.idling = dec.Bool()
	u.masterCyclesElapsed = dec.Uint64()
}
