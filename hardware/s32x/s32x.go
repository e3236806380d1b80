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

// Package s32x emulates the Sega 32X adapter: the twin SH-2 processors in
// lockstep, the shared system registers and SDRAM, and the PWM sound unit.
//
// Bus regions that the upstream implementation leaves as explicit holes
// (68000 byte reads of unmapped adapter space, SH-2 accesses outside the
// known map) surface as NotImplemented faults returned by Step() rather
// than quietly reading zero; see the design notes.
package s32x

import (
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/savestate"
)

const sdramLen = 256 * 1024

// SH2 is the contract for the injected SH-2 cores.
type SH2 interface {
	Step(mem bus.Interface) uint64
	Reset()
}

// S32X is the adapter: registers, SDRAM, PWM and the two CPU sockets.
type S32X struct {
	master SH2
	slave  SH2

	Registers *SystemRegisters
	PWM       *PWM

	rom   []uint8
	sdram []uint8

	// a NotImplemented fault recorded by a bus capability, surfaced on the
	// next step boundary
	fault error

	totalSteps uint64
}

// New creates a 32X adapter around the cartridge ROM and two SH-2 cores.
func New(rom []uint8, master SH2, slave SH2) *S32X {
	s := &S32X{
		master:    master,
		slave:     slave,
		Registers: NewSystemRegisters(),
		PWM:       NewPWM(),
		rom:       rom,
		sdram:     make([]uint8, sdramLen),
	}
	master.Reset()
	slave.Reset()
	return s
}

// Step runs one lockstep round: one instruction on the master SH-2 then
// one on the slave. Cross-core interrupts raised during the round are
// observed from the next round. An error is a NotImplemented bus fault.
func (s *S32X) Step() error {
	s.master.Step(SH2Bus{s32x: s, Which: Master})
	s.slave.Step(SH2Bus{s32x: s, Which: Slave})
	s.totalSteps++

	if s.fault != nil {
		f := s.fault
		s.fault = nil
		return f
	}
	return nil
}

// recordFault notes a NotImplemented access for the caller of Step().
func (s *S32X) recordFault(description string, address uint32) {
	if s.fault == nil {
		s.fault = curated.Errorf(hardware.NotImplemented, curated.Errorf("s32x: %s %06x", description, address))
	}
}

// Snapshot encodes the adapter state.
func (s *S32X) Snapshot(enc *savestate.Encoder) {
	s.Registers.Snapshot(enc)
	s.PWM.Snapshot(enc)
	enc.PutBytes(s.sdram)
	enc.PutUint64(s.totalSteps)
}

// Restore decodes the adapter state.
func (s *S32X) Restore(dec *savestate.Decoder) {
	s.Registers.Restore(dec)
	s.PWM.Restore(dec)
	dec.BytesInto(s.sdram)
	s.totalSteps = dec.Uint64()
}

// SH2Bus is the transient bus capability for one of the SH-2s.
type SH2Bus struct {
	s32x  *S32X
	Which WhichCPU
}

// Read8 implements the bus.Interface interface.
func (b SH2Bus) Read8(address uint32) uint8 {
	word := b.Read16(address &^ 1)
	if address&0x01 == 0 {
		return uint8(word >> 8)
	}
	return uint8(word)
}

// Read16 implements the bus.Interface interface.
func (b SH2Bus) Read16(address uint32) uint16 {
	s := b.s32x

	switch {
	case address < 0x00004000:
		// boot ROM region; the cartridge vectors serve in its place
		a := address % uint32(len(s.rom))
		return uint16(s.rom[a&^1])<<8 | uint16(s.rom[a|1])

	case address >= 0x00004000 && address < 0x00004030:
		if address >= 0x00004020 || address < 0x00004010 {
			return s.Registers.SH2Read(address, b.Which)
		}
		return s.PWM.ReadRegister(address)

	case address >= 0x02000000 && address < 0x02400000:
		// cartridge ROM
		a := (address & 0x3fffff) % uint32(len(s.rom))
		return uint16(s.rom[a&^1])<<8 | uint16(s.rom[a|1])

	case address >= 0x06000000 && address < 0x06040000:
		a := address & (sdramLen - 1) &^ 1
		return uint16(s.sdram[a])<<8 | uint16(s.sdram[a+1])
	}

	s.recordFault("sh2 read word", address)
	return 0
}

// Write8 implements the bus.Interface interface.
func (b SH2Bus) Write8(address uint32, data uint8) {
	s := b.s32x

	if address >= 0x06000000 && address < 0x06040000 {
		s.sdram[address&(sdramLen-1)] = data
		return
	}

	s.recordFault("sh2 write byte", address)
}

// Write16 implements the bus.Interface interface.
func (b SH2Bus) Write16(address uint32, data uint16) {
	s := b.s32x

	switch {
	case address >= 0x00004000 && address < 0x00004030:
		if address >= 0x00004020 || address < 0x00004010 {
			s.Registers.SH2Write(address, data, b.Which)
		} else {
			s.PWM.WriteRegister(address, data)
		}
		return

	case address >= 0x06000000 && address < 0x06040000:
		a := address & (sdramLen - 1) &^ 1
		s.sdram[a] = uint8(data >> 8)
		s.sdram[a+1] = uint8(data)
		return
	}

	// longword stores decompose to word writes in the SH-2 core; a word
	// write landing here is the unmapped case the upstream left open
	s.recordFault("sh2 write word", address)
}

// Idle implements the bus.Interface interface.
func (b SH2Bus) Idle(cycles uint64) {
}

// InterruptLevel implements the bus.Interface interface.
func (b SH2Bus) InterruptLevel() int {
	return b.s32x.Registers.irqFor(b.Which).pendingLevel()
}

// M68KBus is the 68000's view of the adapter, used by the owning Genesis
// when the 32X is attached.
type M68KBus struct {
	S32X *S32X
}

// the 68000 vector table image presented while the adapter is enabled
var m68kVectors = func() []uint8 {
	v := make([]uint8, 256)
	for i := range v {
		// every vector points at the adapter trampoline at $880800
		if i%4 == 0 {
			v[i] = 0x00
		} else if i%4 == 1 {
			v[i] = 0x88
		} else if i%4 == 2 {
			v[i] = 0x08
		}
	}
	return v
}()

// Read8 implements the bus.Interface interface.
func (b M68KBus) Read8(address uint32) uint8 {
	s := b.S32X

	switch {
	case address < 0x100:
		if s.Registers.AdapterEnabled {
			return m68kVectors[address]
		}
		return b.romByte(address)

	case address < 0x400000:
		return b.romByte(address)

	case address >= 0xa15100 && address < 0xa15130:
		word := s.Registers.M68KRead(address &^ 1)
		if address&0x01 == 0 {
			return uint8(word >> 8)
		}
		return uint8(word)
	}

	// the upstream implementation has todo!() here: byte reads of the
	// remaining adapter space are not implemented, and say so
	s.recordFault("m68k read byte", address)
	return 0
}

func (b M68KBus) romByte(address uint32) uint8 {
	if int(address) < len(b.S32X.rom) {
		return b.S32X.rom[address]
	}
	return bus.OpenBus
}

// Read16 implements the bus.Interface interface.
func (b M68KBus) Read16(address uint32) uint16 {
	s := b.S32X

	switch {
	case address < 0x400000:
		return uint16(b.Read8(address))<<8 | uint16(b.Read8(address+1))

	case address >= 0xa15100 && address < 0xa15130:
		return s.Registers.M68KRead(address)

	// the 32X identifier
	case address == 0xa130ec:
		return uint16('M')<<8 | uint16('A')
	case address == 0xa130ee:
		return uint16('R')<<8 | uint16('S')
	}

	s.recordFault("m68k read word", address)
	return 0
}

// Write8 implements the bus.Interface interface.
func (b M68KBus) Write8(address uint32, data uint8) {
	s := b.S32X

	if address >= 0xa15100 && address < 0xa15130 {
		word := s.Registers.M68KRead(address &^ 1)
		if address&0x01 == 0 {
			word = uint16(data)<<8 | word&0x00ff
		} else {
			word = word&0xff00 | uint16(data)
		}
		s.Registers.M68KWrite(address&^1, word)
		return
	}

	s.recordFault("m68k write byte", address)
}

// Write16 implements the bus.Interface interface.
func (b M68KBus) Write16(address uint32, data uint16) {
	s := b.S32X

	switch {
	case address < 0x400000:
		// ROM writes are accepted and dropped
		return

	case address >= 0xa15100 && address < 0xa15130:
		s.Registers.M68KWrite(address, data)
		return

	case address >= 0xa15130 && address < 0xa15140:
		s.PWM.WriteRegister(address, data)
		return
	}

	s.recordFault("m68k write word", address)
}

// Idle implements the bus.Interface interface.
func (b M68KBus) Idle(cycles uint64) {
}

// InterruptLevel implements the bus.Interface interface. The adapter does
// not interrupt the 68000 directly.
func (b M68KBus) InterruptLevel() int {
	return -1
}
