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

package sm83

import (
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/savestate"
)

// interrupt vector table. the bus's InterruptLevel() indexes into this
var interruptVectors = [5]uint16{0x0040, 0x0048, 0x0050, 0x0058, 0x0060}

// the address of the interrupt flag register. dispatching an interrupt
// acknowledges it by clearing the corresponding IF bit through the bus
const addrIF = 0xff0f

// CPU is the SM83, the Game Boy CPU core. One call to Step() executes one
// instruction (or one interrupt dispatch) against the supplied bus
// capability and returns the number of master-clock cycles consumed,
// including any wait states the bus imposed.
//
// The CPU never stores the bus reference; a fresh capability arrives with
// every Step().
type CPU struct {
	Registers

	// interrupt master enable. EI raises IME after the *following*
	// instruction; the delay is modelled with imePending
	IME        bool
	imePending bool

	// Halted is set by the HALT instruction and cleared by any pending
	// interrupt, whether or not IME is set
	Halted bool

	// executing HALT with IME clear and an interrupt already pending causes
	// the next instruction's first byte to be read twice
	haltBug bool
}

// NewCPU creates an SM83 in the post-boot-ROM state.
func NewCPU() *CPU {
	cpu := &CPU{}
	cpu.Reset()
	return cpu
}

// Reset the CPU to the state left by the original DMG boot ROM.
func (cpu *CPU) Reset() {
	cpu.Registers = Registers{
		A: 0x01, F: 0xb0,
		B: 0x00, C: 0x13,
		D: 0x00, E: 0xd8,
		H: 0x01, L: 0x4d,
		SP: 0xfffe,
		PC: 0x0100,
	}
	cpu.IME = false
	cpu.imePending = false
	cpu.Halted = false
	cpu.haltBug = false
}

// Step executes one instruction and returns the master-clock cycles it
// consumed. Interrupt dispatch, when it happens, takes the place of an
// instruction.
func (cpu *CPU) Step(mem bus.Interface) uint64 {
	// an EI from the previous instruction takes effect now, before the
	// interrupt check for this instruction
	if cpu.imePending {
		cpu.imePending = false
		cpu.IME = true
	} else if cpu.IME {
		if level := mem.InterruptLevel(); level >= 0 {
			return cpu.dispatchInterrupt(mem, level)
		}
	}

	if cpu.Halted {
		// a pending interrupt wakes the CPU even with IME clear; with IME
		// set the wake is handled by the dispatch above on the next step
		if mem.InterruptLevel() >= 0 {
			cpu.Halted = false
		} else {
			mem.Idle(1)
			return 4
		}
	}

	opcode := mem.Read8(uint32(cpu.PC))
	if cpu.haltBug {
		cpu.haltBug = false
	} else {
		cpu.PC++
	}

	return cpu.execute(mem, opcode)
}

func (cpu *CPU) dispatchInterrupt(mem bus.Interface, level int) uint64 {
	cpu.IME = false
	cpu.Halted = false

	// acknowledge: clear the IF bit for the dispatched level
	flags := mem.Read8(addrIF)
	mem.Write8(addrIF, flags&^(1<<uint(level)))

	cpu.push16(mem, cpu.PC)
	cpu.PC = interruptVectors[level]

	return 20
}

// fetch the byte at PC and advance
func (cpu *CPU) fetch8(mem bus.Interface) uint8 {
	v := mem.Read8(uint32(cpu.PC))
	cpu.PC++
	return v
}

func (cpu *CPU) fetch16(mem bus.Interface) uint16 {
	lo := cpu.fetch8(mem)
	hi := cpu.fetch8(mem)
	return uint16(hi)<<8 | uint16(lo)
}

func (cpu *CPU) read16(mem bus.Interface, addr uint16) uint16 {
	lo := mem.Read8(uint32(addr))
	hi := mem.Read8(uint32(addr + 1))
	return uint16(hi)<<8 | uint16(lo)
}

func (cpu *CPU) write16(mem bus.Interface, addr uint16, v uint16) {
	mem.Write8(uint32(addr), uint8(v))
	mem.Write8(uint32(addr+1), uint8(v>>8))
}

func (cpu *CPU) push16(mem bus.Interface, v uint16) {
	cpu.SP -= 2
	cpu.write16(mem, cpu.SP, v)
}

func (cpu *CPU) pop16(mem bus.Interface) uint16 {
	v := cpu.read16(mem, cpu.SP)
	cpu.SP += 2
	return v
}

// Snapshot encodes the CPU state.
func (cpu *CPU) Snapshot(enc *savestate.Encoder) {
	enc.PutUint8(cpu.A)
	enc.PutUint8(cpu.F)
	enc.PutUint8(cpu.B)
	enc.PutUint8(cpu.C)
	enc.PutUint8(cpu.D)
	enc.PutUint8(cpu.E)
	enc.PutUint8(cpu.H)
	enc.PutUint8(cpu.L)
	enc.PutUint16(cpu.SP)
	enc.PutUint16(cpu.PC)
	enc.PutBool(cpu.IME)
	enc.PutBool(cpu.imePending)
	enc.PutBool(cpu.Halted)
	enc.PutBool(cpu.haltBug)
}

// Restore decodes the CPU state.
func (cpu *CPU) Restore(dec *savestate.Decoder) {
	cpu.A = dec.Uint8()
	cpu.F = dec.Uint8()
	cpu.B = dec.Uint8()
	cpu.C = dec.Uint8()
	cpu.D = dec.Uint8()
	cpu.E = dec.Uint8()
	cpu.H = dec.Uint8()
	cpu.L = dec.Uint8()
	cpu.SP = dec.Uint16()
	cpu.PC = dec.Uint16()
	cpu.IME = dec.Bool()
	cpu.imePending = dec.Bool()
	cpu.Halted = dec.Bool()
	cpu.haltBug = dec.Bool()
}
