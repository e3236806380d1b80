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

package sm83_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/hardware/cpu/sm83"
	"github.com/jetsetilly/gophergen/test"
)

// program assembles the bytes at 0x0100, the SM83 reset PC, and returns a
// fresh CPU and stub bus
func program(bytes ...uint8) (*sm83.CPU, *bus.Stub) {
	stub := bus.NewStub(0x10000)
	copy(stub.Mem[0x0100:], bytes)
	return sm83.NewCPU(), stub
}

func TestLoadImmediate(t *testing.T) {
	cpu, mem := program(0x3e, 0x42) // LD A,0x42
	cycles := cpu.Step(mem)
	test.ExpectEquality(t, cycles, uint64(8))
	test.ExpectEquality(t, cpu.A, uint8(0x42))
	test.ExpectEquality(t, cpu.PC, uint16(0x0102))
}

func TestRegisterToRegister(t *testing.T) {
	cpu, mem := program(0x41) // LD B,C
	cpu.B = 0x00
	cpu.C = 0x99
	cpu.Step(mem)
	test.ExpectEquality(t, cpu.B, uint8(0x99))
}

func TestAddCarryHalfCarry(t *testing.T) {
	cpu, mem := program(0xc6, 0x0f, 0xc6, 0xf0, 0xc6, 0x01) // ADD A,n ×3
	cpu.A = 0x01

	cpu.Step(mem) // 0x01 + 0x0f = 0x10, half carry
	test.ExpectEquality(t, cpu.A, uint8(0x10))
	test.ExpectEquality(t, cpu.F&sm83.FlagH, uint8(sm83.FlagH))
	test.ExpectEquality(t, cpu.F&sm83.FlagC, uint8(0))

	cpu.Step(mem) // 0x10 + 0xf0 = 0x00, carry and zero
	test.ExpectEquality(t, cpu.A, uint8(0x00))
	test.ExpectEquality(t, cpu.F&sm83.FlagZ, uint8(sm83.FlagZ))
	test.ExpectEquality(t, cpu.F&sm83.FlagC, uint8(sm83.FlagC))

	cpu.Step(mem) // ADC not used: plain ADD ignores carry
	test.ExpectEquality(t, cpu.A, uint8(0x01))
}

func TestIndirectHL(t *testing.T) {
	cpu, mem := program(0x34) // INC (HL)
	cpu.SetHL(0xc000)
	mem.Mem[0xc000] = 0x0f

	cycles := cpu.Step(mem)
	test.ExpectEquality(t, cycles, uint64(12))
	test.ExpectEquality(t, mem.Mem[0xc000], uint8(0x10))
	test.ExpectEquality(t, cpu.F&sm83.FlagH, uint8(sm83.FlagH))
}

func TestConditionalJump(t *testing.T) {
	// JR NZ,-3 spins until B decrements to zero
	cpu, mem := program(0x05, 0x20, 0xfd) // DEC B; JR NZ,-3
	cpu.B = 3

	var cycles uint64
	for i := 0; i < 6; i++ {
		cycles += cpu.Step(mem)
	}

	// DEC(4)+JRtaken(12) twice, then DEC to zero (4) and the JR not taken
	// (8) falls through
	test.ExpectEquality(t, cpu.B, uint8(0))
	test.ExpectEquality(t, cycles, uint64(4+12+4+12+4+8))
	test.ExpectEquality(t, cpu.PC, uint16(0x0103))
}

func TestCallRet(t *testing.T) {
	cpu, mem := program(0xcd, 0x00, 0x20) // CALL 0x2000
	mem.Mem[0x2000] = 0xc9                // RET
	cpu.SP = 0xfffe

	cpu.Step(mem)
	test.ExpectEquality(t, cpu.PC, uint16(0x2000))
	test.ExpectEquality(t, cpu.SP, uint16(0xfffc))

	cpu.Step(mem)
	test.ExpectEquality(t, cpu.PC, uint16(0x0103))
	test.ExpectEquality(t, cpu.SP, uint16(0xfffe))
}

func TestPushPop(t *testing.T) {
	cpu, mem := program(0xc5, 0xf1) // PUSH BC; POP AF
	cpu.SetBC(0x12ff)

	cpu.Step(mem)
	cpu.Step(mem)

	// the low nibble of F never holds bits
	test.ExpectEquality(t, cpu.AF(), uint16(0x12f0))
}

func TestCBOperations(t *testing.T) {
	cpu, mem := program(
		0xcb, 0x37, // SWAP A
		0xcb, 0x40, // BIT 0,B
		0xcb, 0xc0, // SET 0,B
		0xcb, 0x80, // RES 0,B
	)
	cpu.A = 0xf0
	cpu.B = 0x00

	cpu.Step(mem)
	test.ExpectEquality(t, cpu.A, uint8(0x0f))

	cpu.Step(mem)
	test.ExpectEquality(t, cpu.F&sm83.FlagZ, uint8(sm83.FlagZ))

	cpu.Step(mem)
	test.ExpectEquality(t, cpu.B, uint8(0x01))

	cpu.Step(mem)
	test.ExpectEquality(t, cpu.B, uint8(0x00))
}

func TestDAA(t *testing.T) {
	// 0x15 + 0x27 = 0x3c, DAA corrects to 0x42
	cpu, mem := program(0xc6, 0x27, 0x27) // ADD A,0x27; DAA
	cpu.A = 0x15

	cpu.Step(mem)
	cpu.Step(mem)
	test.ExpectEquality(t, cpu.A, uint8(0x42))
}

func TestInterruptDispatch(t *testing.T) {
	cpu, mem := program(0xfb, 0x00, 0x00) // EI; NOP; NOP
	mem.Mem[0xff0f] = 0x01                // vblank pending

	// EI: IME not yet raised
	cpu.Step(mem)

	// the EI delay: this instruction runs before the interrupt is taken
	mem.Interrupt = 0
	cpu.Step(mem)
	test.ExpectEquality(t, cpu.PC, uint16(0x0102))

	// now the dispatch
	cycles := cpu.Step(mem)
	test.ExpectEquality(t, cycles, uint64(20))
	test.ExpectEquality(t, cpu.PC, uint16(0x0040))
	test.ExpectEquality(t, cpu.IME, false)

	// the IF bit was acknowledged through the bus
	test.ExpectEquality(t, mem.Mem[0xff0f], uint8(0x00))
}

func TestHaltWake(t *testing.T) {
	cpu, mem := program(0x76, 0x00) // HALT; NOP

	cpu.Step(mem)
	test.ExpectEquality(t, cpu.Halted, true)

	// halted steps idle for one machine cycle
	cycles := cpu.Step(mem)
	test.ExpectEquality(t, cycles, uint64(4))
	test.ExpectEquality(t, mem.IdleCycles, uint64(1))

	// a pending interrupt wakes the CPU even with IME clear
	mem.Interrupt = 2
	cpu.Step(mem)
	test.ExpectEquality(t, cpu.Halted, false)
	test.ExpectEquality(t, cpu.PC, uint16(0x0102))
}

func TestAddSPe(t *testing.T) {
	cpu, mem := program(0xe8, 0xfe) // ADD SP,-2
	cpu.SP = 0xfffe

	cpu.Step(mem)
	test.ExpectEquality(t, cpu.SP, uint16(0xfffc))
}
