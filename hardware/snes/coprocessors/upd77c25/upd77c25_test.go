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

package upd77c25

import (
	"testing"

	"github.com/jetsetilly/gophergen/test"
)

// tiny assembler helpers for the three opcode formats

func ldImm(value uint16, dst uint32) uint32 {
	return 3<<22 | uint32(value)<<6 | dst
}

func jp(brch uint32, na uint16) uint32 {
	return 2<<22 | brch<<13 | uint32(na)<<2
}

func op(aluOp uint32, pselect uint32, asl uint32, src uint32, dst uint32) uint32 {
	return pselect<<20 | aluOp<<16 | asl<<15 | src<<4 | dst
}

// build a ROM image from a program, little-endian
func buildROM(program ...uint32) []uint8 {
	rom := make([]uint8, 3*programROMLenOpcodes+2*dataROMLenWords)
	for i, opcode := range program {
		rom[i*3] = uint8(opcode)
		rom[i*3+1] = uint8(opcode >> 8)
		rom[i*3+2] = uint8(opcode >> 16)
	}
	return rom
}

// host-side read of the 16-bit data register: low byte then high byte
func readDR16(u *UPD77C25) uint16 {
	lo := u.ReadData()
	hi := u.ReadData()
	return uint16(hi)<<8 | uint16(lo)
}

func TestDataRegisterHandshake(t *testing.T) {
	u, err := New(buildROM(
		ldImm(0x1234, 0x6), // DR = 0x1234, raises RQM
		jp(0x0be, 1),       // spin while RQM: parks the core
		ldImm(0x5678, 0x6),
		jp(0x0be, 3),
	))
	test.ExpectSuccess(t, err)

	// two instructions in: the request is up and the core is idling
	u.Tick(8)
	test.ExpectEquality(t, u.ReadStatus()&0x80, uint8(0x80))
	test.ExpectSuccess(t, u.idling)

	test.ExpectEquality(t, readDR16(u), uint16(0x1234))
	test.ExpectEquality(t, u.ReadStatus()&0x80, uint8(0))

	// the read wakes the core; it produces the next value
	u.Tick(8)
	test.ExpectEquality(t, u.ReadStatus()&0x80, uint8(0x80))
	test.ExpectEquality(t, readDR16(u), uint16(0x5678))
}

func TestIdlePausesExecution(t *testing.T) {
	u, err := New(buildROM(
		ldImm(0x00aa, 0x6),
		jp(0x0be, 1),
	))
	test.ExpectSuccess(t, err)

	u.Tick(100)
	pc := u.pc
	u.Tick(100)

	// the core is parked on the spin; the program counter holds still
	test.ExpectEquality(t, u.pc, pc)
}

func TestALUAndAccumulator(t *testing.T) {
	u, err := New(buildROM(
		ldImm(0x0005, 0x1),          // A = 5
		ldImm(0x0003, 0xa),          // K = 3
		ldImm(0x0004, 0xd),          // L = 4
		op(0x5, 0x2, 0, 0x0, 0x0),   // A += M (high product word: 0 for small K*L)
		op(0x5, 0x3, 0, 0x0, 0x0),   // A += N (low product word: (3*4)<<1 = 24)
		op(0x0, 0x0, 0, 0x1, 0x6),   // DR = A
		jp(0x0be, 6),
	))
	test.ExpectSuccess(t, err)

	u.Tick(32)
	test.ExpectEquality(t, readDR16(u), uint16(5+24))
}

func TestStackDepth(t *testing.T) {
	u := &UPD77C25{}
	u.pushStack(0x10)
	u.pushStack(0x20)
	u.pushStack(0x30)
	u.pushStack(0x40)

	test.ExpectEquality(t, u.popStack(), uint16(0x40))
	test.ExpectEquality(t, u.popStack(), uint16(0x30))
	test.ExpectEquality(t, u.popStack(), uint16(0x20))
	test.ExpectEquality(t, u.popStack(), uint16(0x10))

	// the four-entry stack wraps rather than overflows
	u.pushStack(0x01)
	u.pushStack(0x02)
	u.pushStack(0x03)
	u.pushStack(0x04)
	u.pushStack(0x05)
	test.ExpectEquality(t, u.popStack(), uint16(0x05))
	test.ExpectEquality(t, u.popStack(), uint16(0x04))
}

func TestEndianDetection(t *testing.T) {
	rom := make([]uint8, 3*programROMLenOpcodes+2*dataROMLenWords)

	// little-endian signature: $97c00x stored low byte first
	for i := 0; i < 4; i++ {
		rom[i*3] = uint8(i << 2)
		rom[i*3+1] = 0xc0
		rom[i*3+2] = 0x97
	}
	test.ExpectSuccess(t, detectLittleEndian(rom))

	// big-endian: the same opcodes stored high byte first
	for i := 0; i < 4; i++ {
		rom[i*3] = 0x97
		rom[i*3+1] = 0xc0
		rom[i*3+2] = uint8(i << 2)
	}
	test.ExpectEquality(t, detectLittleEndian(rom), false)
}
