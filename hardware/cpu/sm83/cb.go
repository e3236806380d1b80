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
)

// the CB-prefixed page is entirely regular: two bits of group, three bits
// of sub-operation (or bit number), three bits of register operand.
func (cpu *CPU) executeCB(mem bus.Interface, opcode uint8) uint64 {
	idx := opcode & 0x07
	op := (opcode >> 3) & 0x07

	switch opcode >> 6 {
	case 0: // rotate/shift group
		v := cpu.getReg8(mem, idx)
		switch op {
		case 0:
			v = cpu.rlc(v)
		case 1:
			v = cpu.rrc(v)
		case 2:
			v = cpu.rl(v)
		case 3:
			v = cpu.rr(v)
		case 4:
			v = cpu.sla(v)
		case 5:
			v = cpu.sra(v)
		case 6:
			v = cpu.swap(v)
		case 7:
			v = cpu.srl(v)
		}
		cpu.setReg8(mem, idx, v)
		if idx == indirectHL {
			return 16
		}
		return 8

	case 1: // BIT b,r
		v := cpu.getReg8(mem, idx)
		cpu.setFlag(FlagZ, v&(1<<op) == 0)
		cpu.setFlag(FlagN, false)
		cpu.setFlag(FlagH, true)
		if idx == indirectHL {
			return 12
		}
		return 8

	case 2: // RES b,r
		cpu.setReg8(mem, idx, cpu.getReg8(mem, idx)&^(1<<op))
		if idx == indirectHL {
			return 16
		}
		return 8

	default: // SET b,r
		cpu.setReg8(mem, idx, cpu.getReg8(mem, idx)|1<<op)
		if idx == indirectHL {
			return 16
		}
		return 8
	}
}

// the rotate and shift primitives. all of them set Z from the result and
// clear N and H; the A-register forms in the main opcode page additionally
// clear Z afterwards

func (cpu *CPU) rlc(v uint8) uint8 {
	carry := v >> 7
	result := v<<1 | carry
	cpu.F = 0
	cpu.setFlag(FlagZ, result == 0)
	cpu.setFlag(FlagC, carry != 0)
	return result
}

func (cpu *CPU) rrc(v uint8) uint8 {
	carry := v & 0x01
	result := v>>1 | carry<<7
	cpu.F = 0
	cpu.setFlag(FlagZ, result == 0)
	cpu.setFlag(FlagC, carry != 0)
	return result
}

func (cpu *CPU) rl(v uint8) uint8 {
	var carryIn uint8
	if cpu.flag(FlagC) {
		carryIn = 1
	}
	result := v<<1 | carryIn
	cpu.F = 0
	cpu.setFlag(FlagZ, result == 0)
	cpu.setFlag(FlagC, v&0x80 != 0)
	return result
}

func (cpu *CPU) rr(v uint8) uint8 {
	var carryIn uint8
	if cpu.flag(FlagC) {
		carryIn = 0x80
	}
	result := v>>1 | carryIn
	cpu.F = 0
	cpu.setFlag(FlagZ, result == 0)
	cpu.setFlag(FlagC, v&0x01 != 0)
	return result
}

func (cpu *CPU) sla(v uint8) uint8 {
	result := v << 1
	cpu.F = 0
	cpu.setFlag(FlagZ, result == 0)
	cpu.setFlag(FlagC, v&0x80 != 0)
	return result
}

func (cpu *CPU) sra(v uint8) uint8 {
	result := v>>1 | v&0x80
	cpu.F = 0
	cpu.setFlag(FlagZ, result == 0)
	cpu.setFlag(FlagC, v&0x01 != 0)
	return result
}

func (cpu *CPU) swap(v uint8) uint8 {
	result := v<<4 | v>>4
	cpu.F = 0
	cpu.setFlag(FlagZ, result == 0)
	return result
}

func (cpu *CPU) srl(v uint8) uint8 {
	result := v >> 1
	cpu.F = 0
	cpu.setFlag(FlagZ, result == 0)
	cpu.setFlag(FlagC, v&0x01 != 0)
	return result
}
