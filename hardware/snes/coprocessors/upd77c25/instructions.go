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

// opcodes are 24 bits wide, in three formats selected by the top two bits:
// 00 is an ALU operation, 01 the same with a subroutine return, 10 a jump
// and 11 a load-immediate.

func (u *UPD77C25) execute(opcode uint32) {
	switch opcode >> 22 & 0x03 {
	case 0x00:
		u.executeOp(opcode, false)
	case 0x01:
		u.executeOp(opcode, true)
	case 0x02:
		u.executeJp(opcode)
	case 0x03:
		u.executeLd(opcode)
	}
	u.pc++
}

// the multiplier runs continuously: every instruction recomputes the
// 31-bit signed product of K and L, split into the M (high) and N (low)
// registers
func (u *UPD77C25) product() (m uint16, n uint16) {
	p := int32(int16(u.k)) * int32(int16(u.l)) << 1
	return uint16(uint32(p) >> 16), uint16(uint32(p))
}

// idb source decode, shared by the OP and RT formats
func (u *UPD77C25) readSource(src uint32) uint16 {
	switch src {
	case 0x0:
		return u.trb
	case 0x1:
		return u.accA
	case 0x2:
		return u.accB
	case 0x3:
		return u.tr
	case 0x4:
		return u.dp
	case 0x5:
		return u.rp
	case 0x6:
		return u.dataROM[u.rp&(dataROMLenWords-1)]
	case 0x7:
		// the sign register: 8000 or 7fff depending on flag S1 of A
		if u.flagsA.s1 {
			return 0x8000
		}
		return 0x7fff
	case 0x8:
		// reading DR from the core side completes the handshake
		u.requestForMaster = true
		return u.dr
	case 0x9:
		return u.dr
	case 0xa:
		return uint16(u.ReadStatus()) << 8
	case 0xd:
		return u.k
	case 0xe:
		return u.l
	case 0xf:
		return u.ram[u.dp&(ramLenWords-1)]
	}
	return 0
}

func (u *UPD77C25) writeDest(dst uint32, value uint16) {
	switch dst {
	case 0x0:
		// no destination
	case 0x1:
		u.accA = value
	case 0x2:
		u.accB = value
	case 0x3:
		u.tr = value
	case 0x4:
		u.dp = value
	case 0x5:
		u.rp = value
	case 0x6:
		// writing DR raises the request handshake
		u.dr = value
		u.requestForMaster = true
	case 0x7:
		u.userFlag1 = value&0x4000 != 0
		u.userFlag0 = value&0x2000 != 0
		u.drEightBit = value&0x0400 != 0
	case 0x8:
		u.so = value // SOL
	case 0x9:
		u.so = value // SOM
	case 0xa:
		u.k = value
	case 0xb:
		// K from IDB, L from data ROM
		u.k = value
		u.l = u.dataROM[u.rp&(dataROMLenWords-1)]
	case 0xc:
		// K from RAM (high bank), L from IDB
		u.k = u.ram[(u.dp|0x40)&(ramLenWords-1)]
		u.l = value
	case 0xd:
		u.l = value
	case 0xe:
		u.trb = value
	case 0xf:
		u.ram[u.dp&(ramLenWords-1)] = value
	}
}

func (u *UPD77C25) executeOp(opcode uint32, ret bool) {
	pselect := opcode >> 20 & 0x03
	aluOp := opcode >> 16 & 0x0f
	asl := opcode >> 15 & 0x01
	dpl := opcode >> 13 & 0x03
	dphm := opcode >> 9 & 0x0f
	rpdcr := opcode >> 8 & 0x01
	src := opcode >> 4 & 0x0f
	dst := opcode & 0x0f

	idb := u.readSource(src)

	if aluOp != 0 {
		var p uint16
		m, n := u.product()
		switch pselect {
		case 0x0:
			p = u.ram[u.dp&(ramLenWords-1)]
		case 0x1:
			p = idb
		case 0x2:
			p = m
		case 0x3:
			p = n
		}

		acc := &u.accA
		fl := &u.flagsA
		otherCarry := u.flagsB.c
		if asl == 1 {
			acc = &u.accB
			fl = &u.flagsB
			otherCarry = u.flagsA.c
		}

		q := *acc
		var r uint16
		var carry bool
		var overflowCapable bool

		switch aluOp {
		case 0x1: // OR
			r = q | p
		case 0x2: // AND
			r = q & p
		case 0x3: // XOR
			r = q ^ p
		case 0x4: // SUB
			r = q - p
			carry = q < p
			overflowCapable = true
		case 0x5: // ADD
			r = q + p
			carry = r < q
			overflowCapable = true
		case 0x6: // SBB: subtract with the other accumulator's borrow
			var b uint16
			if otherCarry {
				b = 1
			}
			r = q - p - b
			carry = uint32(q) < uint32(p)+uint32(b)
			overflowCapable = true
		case 0x7: // ADB: add with the other accumulator's carry
			var b uint16
			if otherCarry {
				b = 1
			}
			r = q + p + b
			carry = uint32(q)+uint32(p)+uint32(b) > 0xffff
			overflowCapable = true
		case 0x8: // DEC
			r = q - 1
			carry = q == 0
			overflowCapable = true
		case 0x9: // INC
			r = q + 1
			carry = q == 0xffff
			overflowCapable = true
		case 0xa: // CMP: one's complement
			r = ^q
		case 0xb: // SHR1: arithmetic shift right
			r = q>>1 | q&0x8000
			carry = q&0x01 != 0
		case 0xc: // SHL1
			r = q << 1
			if otherCarry {
				r |= 1
			}
			carry = q&0x8000 != 0
		case 0xd: // SHL2: shift left two, ones shifted in
			r = q<<2 | 0x03
			carry = q&0x4000 != 0
		case 0xe: // SHL4
			r = q<<4 | 0x0f
			carry = q&0x1000 != 0
		case 0xf: // XCHG: byte swap
			r = q>>8 | q<<8
		}

		fl.z = r == 0
		fl.s0 = r&0x8000 != 0
		fl.c = carry
		if overflowCapable {
			// ov0 is plain signed overflow; ov1 and s1 fold in the
			// saturation history used by the sign register
			ov := (q^r)&(p^r^0x8000)&0x8000 != 0
			if aluOp == 0x4 || aluOp == 0x6 || aluOp == 0x8 {
				ov = (q^r)&(p^q)&0x8000 != 0
			}
			fl.ov0 = ov
			if ov {
				fl.ov1 = !fl.ov1
				fl.s1 = fl.ov1 != (r&0x8000 != 0)
			}
		} else {
			fl.ov0 = false
		}

		*acc = r
	}

	u.writeDest(dst, idb)

	// pointer adjustments happen after the data movement
	switch dpl {
	case 0x1:
		u.dp = u.dp&0xfff0 | (u.dp+1)&0x000f
	case 0x2:
		u.dp = u.dp&0xfff0 | (u.dp-1)&0x000f
	case 0x3:
		u.dp &= 0xfff0
	}
	u.dp ^= uint16(dphm) << 4

	if rpdcr == 1 {
		u.rp--
	}

	if ret {
		u.pc = u.popStack() - 1
	}
}

// jump condition codes
func (u *UPD77C25) executeJp(opcode uint32) {
	brch := opcode >> 13 & 0x1ff
	na := uint16(opcode >> 2 & 0x7ff)

	// the address of this instruction, for self-jump detection
	self := u.pc

	jump := false
	switch brch {
	case 0x100: // JMP
		jump = true
	case 0x140: // CALL
		u.pushStack(u.pc + 1)
		jump = true

	case 0x080: // JNCA
		jump = !u.flagsA.c
	case 0x082: // JCA
		jump = u.flagsA.c
	case 0x084: // JNCB
		jump = !u.flagsB.c
	case 0x086: // JCB
		jump = u.flagsB.c
	case 0x088: // JNZA
		jump = !u.flagsA.z
	case 0x08a: // JZA
		jump = u.flagsA.z
	case 0x08c: // JNZB
		jump = !u.flagsB.z
	case 0x08e: // JZB
		jump = u.flagsB.z
	case 0x090: // JNOVA0
		jump = !u.flagsA.ov0
	case 0x092: // JOVA0
		jump = u.flagsA.ov0
	case 0x094: // JNOVB0
		jump = !u.flagsB.ov0
	case 0x096: // JOVB0
		jump = u.flagsB.ov0
	case 0x098: // JNOVA1
		jump = !u.flagsA.ov1
	case 0x09a: // JOVA1
		jump = u.flagsA.ov1
	case 0x09c: // JNOVB1
		jump = !u.flagsB.ov1
	case 0x09e: // JOVB1
		jump = u.flagsB.ov1
	case 0x0a0: // JNSA0
		jump = !u.flagsA.s0
	case 0x0a2: // JSA0
		jump = u.flagsA.s0
	case 0x0a4: // JNSB0
		jump = !u.flagsB.s0
	case 0x0a6: // JSB0
		jump = u.flagsB.s0
	case 0x0a8: // JNSA1
		jump = !u.flagsA.s1
	case 0x0aa: // JSA1
		jump = u.flagsA.s1
	case 0x0ac: // JNSB1
		jump = !u.flagsB.s1
	case 0x0ae: // JSB1
		jump = u.flagsB.s1

	case 0x0b0: // JDPL0
		jump = u.dp&0x0f == 0x00
	case 0x0b1: // JDPLF
		jump = u.dp&0x0f == 0x0f
	case 0x0b2: // JNDPL0
		jump = u.dp&0x0f != 0x00
	case 0x0b3: // JNDPLF
		jump = u.dp&0x0f != 0x0f

	case 0x0b4: // JNSIAK; serial input not wired: never acknowledges
		jump = true
	case 0x0b6: // JSIAK
		jump = false
	case 0x0b8: // JNSOAK
		jump = true
	case 0x0ba: // JSOAK
		jump = false

	case 0x0bc: // JNRQM
		jump = !u.requestForMaster
	case 0x0be: // JRQM
		jump = u.requestForMaster
	}

	if jump {
		// pc increments after execute; land one short
		u.pc = na - 1
	}

	// the idle optimisation: a JRQM spin (jump-to-self waiting on the
	// master) parks the core until the host touches the data register
	if brch == 0x0be && jump && na == self {
		u.idling = true
	}
}

func (u *UPD77C25) executeLd(opcode uint32) {
	value := uint16(opcode >> 6)
	dst := opcode & 0x0f
	u.writeDest(dst, value)
}
