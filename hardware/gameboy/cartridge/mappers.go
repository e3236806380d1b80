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

package cartridge

import (
	"github.com/jetsetilly/gophergen/logger"
	"github.com/jetsetilly/gophergen/savestate"
)

// basicMapROMAddress is the ROM translation shared by the MBC2, MBC3, MBC5
// and HuC-3: the first 16KB of ROM is always mapped at $0000-$3fff and the
// selected bank at $4000-$7fff. Mappers that cannot select bank zero into
// the upper window read it as bank one. Out-of-range banks wrap through the
// power-of-two address mask.
func basicMapROMAddress(address uint16, romBank uint32, allowBank0 bool, romAddrMask uint32) uint32 {
	if address < 0x4000 {
		return uint32(address)
	}

	if !allowBank0 && romBank == 0 {
		romBank = 1
	}
	return (romBank<<14 | uint32(address&0x3fff)) & romAddrMask
}

// basicMapRAMAddress is the RAM translation shared by the MBC3, MBC5 and HuC-3:
// an 8KB window banked by the RAM bank register, gated by the enable latch.
func basicMapRAMAddress(ramEnabled bool, address uint16, ramBank uint32, ramAddrMask uint32) (uint32, bool) {
	if !ramEnabled {
		return 0, false
	}
	return (ramBank<<13 | uint32(address&0x1fff)) & ramAddrMask, true
}

// simple is the mapper-less cartridge: ROM offset equals the CPU address
// masked to the ROM size. No RAM.
type simple struct {
	romAddrMask uint32
}

func newSimple(romLen uint32) *simple {
	return &simple{romAddrMask: romLen - 1}
}

func (m *simple) MapROMAddress(address uint16) (uint32, bool) {
	return uint32(address) & m.romAddrMask, true
}

func (m *simple) MapRAMAddress(address uint16) (uint32, bool) {
	return 0, false
}

func (m *simple) WriteControl(address uint16, data uint8) {}
func (m *simple) Tick(cpuCycles uint64)                   {}
func (m *simple) Reset()                                  {}
func (m *simple) Snapshot(enc *savestate.Encoder)         {}
func (m *simple) Restore(dec *savestate.Decoder)          {}

// mbc1 has a 5-bit ROM bank register, a 2-bit register shared between high
// ROM bank bits and RAM banking, a RAM enable latch and a banking mode bit.
type mbc1 struct {
	romBank     uint8
	romAddrMask uint32
	ramBank     uint8
	ramAddrMask uint32
	ramEnabled  bool

	// the "complex" banking mode reroutes the 2-bit register. it is not
	// implemented (see DESIGN.md); the mode bit is tracked and the
	// condition logged
	complexMode       bool
	complexModeLogged bool
}

func newMBC1(romLen uint32, ramLen uint32) *mbc1 {
	var ramMask uint32
	if ramLen > 0 {
		ramMask = ramLen - 1
	}
	return &mbc1{
		romAddrMask: romLen - 1,
		ramAddrMask: ramMask,
	}
}

func (m *mbc1) MapROMAddress(address uint16) (uint32, bool) {
	if address < 0x4000 {
		// always the first 16KB of ROM
		return uint32(address & 0x3fff), true
	}

	// the selected bank cannot read as bank zero: a zero selector maps to
	// bank one
	bank := uint32(m.romBank)
	if bank&0x1f == 0 {
		bank = 1
	}
	return (bank<<14 | uint32(address&0x3fff)) & m.romAddrMask, true
}

func (m *mbc1) MapRAMAddress(address uint16) (uint32, bool) {
	if !m.ramEnabled || m.ramAddrMask == 0 {
		return 0, false
	}

	// RAM is not banked in simple mode. complex mode would bank it through
	// the 2-bit register; unimplemented, so the simple mapping stands
	return uint32(address&0x1fff) & m.ramAddrMask, true
}

func (m *mbc1) WriteControl(address uint16, data uint8) {
	switch {
	case address < 0x2000:
		m.ramEnabled = data&0x0f == 0x0a
	case address < 0x4000:
		m.romBank = m.romBank&0xe0 | data&0x1f
	case address < 0x6000:
		m.romBank = m.romBank&0x1f | (data&0x03)<<5
		m.ramBank = data & 0x03
	default:
		m.complexMode = data&0x01 != 0
		if m.complexMode && !m.complexModeLogged {
			logger.Log("mbc1", "complex banking mode selected but not implemented")
			m.complexModeLogged = true
		}
	}
}

func (m *mbc1) Tick(cpuCycles uint64) {}

func (m *mbc1) Reset() {
	m.romBank = 0
	m.ramBank = 0
	m.ramEnabled = false
	m.complexMode = false
}

func (m *mbc1) Snapshot(enc *savestate.Encoder) {
	enc.PutUint8(m.romBank)
	enc.PutUint8(m.ramBank)
	enc.PutBool(m.ramEnabled)
	enc.PutBool(m.complexMode)
}

func (m *mbc1) Restore(dec *savestate.Decoder) {
	m.romBank = dec.Uint8()
	m.ramBank = dec.Uint8()
	m.ramEnabled = dec.Bool()
	m.complexMode = dec.Bool()
}

// MBC2 RAM is 512 nibbles, fitted inside the mapper chip itself.
const MBC2RAMLen = 512

// mbc2 has a 4-bit ROM bank register and the internal nibble RAM. address
// bit 8 of a control write selects between the RAM enable latch and the
// bank register.
type mbc2 struct {
	romBank     uint8
	romAddrMask uint32
	ram         []uint8
	ramEnabled  bool
}

func newMBC2(romLen uint32) *mbc2 {
	return &mbc2{
		romAddrMask: romLen - 1,
		ram:         make([]uint8, MBC2RAMLen),
	}
}

func (m *mbc2) MapROMAddress(address uint16) (uint32, bool) {
	return basicMapROMAddress(address, uint32(m.romBank), false, m.romAddrMask), true
}

func (m *mbc2) MapRAMAddress(address uint16) (uint32, bool) {
	// the nibble RAM is reached through readRAM/writeRAM
	return 0, false
}

func (m *mbc2) readRAM(address uint16, sram []uint8) uint8 {
	if !m.ramEnabled {
		return 0xff
	}

	// nibble-sized RAM: the high nibble reads as zero
	return m.ram[address&0x1ff] & 0x0f
}

func (m *mbc2) writeRAM(address uint16, data uint8, sram []uint8) bool {
	if !m.ramEnabled {
		return false
	}

	m.ram[address&0x1ff] = data & 0x0f
	return true
}

func (m *mbc2) WriteControl(address uint16, data uint8) {
	// both registers answer only in $0000-$3fff
	if address >= 0x4000 {
		return
	}

	if address&0x0100 == 0 {
		m.ramEnabled = data == 0x0a
	} else {
		m.romBank = data & 0x0f
	}
}

func (m *mbc2) Tick(cpuCycles uint64) {}

func (m *mbc2) Reset() {
	m.romBank = 0
	m.ramEnabled = false
}

func (m *mbc2) Snapshot(enc *savestate.Encoder) {
	enc.PutUint8(m.romBank)
	enc.PutBool(m.ramEnabled)
	enc.PutBytes(m.ram)
}

func (m *mbc2) Restore(dec *savestate.Decoder) {
	m.romBank = dec.Uint8()
	m.ramEnabled = dec.Bool()
	dec.BytesInto(m.ram)
}

// mbc3 has a 7-bit ROM bank register and a 2-bit RAM bank register. The
// RTC registers are not modelled: a write of $08-$0c to the RAM bank
// register is masked to two bits and selects a RAM bank. The RTC latch
// register is not implemented; writes to it are logged, matching the state
// of the upstream implementation this is modelled on.
type mbc3 struct {
	romBank     uint8
	romAddrMask uint32
	ramBank     uint8
	ramAddrMask uint32
	ramEnabled  bool

	rtcLatchLogged bool
}

func newMBC3(romLen uint32, ramLen uint32) *mbc3 {
	var ramMask uint32
	if ramLen > 0 {
		ramMask = ramLen - 1
	}
	return &mbc3{
		romAddrMask: romLen - 1,
		ramAddrMask: ramMask,
	}
}

func (m *mbc3) MapROMAddress(address uint16) (uint32, bool) {
	return basicMapROMAddress(address, uint32(m.romBank), false, m.romAddrMask), true
}

func (m *mbc3) MapRAMAddress(address uint16) (uint32, bool) {
	if m.ramAddrMask == 0 {
		return 0, false
	}
	return basicMapRAMAddress(m.ramEnabled, address, uint32(m.ramBank), m.ramAddrMask)
}

func (m *mbc3) WriteControl(address uint16, data uint8) {
	switch {
	case address < 0x2000:
		m.ramEnabled = data&0x0f == 0x0a
	case address < 0x4000:
		m.romBank = data & 0x7f
	case address < 0x6000:
		m.ramBank = data & 0x03
	default:
		if !m.rtcLatchLogged {
			logger.Log("mbc3", "write to unimplemented RTC latch")
			m.rtcLatchLogged = true
		}
	}
}

func (m *mbc3) Tick(cpuCycles uint64) {}

func (m *mbc3) Reset() {
	m.romBank = 0
	m.ramBank = 0
	m.ramEnabled = false
}

func (m *mbc3) Snapshot(enc *savestate.Encoder) {
	enc.PutUint8(m.romBank)
	enc.PutUint8(m.ramBank)
	enc.PutBool(m.ramEnabled)
}

func (m *mbc3) Restore(dec *savestate.Decoder) {
	m.romBank = dec.Uint8()
	m.ramBank = dec.Uint8()
	m.ramEnabled = dec.Bool()
}

// mbc5 has a 9-bit ROM bank register split over two control windows and a
// 4-bit RAM bank register. As on the HuC-3, bank zero can be selected into
// the upper window.
type mbc5 struct {
	romBank     uint16
	romAddrMask uint32
	ramBank     uint8
	ramAddrMask uint32
	ramEnabled  bool
}

func newMBC5(romLen uint32, ramLen uint32) *mbc5 {
	var ramMask uint32
	if ramLen > 0 {
		ramMask = ramLen - 1
	}
	return &mbc5{
		romAddrMask: romLen - 1,
		ramAddrMask: ramMask,
	}
}

func (m *mbc5) MapROMAddress(address uint16) (uint32, bool) {
	return basicMapROMAddress(address, uint32(m.romBank), true, m.romAddrMask), true
}

func (m *mbc5) MapRAMAddress(address uint16) (uint32, bool) {
	if m.ramAddrMask == 0 {
		return 0, false
	}
	return basicMapRAMAddress(m.ramEnabled, address, uint32(m.ramBank), m.ramAddrMask)
}

func (m *mbc5) WriteControl(address uint16, data uint8) {
	switch {
	case address < 0x2000:
		m.ramEnabled = data&0x0f == 0x0a
	case address < 0x3000:
		m.romBank = m.romBank&0xff00 | uint16(data)
	case address < 0x4000:
		m.romBank = m.romBank&0x00ff | uint16(data&0x01)<<8
	case address < 0x6000:
		m.ramBank = data & 0x0f
	default:
		// no register here
	}
}

func (m *mbc5) Tick(cpuCycles uint64) {}

func (m *mbc5) Reset() {
	m.romBank = 0
	m.ramBank = 0
	m.ramEnabled = false
}

func (m *mbc5) Snapshot(enc *savestate.Encoder) {
	enc.PutUint16(m.romBank)
	enc.PutUint8(m.ramBank)
	enc.PutBool(m.ramEnabled)
}

func (m *mbc5) Restore(dec *savestate.Decoder) {
	m.romBank = dec.Uint16()
	m.ramBank = dec.Uint8()
	m.ramEnabled = dec.Bool()
}
