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
	"encoding/binary"

	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/hardware/eeprom"
	"github.com/jetsetilly/gophergen/logger"
	"github.com/jetsetilly/gophergen/savestate"
)

// ramType describes how cartridge RAM sits on the 68000's 16-bit bus: on
// both byte lanes, or on one lane only with the other reading open bus.
type ramType int

const (
	ramSixteenBit ramType = iota
	ramEightBitOddAddress
	ramEightBitEvenAddress
)

// cartridgeRAM is header-declared external RAM, possibly battery-backed.
type cartridgeRAM struct {
	ram         []uint8
	addressMask uint32
	kind        ramType
	persistent  bool
	dirty       bool

	startAddress uint32
	endAddress   uint32
}

// ramFromHeader parses the RA header block at $1b0. Returns nil if the
// header declares no RAM.
func ramFromHeader(rom []uint8, initial []uint8) *cartridgeRAM {
	if len(rom) < 0x1bc {
		return nil
	}
	h := rom[0x1b0:0x1bc]

	// "RA" then $f8/$20-style mode bytes
	if h[0] != 'R' || h[1] != 'A' || h[3] != 0x20 {
		return nil
	}

	var kind ramType
	var persistent bool
	switch h[2] {
	case 0xa0:
		kind, persistent = ramSixteenBit, false
	case 0xb0:
		kind, persistent = ramEightBitEvenAddress, false
	case 0xb8:
		kind, persistent = ramEightBitOddAddress, false
	case 0xe0:
		kind, persistent = ramSixteenBit, true
	case 0xf0:
		kind, persistent = ramEightBitEvenAddress, true
	case 0xf8:
		kind, persistent = ramEightBitOddAddress, true
	default:
		return nil
	}

	start := binary.BigEndian.Uint32(h[4:8])
	end := binary.BigEndian.Uint32(h[8:12])
	if end < start {
		return nil
	}

	var length uint32
	if kind == ramSixteenBit {
		length = end - start + 1
	} else {
		length = (end-start)/2 + 1
	}

	// round up to a power of two for the address mask
	size := uint32(1)
	for size < length {
		size <<= 1
	}

	ram := make([]uint8, size)
	if len(initial) == len(ram) {
		copy(ram, initial)
	}

	logger.Logf("genesis", "cartridge RAM: %d bytes at %06x-%06x, persistent=%v",
		length, start, end, persistent)

	return &cartridgeRAM{
		ram:          ram,
		addressMask:  size - 1,
		kind:         kind,
		persistent:   persistent,
		startAddress: start,
		endAddress:   end,
	}
}

// mapAddress translates a 68000 address into a RAM offset, respecting the
// byte lane the chip is wired to.
func (r *cartridgeRAM) mapAddress(address uint32) (uint32, bool) {
	if address < r.startAddress || address > r.endAddress {
		return 0, false
	}

	odd := address&0x01 != 0
	switch {
	case r.kind == ramSixteenBit:
		return address & r.addressMask, true
	case r.kind == ramEightBitOddAddress && odd,
		r.kind == ramEightBitEvenAddress && !odd:
		return (address >> 1) & r.addressMask, true
	}
	return 0, false
}

func (r *cartridgeRAM) readByte(address uint32) (uint8, bool) {
	offset, ok := r.mapAddress(address)
	if !ok {
		return bus.OpenBus, false
	}
	return r.ram[offset], true
}

func (r *cartridgeRAM) writeByte(address uint32, value uint8) {
	if offset, ok := r.mapAddress(address); ok {
		r.ram[offset] = value
		r.dirty = true
	}
}

func (r *cartridgeRAM) snapshot(enc *savestate.Encoder) {
	enc.PutBytes(r.ram)
	enc.PutBool(r.dirty)
}

func (r *cartridgeRAM) restore(dec *savestate.Decoder) {
	dec.BytesInto(r.ram)
	r.dirty = dec.Bool()
}

// eepromWiring describes how an EEPROM's serial lines are wired into the
// 68000 address space: one bit each for data in, data out and clock.
type eepromWiring struct {
	sdaInAddr  uint32
	sdaInBit   uint8
	sdaOutAddr uint32
	sdaOutBit  uint8
	sclAddr    uint32
	sclBit     uint8
}

// the known EEPROM games, identified by the header serial number at $183.
// the wiring differs per publisher board
var eepromGames = map[string]struct {
	kind   eeprom.Kind
	wiring eepromWiring
}{
	// Wonder Boy in Monster World
	"MK-01300 ": {eeprom.X24C01, eepromWiring{
		sdaInAddr: 0x200001, sdaInBit: 0,
		sdaOutAddr: 0x200001, sdaOutBit: 0,
		sclAddr: 0x200001, sclBit: 1,
	}},
	// Evander Holyfield's Real Deal Boxing
	"T-12046  ": {eeprom.X24C01, eepromWiring{
		sdaInAddr: 0x200001, sdaInBit: 0,
		sdaOutAddr: 0x200001, sdaOutBit: 0,
		sclAddr: 0x200001, sclBit: 1,
	}},
	// NBA Jam
	"T-081326 ": {eeprom.X24C02, eepromWiring{
		sdaInAddr: 0x200001, sdaInBit: 0,
		sdaOutAddr: 0x200001, sdaOutBit: 1,
		sclAddr: 0x200000, sclBit: 0,
	}},
}

// externalMemory is the cartridge's save memory: none, plain RAM, or a
// serial EEPROM. A closed set dispatched by the system root.
type externalMemory struct {
	ram    *cartridgeRAM
	chip   *eeprom.Chip
	wiring eepromWiring
}

// newExternalMemory inspects the ROM header for a RAM declaration or a
// known EEPROM serial number.
func newExternalMemory(rom []uint8, initialSave []uint8) externalMemory {
	if len(rom) >= 0x18c {
		serial := string(rom[0x183:0x18c])
		if game, ok := eepromGames[serial]; ok {
			logger.Logf("genesis", "EEPROM cartridge: serial %q", serial)
			return externalMemory{
				chip:   eeprom.NewChip(game.kind, initialSave),
				wiring: game.wiring,
			}
		}
	}

	return externalMemory{ram: ramFromHeader(rom, initialSave)}
}

// readByte services a 68000 byte read in the cartridge save window.
// The ok result is false if the address maps to nothing.
func (m *externalMemory) readByte(address uint32) (uint8, bool) {
	if m.chip != nil {
		if address == m.wiring.sdaOutAddr {
			var v uint8
			if m.chip.Read() {
				v = 1 << m.wiring.sdaOutBit
			}
			return v, true
		}
		return bus.OpenBus, false
	}

	if m.ram != nil {
		return m.ram.readByte(address)
	}

	return bus.OpenBus, false
}

// writeByte services a 68000 byte write in the cartridge save window.
func (m *externalMemory) writeByte(address uint32, value uint8) {
	if m.chip != nil {
		sameAddr := m.wiring.sdaInAddr == m.wiring.sclAddr

		if sameAddr && address == m.wiring.sdaInAddr {
			m.chip.Write(value&(1<<m.wiring.sdaInBit) != 0, value&(1<<m.wiring.sclBit) != 0)
			return
		}
		if address == m.wiring.sdaInAddr {
			m.chip.WriteData(value&(1<<m.wiring.sdaInBit) != 0)
		}
		if address == m.wiring.sclAddr {
			m.chip.WriteClock(value&(1<<m.wiring.sclBit) != 0)
		}
		return
	}

	if m.ram != nil {
		m.ram.writeByte(address, value)
	}
}

// dirty reports and clears the persistent-change flag.
func (m *externalMemory) dirty() bool {
	if m.chip != nil {
		return m.chip.DirtyAndClear()
	}
	if m.ram != nil && m.ram.persistent && m.ram.dirty {
		m.ram.dirty = false
		return true
	}
	return false
}

// persistentBlob returns the state to persist, or false if the cartridge
// has no persistent memory.
func (m *externalMemory) persistentBlob() ([]uint8, bool) {
	if m.chip != nil {
		blob := make([]uint8, len(m.chip.Memory()))
		copy(blob, m.chip.Memory())
		return blob, true
	}
	if m.ram != nil && m.ram.persistent {
		blob := make([]uint8, len(m.ram.ram))
		copy(blob, m.ram.ram)
		return blob, true
	}
	return nil, false
}

func (m *externalMemory) snapshot(enc *savestate.Encoder) {
	if m.chip != nil {
		m.chip.Snapshot(enc)
	}
	if m.ram != nil {
		m.ram.snapshot(enc)
	}
}

func (m *externalMemory) restore(dec *savestate.Decoder) {
	if m.chip != nil {
		m.chip.Restore(dec)
	}
	if m.ram != nil {
		m.ram.restore(dec)
	}
}
