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

package nes

import (
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/savestate"
)

// Error patterns raised when a cartridge is created.
const (
	UnknownMapper     = "nes cartridge: unknown mapper %d"
	UnsupportedHeader = "nes cartridge: unsupported header: %v"
)

// nametable mirroring modes
type mirroring int

const (
	mirrorVertical mirroring = iota
	mirrorHorizontal
	mirrorSingleLow
	mirrorSingleHigh
)

// board is the mapper contract: PRG and CHR address translation plus
// control writes. A closed set selected by the iNES mapper number.
type board interface {
	readPRG(address uint16) uint8
	writePRG(address uint16, data uint8)
	mapCHRAddress(address uint16) uint32
	mirroring() mirroring
	snapshot(enc *savestate.Encoder)
	restore(dec *savestate.Decoder)
}

// Cartridge is a parsed iNES image with its board.
type Cartridge struct {
	prg []uint8
	chr []uint8

	// CHR RAM when the image carries no CHR ROM
	chrWritable bool

	board board
}

// NewCartridge parses an iNES image.
func NewCartridge(rom []uint8, initialSave []uint8) (*Cartridge, error) {
	if len(rom) < 16 || rom[0] != 'N' || rom[1] != 'E' || rom[2] != 'S' || rom[3] != 0x1a {
		return nil, curated.Errorf(UnsupportedHeader, "missing iNES magic")
	}

	prgLen := int(rom[4]) * 16 * 1024
	chrLen := int(rom[5]) * 8 * 1024
	if 16+prgLen+chrLen > len(rom) {
		return nil, curated.Errorf(UnsupportedHeader, "image shorter than the header claims")
	}

	mapperNumber := int(rom[6]>>4 | rom[7]&0xf0)

	vertical := rom[6]&0x01 != 0

	cart := &Cartridge{
		prg: rom[16 : 16+prgLen],
	}

	if chrLen > 0 {
		cart.chr = rom[16+prgLen : 16+prgLen+chrLen]
	} else {
		cart.chr = make([]uint8, 8*1024)
		cart.chrWritable = true
	}

	switch mapperNumber {
	case 0:
		cart.board = newNROM(cart.prg, vertical)
	case 1:
		cart.board = newMMC1(cart.prg, initialSave)
	case 16, 159:
		cart.board = newBandaiFCG(cart.prg, initialSave)
	default:
		return nil, curated.Errorf(UnknownMapper, mapperNumber)
	}

	return cart, nil
}

// ReadPRG services a CPU read in the cartridge range ($4020-$ffff).
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	return c.board.readPRG(address)
}

// WritePRG services a CPU write in the cartridge range.
func (c *Cartridge) WritePRG(address uint16, data uint8) {
	c.board.writePRG(address, data)
}

// ReadCHR services a PPU pattern-table read.
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	return c.chr[c.board.mapCHRAddress(address)%uint32(len(c.chr))]
}

// WriteCHR services a PPU pattern-table write (CHR RAM boards only).
func (c *Cartridge) WriteCHR(address uint16, data uint8) {
	if c.chrWritable {
		c.chr[c.board.mapCHRAddress(address)%uint32(len(c.chr))] = data
	}
}

// Mirroring returns the current nametable mirroring.
func (c *Cartridge) Mirroring() mirroring {
	return c.board.mirroring()
}

// PersistentSave returns the board's battery-backed state, or false.
func (c *Cartridge) PersistentSave() ([]uint8, bool) {
	switch b := c.board.(type) {
	case *mmc1:
		blob := make([]uint8, len(b.ram))
		copy(blob, b.ram)
		return blob, true
	case *bandaiFCG:
		blob := make([]uint8, len(b.chip.Memory()))
		copy(blob, b.chip.Memory())
		return blob, true
	}
	return nil, false
}

// Dirty reports whether persistent state changed since the last check.
func (c *Cartridge) Dirty() bool {
	switch b := c.board.(type) {
	case *mmc1:
		d := b.ramDirty
		b.ramDirty = false
		return d
	case *bandaiFCG:
		return b.chip.DirtyAndClear()
	}
	return false
}

// Snapshot encodes cartridge state.
func (c *Cartridge) Snapshot(enc *savestate.Encoder) {
	if c.chrWritable {
		enc.PutBytes(c.chr)
	}
	c.board.snapshot(enc)
}

// Restore decodes cartridge state.
func (c *Cartridge) Restore(dec *savestate.Decoder) {
	if c.chrWritable {
		dec.BytesInto(c.chr)
	}
	c.board.restore(dec)
}

// nrom is mapper 0: no banking at all.
type nrom struct {
	prg      []uint8
	vertical bool
}

func newNROM(prg []uint8, vertical bool) *nrom {
	return &nrom{prg: prg, vertical: vertical}
}

func (b *nrom) readPRG(address uint16) uint8 {
	if address < 0x8000 {
		return bus.OpenBus
	}
	return b.prg[int(address-0x8000)%len(b.prg)]
}

func (b *nrom) writePRG(address uint16, data uint8) {}

func (b *nrom) mapCHRAddress(address uint16) uint32 {
	return uint32(address) & 0x1fff
}

func (b *nrom) mirroring() mirroring {
	if b.vertical {
		return mirrorVertical
	}
	return mirrorHorizontal
}

func (b *nrom) snapshot(enc *savestate.Encoder) {}
func (b *nrom) restore(dec *savestate.Decoder)  {}
