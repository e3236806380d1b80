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

// Package sdd1 emulates the S-DD1 cartridge coprocessor: a four-slot
// memory controller over up to 8MB of ROM, and a graphics decompressor that
// feeds the S-CPU's DMA channels with decompressed tile data on demand.
package sdd1

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// MMC is the S-DD1's banking half: four 1MB views into ROM selected by the
// $4804-$4807 registers.
type MMC struct {
	banks [4]uint8
}

// NewMMC creates an MMC with the identity mapping.
func NewMMC() *MMC {
	return &MMC{banks: [4]uint8{0, 1, 2, 3}}
}

// WriteBank sets one of the four bank registers.
func (m *MMC) WriteBank(register int, value uint8) {
	m.banks[register&0x03] = value & 0x0f
}

// ReadBank returns one of the four bank registers.
func (m *MMC) ReadBank(register int) uint8 {
	return m.banks[register&0x03]
}

// MapROMAddress translates a 24-bit SNES address in the banked region
// ($c0-$ff) to a ROM offset. The ok result is false for addresses outside
// the mapped region or the ROM image.
func (m *MMC) MapROMAddress(address uint32, romLen uint32) (uint32, bool) {
	bank := address >> 16 & 0xff
	if bank < 0xc0 {
		// the fixed lower region maps linearly through $00-$3f:8000-ffff
		if address&0x8000 == 0 {
			return 0, false
		}
		offset := (bank&0x3f)<<15 | address&0x7fff
		return offset % romLen, true
	}

	slot := (bank - 0xc0) >> 4 & 0x03
	offset := uint32(m.banks[slot])<<20 | address&0x0fffff
	if offset >= romLen {
		offset %= romLen
	}
	return offset, true
}

func (m *MMC) snapshot(enc *savestate.Encoder) {
	for _, b := range m.banks {
		enc.PutUint8(b)
	}
}

func (m *MMC) restore(dec *savestate.Decoder) {
	for i := range m.banks {
		m.banks[i] = dec.Uint8()
	}
}

// SDD1 is the full coprocessor: the MMC, the decompressor, and the DMA
// trigger registers the S-CPU programs before starting a decompressed
// transfer.
type SDD1 struct {
	mmc          *MMC
	decompressor Decompressor

	// $4800: which DMA channels trigger decompression
	dmaEnable uint8
	// $4801: pending decompression trigger
	dmaTrigger uint8

	// per-channel source address and length, programmed via $4300-range
	// shadowing on real hardware; exposed here as direct registers
	sourceAddr uint32
	length     uint16

	active bool
}

// New creates an S-DD1.
func New() *SDD1 {
	return &SDD1{mmc: NewMMC()}
}

// MMC exposes the banking half.
func (s *SDD1) MMC() *MMC {
	return s.mmc
}

// WriteRegister services a write in the $4800-$4807 range.
func (s *SDD1) WriteRegister(address uint32, data uint8) {
	switch address & 0x0f {
	case 0x00:
		s.dmaEnable = data
	case 0x01:
		s.dmaTrigger = data
	case 0x04, 0x05, 0x06, 0x07:
		s.mmc.WriteBank(int(address&0x03), data)
	}
}

// ReadRegister services a read in the $4800-$4807 range.
func (s *SDD1) ReadRegister(address uint32) uint8 {
	switch address & 0x0f {
	case 0x00:
		return s.dmaEnable
	case 0x01:
		return s.dmaTrigger
	case 0x04, 0x05, 0x06, 0x07:
		return s.mmc.ReadBank(int(address & 0x03))
	}
	return 0xff
}

// StartTransfer begins a decompressed read: the source address is where
// the compressed stream starts in the SNES address space, the length the
// number of bytes the DMA will pull.
func (s *SDD1) StartTransfer(sourceAddr uint32, length uint16, rom []uint8) {
	s.sourceAddr = sourceAddr
	s.length = length
	s.active = true
	s.decompressor.Init(sourceAddr, s.mmc, rom)
}

// Active reports whether a decompressed transfer is in progress.
func (s *SDD1) Active() bool {
	return s.active
}

// ReadByte produces the next byte of the decompressed stream.
func (s *SDD1) ReadByte(rom []uint8) uint8 {
	if !s.active {
		return 0
	}

	b := s.decompressor.NextByte(s.mmc, rom)

	s.length--
	if s.length == 0 {
		s.active = false
	}
	return b
}

// Snapshot encodes the coprocessor state.
func (s *SDD1) Snapshot(enc *savestate.Encoder) {
	s.mmc.snapshot(enc)
	s.decompressor.Snapshot(enc)
	enc.PutUint8(s.dmaEnable)
	enc.PutUint8(s.dmaTrigger)
	enc.PutUint32(s.sourceAddr)
	enc.PutUint16(s.length)
	enc.PutBool(s.active)
}

// Restore decodes the coprocessor state.
func (s *SDD1) Restore(dec *savestate.Decoder) {
	s.mmc.restore(dec)
	s.decompressor.Restore(dec)
	s.dmaEnable = dec.Uint8()
	s.dmaTrigger = dec.Uint8()
	s.sourceAddr = dec.Uint32()
	s.length = dec.Uint16()
	s.active = dec.Bool()
}
