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

package sdd1

import (
	"github.com/jetsetilly/gophergen/logger"
	"github.com/jetsetilly/gophergen/savestate"
)

// the decompressor is a Golomb run-length decoder over an adaptive
// per-context probability model, with bitplane interleaving on output.
// given the remaining ROM stream, the decoder state below fully determines
// the next output byte; there is no hidden state elsewhere.

// codeword size per model state. higher states use longer codewords
// because runs are more likely to end with the most probable symbol;
// states 25-32 are fast-adapting states used just after initialisation
var evolutionCodeSize = [33]uint8{
	0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 0, 1, 2, 3, 4, 5, 6, 7,
}

// next state when a run ends in the most probable symbol
var evolutionMPSNext = [33]uint8{
	25, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17,
	18, 19, 20, 21, 22, 23, 24, 24, 26, 27, 28, 29, 30, 31, 32, 24,
}

// next state when a run ends in the least probable symbol
var evolutionLPSNext = [33]uint8{
	25, 1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	16, 17, 18, 19, 20, 21, 22, 23, 1, 2, 4, 8, 12, 16, 18, 22,
}

var runTable = [128]uint8{
	128, 64, 96, 32, 112, 48, 80, 16, 120, 56, 88, 24, 104, 40, 72, 8,
	124, 60, 92, 28, 108, 44, 76, 12, 116, 52, 84, 20, 100, 36, 68, 4,
	126, 62, 94, 30, 110, 46, 78, 14, 118, 54, 86, 22, 102, 38, 70, 6,
	122, 58, 90, 26, 106, 42, 74, 10, 114, 50, 82, 18, 98, 34, 66, 2,
	127, 63, 95, 31, 111, 47, 79, 15, 119, 55, 87, 23, 103, 39, 71, 7,
	123, 59, 91, 27, 107, 43, 75, 11, 115, 51, 83, 19, 99, 35, 67, 3,
	125, 61, 93, 29, 109, 45, 77, 13, 117, 53, 85, 21, 101, 37, 69, 5,
	121, 57, 89, 25, 105, 41, 73, 9, 113, 49, 81, 17, 97, 33, 65, 1,
}

// Decompressor holds the decoder state: the bit-shifted input register
// refilled from ROM on underflow, the per-context model, and the per-plane
// history bits that form each context.
type Decompressor struct {
	sourceAddr uint32
	input      uint16
	plane      uint8
	numPlanes  uint8
	yLocation  uint8
	validBits  int8

	highContextBits uint16
	lowContextBits  uint16

	bitCounter    [8]uint16
	prevBits      [8]uint16
	contextStates [32]uint8
	contextMPS    [32]uint8
}

// Init prepares the decompressor to stream from the given ROM address. The
// first byte's top bits select the bitplane count, the next the context
// shape.
func (d *Decompressor) Init(sourceAddress uint32, mmc *MMC, rom []uint8) {
	d.input = uint16(readByte(sourceAddress, mmc, rom))
	d.sourceAddr = sourceAddress + 1

	switch d.input & 0xc0 {
	case 0x00:
		// 2bpp tile data
		d.numPlanes = 2
	case 0x40:
		// 8bpp tile data
		d.numPlanes = 8
	case 0x80:
		// 4bpp tile data
		d.numPlanes = 4
	case 0xc0:
		// other data, eg. mode 7 graphics
		d.numPlanes = 0
	}

	// the context is formed from three or four of the previous nine bits,
	// with separate contexts for even and odd bitplanes
	switch d.input & 0x30 {
	case 0x00:
		d.highContextBits, d.lowContextBits = 0x01c0, 0x0001
	case 0x10:
		d.highContextBits, d.lowContextBits = 0x0180, 0x0001
	case 0x20:
		d.highContextBits, d.lowContextBits = 0x00c0, 0x0001
	case 0x30:
		d.highContextBits, d.lowContextBits = 0x0180, 0x0003
	}

	next := uint16(readByte(d.sourceAddr, mmc, rom))
	d.input = d.input<<11 | next<<3
	d.sourceAddr++

	d.validBits = 5

	d.bitCounter = [8]uint16{}
	d.prevBits = [8]uint16{}
	d.contextStates = [32]uint8{}
	d.contextMPS = [32]uint8{}

	d.plane = 0
	d.yLocation = 0
}

// NextByte produces the next decompressed byte.
func (d *Decompressor) NextByte(mmc *MMC, rom []uint8) uint8 {
	if d.numPlanes == 0 {
		// miscellaneous data: output the next eight bits directly
		var b uint8
		for plane := uint8(0); plane < 8; plane++ {
			b |= d.getBit(plane, mmc, rom) << plane
		}
		return b
	}

	if d.plane&0x01 == 0 {
		// decode the next sixteen bits, alternating between the even and
		// odd bitplane of the pair
		for i := 0; i < 8; i++ {
			d.getBit(d.plane, mmc, rom)
			d.getBit(d.plane+1, mmc, rom)
		}

		b := uint8(d.prevBits[d.plane])
		d.plane++
		return b
	}

	b := uint8(d.prevBits[d.plane])
	d.plane--

	d.yLocation++
	if d.yLocation == 8 {
		// a 16-byte tile pair is complete; move to the next two bitplanes
		d.yLocation = 0
		d.plane = (d.plane + 2) & (d.numPlanes - 1)
	}

	return b
}

func (d *Decompressor) getBit(plane uint8, mmc *MMC, rom []uint8) uint8 {
	// context from the plane's previous bits, split by even/odd plane
	context := uint16(plane&0x01) << 4
	context |= (d.prevBits[plane] & d.highContextBits) >> 5
	context |= d.prevBits[plane] & d.lowContextBits

	pBit := d.getProbableBit(context, mmc, rom)
	d.prevBits[plane] = d.prevBits[plane]<<1 | uint16(pBit)

	return pBit
}

func (d *Decompressor) getProbableBit(context uint16, mmc *MMC, rom []uint8) uint8 {
	state := d.contextStates[context]
	codeSize := evolutionCodeSize[state]

	if d.bitCounter[codeSize]&0x7f == 0 {
		d.bitCounter[codeSize] = d.getCodeword(codeSize, mmc, rom)
	}

	pBit := d.contextMPS[context]
	d.bitCounter[codeSize]--

	if d.bitCounter[codeSize] == 0x00 {
		// the run ends in the least probable symbol
		d.contextStates[context] = evolutionLPSNext[state]
		pBit ^= 0x01

		if state < 2 {
			// the MPS can only flip in states 0 and 1
			d.contextMPS[context] = pBit
		}
	} else if d.bitCounter[codeSize] == 0x80 {
		// the run ends in the most probable symbol
		d.contextStates[context] = evolutionMPSNext[state]
	}

	return pBit
}

func (d *Decompressor) getCodeword(codeSize uint8, mmc *MMC, rom []uint8) uint16 {
	if d.validBits == 0 {
		d.input |= uint16(readByte(d.sourceAddr, mmc, rom))
		d.sourceAddr++
		d.validBits = 8
	}

	d.input <<= 1
	d.validBits--

	if d.input&0x8000 == 0 {
		// a 0 bit is a full run of MPSs, length 2^codeSize
		return 0x80 + 1<<codeSize
	}

	// a 1 bit is a run ending in the LPS; the next codeSize bits give the
	// length through the run table
	runTableIdx := d.input>>8&0x7f | 0x7f>>codeSize
	d.input <<= codeSize
	d.validBits -= int8(codeSize)
	if d.validBits < 0 {
		next := uint16(readByte(d.sourceAddr, mmc, rom))
		d.input |= next << uint(-d.validBits)
		d.sourceAddr++
		d.validBits += 8
	}

	return uint16(runTable[runTableIdx])
}

func readByte(address uint32, mmc *MMC, rom []uint8) uint8 {
	romAddr, ok := mmc.MapROMAddress(address, uint32(len(rom)))
	if !ok || int(romAddr) >= len(rom) {
		logger.Logf("sdd1", "invalid ROM address mapping in decompressor (%06x)", address)
		return 0
	}
	return rom[romAddr]
}

// Snapshot encodes the decompressor state.
func (d *Decompressor) Snapshot(enc *savestate.Encoder) {
	enc.PutUint32(d.sourceAddr)
	enc.PutUint16(d.input)
	enc.PutUint8(d.plane)
	enc.PutUint8(d.numPlanes)
	enc.PutUint8(d.yLocation)
	enc.PutUint8(uint8(d.validBits))
	enc.PutUint16(d.highContextBits)
	enc.PutUint16(d.lowContextBits)
	for _, v := range d.bitCounter {
		enc.PutUint16(v)
	}
	for _, v := range d.prevBits {
		enc.PutUint16(v)
	}
	enc.PutBytes(d.contextStates[:])
	enc.PutBytes(d.contextMPS[:])
}

// Restore decodes the decompressor state.
func (d *Decompressor) Restore(dec *savestate.Decoder) {
	d.sourceAddr = dec.Uint32()
	d.input = dec.Uint16()
	d.plane = dec.Uint8()
	d.numPlanes = dec.Uint8()
	d.yLocation = dec.Uint8()
	d.validBits = int8(dec.Uint8())
	d.highContextBits = dec.Uint16()
	d.lowContextBits = dec.Uint16()
	for i := range d.bitCounter {
		d.bitCounter[i] = dec.Uint16()
	}
	for i := range d.prevBits {
		d.prevBits[i] = dec.Uint16()
	}
	dec.BytesInto(d.contextStates[:])
	dec.BytesInto(d.contextMPS[:])
}
