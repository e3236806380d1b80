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
	"github.com/jetsetilly/gophergen/savestate"
)

// frame geometry and timing
const (
	ScreenWidth  = 256
	ScreenHeight = 240

	ppuDotsPerLine   = 341
	ppuLinesPerFrame = 262
	vblankStartLine  = 241
)

// the 64-colour NES master palette, in packed 0xAABBGGRR
var nesPalette = [64]uint32{
	0xff666666, 0xff882a00, 0xffa71214, 0xffa4003b, 0xff7e005c, 0xff40006e, 0xff00066c, 0xff001d56,
	0xff003533, 0xff00480b, 0xff005200, 0xff084f00, 0xff4d4000, 0xff000000, 0xff000000, 0xff000000,
	0xffadadad, 0xffd95f15, 0xffff4042, 0xfffe2775, 0xffcc1aa0, 0xff7b1eb7, 0xff2031b5, 0xff004e99,
	0xff006d6b, 0xff008738, 0xff00930c, 0xff328f00, 0xff8d7c00, 0xff000000, 0xff000000, 0xff000000,
	0xfffffeff, 0xffffb064, 0xffff9092, 0xffff76c6, 0xffff6af3, 0xffcc6efe, 0xff7081fe, 0xff229eea,
	0xff00bebc, 0xff00d888, 0xff30e45c, 0xff82e045, 0xffdecd48, 0xff4f4f4f, 0xff000000, 0xff000000,
	0xfffffeff, 0xffffdfc0, 0xffffd2d3, 0xffffc8e8, 0xffffc2fb, 0xffeac4fe, 0xffc5ccfe, 0xffa5d8f7,
	0xff94e5e4, 0xff96efcf, 0xffa6edb7, 0xffc0e2a8, 0xffe6dca8, 0xffa8a8a8, 0xff000000, 0xff000000,
}

// PPU is the NES picture processing unit: the line/dot state machine, NMI
// generation and a line-at-a-time background and sprite renderer.
type PPU struct {
	cart *Cartridge

	nametables [2048]uint8
	palette    [32]uint8
	oam        [256]uint8

	// registers
	ctrl    uint8
	mask    uint8
	oamAddr uint8

	// internal v/t/x/w scrolling state, folded to the coarse model the
	// line renderer needs
	scrollX    uint8
	scrollY    uint8
	addrLatch  bool
	vramAddr   uint16
	tempAddr   uint16
	readBuffer uint8

	statusVBlank   bool
	statusSprite0  bool
	statusOverflow bool

	nmiPending bool

	line     uint16
	dot      uint16
	oddFrame bool

	frameBuffer   []uint32
	frameComplete bool
}

// NewPPU creates a PPU wired to the cartridge's CHR space.
func NewPPU(cart *Cartridge) *PPU {
	return &PPU{
		cart:        cart,
		frameBuffer: make([]uint32, ScreenWidth*ScreenHeight),
	}
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&0x18 != 0
}

// Tick advances the PPU by one dot.
func (p *PPU) Tick() {
	p.dot++
	if p.dot == ppuDotsPerLine {
		p.dot = 0

		if p.line < ScreenHeight && p.renderingEnabled() {
			p.renderLine(int(p.line))
		}

		p.line++
		if p.line == ppuLinesPerFrame {
			p.line = 0
			p.oddFrame = !p.oddFrame

			// the pre-render line of odd frames is one dot short while
			// rendering is enabled
			if p.oddFrame && p.renderingEnabled() {
				p.dot = 1
			}

			p.statusVBlank = false
			p.statusSprite0 = false
			p.statusOverflow = false
		}
	}

	if p.line == vblankStartLine && p.dot == 1 {
		p.statusVBlank = true
		p.frameComplete = true
		if p.ctrl&0x80 != 0 {
			p.nmiPending = true
		}
	}
}

// TakeNMI reports and clears a pending NMI.
func (p *PPU) TakeNMI() bool {
	n := p.nmiPending
	p.nmiPending = false
	return n
}

// FrameComplete reports frame completion since the last clear.
func (p *PPU) FrameComplete() bool {
	return p.frameComplete
}

// ClearFrameComplete acknowledges the completed frame.
func (p *PPU) ClearFrameComplete() {
	p.frameComplete = false
}

// FrameBuffer is the completed frame.
func (p *PPU) FrameBuffer() []uint32 {
	return p.frameBuffer
}

// nametableOffset folds an address into the two physical nametables
// according to the cartridge's mirroring.
func (p *PPU) nametableOffset(address uint16) uint16 {
	address &= 0x0fff
	table := address / 0x400
	offset := address & 0x3ff

	switch p.cart.Mirroring() {
	case mirrorVertical:
		return (table&0x01)*0x400 + offset
	case mirrorHorizontal:
		return (table>>1)*0x400 + offset
	case mirrorSingleLow:
		return offset
	}
	return 0x400 + offset
}

func (p *PPU) readVRAM(address uint16) uint8 {
	address &= 0x3fff
	switch {
	case address < 0x2000:
		return p.cart.ReadCHR(address)
	case address < 0x3f00:
		return p.nametables[p.nametableOffset(address)]
	}
	return p.palette[paletteIndex(address)]
}

func (p *PPU) writeVRAM(address uint16, data uint8) {
	address &= 0x3fff
	switch {
	case address < 0x2000:
		p.cart.WriteCHR(address, data)
	case address < 0x3f00:
		p.nametables[p.nametableOffset(address)] = data
	default:
		p.palette[paletteIndex(address)] = data
	}
}

// the palette's transparent entries mirror across background and sprite
// halves
func paletteIndex(address uint16) uint16 {
	i := address & 0x1f
	if i >= 0x10 && i&0x03 == 0 {
		i -= 0x10
	}
	return i
}

// ReadRegister services a CPU read of $2000-$2007.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address & 0x07 {
	case 0x02:
		var v uint8
		if p.statusVBlank {
			v |= 0x80
		}
		if p.statusSprite0 {
			v |= 0x40
		}
		if p.statusOverflow {
			v |= 0x20
		}
		p.statusVBlank = false
		p.addrLatch = false
		return v

	case 0x04:
		return p.oam[p.oamAddr]

	case 0x07:
		// buffered VRAM reads, except for the palette
		addr := p.vramAddr & 0x3fff
		var v uint8
		if addr >= 0x3f00 {
			v = p.readVRAM(addr)
			p.readBuffer = p.readVRAM(addr - 0x1000)
		} else {
			v = p.readBuffer
			p.readBuffer = p.readVRAM(addr)
		}
		p.incrementVRAMAddr()
		return v
	}

	return 0
}

// WriteRegister services a CPU write of $2000-$2007.
func (p *PPU) WriteRegister(address uint16, data uint8) {
	switch address & 0x07 {
	case 0x00:
		p.ctrl = data
	case 0x01:
		p.mask = data
	case 0x03:
		p.oamAddr = data
	case 0x04:
		p.oam[p.oamAddr] = data
		p.oamAddr++
	case 0x05:
		if !p.addrLatch {
			p.scrollX = data
		} else {
			p.scrollY = data
		}
		p.addrLatch = !p.addrLatch
	case 0x06:
		if !p.addrLatch {
			p.tempAddr = uint16(data&0x3f) << 8
		} else {
			p.vramAddr = p.tempAddr | uint16(data)
		}
		p.addrLatch = !p.addrLatch
	case 0x07:
		p.writeVRAM(p.vramAddr, data)
		p.incrementVRAMAddr()
	}
}

func (p *PPU) incrementVRAMAddr() {
	if p.ctrl&0x04 != 0 {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
}

// WriteOAMDMA copies a byte of the OAM DMA transfer.
func (p *PPU) WriteOAMDMA(data uint8) {
	p.oam[p.oamAddr] = data
	p.oamAddr++
}

// Snapshot encodes the PPU state.
func (p *PPU) Snapshot(enc *savestate.Encoder) {
	enc.PutBytes(p.nametables[:])
	enc.PutBytes(p.palette[:])
	enc.PutBytes(p.oam[:])
	enc.PutUint8(p.ctrl)
	enc.PutUint8(p.mask)
	enc.PutUint8(p.oamAddr)
	enc.PutUint8(p.scrollX)
	enc.PutUint8(p.scrollY)
	enc.PutBool(p.addrLatch)
	enc.PutUint16(p.vramAddr)
	enc.PutUint16(p.tempAddr)
	enc.PutUint8(p.readBuffer)
	enc.PutBool(p.statusVBlank)
	enc.PutBool(p.statusSprite0)
	enc.PutBool(p.statusOverflow)
	enc.PutBool(p.nmiPending)
	enc.PutUint16(p.line)
	enc.PutUint16(p.dot)
	enc.PutBool(p.oddFrame)
	enc.PutBool(p.frameComplete)
}

// Restore decodes the PPU state.
func (p *PPU) Restore(dec *savestate.Decoder) {
	dec.BytesInto(p.nametables[:])
	dec.BytesInto(p.palette[:])
	dec.BytesInto(p.oam[:])
	p.ctrl = dec.Uint8()
	p.mask = dec.Uint8()
	p.oamAddr = dec.Uint8()
	p.scrollX = dec.Uint8()
	p.scrollY = dec.Uint8()
	p.addrLatch = dec.Bool()
	p.vramAddr = dec.Uint16()
	p.tempAddr = dec.Uint16()
	p.readBuffer = dec.Uint8()
	p.statusVBlank = dec.Bool()
	p.statusSprite0 = dec.Bool()
	p.statusOverflow = dec.Bool()
	p.nmiPending = dec.Bool()
	p.line = dec.Uint16()
	p.dot = dec.Uint16()
	p.oddFrame = dec.Bool()
	p.frameComplete = dec.Bool()
}

// renderLine draws background and sprites for one line.
func (p *PPU) renderLine(line int) {
	row := p.frameBuffer[line*ScreenWidth : (line+1)*ScreenWidth]
	var bgOpaque [ScreenWidth]bool

	backdrop := nesPalette[p.palette[0]&0x3f]
	for x := range row {
		row[x] = backdrop
	}

	if p.mask&0x08 != 0 {
		p.renderBackgroundLine(line, row, bgOpaque[:])
	}
	if p.mask&0x10 != 0 {
		p.renderSpriteLine(line, row, bgOpaque[:])
	}
}

func (p *PPU) renderBackgroundLine(line int, row []uint32, bgOpaque []bool) {
	patternBase := uint16(0)
	if p.ctrl&0x10 != 0 {
		patternBase = 0x1000
	}
	baseTable := uint16(p.ctrl&0x03) * 0x400

	for x := 0; x < ScreenWidth; x++ {
		worldX := x + int(p.scrollX)
		worldY := line + int(p.scrollY)

		table := baseTable
		if worldX >= ScreenWidth {
			table ^= 0x400
			worldX -= ScreenWidth
		}
		if worldY >= ScreenHeight {
			table ^= 0x800
			worldY -= ScreenHeight
		}

		nt := 0x2000 + table
		tile := p.readVRAM(nt + uint16(worldY/8)*32 + uint16(worldX/8))

		lo := p.cart.ReadCHR(patternBase + uint16(tile)*16 + uint16(worldY%8))
		hi := p.cart.ReadCHR(patternBase + uint16(tile)*16 + uint16(worldY%8) + 8)
		bit := uint(7 - worldX%8)
		value := lo>>bit&0x01 | (hi>>bit&0x01)<<1

		if value == 0 {
			continue
		}
		bgOpaque[x] = true

		// attribute table: one palette per 16x16 block
		attr := p.readVRAM(nt + 0x3c0 + uint16(worldY/32)*8 + uint16(worldX/32))
		shift := uint(worldY%32/16)*4 + uint(worldX%32/16)*2
		paletteNum := attr >> shift & 0x03

		colour := p.palette[paletteIndex(0x3f00+uint16(paletteNum)*4+uint16(value))]
		row[x] = nesPalette[colour&0x3f]
	}
}

func (p *PPU) renderSpriteLine(line int, row []uint32, bgOpaque []bool) {
	height := 8
	if p.ctrl&0x20 != 0 {
		height = 16
	}

	drawn := 0
	for i := 0; i < 256; i += 4 {
		y := int(p.oam[i]) + 1
		if line < y || line >= y+height {
			continue
		}
		if drawn == 8 {
			p.statusOverflow = true
			break
		}
		drawn++

		tile := uint16(p.oam[i+1])
		attr := p.oam[i+2]
		x := int(p.oam[i+3])

		patternBase := uint16(0)
		if height == 16 {
			patternBase = (tile & 0x01) * 0x1000
			tile &= 0xfe
		} else if p.ctrl&0x08 != 0 {
			patternBase = 0x1000
		}

		lineInSprite := line - y
		if attr&0x80 != 0 {
			lineInSprite = height - 1 - lineInSprite
		}
		if lineInSprite >= 8 {
			tile |= 0x01
			lineInSprite -= 8
		}

		lo := p.cart.ReadCHR(patternBase + tile*16 + uint16(lineInSprite))
		hi := p.cart.ReadCHR(patternBase + tile*16 + uint16(lineInSprite) + 8)

		for px := 0; px < 8; px++ {
			sx := x + px
			if sx >= ScreenWidth {
				break
			}

			bit := uint(7 - px)
			if attr&0x40 != 0 {
				bit = uint(px)
			}
			value := lo>>bit&0x01 | (hi>>bit&0x01)<<1
			if value == 0 {
				continue
			}

			if i == 0 && bgOpaque[sx] {
				p.statusSprite0 = true
			}

			// behind-background priority
			if attr&0x20 != 0 && bgOpaque[sx] {
				continue
			}

			colour := p.palette[paletteIndex(0x3f10+uint16(attr&0x03)*4+uint16(value))]
			row[sx] = nesPalette[colour&0x3f]
		}
	}
}
