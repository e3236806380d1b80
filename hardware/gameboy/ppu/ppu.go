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

// Package ppu emulates the Game Boy picture processing unit: the
// scanline/dot state machine, the STAT interrupt line and the frame
// delivery contract. One Tick() is one dot, which on the Game Boy is one
// master-clock cycle.
//
// Pixel production is done a scanline at a time, at the transition from the
// rendering mode into HBlank. OAM/VRAM access blocking during rendering and
// the double-buffered OAM scan are not modelled; a minority of titles
// depend on them.
package ppu

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// screen dimensions
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// timing constants. 144 rendered lines plus 10 VBlank lines
const (
	LinesPerFrame = 154
	DotsPerLine   = 456
	oamScanDots   = 80

	// the fixed-length approximation of the pixel pipeline; mode 3 varies
	// between 172 and 289 dots on hardware
	renderingDots = 172
)

// DotsPerFrame is the number of master-clock cycles in one complete frame.
const DotsPerFrame = LinesPerFrame * DotsPerLine

const (
	vramLen = 8 * 1024
	oamLen  = 160
)

// mode is the PPU mode as visible in the STAT register.
type mode int

const (
	modeHBlank mode = iota
	modeVBlank
	modeScanningOAM
	modeRendering
)

func (m mode) bits() uint8 {
	return uint8(m)
}

// the interrupt lines raised by the PPU. the owning system maps these onto
// its interrupt flag register
type Interrupts interface {
	RaiseVBlank()
	RaiseLCDStatus()
}

// PPU emulates the Game Boy video unit.
type PPU struct {
	frameBuffer []uint32
	vram        []uint8
	oam         []uint8
	registers   registers

	scanline uint8
	dot      uint16

	mode mode

	// the STAT interrupt fires on the rising edge of the composite
	// interrupt line, one dot after the condition becomes true
	statInterruptPending bool

	// frame handover state
	previouslyEnabled bool
	skipNextFrame     bool
	frameComplete     bool

	// the shade table in use, indexed by the 2-bit pixel value after
	// palette lookup
	shades [4]uint32
}

// the uncorrected grey shades of the original hardware
var DefaultShades = [4]uint32{0xffffffff, 0xffaaaaaa, 0xff555555, 0xff000000}

// NewPPU creates a PPU in the power-on state.
func NewPPU() *PPU {
	p := &PPU{
		frameBuffer: make([]uint32, ScreenWidth*ScreenHeight),
		vram:        make([]uint8, vramLen),
		oam:         make([]uint8, oamLen),
		registers:   newRegisters(),
		mode:        modeScanningOAM,
		shades:      DefaultShades,

		previouslyEnabled: true,
		skipNextFrame:     true,
	}
	return p
}

// SetShades changes the palette used to convert 2-bit pixels to frame
// buffer values. Applied from the next rendered line.
func (p *PPU) SetShades(shades [4]uint32) {
	p.shades = shades
}

// Tick advances the PPU by one dot.
func (p *PPU) Tick(irq Interrupts) {
	if !p.registers.enabled {
		if p.previouslyEnabled {
			// disabling the PPU moves it to line 0 + HBlank and clears the
			// display. the cleared frame is handed over so the host sees
			// the blank screen
			p.scanline = 0
			p.dot = 0
			p.mode = modeHBlank
			for i := range p.frameBuffer {
				p.frameBuffer[i] = p.shades[0]
			}

			p.previouslyEnabled = false
			p.frameComplete = true
			return
		}

		// unlike TV-based video units the PPU stops dead while disabled
		return
	} else if !p.previouslyEnabled {
		p.previouslyEnabled = true

		// the first frame after re-enabling is not displayed
		p.skipNextFrame = true
	}

	if p.statInterruptPending {
		irq.RaiseLCDStatus()
		p.statInterruptPending = false
	}

	prevStatLine := p.statInterruptLine()

	if p.mode == modeRendering && p.dot == oamScanDots+renderingDots-1 {
		p.renderScanline()
		p.mode = modeHBlank
	}

	p.dot++
	if p.dot == DotsPerLine {
		p.dot = 0
		p.scanline++
		if p.scanline == LinesPerFrame {
			p.scanline = 0
		}

		if p.scanline < ScreenHeight {
			p.mode = modeScanningOAM
		} else {
			p.mode = modeVBlank
		}
	} else if p.scanline < ScreenHeight && p.dot == oamScanDots {
		p.mode = modeRendering
	}

	if p.scanline == ScreenHeight && p.dot == 1 {
		irq.RaiseVBlank()
		if p.skipNextFrame {
			p.skipNextFrame = false
		} else {
			p.frameComplete = true
		}
	}

	if statLine := p.statInterruptLine(); statLine && !prevStatLine {
		p.statInterruptPending = true
	}
}

// the composite STAT interrupt line: the OR of each enabled condition. the
// interrupt itself fires on this line's rising edge
func (p *PPU) statInterruptLine() bool {
	return (p.registers.lycInterrupt && p.scanline == p.registers.lyc) ||
		(p.registers.mode2Interrupt && p.mode == modeScanningOAM) ||
		(p.registers.mode1Interrupt && p.mode == modeVBlank) ||
		(p.registers.mode0Interrupt && p.mode == modeHBlank)
}

// FrameBuffer returns a read-only view of the completed frame. Contents are
// stable from frameComplete until the end of the next frame.
func (p *PPU) FrameBuffer() []uint32 {
	return p.frameBuffer
}

// FrameComplete reports whether a frame finished during the preceding
// Tick() calls. Cleared with ClearFrameComplete().
func (p *PPU) FrameComplete() bool {
	return p.frameComplete
}

// ClearFrameComplete acknowledges the completed frame.
func (p *PPU) ClearFrameComplete() {
	p.frameComplete = false
}

// Enabled reports whether the video unit is switched on.
func (p *PPU) Enabled() bool {
	return p.registers.enabled
}

// ReadVRAM reads video memory. Address is masked into range.
func (p *PPU) ReadVRAM(address uint16) uint8 {
	return p.vram[address&0x1fff]
}

// WriteVRAM writes video memory.
func (p *PPU) WriteVRAM(address uint16, value uint8) {
	p.vram[address&0x1fff] = value
}

// ReadOAM reads object attribute memory.
func (p *PPU) ReadOAM(address uint16) uint8 {
	return p.oam[address%oamLen]
}

// WriteOAM writes object attribute memory.
func (p *PPU) WriteOAM(address uint16, value uint8) {
	p.oam[address%oamLen] = value
}

// ReadRegister reads a memory-mapped PPU register. The address is the low
// byte of the $ffxx register address.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address & 0xff {
	case 0x40:
		return p.registers.readLCDC()
	case 0x41:
		return p.registers.readSTAT(p.scanline, p.mode)
	case 0x42:
		return p.registers.scrollY
	case 0x43:
		return p.registers.scrollX
	case 0x44:
		// LY: the current scanline
		return p.scanline
	case 0x45:
		return p.registers.lyc
	case 0x47:
		return p.registers.bgp
	case 0x48:
		return p.registers.obp0
	case 0x49:
		return p.registers.obp1
	case 0x4a:
		return p.registers.windowY
	case 0x4b:
		return p.registers.windowX
	}
	return 0xff
}

// WriteRegister writes a memory-mapped PPU register. Writes to LY are
// discarded.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address & 0xff {
	case 0x40:
		p.registers.writeLCDC(value)
	case 0x41:
		p.registers.writeSTAT(value)
	case 0x42:
		p.registers.scrollY = value
	case 0x43:
		p.registers.scrollX = value
	case 0x44:
		// LY is read-only
	case 0x45:
		p.registers.lyc = value
	case 0x47:
		p.registers.bgp = value
	case 0x48:
		p.registers.obp0 = value
	case 0x49:
		p.registers.obp1 = value
	case 0x4a:
		p.registers.windowY = value
	case 0x4b:
		p.registers.windowX = value
	}
}

// Snapshot encodes the PPU state, including video memory and the frame
// buffer position.
func (p *PPU) Snapshot(enc *savestate.Encoder) {
	enc.PutBytes(p.vram)
	enc.PutBytes(p.oam)
	p.registers.snapshot(enc)
	enc.PutUint8(p.scanline)
	enc.PutUint16(p.dot)
	enc.PutUint8(uint8(p.mode))
	enc.PutBool(p.statInterruptPending)
	enc.PutBool(p.previouslyEnabled)
	enc.PutBool(p.skipNextFrame)
	enc.PutBool(p.frameComplete)
}

// Restore decodes the PPU state.
func (p *PPU) Restore(dec *savestate.Decoder) {
	dec.BytesInto(p.vram)
	dec.BytesInto(p.oam)
	p.registers.restore(dec)
	p.scanline = dec.Uint8()
	p.dot = dec.Uint16()
	p.mode = mode(dec.Uint8())
	p.statInterruptPending = dec.Bool()
	p.previouslyEnabled = dec.Bool()
	p.skipNextFrame = dec.Bool()
	p.frameComplete = dec.Bool()
}
