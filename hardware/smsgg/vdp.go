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

package smsgg

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// frame geometry. the Game Gear displays a centred window of the SMS frame
const (
	ScreenWidth  = 256
	ScreenHeight = 192

	GGScreenWidth  = 160
	GGScreenHeight = 144

	ggCropLeft = (ScreenWidth - GGScreenWidth) / 2
	ggCropTop  = (ScreenHeight - GGScreenHeight) / 2
)

// timing. dots advance at a tenth of the master clock
const (
	dotsPerLine       = 342
	linesPerFrameNTSC = 262
	linesPerFramePAL  = 313

	// the visible dot range of a line
	activeDots = 256
)

const (
	vdpVRAMLen = 16 * 1024
	vdpCRAMLen = 64
)

// control-port code bits
const (
	codeVRAMRead = iota
	codeVRAMWrite
	codeRegisterWrite
	codeCRAMWrite
)

// VDP is the SMS/Game Gear video display processor: the line/dot state
// machine, the control/data port protocol and a mode 4 renderer. Rendering
// happens a line at a time at the end of each active line.
type VDP struct {
	gameGear bool
	pal      bool

	vram []uint8
	cram []uint8

	registers [11]uint8

	// control port state
	commandLatch   bool
	commandAddress uint16
	commandCode    uint8
	readBuffer     uint8

	// status flags: vblank, sprite overflow, sprite collision
	statusVBlank   bool
	statusOverflow bool
	statusCollide  bool

	// interrupt lines
	frameInterruptPending bool
	lineInterruptPending  bool
	lineInterruptCounter  uint8

	line uint16
	dot  uint16

	frameBuffer   []uint32
	frameComplete bool
}

// NewVDP creates a VDP. The gameGear flag selects the cropped display and
// 12-bit palette; the pal flag the 313-line frame.
func NewVDP(gameGear bool, pal bool) *VDP {
	width, height := ScreenWidth, ScreenHeight
	if gameGear {
		width, height = GGScreenWidth, GGScreenHeight
	}

	return &VDP{
		gameGear:    gameGear,
		pal:         pal,
		vram:        make([]uint8, vdpVRAMLen),
		cram:        make([]uint8, vdpCRAMLen),
		frameBuffer: make([]uint32, width*height),
	}
}

func (v *VDP) linesPerFrame() uint16 {
	if v.pal {
		return linesPerFramePAL
	}
	return linesPerFrameNTSC
}

// FrameSize returns the output frame dimensions.
func (v *VDP) FrameSize() (int, int) {
	if v.gameGear {
		return GGScreenWidth, GGScreenHeight
	}
	return ScreenWidth, ScreenHeight
}

// Tick advances the VDP by one dot.
func (v *VDP) Tick() {
	v.dot++
	if v.dot < dotsPerLine {
		return
	}
	v.dot = 0

	// end of line: render it if it was active
	if v.line < ScreenHeight && v.displayEnabled() {
		v.renderLine(int(v.line))
	}

	// the line interrupt counter decrements on active lines and the first
	// line of the bottom border; reload on underflow raises the interrupt
	if v.line <= ScreenHeight {
		if v.lineInterruptCounter == 0 {
			v.lineInterruptCounter = v.registers[10]
			v.lineInterruptPending = true
		} else {
			v.lineInterruptCounter--
		}
	} else {
		v.lineInterruptCounter = v.registers[10]
	}

	v.line++
	if v.line == v.linesPerFrame() {
		v.line = 0
		return
	}

	if v.line == ScreenHeight+1 {
		// entering the vertical border: frame interrupt and frame handover
		v.statusVBlank = true
		v.frameInterruptPending = true
		v.frameComplete = true
	}
}

func (v *VDP) displayEnabled() bool {
	return v.registers[1]&0x40 != 0
}

// InterruptRequested reports the state of the VDP's interrupt line into
// the CPU: level-triggered, held while a pending flag is enabled.
func (v *VDP) InterruptRequested() bool {
	frameEnabled := v.registers[1]&0x20 != 0
	lineEnabled := v.registers[0]&0x10 != 0
	return (v.frameInterruptPending && frameEnabled) ||
		(v.lineInterruptPending && lineEnabled)
}

// ReadData reads the data port: buffered VRAM reads.
func (v *VDP) ReadData() uint8 {
	v.commandLatch = false

	data := v.readBuffer
	v.readBuffer = v.vram[v.commandAddress&0x3fff]
	v.commandAddress++
	return data
}

// WriteData writes the data port: VRAM or palette RAM depending on the
// latched command code.
func (v *VDP) WriteData(data uint8) {
	v.commandLatch = false
	v.readBuffer = data

	if v.commandCode == codeCRAMWrite {
		mask := uint16(0x1f)
		if v.gameGear {
			mask = 0x3f
		}
		v.cram[v.commandAddress&mask] = data
	} else {
		v.vram[v.commandAddress&0x3fff] = data
	}
	v.commandAddress++
}

// WriteControl writes the control port. Two writes form a command word:
// address low byte, then code and address high bits.
func (v *VDP) WriteControl(data uint8) {
	if !v.commandLatch {
		v.commandAddress = v.commandAddress&0x3f00 | uint16(data)
		v.commandLatch = true
		return
	}

	v.commandLatch = false
	v.commandAddress = uint16(data&0x3f)<<8 | v.commandAddress&0x00ff
	v.commandCode = data >> 6

	switch v.commandCode {
	case codeVRAMRead:
		v.readBuffer = v.vram[v.commandAddress&0x3fff]
		v.commandAddress++
	case codeRegisterWrite:
		reg := data & 0x0f
		if reg < uint8(len(v.registers)) {
			v.registers[reg] = uint8(v.commandAddress)
		}
	}
}

// ReadStatus reads the status port, clearing the status flags and any
// pending interrupts.
func (v *VDP) ReadStatus() uint8 {
	var status uint8
	if v.statusVBlank {
		status |= 0x80
	}
	if v.statusOverflow {
		status |= 0x40
	}
	if v.statusCollide {
		status |= 0x20
	}

	v.statusVBlank = false
	v.statusOverflow = false
	v.statusCollide = false
	v.frameInterruptPending = false
	v.lineInterruptPending = false
	v.commandLatch = false

	return status
}

// ReadVCounter returns the coarse vertical position as seen at the
// V-counter port.
func (v *VDP) ReadVCounter() uint8 {
	// the counter jumps partway through the border so that it fits a byte
	if !v.pal && v.line > 0xda {
		return uint8(v.line - 6)
	}
	return uint8(v.line)
}

// ReadHCounter returns the coarse horizontal position.
func (v *VDP) ReadHCounter() uint8 {
	return uint8(v.dot >> 1)
}

// FrameComplete reports frame completion since the last clear.
func (v *VDP) FrameComplete() bool {
	return v.frameComplete
}

// ClearFrameComplete acknowledges the completed frame.
func (v *VDP) ClearFrameComplete() {
	v.frameComplete = false
}

// FrameBuffer is the completed frame.
func (v *VDP) FrameBuffer() []uint32 {
	return v.frameBuffer
}

// Snapshot encodes the VDP state.
func (v *VDP) Snapshot(enc *savestate.Encoder) {
	enc.PutBytes(v.vram)
	enc.PutBytes(v.cram)
	for _, r := range v.registers {
		enc.PutUint8(r)
	}
	enc.PutBool(v.commandLatch)
	enc.PutUint16(v.commandAddress)
	enc.PutUint8(v.commandCode)
	enc.PutUint8(v.readBuffer)
	enc.PutBool(v.statusVBlank)
	enc.PutBool(v.statusOverflow)
	enc.PutBool(v.statusCollide)
	enc.PutBool(v.frameInterruptPending)
	enc.PutBool(v.lineInterruptPending)
	enc.PutUint8(v.lineInterruptCounter)
	enc.PutUint16(v.line)
	enc.PutUint16(v.dot)
	enc.PutBool(v.frameComplete)
}

// Restore decodes the VDP state.
func (v *VDP) Restore(dec *savestate.Decoder) {
	dec.BytesInto(v.vram)
	dec.BytesInto(v.cram)
	for i := range v.registers {
		v.registers[i] = dec.Uint8()
	}
	v.commandLatch = dec.Bool()
	v.commandAddress = dec.Uint16()
	v.commandCode = dec.Uint8()
	v.readBuffer = dec.Uint8()
	v.statusVBlank = dec.Bool()
	v.statusOverflow = dec.Bool()
	v.statusCollide = dec.Bool()
	v.frameInterruptPending = dec.Bool()
	v.lineInterruptPending = dec.Bool()
	v.lineInterruptCounter = dec.Uint8()
	v.line = dec.Uint16()
	v.dot = dec.Uint16()
	v.frameComplete = dec.Bool()
}
