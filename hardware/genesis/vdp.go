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
	"github.com/jetsetilly/gophergen/savestate"
)

// frame geometry. H40 mode is 320 pixels, H32 256; the frame buffer is
// allocated for the wider mode
const (
	ScreenWidth  = 320
	ScreenHeight = 224
)

const (
	genVRAMLen  = 64 * 1024
	genCRAMLen  = 128
	genVSRAMLen = 80
)

// master-clock cycles per scanline
const scanlineMclkCycles = 3420

const (
	linesNTSC = 262
	linesPAL  = 313
)

// data port destination selected by the control code
type dataPortLocation int

const (
	portVRAM dataPortLocation = iota
	portCRAM
	portVSRAM
)

// dmaMode is the DMA unit's transfer mode, selected by register 23.
type dmaMode int

const (
	dmaMemoryToVRAM dmaMode = iota
	dmaVRAMFill
	dmaVRAMCopy
)

// dmaSource is what the memory-to-VRAM DMA reads from: the system root
// provides word reads of the 68000 address space.
type dmaSource interface {
	readWordForDMA(address uint32) uint16
}

// VDP is the Genesis video display processor: registers, video memories,
// the three-mode DMA unit and the line/frame state machine. Per-pixel
// plane and sprite composition is outside this core's scope (the frame
// delivery contract is what the scheduler depends on); each line is
// rendered as the backdrop colour.
type VDP struct {
	pal bool

	vram  []uint8
	cram  []uint8
	vsram []uint8

	registers [24]uint8

	// control port state
	controlLatch    bool
	firstWord       uint16
	code            uint8
	dataAddress     uint16
	dmaSourceAddr   uint32
	pendingFillData bool

	// status flags
	vblankFlag   bool
	hblankFlag   bool
	dmaActive    bool
	vintPending  bool
	hintPending  bool
	hintCounter  uint8

	scanline     uint16
	scanlineMclk uint32

	// 68000 cycles the CPU owes for DMA and slow data-port access. the
	// system root drains this into the CPU's cycle count, modelling the
	// bus stall
	stallCycles uint64

	frameBuffer   []uint32
	frameComplete bool
}

// NewVDP creates a VDP.
func NewVDP(pal bool) *VDP {
	return &VDP{
		pal:         pal,
		vram:        make([]uint8, genVRAMLen),
		cram:        make([]uint8, genCRAMLen),
		vsram:       make([]uint8, genVSRAMLen),
		frameBuffer: make([]uint32, ScreenWidth*ScreenHeight),
	}
}

func (v *VDP) linesPerFrame() uint16 {
	if v.pal {
		return linesPAL
	}
	return linesNTSC
}

// autoIncrement is the data-address step applied after every data port
// access, from register 15.
func (v *VDP) autoIncrement() uint16 {
	return uint16(v.registers[15])
}

func (v *VDP) dmaLength() uint32 {
	return uint32(v.registers[19]) | uint32(v.registers[20])<<8
}

func (v *VDP) setDMALength(length uint32) {
	v.registers[19] = uint8(length)
	v.registers[20] = uint8(length >> 8)
}

func (v *VDP) dmaEnabled() bool {
	return v.registers[1]&0x10 != 0
}

func (v *VDP) displayEnabled() bool {
	return v.registers[1]&0x40 != 0
}

// Tick advances the VDP by the given master-clock cycles.
func (v *VDP) Tick(mclkCycles uint64) {
	v.scanlineMclk += uint32(mclkCycles)
	for v.scanlineMclk >= scanlineMclkCycles {
		v.scanlineMclk -= scanlineMclkCycles
		v.endOfScanline()
	}

	// the HBlank flag covers the tail of every line
	v.hblankFlag = v.scanlineMclk >= scanlineMclkCycles*5/6
}

func (v *VDP) endOfScanline() {
	if v.scanline < ScreenHeight {
		v.renderLine(int(v.scanline))

		// the HInt counter decrements per active line; underflow raises
		// the horizontal interrupt and reloads from register 10
		if v.hintCounter == 0 {
			v.hintCounter = v.registers[10]
			v.hintPending = true
		} else {
			v.hintCounter--
		}
	} else {
		v.hintCounter = v.registers[10]
	}

	v.scanline++
	if v.scanline == v.linesPerFrame() {
		v.scanline = 0
		v.vblankFlag = false
		return
	}

	if v.scanline == ScreenHeight {
		v.vblankFlag = true
		v.vintPending = true
		v.frameComplete = true
	}
}

// renderLine fills the line with the backdrop colour from register 7.
func (v *VDP) renderLine(line int) {
	colour := v.colourFromCRAM(uint16(v.registers[7] & 0x3f))
	if !v.displayEnabled() {
		colour = 0xff000000
	}

	row := v.frameBuffer[line*ScreenWidth : (line+1)*ScreenWidth]
	for x := range row {
		row[x] = colour
	}
}

func (v *VDP) colourFromCRAM(index uint16) uint32 {
	entry := uint16(v.cram[(index*2)%genCRAMLen])<<8 | uint16(v.cram[(index*2+1)%genCRAMLen])
	r := uint32(entry>>1&0x07) * 36
	g := uint32(entry>>5&0x07) * 36
	b := uint32(entry>>9&0x07) * 36
	return 0xff000000 | b<<16 | g<<8 | r
}

// InterruptLevel returns the 68000 interrupt level asserted by the VDP:
// level 6 for the vertical interrupt, 4 for the horizontal, or 0.
func (v *VDP) InterruptLevel() int {
	if v.vintPending && v.registers[1]&0x20 != 0 {
		return 6
	}
	if v.hintPending && v.registers[0]&0x10 != 0 {
		return 4
	}
	return 0
}

// AcknowledgeInterrupt clears the pending flag for the given level.
func (v *VDP) AcknowledgeInterrupt(level int) {
	switch level {
	case 6:
		v.vintPending = false
	case 4:
		v.hintPending = false
	}
}

// ReadStatus reads the VDP status word.
func (v *VDP) ReadStatus() uint16 {
	var status uint16 = 0x3400
	if v.pal {
		status |= 0x0001
	}
	if v.dmaActive {
		status |= 0x0002
	}
	if v.hblankFlag {
		status |= 0x0004
	}
	if v.vblankFlag || !v.displayEnabled() {
		status |= 0x0008
	}
	if v.vintPending {
		status |= 0x0080
	}

	// reading the status acknowledges the vertical interrupt
	v.vintPending = false
	v.controlLatch = false
	return status
}

// WriteControl handles a word written to the VDP control port.
func (v *VDP) WriteControl(word uint16, mem dmaSource) {
	if !v.controlLatch {
		if word&0xc000 == 0x8000 {
			// register write
			reg := word >> 8 & 0x1f
			if reg < uint16(len(v.registers)) {
				v.registers[reg] = uint8(word)
			}
			return
		}

		v.firstWord = word
		v.controlLatch = true
		v.code = v.code&0x3c | uint8(word>>14)
		v.dataAddress = v.dataAddress&0xc000 | word&0x3fff
		return
	}

	v.controlLatch = false
	v.code = v.code&0x03 | uint8(word>>2&0x3c)
	v.dataAddress = v.dataAddress&0x3fff | word<<14

	// CD5 set: start a DMA
	if v.code&0x20 != 0 && v.dmaEnabled() {
		v.startDMA(mem)
	}
}

func (v *VDP) dmaModeFromRegisters() (dmaMode, uint32) {
	source := uint32(v.registers[21]) | uint32(v.registers[22])<<8 | uint32(v.registers[23]&0x7f)<<16

	switch {
	case v.registers[23]&0x80 == 0:
		return dmaMemoryToVRAM, source << 1
	case v.registers[23]&0xc0 == 0x80:
		return dmaVRAMFill, source << 1
	}
	return dmaVRAMCopy, source << 1
}

func (v *VDP) startDMA(mem dmaSource) {
	mode, source := v.dmaModeFromRegisters()

	switch mode {
	case dmaMemoryToVRAM:
		v.runMemoryToVRAM(mem, source)
	case dmaVRAMFill:
		// the fill waits for the next data port write to supply the fill
		// word
		v.pendingFillData = true
	case dmaVRAMCopy:
		v.runVRAMCopy(source)
	}
}

func (v *VDP) dataPortLocation() dataPortLocation {
	switch v.code & 0x0f {
	case 0x03, 0x08:
		return portCRAM
	case 0x04, 0x05:
		return portVSRAM
	}
	return portVRAM
}

func (v *VDP) runMemoryToVRAM(mem dmaSource, source uint32) {
	length := v.dmaLength()
	if length == 0 {
		length = 0x10000
	}

	v.dmaActive = true
	location := v.dataPortLocation()

	for i := uint32(0); i < length; i++ {
		word := mem.readWordForDMA(source)
		v.writeDataWord(location, word)
		source += 2
		v.dataAddress += v.autoIncrement()
	}

	v.registers[21] = uint8(source >> 1)
	v.registers[22] = uint8(source >> 9)
	v.registers[23] = v.registers[23]&0x80 | uint8(source>>17&0x7f)

	v.stallCycles += v.dmaStall(length)
	v.setDMALength(0)
	v.dmaActive = false
}

func (v *VDP) runVRAMFill(fillData uint16) {
	length := v.dmaLength()
	if length == 0 {
		length = 0x10000
	}

	v.dmaActive = true

	// the fill starts with one normal VRAM write of the whole word, then
	// repeatedly writes the MSB to the partner byte address
	v.writeDataWord(portVRAM, fillData)
	v.dataAddress += v.autoIncrement()

	msb := uint8(fillData >> 8)
	for i := uint32(0); i < length; i++ {
		v.vram[(v.dataAddress^0x1)&0xffff] = msb
		v.dataAddress += v.autoIncrement()
	}

	v.stallCycles += v.dmaStall(length)
	v.setDMALength(0)
	v.dmaActive = false
}

func (v *VDP) runVRAMCopy(source uint32) {
	length := v.dmaLength()
	if length == 0 {
		length = 0x10000
	}

	v.dmaActive = true

	// VRAM copy treats the source address as A15-A0 rather than A23-A1
	sourceAddr := uint16(source >> 1)
	for i := uint32(0); i < length; i++ {
		v.vram[v.dataAddress&0xffff] = v.vram[sourceAddr]
		sourceAddr++
		v.dataAddress += v.autoIncrement()
	}

	v.stallCycles += v.dmaStall(length)
	v.setDMALength(0)
	v.dmaActive = false
}

// dmaStall is the 68000 cycle cost of a DMA: the CPU loses the bus for the
// duration. transfers into the video memories run at half speed while the
// display is being drawn
func (v *VDP) dmaStall(lengthWords uint32) uint64 {
	perWord := uint64(2)
	if v.displayEnabled() && !v.vblankFlag {
		perWord = 4
	}
	return uint64(lengthWords) * perWord
}

// TakeStallCycles returns and clears the accumulated CPU stall debt.
func (v *VDP) TakeStallCycles() uint64 {
	s := v.stallCycles
	v.stallCycles = 0
	return s
}

func (v *VDP) writeDataWord(location dataPortLocation, word uint16) {
	switch location {
	case portVRAM:
		addr := v.dataAddress & 0xfffe
		v.vram[addr] = uint8(word >> 8)
		v.vram[addr+1] = uint8(word)
	case portCRAM:
		addr := uint32(v.dataAddress) % genCRAMLen & ^uint32(1)
		v.cram[addr] = uint8(word >> 8)
		v.cram[addr+1] = uint8(word)
	case portVSRAM:
		addr := uint32(v.dataAddress) % genVSRAMLen
		v.vsram[addr] = uint8(word >> 8)
		v.vsram[(addr+1)%genVSRAMLen] = uint8(word)
	}
}

// WriteData handles a word written to the VDP data port.
func (v *VDP) WriteData(word uint16) {
	if v.pendingFillData {
		v.pendingFillData = false
		v.runVRAMFill(word)
		return
	}

	v.writeDataWord(v.dataPortLocation(), word)
	v.dataAddress += v.autoIncrement()

	// data port writes during active display contend with rendering
	if v.displayEnabled() && !v.vblankFlag {
		v.stallCycles += 2
	}
}

// ReadData handles a word read from the VDP data port.
func (v *VDP) ReadData() uint16 {
	var word uint16

	switch v.dataPortLocation() {
	case portVRAM:
		addr := v.dataAddress & 0xfffe
		word = uint16(v.vram[addr])<<8 | uint16(v.vram[addr+1])
	case portCRAM:
		addr := uint32(v.dataAddress) % genCRAMLen & ^uint32(1)
		word = uint16(v.cram[addr])<<8 | uint16(v.cram[addr+1])
	case portVSRAM:
		addr := uint32(v.dataAddress) % genVSRAMLen
		word = uint16(v.vsram[addr])<<8 | uint16(v.vsram[(addr+1)%genVSRAMLen])
	}

	v.dataAddress += v.autoIncrement()
	return word
}

// ReadHVCounter returns the H/V counter word.
func (v *VDP) ReadHVCounter() uint16 {
	h := uint8(v.scanlineMclk * 256 / scanlineMclkCycles)
	return uint16(v.scanline&0xff)<<8 | uint16(h)
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
	enc.PutBytes(v.vsram)
	for _, r := range v.registers {
		enc.PutUint8(r)
	}
	enc.PutBool(v.controlLatch)
	enc.PutUint16(v.firstWord)
	enc.PutUint8(v.code)
	enc.PutUint16(v.dataAddress)
	enc.PutUint32(v.dmaSourceAddr)
	enc.PutBool(v.pendingFillData)
	enc.PutBool(v.vblankFlag)
	enc.PutBool(v.hblankFlag)
	enc.PutBool(v.dmaActive)
	enc.PutBool(v.vintPending)
	enc.PutBool(v.hintPending)
	enc.PutUint8(v.hintCounter)
	enc.PutUint16(v.scanline)
	enc.PutUint32(v.scanlineMclk)
	enc.PutUint64(v.stallCycles)
	enc.PutBool(v.frameComplete)
}

// Restore decodes the VDP state.
func (v *VDP) Restore(dec *savestate.Decoder) {
	dec.BytesInto(v.vram)
	dec.BytesInto(v.cram)
	dec.BytesInto(v.vsram)
	for i := range v.registers {
		v.registers[i] = dec.Uint8()
	}
	v.controlLatch = dec.Bool()
	v.firstWord = dec.Uint16()
	v.code = dec.Uint8()
	v.dataAddress = dec.Uint16()
	v.dmaSourceAddr = dec.Uint32()
	v.pendingFillData = dec.Bool()
	v.vblankFlag = dec.Bool()
	v.hblankFlag = dec.Bool()
	v.dmaActive = dec.Bool()
	v.vintPending = dec.Bool()
	v.hintPending = dec.Bool()
	v.hintCounter = dec.Uint8()
	v.scanline = dec.Uint16()
	v.scanlineMclk = dec.Uint32()
	v.stallCycles = dec.Uint64()
	v.frameComplete = dec.Bool()
}
