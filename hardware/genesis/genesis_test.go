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
	"testing"

	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/test"
)

// scripted CPU doubles for both sockets
type scriptCPU struct {
	script []func(mem bus.Interface)
	pos    int
	steps  int
}

func (c *scriptCPU) Step(mem bus.Interface) uint64 {
	c.steps++
	if c.pos < len(c.script) {
		c.script[c.pos](mem)
		c.pos++
	}
	return 8
}

func (c *scriptCPU) Reset() {
	c.pos = 0
}

type nullRenderer struct{ frames int }

func (r *nullRenderer) RenderFrame(pix []uint32, size hardware.FrameSize, par float64) error {
	r.frames++
	return nil
}

type nullAudio struct{}

func (nullAudio) PushSample(l, r float64) error { return nil }

type recordingSaves struct{ blobs map[string][]byte }

func (s *recordingSaves) PersistBytes(name string, data []byte) error {
	if s.blobs == nil {
		s.blobs = make(map[string][]byte)
	}
	s.blobs[name] = append([]byte(nil), data...)
	return nil
}

// a ROM with a header declaring 8KB of persistent 16-bit RAM at $200000
func sramROM() []uint8 {
	rom := make([]uint8, 512*1024)
	copy(rom[0x1b0:], []byte{'R', 'A', 0xe0, 0x20})
	binary.BigEndian.PutUint32(rom[0x1b4:], 0x200000)
	binary.BigEndian.PutUint32(rom[0x1b8:], 0x201fff)
	return rom
}

func run(t *testing.T, sys *Genesis, m68k *scriptCPU, minSteps int) (*nullRenderer, *recordingSaves) {
	t.Helper()
	renderer := &nullRenderer{}
	saves := &recordingSaves{}
	for i := 0; i < minSteps; i++ {
		_, err := sys.Tick(hardware.Inputs{}, renderer, nullAudio{}, saves)
		test.ExpectSuccess(t, err)
	}
	return renderer, saves
}

func TestHeaderRAMPersistence(t *testing.T) {
	var readBack uint8

	m68k := &scriptCPU{script: []func(bus.Interface){
		func(m bus.Interface) { m.Write8(0x200100, 0x42) },
		func(m bus.Interface) { readBack = m.Read8(0x200100) },
	}}

	sys, err := Create(sramROM(), DefaultConfig(), m68k, &scriptCPU{}, nil)
	test.ExpectSuccess(t, err)

	// run to a frame boundary so the save is flushed
	const stepsPerFrame = linesNTSC*scanlineMclkCycles/7/8 + 1
	_, saves := run(t, sys, m68k, stepsPerFrame*2)

	test.ExpectEquality(t, readBack, uint8(0x42))

	blob, ok := saves.blobs[saveNameExternal]
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, blob[0x100], uint8(0x42))

	// a system created from the persisted blob sees the write
	var restored uint8
	m68k2 := &scriptCPU{script: []func(bus.Interface){
		func(m bus.Interface) { restored = m.Read8(0x200100) },
	}}
	sys2, err := Create(sramROM(), DefaultConfig(), m68k2, &scriptCPU{}, blob)
	test.ExpectSuccess(t, err)
	run(t, sys2, m68k2, 1)
	test.ExpectEquality(t, restored, uint8(0x42))
}

func TestBusArbitration(t *testing.T) {
	var ack [2]uint8

	m68k := &scriptCPU{script: []func(bus.Interface){
		// before the request the busack bit reads set
		func(m bus.Interface) { ack[0] = m.Read8(0xa11100) & 0x01 },
		// raise busreq: the Z80 stalls and the 68000 can reach its memory
		func(m bus.Interface) { m.Write8(0xa11100, 0x01) },
		func(m bus.Interface) { ack[1] = m.Read8(0xa11100) & 0x01 },
		func(m bus.Interface) { m.Write8(0xa00000, 0x5a) },
		// release
		func(m bus.Interface) { m.Write8(0xa11100, 0x00) },
	}}

	z80 := &scriptCPU{}
	sys, err := Create(sramROM(), DefaultConfig(), m68k, z80, nil)
	test.ExpectSuccess(t, err)

	// let the Z80 out of reset first
	sys.z80Reset = false

	run(t, sys, m68k, 2)
	z80StepsBefore := z80.steps
	run(t, sys, m68k, 2) // busreq held during these ticks
	test.ExpectEquality(t, z80.steps, z80StepsBefore)

	run(t, sys, m68k, 4)
	if z80.steps == z80StepsBefore {
		t.Fatal("z80 never resumed after busreq release")
	}

	test.ExpectEquality(t, ack[0], uint8(0x01))
	test.ExpectEquality(t, ack[1], uint8(0x00))
	test.ExpectEquality(t, sys.z80RAM[0], uint8(0x5a))
}

func TestVRAMFillDMAStallsCPU(t *testing.T) {
	m68k := &scriptCPU{script: []func(bus.Interface){
		// enable DMA (register 1: mode 5 + DMA enable)
		func(m bus.Interface) { m.Write16(0xc00004, 0x8114) },
		// auto-increment 1
		func(m bus.Interface) { m.Write16(0xc00004, 0x8f01) },
		// DMA length 0x100
		func(m bus.Interface) { m.Write16(0xc00004, 0x9300) },
		func(m bus.Interface) { m.Write16(0xc00004, 0x9401) },
		// fill mode
		func(m bus.Interface) { m.Write16(0xc00004, 0x9780) },
		// destination $2000, CD5 set
		func(m bus.Interface) {
			m.Write16(0xc00004, 0x4000|0x2000&0x3fff)
			m.Write16(0xc00004, 0x0080)
		},
		// the fill data write starts the DMA
		func(m bus.Interface) { m.Write16(0xc00000, 0xaaaa) },
	}}

	sys, err := Create(sramROM(), DefaultConfig(), m68k, &scriptCPU{}, nil)
	test.ExpectSuccess(t, err)

	before := sys.TotalCycles()
	run(t, sys, m68k, len(m68k.script))
	elapsed := sys.TotalCycles() - before

	// the DMA stall inflates the cycle count well past the plain
	// instruction cost
	if elapsed <= uint64(len(m68k.script))*8 {
		t.Fatalf("DMA did not stall the CPU: %d cycles", elapsed)
	}

	// the fill wrote the MSB across the target range
	test.ExpectEquality(t, sys.vdp.vram[0x2000], uint8(0xaa))
	test.ExpectEquality(t, sys.vdp.vram[0x2001], uint8(0xaa))
	test.ExpectEquality(t, sys.vdp.vram[0x2080], uint8(0xaa))
}

func TestEEPROMCartridgeDetection(t *testing.T) {
	rom := make([]uint8, 512*1024)
	copy(rom[0x183:], []byte("MK-01300 "))

	var sda [2]uint8

	m68k := &scriptCPU{script: []func(bus.Interface){
		// idle lines high
		func(m bus.Interface) { m.Write8(0x200001, 0x03) },
		// start condition: data falls while clock high
		func(m bus.Interface) { m.Write8(0x200001, 0x02) },
		func(m bus.Interface) { sda[0] = m.Read8(0x200001) },
	}}

	sys, err := Create(rom, DefaultConfig(), m68k, &scriptCPU{}, nil)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, sys.external.chip != nil)

	run(t, sys, m68k, len(m68k.script))

	// the chip drives the line low outside of a read operation
	test.ExpectEquality(t, sda[0]&0x01, uint8(0))
}
