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

package smsgg_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/hardware/smsgg"
	"github.com/jetsetilly/gophergen/test"
)

// scriptCPU is a Z80 stand-in: it runs a scripted list of bus operations,
// one per Step, then idles
type scriptCPU struct {
	script []func(mem bus.Interface)
	pos    int
}

func (c *scriptCPU) Step(mem bus.Interface) uint64 {
	if c.pos < len(c.script) {
		c.script[c.pos](mem)
		c.pos++
	}
	return 4
}

func (c *scriptCPU) Reset() {
	c.pos = 0
}

type nullRenderer struct {
	frames int
}

func (r *nullRenderer) RenderFrame(pix []uint32, size hardware.FrameSize, par float64) error {
	r.frames++
	return nil
}

type nullAudio struct{}

func (nullAudio) PushSample(l, r float64) error { return nil }

type nullSaves struct{}

func (nullSaves) PersistBytes(name string, data []byte) error { return nil }

func testROM() []uint8 {
	rom := make([]uint8, 128*1024)
	for i := range rom {
		rom[i] = uint8(i / 0x4000)
	}
	return rom
}

func TestSegaMapperPaging(t *testing.T) {
	var got [4]uint8

	cpu := &scriptCPU{script: []func(bus.Interface){
		// power-on: three slots map banks 0,1,2
		func(m bus.Interface) { got[0] = m.Read8(0x4000) },
		// select bank 5 into slot 1 through the control register
		func(m bus.Interface) { m.Write8(0xfffe, 5) },
		func(m bus.Interface) { got[1] = m.Read8(0x4000) },
		// the first kilobyte is never paged
		func(m bus.Interface) { m.Write8(0xfffd, 7) },
		func(m bus.Interface) { got[2] = m.Read8(0x0100) },
		func(m bus.Interface) { got[3] = m.Read8(0x0400) },
	}}

	sys, err := smsgg.Create(testROM(), smsgg.DefaultConfig(), cpu, nil)
	test.ExpectSuccess(t, err)

	renderer := &nullRenderer{}
	for i := 0; i < len(cpu.script); i++ {
		_, err := sys.Tick(hardware.Inputs{}, renderer, nullAudio{}, nullSaves{})
		test.ExpectSuccess(t, err)
	}

	test.ExpectEquality(t, got[0], uint8(1))
	test.ExpectEquality(t, got[1], uint8(5))
	test.ExpectEquality(t, got[2], uint8(0))
	test.ExpectEquality(t, got[3], uint8(7))
}

func TestFrameDelivery(t *testing.T) {
	cpu := &scriptCPU{}
	sys, err := smsgg.Create(testROM(), smsgg.DefaultConfig(), cpu, nil)
	test.ExpectSuccess(t, err)

	// one NTSC frame is 262 lines × 342 dots; at 3 dots per 2 Z80 cycles
	// that is 59736 Z80 cycles
	const frameCycles = 262 * 342 * 2 / 3

	renderer := &nullRenderer{}
	start := sys.TotalCycles()
	for sys.TotalCycles() < start+3*frameCycles {
		_, err := sys.Tick(hardware.Inputs{}, renderer, nullAudio{}, nullSaves{})
		test.ExpectSuccess(t, err)
	}

	test.ExpectEquality(t, renderer.frames, 3)
}

func TestVDPInterruptLine(t *testing.T) {
	var level [2]int

	cpu := &scriptCPU{script: []func(bus.Interface){
		// enable the frame interrupt (register 1 bit 5) through the
		// control port: value then register select
		func(m bus.Interface) { m.Write8(smsgg.PortSpace+0xbf, 0x60) },
		func(m bus.Interface) { m.Write8(smsgg.PortSpace+0xbf, 0x80|0x01) },
		func(m bus.Interface) { level[0] = m.InterruptLevel() },
		// the status read clears the pending interrupt; sampled by a later
		// step once the frame flag has been raised
	}}

	sys, err := smsgg.Create(testROM(), smsgg.DefaultConfig(), cpu, nil)
	test.ExpectSuccess(t, err)

	renderer := &nullRenderer{}
	for renderer.frames == 0 {
		_, err := sys.Tick(hardware.Inputs{}, renderer, nullAudio{}, nullSaves{})
		test.ExpectSuccess(t, err)
	}

	// with a frame complete, the interrupt line is asserted
	cpu.script = append(cpu.script,
		func(m bus.Interface) { level[1] = m.InterruptLevel() },
		func(m bus.Interface) { m.Read8(smsgg.PortSpace + 0xbf) },
	)
	for cpu.pos < len(cpu.script) {
		sys.Tick(hardware.Inputs{}, renderer, nullAudio{}, nullSaves{})
	}

	test.ExpectEquality(t, level[0], -1)
	test.ExpectEquality(t, level[1], 0)
}

func TestSaveStateRoundTrip(t *testing.T) {
	cpu := &scriptCPU{}
	sys, err := smsgg.Create(testROM(), smsgg.DefaultConfig(), cpu, nil)
	test.ExpectSuccess(t, err)

	renderer := &nullRenderer{}
	for i := 0; i < 10000; i++ {
		sys.Tick(hardware.Inputs{}, renderer, nullAudio{}, nullSaves{})
	}

	state := sys.SaveState()

	sys2, err := smsgg.Create(testROM(), smsgg.DefaultConfig(), &scriptCPU{}, nil)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, sys2.LoadState(state))

	test.ExpectEquality(t, sys2.TotalCycles(), sys.TotalCycles())

	for i := 0; i < 10000; i++ {
		sys.Tick(hardware.Inputs{}, renderer, nullAudio{}, nullSaves{})
		sys2.Tick(hardware.Inputs{}, renderer, nullAudio{}, nullSaves{})
	}

	a := sys.SaveState()
	b := sys2.SaveState()
	test.ExpectEquality(t, len(a), len(b))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("states diverge at byte %d", i)
		}
	}
}
