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

package gameboy

import (
	"testing"

	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/gameboy/ppu"
	"github.com/jetsetilly/gophergen/test"
)

type stubRenderer struct {
	frames int
}

func (r *stubRenderer) RenderFrame(pix []uint32, size hardware.FrameSize, par float64) error {
	r.frames++
	return nil
}

type stubAudio struct{}

func (stubAudio) PushSample(l, r float64) error { return nil }

type stubSaves struct {
	blobs map[string][]byte
}

func (s *stubSaves) PersistBytes(name string, data []byte) error {
	if s.blobs == nil {
		s.blobs = make(map[string][]byte)
	}
	b := make([]byte, len(data))
	copy(b, data)
	s.blobs[name] = b
	return nil
}

// a ROM whose program is a tight JR loop: deterministic twelve-cycle ticks
// with the program counter pinned
func loopROM() []uint8 {
	rom := make([]uint8, 32*1024)
	rom[0x0100] = 0x18 // JR -2
	rom[0x0101] = 0xfe
	return rom
}

func createTestSystem(t *testing.T) *GameBoy {
	t.Helper()
	gb, err := Create(loopROM(), DefaultConfig(), nil, hardware.WallClock{})
	test.ExpectSuccess(t, err)
	return gb
}

// run the system for (at least) the given number of master cycles,
// returning how many frames were rendered
func runCycles(t *testing.T, gb *GameBoy, cycles uint64) int {
	t.Helper()

	renderer := &stubRenderer{}
	target := gb.TotalMasterCycles() + cycles
	for gb.TotalMasterCycles() < target {
		_, err := gb.Tick(hardware.Inputs{}, renderer, stubAudio{}, &stubSaves{})
		test.ExpectSuccess(t, err)
	}
	return renderer.frames
}

func TestFrameCadence(t *testing.T) {
	gb := createTestSystem(t)

	// the first frame after power-on is suppressed, as on hardware where
	// the LCD needs a frame to stabilise. so two frames of cycles deliver
	// exactly one frame...
	frames := runCycles(t, gb, 2*ppu.DotsPerFrame)
	test.ExpectEquality(t, frames, 1)

	// ...and every subsequent frame's worth of cycles delivers exactly one
	for i := 0; i < 3; i++ {
		frames := runCycles(t, gb, ppu.DotsPerFrame)
		test.ExpectEquality(t, frames, 1)
	}
}

func TestFrameSuppressionAfterReenable(t *testing.T) {
	gb := createTestSystem(t)

	// settle into steady state
	runCycles(t, gb, 4*ppu.DotsPerFrame)

	// disable the video unit mid-frame: the blanked display is handed over
	// as one final frame
	runCycles(t, gb, ppu.DotsPerFrame/2)
	gb.ppu.WriteRegister(0xff40, 0x11) // LCDC with enable bit clear

	frames := runCycles(t, gb, ppu.DotsPerFrame)
	test.ExpectEquality(t, frames, 1)

	// while disabled: no frames at all
	frames = runCycles(t, gb, 4*ppu.DotsPerFrame)
	test.ExpectEquality(t, frames, 0)

	// re-enable: the first frame is suppressed, the second delivered
	gb.ppu.WriteRegister(0xff40, 0x91)
	frames = runCycles(t, gb, 2*ppu.DotsPerFrame)
	test.ExpectEquality(t, frames, 1)
}

func TestCycleAccounting(t *testing.T) {
	gb := createTestSystem(t)

	// the scheduler invariant: total master cycles equals the sum of the
	// per-instruction costs. the loop program costs exactly 12 cycles per
	// instruction
	renderer := &stubRenderer{}
	var sum uint64
	for i := 0; i < 1000; i++ {
		before := gb.TotalMasterCycles()
		_, err := gb.Tick(hardware.Inputs{}, renderer, stubAudio{}, &stubSaves{})
		test.ExpectSuccess(t, err)
		sum += gb.TotalMasterCycles() - before
	}

	test.ExpectEquality(t, sum, gb.TotalMasterCycles())
	test.ExpectEquality(t, sum, uint64(12*1000))
}

func TestOAMDMAStallsCPU(t *testing.T) {
	// LD A,$c0 then LDH ($46),A starts an OAM DMA from $c000. the DMA
	// steals the bus for 160 machine cycles, inflating the instruction's
	// cost; the PPU must advance by the inflated count
	rom := make([]uint8, 32*1024)
	rom[0x0100] = 0x3e // LD A,$c0
	rom[0x0101] = 0xc0
	rom[0x0102] = 0xe0 // LDH ($46),A
	rom[0x0103] = 0x46
	rom[0x0104] = 0x18 // JR -2
	rom[0x0105] = 0xfe

	gb, err := Create(rom, DefaultConfig(), nil, hardware.WallClock{})
	test.ExpectSuccess(t, err)

	renderer := &stubRenderer{}

	// LD A,n
	gb.Tick(hardware.Inputs{}, renderer, stubAudio{}, &stubSaves{})
	test.ExpectEquality(t, gb.TotalMasterCycles(), uint64(8))

	// LDH (n),A: 12 cycles plus the 640-cycle DMA stall
	before := gb.TotalMasterCycles()
	gb.Tick(hardware.Inputs{}, renderer, stubAudio{}, &stubSaves{})
	test.ExpectEquality(t, gb.TotalMasterCycles()-before, uint64(12+640))

	// the PPU kept pace with the inflated count: 660 dots is into the
	// second scanline
	test.ExpectEquality(t, gb.ppu.ReadRegister(0xff44), uint8(1))
}

func TestSaveStateRoundTrip(t *testing.T) {
	gb := createTestSystem(t)

	runCycles(t, gb, 3*ppu.DotsPerFrame+12345)
	state := gb.SaveState()

	// the copy continues identically: same state at every later point
	gb2 := createTestSystem(t)
	test.ExpectSuccess(t, gb2.LoadState(state))

	test.ExpectEquality(t, gb2.TotalMasterCycles(), gb.TotalMasterCycles())

	runCycles(t, gb, ppu.DotsPerFrame)
	runCycles(t, gb2, ppu.DotsPerFrame)

	a := gb.SaveState()
	b := gb2.SaveState()
	test.ExpectEquality(t, len(a), len(b))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("states diverge at byte %d", i)
		}
	}
}

func TestLoadStateFailurePreservesState(t *testing.T) {
	gb := createTestSystem(t)
	runCycles(t, gb, 10000)

	before := gb.SaveState()

	// corrupt state: wrong version
	bad := gb.SaveState()
	bad[4] = 0xee
	test.ExpectFailure(t, gb.LoadState(bad))

	// truncated state
	test.ExpectFailure(t, gb.LoadState(before[:len(before)/2]))

	after := gb.SaveState()
	test.ExpectEquality(t, len(before), len(after))
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("state changed at byte %d after failed load", i)
		}
	}
}

func TestJoypadEdgeInterrupt(t *testing.T) {
	gb := createTestSystem(t)

	renderer := &stubRenderer{}

	// holding a button raises the joypad interrupt flag once, on the edge
	inputs := hardware.Inputs{P1: hardware.Gamepad(0).Set(hardware.Start, true)}
	gb.Tick(inputs, renderer, stubAudio{}, &stubSaves{})
	test.ExpectEquality(t, gb.irq.flags&(1<<intJoypad), uint8(1<<intJoypad))

	gb.irq.flags &^= 1 << intJoypad

	// still held: no new edge
	gb.Tick(inputs, renderer, stubAudio{}, &stubSaves{})
	test.ExpectEquality(t, gb.irq.flags&(1<<intJoypad), uint8(0))

	// released and pressed again: new edge
	gb.Tick(hardware.Inputs{}, renderer, stubAudio{}, &stubSaves{})
	gb.Tick(inputs, renderer, stubAudio{}, &stubSaves{})
	test.ExpectEquality(t, gb.irq.flags&(1<<intJoypad), uint8(1<<intJoypad))
}
