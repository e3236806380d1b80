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
	"testing"

	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/test"
)

// build an iNES image with the given mapper number
func inesROM(mapper int, prgBanks int) []uint8 {
	rom := make([]uint8, 16+prgBanks*16*1024)
	copy(rom, []byte{'N', 'E', 'S', 0x1a})
	rom[4] = uint8(prgBanks)
	rom[6] = uint8(mapper&0x0f) << 4
	rom[7] = uint8(mapper & 0xf0)

	// each PRG byte records its bank number
	for i := 16; i < len(rom); i++ {
		rom[i] = uint8((i - 16) / 0x4000)
	}
	return rom
}

func TestUnknownMapperRefused(t *testing.T) {
	_, err := NewCartridge(inesROM(77, 2), nil)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, UnknownMapper))
}

func TestBadHeaderRefused(t *testing.T) {
	_, err := NewCartridge([]uint8{1, 2, 3}, nil)
	test.ExpectSuccess(t, curated.Is(err, UnsupportedHeader))
}

// drive the MMC1 shifter: five writes, one bit at a time, LSB first
func mmc1Write(cart *Cartridge, address uint16, value uint8) {
	for i := 0; i < 5; i++ {
		cart.WritePRG(address, value>>i&0x01)
	}
}

func TestMMC1SerialBanking(t *testing.T) {
	cart, err := NewCartridge(inesROM(1, 8), nil)
	test.ExpectSuccess(t, err)

	// power-on: mode 3 fixes the last bank at $c000
	test.ExpectEquality(t, cart.ReadPRG(0xc000), uint8(7))

	// select bank 5 at $8000
	mmc1Write(cart, 0xe000, 0x05)
	test.ExpectEquality(t, cart.ReadPRG(0x8000), uint8(5))
	test.ExpectEquality(t, cart.ReadPRG(0xc000), uint8(7))

	// a bit-7 write resets the shifter mid-sequence
	cart.WritePRG(0xe000, 0x01)
	cart.WritePRG(0xe000, 0x80)
	mmc1Write(cart, 0xe000, 0x02)
	test.ExpectEquality(t, cart.ReadPRG(0x8000), uint8(2))
}

func TestMMC1RAMEnable(t *testing.T) {
	cart, err := NewCartridge(inesROM(1, 2), nil)
	test.ExpectSuccess(t, err)

	// RAM is enabled at power-on (prgBank bit 4 clear)
	cart.WritePRG(0x6000, 0xab)
	test.ExpectEquality(t, cart.ReadPRG(0x6000), uint8(0xab))

	// setting the disable bit makes the window open bus
	mmc1Write(cart, 0xe000, 0x10)
	test.ExpectEquality(t, cart.ReadPRG(0x6000), uint8(0xff))
}

// scriptCPU is a 6502 stand-in: one scripted bus operation per Step
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

type nullRenderer struct{}

func (nullRenderer) RenderFrame(pix []uint32, size hardware.FrameSize, par float64) error {
	return nil
}

type nullAudio struct{}

func (nullAudio) PushSample(l, r float64) error { return nil }

type nullSaves struct{}

func (nullSaves) PersistBytes(name string, data []byte) error { return nil }

func TestOAMDMAStallsCPU(t *testing.T) {
	cpu := &scriptCPU{script: []func(bus.Interface){
		func(m bus.Interface) {},
		// start an OAM DMA from page 2
		func(m bus.Interface) { m.Write8(0x4014, 0x02) },
	}}

	sys, err := Create(inesROM(0, 2), DefaultConfig(), cpu, nil)
	test.ExpectSuccess(t, err)

	sys.Tick(hardware.Inputs{}, nullRenderer{}, nullAudio{}, nullSaves{})
	test.ExpectEquality(t, sys.TotalCycles(), uint64(4))
	dotsBefore := uint64(sys.ppu.line)*ppuDotsPerLine + uint64(sys.ppu.dot)

	// the DMA inflates the instruction's cost by the 513-cycle stall...
	sys.Tick(hardware.Inputs{}, nullRenderer{}, nullAudio{}, nullSaves{})
	test.ExpectEquality(t, sys.TotalCycles(), uint64(4+4+513))

	// ...and the PPU advances three dots for every one of them
	dotsAfter := uint64(sys.ppu.line)*ppuDotsPerLine + uint64(sys.ppu.dot)
	test.ExpectEquality(t, dotsAfter-dotsBefore, uint64((4+513)*3))
}

func TestBandaiEEPROMWired(t *testing.T) {
	cart, err := NewCartridge(inesROM(16, 2), nil)
	test.ExpectSuccess(t, err)

	b := cart.board.(*bandaiFCG)

	// write a byte through the serial port: start, address byte (write to
	// 0x00), data byte, stop. data is bit 6, clock bit 5
	line := func(data, clock bool) {
		var v uint8
		if data {
			v |= 0x40
		}
		if clock {
			v |= 0x20
		}
		cart.WritePRG(0x800d, v)
	}
	sendBit := func(bit bool) {
		line(bit, false)
		line(bit, true)
		line(bit, false)
	}
	sendByte := func(v uint8) {
		for i := 7; i >= 0; i-- {
			sendBit(v&(1<<i) != 0)
		}
		sendBit(false) // acknowledge clock
	}

	// start condition
	line(true, true)
	line(false, true)
	line(false, false)

	sendByte(0x00) // address 0, write
	sendByte(0xc3)

	// stop condition
	line(false, true)
	line(true, true)

	test.ExpectEquality(t, b.chip.Memory()[0], uint8(0xc3))
	test.ExpectSuccess(t, cart.Dirty())

	blob, ok := cart.PersistentSave()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, blob[0], uint8(0xc3))
}
