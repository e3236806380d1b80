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

package cartridge_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/gameboy/cartridge"
	"github.com/jetsetilly/gophergen/test"
)

// fakeClock is a hardware.ClockSource under test control
type fakeClock struct {
	nanos int64
}

func (c *fakeClock) NowNanos() int64 {
	return c.nanos
}

// makeROM builds a ROM image of the given size with a valid-enough header.
// every byte of the image encodes its own bank number so that bank mapping
// mistakes are visible in reads
func makeROM(size int, mapperCode uint8, ramCode uint8) []uint8 {
	rom := make([]uint8, size)
	for i := range rom {
		rom[i] = uint8(i / 0x4000)
	}
	rom[0x0147] = mapperCode
	rom[0x0149] = ramCode
	return rom
}

func newCart(t *testing.T, rom []uint8, save []uint8) *cartridge.Cartridge {
	t.Helper()
	cart, err := cartridge.NewCartridge(rom, save, hardware.WallClock{})
	test.ExpectSuccess(t, err)
	return cart
}

func TestUnknownMapper(t *testing.T) {
	_, err := cartridge.NewCartridge(makeROM(0x8000, 0xab, 0x00), nil, hardware.WallClock{})
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, cartridge.UnknownMapper))
}

func TestMBC1BankSelect(t *testing.T) {
	// a 512KB image: bank 17 exists. writing 0x11 to the bank selector
	// window must map $4000 to ROM offset 0x44000
	rom := makeROM(512*1024, 0x01, 0x00)
	cart := newCart(t, rom, nil)

	cart.Write(0x2000, 0x11)
	test.ExpectEquality(t, cart.Read(0x4000), rom[0x44000])

	offset, ok := cart.Mapper().MapROMAddress(0x4000)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, offset, uint32(0x44000))
}

func TestMBC1BankWrap(t *testing.T) {
	// on a 256KB image bank 17 is out of range and wraps through the
	// power-of-two mask to bank 1
	cart := newCart(t, makeROM(256*1024, 0x01, 0x00), nil)

	cart.Write(0x2000, 0x11)
	offset, ok := cart.Mapper().MapROMAddress(0x4000)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, offset, uint32(0x04000))
}

func TestMBC1BankZeroReadsAsBankOne(t *testing.T) {
	cart := newCart(t, makeROM(256*1024, 0x01, 0x00), nil)

	cart.Write(0x2000, 0x00)
	test.ExpectEquality(t, cart.Read(0x4000), uint8(1))

	// the lower window is bank 0 regardless
	test.ExpectEquality(t, cart.Read(0x0000), uint8(0))
}

func TestMBC1RAMEnable(t *testing.T) {
	cart := newCart(t, makeROM(256*1024, 0x03, 0x02), nil)

	// disabled RAM reads as open bus and drops writes
	test.ExpectEquality(t, cart.Read(0xa000), uint8(0xff))
	cart.Write(0xa000, 0x12)
	test.ExpectEquality(t, cart.Read(0xa000), uint8(0xff))

	// only the magic value enables
	cart.Write(0x0000, 0x0a)
	cart.Write(0xa000, 0x12)
	test.ExpectEquality(t, cart.Read(0xa000), uint8(0x12))

	// any other value disables again; contents survive
	cart.Write(0x0000, 0x0b)
	test.ExpectEquality(t, cart.Read(0xa000), uint8(0xff))
	cart.Write(0x0000, 0x0a)
	test.ExpectEquality(t, cart.Read(0xa000), uint8(0x12))
}

func TestMapROMAddressInRange(t *testing.T) {
	// the mapping invariant: for every mapper and every address in the ROM
	// window, the mapped offset is inside the image
	for _, mapperCode := range []uint8{0x00, 0x01, 0x05, 0x0f, 0x19, 0xfe} {
		ramCode := uint8(0x00)
		if mapperCode == 0xfe {
			ramCode = 0x02
		}
		rom := makeROM(128*1024, mapperCode, ramCode)
		cart := newCart(t, rom, nil)

		// drive the bank registers to awkward values
		cart.Write(0x2000, 0xff)
		cart.Write(0x4000, 0xff)

		for addr := 0; addr < 0x8000; addr += 0x101 {
			offset, ok := cart.Mapper().MapROMAddress(uint16(addr))
			if ok && offset >= uint32(len(rom)) {
				t.Fatalf("mapper %#02x mapped %#04x outside the image: %#x", mapperCode, addr, offset)
			}
		}
	}
}

func TestMBC2NibbleRAM(t *testing.T) {
	cart := newCart(t, makeROM(256*1024, 0x06, 0x00), nil)

	// enable RAM: the write must go to a control address with bit 8 clear
	cart.Write(0x0000, 0x0a)

	// writes store the low nibble only
	cart.Write(0xa100, 0xf7)
	test.ExpectEquality(t, cart.Read(0xa100), uint8(0x07))

	// disable: open bus
	cart.Write(0x0000, 0x00)
	test.ExpectEquality(t, cart.Read(0xa100), uint8(0xff))

	// re-enable: contents intact
	cart.Write(0x0000, 0x0a)
	test.ExpectEquality(t, cart.Read(0xa100), uint8(0x07))
}

func TestMBC2RAMPersistence(t *testing.T) {
	cart := newCart(t, makeROM(256*1024, 0x06, 0x00), nil)

	cart.Write(0x0000, 0x0a)
	cart.Write(0xa000, 0x05)

	blob, ok := cart.PersistentSave()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, len(blob), cartridge.MBC2RAMLen)

	// a new cartridge created from the save sees the written value
	restored := newCart(t, makeROM(256*1024, 0x06, 0x00), blob)
	restored.Write(0x0000, 0x0a)
	test.ExpectEquality(t, restored.Read(0xa000), uint8(0x05))
}

func TestMBC5AllowsBankZero(t *testing.T) {
	cart := newCart(t, makeROM(256*1024, 0x19, 0x00), nil)

	cart.Write(0x2000, 0x00)
	test.ExpectEquality(t, cart.Read(0x4000), uint8(0))

	cart.Write(0x2000, 0x03)
	test.ExpectEquality(t, cart.Read(0x4000), uint8(3))
}

func TestBatteryRAMRoundTrip(t *testing.T) {
	cart := newCart(t, makeROM(256*1024, 0x03, 0x02), nil)

	cart.Write(0x0000, 0x0a)
	cart.Write(0xa123, 0x42)

	test.ExpectSuccess(t, cart.Dirty())
	blob, ok := cart.PersistentSave()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, cart.Dirty(), false)

	restored := newCart(t, makeROM(256*1024, 0x03, 0x02), blob)
	restored.Write(0x0000, 0x0a)
	test.ExpectEquality(t, restored.Read(0xa123), uint8(0x42))
}
