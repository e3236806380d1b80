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

// Package cartridge emulates Game Boy cartridges: the mapper chip that
// translates CPU addresses into ROM and RAM offsets, the battery-backed RAM
// behind it, and the embedded logic some cartridges carry (the HuC-3
// real-time clock).
//
// Each mapper type is a variant behind the Mapper interface. The set is
// closed: the Cartridge type dispatches on the header's mapper code and a
// code outside the set is an UnknownMapper error at creation time, never
// later.
package cartridge

import (
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/savestate"
)

// Error patterns raised when a cartridge is created.
const (
	UnknownMapper     = "cartridge: unknown mapper code %#02x"
	UnsupportedHeader = "cartridge: unsupported header: %v"
)

// header offsets
const (
	mapperCodeAddr = 0x0147
	ramSizeAddr    = 0x0149
)

// Mapper is the contract every cartridge mapper implements.
//
// MapROMAddress and MapRAMAddress are pure functions of mapper state: they
// never mutate. The boolean result is false for an unmapped access (RAM
// disabled, no RAM fitted), in which case reads return the open-bus value
// and writes are dropped.
type Mapper interface {
	// MapROMAddress translates a CPU address in $0000-$7fff to an absolute
	// ROM offset
	MapROMAddress(address uint16) (uint32, bool)

	// MapRAMAddress translates a CPU address in $a000-$bfff to an absolute
	// RAM offset, respecting the RAM-enable latch
	MapRAMAddress(address uint16) (uint32, bool)

	// WriteControl accepts a write to the cartridge ROM window, which is
	// how mapper registers are addressed
	WriteControl(address uint16, data uint8)

	// Tick advances embedded logic by the elapsed CPU cycles. a no-op for
	// mappers with no embedded logic
	Tick(cpuCycles uint64)

	// Reset returns mapper registers to their power-on values
	Reset()

	Snapshot(enc *savestate.Encoder)
	Restore(dec *savestate.Decoder)
}

// ramOverride is implemented by mappers whose RAM window does not behave
// like a plain byte array: the MBC2's internal nibble RAM and the HuC-3's
// mode-switched window.
type ramOverride interface {
	readRAM(address uint16, sram []uint8) uint8

	// the returned flag indicates that persistent state was changed
	writeRAM(address uint16, data uint8, sram []uint8) bool
}

// rtcMapper is implemented by mappers carrying a real-time clock.
type rtcMapper interface {
	updateTime()
	rtcSave() []byte
	rtcRestore(blob []byte)
}

// Cartridge is a loaded Game Boy cartridge: the ROM image, the mapper chip
// and any RAM behind it.
type Cartridge struct {
	ROM []uint8
	RAM []uint8

	mapper  Mapper
	battery bool

	// persistent state has changed since the last PersistentSave()
	dirty bool
}

// ramSize decodes the header's RAM size code.
func ramSize(code uint8) (int, bool) {
	switch code {
	case 0x00:
		return 0, true
	case 0x02:
		return 8 * 1024, true
	case 0x03:
		return 32 * 1024, true
	case 0x04:
		return 128 * 1024, true
	case 0x05:
		return 64 * 1024, true
	}
	return 0, false
}

// NewCartridge creates a Cartridge from a ROM image. The initialSave blob,
// if not nil, loads the battery-backed RAM. The clock source feeds any
// real-time clock on the cartridge.
func NewCartridge(rom []uint8, initialSave []uint8, clock hardware.ClockSource) (*Cartridge, error) {
	if len(rom) < 0x0150 {
		return nil, curated.Errorf(UnsupportedHeader, "image smaller than the cartridge header")
	}
	if len(rom)&(len(rom)-1) != 0 {
		return nil, curated.Errorf(UnsupportedHeader, "image size is not a power of two")
	}

	size, ok := ramSize(rom[ramSizeAddr])
	if !ok {
		return nil, curated.Errorf(UnsupportedHeader, "bad RAM size code")
	}

	cart := &Cartridge{ROM: rom}

	mapperCode := rom[mapperCodeAddr]
	switch mapperCode {
	case 0x00:
		cart.mapper = newSimple(uint32(len(rom)))

	case 0x01, 0x02, 0x03:
		cart.mapper = newMBC1(uint32(len(rom)), uint32(size))
		cart.battery = mapperCode == 0x03

	case 0x05, 0x06:
		cart.mapper = newMBC2(uint32(len(rom)))
		cart.battery = mapperCode == 0x06
		size = 0 // MBC2 RAM is internal to the mapper

	case 0x0f, 0x10, 0x11, 0x12, 0x13:
		cart.mapper = newMBC3(uint32(len(rom)), uint32(size))
		cart.battery = mapperCode == 0x0f || mapperCode == 0x10 || mapperCode == 0x13

	case 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e:
		cart.mapper = newMBC5(uint32(len(rom)), uint32(size))
		cart.battery = mapperCode == 0x1b || mapperCode == 0x1e

	case 0xfe:
		if size == 0 {
			return nil, curated.Errorf(UnsupportedHeader, "HuC-3 cartridge with no RAM")
		}
		cart.mapper = newHuC3(uint32(len(rom)), uint32(size), clock)
		cart.battery = true

	default:
		return nil, curated.Errorf(UnknownMapper, mapperCode)
	}

	cart.RAM = make([]uint8, size)

	if initialSave != nil {
		cart.loadSave(initialSave)
	}

	return cart, nil
}

// loadSave fills persistent state from a save blob. A blob of the wrong
// length is ignored, as though no save file were present.
func (c *Cartridge) loadSave(blob []uint8) {
	if m, ok := c.mapper.(*mbc2); ok {
		if len(blob) == len(m.ram) {
			copy(m.ram, blob)
		}
		return
	}

	if len(blob) == len(c.RAM) {
		copy(c.RAM, blob)
	}
}

// Read a cartridge-window address: the ROM window at $0000-$7fff or the RAM
// window at $a000-$bfff.
func (c *Cartridge) Read(address uint16) uint8 {
	if address < 0x8000 {
		if offset, ok := c.mapper.MapROMAddress(address); ok {
			return c.ROM[offset]
		}
		return bus.OpenBus
	}

	if ro, ok := c.mapper.(ramOverride); ok {
		return ro.readRAM(address, c.RAM)
	}

	if offset, ok := c.mapper.MapRAMAddress(address); ok {
		return c.RAM[offset]
	}
	return bus.OpenBus
}

// Write a cartridge-window address. Writes to the ROM window address mapper
// control registers; writes to the RAM window store through the mapper's
// RAM translation.
func (c *Cartridge) Write(address uint16, data uint8) {
	if address < 0x8000 {
		c.mapper.WriteControl(address, data)
		return
	}

	if ro, ok := c.mapper.(ramOverride); ok {
		if ro.writeRAM(address, data, c.RAM) {
			c.dirty = true
		}
		return
	}

	if offset, ok := c.mapper.MapRAMAddress(address); ok {
		c.RAM[offset] = data
		c.dirty = true
	}
}

// Tick advances cartridge-embedded logic by the elapsed CPU cycles.
func (c *Cartridge) Tick(cpuCycles uint64) {
	c.mapper.Tick(cpuCycles)
}

// UpdateRTC advances any real-time clock by the wall-clock time elapsed
// since the previous call. Called at frame boundaries.
func (c *Cartridge) UpdateRTC() {
	if rtc, ok := c.mapper.(rtcMapper); ok {
		rtc.updateTime()
	}
}

// Dirty reports whether persistent state has changed since the last
// PersistentSave(). Reset by PersistentSave().
func (c *Cartridge) Dirty() bool {
	return c.dirty
}

// PersistentSave returns the battery-backed state as a blob, or false if
// the cartridge has no battery.
func (c *Cartridge) PersistentSave() ([]uint8, bool) {
	if !c.battery {
		return nil, false
	}
	c.dirty = false

	if m, ok := c.mapper.(*mbc2); ok {
		blob := make([]uint8, len(m.ram))
		copy(blob, m.ram)
		return blob, true
	}

	blob := make([]uint8, len(c.RAM))
	copy(blob, c.RAM)
	return blob, true
}

// RTCSave returns the serialised real-time clock, or false if the
// cartridge has no clock chip.
func (c *Cartridge) RTCSave() ([]uint8, bool) {
	if rtc, ok := c.mapper.(rtcMapper); ok {
		return rtc.rtcSave(), true
	}
	return nil, false
}

// RTCRestore loads a previously serialised real-time clock.
func (c *Cartridge) RTCRestore(blob []uint8) {
	if rtc, ok := c.mapper.(rtcMapper); ok {
		rtc.rtcRestore(blob)
	}
}

// Reset returns the mapper to its power-on state. RAM contents survive, as
// they do on hardware for the duration of the battery.
func (c *Cartridge) Reset() {
	c.mapper.Reset()
}

// Mapper exposes the mapper for inspection.
func (c *Cartridge) Mapper() Mapper {
	return c.mapper
}

// Snapshot encodes cartridge state, including RAM.
func (c *Cartridge) Snapshot(enc *savestate.Encoder) {
	enc.PutBytes(c.RAM)
	enc.PutBool(c.dirty)
	c.mapper.Snapshot(enc)
}

// Restore decodes cartridge state.
func (c *Cartridge) Restore(dec *savestate.Decoder) {
	dec.BytesInto(c.RAM)
	c.dirty = dec.Bool()
	c.mapper.Restore(dec)
}
