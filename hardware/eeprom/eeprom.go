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

// Package eeprom emulates the X24C01 and X24C02 serial EEPROM chips, used
// as save memory on Genesis cartridges and on Bandai's NES boards.
//
// The chips speak a two-wire protocol: a bit is consumed on each rising
// clock edge, and a data-line transition while the clock is high is a start
// (high to low) or stop (low to high) condition. Each byte on the wire is
// followed by an acknowledge clock on which the state machine advances
// without consuming a bit. Sequential writes wrap within a four-byte page;
// sequential reads wrap within the whole device.
package eeprom

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// the protocol state machine phases
type phase int

const (
	phaseStandby phase = iota
	phaseStopped
	phaseReceivingDeviceAddress
	phaseReceivingAddress
	phaseReceivingData
	phaseSendingData
)

// Kind selects the emulated chip.
type Kind int

// List of supported chips.
const (
	// 128 bytes; the memory address and the read/write select share the
	// first received byte
	X24C01 Kind = iota

	// 256 bytes; a device-address byte precedes the memory address
	X24C02
)

// Size returns the chip's memory size in bytes.
func (k Kind) Size() int {
	if k == X24C01 {
		return 128
	}
	return 256
}

// Chip is one serial EEPROM.
type Chip struct {
	kind   Kind
	memory []uint8

	phase         phase
	address       uint8
	bitsReceived  uint8
	bitsRemaining uint8

	lastData  bool
	lastClock bool

	dirty bool
}

// NewChip creates a Chip, loading its memory from the save blob if it has
// the right length.
func NewChip(kind Kind, save []uint8) *Chip {
	c := &Chip{
		kind:   kind,
		memory: make([]uint8, kind.Size()),
		phase:  phaseStopped,
	}
	if len(save) == len(c.memory) {
		copy(c.memory, save)
	}
	return c
}

// Read returns the state of the data line as driven by the chip: the
// current output bit during a read operation, low otherwise. Bits are sent
// most significant first.
func (c *Chip) Read() bool {
	if c.phase != phaseSendingData || c.bitsRemaining == 8 {
		return false
	}
	return c.memory[c.address]&(1<<c.bitsRemaining) != 0
}

// Write presents new data and clock line levels to the chip.
func (c *Chip) Write(data bool, clock bool) {
	if c.lastClock && clock && data != c.lastData {
		if data {
			// low to high: stop condition
			c.phase = phaseStopped
		} else {
			// high to low: start condition. the X24C01 only recognises it
			// from the stopped phase
			if c.kind == X24C02 || c.phase == phaseStopped {
				c.phase = phaseStandby
			}
		}
	} else if !c.lastClock && clock {
		// rising clock edge: one protocol step
		c.clockBit(data)
	}

	c.lastData = data
	c.lastClock = clock
}

// WriteData changes the data line only, keeping the clock line level.
func (c *Chip) WriteData(data bool) {
	c.Write(data, c.lastClock)
}

// WriteClock changes the clock line only, keeping the data line level.
func (c *Chip) WriteClock(clock bool) {
	c.Write(c.lastData, clock)
}

func (c *Chip) addressMask() uint8 {
	return uint8(c.kind.Size() - 1)
}

func (c *Chip) clockBit(data bool) {
	switch c.phase {
	case phaseStopped:
		// nothing happens until a start condition

	case phaseStandby:
		if c.kind == X24C02 {
			c.phase = phaseReceivingDeviceAddress
		} else {
			c.phase = phaseReceivingAddress
		}
		c.bitsReceived = bit(data)
		c.bitsRemaining = 7

	case phaseReceivingDeviceAddress:
		if c.bitsRemaining > 0 {
			c.bitsReceived = c.bitsReceived<<1 | bit(data)
			c.bitsRemaining--
			return
		}

		// the acknowledge clock: the low bit of the device address selects
		// read or write
		if c.bitsReceived&0x01 != 0 {
			c.phase = phaseSendingData
			c.bitsRemaining = 8
		} else {
			c.phase = phaseReceivingAddress
			c.bitsReceived = 0
			c.bitsRemaining = 8
		}

	case phaseReceivingAddress:
		if c.bitsRemaining > 0 {
			c.bitsReceived = c.bitsReceived<<1 | bit(data)
			c.bitsRemaining--
			return
		}

		if c.kind == X24C01 {
			// the X24C01 packs the memory address and the read/write
			// select into the one byte
			c.address = c.bitsReceived >> 1 & c.addressMask()
			if c.bitsReceived&0x01 != 0 {
				c.phase = phaseSendingData
				c.bitsRemaining = 8
			} else {
				c.phase = phaseReceivingData
				c.bitsReceived = 0
				c.bitsRemaining = 8
			}
			return
		}

		c.address = c.bitsReceived
		c.phase = phaseReceivingData
		c.bitsReceived = 0
		c.bitsRemaining = 8

	case phaseReceivingData:
		if c.bitsRemaining == 0 {
			// the acknowledge clock: sequential write continues, wrapping
			// within the four-byte page
			c.address = c.address&0xfc | (c.address+1)&0x03
			c.bitsReceived = 0
			c.bitsRemaining = 8
			return
		}

		c.bitsReceived = c.bitsReceived<<1 | bit(data)
		if c.bitsRemaining == 1 {
			c.memory[c.address] = c.bitsReceived
			c.dirty = true
		}
		c.bitsRemaining--

	case phaseSendingData:
		if c.bitsRemaining > 0 {
			c.bitsRemaining--
			return
		}

		if !data {
			// acknowledged: sequential read continues, wrapping within the
			// device
			c.address = (c.address + 1) & c.addressMask()
			c.bitsRemaining = 8
		} else {
			c.phase = phaseStopped
		}
	}
}

// DirtyAndClear reports whether memory changed since the last call,
// clearing the flag.
func (c *Chip) DirtyAndClear() bool {
	d := c.dirty
	c.dirty = false
	return d
}

// Memory exposes the chip contents for persistence.
func (c *Chip) Memory() []uint8 {
	return c.memory
}

// Snapshot encodes the chip state.
func (c *Chip) Snapshot(enc *savestate.Encoder) {
	enc.PutBytes(c.memory)
	enc.PutUint8(uint8(c.phase))
	enc.PutUint8(c.address)
	enc.PutUint8(c.bitsReceived)
	enc.PutUint8(c.bitsRemaining)
	enc.PutBool(c.lastData)
	enc.PutBool(c.lastClock)
	enc.PutBool(c.dirty)
}

// Restore decodes the chip state.
func (c *Chip) Restore(dec *savestate.Decoder) {
	dec.BytesInto(c.memory)
	c.phase = phase(dec.Uint8())
	c.address = dec.Uint8()
	c.bitsReceived = dec.Uint8()
	c.bitsRemaining = dec.Uint8()
	c.lastData = dec.Bool()
	c.lastClock = dec.Bool()
	c.dirty = dec.Bool()
}

func bit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
