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
	"github.com/jetsetilly/gophergen/savestate"
)

// interrupt sources in priority order. the bit number doubles as the level
// reported to the CPU
const (
	intVBlank = iota
	intLCDStatus
	intTimer
	intSerial
	intJoypad
)

// interrupts is the IF/IE register pair. each source has a pending flag
// (IF) and an enable flag (IE); the CPU observes the lowest set bit of
// their AND.
//
// the pending flags are level-type latches: a component raises a flag and
// the flag holds until the CPU acknowledges the dispatch. edge detection
// (the STAT line, the joypad line) happens in the raising component.
type interrupts struct {
	flags  uint8
	enable uint8
}

func (irq *interrupts) raise(source int) {
	irq.flags |= 1 << uint(source)
}

// level returns the highest-priority pending and enabled source, or -1.
func (irq *interrupts) level() int {
	active := irq.flags & irq.enable & 0x1f
	if active == 0 {
		return -1
	}
	for i := 0; i < 5; i++ {
		if active&(1<<uint(i)) != 0 {
			return i
		}
	}
	return -1
}

// the upper three bits of IF always read set
func (irq *interrupts) readFlags() uint8 {
	return 0xe0 | irq.flags
}

func (irq *interrupts) writeFlags(v uint8) {
	irq.flags = v & 0x1f
}

func (irq *interrupts) snapshot(enc *savestate.Encoder) {
	enc.PutUint8(irq.flags)
	enc.PutUint8(irq.enable)
}

func (irq *interrupts) restore(dec *savestate.Decoder) {
	irq.flags = dec.Uint8()
	irq.enable = dec.Uint8()
}

// RaiseVBlank implements the ppu.Interrupts interface.
func (irq *interrupts) RaiseVBlank() {
	irq.raise(intVBlank)
}

// RaiseLCDStatus implements the ppu.Interrupts interface.
func (irq *interrupts) RaiseLCDStatus() {
	irq.raise(intLCDStatus)
}
