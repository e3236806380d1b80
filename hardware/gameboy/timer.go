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

// TIMA increment period in master cycles, indexed by the TAC clock select
var timerPeriods = [4]uint64{1024, 16, 64, 256}

// timer is the DIV/TIMA register block. DIV is the upper byte of a
// free-running 16-bit counter; TIMA increments at the TAC-selected rate and
// raises the timer interrupt on overflow, reloading from TMA.
//
// the obscure DIV-write and TAC-change glitches that perturb TIMA are not
// modelled.
type timer struct {
	divider uint16

	tima        uint8
	tma         uint8
	tac         uint8
	timaCounter uint64
}

func (t *timer) tick(cycles uint64, irq *interrupts) {
	t.divider += uint16(cycles)

	if t.tac&0x04 == 0 {
		return
	}

	period := timerPeriods[t.tac&0x03]
	t.timaCounter += cycles
	for t.timaCounter >= period {
		t.timaCounter -= period

		t.tima++
		if t.tima == 0 {
			t.tima = t.tma
			irq.raise(intTimer)
		}
	}
}

func (t *timer) read(address uint16) uint8 {
	switch address {
	case 0xff04:
		return uint8(t.divider >> 8)
	case 0xff05:
		return t.tima
	case 0xff06:
		return t.tma
	case 0xff07:
		return 0xf8 | t.tac
	}
	return 0xff
}

func (t *timer) write(address uint16, value uint8) {
	switch address {
	case 0xff04:
		// any write clears the whole divider
		t.divider = 0
	case 0xff05:
		t.tima = value
	case 0xff06:
		t.tma = value
	case 0xff07:
		t.tac = value & 0x07
	}
}

func (t *timer) snapshot(enc *savestate.Encoder) {
	enc.PutUint16(t.divider)
	enc.PutUint8(t.tima)
	enc.PutUint8(t.tma)
	enc.PutUint8(t.tac)
	enc.PutUint64(t.timaCounter)
}

func (t *timer) restore(dec *savestate.Decoder) {
	t.divider = dec.Uint16()
	t.tima = dec.Uint8()
	t.tma = dec.Uint8()
	t.tac = dec.Uint8()
	t.timaCounter = dec.Uint64()
}
