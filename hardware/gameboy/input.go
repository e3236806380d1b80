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
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/savestate"
)

// input maps the host's gamepad snapshot onto the JOYP register. the
// joypad interrupt is edge-sensitive: it fires when any button goes from
// released to held, whichever lines JOYP selects, not while it is held.
type input struct {
	// JOYP select bits as written: bit 5 selects buttons, bit 4 the d-pad.
	// both are active low
	selection uint8

	held hardware.Gamepad
}

func newInput() input {
	return input{selection: 0x30}
}

// snapshot the host inputs into the emulated gamepad lines.
func (in *input) snapshot(inputs hardware.Inputs, irq *interrupts) {
	pressed := inputs.P1 &^ in.held
	if pressed != 0 {
		irq.raise(intJoypad)
	}
	in.held = inputs.P1
}

// the JOYP button lines are active low: a held button reads zero
func (in *input) read() uint8 {
	v := uint8(0xc0) | in.selection | 0x0f

	if in.selection&0x10 == 0 { // d-pad
		if in.held.Pressed(hardware.Right) {
			v &^= 0x01
		}
		if in.held.Pressed(hardware.Left) {
			v &^= 0x02
		}
		if in.held.Pressed(hardware.Up) {
			v &^= 0x04
		}
		if in.held.Pressed(hardware.Down) {
			v &^= 0x08
		}
	}

	if in.selection&0x20 == 0 { // buttons
		if in.held.Pressed(hardware.A) {
			v &^= 0x01
		}
		if in.held.Pressed(hardware.B) {
			v &^= 0x02
		}
		if in.held.Pressed(hardware.Select) {
			v &^= 0x04
		}
		if in.held.Pressed(hardware.Start) {
			v &^= 0x08
		}
	}

	return v
}

func (in *input) write(value uint8) {
	in.selection = value & 0x30
}

func (in *input) snapshotState(enc *savestate.Encoder) {
	enc.PutUint8(in.selection)
	enc.PutUint16(uint16(in.held))
}

func (in *input) restoreState(dec *savestate.Decoder) {
	in.selection = dec.Uint8()
	in.held = hardware.Gamepad(dec.Uint16())
}
