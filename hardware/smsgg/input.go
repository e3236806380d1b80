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

package smsgg

import (
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/savestate"
)

// input maps the host gamepad snapshot onto the controller ports. the
// pause button is edge-triggered; everything else is level.
type input struct {
	p1 hardware.Gamepad
	p2 hardware.Gamepad

	pauseHeld bool
}

// snapshot the host inputs; returns true on a pause-button edge.
func (in *input) snapshot(inputs hardware.Inputs) bool {
	in.p1 = inputs.P1
	in.p2 = inputs.P2

	pause := inputs.P1.Pressed(hardware.Pause)
	edge := pause && !in.pauseHeld
	in.pauseHeld = pause
	return edge
}

// port $dc: player 1 plus the first half of player 2, active low
func (in *input) portDC() uint8 {
	v := uint8(0xff)
	if in.p1.Pressed(hardware.Up) {
		v &^= 0x01
	}
	if in.p1.Pressed(hardware.Down) {
		v &^= 0x02
	}
	if in.p1.Pressed(hardware.Left) {
		v &^= 0x04
	}
	if in.p1.Pressed(hardware.Right) {
		v &^= 0x08
	}
	if in.p1.Pressed(hardware.A) {
		v &^= 0x10
	}
	if in.p1.Pressed(hardware.B) {
		v &^= 0x20
	}
	if in.p2.Pressed(hardware.Up) {
		v &^= 0x40
	}
	if in.p2.Pressed(hardware.Down) {
		v &^= 0x80
	}
	return v
}

// port $dd: the rest of player 2, active low
func (in *input) portDD() uint8 {
	v := uint8(0xff)
	if in.p2.Pressed(hardware.Left) {
		v &^= 0x01
	}
	if in.p2.Pressed(hardware.Right) {
		v &^= 0x02
	}
	if in.p2.Pressed(hardware.A) {
		v &^= 0x04
	}
	if in.p2.Pressed(hardware.B) {
		v &^= 0x08
	}
	return v
}

// the Game Gear start button port
func (in *input) startButton() uint8 {
	if in.p1.Pressed(hardware.Start) {
		return 0x7f
	}
	return 0xff
}

func (in *input) snapshotState(enc *savestate.Encoder) {
	enc.PutUint16(uint16(in.p1))
	enc.PutUint16(uint16(in.p2))
	enc.PutBool(in.pauseHeld)
}

func (in *input) restoreState(dec *savestate.Decoder) {
	in.p1 = hardware.Gamepad(dec.Uint16())
	in.p2 = hardware.Gamepad(dec.Uint16())
	in.pauseHeld = dec.Bool()
}
