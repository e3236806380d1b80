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

package hardware

// Button identifies a single button on a gamepad. Not every console uses
// every button; each console's input mapper selects the subset it
// understands and ignores the rest.
type Button uint16

// List of Button values.
const (
	Up Button = 1 << iota
	Down
	Left
	Right
	A
	B
	C
	X
	Y
	Z
	L
	R
	Start
	Select

	// the SMS/GG pause button and the Genesis mode button share a bit; no
	// console has both
	Pause
)

// Mode is an alias for the Pause bit. See the Pause comment.
const Mode = Pause

// Gamepad is the state of one player's controller as a bitfield. A set bit
// means the button is held.
type Gamepad uint16

// Pressed returns true if the button is held.
func (g Gamepad) Pressed(b Button) bool {
	return g&Gamepad(b) != 0
}

// Set returns a copy of the gamepad with the button set or cleared.
func (g Gamepad) Set(b Button, held bool) Gamepad {
	if held {
		return g | Gamepad(b)
	}
	return g &^ Gamepad(b)
}

// Inputs is the host-side snapshot of every input device, passed to
// System.Tick() once per tick. The system's input mapper copies it into the
// emulated gamepad registers; edge-sensitive signals (the SMS pause button
// for example) are detected by the mapper against the previous snapshot,
// not by the host.
type Inputs struct {
	P1 Gamepad
	P2 Gamepad
}
