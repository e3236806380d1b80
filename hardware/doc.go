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

// Package hardware is the root of the emulated consoles. It defines the
// contract between a console's system root and the host: the System
// interface driven by Tick(), the Renderer, AudioOutput and SaveWriter
// callbacks, and the host input snapshot.
//
// Each console lives in its own sub-package (gameboy, smsgg, genesis, nes,
// s32x, segacd, and the snes coprocessor family) and implements the System
// interface over the shared building blocks: the bus capability model in
// the bus package, the clock dividers in clocks, and the audio resampling
// chain in audio.
//
// The whole of the emulation runs on the caller's goroutine. A system
// suspends only by returning from Tick(); the host callbacks are invoked
// synchronously and their errors propagate out of Tick() unchanged.
package hardware
