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

// Package bus defines the interface between a CPU and the rest of the
// console. A CPU is handed an Interface value for the duration of one
// instruction and must not retain it; the system root, not the CPU, owns
// the memory map. This keeps every CPU testable against the Stub type in
// this package, with no console attached.
package bus

// OpenBus is the value returned by reads of unmapped or disabled addresses.
const OpenBus = 0xff

// Interface is the capability through which a CPU reaches memory and
// memory-mapped registers. Addresses are 32 bits; consoles with narrower
// buses mask to their own width.
//
// Implementations account for bus wait states by inflating the cycle count
// returned from the CPU's step function. In particular, a DMA unit that
// steals the bus is modelled by the Idle() cycles it forces on the CPU, not
// by suspending the CPU mid-instruction.
type Interface interface {
	Read8(address uint32) uint8
	Write8(address uint32, data uint8)
	Read16(address uint32) uint16
	Write16(address uint32, data uint16)

	// Idle records cycles in which the CPU performs no bus activity
	Idle(cycles uint64)

	// InterruptLevel returns the highest-priority pending and enabled
	// interrupt, or -1 if no interrupt is pending. level semantics are per
	// console; edge detection is the interrupt controller's job
	InterruptLevel() int
}
