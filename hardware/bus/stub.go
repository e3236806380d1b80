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

package bus

// Stub is a flat in-memory implementation of the Interface, for testing
// CPUs without a console attached.
type Stub struct {
	Mem []uint8

	// cycles recorded by Idle()
	IdleCycles uint64

	// value returned by InterruptLevel()
	Interrupt int
}

// NewStub creates a Stub with the given address space size. The interrupt
// level starts at -1 (none pending).
func NewStub(size int) *Stub {
	return &Stub{
		Mem:       make([]uint8, size),
		Interrupt: -1,
	}
}

// Read8 implements the Interface interface.
func (s *Stub) Read8(address uint32) uint8 {
	if int(address) >= len(s.Mem) {
		return OpenBus
	}
	return s.Mem[address]
}

// Write8 implements the Interface interface.
func (s *Stub) Write8(address uint32, data uint8) {
	if int(address) >= len(s.Mem) {
		return
	}
	s.Mem[address] = data
}

// Read16 implements the Interface interface. Words are little-endian.
func (s *Stub) Read16(address uint32) uint16 {
	return uint16(s.Read8(address)) | uint16(s.Read8(address+1))<<8
}

// Write16 implements the Interface interface. Words are little-endian.
func (s *Stub) Write16(address uint32, data uint16) {
	s.Write8(address, uint8(data))
	s.Write8(address+1, uint8(data>>8))
}

// Idle implements the Interface interface.
func (s *Stub) Idle(cycles uint64) {
	s.IdleCycles += cycles
}

// InterruptLevel implements the Interface interface.
func (s *Stub) InterruptLevel() int {
	return s.Interrupt
}
