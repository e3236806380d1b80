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

package s32x_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/hardware/s32x"
	"github.com/jetsetilly/gophergen/test"
)

type scriptSH2 struct {
	script []func(mem bus.Interface)
	pos    int
	steps  int
}

func (c *scriptSH2) Step(mem bus.Interface) uint64 {
	c.steps++
	if c.pos < len(c.script) {
		c.script[c.pos](mem)
		c.pos++
	}
	return 2
}

func (c *scriptSH2) Reset() {
	c.pos = 0
}

func testROM() []uint8 {
	return make([]uint8, 512*1024)
}

func TestLockstepOrder(t *testing.T) {
	var order []string

	master := &scriptSH2{script: []func(bus.Interface){
		func(bus.Interface) { order = append(order, "master") },
		func(bus.Interface) { order = append(order, "master") },
	}}
	slave := &scriptSH2{script: []func(bus.Interface){
		func(bus.Interface) { order = append(order, "slave") },
		func(bus.Interface) { order = append(order, "slave") },
	}}

	sys := s32x.New(testROM(), master, slave)
	test.ExpectSuccess(t, sys.Step())
	test.ExpectSuccess(t, sys.Step())

	test.ExpectEquality(t, len(order), 4)
	test.ExpectEquality(t, order[0], "master")
	test.ExpectEquality(t, order[1], "slave")
	test.ExpectEquality(t, order[2], "master")
	test.ExpectEquality(t, order[3], "slave")
}

func TestCrossCoreInterruptNextBoundary(t *testing.T) {
	var slaveLevels []int

	master := &scriptSH2{script: []func(bus.Interface){
		// unmask CMD on the slave is the slave's own job; the master pokes
		// the CMD interrupt through the 68000-side register
		func(m bus.Interface) {},
	}}
	slave := &scriptSH2{script: []func(bus.Interface){
		// unmask the CMD interrupt
		func(m bus.Interface) { m.Write16(0x4000, 0x0002) },
		func(m bus.Interface) { slaveLevels = append(slaveLevels, m.InterruptLevel()) },
		func(m bus.Interface) { slaveLevels = append(slaveLevels, m.InterruptLevel()) },
	}}

	sys := s32x.New(testROM(), master, slave)

	test.ExpectSuccess(t, sys.Step())

	// the 68000 raises the CMD interrupt to the slave between rounds
	s32x.M68KBus{S32X: sys}.Write16(0xa15102, 0x0002)

	test.ExpectSuccess(t, sys.Step())
	test.ExpectSuccess(t, sys.Step())

	test.ExpectEquality(t, len(slaveLevels), 2)
	test.ExpectEquality(t, slaveLevels[0], 8)
	test.ExpectEquality(t, slaveLevels[1], 8)
}

func TestCommPortsSharedBothSides(t *testing.T) {
	var fromSlave uint16

	master := &scriptSH2{script: []func(bus.Interface){
		func(m bus.Interface) { m.Write16(0x4020, 0xbeef) },
	}}
	slave := &scriptSH2{script: []func(bus.Interface){
		func(m bus.Interface) {},
		func(m bus.Interface) { fromSlave = m.Read16(0x4020) },
	}}

	sys := s32x.New(testROM(), master, slave)
	test.ExpectSuccess(t, sys.Step())
	test.ExpectSuccess(t, sys.Step())

	test.ExpectEquality(t, fromSlave, uint16(0xbeef))

	// and the 68000 sees the same port
	word := s32x.M68KBus{S32X: sys}.Read16(0xa15120)
	test.ExpectEquality(t, word, uint16(0xbeef))
}

func TestNotImplementedSurfaced(t *testing.T) {
	master := &scriptSH2{script: []func(bus.Interface){
		// a write into the region the upstream leaves as an explicit hole
		func(m bus.Interface) { m.Write16(0x12345678, 0x1) },
	}}

	sys := s32x.New(testROM(), master, &scriptSH2{})

	err := sys.Step()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, hardware.NotImplemented))

	// the fault does not stick: the next round is clean
	test.ExpectSuccess(t, sys.Step())
}

func TestSDRAMSharedBetweenCores(t *testing.T) {
	var readBack uint16

	master := &scriptSH2{script: []func(bus.Interface){
		func(m bus.Interface) { m.Write16(0x06000100, 0xcafe) },
	}}
	slave := &scriptSH2{script: []func(bus.Interface){
		func(m bus.Interface) {},
		func(m bus.Interface) { readBack = m.Read16(0x06000100) },
	}}

	sys := s32x.New(testROM(), master, slave)
	test.ExpectSuccess(t, sys.Step())
	test.ExpectSuccess(t, sys.Step())

	test.ExpectEquality(t, readBack, uint16(0xcafe))
}

func TestPWMOutput(t *testing.T) {
	sys := s32x.New(testROM(), &scriptSH2{}, &scriptSH2{})

	// a cycle of 0x100 and a mid-scale pulse width gives a sample near
	// zero; full width saturates to one
	sys.PWM.WriteRegister(0xa15132, 0x0100)
	sys.PWM.WriteRegister(0xa15134, 0x0080)
	sys.PWM.WriteRegister(0xa15136, 0x00ff)

	var samples [][2]float64
	sys.PWM.Tick(0x200, sys.Registers, func(l, r float64) {
		samples = append(samples, [2]float64{l, r})
	})

	test.ExpectSuccess(t, len(samples) > 0)
	test.ExpectApproximate(t, samples[0][0], 0.0039, 0.5)
	test.ExpectApproximate(t, samples[0][1], 1.0, 0.01)
}
