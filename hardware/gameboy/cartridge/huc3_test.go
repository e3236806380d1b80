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

package cartridge_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/hardware/gameboy/cartridge"
	"github.com/jetsetilly/gophergen/test"
)

func newHuc3Cart(t *testing.T, clock *fakeClock) *cartridge.Cartridge {
	t.Helper()
	cart, err := cartridge.NewCartridge(makeROM(256*1024, 0xfe, 0x02), nil, clock)
	test.ExpectSuccess(t, err)
	return cart
}

// select the RTC command interface, issue a command, wait out the busy
// delay, and return the response port value
func rtcCommand(cart *cartridge.Cartridge, command uint8, argument uint8) uint8 {
	// mapping $b: command port
	cart.Write(0x0000, 0x0b)
	cart.Write(0xa000, command<<4|argument&0x0f)

	// mapping $d: semaphore; a write with bit 0 clear executes
	cart.Write(0x0000, 0x0d)
	cart.Write(0xa000, 0x00)

	// wait for the busy counter
	for cart.Read(0xa000) != 0xff {
		cart.Tick(100)
	}

	// mapping $c: response port
	cart.Write(0x0000, 0x0c)
	return cart.Read(0xa000)
}

func TestHuc3WallClockAdvance(t *testing.T) {
	clock := &fakeClock{}
	cart := newHuc3Cart(t, clock)

	// advance the wall clock by exactly 1500 minutes. minutes-of-day wraps
	// at 1440, leaving 60 minutes and one day
	clock.nanos += 1500 * 60 * 1_000_000_000
	cart.UpdateRTC()

	// snapshot current time to RTC memory then read it back a nibble at a
	// time. minutes in nibbles 0-2, days in nibbles 3-5
	rtcCommand(cart, 0x6, 0x0)
	rtcCommand(cart, 0x4, 0x0) // address low nibble = 0
	rtcCommand(cart, 0x5, 0x0) // address high nibble = 0

	var minutes uint16
	var day uint16
	for i := 0; i < 3; i++ {
		minutes |= uint16(rtcCommand(cart, 0x1, 0x0)&0x0f) << (4 * i)
	}
	for i := 0; i < 3; i++ {
		day |= uint16(rtcCommand(cart, 0x1, 0x0)&0x0f) << (4 * i)
	}

	test.ExpectEquality(t, minutes, uint16(60))
	test.ExpectEquality(t, day, uint16(1))
}

func TestHuc3ScratchMemory(t *testing.T) {
	clock := &fakeClock{}
	cart := newHuc3Cart(t, clock)

	// write two nibbles at address 0x20 then read them back
	rtcCommand(cart, 0x4, 0x0)
	rtcCommand(cart, 0x5, 0x2)
	rtcCommand(cart, 0x3, 0x9)
	rtcCommand(cart, 0x3, 0x5)

	rtcCommand(cart, 0x4, 0x0)
	rtcCommand(cart, 0x5, 0x2)
	test.ExpectEquality(t, rtcCommand(cart, 0x1, 0x0)&0x0f, uint8(0x9))
	test.ExpectEquality(t, rtcCommand(cart, 0x1, 0x0)&0x0f, uint8(0x5))
}

func TestHuc3StatusCommand(t *testing.T) {
	clock := &fakeClock{}
	cart := newHuc3Cart(t, clock)

	// extended command 2 always answers 1
	response := rtcCommand(cart, 0x6, 0x2)
	test.ExpectEquality(t, response&0x0f, uint8(0x01))
}

func TestHuc3TimeRestoreFromScratch(t *testing.T) {
	clock := &fakeClock{}
	cart := newHuc3Cart(t, clock)

	// write minutes=0x123, day=0x045 into scratch then restore time from it
	rtcCommand(cart, 0x4, 0x0)
	rtcCommand(cart, 0x5, 0x0)
	for _, nibble := range []uint8{0x3, 0x2, 0x1, 0x5, 0x4, 0x0} {
		rtcCommand(cart, 0x3, nibble)
	}
	rtcCommand(cart, 0x6, 0x1)

	// snapshot back out and compare
	rtcCommand(cart, 0x6, 0x0)
	rtcCommand(cart, 0x4, 0x0)
	rtcCommand(cart, 0x5, 0x0)

	var minutes uint16
	for i := 0; i < 3; i++ {
		minutes |= uint16(rtcCommand(cart, 0x1, 0x0)&0x0f) << (4 * i)
	}
	test.ExpectEquality(t, minutes, uint16(0x123))
}

func TestHuc3RTCSaveRoundTrip(t *testing.T) {
	clock := &fakeClock{}
	cart := newHuc3Cart(t, clock)

	clock.nanos += 10 * 60 * 1_000_000_000
	cart.UpdateRTC()

	blob, ok := cart.RTCSave()
	test.ExpectSuccess(t, ok)

	restored := newHuc3Cart(t, clock)
	restored.RTCRestore(blob)
	restored.UpdateRTC()

	// both cartridges now agree on the time
	rtcCommand(cart, 0x6, 0x0)
	rtcCommand(restored, 0x6, 0x0)

	for _, c := range []*cartridge.Cartridge{cart, restored} {
		rtcCommand(c, 0x4, 0x0)
		rtcCommand(c, 0x5, 0x0)
	}

	var a, b uint16
	for i := 0; i < 3; i++ {
		a |= uint16(rtcCommand(cart, 0x1, 0x0)&0x0f) << (4 * i)
		b |= uint16(rtcCommand(restored, 0x1, 0x0)&0x0f) << (4 * i)
	}
	test.ExpectEquality(t, a, uint16(10))
	test.ExpectEquality(t, b, uint16(10))
}

func TestHuc3IRStub(t *testing.T) {
	clock := &fakeClock{}
	cart := newHuc3Cart(t, clock)

	cart.Write(0x0000, 0x0e)
	test.ExpectEquality(t, cart.Read(0xa000), uint8(0xc0))

	// unmapped mode values read as open bus
	cart.Write(0x0000, 0x07)
	test.ExpectEquality(t, cart.Read(0xa000), uint8(0xff))
}
