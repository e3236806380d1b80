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

package eeprom_test

import (
	"math/rand"
	"testing"

	"github.com/jetsetilly/gophergen/hardware/eeprom"
	"github.com/jetsetilly/gophergen/test"
)

// protocol driver helpers. the host view of the bus: we drive both lines
// and watch the chip's output during reads

func startCondition(c *eeprom.Chip) {
	// data high, clock high, then data falls while clock is high
	c.Write(true, false)
	c.Write(true, true)
	c.Write(false, true)
	c.Write(false, false)
}

func stopCondition(c *eeprom.Chip) {
	c.Write(false, false)
	c.Write(false, true)
	c.Write(true, true)
	c.Write(true, false)
}

func sendBit(c *eeprom.Chip, b bool) {
	c.Write(b, false)
	c.Write(b, true)
	c.Write(b, false)
}

func sendByte(c *eeprom.Chip, v uint8) {
	for i := 7; i >= 0; i-- {
		sendBit(c, v&(1<<i) != 0)
	}
}

// clock the acknowledge slot with the data line low
func ackClock(c *eeprom.Chip) {
	sendBit(c, false)
}

func recvByte(c *eeprom.Chip) uint8 {
	var v uint8
	for i := 0; i < 8; i++ {
		c.Write(false, false)
		c.Write(false, true)
		v <<= 1
		if c.Read() {
			v |= 1
		}
		c.Write(false, false)
	}
	return v
}

// X24C01: address byte is (address << 1) | read
func writeX24C01(c *eeprom.Chip, address uint8, values ...uint8) {
	startCondition(c)
	sendByte(c, address<<1)
	ackClock(c)
	for _, v := range values {
		sendByte(c, v)
		ackClock(c)
	}
	stopCondition(c)
}

func readX24C01(c *eeprom.Chip, address uint8) uint8 {
	startCondition(c)
	sendByte(c, address<<1|1)
	ackClock(c)
	v := recvByte(c)

	// refuse the acknowledge to end the read
	c.Write(true, false)
	c.Write(true, true)
	c.Write(true, false)
	return v
}

func TestX24C01WriteRead(t *testing.T) {
	c := eeprom.NewChip(eeprom.X24C01, nil)

	writeX24C01(c, 0x10, 0xa5)
	test.ExpectEquality(t, c.Memory()[0x10], uint8(0xa5))
	test.ExpectSuccess(t, c.DirtyAndClear())
	test.ExpectEquality(t, c.DirtyAndClear(), false)

	test.ExpectEquality(t, readX24C01(c, 0x10), uint8(0xa5))
}

func TestX24C01SequentialWritePageWrap(t *testing.T) {
	c := eeprom.NewChip(eeprom.X24C01, nil)

	// three sequential bytes starting at 0x12 stay within the four-byte
	// 0x10-0x13 page: the last wraps to 0x10
	writeX24C01(c, 0x12, 0x01, 0x02, 0x03)
	test.ExpectEquality(t, c.Memory()[0x12], uint8(0x01))
	test.ExpectEquality(t, c.Memory()[0x13], uint8(0x02))
	test.ExpectEquality(t, c.Memory()[0x10], uint8(0x03))
}

func TestX24C01SequentialRead(t *testing.T) {
	save := make([]uint8, 128)
	for i := range save {
		save[i] = uint8(i * 3)
	}
	c := eeprom.NewChip(eeprom.X24C01, save)

	startCondition(c)
	sendByte(c, 0x20<<1|1)
	ackClock(c)

	// sequential reads acknowledge between bytes and wrap at the end of
	// the device
	test.ExpectEquality(t, recvByte(c), save[0x20])
	ackClock(c)
	test.ExpectEquality(t, recvByte(c), save[0x21])
	stopCondition(c)

	// a read starting at the last byte wraps to zero
	startCondition(c)
	sendByte(c, 0x7f<<1|1)
	ackClock(c)
	test.ExpectEquality(t, recvByte(c), save[0x7f])
	ackClock(c)
	test.ExpectEquality(t, recvByte(c), save[0x00])
	stopCondition(c)
}

func TestX24C02WriteRead(t *testing.T) {
	c := eeprom.NewChip(eeprom.X24C02, nil)

	// device address (write), memory address, data
	startCondition(c)
	sendByte(c, 0xa0)
	ackClock(c)
	sendByte(c, 0xc4)
	ackClock(c)
	sendByte(c, 0x5a)
	ackClock(c)
	stopCondition(c)

	test.ExpectEquality(t, c.Memory()[0xc4], uint8(0x5a))

	// reading requires a write to set the address pointer, then a start
	// with the read bit. the X24C02 keeps the pointer across transactions
	startCondition(c)
	sendByte(c, 0xa1)
	ackClock(c)
	v := recvByte(c)
	// the pointer advanced past the written byte during the write
	test.ExpectEquality(t, v, c.Memory()[0xc4&0xfc|(0xc4+1)&0x03])
	stopCondition(c)
}

func TestNoStuckStates(t *testing.T) {
	// the reachability property: from any state produced by an arbitrary
	// sequence of line transitions, a stop condition followed by a
	// well-formed transaction must still work
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 100; trial++ {
		c := eeprom.NewChip(eeprom.X24C01, nil)

		for i := 0; i < 200; i++ {
			c.Write(rng.Intn(2) == 0, rng.Intn(2) == 0)
		}

		// recover with a stop condition and exercise a write/read pair
		c.Write(false, false)
		stopCondition(c)

		writeX24C01(c, 0x08, 0x77)
		test.ExpectEquality(t, readX24C01(c, 0x08), uint8(0x77))
	}
}
