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

package apu

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// the eight-step waveforms for each pulse duty setting
var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75% (inverted 25%)
}

// envelope is the volume envelope shared by the pulse and noise channels.
type envelope struct {
	initialVolume uint8
	increase      bool
	pace          uint8

	volume  uint8
	counter uint8
}

func (e *envelope) writeRegister(v uint8) {
	e.initialVolume = v >> 4
	e.increase = v&0x08 != 0
	e.pace = v & 0x07
}

func (e *envelope) readRegister() uint8 {
	v := e.initialVolume << 4
	if e.increase {
		v |= 0x08
	}
	return v | e.pace
}

func (e *envelope) trigger() {
	e.volume = e.initialVolume
	e.counter = 0
}

// dacEnabled: writing zero to the volume and direction bits switches the
// channel's DAC off entirely
func (e *envelope) dacEnabled() bool {
	return e.initialVolume != 0 || e.increase
}

// clock the envelope; called on frame sequencer step 7
func (e *envelope) clock() {
	if e.pace == 0 {
		return
	}
	e.counter++
	if e.counter < e.pace {
		return
	}
	e.counter = 0

	if e.increase && e.volume < 15 {
		e.volume++
	} else if !e.increase && e.volume > 0 {
		e.volume--
	}
}

func (e *envelope) snapshot(enc *savestate.Encoder) {
	enc.PutUint8(e.readRegister())
	enc.PutUint8(e.volume)
	enc.PutUint8(e.counter)
}

func (e *envelope) restore(dec *savestate.Decoder) {
	e.writeRegister(dec.Uint8())
	e.volume = dec.Uint8()
	e.counter = dec.Uint8()
}

// lengthCounter silences a channel after a programmed duration. clocked at
// 256Hz by the frame sequencer.
type lengthCounter struct {
	enabled bool
	counter uint16
	maximum uint16
}

func (l *lengthCounter) load(v uint16) {
	l.counter = l.maximum - v
}

// clock the length counter; returns true if the channel should be
// disabled
func (l *lengthCounter) clock() bool {
	if !l.enabled || l.counter == 0 {
		return false
	}
	l.counter--
	return l.counter == 0
}

func (l *lengthCounter) trigger() {
	if l.counter == 0 {
		l.counter = l.maximum
	}
}

func (l *lengthCounter) snapshot(enc *savestate.Encoder) {
	enc.PutBool(l.enabled)
	enc.PutUint16(l.counter)
}

func (l *lengthCounter) restore(dec *savestate.Decoder) {
	l.enabled = dec.Bool()
	l.counter = dec.Uint16()
}

// pulse is channels 1 and 2: a square wave with envelope, length counter
// and (channel 1 only) a frequency sweep.
type pulse struct {
	enabled bool

	duty     uint8
	dutyPos  uint8
	period   uint16
	timer    uint16
	envelope envelope
	length   lengthCounter

	// sweep; only wired to the frame sequencer for channel 1
	sweepPace    uint8
	sweepDown    bool
	sweepStep    uint8
	sweepCounter uint8
	sweepEnabled bool
	sweepShadow  uint16
}

func newPulse() *pulse {
	return &pulse{length: lengthCounter{maximum: 64}}
}

// tick advances the channel by the given master-clock cycles
func (c *pulse) tick(cycles uint16) {
	if c.timer <= cycles {
		// period in master cycles is (2048 - period) × 4
		c.timer += (2048 - c.period) * 4
		c.dutyPos = (c.dutyPos + 1) & 0x07
	}
	c.timer -= cycles
}

func (c *pulse) trigger() {
	c.enabled = c.envelope.dacEnabled()
	c.timer = (2048 - c.period) * 4
	c.envelope.trigger()
	c.length.trigger()

	c.sweepShadow = c.period
	c.sweepCounter = 0
	c.sweepEnabled = c.sweepPace != 0 || c.sweepStep != 0
	if c.sweepStep != 0 && c.sweepNext() > 2047 {
		c.enabled = false
	}
}

func (c *pulse) sweepNext() uint16 {
	delta := c.sweepShadow >> c.sweepStep
	if c.sweepDown {
		return c.sweepShadow - delta
	}
	return c.sweepShadow + delta
}

// clockSweep is called on frame sequencer steps 2 and 6
func (c *pulse) clockSweep() {
	if !c.sweepEnabled || c.sweepPace == 0 {
		return
	}
	c.sweepCounter++
	if c.sweepCounter < c.sweepPace {
		return
	}
	c.sweepCounter = 0

	next := c.sweepNext()
	if next > 2047 {
		c.enabled = false
		return
	}
	if c.sweepStep != 0 {
		c.sweepShadow = next
		c.period = next
		if c.sweepNext() > 2047 {
			c.enabled = false
		}
	}
}

// output is the channel's contribution in DAC units, 0 to 15
func (c *pulse) output() uint8 {
	if !c.enabled {
		return 0
	}
	return dutyTable[c.duty][c.dutyPos] * c.envelope.volume
}

func (c *pulse) snapshot(enc *savestate.Encoder) {
	enc.PutBool(c.enabled)
	enc.PutUint8(c.duty)
	enc.PutUint8(c.dutyPos)
	enc.PutUint16(c.period)
	enc.PutUint16(c.timer)
	c.envelope.snapshot(enc)
	c.length.snapshot(enc)
	enc.PutUint8(c.sweepPace)
	enc.PutBool(c.sweepDown)
	enc.PutUint8(c.sweepStep)
	enc.PutUint8(c.sweepCounter)
	enc.PutBool(c.sweepEnabled)
	enc.PutUint16(c.sweepShadow)
}

func (c *pulse) restore(dec *savestate.Decoder) {
	c.enabled = dec.Bool()
	c.duty = dec.Uint8()
	c.dutyPos = dec.Uint8()
	c.period = dec.Uint16()
	c.timer = dec.Uint16()
	c.envelope.restore(dec)
	c.length.restore(dec)
	c.sweepPace = dec.Uint8()
	c.sweepDown = dec.Bool()
	c.sweepStep = dec.Uint8()
	c.sweepCounter = dec.Uint8()
	c.sweepEnabled = dec.Bool()
	c.sweepShadow = dec.Uint16()
}

// wave is channel 3: a 32-entry 4-bit wavetable player.
type wave struct {
	enabled    bool
	dacEnabled bool

	period      uint16
	timer       uint16
	position    uint8
	outputLevel uint8
	length      lengthCounter

	ram [16]uint8
}

func newWave() *wave {
	return &wave{length: lengthCounter{maximum: 256}}
}

func (c *wave) tick(cycles uint16) {
	if c.timer <= cycles {
		// the wave channel steps at twice the pulse rate
		c.timer += (2048 - c.period) * 2
		c.position = (c.position + 1) & 0x1f
	}
	c.timer -= cycles
}

func (c *wave) trigger() {
	c.enabled = c.dacEnabled
	c.timer = (2048 - c.period) * 2
	c.position = 0
	c.length.trigger()
}

func (c *wave) output() uint8 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}

	sample := c.ram[c.position/2]
	if c.position&0x01 == 0 {
		sample >>= 4
	} else {
		sample &= 0x0f
	}

	switch c.outputLevel {
	case 0:
		return 0
	case 1:
		return sample
	case 2:
		return sample >> 1
	}
	return sample >> 2
}

func (c *wave) snapshot(enc *savestate.Encoder) {
	enc.PutBool(c.enabled)
	enc.PutBool(c.dacEnabled)
	enc.PutUint16(c.period)
	enc.PutUint16(c.timer)
	enc.PutUint8(c.position)
	enc.PutUint8(c.outputLevel)
	c.length.snapshot(enc)
	enc.PutBytes(c.ram[:])
}

func (c *wave) restore(dec *savestate.Decoder) {
	c.enabled = dec.Bool()
	c.dacEnabled = dec.Bool()
	c.period = dec.Uint16()
	c.timer = dec.Uint16()
	c.position = dec.Uint8()
	c.outputLevel = dec.Uint8()
	c.length.restore(dec)
	dec.BytesInto(c.ram[:])
}

// noise is channel 4: a linear feedback shift register noise source.
type noise struct {
	enabled bool

	shift      uint8
	shortWidth bool
	divisor    uint8
	timer      uint32
	lfsr       uint16
	envelope   envelope
	length     lengthCounter
}

func newNoise() *noise {
	return &noise{length: lengthCounter{maximum: 64}, lfsr: 0x7fff}
}

func (c *noise) periodCycles() uint32 {
	d := uint32(c.divisor) * 16
	if d == 0 {
		d = 8
	}
	return d << c.shift
}

func (c *noise) tick(cycles uint16) {
	if c.timer <= uint32(cycles) {
		c.timer += c.periodCycles()

		feedback := (c.lfsr ^ c.lfsr>>1) & 0x01
		c.lfsr = c.lfsr>>1 | feedback<<14
		if c.shortWidth {
			c.lfsr = c.lfsr&^(1<<6) | feedback<<6
		}
	}
	c.timer -= uint32(cycles)
}

func (c *noise) trigger() {
	c.enabled = c.envelope.dacEnabled()
	c.timer = c.periodCycles()
	c.lfsr = 0x7fff
	c.envelope.trigger()
	c.length.trigger()
}

func (c *noise) output() uint8 {
	if !c.enabled {
		return 0
	}
	if c.lfsr&0x01 == 0 {
		return c.envelope.volume
	}
	return 0
}

func (c *noise) snapshot(enc *savestate.Encoder) {
	enc.PutBool(c.enabled)
	enc.PutUint8(c.shift)
	enc.PutBool(c.shortWidth)
	enc.PutUint8(c.divisor)
	enc.PutUint32(c.timer)
	enc.PutUint16(c.lfsr)
	c.envelope.snapshot(enc)
	c.length.snapshot(enc)
}

func (c *noise) restore(dec *savestate.Decoder) {
	c.enabled = dec.Bool()
	c.shift = dec.Uint8()
	c.shortWidth = dec.Bool()
	c.divisor = dec.Uint8()
	c.timer = dec.Uint32()
	c.lfsr = dec.Uint16()
	c.envelope.restore(dec)
	c.length.restore(dec)
}
