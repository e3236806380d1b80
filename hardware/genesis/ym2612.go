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

package genesis

import (
	"math"

	"github.com/jetsetilly/gophergen/savestate"
)

// envelope generator phases
type envPhase int

const (
	envAttack envPhase = iota
	envDecay
	envSustain
	envRelease
)

// the attenuation ceiling of the envelope generator. units are the chip's
// internal attenuation steps
const envMax = 0x3ff

// operator is one of the four FM operators of a channel.
type operator struct {
	// register values
	multiple    uint8
	detune      uint8
	totalLevel  uint8
	attackRate  uint8
	decayRate   uint8
	sustainRate uint8
	releaseRate uint8
	sustainLvl  uint8

	// envelope state
	phase       envPhase
	attenuation uint16
	keyOn       bool

	// phase generator state
	phaseCounter uint32
}

// key starts or releases the operator's envelope.
func (op *operator) key(on bool) {
	if on && !op.keyOn {
		op.phase = envAttack
		op.phaseCounter = 0
		if op.attackRate >= 31 {
			// instant attack
			op.attenuation = 0
			op.phase = envDecay
		}
	} else if !on && op.keyOn {
		op.phase = envRelease
	}
	op.keyOn = on
}

// clockEnvelope advances the envelope one EG step. rates are folded to a
// simple per-step decrement/increment model: the shape (attack curve,
// decay to sustain level, sustain slope, release) follows the hardware
// even though the per-rate timing is approximate.
func (op *operator) clockEnvelope() {
	switch op.phase {
	case envAttack:
		if op.attackRate == 0 {
			return
		}
		// exponential-ish attack: move a fraction of the remaining distance
		step := uint16(op.attackRate) + 1
		dec := (op.attenuation*uint16(step))>>6 + 1
		if op.attenuation <= dec {
			op.attenuation = 0
			op.phase = envDecay
		} else {
			op.attenuation -= dec
		}

	case envDecay:
		if op.attenuation >= op.sustainLevel() {
			op.phase = envSustain
			return
		}
		op.attenuation = op.attenuate(op.decayRate)

	case envSustain:
		op.attenuation = op.attenuate(op.sustainRate)

	case envRelease:
		op.attenuation = op.attenuate(op.releaseRate)
	}
}

func (op *operator) attenuate(rate uint8) uint16 {
	if rate == 0 {
		return op.attenuation
	}
	a := op.attenuation + uint16(rate)
	if a > envMax {
		return envMax
	}
	return a
}

// sustainLevel converts the 4-bit register value to attenuation units
func (op *operator) sustainLevel() uint16 {
	if op.sustainLvl == 0x0f {
		return envMax
	}
	return uint16(op.sustainLvl) << 5
}

// totalAttenuation is the envelope plus the operator's total level
func (op *operator) totalAttenuation() uint16 {
	a := op.attenuation + uint16(op.totalLevel)<<3
	if a > envMax {
		return envMax
	}
	return a
}

func (op *operator) snapshot(enc *savestate.Encoder) {
	enc.PutUint8(op.multiple)
	enc.PutUint8(op.detune)
	enc.PutUint8(op.totalLevel)
	enc.PutUint8(op.attackRate)
	enc.PutUint8(op.decayRate)
	enc.PutUint8(op.sustainRate)
	enc.PutUint8(op.releaseRate)
	enc.PutUint8(op.sustainLvl)
	enc.PutUint8(uint8(op.phase))
	enc.PutUint16(op.attenuation)
	enc.PutBool(op.keyOn)
	enc.PutUint32(op.phaseCounter)
}

func (op *operator) restore(dec *savestate.Decoder) {
	op.multiple = dec.Uint8()
	op.detune = dec.Uint8()
	op.totalLevel = dec.Uint8()
	op.attackRate = dec.Uint8()
	op.decayRate = dec.Uint8()
	op.sustainRate = dec.Uint8()
	op.releaseRate = dec.Uint8()
	op.sustainLvl = dec.Uint8()
	op.phase = envPhase(dec.Uint8())
	op.attenuation = dec.Uint16()
	op.keyOn = dec.Bool()
	op.phaseCounter = dec.Uint32()
}

// channel is one of the six FM channels.
type channel struct {
	operators [4]operator

	fnum      uint16
	block     uint8
	algorithm uint8
	feedback  uint8
	panLeft   bool
	panRight  bool

	// operator 1 feedback history
	feedbackSamples [2]float64
}

func (ch *channel) snapshot(enc *savestate.Encoder) {
	for i := range ch.operators {
		ch.operators[i].snapshot(enc)
	}
	enc.PutUint16(ch.fnum)
	enc.PutUint8(ch.block)
	enc.PutUint8(ch.algorithm)
	enc.PutUint8(ch.feedback)
	enc.PutBool(ch.panLeft)
	enc.PutBool(ch.panRight)
	enc.PutFloat64(ch.feedbackSamples[0])
	enc.PutFloat64(ch.feedbackSamples[1])
}

func (ch *channel) restore(dec *savestate.Decoder) {
	for i := range ch.operators {
		ch.operators[i].restore(dec)
	}
	ch.fnum = dec.Uint16()
	ch.block = dec.Uint8()
	ch.algorithm = dec.Uint8()
	ch.feedback = dec.Uint8()
	ch.panLeft = dec.Bool()
	ch.panRight = dec.Bool()
	ch.feedbackSamples[0] = dec.Float64()
	ch.feedbackSamples[1] = dec.Float64()
}

// YM2612 is the Genesis FM synthesiser. One Clock() is one FM sample: the
// chip produces a sample every 144 of its input clocks (master/7).
//
// The operator unit is a behavioural model: envelope shapes, phase
// generation, the eight algorithms, channel 6 DAC mode and the A/B timers
// are implemented; the LFO, SSG-EG and the exact envelope rate tables are
// not. Output is hardware-plausible rather than bit-identical, which is
// all the audio pipeline asks of a generator.
type YM2612 struct {
	channels [6]channel

	// register addressing: one address latch per register part
	addressPart1 uint8
	addressPart2 uint8

	// channel 6 DAC
	dacEnabled bool
	dacSample  uint8

	// timers
	timerALoad   uint16
	timerBLoad   uint8
	timerACount  uint16
	timerBCount  uint16
	timerAEnable bool
	timerBEnable bool
	timerAFlag   bool
	timerBFlag   bool

	lfoSkipLogged bool
}

// NewYM2612 creates a YM2612 with every channel keyed off.
func NewYM2612() *YM2612 {
	y := &YM2612{}
	for c := range y.channels {
		y.channels[c].panLeft = true
		y.channels[c].panRight = true
		for o := range y.channels[c].operators {
			y.channels[c].operators[o].attenuation = envMax
			y.channels[c].operators[o].phase = envRelease
		}
	}
	return y
}

// ReadStatus returns the busy/timer status byte.
func (y *YM2612) ReadStatus() uint8 {
	var v uint8
	if y.timerAFlag {
		v |= 0x01
	}
	if y.timerBFlag {
		v |= 0x02
	}
	return v
}

// WriteAddress1 latches a register address in part I (channels 1-3).
func (y *YM2612) WriteAddress1(address uint8) {
	y.addressPart1 = address
}

// WriteAddress2 latches a register address in part II (channels 4-6).
func (y *YM2612) WriteAddress2(address uint8) {
	y.addressPart2 = address
}

// WriteData1 writes the part I data port.
func (y *YM2612) WriteData1(data uint8) {
	y.writeRegister(y.addressPart1, data, 0)
}

// WriteData2 writes the part II data port.
func (y *YM2612) WriteData2(data uint8) {
	y.writeRegister(y.addressPart2, data, 3)
}

// channel index decode within a register part; the value 3 is invalid
func regChannel(address uint8) (int, bool) {
	c := int(address & 0x03)
	return c, c != 3
}

func (y *YM2612) writeRegister(address uint8, data uint8, channelBase int) {
	// global registers live in part I only
	if address < 0x30 {
		switch address {
		case 0x22:
			// LFO register; not modelled
			if data&0x08 != 0 && !y.lfoSkipLogged {
				y.lfoSkipLogged = true
			}
		case 0x24:
			y.timerALoad = y.timerALoad&0x003 | uint16(data)<<2
		case 0x25:
			y.timerALoad = y.timerALoad&0x3fc | uint16(data&0x03)
		case 0x26:
			y.timerBLoad = data
		case 0x27:
			y.timerAEnable = data&0x01 != 0
			y.timerBEnable = data&0x02 != 0
			if data&0x10 != 0 {
				y.timerAFlag = false
			}
			if data&0x20 != 0 {
				y.timerBFlag = false
			}
			if y.timerAEnable {
				y.timerACount = 0x400 - y.timerALoad
			}
			if y.timerBEnable {
				y.timerBCount = 16 * (0x100 - uint16(y.timerBLoad))
			}
		case 0x28:
			// key on/off: low bits select the channel across both parts
			c := int(data & 0x03)
			if c == 3 {
				return
			}
			if data&0x04 != 0 {
				c += 3
			}
			for o := 0; o < 4; o++ {
				y.channels[c].operators[o].key(data&(0x10<<o) != 0)
			}
		case 0x2a:
			y.dacSample = data
		case 0x2b:
			y.dacEnabled = data&0x80 != 0
		}
		return
	}

	c, ok := regChannel(address)
	if !ok {
		return
	}
	c += channelBase
	ch := &y.channels[c]

	// operator order within the register map is 1, 3, 2, 4
	opMap := [4]int{0, 2, 1, 3}
	op := &ch.operators[opMap[address>>2&0x03]]

	switch address & 0xf0 {
	case 0x30:
		op.detune = data >> 4 & 0x07
		op.multiple = data & 0x0f
	case 0x40:
		op.totalLevel = data & 0x7f
	case 0x50:
		op.attackRate = data & 0x1f
	case 0x60:
		op.decayRate = data & 0x1f
	case 0x70:
		op.sustainRate = data & 0x1f
	case 0x80:
		op.sustainLvl = data >> 4
		op.releaseRate = (data&0x0f)<<1 | 0x01
	case 0xa0:
		switch address & 0x0c {
		case 0x00:
			ch.fnum = ch.fnum&0x0700 | uint16(data)
		case 0x04:
			ch.fnum = ch.fnum&0x00ff | uint16(data&0x07)<<8
			ch.block = data >> 3 & 0x07
		}
	case 0xb0:
		switch address & 0x0c {
		case 0x00:
			ch.algorithm = data & 0x07
			ch.feedback = data >> 3 & 0x07
		case 0x04:
			ch.panLeft = data&0x80 != 0
			ch.panRight = data&0x40 != 0
		}
	}
}

// Clock produces the next FM sample pair, each side in [-1, 1].
func (y *YM2612) Clock() (float64, float64) {
	y.clockTimers()

	var left, right float64
	for c := range y.channels {
		var sample float64
		if c == 5 && y.dacEnabled {
			sample = (float64(y.dacSample) - 128) / 128
		} else {
			sample = y.channels[c].clock()
		}

		if y.channels[c].panLeft {
			left += sample
		}
		if y.channels[c].panRight {
			right += sample
		}
	}

	return left / 6, right / 6
}

func (y *YM2612) clockTimers() {
	if y.timerAEnable {
		if y.timerACount == 0 {
			y.timerAFlag = true
			y.timerACount = 0x400 - y.timerALoad
		} else {
			y.timerACount--
		}
	}
	if y.timerBEnable {
		if y.timerBCount == 0 {
			y.timerBFlag = true
			y.timerBCount = 16 * (0x100 - uint16(y.timerBLoad))
		} else {
			y.timerBCount--
		}
	}
}

// clock advances one channel by one sample: phase generation, envelopes,
// and the algorithm network.
func (ch *channel) clock() float64 {
	// operator outputs before mixing
	var out [4]float64

	for o := range ch.operators {
		op := &ch.operators[o]
		op.clockEnvelope()

		// phase increment from fnum/block/multiple
		inc := uint32(ch.fnum) << ch.block >> 1
		if op.multiple == 0 {
			inc >>= 1
		} else {
			inc *= uint32(op.multiple)
		}
		op.phaseCounter += inc
	}

	sine := func(o int, modulation float64) float64 {
		op := &ch.operators[o]
		phase := float64(op.phaseCounter>>10&0x3ff) / 1024 * 2 * math.Pi
		amp := attenuationToAmplitude(op.totalAttenuation())
		return math.Sin(phase+modulation) * amp
	}

	// operator 1 with self-feedback
	var fb float64
	if ch.feedback != 0 {
		fb = (ch.feedbackSamples[0] + ch.feedbackSamples[1]) / 2 *
			math.Pi / float64(uint32(0x40)>>ch.feedback)
	}
	out[0] = sine(0, fb)
	ch.feedbackSamples[1] = ch.feedbackSamples[0]
	ch.feedbackSamples[0] = out[0]

	mod := func(v float64) float64 { return v * math.Pi }

	// the eight operator connection algorithms
	switch ch.algorithm {
	case 0: // 1→2→3→4
		out[1] = sine(1, mod(out[0]))
		out[2] = sine(2, mod(out[1]))
		out[3] = sine(3, mod(out[2]))
		return out[3]
	case 1: // (1+2)→3→4
		out[1] = sine(1, 0)
		out[2] = sine(2, mod(out[0]+out[1]))
		out[3] = sine(3, mod(out[2]))
		return out[3]
	case 2: // 1+(2→3) → 4
		out[1] = sine(1, 0)
		out[2] = sine(2, mod(out[1]))
		out[3] = sine(3, mod(out[0]+out[2]))
		return out[3]
	case 3: // (1→2)+3 → 4
		out[1] = sine(1, mod(out[0]))
		out[2] = sine(2, 0)
		out[3] = sine(3, mod(out[1]+out[2]))
		return out[3]
	case 4: // (1→2) + (3→4)
		out[1] = sine(1, mod(out[0]))
		out[2] = sine(2, 0)
		out[3] = sine(3, mod(out[2]))
		return (out[1] + out[3]) / 2
	case 5: // 1 modulates 2, 3 and 4
		out[1] = sine(1, mod(out[0]))
		out[2] = sine(2, mod(out[0]))
		out[3] = sine(3, mod(out[0]))
		return (out[1] + out[2] + out[3]) / 3
	case 6: // (1→2) + 3 + 4
		out[1] = sine(1, mod(out[0]))
		out[2] = sine(2, 0)
		out[3] = sine(3, 0)
		return (out[1] + out[2] + out[3]) / 3
	default: // all carriers
		out[1] = sine(1, 0)
		out[2] = sine(2, 0)
		out[3] = sine(3, 0)
		return (out[0] + out[1] + out[2] + out[3]) / 4
	}
}

// attenuationToAmplitude converts envelope attenuation to a linear
// amplitude: each 0x40 of attenuation is roughly -6dB
func attenuationToAmplitude(attenuation uint16) float64 {
	if attenuation >= envMax {
		return 0
	}
	return math.Pow(2, -float64(attenuation)/64)
}

// Snapshot encodes the chip state.
func (y *YM2612) Snapshot(enc *savestate.Encoder) {
	for c := range y.channels {
		y.channels[c].snapshot(enc)
	}
	enc.PutUint8(y.addressPart1)
	enc.PutUint8(y.addressPart2)
	enc.PutBool(y.dacEnabled)
	enc.PutUint8(y.dacSample)
	enc.PutUint16(y.timerALoad)
	enc.PutUint8(y.timerBLoad)
	enc.PutUint16(y.timerACount)
	enc.PutUint16(y.timerBCount)
	enc.PutBool(y.timerAEnable)
	enc.PutBool(y.timerBEnable)
	enc.PutBool(y.timerAFlag)
	enc.PutBool(y.timerBFlag)
}

// Restore decodes the chip state.
func (y *YM2612) Restore(dec *savestate.Decoder) {
	for c := range y.channels {
		y.channels[c].restore(dec)
	}
	y.addressPart1 = dec.Uint8()
	y.addressPart2 = dec.Uint8()
	y.dacEnabled = dec.Bool()
	y.dacSample = dec.Uint8()
	y.timerALoad = dec.Uint16()
	y.timerBLoad = dec.Uint8()
	y.timerACount = dec.Uint16()
	y.timerBCount = dec.Uint16()
	y.timerAEnable = dec.Bool()
	y.timerBEnable = dec.Bool()
	y.timerAFlag = dec.Bool()
	y.timerBFlag = dec.Bool()
}
