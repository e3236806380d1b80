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
	"github.com/jetsetilly/gophergen/savestate"
)

// each step up in attenuation decreases volume by 2dB, except for the step
// to 15 which silences. -2dB is a multiplier of 10^(-1/10)
var attenuationToVolume = [16]float64{
	1.0,
	0.7943282347242815,
	0.6309573444801932,
	0.5011872336272722,
	0.3981071705534972,
	0.3162277660168379,
	0.25118864315095796,
	0.19952623149688792,
	0.15848931924611132,
	0.1258925411794167,
	0.09999999999999998,
	0.07943282347242814,
	0.06309573444801932,
	0.05011872336272722,
	0.03981071705534972,
	0.0,
}

// the SMS2 VDP-integrated PSG clips the three loudest volumes
var sms2AttenuationToVolume = func() [16]float64 {
	t := attenuationToVolume
	t[0] = 0.55
	t[1] = 0.55
	t[2] = 0.55
	return t
}()

// PSGVersion selects the volume behaviour of the chip revision.
type PSGVersion int

// List of PSGVersion values.
const (
	PSGDiscrete PSGVersion = iota
	PSGSMS2
)

// squareWave is one of the PSG's three tone channels.
type squareWave struct {
	counter     uint16
	outputHigh  bool
	tone        uint16
	attenuation uint8
}

func newSquareWave() squareWave {
	return squareWave{attenuation: 0x0f}
}

func (c *squareWave) updateToneLowBits(data uint8) {
	c.tone = c.tone&0xfff0 | uint16(data&0x0f)
}

func (c *squareWave) updateToneHighBits(data uint8) {
	c.tone = c.tone&0x000f | uint16(data&0x3f)<<4
}

func (c *squareWave) clock() {
	if c.counter == 0 {
		c.counter = c.tone
		return
	}

	c.counter--
	if c.counter == 0 {
		c.counter = c.tone
		// don't oscillate at ultrasonic frequencies; the flat output is
		// closer to what a real speaker does with them
		if c.tone >= 5 {
			c.outputHigh = !c.outputHigh
		}
	}
}

func (c *squareWave) sample(volumeTable *[16]float64) float64 {
	v := volumeTable[c.attenuation]
	if c.outputHigh {
		return v
	}
	return -v
}

// noise is the PSG's fourth channel: a shift-register noise source.
type noise struct {
	counter     uint16
	countdown   bool
	lfsr        uint16
	white       bool
	reload      uint8
	attenuation uint8
	output      bool
}

func newNoise() noise {
	return noise{lfsr: 0x8000, attenuation: 0x0f}
}

func (n *noise) writeRegister(data uint8) {
	n.white = data&0x04 != 0
	n.reload = data & 0x03
	n.lfsr = 0x8000
}

func (n *noise) reloadValue(tone2 uint16) uint16 {
	switch n.reload {
	case 0x00:
		return 0x10
	case 0x01:
		return 0x20
	case 0x02:
		return 0x40
	}
	return tone2
}

func (n *noise) clock(tone2 uint16) {
	if n.counter == 0 {
		n.counter = n.reloadValue(tone2)
		return
	}

	n.counter--
	if n.counter == 0 {
		n.counter = n.reloadValue(tone2)

		// the LFSR shifts on every second expiry
		n.countdown = !n.countdown
		if !n.countdown {
			return
		}

		n.output = n.lfsr&0x01 != 0

		var feedback uint16
		if n.white {
			feedback = (n.lfsr ^ n.lfsr>>3) & 0x01
		} else {
			feedback = n.lfsr & 0x01
		}
		n.lfsr = n.lfsr>>1 | feedback<<15
	}
}

func (n *noise) sample(volumeTable *[16]float64) float64 {
	if n.output {
		return volumeTable[n.attenuation]
	}
	return -volumeTable[n.attenuation]
}

// PSG is the SN76489 programmable sound generator. One Clock() call is one
// PSG cycle, which is one sixteenth of the Z80 clock.
type PSG struct {
	version PSGVersion

	tones [3]squareWave
	noise noise

	// register addressing: the last latched channel and register type
	latchedChannel uint8
	latchedVolume  bool

	// Game Gear stereo register: high nibble left enables, low nibble
	// right enables. on the SMS all channels play on both sides
	stereo uint8
}

// NewPSG creates a PSG with all channels silenced.
func NewPSG(version PSGVersion) *PSG {
	return &PSG{
		version: version,
		tones:   [3]squareWave{newSquareWave(), newSquareWave(), newSquareWave()},
		noise:   newNoise(),
		stereo:  0xff,
	}
}

// Write handles a byte written to the PSG port. A byte with bit 7 set is a
// latch/data byte selecting a channel and register; bit 7 clear continues
// the latched register.
func (p *PSG) Write(data uint8) {
	if data&0x80 != 0 {
		p.latchedChannel = data >> 5 & 0x03
		p.latchedVolume = data&0x10 != 0

		switch {
		case p.latchedChannel == 3:
			if p.latchedVolume {
				p.noise.attenuation = data & 0x0f
			} else {
				p.noise.writeRegister(data)
			}
		case p.latchedVolume:
			p.tones[p.latchedChannel].attenuation = data & 0x0f
		default:
			p.tones[p.latchedChannel].updateToneLowBits(data)
		}
		return
	}

	switch {
	case p.latchedChannel == 3:
		if p.latchedVolume {
			p.noise.attenuation = data & 0x0f
		} else {
			p.noise.writeRegister(data)
		}
	case p.latchedVolume:
		p.tones[p.latchedChannel].attenuation = data & 0x0f
	default:
		p.tones[p.latchedChannel].updateToneHighBits(data)
	}
}

// WriteStereo sets the Game Gear stereo routing register.
func (p *PSG) WriteStereo(data uint8) {
	p.stereo = data
}

// Clock advances every channel by one PSG cycle.
func (p *PSG) Clock() {
	for i := range p.tones {
		p.tones[i].clock()
	}
	p.noise.clock(p.tones[2].tone)
}

// Sample returns the current stereo output, each side in [-1, 1].
func (p *PSG) Sample() (float64, float64) {
	table := &attenuationToVolume
	if p.version == PSGSMS2 {
		table = &sms2AttenuationToVolume
	}

	var left, right float64
	for i := range p.tones {
		s := p.tones[i].sample(table)
		if p.stereo&(1<<(i+4)) != 0 {
			left += s
		}
		if p.stereo&(1<<i) != 0 {
			right += s
		}
	}

	s := p.noise.sample(table)
	if p.stereo&0x80 != 0 {
		left += s
	}
	if p.stereo&0x08 != 0 {
		right += s
	}

	return left / 4, right / 4
}

// Snapshot encodes the PSG state.
func (p *PSG) Snapshot(enc *savestate.Encoder) {
	for i := range p.tones {
		enc.PutUint16(p.tones[i].counter)
		enc.PutBool(p.tones[i].outputHigh)
		enc.PutUint16(p.tones[i].tone)
		enc.PutUint8(p.tones[i].attenuation)
	}
	enc.PutUint16(p.noise.counter)
	enc.PutBool(p.noise.countdown)
	enc.PutUint16(p.noise.lfsr)
	enc.PutBool(p.noise.white)
	enc.PutUint8(p.noise.reload)
	enc.PutUint8(p.noise.attenuation)
	enc.PutBool(p.noise.output)
	enc.PutUint8(p.latchedChannel)
	enc.PutBool(p.latchedVolume)
	enc.PutUint8(p.stereo)
}

// Restore decodes the PSG state.
func (p *PSG) Restore(dec *savestate.Decoder) {
	for i := range p.tones {
		p.tones[i].counter = dec.Uint16()
		p.tones[i].outputHigh = dec.Bool()
		p.tones[i].tone = dec.Uint16()
		p.tones[i].attenuation = dec.Uint8()
	}
	p.noise.counter = dec.Uint16()
	p.noise.countdown = dec.Bool()
	p.noise.lfsr = dec.Uint16()
	p.noise.white = dec.Bool()
	p.noise.reload = dec.Uint8()
	p.noise.attenuation = dec.Uint8()
	p.noise.output = dec.Bool()
	p.latchedChannel = dec.Uint8()
	p.latchedVolume = dec.Bool()
	p.stereo = dec.Uint8()
}
