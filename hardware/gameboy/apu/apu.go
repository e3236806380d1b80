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

// Package apu emulates the Game Boy audio unit: two pulse channels, the
// wavetable channel and the noise channel, sequenced by the 512Hz frame
// sequencer. The APU produces one stereo sample pair per Step(), which the
// owning system calls at a quarter of the master clock rate.
package apu

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// SampleRate is the rate at which Step() produces samples: one per four
// master-clock cycles.
const SampleRate = 4_194_304.0 / 4

// master-clock cycles per Step()
const stepCycles = 4

// the frame sequencer advances at 512Hz: every 8192 master cycles
const frameSequencerPeriod = 8192

// APU emulates the Game Boy audio unit.
type APU struct {
	enabled bool

	pulse1 *pulse
	pulse2 *pulse
	wave   *wave
	noise  *noise

	// NR50: master volume per side (0-7); the VIN mixing bits are accepted
	// and ignored
	leftVolume  uint8
	rightVolume uint8
	nr50        uint8

	// NR51: channel-to-side routing
	panning uint8

	frameSequencerCounter uint16
	frameSequencerStep    uint8
}

// NewAPU creates an APU in the power-on state.
func NewAPU() *APU {
	return &APU{
		enabled: true,
		pulse1:  newPulse(),
		pulse2:  newPulse(),
		wave:    newWave(),
		noise:   newNoise(),

		leftVolume:  7,
		rightVolume: 7,
		nr50:        0x77,
		panning:     0xf3,
	}
}

// Step advances the APU by four master-clock cycles and returns the next
// sample pair, in the range [-1, 1] per side.
func (a *APU) Step() (float64, float64) {
	if !a.enabled {
		return 0, 0
	}

	a.frameSequencerCounter += stepCycles
	if a.frameSequencerCounter >= frameSequencerPeriod {
		a.frameSequencerCounter -= frameSequencerPeriod
		a.clockFrameSequencer()
	}

	a.pulse1.tick(stepCycles)
	a.pulse2.tick(stepCycles)
	a.wave.tick(stepCycles)
	a.noise.tick(stepCycles)

	return a.sample()
}

// the frame sequencer: length on even steps, sweep on steps 2 and 6,
// envelope on step 7
func (a *APU) clockFrameSequencer() {
	step := a.frameSequencerStep
	a.frameSequencerStep = (step + 1) & 0x07

	if step&0x01 == 0 {
		if a.pulse1.length.clock() {
			a.pulse1.enabled = false
		}
		if a.pulse2.length.clock() {
			a.pulse2.enabled = false
		}
		if a.wave.length.clock() {
			a.wave.enabled = false
		}
		if a.noise.length.clock() {
			a.noise.enabled = false
		}
	}

	if step == 2 || step == 6 {
		a.pulse1.clockSweep()
	}

	if step == 7 {
		a.pulse1.envelope.clock()
		a.pulse2.envelope.clock()
		a.noise.envelope.clock()
	}
}

// sample mixes the four channel DACs according to the panning register and
// the per-side volume. A channel whose DAC is off contributes silence; a
// channel with its DAC on contributes an analog level even when its
// digital output is zero, which is where the hardware's DC offset comes
// from.
func (a *APU) sample() (float64, float64) {
	outputs := [4]struct {
		value uint8
		dac   bool
	}{
		{a.pulse1.output(), a.pulse1.envelope.dacEnabled()},
		{a.pulse2.output(), a.pulse2.envelope.dacEnabled()},
		{a.wave.output(), a.wave.dacEnabled},
		{a.noise.output(), a.noise.envelope.dacEnabled()},
	}

	var left, right float64
	for ch, out := range outputs {
		if !out.dac {
			continue
		}

		// the DAC converts 0-15 to roughly +1..-1
		analog := 1.0 - float64(out.value)/7.5

		if a.panning&(1<<(ch+4)) != 0 {
			left += analog
		}
		if a.panning&(1<<ch) != 0 {
			right += analog
		}
	}

	left = left / 4 * float64(a.leftVolume+1) / 8
	right = right / 4 * float64(a.rightVolume+1) / 8

	return left, right
}

// ReadRegister reads an APU register ($ff10-$ff3f).
func (a *APU) ReadRegister(address uint16) uint8 {
	// wave RAM reads work regardless of power
	if address >= 0xff30 && address <= 0xff3f {
		return a.wave.ram[address&0x0f]
	}

	switch address {
	case 0xff10:
		v := a.pulse1.sweepPace << 4
		if a.pulse1.sweepDown {
			v |= 0x08
		}
		return 0x80 | v | a.pulse1.sweepStep
	case 0xff11:
		return a.pulse1.duty<<6 | 0x3f
	case 0xff12:
		return a.pulse1.envelope.readRegister()
	case 0xff14:
		return a.readLengthEnable(a.pulse1.length.enabled)
	case 0xff16:
		return a.pulse2.duty<<6 | 0x3f
	case 0xff17:
		return a.pulse2.envelope.readRegister()
	case 0xff19:
		return a.readLengthEnable(a.pulse2.length.enabled)
	case 0xff1a:
		if a.wave.dacEnabled {
			return 0xff
		}
		return 0x7f
	case 0xff1c:
		return 0x9f | a.wave.outputLevel<<5
	case 0xff1e:
		return a.readLengthEnable(a.wave.length.enabled)
	case 0xff21:
		return a.noise.envelope.readRegister()
	case 0xff22:
		v := a.noise.shift << 4
		if a.noise.shortWidth {
			v |= 0x08
		}
		return v | a.noise.divisor
	case 0xff23:
		return a.readLengthEnable(a.noise.length.enabled)
	case 0xff24:
		return a.nr50
	case 0xff25:
		return a.panning
	case 0xff26:
		v := uint8(0x70)
		if a.enabled {
			v |= 0x80
		}
		if a.pulse1.enabled {
			v |= 0x01
		}
		if a.pulse2.enabled {
			v |= 0x02
		}
		if a.wave.enabled {
			v |= 0x04
		}
		if a.noise.enabled {
			v |= 0x08
		}
		return v
	}

	// write-only registers read back fully set
	return 0xff
}

func (a *APU) readLengthEnable(enabled bool) uint8 {
	if enabled {
		return 0xff
	}
	return 0xbf
}

// WriteRegister writes an APU register. With the APU powered off only the
// power bit and wave RAM accept writes.
func (a *APU) WriteRegister(address uint16, value uint8) {
	if address >= 0xff30 && address <= 0xff3f {
		a.wave.ram[address&0x0f] = value
		return
	}

	if !a.enabled && address != 0xff26 {
		return
	}

	switch address {
	case 0xff10:
		a.pulse1.sweepPace = value >> 4 & 0x07
		a.pulse1.sweepDown = value&0x08 != 0
		a.pulse1.sweepStep = value & 0x07
	case 0xff11:
		a.pulse1.duty = value >> 6
		a.pulse1.length.load(uint16(value & 0x3f))
	case 0xff12:
		a.pulse1.envelope.writeRegister(value)
		if !a.pulse1.envelope.dacEnabled() {
			a.pulse1.enabled = false
		}
	case 0xff13:
		a.pulse1.period = a.pulse1.period&0x0700 | uint16(value)
	case 0xff14:
		a.pulse1.period = a.pulse1.period&0x00ff | uint16(value&0x07)<<8
		a.pulse1.length.enabled = value&0x40 != 0
		if value&0x80 != 0 {
			a.pulse1.trigger()
		}

	case 0xff16:
		a.pulse2.duty = value >> 6
		a.pulse2.length.load(uint16(value & 0x3f))
	case 0xff17:
		a.pulse2.envelope.writeRegister(value)
		if !a.pulse2.envelope.dacEnabled() {
			a.pulse2.enabled = false
		}
	case 0xff18:
		a.pulse2.period = a.pulse2.period&0x0700 | uint16(value)
	case 0xff19:
		a.pulse2.period = a.pulse2.period&0x00ff | uint16(value&0x07)<<8
		a.pulse2.length.enabled = value&0x40 != 0
		if value&0x80 != 0 {
			a.pulse2.trigger()
		}

	case 0xff1a:
		a.wave.dacEnabled = value&0x80 != 0
		if !a.wave.dacEnabled {
			a.wave.enabled = false
		}
	case 0xff1b:
		a.wave.length.load(uint16(value))
	case 0xff1c:
		a.wave.outputLevel = value >> 5 & 0x03
	case 0xff1d:
		a.wave.period = a.wave.period&0x0700 | uint16(value)
	case 0xff1e:
		a.wave.period = a.wave.period&0x00ff | uint16(value&0x07)<<8
		a.wave.length.enabled = value&0x40 != 0
		if value&0x80 != 0 {
			a.wave.trigger()
		}

	case 0xff20:
		a.noise.length.load(uint16(value & 0x3f))
	case 0xff21:
		a.noise.envelope.writeRegister(value)
		if !a.noise.envelope.dacEnabled() {
			a.noise.enabled = false
		}
	case 0xff22:
		a.noise.shift = value >> 4
		a.noise.shortWidth = value&0x08 != 0
		a.noise.divisor = value & 0x07
	case 0xff23:
		a.noise.length.enabled = value&0x40 != 0
		if value&0x80 != 0 {
			a.noise.trigger()
		}

	case 0xff24:
		a.nr50 = value
		a.leftVolume = value >> 4 & 0x07
		a.rightVolume = value & 0x07
	case 0xff25:
		a.panning = value
	case 0xff26:
		wasEnabled := a.enabled
		a.enabled = value&0x80 != 0
		if wasEnabled && !a.enabled {
			a.powerOff()
		}
	}
}

// powering the APU off clears every register and channel
func (a *APU) powerOff() {
	waveRAM := a.wave.ram

	a.pulse1 = newPulse()
	a.pulse2 = newPulse()
	a.wave = newWave()
	a.noise = newNoise()
	a.wave.ram = waveRAM

	a.nr50 = 0
	a.leftVolume = 0
	a.rightVolume = 0
	a.panning = 0
	a.frameSequencerCounter = 0
	a.frameSequencerStep = 0
}

// Snapshot encodes the APU state.
func (a *APU) Snapshot(enc *savestate.Encoder) {
	enc.PutBool(a.enabled)
	a.pulse1.snapshot(enc)
	a.pulse2.snapshot(enc)
	a.wave.snapshot(enc)
	a.noise.snapshot(enc)
	enc.PutUint8(a.nr50)
	enc.PutUint8(a.panning)
	enc.PutUint16(a.frameSequencerCounter)
	enc.PutUint8(a.frameSequencerStep)
}

// Restore decodes the APU state.
func (a *APU) Restore(dec *savestate.Decoder) {
	a.enabled = dec.Bool()
	a.pulse1.restore(dec)
	a.pulse2.restore(dec)
	a.wave.restore(dec)
	a.noise.restore(dec)
	a.nr50 = dec.Uint8()
	a.leftVolume = a.nr50 >> 4 & 0x07
	a.rightVolume = a.nr50 & 0x07
	a.panning = dec.Uint8()
	a.frameSequencerCounter = dec.Uint16()
	a.frameSequencerStep = dec.Uint8()
}
