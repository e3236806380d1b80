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

package nes

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// length counter load values, indexed by the 5-bit register field
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// noise channel periods, NTSC
var noisePeriods = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

var dutySequences = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// apuPulse is one of the two APU pulse channels.
type apuPulse struct {
	enabled  bool
	duty     uint8
	dutyPos  uint8
	period   uint16
	timer    uint16
	length   uint8
	haltLen  bool
	constant bool
	volume   uint8
	envVol   uint8
	envCount uint8
}

func (c *apuPulse) clockTimer() {
	if c.timer == 0 {
		c.timer = c.period
		c.dutyPos = (c.dutyPos + 1) & 0x07
	} else {
		c.timer--
	}
}

func (c *apuPulse) clockEnvelope() {
	if c.envCount == 0 {
		c.envCount = c.volume
		if c.envVol > 0 {
			c.envVol--
		} else if c.haltLen {
			c.envVol = 15
		}
	} else {
		c.envCount--
	}
}

func (c *apuPulse) clockLength() {
	if !c.haltLen && c.length > 0 {
		c.length--
	}
}

func (c *apuPulse) output() uint8 {
	if !c.enabled || c.length == 0 || c.period < 8 {
		return 0
	}
	if dutySequences[c.duty][c.dutyPos] == 0 {
		return 0
	}
	if c.constant {
		return c.volume
	}
	return c.envVol
}

// APU is the NES audio unit: two pulse channels, the triangle and the
// noise channel. The DMC is not emulated; its register writes are
// accepted and ignored.
type APU struct {
	pulse1 apuPulse
	pulse2 apuPulse

	triEnabled   bool
	triPeriod    uint16
	triTimer     uint16
	triPos       uint8
	triLength    uint8
	triHalt      bool
	triLinear    uint8
	triLinearCnt uint8
	triReload    bool

	noiseEnabled bool
	noisePeriod  uint16
	noiseTimer   uint16
	noiseShort   bool
	noiseLFSR    uint16
	noiseLength  uint8
	noiseHalt    bool
	noiseConst   bool
	noiseVolume  uint8
	noiseEnvVol  uint8
	noiseEnvCnt  uint8

	frameCounter uint32
	fiveStep     bool
}

// NewAPU creates an APU.
func NewAPU() *APU {
	return &APU{noiseLFSR: 1}
}

// frame sequencer quarter-frame period in CPU cycles
const quarterFrame = 7457

// Step advances the APU by one CPU cycle and returns the mono sample,
// duplicated to both sides by the caller.
func (a *APU) Step() float64 {
	a.frameCounter++
	if a.frameCounter%quarterFrame == 0 {
		step := a.frameCounter / quarterFrame
		steps := uint32(4)
		if a.fiveStep {
			steps = 5
		}

		a.clockQuarterFrame()
		if step == 2 || step == steps {
			a.clockHalfFrame()
		}
		if step >= steps {
			a.frameCounter = 0
		}
	}

	// pulse timers clock at half the CPU rate; using the full rate with
	// doubled periods is equivalent, so clock on alternate cycles
	if a.frameCounter&0x01 == 0 {
		a.pulse1.clockTimer()
		a.pulse2.clockTimer()

		if a.noiseTimer == 0 {
			a.noiseTimer = a.noisePeriod
			shift := uint(1)
			if a.noiseShort {
				shift = 6
			}
			feedback := (a.noiseLFSR ^ a.noiseLFSR>>shift) & 0x01
			a.noiseLFSR = a.noiseLFSR>>1 | feedback<<14
		} else {
			a.noiseTimer--
		}
	}

	// the triangle clocks at the CPU rate
	if a.triTimer == 0 {
		a.triTimer = a.triPeriod
		if a.triLength > 0 && a.triLinearCnt > 0 {
			a.triPos = (a.triPos + 1) & 0x1f
		}
	} else {
		a.triTimer--
	}

	return a.mix()
}

func (a *APU) clockQuarterFrame() {
	a.pulse1.clockEnvelope()
	a.pulse2.clockEnvelope()

	if a.triReload {
		a.triLinearCnt = a.triLinear
	} else if a.triLinearCnt > 0 {
		a.triLinearCnt--
	}
	if !a.triHalt {
		a.triReload = false
	}

	if a.noiseEnvCnt == 0 {
		a.noiseEnvCnt = a.noiseVolume
		if a.noiseEnvVol > 0 {
			a.noiseEnvVol--
		} else if a.noiseHalt {
			a.noiseEnvVol = 15
		}
	} else {
		a.noiseEnvCnt--
	}
}

func (a *APU) clockHalfFrame() {
	a.pulse1.clockLength()
	a.pulse2.clockLength()

	if !a.triHalt && a.triLength > 0 {
		a.triLength--
	}
	if !a.noiseHalt && a.noiseLength > 0 {
		a.noiseLength--
	}
}

// mix applies the standard non-linear mixing approximation.
func (a *APU) mix() float64 {
	p1 := float64(a.pulse1.output())
	p2 := float64(a.pulse2.output())

	var tri float64
	if a.triEnabled && a.triLength > 0 && a.triLinearCnt > 0 {
		tri = float64(triangleSequence[a.triPos])
	}

	var noise float64
	if a.noiseEnabled && a.noiseLength > 0 && a.noiseLFSR&0x01 == 0 {
		if a.noiseConst {
			noise = float64(a.noiseVolume)
		} else {
			noise = float64(a.noiseEnvVol)
		}
	}

	var pulseOut float64
	if p1+p2 > 0 {
		pulseOut = 95.88 / (8128/(p1+p2) + 100)
	}

	var tndOut float64
	if tri+noise > 0 {
		tndOut = 159.79 / (1/(tri/8227+noise/12241) + 100)
	}

	// the approximation lands in [0, ~0.6]; scale up and leave the DC
	// offset to the host's output coupling
	return (pulseOut + tndOut) * 1.5
}

// WriteRegister services a CPU write of $4000-$4017.
func (a *APU) WriteRegister(address uint16, data uint8) {
	switch address {
	case 0x4000, 0x4004:
		c := a.pulseFor(address)
		c.duty = data >> 6
		c.haltLen = data&0x20 != 0
		c.constant = data&0x10 != 0
		c.volume = data & 0x0f

	case 0x4002, 0x4006:
		c := a.pulseFor(address)
		c.period = c.period&0x0700 | uint16(data)

	case 0x4003, 0x4007:
		c := a.pulseFor(address)
		c.period = c.period&0x00ff | uint16(data&0x07)<<8
		if c.enabled {
			c.length = lengthTable[data>>3]
		}
		c.dutyPos = 0
		c.envVol = 15
		c.envCount = c.volume

	case 0x4008:
		a.triHalt = data&0x80 != 0
		a.triLinear = data & 0x7f

	case 0x400a:
		a.triPeriod = a.triPeriod&0x0700 | uint16(data)

	case 0x400b:
		a.triPeriod = a.triPeriod&0x00ff | uint16(data&0x07)<<8
		if a.triEnabled {
			a.triLength = lengthTable[data>>3]
		}
		a.triReload = true

	case 0x400c:
		a.noiseHalt = data&0x20 != 0
		a.noiseConst = data&0x10 != 0
		a.noiseVolume = data & 0x0f

	case 0x400e:
		a.noiseShort = data&0x80 != 0
		a.noisePeriod = noisePeriods[data&0x0f]

	case 0x400f:
		if a.noiseEnabled {
			a.noiseLength = lengthTable[data>>3]
		}
		a.noiseEnvVol = 15
		a.noiseEnvCnt = a.noiseVolume

	case 0x4015:
		a.pulse1.enabled = data&0x01 != 0
		a.pulse2.enabled = data&0x02 != 0
		a.triEnabled = data&0x04 != 0
		a.noiseEnabled = data&0x08 != 0
		if !a.pulse1.enabled {
			a.pulse1.length = 0
		}
		if !a.pulse2.enabled {
			a.pulse2.length = 0
		}
		if !a.triEnabled {
			a.triLength = 0
		}
		if !a.noiseEnabled {
			a.noiseLength = 0
		}

	case 0x4017:
		a.fiveStep = data&0x80 != 0
	}
}

func (a *APU) pulseFor(address uint16) *apuPulse {
	if address < 0x4004 {
		return &a.pulse1
	}
	return &a.pulse2
}

// ReadStatus services a CPU read of $4015.
func (a *APU) ReadStatus() uint8 {
	var v uint8
	if a.pulse1.length > 0 {
		v |= 0x01
	}
	if a.pulse2.length > 0 {
		v |= 0x02
	}
	if a.triLength > 0 {
		v |= 0x04
	}
	if a.noiseLength > 0 {
		v |= 0x08
	}
	return v
}

// Snapshot encodes the APU state.
func (a *APU) Snapshot(enc *savestate.Encoder) {
	for _, c := range []*apuPulse{&a.pulse1, &a.pulse2} {
		enc.PutBool(c.enabled)
		enc.PutUint8(c.duty)
		enc.PutUint8(c.dutyPos)
		enc.PutUint16(c.period)
		enc.PutUint16(c.timer)
		enc.PutUint8(c.length)
		enc.PutBool(c.haltLen)
		enc.PutBool(c.constant)
		enc.PutUint8(c.volume)
		enc.PutUint8(c.envVol)
		enc.PutUint8(c.envCount)
	}
	enc.PutBool(a.triEnabled)
	enc.PutUint16(a.triPeriod)
	enc.PutUint16(a.triTimer)
	enc.PutUint8(a.triPos)
	enc.PutUint8(a.triLength)
	enc.PutBool(a.triHalt)
	enc.PutUint8(a.triLinear)
	enc.PutUint8(a.triLinearCnt)
	enc.PutBool(a.triReload)
	enc.PutBool(a.noiseEnabled)
	enc.PutUint16(a.noisePeriod)
	enc.PutUint16(a.noiseTimer)
	enc.PutBool(a.noiseShort)
	enc.PutUint16(a.noiseLFSR)
	enc.PutUint8(a.noiseLength)
	enc.PutBool(a.noiseHalt)
	enc.PutBool(a.noiseConst)
	enc.PutUint8(a.noiseVolume)
	enc.PutUint8(a.noiseEnvVol)
	enc.PutUint8(a.noiseEnvCnt)
	enc.PutUint32(a.frameCounter)
	enc.PutBool(a.fiveStep)
}

// Restore decodes the APU state.
func (a *APU) Restore(dec *savestate.Decoder) {
	for _, c := range []*apuPulse{&a.pulse1, &a.pulse2} {
		c.enabled = dec.Bool()
		c.duty = dec.Uint8()
		c.dutyPos = dec.Uint8()
		c.period = dec.Uint16()
		c.timer = dec.Uint16()
		c.length = dec.Uint8()
		c.haltLen = dec.Bool()
		c.constant = dec.Bool()
		c.volume = dec.Uint8()
		c.envVol = dec.Uint8()
		c.envCount = dec.Uint8()
	}
	a.triEnabled = dec.Bool()
	a.triPeriod = dec.Uint16()
	a.triTimer = dec.Uint16()
	a.triPos = dec.Uint8()
	a.triLength = dec.Uint8()
	a.triHalt = dec.Bool()
	a.triLinear = dec.Uint8()
	a.triLinearCnt = dec.Uint8()
	a.triReload = dec.Bool()
	a.noiseEnabled = dec.Bool()
	a.noisePeriod = dec.Uint16()
	a.noiseTimer = dec.Uint16()
	a.noiseShort = dec.Bool()
	a.noiseLFSR = dec.Uint16()
	a.noiseLength = dec.Uint8()
	a.noiseHalt = dec.Bool()
	a.noiseConst = dec.Bool()
	a.noiseVolume = dec.Uint8()
	a.noiseEnvVol = dec.Uint8()
	a.noiseEnvCnt = dec.Uint8()
	a.frameCounter = dec.Uint32()
	a.fiveStep = dec.Bool()
}
