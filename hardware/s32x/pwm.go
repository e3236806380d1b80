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

package s32x

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// the PWM FIFOs hold three pulse widths per channel
const pwmFIFOLen = 3

// PWM is the 32X's pulse-width-modulation sound unit. Each channel plays
// the pulse width at the head of its FIFO once per cycle period; the
// timer interrupt asks an SH-2 to refill.
type PWM struct {
	// control register: output routing and timer interval
	control uint16

	// cycle register: the pulse period in SH-2 clocks
	cycle uint16

	fifoL [pwmFIFOLen]uint16
	fifoR [pwmFIFOLen]uint16
	lenL  int
	lenR  int

	currentL uint16
	currentR uint16

	// SH-2 clocks until the next sample boundary
	counter uint32

	timerCounter uint8
}

// NewPWM creates a PWM unit with the output off.
func NewPWM() *PWM {
	return &PWM{cycle: 0}
}

// ReadRegister services a word read of $4010-$401f (SH-2) or
// $a15130-$a1513f (68000).
func (p *PWM) ReadRegister(address uint32) uint16 {
	switch address & 0x0f {
	case 0x00:
		return p.control
	case 0x02:
		return p.cycle
	case 0x04:
		// left FIFO status: full and empty flags
		return fifoStatus(p.lenL)
	case 0x06:
		return fifoStatus(p.lenR)
	case 0x08:
		// the mono port reads as the left FIFO
		return fifoStatus(p.lenL)
	}
	return 0
}

func fifoStatus(length int) uint16 {
	var v uint16
	if length == pwmFIFOLen {
		v |= 0x8000
	}
	if length == 0 {
		v |= 0x4000
	}
	return v
}

// WriteRegister services a word write of the PWM register block.
func (p *PWM) WriteRegister(address uint32, value uint16) {
	switch address & 0x0f {
	case 0x00:
		p.control = value
	case 0x02:
		p.cycle = value & 0x0fff
	case 0x04:
		p.pushL(value & 0x0fff)
	case 0x06:
		p.pushR(value & 0x0fff)
	case 0x08:
		// mono: both channels
		p.pushL(value & 0x0fff)
		p.pushR(value & 0x0fff)
	}
}

func (p *PWM) pushL(v uint16) {
	if p.lenL < pwmFIFOLen {
		p.fifoL[p.lenL] = v
		p.lenL++
	}
}

func (p *PWM) pushR(v uint16) {
	if p.lenR < pwmFIFOLen {
		p.fifoR[p.lenR] = v
		p.lenR++
	}
}

func (p *PWM) popL() {
	if p.lenL > 0 {
		p.currentL = p.fifoL[0]
		copy(p.fifoL[:], p.fifoL[1:p.lenL])
		p.lenL--
	}
}

func (p *PWM) popR() {
	if p.lenR > 0 {
		p.currentR = p.fifoR[0]
		copy(p.fifoR[:], p.fifoR[1:p.lenR])
		p.lenR--
	}
}

// Tick advances the unit by SH-2 clocks. The sample callback receives one
// stereo pair per cycle period; the registers interrupt callback fires per
// the control register's timer interval.
func (p *PWM) Tick(sh2Cycles uint64, registers *SystemRegisters, sample func(l float64, r float64)) {
	if p.cycle <= 1 {
		return
	}

	period := uint32(p.cycle) - 1

	p.counter += uint32(sh2Cycles)
	for p.counter >= period {
		p.counter -= period

		p.popL()
		p.popR()

		sample(p.sampleOut(p.currentL), p.sampleOut(p.currentR))

		// the timer interval is control bits 8-11; zero means 16
		interval := uint8(p.control >> 8 & 0x0f)
		if interval == 0 {
			interval = 16
		}
		p.timerCounter++
		if p.timerCounter >= interval {
			p.timerCounter = 0
			if p.control&0x0080 != 0 {
				registers.RaisePWMInterrupt()
			}
		}
	}
}

// sampleOut converts a pulse width to a sample in [-1, 1].
func (p *PWM) sampleOut(width uint16) float64 {
	if p.cycle <= 1 {
		return 0
	}
	return float64(width)/float64(p.cycle-1)*2 - 1
}

// Snapshot encodes the PWM state.
func (p *PWM) Snapshot(enc *savestate.Encoder) {
	enc.PutUint16(p.control)
	enc.PutUint16(p.cycle)
	for i := 0; i < pwmFIFOLen; i++ {
		enc.PutUint16(p.fifoL[i])
		enc.PutUint16(p.fifoR[i])
	}
	enc.PutInt(p.lenL)
	enc.PutInt(p.lenR)
	enc.PutUint16(p.currentL)
	enc.PutUint16(p.currentR)
	enc.PutUint32(p.counter)
	enc.PutUint8(p.timerCounter)
}

// Restore decodes the PWM state.
func (p *PWM) Restore(dec *savestate.Decoder) {
	p.control = dec.Uint16()
	p.cycle = dec.Uint16()
	for i := 0; i < pwmFIFOLen; i++ {
		p.fifoL[i] = dec.Uint16()
		p.fifoR[i] = dec.Uint16()
	}
	p.lenL = dec.Int()
	p.lenR = dec.Int()
	p.currentL = dec.Uint16()
	p.currentR = dec.Uint16()
	p.counter = dec.Uint32()
	p.timerCounter = dec.Uint8()
}
