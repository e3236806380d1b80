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

package apu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetilly/gophergen/hardware/gameboy/apu"
)

// run the APU for n steps, returning the peak absolute sample value
func peakOutput(a *apu.APU, n int) float64 {
	var peak float64
	for i := 0; i < n; i++ {
		l, r := a.Step()
		if l > peak {
			peak = l
		}
		if -l > peak {
			peak = -l
		}
		if r > peak {
			peak = r
		}
		if -r > peak {
			peak = -r
		}
	}
	return peak
}

func triggerPulse1(a *apu.APU, period uint16, volume uint8) {
	a.WriteRegister(0xff12, volume<<4)         // envelope: constant volume
	a.WriteRegister(0xff13, uint8(period))     // period low
	a.WriteRegister(0xff14, 0x80|uint8(period>>8)&0x07) // trigger
}

func TestPulseChannelProducesOutput(t *testing.T) {
	a := apu.NewAPU()

	// silence before any trigger: the duty sequence may hold the DAC at a
	// constant level but nothing oscillates
	quiet := peakOutput(a, 1024)

	triggerPulse1(a, 1792, 0x0f) // 512Hz square
	loud := peakOutput(a, 16384)

	assert.Greater(t, loud, quiet)
	assert.LessOrEqual(t, loud, 1.0)
}

func TestZeroVolumeEnvelopeDisablesDAC(t *testing.T) {
	a := apu.NewAPU()

	triggerPulse1(a, 1792, 0x0f)
	require.Equal(t, uint8(0x01), a.ReadRegister(0xff26)&0x0f, "channel 1 should be on")

	// volume zero with decreasing direction turns the DAC off entirely
	a.WriteRegister(0xff12, 0x00)
	assert.Zero(t, a.ReadRegister(0xff26)&0x01, "channel 1 should be off")
}

func TestLengthCounterSilencesChannel(t *testing.T) {
	a := apu.NewAPU()

	// length 63: one length tick remains
	a.WriteRegister(0xff12, 0xf0)
	a.WriteRegister(0xff11, 0x3f)
	a.WriteRegister(0xff13, 0x00)
	a.WriteRegister(0xff14, 0xc0|0x07) // trigger with length enabled

	require.Equal(t, uint8(0x01), a.ReadRegister(0xff26)&0x01)

	// two frame-sequencer periods guarantee a length clock
	for i := 0; i < 2*8192/4; i++ {
		a.Step()
	}

	assert.Zero(t, a.ReadRegister(0xff26)&0x01, "length counter should have expired")
}

func TestPowerOffClearsRegisters(t *testing.T) {
	a := apu.NewAPU()

	a.WriteRegister(0xff24, 0x35)
	a.WriteRegister(0xff25, 0xa5)
	a.WriteRegister(0xff30, 0x12) // wave RAM

	a.WriteRegister(0xff26, 0x00) // power off

	assert.Equal(t, uint8(0x00), a.ReadRegister(0xff24))
	assert.Equal(t, uint8(0x00), a.ReadRegister(0xff25))
	assert.Zero(t, a.ReadRegister(0xff26)&0x80)

	// wave RAM survives the power cycle and stays writable
	assert.Equal(t, uint8(0x12), a.ReadRegister(0xff30))

	// registers are write-protected while powered off
	a.WriteRegister(0xff24, 0x77)
	assert.Equal(t, uint8(0x00), a.ReadRegister(0xff24))

	// power back on
	a.WriteRegister(0xff26, 0x80)
	a.WriteRegister(0xff24, 0x77)
	assert.Equal(t, uint8(0x77), a.ReadRegister(0xff24))
}

func TestSweepOverflowDisablesChannel(t *testing.T) {
	a := apu.NewAPU()

	// a maximum period with an additive sweep overflows on trigger
	a.WriteRegister(0xff10, 0x11) // pace 1, up, step 1
	a.WriteRegister(0xff12, 0xf0)
	a.WriteRegister(0xff13, 0xff)
	a.WriteRegister(0xff14, 0x87) // trigger, period 0x7ff

	assert.Zero(t, a.ReadRegister(0xff26)&0x01, "sweep overflow should disable on trigger")
}
