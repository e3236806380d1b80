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

package segacd

import (
	"github.com/jetsetilly/gophergen/savestate"
)

const (
	pcmChannels  = 8
	pcmWaveRAMLen = 64 * 1024
)

// pcmChannel is one voice of the PCM chip: a phase-accumulated pointer
// into wave RAM with per-channel volume and panning.
type pcmChannel struct {
	enabled bool

	// sample start address (high byte) and loop address
	start uint8
	loop  uint16

	// phase increment, 16 bits with an 11-bit fractional part
	frequency uint16

	volume uint8
	pan    uint8

	// phase accumulator: wave RAM address with fractional bits
	address uint32
}

// PCM is the Sega CD's RF5C164-style sample playback chip: eight channels
// reading 8-bit samples from the chip's wave RAM at a programmed rate.
type PCM struct {
	waveRAM []uint8

	channels [pcmChannels]pcmChannel

	// register interface state
	selectedChannel uint8
	waveRAMBank     uint8
	sounding        bool

	// channel-on bits, active low in the register
	channelOn uint8
}

// NewPCM creates a PCM chip with all channels keyed off.
func NewPCM() *PCM {
	return &PCM{
		waveRAM:   make([]uint8, pcmWaveRAMLen),
		channelOn: 0xff,
	}
}

// ReadWaveRAM services a sub-CPU read of the banked wave RAM window.
func (p *PCM) ReadWaveRAM(address uint32) uint8 {
	return p.waveRAM[uint32(p.waveRAMBank)<<12|address&0x0fff]
}

// WriteWaveRAM services a sub-CPU write of the banked wave RAM window.
func (p *PCM) WriteWaveRAM(address uint32, data uint8) {
	p.waveRAM[uint32(p.waveRAMBank)<<12|address&0x0fff] = data
}

// WriteRegister services a write of the chip's register block.
func (p *PCM) WriteRegister(address uint32, data uint8) {
	ch := &p.channels[p.selectedChannel]

	switch address & 0x0f {
	case 0x00:
		ch.enabled = data&0x80 != 0
	case 0x01:
		ch.volume = data
	case 0x02:
		ch.pan = data
	case 0x03:
		ch.frequency = ch.frequency&0xff00 | uint16(data)
	case 0x04:
		ch.frequency = ch.frequency&0x00ff | uint16(data)<<8
	case 0x05:
		ch.loop = ch.loop&0xff00 | uint16(data)
	case 0x06:
		ch.loop = ch.loop&0x00ff | uint16(data)<<8
	case 0x07:
		ch.start = data
		ch.address = uint32(data) << 8 << 11

	case 0x08:
		p.sounding = data&0x80 != 0
		if data&0x40 != 0 {
			p.waveRAMBank = data & 0x0f
		} else {
			p.selectedChannel = data & 0x07
		}

	case 0x09:
		p.channelOn = data
	}
}

// Clock produces the next stereo sample pair. The chip's native rate is
// the sub-CPU clock divided by 384, roughly 32.5kHz.
func (p *PCM) Clock() (float64, float64) {
	if !p.sounding {
		return 0, 0
	}

	var left, right int32

	for i := range p.channels {
		ch := &p.channels[i]
		if !ch.enabled || p.channelOn&(1<<i) != 0 {
			continue
		}

		sample := p.waveRAM[ch.address>>11&(pcmWaveRAMLen-1)]
		if sample == 0xff {
			// a $ff sample is a loop marker
			ch.address = uint32(ch.loop) << 11
			sample = p.waveRAM[ch.address>>11&(pcmWaveRAMLen-1)]
		}

		ch.address += uint32(ch.frequency)

		// sign-magnitude samples: bit 7 set is positive
		var value int32
		if sample&0x80 != 0 {
			value = int32(sample & 0x7f)
		} else {
			value = -int32(sample)
		}

		value *= int32(ch.volume)
		left += value * int32(ch.pan&0x0f) >> 5
		right += value * int32(ch.pan>>4) >> 5
	}

	// scale the 8-bit × volume × pan products by 1/32768: one full-scale
	// channel reaches about 0.46, so several together can exceed [-1, 1]
	return float64(left) / 32768, float64(right) / 32768
}

// Snapshot encodes the chip state.
func (p *PCM) Snapshot(enc *savestate.Encoder) {
	enc.PutBytes(p.waveRAM)
	for i := range p.channels {
		ch := &p.channels[i]
		enc.PutBool(ch.enabled)
		enc.PutUint8(ch.start)
		enc.PutUint16(ch.loop)
		enc.PutUint16(ch.frequency)
		enc.PutUint8(ch.volume)
		enc.PutUint8(ch.pan)
		enc.PutUint32(ch.address)
	}
	enc.PutUint8(p.selectedChannel)
	enc.PutUint8(p.waveRAMBank)
	enc.PutBool(p.sounding)
	enc.PutUint8(p.channelOn)
}

// Restore decodes the chip state.
func (p *PCM) Restore(dec *savestate.Decoder) {
	dec.BytesInto(p.waveRAM)
	for i := range p.channels {
		ch := &p.channels[i]
		ch.enabled = dec.Bool()
		ch.start = dec.Uint8()
		ch.loop = dec.Uint16()
		ch.frequency = dec.Uint16()
		ch.volume = dec.Uint8()
		ch.pan = dec.Uint8()
		ch.address = dec.Uint32()
	}
	p.selectedChannel = dec.Uint8()
	p.waveRAMBank = dec.Uint8()
	p.sounding = dec.Bool()
	p.channelOn = dec.Uint8()
}
