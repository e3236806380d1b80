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

// WhichCPU distinguishes the two SH-2s.
type WhichCPU int

// List of WhichCPU values.
const (
	Master WhichCPU = iota
	Slave
)

func (w WhichCPU) String() string {
	if w == Master {
		return "master"
	}
	return "slave"
}

// Access records which side of the system currently owns a shared
// resource.
type Access int

// List of Access values.
const (
	AccessM68K Access = iota
	AccessSH2
)

// perCPUInterrupts is the interrupt state for one SH-2.
type perCPUInterrupts struct {
	// enable mask bits: vres, v, h, cmd, pwm
	mask uint8

	vresPending bool
	vPending    bool
	hPending    bool
	cmdPending  bool
	pwmPending  bool
}

// pendingLevel returns the highest SH-2 interrupt level asserted, or -1.
func (irq *perCPUInterrupts) pendingLevel() int {
	// fixed priorities: VRES 14, V 12, H 10, CMD 8, PWM 6
	switch {
	case irq.vresPending && irq.mask&0x10 != 0:
		return 14
	case irq.vPending && irq.mask&0x08 != 0:
		return 12
	case irq.hPending && irq.mask&0x04 != 0:
		return 10
	case irq.cmdPending && irq.mask&0x02 != 0:
		return 8
	case irq.pwmPending && irq.mask&0x01 != 0:
		return 6
	}
	return -1
}

func (irq *perCPUInterrupts) snapshot(enc *savestate.Encoder) {
	enc.PutUint8(irq.mask)
	enc.PutBool(irq.vresPending)
	enc.PutBool(irq.vPending)
	enc.PutBool(irq.hPending)
	enc.PutBool(irq.cmdPending)
	enc.PutBool(irq.pwmPending)
}

func (irq *perCPUInterrupts) restore(dec *savestate.Decoder) {
	irq.mask = dec.Uint8()
	irq.vresPending = dec.Bool()
	irq.vPending = dec.Bool()
	irq.hPending = dec.Bool()
	irq.cmdPending = dec.Bool()
	irq.pwmPending = dec.Bool()
}

// SystemRegisters is the 32X register block shared between the 68000 and
// the SH-2 pair.
type SystemRegisters struct {
	AdapterEnabled bool
	ResetSH2       bool

	// which side owns the 32X VDP register window
	VDPAccess Access

	// the eight 16-bit communication ports
	Comm [8]uint16

	// interrupt state per SH-2
	masterIRQ perCPUInterrupts
	slaveIRQ  perCPUInterrupts

	// H interrupt line count
	HCount uint16
}

// NewSystemRegisters creates the register block in its post-power-on
// state.
func NewSystemRegisters() *SystemRegisters {
	return &SystemRegisters{}
}

// M68KRead services a 68000 word read of $a15100-$a1512f.
func (r *SystemRegisters) M68KRead(address uint32) uint16 {
	switch address & 0x3f {
	case 0x00:
		var v uint16
		if r.AdapterEnabled {
			v |= 0x0001
		}
		if r.ResetSH2 {
			v |= 0x0002
		}
		return v
	case 0x04:
		return r.HCount
	case 0x06:
		if r.VDPAccess == AccessSH2 {
			return 0x8000
		}
		return 0
	default:
		if idx, ok := commIndex(address); ok {
			return r.Comm[idx]
		}
	}
	return 0
}

// M68KWrite services a 68000 word write of $a15100-$a1512f.
func (r *SystemRegisters) M68KWrite(address uint32, value uint16) {
	switch address & 0x3f {
	case 0x00:
		r.AdapterEnabled = value&0x0001 != 0
		r.ResetSH2 = value&0x0002 != 0
	case 0x02:
		// the CMD interrupt to both SH-2s
		if value&0x0001 != 0 {
			r.masterIRQ.cmdPending = true
		}
		if value&0x0002 != 0 {
			r.slaveIRQ.cmdPending = true
		}
	case 0x04:
		r.HCount = value & 0xff
	case 0x06:
		if value&0x8000 != 0 {
			r.VDPAccess = AccessSH2
		} else {
			r.VDPAccess = AccessM68K
		}
	default:
		if idx, ok := commIndex(address); ok {
			r.Comm[idx] = value
		}
	}
}

// SH2Read services an SH-2 word read of the system register window.
func (r *SystemRegisters) SH2Read(address uint32, which WhichCPU) uint16 {
	irq := r.irqFor(which)

	switch address & 0x3f {
	case 0x00:
		v := uint16(irq.mask)
		if r.AdapterEnabled {
			v |= 0x0200
		}
		return v
	case 0x04:
		return r.HCount
	default:
		if idx, ok := commIndex(address); ok {
			return r.Comm[idx]
		}
	}
	return 0
}

// SH2Write services an SH-2 word write of the system register window.
func (r *SystemRegisters) SH2Write(address uint32, value uint16, which WhichCPU) {
	irq := r.irqFor(which)

	switch address & 0x3f {
	case 0x00:
		irq.mask = uint8(value & 0x1f)
	case 0x14:
		irq.vresPending = false
	case 0x16:
		irq.vPending = false
	case 0x18:
		irq.hPending = false
	case 0x1a:
		irq.cmdPending = false
	case 0x1c:
		irq.pwmPending = false
	default:
		if idx, ok := commIndex(address); ok {
			r.Comm[idx] = value
		}
	}
}

// the communication ports sit at offsets $20-$2f
func commIndex(address uint32) (int, bool) {
	offset := address & 0x3f
	if offset >= 0x20 && offset < 0x30 {
		return int(offset-0x20) / 2, true
	}
	return 0, false
}

func (r *SystemRegisters) irqFor(which WhichCPU) *perCPUInterrupts {
	if which == Master {
		return &r.masterIRQ
	}
	return &r.slaveIRQ
}

// RaiseVInterrupt asserts the vertical interrupt to both SH-2s.
func (r *SystemRegisters) RaiseVInterrupt() {
	r.masterIRQ.vPending = true
	r.slaveIRQ.vPending = true
}

// RaiseHInterrupt asserts the horizontal interrupt to both SH-2s.
func (r *SystemRegisters) RaiseHInterrupt() {
	r.masterIRQ.hPending = true
	r.slaveIRQ.hPending = true
}

// RaisePWMInterrupt asserts the PWM timer interrupt to both SH-2s.
func (r *SystemRegisters) RaisePWMInterrupt() {
	r.masterIRQ.pwmPending = true
	r.slaveIRQ.pwmPending = true
}

// Snapshot encodes the register block.
func (r *SystemRegisters) Snapshot(enc *savestate.Encoder) {
	enc.PutBool(r.AdapterEnabled)
	enc.PutBool(r.ResetSH2)
	enc.PutUint8(uint8(r.VDPAccess))
	for _, c := range r.Comm {
		enc.PutUint16(c)
	}
	r.masterIRQ.snapshot(enc)
	r.slaveIRQ.snapshot(enc)
	enc.PutUint16(r.HCount)
}

// Restore decodes the register block.
func (r *SystemRegisters) Restore(dec *savestate.Decoder) {
	r.AdapterEnabled = dec.Bool()
	r.ResetSH2 = dec.Bool()
	r.VDPAccess = Access(dec.Uint8())
	for i := range r.Comm {
		r.Comm[i] = dec.Uint16()
	}
	r.masterIRQ.restore(dec)
	r.slaveIRQ.restore(dec)
	r.HCount = dec.Uint16()
}
