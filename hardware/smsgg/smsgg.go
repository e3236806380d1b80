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

// Package smsgg is the Sega Master System / Game Gear system root.
//
// The Z80 is consumed through the CPU interface rather than implemented
// here: the package supplies the memory system, VDP, PSG and scheduling,
// and any Z80 core honouring the bus contract slots in. The Z80's separate
// port space is folded into the bus address space at PortSpace upward.
package smsgg

import (
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/audio"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/hardware/clocks"
	"github.com/jetsetilly/gophergen/savestate"
)

const snapshotVersion = 1

const saveNameSRAM = "sram"

// PortSpace is the bus-address offset of the Z80 I/O port space: port N is
// reached at address PortSpace+N.
const PortSpace = 0x1_0000

// CPU is the contract the injected Z80 core must honour: execute one
// instruction against the bus capability and return the Z80 cycles
// consumed. The interrupt line is presented through the bus; a level of 0
// means the maskable interrupt is asserted.
type CPU interface {
	Step(mem bus.Interface) uint64
	Reset()
}

// NMI is implemented by CPU cores that model the non-maskable interrupt,
// which the console wires to the pause button.
type NMI interface {
	NMI()
}

// CPUSnapshotter is implemented by CPU cores that participate in save
// states.
type CPUSnapshotter interface {
	Snapshot(enc *savestate.Encoder)
	Restore(dec *savestate.Decoder)
}

// Console selects the console flavour.
type Console int

// List of Console values.
const (
	SMS Console = iota
	GameGear
)

// Config is the SMS/Game Gear emulator configuration.
type Config struct {
	Console    Console
	Timing     hardware.TimingMode
	PSGVersion PSGVersion
	OutputRate uint64
}

// DefaultConfig returns an NTSC SMS configuration.
func DefaultConfig() Config {
	return Config{
		Console:    SMS,
		Timing:     hardware.NTSC,
		PSGVersion: PSGSMS2,
		OutputRate: 48000,
	}
}

// SMSGG is the system root.
type SMSGG struct {
	cpu CPU
	vdp *VDP
	psg *PSG
	mem *memory

	input input

	vdpDivider clocks.Divider
	psgDivider clocks.Divider

	mixer     *audio.Mixer
	psgSource audio.SourceID

	totalZ80Cycles uint64

	config Config
}

var _ hardware.System = (*SMSGG)(nil)

// Create an SMS or Game Gear from a ROM image and an injected Z80 core.
func Create(rom []uint8, config Config, cpu CPU, initialSave []uint8) (*SMSGG, error) {
	if len(rom) < 0x400 {
		return nil, curated.Errorf("smsgg: rom too small: %d bytes", len(rom))
	}

	sys := &SMSGG{
		cpu: cpu,
		vdp: NewVDP(config.Console == GameGear, config.Timing == hardware.PAL),
		psg: NewPSG(config.PSGVersion),
		mem: newMemory(rom, initialSave),

		// the VDP produces three dots for every two Z80 cycles; the PSG one
		// sample per sixteen Z80 cycles
		vdpDivider: clocks.NewDivider(clocks.Ratio{Num: 3, Den: 2}),
		psgDivider: clocks.NewDivider(clocks.Integer(16)),

		mixer:  audio.NewMixer(config.OutputRate),
		config: config,
	}

	master := float64(clocks.SegaMasterNTSC)
	if config.Timing == hardware.PAL {
		master = float64(clocks.SegaMasterPAL)
	}
	sys.psgSource = sys.mixer.AddSource("psg", 64, master/float64(clocks.SegaPSGDiv), 0)

	cpu.Reset()

	return sys, nil
}

// Tick implements the hardware.System interface.
func (sys *SMSGG) Tick(inputs hardware.Inputs, renderer hardware.Renderer,
	audioOut hardware.AudioOutput, saves hardware.SaveWriter) (hardware.TickEffect, error) {

	if sys.input.snapshot(inputs) {
		// the pause button is edge-triggered and wired to the Z80 NMI
		if nmi, ok := sys.cpu.(NMI); ok {
			nmi.NMI()
		}
	}

	cycles := sys.cpu.Step(busCapability{sys: sys})
	sys.totalZ80Cycles += cycles

	for i := sys.vdpDivider.Steps(cycles); i > 0; i-- {
		sys.vdp.Tick()
	}

	for i := sys.psgDivider.Steps(cycles); i > 0; i-- {
		sys.psg.Clock()
		l, r := sys.psg.Sample()
		sys.mixer.Collect(sys.psgSource, l, r)
	}

	if err := sys.mixer.Drain(audioOut); err != nil {
		return hardware.None, err
	}

	if sys.vdp.FrameComplete() {
		sys.vdp.ClearFrameComplete()

		w, h := sys.vdp.FrameSize()
		par := 8.0 / 7.0
		if sys.config.Console == GameGear {
			par = 6.0 / 5.0
		}

		if err := renderer.RenderFrame(sys.vdp.FrameBuffer(),
			hardware.FrameSize{Width: w, Height: h}, par); err != nil {
			return hardware.None, curated.Errorf(hardware.Render, err)
		}

		if sys.mem.sramDirty {
			sys.mem.sramDirty = false
			blob := make([]uint8, sramLen)
			copy(blob, sys.mem.sram)
			if err := saves.PersistBytes(saveNameSRAM, blob); err != nil {
				return hardware.None, curated.Errorf(hardware.SaveWrite, err)
			}
		}

		return hardware.FrameRendered, nil
	}

	return hardware.None, nil
}

// ReloadConfig implements the hardware.System interface. Console flavour
// and timing cannot change after creation; audio settings can.
func (sys *SMSGG) ReloadConfig(config any) {
	c, ok := config.(Config)
	if !ok {
		return
	}
	sys.config.OutputRate = c.OutputRate
	sys.config.PSGVersion = c.PSGVersion
	sys.psg.version = c.PSGVersion
	sys.mixer.SetOutputRate(c.OutputRate)
}

// SoftReset implements the hardware.System interface.
func (sys *SMSGG) SoftReset() {
	sys.cpu.Reset()
	sys.mem.reset()
}

// HardReset implements the hardware.System interface.
func (sys *SMSGG) HardReset(saveBlob []uint8) {
	sys.cpu.Reset()
	sys.vdp = NewVDP(sys.config.Console == GameGear, sys.config.Timing == hardware.PAL)
	sys.psg = NewPSG(sys.config.PSGVersion)
	sys.mem = newMemory(sys.mem.rom, saveBlob)
	sys.input = input{}
	sys.vdpDivider.Reset()
	sys.psgDivider.Reset()
	sys.totalZ80Cycles = 0
}

// SaveState implements the hardware.System interface.
func (sys *SMSGG) SaveState() []byte {
	enc := savestate.NewEncoder(snapshotVersion)
	sys.snapshot(enc)
	return enc.Bytes()
}

// LoadState implements the hardware.System interface.
func (sys *SMSGG) LoadState(state []byte) error {
	backup := sys.SaveState()

	dec, err := savestate.NewDecoder(state, snapshotVersion)
	if err != nil {
		return err
	}

	sys.restore(dec)
	if err := dec.Err(); err != nil {
		if bdec, berr := savestate.NewDecoder(backup, snapshotVersion); berr == nil {
			sys.restore(bdec)
		}
		return err
	}
	return nil
}

func (sys *SMSGG) snapshot(enc *savestate.Encoder) {
	if s, ok := sys.cpu.(CPUSnapshotter); ok {
		s.Snapshot(enc)
	}
	sys.vdp.Snapshot(enc)
	sys.psg.Snapshot(enc)
	sys.mem.snapshot(enc)
	sys.input.snapshotState(enc)
	enc.PutUint64(sys.vdpDivider.Remainder)
	enc.PutUint64(sys.psgDivider.Remainder)
	enc.PutUint64(sys.totalZ80Cycles)
}

func (sys *SMSGG) restore(dec *savestate.Decoder) {
	if s, ok := sys.cpu.(CPUSnapshotter); ok {
		s.Restore(dec)
	}
	sys.vdp.Restore(dec)
	sys.psg.Restore(dec)
	sys.mem.restore(dec)
	sys.input.restoreState(dec)
	sys.vdpDivider.Remainder = dec.Uint64()
	sys.psgDivider.Remainder = dec.Uint64()
	sys.totalZ80Cycles = dec.Uint64()
}

// TimingMode implements the hardware.System interface.
func (sys *SMSGG) TimingMode() hardware.TimingMode {
	return sys.config.Timing
}

// TotalCycles returns the Z80 cycles retired since the last hard reset.
func (sys *SMSGG) TotalCycles() uint64 {
	return sys.totalZ80Cycles
}

// busCapability is the transient bus handed to the Z80 per instruction.
type busCapability struct {
	sys *SMSGG
}

// Read8 implements the bus.Interface interface.
func (b busCapability) Read8(address uint32) uint8 {
	if address >= PortSpace {
		return b.sys.readPort(uint8(address))
	}
	return b.sys.mem.read(uint16(address))
}

// Write8 implements the bus.Interface interface.
func (b busCapability) Write8(address uint32, data uint8) {
	if address >= PortSpace {
		b.sys.writePort(uint8(address), data)
		return
	}
	b.sys.mem.write(uint16(address), data)
}

// Read16 implements the bus.Interface interface.
func (b busCapability) Read16(address uint32) uint16 {
	return uint16(b.Read8(address)) | uint16(b.Read8(address+1))<<8
}

// Write16 implements the bus.Interface interface.
func (b busCapability) Write16(address uint32, data uint16) {
	b.Write8(address, uint8(data))
	b.Write8(address+1, uint8(data>>8))
}

// Idle implements the bus.Interface interface.
func (b busCapability) Idle(cycles uint64) {
}

// InterruptLevel implements the bus.Interface interface. Level 0 is the
// Z80 maskable interrupt, asserted while the VDP requests service.
func (b busCapability) InterruptLevel() int {
	if b.sys.vdp.InterruptRequested() {
		return 0
	}
	return -1
}

func (sys *SMSGG) readPort(port uint8) uint8 {
	switch {
	case port < 0x40:
		// Game Gear extension ports; on the SMS this range reads open bus
		if sys.config.Console == GameGear && port == 0x00 {
			return sys.input.startButton()
		}
		return bus.OpenBus

	case port < 0x80:
		if port&0x01 == 0 {
			return sys.vdp.ReadVCounter()
		}
		return sys.vdp.ReadHCounter()

	case port < 0xc0:
		if port&0x01 == 0 {
			return sys.vdp.ReadData()
		}
		return sys.vdp.ReadStatus()
	}

	if port&0x01 == 0 {
		return sys.input.portDC()
	}
	return sys.input.portDD()
}

func (sys *SMSGG) writePort(port uint8, data uint8) {
	switch {
	case port < 0x40:
		if sys.config.Console == GameGear && port == 0x06 {
			sys.psg.WriteStereo(data)
		}
		// memory control and I/O control writes are accepted and ignored

	case port < 0x80:
		sys.psg.Write(data)

	case port < 0xc0:
		if port&0x01 == 0 {
			sys.vdp.WriteData(data)
		} else {
			sys.vdp.WriteControl(data)
		}
	}
	// the controller ports are not writable
}
