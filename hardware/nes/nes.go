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

// Package nes is the NES system root. The 6502 is consumed through the CPU
// interface; the package supplies the PPU, APU, cartridge boards and
// scheduling.
package nes

import (
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/audio"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/savestate"
)

const snapshotVersion = 1

const saveNameSRAM = "sram"

// the NTSC CPU clock, for the audio resampler
const cpuClockNTSC = 1_789_773.0

// CPU is the contract for the injected 6502 core.
type CPU interface {
	Step(mem bus.Interface) uint64
	Reset()
}

// NMI is implemented by CPU cores that model the non-maskable interrupt,
// which the PPU raises at the start of the vertical blank.
type NMI interface {
	NMI()
}

type cpuSnapshotter interface {
	Snapshot(enc *savestate.Encoder)
	Restore(dec *savestate.Decoder)
}

// Config is the NES emulator configuration.
type Config struct {
	OutputRate uint64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{OutputRate: 48000}
}

// NES is the system root.
type NES struct {
	cpu  CPU
	ppu  *PPU
	apu  *APU
	cart *Cartridge

	ram []uint8

	// controller shift registers
	pads        [2]hardware.Gamepad
	padShift    [2]uint8
	padStrobe   bool

	mixer     *audio.Mixer
	apuSource audio.SourceID

	// CPU cycles owed for bus stalls (the OAM DMA). drained into the
	// instruction's cycle count by Tick(), so the PPU and APU see the
	// stall
	stallCycles uint64

	totalCPUCycles uint64

	config Config
}

var _ hardware.System = (*NES)(nil)

// Create a NES from an iNES image and an injected 6502 core.
func Create(rom []uint8, config Config, cpu CPU, initialSave []uint8) (*NES, error) {
	cart, err := NewCartridge(rom, initialSave)
	if err != nil {
		return nil, err
	}

	sys := &NES{
		cpu:    cpu,
		cart:   cart,
		apu:    NewAPU(),
		ram:    make([]uint8, 2*1024),
		mixer:  audio.NewMixer(config.OutputRate),
		config: config,
	}
	sys.ppu = NewPPU(cart)
	sys.apuSource = sys.mixer.AddSource("apu", 64, cpuClockNTSC, 0)

	cpu.Reset()

	return sys, nil
}

// Tick implements the hardware.System interface.
func (sys *NES) Tick(inputs hardware.Inputs, renderer hardware.Renderer,
	audioOut hardware.AudioOutput, saves hardware.SaveWriter) (hardware.TickEffect, error) {

	sys.pads[0] = inputs.P1
	sys.pads[1] = inputs.P2

	// one instruction on the CPU. a DMA started by the instruction steals
	// the bus; the stall inflates the instruction's cycle cost so the
	// components below stay in phase
	cycles := sys.cpu.Step(busCapability{sys: sys})
	cycles += sys.takeStallCycles()
	sys.totalCPUCycles += cycles

	// three PPU dots per CPU cycle
	for i := uint64(0); i < cycles*3; i++ {
		sys.ppu.Tick()
	}

	for i := uint64(0); i < cycles; i++ {
		s := sys.apu.Step()
		sys.mixer.Collect(sys.apuSource, s, s)
	}

	if b, ok := sys.cart.board.(*bandaiFCG); ok {
		b.tick(cycles)
	}

	// interrupts raised by the step are observed by the CPU at the next
	// instruction
	if sys.ppu.TakeNMI() {
		if nmi, ok := sys.cpu.(NMI); ok {
			nmi.NMI()
		}
	}

	if err := sys.mixer.Drain(audioOut); err != nil {
		return hardware.None, err
	}

	if sys.ppu.FrameComplete() {
		sys.ppu.ClearFrameComplete()

		if err := renderer.RenderFrame(sys.ppu.FrameBuffer(),
			hardware.FrameSize{Width: ScreenWidth, Height: ScreenHeight}, 8.0/7.0); err != nil {
			return hardware.None, curated.Errorf(hardware.Render, err)
		}

		if sys.cart.Dirty() {
			if blob, ok := sys.cart.PersistentSave(); ok {
				if err := saves.PersistBytes(saveNameSRAM, blob); err != nil {
					return hardware.None, curated.Errorf(hardware.SaveWrite, err)
				}
			}
		}

		return hardware.FrameRendered, nil
	}

	return hardware.None, nil
}

// takeStallCycles returns and clears the accumulated bus-stall debt.
func (sys *NES) takeStallCycles() uint64 {
	s := sys.stallCycles
	sys.stallCycles = 0
	return s
}

// ReloadConfig implements the hardware.System interface.
func (sys *NES) ReloadConfig(config any) {
	c, ok := config.(Config)
	if !ok {
		return
	}
	sys.config = c
	sys.mixer.SetOutputRate(c.OutputRate)
}

// SoftReset implements the hardware.System interface.
func (sys *NES) SoftReset() {
	sys.cpu.Reset()
}

// HardReset implements the hardware.System interface.
func (sys *NES) HardReset(saveBlob []uint8) {
	sys.cpu.Reset()
	sys.apu = NewAPU()
	sys.ram = make([]uint8, len(sys.ram))
	sys.stallCycles = 0
	sys.totalCPUCycles = 0

	// rebuild the board from the same PRG image with the new save
	switch sys.cart.board.(type) {
	case *mmc1:
		sys.cart.board = newMMC1(sys.cart.prg, saveBlob)
	case *bandaiFCG:
		sys.cart.board = newBandaiFCG(sys.cart.prg, saveBlob)
	}
	sys.ppu = NewPPU(sys.cart)
}

// SaveState implements the hardware.System interface.
func (sys *NES) SaveState() []byte {
	enc := savestate.NewEncoder(snapshotVersion)
	sys.snapshot(enc)
	return enc.Bytes()
}

// LoadState implements the hardware.System interface.
func (sys *NES) LoadState(state []byte) error {
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

func (sys *NES) snapshot(enc *savestate.Encoder) {
	if s, ok := sys.cpu.(cpuSnapshotter); ok {
		s.Snapshot(enc)
	}
	sys.ppu.Snapshot(enc)
	sys.apu.Snapshot(enc)
	sys.cart.Snapshot(enc)
	enc.PutBytes(sys.ram)
	enc.PutUint8(sys.padShift[0])
	enc.PutUint8(sys.padShift[1])
	enc.PutBool(sys.padStrobe)
	enc.PutUint64(sys.stallCycles)
	enc.PutUint64(sys.totalCPUCycles)
}

func (sys *NES) restore(dec *savestate.Decoder) {
	if s, ok := sys.cpu.(cpuSnapshotter); ok {
		s.Restore(dec)
	}
	sys.ppu.Restore(dec)
	sys.apu.Restore(dec)
	sys.cart.Restore(dec)
	dec.BytesInto(sys.ram)
	sys.padShift[0] = dec.Uint8()
	sys.padShift[1] = dec.Uint8()
	sys.padStrobe = dec.Bool()
	sys.stallCycles = dec.Uint64()
	sys.totalCPUCycles = dec.Uint64()
}

// TimingMode implements the hardware.System interface. Only NTSC timing is
// provided.
func (sys *NES) TimingMode() hardware.TimingMode {
	return hardware.NTSC
}

// TotalCycles returns the CPU cycles retired since the last hard reset,
// bus stalls included.
func (sys *NES) TotalCycles() uint64 {
	return sys.totalCPUCycles
}

// padBits builds the shift-register image of a controller
func padBits(pad hardware.Gamepad) uint8 {
	var v uint8
	if pad.Pressed(hardware.A) {
		v |= 0x01
	}
	if pad.Pressed(hardware.B) {
		v |= 0x02
	}
	if pad.Pressed(hardware.Select) {
		v |= 0x04
	}
	if pad.Pressed(hardware.Start) {
		v |= 0x08
	}
	if pad.Pressed(hardware.Up) {
		v |= 0x10
	}
	if pad.Pressed(hardware.Down) {
		v |= 0x20
	}
	if pad.Pressed(hardware.Left) {
		v |= 0x40
	}
	if pad.Pressed(hardware.Right) {
		v |= 0x80
	}
	return v
}

// busCapability is the transient bus handed to the 6502 per instruction.
type busCapability struct {
	sys *NES
}

// Read8 implements the bus.Interface interface.
func (b busCapability) Read8(address uint32) uint8 {
	sys := b.sys
	addr := uint16(address)

	switch {
	case addr < 0x2000:
		return sys.ram[addr&0x07ff]

	case addr < 0x4000:
		return sys.ppu.ReadRegister(addr)

	case addr == 0x4015:
		return sys.apu.ReadStatus()

	case addr == 0x4016 || addr == 0x4017:
		i := addr - 0x4016
		if sys.padStrobe {
			return 0x40 | padBits(sys.pads[i])&0x01
		}
		v := sys.padShift[i] & 0x01
		sys.padShift[i] = sys.padShift[i]>>1 | 0x80
		return 0x40 | v

	case addr >= 0x4020:
		return sys.cart.ReadPRG(addr)
	}

	return bus.OpenBus
}

// Write8 implements the bus.Interface interface.
func (b busCapability) Write8(address uint32, data uint8) {
	sys := b.sys
	addr := uint16(address)

	switch {
	case addr < 0x2000:
		sys.ram[addr&0x07ff] = data

	case addr < 0x4000:
		sys.ppu.WriteRegister(addr, data)

	case addr == 0x4014:
		// OAM DMA: 256 bytes from the named page. the CPU loses the bus
		// for the transfer; the stall is charged to the triggering
		// instruction through the stall accumulator the scheduler drains
		base := uint32(data) << 8
		for i := uint32(0); i < 256; i++ {
			sys.ppu.WriteOAMDMA(b.Read8(base + i))
		}
		sys.stallCycles += 513

	case addr == 0x4016:
		sys.padStrobe = data&0x01 != 0
		if !sys.padStrobe {
			sys.padShift[0] = padBits(sys.pads[0])
			sys.padShift[1] = padBits(sys.pads[1])
		}

	case addr < 0x4018:
		sys.apu.WriteRegister(addr, data)

	case addr >= 0x4020:
		sys.cart.WritePRG(addr, data)
	}
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

// Idle implements the bus.Interface interface. The injected 6502 core
// includes its idle cycles in the value it returns from Step(); bus stalls
// go through the system root's stall accumulator instead.
func (b busCapability) Idle(cycles uint64) {
}

// InterruptLevel implements the bus.Interface interface: level 0 is the
// 6502 IRQ line, driven by the cartridge's IRQ counter.
func (b busCapability) InterruptLevel() int {
	if board, ok := b.sys.cart.board.(*bandaiFCG); ok && board.irqPending {
		return 0
	}
	return -1
}
