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

// Package gameboy is the Game Boy system root: it owns every component and
// drives them from the Tick() loop. One Tick() is one CPU instruction; the
// PPU, timer, APU and cartridge then catch up by the number of master-clock
// cycles the instruction consumed.
package gameboy

import (
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/audio"
	"github.com/jetsetilly/gophergen/hardware/cpu/sm83"
	"github.com/jetsetilly/gophergen/hardware/gameboy/apu"
	"github.com/jetsetilly/gophergen/hardware/gameboy/cartridge"
	"github.com/jetsetilly/gophergen/hardware/gameboy/ppu"
	"github.com/jetsetilly/gophergen/savestate"
)

// save state version for the gameboy package
const snapshotVersion = 1

// the names passed to the host's SaveWriter
const (
	saveNameSRAM = "sram"
	saveNameRTC  = "rtc"
)

// Config is the Game Boy emulator configuration.
type Config struct {
	// the four shades used for the frame buffer
	Shades [4]uint32

	// host audio output rate
	OutputRate uint64

	// audio enabled at all
	AudioEnabled bool
}

// DefaultConfig is the configuration used when the host has no opinions.
func DefaultConfig() Config {
	return Config{
		Shades:       ppu.DefaultShades,
		OutputRate:   48000,
		AudioEnabled: true,
	}
}

// SaveData is the persistent state loaded at creation: the battery-backed
// cartridge RAM and, for clock-equipped cartridges, the serialised clock.
type SaveData struct {
	SRAM []uint8
	RTC  []uint8
}

// GameBoy is the Game Boy system root.
type GameBoy struct {
	cpu  *sm83.CPU
	ppu  *ppu.PPU
	apu  *apu.APU
	cart *cartridge.Cartridge

	irq   interrupts
	timer timer
	input input

	wram []uint8
	hram []uint8

	serialSB  uint8
	serialSC  uint8
	dmaSource uint8

	mixer     *audio.Mixer
	apuSource audio.SourceID

	// master cycles the CPU owes for bus stalls (the OAM DMA). drained
	// into the instruction's cycle count by Tick(), so every secondary
	// component sees the stall
	stallCycles uint64

	// cycles retired since the last hard reset, bus stalls included. the
	// scheduler invariant: this equals the sum of every inflated
	// instruction cost
	totalMasterCycles uint64

	config Config
	clock  hardware.ClockSource
}

// check the system contract is satisfied
var _ hardware.System = (*GameBoy)(nil)

// Create a Game Boy from a ROM image. Pure: no I/O happens here or later;
// the ROM and optional save data arrive as byte slices and persistence
// leaves through the SaveWriter.
func Create(rom []uint8, config Config, save *SaveData, clock hardware.ClockSource) (*GameBoy, error) {
	var sram []uint8
	if save != nil {
		sram = save.SRAM
	}

	cart, err := cartridge.NewCartridge(rom, sram, clock)
	if err != nil {
		return nil, err
	}

	if save != nil && save.RTC != nil {
		cart.RTCRestore(save.RTC)
	}

	gb := &GameBoy{
		cpu:    sm83.NewCPU(),
		ppu:    ppu.NewPPU(),
		apu:    apu.NewAPU(),
		cart:   cart,
		input:  newInput(),
		wram:   make([]uint8, 8*1024),
		hram:   make([]uint8, 128),
		mixer:  audio.NewMixer(config.OutputRate),
		config: config,
		clock:  clock,
	}

	gb.ppu.SetShades(config.Shades)
	gb.apuSource = gb.mixer.AddSource("apu", 64, apu.SampleRate, 0)
	gb.mixer.SetEnabled(gb.apuSource, config.AudioEnabled)

	return gb, nil
}

// Tick implements the hardware.System interface: execute one CPU
// instruction, bring every other component up to date, and deliver any
// completed frame.
func (gb *GameBoy) Tick(inputs hardware.Inputs, renderer hardware.Renderer,
	audioOut hardware.AudioOutput, saves hardware.SaveWriter) (hardware.TickEffect, error) {

	// 1. snapshot inputs
	gb.input.snapshot(inputs, &gb.irq)

	// 2. one instruction on the primary CPU. a DMA started by the
	// instruction steals the bus; the stall inflates the instruction's
	// cycle cost so the components below stay in phase
	cycles := gb.cpu.Step(busCapability{gb: gb})
	cycles += gb.takeStallCycles()
	gb.totalMasterCycles += cycles

	// 3-4. secondary components in fixed order: video, timer, audio,
	// cartridge. interrupt flags they raise are seen by the CPU at the next
	// instruction
	for i := uint64(0); i < cycles; i++ {
		gb.ppu.Tick(&gb.irq)
	}

	gb.timer.tick(cycles, &gb.irq)

	// every SM83 instruction is a whole number of machine cycles, so the
	// quarter-rate conversions below carry no remainder
	for i := uint64(0); i < cycles/4; i++ {
		l, r := gb.apu.Step()
		gb.mixer.Collect(gb.apuSource, l, r)
	}

	gb.cart.Tick(cycles / 4)

	if err := gb.mixer.Drain(audioOut); err != nil {
		return hardware.None, err
	}

	// 5. frame delivery
	if gb.ppu.FrameComplete() {
		gb.ppu.ClearFrameComplete()

		gb.cart.UpdateRTC()

		err := renderer.RenderFrame(gb.ppu.FrameBuffer(),
			hardware.FrameSize{Width: ppu.ScreenWidth, Height: ppu.ScreenHeight}, 1.0)
		if err != nil {
			return hardware.None, curated.Errorf(hardware.Render, err)
		}

		// save data is flushed at frame boundaries only
		if gb.cart.Dirty() {
			if blob, ok := gb.cart.PersistentSave(); ok {
				if err := saves.PersistBytes(saveNameSRAM, blob); err != nil {
					return hardware.None, curated.Errorf(hardware.SaveWrite, err)
				}
			}
			if blob, ok := gb.cart.RTCSave(); ok {
				if err := saves.PersistBytes(saveNameRTC, blob); err != nil {
					return hardware.None, curated.Errorf(hardware.SaveWrite, err)
				}
			}
		}

		return hardware.FrameRendered, nil
	}

	return hardware.None, nil
}

// takeStallCycles returns and clears the accumulated bus-stall debt.
func (gb *GameBoy) takeStallCycles() uint64 {
	s := gb.stallCycles
	gb.stallCycles = 0
	return s
}

// ReloadConfig implements the hardware.System interface.
func (gb *GameBoy) ReloadConfig(config any) {
	c, ok := config.(Config)
	if !ok {
		return
	}

	gb.config = c
	gb.ppu.SetShades(c.Shades)
	gb.mixer.SetOutputRate(c.OutputRate)
	gb.mixer.SetEnabled(gb.apuSource, c.AudioEnabled)
}

// SoftReset implements the hardware.System interface. Mapper state and CPU
// registers return to power-on values; memory contents survive.
func (gb *GameBoy) SoftReset() {
	gb.cpu.Reset()
	gb.cart.Reset()
}

// HardReset implements the hardware.System interface.
func (gb *GameBoy) HardReset(saveBlob []uint8) {
	gb.cpu.Reset()
	gb.ppu = ppu.NewPPU()
	gb.ppu.SetShades(gb.config.Shades)
	gb.apu = apu.NewAPU()
	gb.irq = interrupts{}
	gb.timer = timer{}
	gb.input = newInput()
	gb.wram = make([]uint8, len(gb.wram))
	gb.hram = make([]uint8, len(gb.hram))
	gb.serialSB = 0
	gb.serialSC = 0
	gb.dmaSource = 0
	gb.stallCycles = 0
	gb.totalMasterCycles = 0

	cart, err := cartridge.NewCartridge(gb.cart.ROM, saveBlob, gb.clock)
	if err == nil {
		gb.cart = cart
	}
}

// SaveState implements the hardware.System interface.
func (gb *GameBoy) SaveState() []byte {
	enc := savestate.NewEncoder(snapshotVersion)
	gb.snapshot(enc)
	return enc.Bytes()
}

// LoadState implements the hardware.System interface. On failure the
// previous state is preserved.
func (gb *GameBoy) LoadState(state []byte) error {
	backup := gb.SaveState()

	dec, err := savestate.NewDecoder(state, snapshotVersion)
	if err != nil {
		return err
	}

	gb.restore(dec)
	if err := dec.Err(); err != nil {
		// roll back the partial restore
		if bdec, berr := savestate.NewDecoder(backup, snapshotVersion); berr == nil {
			gb.restore(bdec)
		}
		return err
	}

	return nil
}

func (gb *GameBoy) snapshot(enc *savestate.Encoder) {
	gb.cpu.Snapshot(enc)
	gb.ppu.Snapshot(enc)
	gb.apu.Snapshot(enc)
	gb.cart.Snapshot(enc)
	gb.irq.snapshot(enc)
	gb.timer.snapshot(enc)
	gb.input.snapshotState(enc)
	enc.PutBytes(gb.wram)
	enc.PutBytes(gb.hram)
	enc.PutUint8(gb.serialSB)
	enc.PutUint8(gb.serialSC)
	enc.PutUint8(gb.dmaSource)
	enc.PutUint64(gb.stallCycles)
	enc.PutUint64(gb.totalMasterCycles)
}

func (gb *GameBoy) restore(dec *savestate.Decoder) {
	gb.cpu.Restore(dec)
	gb.ppu.Restore(dec)
	gb.apu.Restore(dec)
	gb.cart.Restore(dec)
	gb.irq.restore(dec)
	gb.timer.restore(dec)
	gb.input.restoreState(dec)
	dec.BytesInto(gb.wram)
	dec.BytesInto(gb.hram)
	gb.serialSB = dec.Uint8()
	gb.serialSC = dec.Uint8()
	gb.dmaSource = dec.Uint8()
	gb.stallCycles = dec.Uint64()
	gb.totalMasterCycles = dec.Uint64()
}

// TimingMode implements the hardware.System interface. The Game Boy has a
// single video timing.
func (gb *GameBoy) TimingMode() hardware.TimingMode {
	return hardware.NTSC
}

// TotalMasterCycles returns the master cycles elapsed since the last hard
// reset. Equal to the sum of the cycle costs of every retired instruction,
// bus stalls included.
func (gb *GameBoy) TotalMasterCycles() uint64 {
	return gb.totalMasterCycles
}
