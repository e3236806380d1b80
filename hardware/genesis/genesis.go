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

// Package genesis is the Sega Genesis / Mega Drive system root: a 68000
// primary CPU and a Z80 secondary sharing the bus through a busreq/busack
// handshake, the VDP with its DMA unit, the YM2612 and PSG sound chips and
// the cartridge's external save memory.
//
// Both CPUs are consumed through interfaces; any 68000 and Z80 cores
// honouring the bus contract slot in.
package genesis

import (
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/audio"
	"github.com/jetsetilly/gophergen/hardware/bus"
	"github.com/jetsetilly/gophergen/hardware/clocks"
	"github.com/jetsetilly/gophergen/hardware/smsgg"
	"github.com/jetsetilly/gophergen/savestate"
)

const snapshotVersion = 1

const saveNameExternal = "external"

// M68K is the contract for the injected 68000 core: one instruction per
// Step, returning 68000 cycles consumed.
type M68K interface {
	Step(mem bus.Interface) uint64
	Reset()
}

// Z80 is the contract for the injected Z80 co-CPU core.
type Z80 interface {
	Step(mem bus.Interface) uint64
	Reset()
}

// cpuSnapshotter is implemented by injected cores that participate in
// save states.
type cpuSnapshotter interface {
	Snapshot(enc *savestate.Encoder)
	Restore(dec *savestate.Decoder)
}

// Config is the Genesis emulator configuration.
type Config struct {
	Timing     hardware.TimingMode
	OutputRate uint64

	// the Model 1 VA2 low-pass on the FM/PSG mix
	LowPassFilter bool
}

// DefaultConfig returns an NTSC configuration with the Model 1 filter on.
func DefaultConfig() Config {
	return Config{
		Timing:        hardware.NTSC,
		OutputRate:    48000,
		LowPassFilter: true,
	}
}

// TimingFromHeader inspects the ROM's region field to choose a timing
// mode: a region string with only European markets selects PAL.
func TimingFromHeader(rom []uint8) hardware.TimingMode {
	if len(rom) < 0x1f3 {
		return hardware.NTSC
	}

	region := rom[0x1f0:0x1f3]
	pal := false
	for _, b := range region {
		switch b {
		case 'J', 'U', '4', '1', 'A', '0':
			// a market on 60Hz hardware appears: NTSC wins
			return hardware.NTSC
		case 'E', '8', 'F':
			pal = true
		}
	}
	if pal {
		return hardware.PAL
	}
	return hardware.NTSC
}

// Genesis is the system root.
type Genesis struct {
	m68k M68K
	z80  Z80

	vdp    *VDP
	ym2612 *YM2612
	psg    *smsgg.PSG

	rom      []uint8
	workRAM  []uint8
	z80RAM   []uint8
	external externalMemory

	io io

	// bus arbitration: the 68000 requests the Z80 bus by raising busreq;
	// the Z80 finishes its current instruction and stalls until release
	z80BusReq     bool
	z80Reset      bool
	z80BankRegister uint32

	z80Divider    clocks.Divider
	psgDivider    clocks.Divider
	ymDivider     clocks.Divider

	mixer     *audio.Mixer
	fmSource  audio.SourceID
	psgSource audio.SourceID

	totalM68KCycles uint64

	config Config
}

var _ hardware.System = (*Genesis)(nil)

// Create a Genesis from a ROM image and injected CPU cores.
func Create(rom []uint8, config Config, m68k M68K, z80 Z80, initialSave []uint8) (*Genesis, error) {
	if len(rom) < 0x200 {
		return nil, curated.Errorf("genesis: rom too small: %d bytes", len(rom))
	}

	sys := &Genesis{
		m68k:     m68k,
		z80:      z80,
		vdp:      NewVDP(config.Timing == hardware.PAL),
		ym2612:   NewYM2612(),
		psg:      smsgg.NewPSG(smsgg.PSGDiscrete),
		rom:      rom,
		workRAM:  make([]uint8, 64*1024),
		z80RAM:   make([]uint8, 8*1024),
		external: newExternalMemory(rom, initialSave),

		// the Z80 runs at master/15 against the 68000's master/7; the PSG
		// produces a sample per master/240 and the YM2612 per master/1008
		z80Divider: clocks.NewDivider(clocks.Ratio{Num: 7, Den: 15}),
		psgDivider: clocks.NewDivider(clocks.Ratio{Num: 7, Den: 240}),
		ymDivider:  clocks.NewDivider(clocks.Ratio{Num: 7, Den: 1008}),

		z80Reset: true,
		mixer:    audio.NewMixer(config.OutputRate),
		config:   config,
	}

	master := float64(clocks.SegaMasterNTSC)
	if config.Timing == hardware.PAL {
		master = float64(clocks.SegaMasterPAL)
	}

	sys.fmSource = sys.mixer.AddSource("ym2612", 128, master/float64(clocks.YM2612Div), 0)
	sys.psgSource = sys.mixer.AddSource("psg", 64, master/float64(clocks.SegaPSGDiv), -6)

	if config.LowPassFilter {
		rate := master / float64(clocks.YM2612Div)
		sys.mixer.SetFirstOrderFilter(sys.fmSource, func() *audio.FirstOrderIIR {
			return audio.NewGenesisModel1LowPass(rate)
		})
	}

	m68k.Reset()
	z80.Reset()

	return sys, nil
}

// Tick implements the hardware.System interface.
func (sys *Genesis) Tick(inputs hardware.Inputs, renderer hardware.Renderer,
	audioOut hardware.AudioOutput, saves hardware.SaveWriter) (hardware.TickEffect, error) {

	sys.io.snapshot(inputs)

	// one 68000 instruction; DMA bus theft inflates the cycle count
	cycles := sys.m68k.Step(m68kBus{sys: sys})
	cycles += sys.vdp.TakeStallCycles()
	sys.totalM68KCycles += cycles

	master := cycles * clocks.SegaM68KDiv

	// the Z80 runs unless held in reset or stalled by busreq
	z80Cycles := sys.z80Divider.Steps(cycles)
	if !sys.z80Reset && !sys.z80BusReq {
		var done uint64
		for done < z80Cycles {
			done += sys.z80.Step(z80Bus{sys: sys})
		}
	}

	for i := sys.psgDivider.Steps(cycles); i > 0; i-- {
		sys.psg.Clock()
		l, r := sys.psg.Sample()
		sys.mixer.Collect(sys.psgSource, l, r)
	}

	for i := sys.ymDivider.Steps(cycles); i > 0; i-- {
		l, r := sys.ym2612.Clock()
		sys.mixer.Collect(sys.fmSource, l, r)
	}

	sys.vdp.Tick(master)

	if err := sys.mixer.Drain(audioOut); err != nil {
		return hardware.None, err
	}

	if sys.vdp.FrameComplete() {
		sys.vdp.ClearFrameComplete()

		if err := renderer.RenderFrame(sys.vdp.FrameBuffer(),
			hardware.FrameSize{Width: ScreenWidth, Height: ScreenHeight}, 32.0/35.0); err != nil {
			return hardware.None, curated.Errorf(hardware.Render, err)
		}

		if sys.external.dirty() {
			if blob, ok := sys.external.persistentBlob(); ok {
				if err := saves.PersistBytes(saveNameExternal, blob); err != nil {
					return hardware.None, curated.Errorf(hardware.SaveWrite, err)
				}
			}
		}

		return hardware.FrameRendered, nil
	}

	return hardware.None, nil
}

// ReloadConfig implements the hardware.System interface.
func (sys *Genesis) ReloadConfig(config any) {
	c, ok := config.(Config)
	if !ok {
		return
	}
	sys.config.OutputRate = c.OutputRate
	sys.mixer.SetOutputRate(c.OutputRate)

	if c.LowPassFilter != sys.config.LowPassFilter {
		sys.config.LowPassFilter = c.LowPassFilter
		if c.LowPassFilter {
			master := float64(clocks.SegaMasterNTSC)
			if sys.config.Timing == hardware.PAL {
				master = float64(clocks.SegaMasterPAL)
			}
			rate := master / float64(clocks.YM2612Div)
			sys.mixer.SetFirstOrderFilter(sys.fmSource, func() *audio.FirstOrderIIR {
				return audio.NewGenesisModel1LowPass(rate)
			})
		} else {
			sys.mixer.SetFirstOrderFilter(sys.fmSource, nil)
		}
	}
}

// SoftReset implements the hardware.System interface.
func (sys *Genesis) SoftReset() {
	sys.m68k.Reset()
	sys.z80.Reset()
	sys.z80Reset = true
	sys.z80BusReq = false
	sys.z80BankRegister = 0
}

// HardReset implements the hardware.System interface.
func (sys *Genesis) HardReset(saveBlob []uint8) {
	sys.SoftReset()
	sys.vdp = NewVDP(sys.config.Timing == hardware.PAL)
	sys.ym2612 = NewYM2612()
	sys.psg = smsgg.NewPSG(smsgg.PSGDiscrete)
	sys.workRAM = make([]uint8, len(sys.workRAM))
	sys.z80RAM = make([]uint8, len(sys.z80RAM))
	sys.external = newExternalMemory(sys.rom, saveBlob)
	sys.z80Divider.Reset()
	sys.psgDivider.Reset()
	sys.ymDivider.Reset()
	sys.totalM68KCycles = 0
}

// SaveState implements the hardware.System interface.
func (sys *Genesis) SaveState() []byte {
	enc := savestate.NewEncoder(snapshotVersion)
	sys.snapshot(enc)
	return enc.Bytes()
}

// LoadState implements the hardware.System interface.
func (sys *Genesis) LoadState(state []byte) error {
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

func (sys *Genesis) snapshot(enc *savestate.Encoder) {
	if s, ok := sys.m68k.(cpuSnapshotter); ok {
		s.Snapshot(enc)
	}
	if s, ok := sys.z80.(cpuSnapshotter); ok {
		s.Snapshot(enc)
	}
	sys.vdp.Snapshot(enc)
	sys.ym2612.Snapshot(enc)
	sys.psg.Snapshot(enc)
	enc.PutBytes(sys.workRAM)
	enc.PutBytes(sys.z80RAM)
	sys.external.snapshot(enc)
	sys.io.snapshotState(enc)
	enc.PutBool(sys.z80BusReq)
	enc.PutBool(sys.z80Reset)
	enc.PutUint32(sys.z80BankRegister)
	enc.PutUint64(sys.z80Divider.Remainder)
	enc.PutUint64(sys.psgDivider.Remainder)
	enc.PutUint64(sys.ymDivider.Remainder)
	enc.PutUint64(sys.totalM68KCycles)
}

func (sys *Genesis) restore(dec *savestate.Decoder) {
	if s, ok := sys.m68k.(cpuSnapshotter); ok {
		s.Restore(dec)
	}
	if s, ok := sys.z80.(cpuSnapshotter); ok {
		s.Restore(dec)
	}
	sys.vdp.Restore(dec)
	sys.ym2612.Restore(dec)
	sys.psg.Restore(dec)
	dec.BytesInto(sys.workRAM)
	dec.BytesInto(sys.z80RAM)
	sys.external.restore(dec)
	sys.io.restoreState(dec)
	sys.z80BusReq = dec.Bool()
	sys.z80Reset = dec.Bool()
	sys.z80BankRegister = dec.Uint32()
	sys.z80Divider.Remainder = dec.Uint64()
	sys.psgDivider.Remainder = dec.Uint64()
	sys.ymDivider.Remainder = dec.Uint64()
	sys.totalM68KCycles = dec.Uint64()
}

// TimingMode implements the hardware.System interface.
func (sys *Genesis) TimingMode() hardware.TimingMode {
	return sys.config.Timing
}

// TotalCycles returns the 68000 cycles retired since the last hard reset,
// bus stalls included.
func (sys *Genesis) TotalCycles() uint64 {
	return sys.totalM68KCycles
}
