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

// Package clocks defines the master clock frequency of every emulated
// console and the dividers that derive each secondary clock from it. All
// secondary clocks are expressed as exact integer ratios of the master
// clock; see the Ratio and Divider types.
package clocks

// Game Boy. The master clock is the SM83 "T-cycle" clock; the CPU retires
// machine cycles at a quarter of this rate and the PPU consumes one dot per
// master cycle.
const (
	GameBoyMaster = 4_194_304
	GameBoyAPUDiv = 2 // APU is clocked at 2 MiHz
)

// Sega Master System / Game Gear / Genesis share a master crystal. The Z80
// runs at master/15, the SMS VDP at master/10, the PSG at master/240.
const (
	SegaMasterNTSC = 53_693_175
	SegaMasterPAL  = 53_203_424

	SegaZ80Div  = 15
	SegaVDPDiv  = 10
	SegaPSGDiv  = 240
	SegaM68KDiv = 7

	// the YM2612 produces one sample per 24 of its internal cycles, and its
	// internal clock is master/7/6
	YM2612Div = 7 * 6 * 24
)

// NES. The CPU runs at master/12 (NTSC) or master/16 (PAL); the PPU at
// master/4 (NTSC) or master/5 (PAL).
const (
	NESMasterNTSC = 21_477_272
	NESMasterPAL  = 26_601_712

	NESCPUDivNTSC = 12
	NESCPUDivPAL  = 16
	NESPPUDivNTSC = 4
	NESPPUDivPAL  = 5
)

// SNES. The µPD77C25 coprocessor executes one instruction per two master
// cycles when present.
const (
	SNESMasterNTSC = 21_477_272
	SNESMasterPAL  = 21_281_370

	UPD77C25Div = 2
)

// Sega CD and 32X.
const (
	SegaCDMaster = 50_000_000
	PCMChipDiv   = 4 * 384 // ~32552 Hz sample rate
	CDDARate     = 44_100

	// each SH-2 runs at three times the Genesis master clock rate
	SH2Mul = 3
)
