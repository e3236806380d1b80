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

package ppu

import (
	"github.com/jetsetilly/gophergen/savestate"
)

// registers is the memory-mapped register file of the PPU. the LCDC and
// STAT registers are stored unpacked.
type registers struct {
	// LCDC ($ff40)
	enabled          bool
	windowTileMapHi  bool
	windowEnabled    bool
	bgTileDataLo     bool
	bgTileMapHi      bool
	doubleHeightOBJ  bool
	objEnabled       bool
	bgEnabled        bool

	// STAT ($ff41) interrupt enables. the mode and compare bits are live
	// state, not stored
	lycInterrupt   bool
	mode2Interrupt bool
	mode1Interrupt bool
	mode0Interrupt bool

	scrollY uint8
	scrollX uint8
	lyc     uint8
	bgp     uint8
	obp0    uint8
	obp1    uint8
	windowY uint8
	windowX uint8
}

func newRegisters() registers {
	// LCDC powers on as $91
	return registers{
		enabled:      true,
		bgTileDataLo: true,
		bgEnabled:    true,
		bgp:          0xfc,
	}
}

func (r *registers) readLCDC() uint8 {
	var v uint8
	if r.enabled {
		v |= 0x80
	}
	if r.windowTileMapHi {
		v |= 0x40
	}
	if r.windowEnabled {
		v |= 0x20
	}
	if r.bgTileDataLo {
		v |= 0x10
	}
	if r.bgTileMapHi {
		v |= 0x08
	}
	if r.doubleHeightOBJ {
		v |= 0x04
	}
	if r.objEnabled {
		v |= 0x02
	}
	if r.bgEnabled {
		v |= 0x01
	}
	return v
}

func (r *registers) writeLCDC(v uint8) {
	r.enabled = v&0x80 != 0
	r.windowTileMapHi = v&0x40 != 0
	r.windowEnabled = v&0x20 != 0
	r.bgTileDataLo = v&0x10 != 0
	r.bgTileMapHi = v&0x08 != 0
	r.doubleHeightOBJ = v&0x04 != 0
	r.objEnabled = v&0x02 != 0
	r.bgEnabled = v&0x01 != 0
}

// readSTAT builds the live STAT value from the stored interrupt enables and
// the current scanline/mode state. bit 7 always reads set.
func (r *registers) readSTAT(scanline uint8, mode mode) uint8 {
	v := uint8(0x80) | mode.bits()
	if scanline == r.lyc {
		v |= 0x04
	}
	if r.lycInterrupt {
		v |= 0x40
	}
	if r.mode2Interrupt {
		v |= 0x20
	}
	if r.mode1Interrupt {
		v |= 0x10
	}
	if r.mode0Interrupt {
		v |= 0x08
	}
	return v
}

// writeSTAT updates the interrupt enables. the mode and compare bits are
// read-only and masked off.
func (r *registers) writeSTAT(v uint8) {
	r.lycInterrupt = v&0x40 != 0
	r.mode2Interrupt = v&0x20 != 0
	r.mode1Interrupt = v&0x10 != 0
	r.mode0Interrupt = v&0x08 != 0
}

func (r *registers) snapshot(enc *savestate.Encoder) {
	enc.PutUint8(r.readLCDC())
	enc.PutUint8(r.readSTAT(0, modeHBlank) & 0x78)
	enc.PutUint8(r.scrollY)
	enc.PutUint8(r.scrollX)
	enc.PutUint8(r.lyc)
	enc.PutUint8(r.bgp)
	enc.PutUint8(r.obp0)
	enc.PutUint8(r.obp1)
	enc.PutUint8(r.windowY)
	enc.PutUint8(r.windowX)
}

func (r *registers) restore(dec *savestate.Decoder) {
	r.writeLCDC(dec.Uint8())
	r.writeSTAT(dec.Uint8())
	r.scrollY = dec.Uint8()
	r.scrollX = dec.Uint8()
	r.lyc = dec.Uint8()
	r.bgp = dec.Uint8()
	r.obp0 = dec.Uint8()
	r.obp1 = dec.Uint8()
	r.windowY = dec.Uint8()
	r.windowX = dec.Uint8()
}
