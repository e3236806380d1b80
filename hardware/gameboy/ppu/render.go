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

// the renderer produces one complete scanline at the moment the state
// machine leaves the rendering mode. pixel-pipeline timing effects (mid-line
// scroll changes, the SCX fine-scroll stall) are below the resolution of
// this approach.

// a sprite visible on the current line, gathered by the OAM pass
type visibleSprite struct {
	x         int
	tile      uint8
	flags     uint8
	lineInTile int
}

// hardware limit of sprites drawn per scanline
const maxSpritesPerLine = 10

func (p *PPU) renderScanline() {
	line := int(p.scanline)
	row := p.frameBuffer[line*ScreenWidth : (line+1)*ScreenWidth]

	// the 2-bit value of each pixel before palette translation; needed for
	// sprite priority against background colour zero
	var bgValue [ScreenWidth]uint8

	if p.registers.bgEnabled {
		p.renderBackground(line, row, bgValue[:])
	} else {
		for x := range row {
			row[x] = p.shades[0]
		}
	}

	if p.registers.objEnabled {
		p.renderSprites(line, row, bgValue[:])
	}
}

func (p *PPU) renderBackground(line int, row []uint32, bgValue []uint8) {
	windowActive := p.registers.windowEnabled && line >= int(p.registers.windowY)
	windowStart := int(p.registers.windowX) - 7

	for x := 0; x < ScreenWidth; x++ {
		var tileMapHi bool
		var mapX, mapY int

		if windowActive && x >= windowStart {
			tileMapHi = p.registers.windowTileMapHi
			mapX = x - windowStart
			mapY = line - int(p.registers.windowY)
		} else {
			tileMapHi = p.registers.bgTileMapHi
			mapX = (x + int(p.registers.scrollX)) & 0xff
			mapY = (line + int(p.registers.scrollY)) & 0xff
		}

		tileMapBase := uint16(0x1800)
		if tileMapHi {
			tileMapBase = 0x1c00
		}

		tileIdx := p.vram[tileMapBase+uint16(mapY/8)*32+uint16(mapX/8)]

		var tileAddr uint16
		if p.registers.bgTileDataLo {
			tileAddr = uint16(tileIdx) * 16
		} else {
			tileAddr = uint16(0x1000 + int(int8(tileIdx))*16)
		}

		value := p.tilePixel(tileAddr, mapX%8, mapY%8)
		bgValue[x] = value
		row[x] = p.shades[p.registers.bgp>>(value*2)&0x03]
	}
}

func (p *PPU) renderSprites(line int, row []uint32, bgValue []uint8) {
	height := 8
	if p.registers.doubleHeightOBJ {
		height = 16
	}

	// OAM pass: the first ten sprites overlapping the line, in OAM order
	var visible []visibleSprite
	for i := 0; i < oamLen && len(visible) < maxSpritesPerLine; i += 4 {
		y := int(p.oam[i]) - 16
		if line < y || line >= y+height {
			continue
		}

		tile := p.oam[i+2]
		if height == 16 {
			// in double-height mode the tile index's low bit is ignored
			tile &= 0xfe
		}

		visible = append(visible, visibleSprite{
			x:          int(p.oam[i+1]) - 8,
			tile:       tile,
			flags:      p.oam[i+3],
			lineInTile: line - y,
		})
	}

	// draw in reverse OAM order so that earlier sprites win overlaps
	for i := len(visible) - 1; i >= 0; i-- {
		s := visible[i]

		lineInTile := s.lineInTile
		if s.flags&0x40 != 0 { // vertical flip
			lineInTile = height - 1 - lineInTile
		}

		palette := p.registers.obp0
		if s.flags&0x10 != 0 {
			palette = p.registers.obp1
		}

		for px := 0; px < 8; px++ {
			x := s.x + px
			if x < 0 || x >= ScreenWidth {
				continue
			}

			pixInTile := px
			if s.flags&0x20 != 0 { // horizontal flip
				pixInTile = 7 - pixInTile
			}

			value := p.tilePixel(uint16(s.tile)*16, pixInTile, lineInTile)
			if value == 0 {
				// sprite colour zero is transparent
				continue
			}

			// behind-background priority: only shows through colour zero
			if s.flags&0x80 != 0 && bgValue[x] != 0 {
				continue
			}

			row[x] = p.shades[palette>>(value*2)&0x03]
		}
	}
}

// tilePixel extracts the 2-bit value of a pixel from the bitplane pair of a
// tile row.
func (p *PPU) tilePixel(tileAddr uint16, x int, y int) uint8 {
	lo := p.vram[tileAddr+uint16(y)*2]
	hi := p.vram[tileAddr+uint16(y)*2+1]
	bit := uint(7 - x)
	return (lo>>bit)&0x01 | ((hi>>bit)&0x01)<<1
}
