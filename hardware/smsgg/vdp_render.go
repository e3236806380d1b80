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

package smsgg

// the mode 4 line renderer. pixel-pipeline effects below line resolution
// (mid-line scroll writes) are not modelled.

func (v *VDP) renderLine(line int) {
	var pixels [ScreenWidth]uint32
	var bgPriority [ScreenWidth]bool
	var bgValue [ScreenWidth]uint8

	v.renderBackgroundLine(line, pixels[:], bgPriority[:], bgValue[:])
	v.renderSpriteLine(line, pixels[:], bgPriority[:])

	// the left-column blank replaces the leftmost tile with the backdrop
	if v.registers[0]&0x20 != 0 {
		backdrop := v.colour(16 + v.registers[7]&0x0f)
		for x := 0; x < 8; x++ {
			pixels[x] = backdrop
		}
	}

	v.commitLine(line, pixels[:])
}

// commitLine copies the rendered line into the frame buffer, applying the
// Game Gear crop.
func (v *VDP) commitLine(line int, pixels []uint32) {
	if !v.gameGear {
		copy(v.frameBuffer[line*ScreenWidth:(line+1)*ScreenWidth], pixels)
		return
	}

	if line < ggCropTop || line >= ggCropTop+GGScreenHeight {
		return
	}
	row := line - ggCropTop
	copy(v.frameBuffer[row*GGScreenWidth:(row+1)*GGScreenWidth],
		pixels[ggCropLeft:ggCropLeft+GGScreenWidth])
}

func (v *VDP) renderBackgroundLine(line int, pixels []uint32, bgPriority []bool, bgValue []uint8) {
	nameTableBase := uint16(v.registers[2]&0x0e) << 10

	scrollX := int(v.registers[8])
	if v.registers[0]&0x40 != 0 && line < 16 {
		// horizontal scroll lock for the top two rows
		scrollX = 0
	}
	scrollY := int(v.registers[9])

	for x := 0; x < ScreenWidth; x++ {
		mapX := (x - scrollX) & 0xff
		mapY := line + scrollY
		if mapY >= 224 {
			mapY -= 224
		}

		if v.registers[0]&0x80 != 0 && x >= 192 {
			// vertical scroll lock for the right eight columns
			mapY = line
		}

		entryAddr := nameTableBase + uint16(mapY/8)*64 + uint16(mapX/8)*2
		entry := uint16(v.vram[entryAddr&0x3fff]) | uint16(v.vram[(entryAddr+1)&0x3fff])<<8

		tile := entry & 0x01ff
		hflip := entry&0x0200 != 0
		vflip := entry&0x0400 != 0
		paletteHigh := entry&0x0800 != 0
		priority := entry&0x1000 != 0

		px := mapX % 8
		py := mapY % 8
		if hflip {
			px = 7 - px
		}
		if vflip {
			py = 7 - py
		}

		value := v.tilePixel(tile, px, py)
		bgValue[x] = value

		colourIndex := value
		if paletteHigh {
			colourIndex += 16
		}
		if value == 0 {
			// transparent: backdrop colour
			colourIndex = 16 + v.registers[7]&0x0f
		}

		pixels[x] = v.colour(colourIndex)
		bgPriority[x] = priority && value != 0
	}
}

func (v *VDP) renderSpriteLine(line int, pixels []uint32, bgPriority []bool) {
	satBase := uint16(v.registers[5]&0x7e) << 7
	tileBase := uint16(v.registers[6]&0x04) << 11

	height := 8
	if v.registers[1]&0x02 != 0 {
		height = 16
	}

	// gather up to eight sprites for the line, in table order
	var drawn int
	var lineMask [ScreenWidth]bool

	for i := uint16(0); i < 64; i++ {
		y := int(v.vram[satBase+i]) + 1
		if !v.gameGear && v.vram[satBase+i] == 0xd0 {
			// y=$d0 terminates the sprite list in 192-line modes
			break
		}
		if line < y || line >= y+height {
			continue
		}

		if drawn == 8 {
			v.statusOverflow = true
			break
		}
		drawn++

		x := int(v.vram[satBase+0x80+i*2])
		if v.registers[0]&0x08 != 0 {
			x -= 8
		}

		tile := uint16(v.vram[satBase+0x80+i*2+1])
		if height == 16 {
			tile &= 0xfe
		}

		lineInSprite := line - y
		for px := 0; px < 8; px++ {
			sx := x + px
			if sx < 0 || sx >= ScreenWidth {
				continue
			}

			value := v.spritePixel(tileBase, tile, px, lineInSprite)
			if value == 0 {
				continue
			}

			if lineMask[sx] {
				v.statusCollide = true
				continue
			}
			lineMask[sx] = true

			if bgPriority[sx] {
				continue
			}

			// sprites always use the second palette
			pixels[sx] = v.colour(16 + value)
		}
	}
}

// tilePixel reads one pixel of a background tile: four planar bitplanes
func (v *VDP) tilePixel(tile uint16, x int, y int) uint8 {
	addr := tile*32 + uint16(y)*4
	bit := uint(7 - x)

	var value uint8
	for plane := uint16(0); plane < 4; plane++ {
		if v.vram[(addr+plane)&0x3fff]&(1<<bit) != 0 {
			value |= 1 << plane
		}
	}
	return value
}

func (v *VDP) spritePixel(tileBase uint16, tile uint16, x int, y int) uint8 {
	return v.tilePixel(tileBase/32+tile, x, y)
}

// colour translates a palette RAM entry to a frame buffer pixel
func (v *VDP) colour(index uint8) uint32 {
	if v.gameGear {
		// 12-bit palette in byte pairs
		i := uint16(index) * 2 % vdpCRAMLen
		entry := uint16(v.cram[i]) | uint16(v.cram[i+1])<<8
		r := expand4(uint8(entry & 0x0f))
		g := expand4(uint8(entry >> 4 & 0x0f))
		b := expand4(uint8(entry >> 8 & 0x0f))
		return 0xff000000 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
	}

	// SMS: 6-bit palette
	entry := v.cram[index&0x1f]
	r := expand2(entry & 0x03)
	g := expand2(entry >> 2 & 0x03)
	b := expand2(entry >> 4 & 0x03)
	return 0xff000000 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

func expand2(v uint8) uint8 {
	return v * 85
}

func expand4(v uint8) uint8 {
	return v<<4 | v
}
