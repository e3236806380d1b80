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

// Package cartridgeloader loads ROM images from the filesystem and decides
// which console they belong to. Zip archives are searched for the first
// file with a recognised extension.
package cartridgeloader

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/hardware"
)

// Error patterns raised by the loader.
const (
	LoadError       = "cartridge loading error: %v"
	UnknownSystem   = "cartridge loading error: cannot tell which console %s is for"
	NothingInArchive = "cartridge loading error: no ROM found in archive %s"
)

// SystemKind identifies the console a ROM is for.
type SystemKind int

// List of SystemKind values.
const (
	KindUnknown SystemKind = iota
	KindGameBoy
	KindSMS
	KindGameGear
	KindGenesis
	KindNES
	KindSNES
	KindSega32X
	KindSegaCD
)

func (k SystemKind) String() string {
	switch k {
	case KindGameBoy:
		return "Game Boy"
	case KindSMS:
		return "Master System"
	case KindGameGear:
		return "Game Gear"
	case KindGenesis:
		return "Genesis"
	case KindNES:
		return "NES"
	case KindSNES:
		return "SNES"
	case KindSega32X:
		return "32X"
	case KindSegaCD:
		return "Sega CD"
	}
	return "unknown"
}

// extension to console routing
var extensions = map[string]SystemKind{
	".gb":  KindGameBoy,
	".gbc": KindGameBoy,
	".sms": KindSMS,
	".gg":  KindGameGear,
	".md":  KindGenesis,
	".gen": KindGenesis,
	".bin": KindGenesis,
	".nes": KindNES,
	".sfc": KindSNES,
	".smc": KindSNES,
	".32x": KindSega32X,
	".cue": KindSegaCD,
	".chd": KindSegaCD,
}

// Loader is a loaded ROM image with its detected console and timing.
type Loader struct {
	Filename string
	Data     []uint8
	Kind     SystemKind
	Timing   hardware.TimingMode
}

// Load reads the named file, unpacking a zip archive if necessary, and
// detects the console.
func Load(filename string) (*Loader, error) {
	ld := &Loader{Filename: filename}

	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".zip" {
		if err := ld.loadFromArchive(filename); err != nil {
			return nil, err
		}
	} else {
		// disc images stay on disk; the cdrom package reads them itself
		if ext == ".cue" || ext == ".chd" {
			ld.Kind = KindSegaCD
			ld.Timing = hardware.NTSC
			return ld, nil
		}

		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, curated.Errorf(LoadError, err)
		}
		ld.Data = data
		ld.Kind = extensions[ext]
	}

	if ld.Kind == KindUnknown {
		ld.Kind = fingerprint(ld.Data)
	}
	if ld.Kind == KindUnknown {
		return nil, curated.Errorf(UnknownSystem, filepath.Base(filename))
	}

	ld.Timing = detectTiming(ld.Kind, ld.Data)

	return ld, nil
}

func (ld *Loader) loadFromArchive(filename string) error {
	zf, err := zip.OpenReader(filename)
	if err != nil {
		return curated.Errorf(LoadError, err)
	}
	defer zf.Close()

	for _, f := range zf.File {
		ext := strings.ToLower(filepath.Ext(f.Name))
		kind, ok := extensions[ext]
		if !ok || kind == KindSegaCD {
			continue
		}

		r, err := f.Open()
		if err != nil {
			return curated.Errorf(LoadError, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return curated.Errorf(LoadError, err)
		}

		ld.Data = data
		ld.Kind = kind
		return nil
	}

	return curated.Errorf(NothingInArchive, filepath.Base(filename))
}

// fingerprint inspects the image contents when the extension is ambiguous.
func fingerprint(data []uint8) SystemKind {
	if len(data) < 0x200 {
		return KindUnknown
	}

	// iNES magic
	if bytes.HasPrefix(data, []byte{'N', 'E', 'S', 0x1a}) {
		return KindNES
	}

	// the Genesis header carries a console name at $100
	if bytes.Contains(data[0x100:0x110], []byte("SEGA")) {
		return KindGenesis
	}

	// the Game Boy header checksum at $14d covers $134-$14c
	if len(data) >= 0x150 {
		var checksum uint8
		for _, b := range data[0x134:0x14d] {
			checksum -= b + 1
		}
		if checksum == data[0x14d] {
			return KindGameBoy
		}
	}

	// the SMS export header
	if len(data) >= 0x8000 && bytes.Equal(data[0x7ff0:0x7ff8], []byte("TMR SEGA")) {
		return KindSMS
	}

	return KindUnknown
}

// detectTiming chooses NTSC or PAL from the image's region information.
func detectTiming(kind SystemKind, data []uint8) hardware.TimingMode {
	switch kind {
	case KindGenesis, KindSega32X:
		if len(data) >= 0x1f3 {
			region := data[0x1f0:0x1f3]
			pal := false
			for _, b := range region {
				switch b {
				case 'J', 'U', '4', '1', 'A', '0':
					return hardware.NTSC
				case 'E', '8', 'F':
					pal = true
				}
			}
			if pal {
				return hardware.PAL
			}
		}

	case KindSNES:
		// the header's destination code: 2-12 are PAL markets
		for _, headerBase := range []int{0x7fd9, 0xffd9} {
			if len(data) > headerBase {
				dest := data[headerBase]
				if dest >= 2 && dest <= 12 {
					return hardware.PAL
				}
				return hardware.NTSC
			}
		}
	}

	return hardware.NTSC
}
