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

package cdrom

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jetsetilly/gophergen/curated"
)

// BytesPerSector is the raw sector size read from a bin file.
const BytesPerSector = 2352

// Error patterns raised by the cdrom package.
const (
	DiscOpen                = "disc open: %v"
	DiscRead                = "disc read: %v"
	DiscReadInvalidChecksum = "disc read: invalid checksum: track %d sector %d: expected %08x, actual %08x"
)

const sectorHeaderLen = 16

// byte 18 of a mode 2 sector is the submode; bit 5 selects form 2
const mode2SubmodeLocation = 18

// digest range and checksum location per sector layout
var (
	mode1DigestEnd      = 2064
	mode1ChecksumLoc    = 2064
	mode2Form1DigestEnd = 2072
	mode2Form1Checksum  = 2072
	mode2Form2DigestEnd = 2348
	mode2Form2Checksum  = 2348
)

// sectorReader is the access required of a bin file by ReadSector.
type sectorReader interface {
	io.ReaderAt
}

// CdRom reads 2352-byte sectors from a CUE+BIN disc image. Sector reads
// inside a track's pregap or postgap synthesize a sector rather than
// touching the file; reads of data sectors are checked against the sector's
// error detection code.
type CdRom struct {
	Sheet *CueSheet

	files map[string]sectorReader

	// closers for files opened by Open(); nil when the image was supplied
	// in memory
	closers []io.Closer
}

// Open a disc image from the filesystem. Bin files named by the cue sheet
// are resolved relative to the cue file's directory.
//
// Only the CUE+BIN form is supported. A CHD file is recognised and refused
// with an explanatory DiscOpen error; see the project notes for why the CHD
// container is not read.
func Open(path string) (*CdRom, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
	case ".chd":
		return nil, curated.Errorf(DiscOpen, "CHD container is not supported; use CUE+BIN")
	default:
		return nil, curated.Errorf(DiscOpen, "not a cue file")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, curated.Errorf(DiscOpen, err)
	}

	dir := filepath.Dir(path)

	c := &CdRom{files: make(map[string]sectorReader)}

	sheet, err := parseCue(string(contents), func(name string) (uint32, error) {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return 0, err
		}
		return uint32(fi.Size() / BytesPerSector), nil
	})
	if err != nil {
		c.End()
		return nil, curated.Errorf(DiscOpen, err)
	}
	c.Sheet = sheet

	for _, track := range sheet.Tracks {
		if _, ok := c.files[track.file]; ok {
			continue
		}
		f, err := os.Open(filepath.Join(dir, track.file))
		if err != nil {
			c.End()
			return nil, curated.Errorf(DiscOpen, err)
		}
		c.files[track.file] = f
		c.closers = append(c.closers, f)
	}

	return c, nil
}

// OpenInMemory builds a CdRom from a cue sheet and bin file contents
// already in memory. Useful for testing and for the WebAssembly host, which
// has no filesystem.
func OpenInMemory(cueContents string, binFiles map[string][]byte) (*CdRom, error) {
	c := &CdRom{files: make(map[string]sectorReader)}

	sheet, err := parseCue(cueContents, func(name string) (uint32, error) {
		b, ok := binFiles[name]
		if !ok {
			return 0, curated.Errorf("no such bin file: %s", name)
		}
		return uint32(len(b) / BytesPerSector), nil
	})
	if err != nil {
		return nil, curated.Errorf(DiscOpen, err)
	}
	c.Sheet = sheet

	for name, b := range binFiles {
		c.files[name] = strings.NewReader(string(b))
	}

	return c, nil
}

// End closes any files opened by Open().
func (c *CdRom) End() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// ReadSector reads the sector at the given track-relative time into out,
// which must be at least BytesPerSector long.
func (c *CdRom) ReadSector(trackNumber int, relativeTime CdTime, out []byte) error {
	track, err := c.Sheet.Track(trackNumber)
	if err != nil {
		return curated.Errorf(DiscRead, err)
	}

	trackLen := track.EndTime.Sub(track.StartTime)
	dataEnd := trackLen.Sub(track.PostgapLen)

	if relativeTime.Before(track.PregapLen) || !relativeTime.Before(dataEnd) {
		// reading data in a pregap or postgap that does not exist in the
		// file
		if track.Type == TrackData {
			writeFakeDataSector(track.Mode, relativeTime, out)
		} else {
			for i := 0; i < BytesPerSector; i++ {
				out[i] = 0
			}
		}
		return nil
	}

	relativeSector := relativeTime.Sub(track.PregapLen).SectorNumber()

	f := c.files[track.file]
	offset := int64(track.fileOffsetSector+relativeSector) * BytesPerSector
	if _, err := f.ReadAt(out[:BytesPerSector], offset); err != nil {
		return curated.Errorf(DiscRead, err)
	}

	return validateEDC(track.Mode, trackNumber, relativeSector, out)
}

func validateEDC(mode TrackMode, trackNumber int, relativeSector uint32, sector []byte) error {
	var digestStart, digestEnd, checksumLoc int

	switch mode {
	case ModeAudio:
		return nil
	case Mode1:
		digestStart, digestEnd, checksumLoc = 0, mode1DigestEnd, mode1ChecksumLoc
	case Mode2:
		if sector[mode2SubmodeLocation]&(1<<5) != 0 {
			// form 2. an EDC of zero means no EDC was recorded
			if sector[mode2Form2Checksum] == 0 && sector[mode2Form2Checksum+1] == 0 &&
				sector[mode2Form2Checksum+2] == 0 && sector[mode2Form2Checksum+3] == 0 {
				return nil
			}
			digestStart, digestEnd, checksumLoc = sectorHeaderLen, mode2Form2DigestEnd, mode2Form2Checksum
		} else {
			digestStart, digestEnd, checksumLoc = sectorHeaderLen, mode2Form1DigestEnd, mode2Form1Checksum
		}
	}

	checksum := edcChecksum(sector[digestStart:digestEnd])
	edc := binary.LittleEndian.Uint32(sector[checksumLoc : checksumLoc+4])

	if checksum != edc {
		return curated.Errorf(DiscReadInvalidChecksum, trackNumber, relativeSector, edc, checksum)
	}

	return nil
}

// writeFakeDataSector synthesizes a sector for a read inside a data track's
// pregap or postgap: the sync pattern, a BCD time header, and a zeroed
// payload. No EDC is recorded, and none is checked.
func writeFakeDataSector(mode TrackMode, time CdTime, out []byte) {
	minutes, seconds, frames := time.BCD()

	copy(out, []byte{
		0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00,
		minutes, seconds, frames, mode.headerByte(),
	})
	for i := sectorHeaderLen; i < BytesPerSector; i++ {
		out[i] = 0
	}
}
