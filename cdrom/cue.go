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
	"fmt"
	"strconv"
	"strings"
)

// TrackType distinguishes data tracks from audio tracks.
type TrackType int

// List of TrackType values.
const (
	TrackData TrackType = iota
	TrackAudio
)

// TrackMode is the sector layout of a data track.
type TrackMode int

// List of TrackMode values.
const (
	Mode1 TrackMode = iota
	Mode2
	ModeAudio
)

func (m TrackMode) headerByte() uint8 {
	switch m {
	case Mode1:
		return 0x01
	case Mode2:
		return 0x02
	}
	return 0x00
}

// Track is one entry in the cue sheet, with resolved absolute times.
type Track struct {
	Number int
	Type   TrackType
	Mode   TrackMode

	// synthesized gaps. reads inside a gap never touch the bin file
	PregapLen  CdTime
	PostgapLen CdTime

	// absolute disc time of the start of the track (including pregap) and
	// of the end of the track (exclusive, including postgap)
	StartTime CdTime
	EndTime   CdTime

	// bin file backing the track and the sector offset of the track's data
	// within it
	file             string
	fileOffsetSector uint32

	// number of sectors of real data in the file
	dataSectors uint32
}

// CueSheet is the parsed and resolved cue file.
type CueSheet struct {
	Tracks []Track
}

// Track returns the track with the given 1-based number.
func (c *CueSheet) Track(number int) (*Track, error) {
	if number < 1 || number > len(c.Tracks) {
		return nil, fmt.Errorf("no such track: %d", number)
	}
	return &c.Tracks[number-1], nil
}

// parseCue parses the textual cue sheet. fileSectors maps each named bin
// file to its length in sectors; the caller gathers this from the
// filesystem. Track lengths are resolved from the index positions and file
// lengths, absolute times from the accumulated track lengths.
func parseCue(contents string, fileSectors func(name string) (uint32, error)) (*CueSheet, error) {
	type rawTrack struct {
		number  int
		mode    string
		file    string
		index1  CdTime
		pregap  CdTime
		postgap CdTime
	}

	var raw []rawTrack
	var currentFile string

	for _, line := range strings.Split(contents, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}

		switch strings.ToUpper(fields[0]) {
		case "FILE":
			// the filename may contain spaces inside quotes
			s := strings.TrimSpace(line)
			open := strings.Index(s, "\"")
			close := strings.LastIndex(s, "\"")
			if open >= 0 && close > open {
				currentFile = s[open+1 : close]
			} else if len(fields) >= 3 {
				currentFile = fields[1]
			} else {
				return nil, fmt.Errorf("bad FILE line: %s", line)
			}

		case "TRACK":
			if len(fields) < 3 {
				return nil, fmt.Errorf("bad TRACK line: %s", line)
			}
			number, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("bad TRACK number: %s", fields[1])
			}
			if currentFile == "" {
				return nil, fmt.Errorf("TRACK before any FILE")
			}
			raw = append(raw, rawTrack{
				number: number,
				mode:   strings.ToUpper(fields[2]),
				file:   currentFile,
			})

		case "INDEX":
			if len(raw) == 0 || len(fields) < 3 {
				return nil, fmt.Errorf("bad INDEX line: %s", line)
			}
			t, err := parseMSF(fields[2])
			if err != nil {
				return nil, err
			}
			// index 00 positions (the in-file pregap form) are subsumed by
			// index 01; only index 01 locates track data
			if fields[1] == "01" {
				raw[len(raw)-1].index1 = t
			}

		case "PREGAP":
			if len(raw) == 0 || len(fields) < 2 {
				return nil, fmt.Errorf("bad PREGAP line: %s", line)
			}
			t, err := parseMSF(fields[1])
			if err != nil {
				return nil, err
			}
			raw[len(raw)-1].pregap = t

		case "POSTGAP":
			if len(raw) == 0 || len(fields) < 2 {
				return nil, fmt.Errorf("bad POSTGAP line: %s", line)
			}
			t, err := parseMSF(fields[1])
			if err != nil {
				return nil, err
			}
			raw[len(raw)-1].postgap = t

		case "REM", "CATALOG", "PERFORMER", "TITLE", "FLAGS", "ISRC", "SONGWRITER", "CDTEXTFILE":
			// metadata; ignored

		default:
			return nil, fmt.Errorf("unrecognised cue command: %s", fields[0])
		}
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("cue sheet names no tracks")
	}

	// resolve data lengths: a track's data runs from its index 01 position
	// to the next track's index 01 in the same file, or to the end of the
	// file
	sheet := &CueSheet{Tracks: make([]Track, 0, len(raw))}
	var discTime CdTime

	for i, r := range raw {
		if r.number != i+1 {
			return nil, fmt.Errorf("track numbers are not sequential from 1")
		}

		var track Track
		track.Number = r.number
		track.file = r.file
		track.fileOffsetSector = r.index1.SectorNumber()
		track.PregapLen = r.pregap
		track.PostgapLen = r.postgap

		switch r.mode {
		case "AUDIO":
			track.Type = TrackAudio
			track.Mode = ModeAudio
		case "MODE1/2352":
			track.Type = TrackData
			track.Mode = Mode1
		case "MODE2/2352":
			track.Type = TrackData
			track.Mode = Mode2
		default:
			return nil, fmt.Errorf("unsupported track mode: %s", r.mode)
		}

		if i+1 < len(raw) && raw[i+1].file == r.file {
			track.dataSectors = raw[i+1].index1.SectorNumber() - track.fileOffsetSector
		} else {
			length, err := fileSectors(r.file)
			if err != nil {
				return nil, err
			}
			if track.fileOffsetSector > length {
				return nil, fmt.Errorf("track %d starts beyond the end of %s", r.number, r.file)
			}
			track.dataSectors = length - track.fileOffsetSector
		}

		track.StartTime = discTime
		length := track.PregapLen.Add(track.PostgapLen).Add(TimeFromSectorNumber(track.dataSectors))
		discTime = discTime.Add(length)
		track.EndTime = discTime

		sheet.Tracks = append(sheet.Tracks, track)
	}

	return sheet, nil
}
