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
)

// sectors (frames) per second of CD audio
const SectorsPerSecond = 75

// CdTime is a position on the disc in minutes/seconds/frames form. 75
// frames to the second, 60 seconds to the minute.
type CdTime struct {
	Minutes uint8
	Seconds uint8
	Frames  uint8
}

func (t CdTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Minutes, t.Seconds, t.Frames)
}

// TimeFromSectorNumber converts a sector count into MSF form.
func TimeFromSectorNumber(sector uint32) CdTime {
	return CdTime{
		Minutes: uint8(sector / (60 * SectorsPerSecond)),
		Seconds: uint8(sector / SectorsPerSecond % 60),
		Frames:  uint8(sector % SectorsPerSecond),
	}
}

// SectorNumber converts MSF form into a sector count.
func (t CdTime) SectorNumber() uint32 {
	return (uint32(t.Minutes)*60+uint32(t.Seconds))*SectorsPerSecond + uint32(t.Frames)
}

// Add two times.
func (t CdTime) Add(o CdTime) CdTime {
	return TimeFromSectorNumber(t.SectorNumber() + o.SectorNumber())
}

// Sub subtracts o from t. o must not be later than t.
func (t CdTime) Sub(o CdTime) CdTime {
	return TimeFromSectorNumber(t.SectorNumber() - o.SectorNumber())
}

// Before returns true if t is strictly earlier than o.
func (t CdTime) Before(o CdTime) bool {
	return t.SectorNumber() < o.SectorNumber()
}

// BCD returns the minutes/seconds/frames fields encoded as BCD, as they
// appear in a data sector header.
func (t CdTime) BCD() (minutes uint8, seconds uint8, frames uint8) {
	return toBCD(t.Minutes), toBCD(t.Seconds), toBCD(t.Frames)
}

func toBCD(component uint8) uint8 {
	return (component/10)<<4 | component%10
}

// parseMSF parses a "mm:ss:ff" field from a cue sheet.
func parseMSF(s string) (CdTime, error) {
	var m, sec, f uint8
	if _, err := fmt.Sscanf(s, "%02d:%02d:%02d", &m, &sec, &f); err != nil {
		return CdTime{}, fmt.Errorf("bad msf field: %s", s)
	}
	if sec >= 60 || f >= SectorsPerSecond {
		return CdTime{}, fmt.Errorf("bad msf field: %s", s)
	}
	return CdTime{Minutes: m, Seconds: sec, Frames: f}, nil
}
