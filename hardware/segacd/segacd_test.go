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

package segacd_test

import (
	"encoding/binary"
	"testing"

	"github.com/jetsetilly/gophergen/cdrom"
	"github.com/jetsetilly/gophergen/hardware/segacd"
	"github.com/jetsetilly/gophergen/test"
)

const audioCue = `FILE "audio.bin" BINARY
  TRACK 01 AUDIO
    INDEX 01 00:00:00
`

func TestCDDAStreaming(t *testing.T) {
	// two sectors of audio: a constant half-scale value on the left,
	// quarter-scale on the right
	bin := make([]uint8, 2*cdrom.BytesPerSector)
	for i := 0; i < len(bin); i += 4 {
		binary.LittleEndian.PutUint16(bin[i:], uint16(16384))
		binary.LittleEndian.PutUint16(bin[i+2:], uint16(8192))
	}

	disc, err := cdrom.OpenInMemory(audioCue, map[string][]byte{"audio.bin": bin})
	test.ExpectSuccess(t, err)

	drive := segacd.NewDrive(disc)
	drive.Play(1, cdrom.CdTime{})

	l, r, err := drive.NextSample()
	test.ExpectSuccess(t, err)
	test.ExpectApproximate(t, l, 0.5, 0.001)
	test.ExpectApproximate(t, r, 0.25, 0.001)

	// playback stops at the end of the track
	for drive.Playing() {
		_, _, err := drive.NextSample()
		test.ExpectSuccess(t, err)
	}
}

func TestStopSilences(t *testing.T) {
	bin := make([]uint8, cdrom.BytesPerSector)
	disc, err := cdrom.OpenInMemory(audioCue, map[string][]byte{"audio.bin": bin})
	test.ExpectSuccess(t, err)

	drive := segacd.NewDrive(disc)
	drive.Play(1, cdrom.CdTime{})
	drive.Stop()

	l, r, err := drive.NextSample()
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, l, 0.0)
	test.ExpectEquality(t, r, 0.0)
}
