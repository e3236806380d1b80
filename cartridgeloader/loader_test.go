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

package cartridgeloader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/test"
)

func TestFingerprintINES(t *testing.T) {
	data := make([]uint8, 0x200)
	copy(data, []byte{'N', 'E', 'S', 0x1a})
	test.ExpectEquality(t, fingerprint(data), KindNES)
}

func TestFingerprintGenesis(t *testing.T) {
	data := make([]uint8, 0x200)
	copy(data[0x100:], []byte("SEGA MEGA DRIVE "))
	test.ExpectEquality(t, fingerprint(data), KindGenesis)
}

func TestFingerprintGameBoy(t *testing.T) {
	data := make([]uint8, 0x8000)

	// a valid header checksum identifies the image
	var checksum uint8
	for _, b := range data[0x134:0x14d] {
		checksum -= b + 1
	}
	data[0x14d] = checksum

	test.ExpectEquality(t, fingerprint(data), KindGameBoy)
}

func TestTimingFromGenesisRegion(t *testing.T) {
	data := make([]uint8, 0x200)

	copy(data[0x1f0:], "E  ")
	test.ExpectEquality(t, detectTiming(KindGenesis, data), hardware.PAL)

	copy(data[0x1f0:], "JUE")
	test.ExpectEquality(t, detectTiming(KindGenesis, data), hardware.NTSC)

	copy(data[0x1f0:], "U  ")
	test.ExpectEquality(t, detectTiming(KindGenesis, data), hardware.NTSC)
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.gb")
	test.ExpectSuccess(t, os.WriteFile(path, make([]uint8, 0x8000), 0644))

	ld, err := Load(path)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ld.Kind, KindGameBoy)
	test.ExpectEquality(t, len(ld.Data), 0x8000)
}

func TestLoadFromZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.zip")

	f, err := os.Create(path)
	test.ExpectSuccess(t, err)
	zw := zip.NewWriter(f)

	w, err := zw.Create("notes.txt")
	test.ExpectSuccess(t, err)
	w.Write([]byte("not a rom"))

	w, err = zw.Create("game.sms")
	test.ExpectSuccess(t, err)
	w.Write(make([]uint8, 0x8000))

	test.ExpectSuccess(t, zw.Close())
	test.ExpectSuccess(t, f.Close())

	ld, err := Load(path)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ld.Kind, KindSMS)
	test.ExpectEquality(t, len(ld.Data), 0x8000)
}

func TestDiscImagesStayOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.cue")
	test.ExpectSuccess(t, os.WriteFile(path, []byte("FILE \"t.bin\" BINARY\n"), 0644))

	ld, err := Load(path)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, ld.Kind, KindSegaCD)
	test.ExpectEquality(t, len(ld.Data), 0)
}
