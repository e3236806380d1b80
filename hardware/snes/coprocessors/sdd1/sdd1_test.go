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

package sdd1

import (
	"math/rand"
	"testing"

	"github.com/jetsetilly/gophergen/savestate"
	"github.com/jetsetilly/gophergen/test"
)

// a pseudo-random ROM image large enough for the banked region
func testROM() []uint8 {
	rng := rand.New(rand.NewSource(7))
	rom := make([]uint8, 1<<20)
	rng.Read(rom)
	return rom
}

func TestMMCBankedMapping(t *testing.T) {
	m := NewMMC()

	// the identity mapping puts $c0:0000 at ROM offset 0
	offset, ok := m.MapROMAddress(0xc00000, 1<<23)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, offset, uint32(0))

	// selecting bank 5 into slot 0 moves the window
	m.WriteBank(0, 5)
	offset, ok = m.MapROMAddress(0xc01234, 1<<23)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, offset, uint32(5<<20|0x1234))

	// slot 2 covers banks $e0-$ef
	offset, ok = m.MapROMAddress(0xe00042, 1<<23)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, offset, uint32(2<<20|0x42))
}

func TestMMCLowerRegion(t *testing.T) {
	m := NewMMC()

	// $00:8000 maps to ROM offset 0 through the fixed region
	offset, ok := m.MapROMAddress(0x008000, 1<<23)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, offset, uint32(0))

	// the lower half of a fixed bank is not ROM
	_, ok = m.MapROMAddress(0x001234, 1<<23)
	test.ExpectEquality(t, ok, false)
}

func TestDecompressorDeterminism(t *testing.T) {
	rom := testROM()

	// the decoder's output is a pure function of its state and the ROM:
	// two decompressors over the same stream agree byte for byte
	a := New()
	b := New()
	a.StartTransfer(0xc00000, 512, rom)
	b.StartTransfer(0xc00000, 512, rom)

	for i := 0; i < 512; i++ {
		if a.ReadByte(rom) != b.ReadByte(rom) {
			t.Fatalf("streams diverge at byte %d", i)
		}
	}

	test.ExpectEquality(t, a.Active(), false)
}

func TestDecompressorSnapshotResume(t *testing.T) {
	rom := testROM()

	// interrupting the decoder mid-stream with a snapshot/restore cycle
	// must not perturb the remaining output: the state alone determines
	// the next byte
	a := New()
	a.StartTransfer(0xc10000, 256, rom)

	reference := make([]uint8, 256)
	for i := range reference {
		reference[i] = a.ReadByte(rom)
	}

	b := New()
	b.StartTransfer(0xc10000, 256, rom)
	for i := 0; i < 100; i++ {
		test.ExpectEquality(t, b.ReadByte(rom), reference[i])
	}

	enc := savestate.NewEncoder(0)
	b.Snapshot(enc)

	c := New()
	dec, err := savestate.NewDecoder(enc.Bytes(), 0)
	test.ExpectSuccess(t, err)
	c.Restore(dec)
	test.ExpectSuccess(t, dec.Err())

	for i := 100; i < 256; i++ {
		test.ExpectEquality(t, c.ReadByte(rom), reference[i])
	}
}
