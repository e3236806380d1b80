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

package savestate_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/savestate"
	"github.com/jetsetilly/gophergen/test"
)

func TestRoundTrip(t *testing.T) {
	enc := savestate.NewEncoder(3)
	enc.PutBool(true)
	enc.PutUint8(0xab)
	enc.PutUint16(0x1234)
	enc.PutUint32(0xdeadbeef)
	enc.PutUint64(0x0102030405060708)
	enc.PutInt64(-42)
	enc.PutFloat64(0.125)
	enc.PutBytes([]byte{1, 2, 3})

	dec, err := savestate.NewDecoder(enc.Bytes(), 3)
	test.ExpectSuccess(t, err)

	test.ExpectEquality(t, dec.Bool(), true)
	test.ExpectEquality(t, dec.Uint8(), uint8(0xab))
	test.ExpectEquality(t, dec.Uint16(), uint16(0x1234))
	test.ExpectEquality(t, dec.Uint32(), uint32(0xdeadbeef))
	test.ExpectEquality(t, dec.Uint64(), uint64(0x0102030405060708))
	test.ExpectEquality(t, dec.Int64(), int64(-42))
	test.ExpectEquality(t, dec.Float64(), 0.125)

	b := dec.Bytes()
	test.ExpectSuccess(t, dec.Err())
	test.ExpectEquality(t, len(b), 3)
}

func TestVersionMismatch(t *testing.T) {
	enc := savestate.NewEncoder(1)
	_, err := savestate.NewDecoder(enc.Bytes(), 2)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, savestate.VersionMismatch))
}

func TestCorrupt(t *testing.T) {
	// bad magic
	_, err := savestate.NewDecoder([]byte("XXXX0000"), 0)
	test.ExpectSuccess(t, curated.Is(err, savestate.Corrupt))

	// truncated field. reading a uint64 from a one-byte body fails and the
	// failure is reported through Err()
	enc := savestate.NewEncoder(0)
	enc.PutUint8(1)
	dec, err := savestate.NewDecoder(enc.Bytes(), 0)
	test.ExpectSuccess(t, err)
	_ = dec.Uint64()
	test.ExpectFailure(t, dec.Err())
	test.ExpectSuccess(t, curated.Is(dec.Err(), savestate.Corrupt))
}
