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

// Package savestate encodes and decodes system snapshots. The format is a
// 4-byte magic, a 4-byte version, then fixed-width little-endian fields in
// whatever order the system writes them. There are no pointers and no
// self-description; a snapshot can only be decoded by the system and version
// that produced it.
package savestate

import (
	"encoding/binary"
	"math"

	"github.com/jetsetilly/gophergen/curated"
)

// Error patterns raised by Decoder.
const (
	VersionMismatch = "save state: version mismatch: state is v%d, emulator expects v%d"
	Corrupt         = "save state: corrupt: %v"
)

// snapshot files start with these four bytes
var magic = [4]byte{'G', 'G', 'E', 'N'}

// Encoder builds a snapshot blob. Fields are appended in call order.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an Encoder and writes the magic/version prefix.
func NewEncoder(version uint32) *Encoder {
	e := &Encoder{buf: make([]byte, 0, 4096)}
	e.buf = append(e.buf, magic[:]...)
	e.PutUint32(version)
	return e
}

// Bytes returns the encoded snapshot.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// PutBool encodes a bool as a single byte.
func (e *Encoder) PutBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// PutUint8 encodes a byte.
func (e *Encoder) PutUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// PutUint16 encodes a 16-bit value little-endian.
func (e *Encoder) PutUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

// PutUint32 encodes a 32-bit value little-endian.
func (e *Encoder) PutUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// PutUint64 encodes a 64-bit value little-endian.
func (e *Encoder) PutUint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// PutInt64 encodes a signed 64-bit value little-endian.
func (e *Encoder) PutInt64(v int64) {
	e.PutUint64(uint64(v))
}

// PutInt encodes an int as a signed 64-bit value.
func (e *Encoder) PutInt(v int) {
	e.PutInt64(int64(v))
}

// PutFloat64 encodes a float64 by its IEEE 754 bits.
func (e *Encoder) PutFloat64(v float64) {
	e.PutUint64(math.Float64bits(v))
}

// PutBytes encodes a length-prefixed byte slice.
func (e *Encoder) PutBytes(v []byte) {
	e.PutUint32(uint32(len(v)))
	e.buf = append(e.buf, v...)
}

// Decoder reads a snapshot blob. Errors are sticky: after the first failure
// every accessor returns a zero value and Err() reports the failure. This
// lets a system decode an entire snapshot into scratch state and check for
// errors once, swapping the scratch state in only on success.
type Decoder struct {
	data []byte
	pos  int
	err  error
}

// NewDecoder checks the magic/version prefix and returns a Decoder
// positioned at the first field.
func NewDecoder(data []byte, version uint32) (*Decoder, error) {
	if len(data) < 8 {
		return nil, curated.Errorf(Corrupt, "too short for header")
	}
	if [4]byte(data[:4]) != magic {
		return nil, curated.Errorf(Corrupt, "bad magic")
	}
	v := binary.LittleEndian.Uint32(data[4:8])
	if v != version {
		return nil, curated.Errorf(VersionMismatch, v, version)
	}
	return &Decoder{data: data, pos: 8}, nil
}

// Err returns the first error encountered by an accessor, or nil.
func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.pos+n > len(d.data) {
		d.err = curated.Errorf(Corrupt, "truncated")
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

// Bool decodes a bool.
func (d *Decoder) Bool() bool {
	b := d.take(1)
	return b != nil && b[0] != 0
}

// Uint8 decodes a byte.
func (d *Decoder) Uint8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint16 decodes a 16-bit value.
func (d *Decoder) Uint16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// Uint32 decodes a 32-bit value.
func (d *Decoder) Uint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Uint64 decodes a 64-bit value.
func (d *Decoder) Uint64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Int64 decodes a signed 64-bit value.
func (d *Decoder) Int64() int64 {
	return int64(d.Uint64())
}

// Int decodes an int encoded with PutInt.
func (d *Decoder) Int() int {
	return int(d.Int64())
}

// Float64 decodes a float64.
func (d *Decoder) Float64() float64 {
	return math.Float64frombits(d.Uint64())
}

// Bytes decodes a length-prefixed byte slice. The returned slice aliases
// the snapshot data; callers copy if they keep it.
func (d *Decoder) Bytes() []byte {
	n := d.Uint32()
	if d.err != nil {
		return nil
	}
	return d.take(int(n))
}

// BytesInto decodes a length-prefixed byte slice into dst. A length
// mismatch is a Corrupt error.
func (d *Decoder) BytesInto(dst []byte) {
	b := d.Bytes()
	if d.err != nil {
		return
	}
	if len(b) != len(dst) {
		d.err = curated.Errorf(Corrupt, "field length mismatch")
		return
	}
	copy(dst, b)
}
