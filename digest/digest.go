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

// Package digest accumulates hashes of an emulation's video and audio
// output. Two runs that produce the same digests produced the same output;
// regression tests compare digests rather than frame buffers.
package digest

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"github.com/jetsetilly/gophergen/hardware"
)

// Video implements the hardware.Renderer interface, folding every
// delivered frame into a rolling hash.
type Video struct {
	digest [sha1.Size]byte
	frames int
}

// RenderFrame implements the hardware.Renderer interface.
func (dig *Video) RenderFrame(pix []uint32, size hardware.FrameSize, pixelAspectRatio float64) error {
	// the previous digest seeds the next so that frame order matters
	b := make([]byte, 0, sha1.Size+len(pix)*4)
	b = append(b, dig.digest[:]...)
	for _, p := range pix {
		b = binary.LittleEndian.AppendUint32(b, p)
	}
	dig.digest = sha1.Sum(b)
	dig.frames++
	return nil
}

// Hash returns the accumulated video hash.
func (dig *Video) Hash() string {
	return fmt.Sprintf("%x", dig.digest)
}

// Frames returns the number of frames folded into the hash.
func (dig *Video) Frames() int {
	return dig.frames
}

// Audio implements the hardware.AudioOutput interface, folding every
// sample pair into a rolling hash.
type Audio struct {
	digest  [sha1.Size]byte
	buffer  []byte
	samples int
}

// how many samples are buffered before the hash is advanced
const audioBatch = 1024

// PushSample implements the hardware.AudioOutput interface.
func (dig *Audio) PushSample(left float64, right float64) error {
	dig.buffer = binary.LittleEndian.AppendUint64(dig.buffer, uint64(int64(left*65536)))
	dig.buffer = binary.LittleEndian.AppendUint64(dig.buffer, uint64(int64(right*65536)))
	dig.samples++

	if dig.samples%audioBatch == 0 {
		dig.fold()
	}
	return nil
}

func (dig *Audio) fold() {
	b := make([]byte, 0, sha1.Size+len(dig.buffer))
	b = append(b, dig.digest[:]...)
	b = append(b, dig.buffer...)
	dig.digest = sha1.Sum(b)
	dig.buffer = dig.buffer[:0]
}

// Hash returns the accumulated audio hash, including any buffered
// samples.
func (dig *Audio) Hash() string {
	dig.fold()
	return fmt.Sprintf("%x", dig.digest)
}
