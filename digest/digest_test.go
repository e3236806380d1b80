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

package digest_test

import (
	"testing"

	"github.com/jetsetilly/gophergen/digest"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/gameboy"
	"github.com/jetsetilly/gophergen/test"
)

type nullSaves struct{}

func (nullSaves) PersistBytes(name string, data []byte) error { return nil }

// two identical emulation runs must produce identical output digests
func TestDeterministicOutput(t *testing.T) {
	run := func() (string, string) {
		rom := make([]uint8, 32*1024)
		rom[0x0100] = 0x18
		rom[0x0101] = 0xfe

		gb, err := gameboy.Create(rom, gameboy.DefaultConfig(), nil, hardware.WallClock{})
		test.ExpectSuccess(t, err)

		video := &digest.Video{}
		audio := &digest.Audio{}

		for video.Frames() < 10 {
			_, err := gb.Tick(hardware.Inputs{}, video, audio, nullSaves{})
			test.ExpectSuccess(t, err)
		}

		return video.Hash(), audio.Hash()
	}

	v1, a1 := run()
	v2, a2 := run()

	test.ExpectEquality(t, v1, v2)
	test.ExpectEquality(t, a1, a2)
}

func TestFrameOrderMatters(t *testing.T) {
	a := &digest.Video{}
	b := &digest.Video{}

	frame1 := make([]uint32, 16)
	frame2 := make([]uint32, 16)
	frame2[0] = 1

	size := hardware.FrameSize{Width: 4, Height: 4}

	a.RenderFrame(frame1, size, 1.0)
	a.RenderFrame(frame2, size, 1.0)
	b.RenderFrame(frame2, size, 1.0)
	b.RenderFrame(frame1, size, 1.0)

	test.ExpectInequality(t, a.Hash(), b.Hash())
}
