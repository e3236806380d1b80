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

package audio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/jetsetilly/gophergen/hardware/audio"
	"github.com/jetsetilly/gophergen/test"
)

func TestCaptureWritesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")

	c, err := audio.NewCapture(path, 48000, nil)
	test.ExpectSuccess(t, err)

	for i := 0; i < 48000; i++ {
		test.ExpectSuccess(t, c.PushSample(0.5, -0.5))
	}
	test.ExpectSuccess(t, c.End())

	// the file reads back as one second of 16-bit stereo
	f, err := os.Open(path)
	test.ExpectSuccess(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	test.ExpectSuccess(t, dec.IsValidFile())
	test.ExpectEquality(t, dec.SampleRate, uint32(48000))
	test.ExpectEquality(t, dec.NumChans, uint16(2))
	test.ExpectEquality(t, dec.BitDepth, uint16(16))

	dur, err := dec.Duration()
	test.ExpectSuccess(t, err)
	test.ExpectApproximate(t, dur.Seconds(), 1.0, 0.01)
}

func TestCaptureTees(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")

	out := &recordingOutput{}
	c, err := audio.NewCapture(path, 48000, out)
	test.ExpectSuccess(t, err)

	test.ExpectSuccess(t, c.PushSample(0.25, 0.75))
	test.ExpectSuccess(t, c.End())

	test.ExpectEquality(t, len(out.samples), 1)
	test.ExpectEquality(t, out.samples[0][0], 0.25)
	test.ExpectEquality(t, out.samples[0][1], 0.75)
}
