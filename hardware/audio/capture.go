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

package audio

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/jetsetilly/gophergen/hardware"
)

// Capture tees the mixed audio stream into a 16-bit stereo WAV file while
// passing every sample through to the wrapped AudioOutput. Useful for
// regression comparison of audio output between versions.
type Capture struct {
	wrapped hardware.AudioOutput
	file    *os.File
	enc     *wav.Encoder
	buffer  goaudio.IntBuffer

	// samples buffered before the next encoder write
	batch int
}

// NewCapture creates a Capture writing to the named file. The wrapped
// output may be nil, in which case the capture is write-only.
func NewCapture(filename string, outputRate uint64, wrapped hardware.AudioOutput) (*Capture, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	c := &Capture{
		wrapped: wrapped,
		file:    f,
		enc:     wav.NewEncoder(f, int(outputRate), 16, 2, 1),
		buffer: goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 2, SampleRate: int(outputRate)},
			SourceBitDepth: 16,
		},
	}
	c.batch = int(outputRate) / 10
	return c, nil
}

// PushSample implements the hardware.AudioOutput interface.
func (c *Capture) PushSample(left float64, right float64) error {
	c.buffer.Data = append(c.buffer.Data, int(left*32767), int(right*32767))

	if len(c.buffer.Data) >= c.batch*2 {
		if err := c.enc.Write(&c.buffer); err != nil {
			return err
		}
		c.buffer.Data = c.buffer.Data[:0]
	}

	if c.wrapped != nil {
		return c.wrapped.PushSample(left, right)
	}
	return nil
}

// End flushes buffered samples and finalises the WAV file.
func (c *Capture) End() error {
	if len(c.buffer.Data) > 0 {
		if err := c.enc.Write(&c.buffer); err != nil {
			return err
		}
		c.buffer.Data = c.buffer.Data[:0]
	}
	if err := c.enc.Close(); err != nil {
		return err
	}
	return c.file.Close()
}
