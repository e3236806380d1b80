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

// Package sdlaudio queues the emulation's mixed audio stream onto an SDL
// audio device.
package sdlaudio

import (
	"encoding/binary"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/jetsetilly/gophergen/logger"
)

// the number of samples in the SDL buffer. larger values risk audible lag;
// smaller values risk underruns on slow hosts
const bufferLength = 1024

// Audio is an open SDL audio device implementing the
// hardware.AudioOutput interface.
type Audio struct {
	id   sdl.AudioDeviceID
	spec sdl.AudioSpec

	// samples are batched before queueing; eight bytes per entry is too
	// fine a granularity for QueueAudio
	batch []byte

	// how much queued audio is considered enough. pushing beyond it is the
	// emulation running ahead of real time
	maxQueuedBytes uint32
}

// NewAudio opens the default SDL audio device at the given rate.
func NewAudio(rate int) (*Audio, error) {
	aud := &Audio{}

	request := sdl.AudioSpec{
		Freq:     int32(rate),
		Format:   sdl.AUDIO_F32SYS,
		Channels: 2,
		Samples:  bufferLength,
	}

	id, err := sdl.OpenAudioDevice("", false, &request, &aud.spec, 0)
	if err != nil {
		return nil, err
	}
	aud.id = id
	aud.batch = make([]byte, 0, bufferLength*8)
	aud.maxQueuedBytes = uint32(rate) * 8 / 5 // 200ms

	logger.Logf("sdlaudio", "audio device opened: %dHz, %d channels", aud.spec.Freq, aud.spec.Channels)

	sdl.PauseAudioDevice(id, false)

	return aud, nil
}

// PushSample implements the hardware.AudioOutput interface.
func (aud *Audio) PushSample(left float64, right float64) error {
	aud.batch = binary.LittleEndian.AppendUint32(aud.batch, math.Float32bits(float32(left)))
	aud.batch = binary.LittleEndian.AppendUint32(aud.batch, math.Float32bits(float32(right)))

	if len(aud.batch) < bufferLength*8 {
		return nil
	}

	return aud.flush()
}

func (aud *Audio) flush() error {
	if err := sdl.QueueAudio(aud.id, aud.batch); err != nil {
		return err
	}
	aud.batch = aud.batch[:0]
	return nil
}

// QueuedAhead reports whether the device has a comfortable amount of audio
// queued. The play loop uses this as its throttle: when the queue is full
// enough, real time has caught up with the emulation.
func (aud *Audio) QueuedAhead() bool {
	return sdl.GetQueuedAudioSize(aud.id) > aud.maxQueuedBytes
}

// End closes the audio device.
func (aud *Audio) End() {
	sdl.CloseAudioDevice(aud.id)
}
