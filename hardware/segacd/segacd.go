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

// Package segacd emulates the Sega CD's disc and audio subsystems: the CD
// drive reading data sectors and streaming CD audio, the PCM sample chip,
// and the mixing chain that folds both into the Genesis sound output.
//
// The sub-CPU (a second 68000) is consumed through the same interface as
// the genesis package's CPUs; the full add-on system root composes this
// package with a genesis.Genesis.
package segacd

import (
	"encoding/binary"

	"github.com/jetsetilly/gophergen/cdrom"
	"github.com/jetsetilly/gophergen/hardware/audio"
	"github.com/jetsetilly/gophergen/hardware/clocks"
)

// audio samples per CD sector: 2352 bytes of 16-bit stereo
const samplesPerSector = cdrom.BytesPerSector / 4

// source gains from measurements of real hardware: PCM -9dB, CD-DA -7dB
const (
	pcmGainDb = -9
	cdGainDb  = -7
)

// Drive is the CD drive: sector reads for the data path and streaming
// playback for CD audio.
type Drive struct {
	disc *cdrom.CdRom

	playing bool
	track   int
	time    cdrom.CdTime

	sector    [cdrom.BytesPerSector]uint8
	samplePos int
}

// NewDrive creates a Drive over an open disc image.
func NewDrive(disc *cdrom.CdRom) *Drive {
	return &Drive{disc: disc}
}

// ReadSector reads a data sector at the given track-relative time.
func (d *Drive) ReadSector(track int, time cdrom.CdTime, out []uint8) error {
	return d.disc.ReadSector(track, time, out)
}

// Play starts CD audio playback from the given position.
func (d *Drive) Play(track int, from cdrom.CdTime) {
	d.playing = true
	d.track = track
	d.time = from
	d.samplePos = samplesPerSector // force a sector read
}

// Stop ends CD audio playback.
func (d *Drive) Stop() {
	d.playing = false
}

// NextSample produces the next CD-DA sample pair, advancing through the
// disc at 75 sectors per second. Silent when stopped.
func (d *Drive) NextSample() (float64, float64, error) {
	if !d.playing {
		return 0, 0, nil
	}

	if d.samplePos >= samplesPerSector {
		// stop once the track is exhausted
		track, terr := d.disc.Sheet.Track(d.track)
		if terr == nil && !d.time.Before(track.EndTime.Sub(track.StartTime)) {
			d.playing = false
			return 0, 0, nil
		}

		if err := d.disc.ReadSector(d.track, d.time, d.sector[:]); err != nil {
			d.playing = false
			return 0, 0, err
		}
		d.samplePos = 0
		d.time = d.time.Add(cdrom.CdTime{Frames: 1})
	}

	offset := d.samplePos * 4
	l := int16(binary.LittleEndian.Uint16(d.sector[offset:]))
	r := int16(binary.LittleEndian.Uint16(d.sector[offset+2:]))
	d.samplePos++

	return float64(l) / 32768, float64(r) / 32768, nil
}

// Playing reports whether CD audio is streaming.
func (d *Drive) Playing() bool {
	return d.playing
}

// Audio is the Sega CD mixing chain: the PCM chip and CD-DA stream routed
// through their hardware filters into a shared mixer, alongside whatever
// sources the owning Genesis registers.
type Audio struct {
	Mixer *audio.Mixer

	PCMSource audio.SourceID
	CDSource  audio.SourceID
}

// NewAudio wires the Sega CD sources into the mixer.
func NewAudio(mixer *audio.Mixer, applyPCMLowPass bool) *Audio {
	a := &Audio{Mixer: mixer}

	pcmRate := float64(clocks.SegaCDMaster) / float64(clocks.PCMChipDiv)
	a.PCMSource = mixer.AddSource("pcm", 64, pcmRate, pcmGainDb)
	a.CDSource = mixer.AddSource("cd-da", 64, float64(clocks.CDDARate), cdGainDb)

	if applyPCMLowPass {
		// the console's 8kHz low-pass on the PCM output
		mixer.SetSecondOrderFilter(a.PCMSource, audio.NewPCM8kHzLowPass)
	}

	return a
}

// CollectPCM pushes a PCM chip sample into the mix.
func (a *Audio) CollectPCM(l float64, r float64) {
	a.Mixer.Collect(a.PCMSource, l, r)
}

// CollectCD pushes a CD-DA sample into the mix.
func (a *Audio) CollectCD(l float64, r float64) {
	a.Mixer.Collect(a.CDSource, l, r)
}
