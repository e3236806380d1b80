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

package hardware

import (
	"time"
)

// TickEffect is returned by System.Tick() to describe what, if anything,
// happened during the tick that the host needs to act on.
type TickEffect int

// List of valid TickEffect values.
const (
	// nothing of interest to the host happened
	None TickEffect = iota

	// the video unit completed a frame during the tick and the frame has
	// been handed to the Renderer. the host may read the frame buffer until
	// the next call to Tick()
	FrameRendered
)

// TimingMode describes the video timing of the emulated console.
type TimingMode int

// List of valid TimingMode values.
const (
	NTSC TimingMode = iota
	PAL
)

func (m TimingMode) String() string {
	switch m {
	case NTSC:
		return "NTSC"
	case PAL:
		return "PAL"
	}
	return "unknown"
}

// Error patterns for errors that can be returned by System.Tick(). Errors
// from host callbacks are forwarded under these patterns; the core itself
// never originates them.
const (
	Render    = "render error: %v"
	Audio     = "audio error: %v"
	SaveWrite = "save write error: %v"
)

// NotImplemented is the error pattern used for bus accesses that the
// emulation deliberately does not support. The condition is surfaced rather
// than silently returning zero.
const NotImplemented = "not implemented: %v"

// FrameSize is the width and height of a frame buffer in pixels.
type FrameSize struct {
	Width  int
	Height int
}

// Renderer implementations receive the completed frame from the video unit
// once per frame. The pixel slice is a read-only view of the video unit's
// frame buffer; it is valid until the next call to System.Tick().
//
// Pixels are packed 0xAABBGGRR, one word per pixel, rows top to bottom.
type Renderer interface {
	RenderFrame(pix []uint32, size FrameSize, pixelAspectRatio float64) error
}

// AudioOutput implementations receive the mixed audio stream at the
// configured output rate. Sample values are in the range [-1, 1].
type AudioOutput interface {
	PushSample(left float64, right float64) error
}

// SaveWriter implementations persist cartridge save data. PersistBytes
// receives a fully serialised blob; the name distinguishes multiple blobs
// for the same cartridge (eg. "sram" and "rtc").
type SaveWriter interface {
	PersistBytes(name string, data []byte) error
}

// ClockSource is how the emulation reads the host's wall clock. Real-time
// clock chips are the only part of the emulation with a genuine dependency
// on wall time; abstracting the source keeps save states deterministic and
// lets tests advance time artificially.
type ClockSource interface {
	NowNanos() int64
}

// WallClock is the ClockSource used outside of tests.
type WallClock struct{}

// NowNanos implements the ClockSource interface.
func (WallClock) NowNanos() int64 {
	return time.Now().UnixNano()
}

// System is the interface presented by every emulated console. A System is
// created by the console package's Create() function and is driven by the
// host calling Tick() in a loop.
//
// Tick() executes exactly one instruction on the primary CPU and advances
// every other component by the corresponding number of native cycles. If the
// video unit completes a frame during the tick, the frame is handed to the
// Renderer and Tick() returns FrameRendered.
//
// Errors returned by Tick() always originate in one of the host callbacks
// and carry one of the Render, Audio or SaveWrite patterns. Conditions
// internal to the emulated machine are never errors.
type System interface {
	Tick(inputs Inputs, renderer Renderer, audio AudioOutput, saves SaveWriter) (TickEffect, error)

	// ReloadConfig applies a new configuration atomically. It must not be
	// called between a FrameRendered return and the host finishing with the
	// frame buffer.
	ReloadConfig(config any)

	// SoftReset emulates the console's reset button. Mapper state and CPU
	// registers return to power-on values; RAM contents survive.
	SoftReset()

	// HardReset emulates a power cycle. The optional save blob replaces the
	// persistent cartridge state, as though a different save file had been
	// present at power-on.
	HardReset(saveBlob []byte)

	// SaveState serialises the entire system. LoadState restores it. A
	// failed LoadState leaves the previous state intact.
	SaveState() []byte
	LoadState(state []byte) error

	TimingMode() TimingMode
}
