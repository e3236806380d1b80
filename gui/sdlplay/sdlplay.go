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

// Package sdlplay is the playable SDL front-end: a window, a streaming
// texture for the frame buffer, keyboard input and file-backed save data.
package sdlplay

import (
	"os"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/gui/sdlaudio"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/logger"
)

// UserQuit is the error pattern returned when the user closes the window.
const UserQuit = "user quit"

const windowScale = 3

// keyboard to gamepad mapping
var keyMap = map[sdl.Keycode]hardware.Button{
	sdl.K_UP:        hardware.Up,
	sdl.K_DOWN:      hardware.Down,
	sdl.K_LEFT:      hardware.Left,
	sdl.K_RIGHT:     hardware.Right,
	sdl.K_z:         hardware.A,
	sdl.K_x:         hardware.B,
	sdl.K_c:         hardware.C,
	sdl.K_a:         hardware.X,
	sdl.K_s:         hardware.Y,
	sdl.K_d:         hardware.Z,
	sdl.K_RETURN:    hardware.Start,
	sdl.K_RSHIFT:    hardware.Select,
	sdl.K_p:         hardware.Pause,
	sdl.K_BACKSPACE: hardware.Select,
}

// screen is the SDL window/renderer/texture triple implementing the
// hardware.Renderer interface.
type screen struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	width  int
	height int
}

func newScreen(title string) (*screen, error) {
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		320*windowScale, 240*windowScale,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		return nil, err
	}

	return &screen{window: window, renderer: renderer}, nil
}

// RenderFrame implements the hardware.Renderer interface.
func (scr *screen) RenderFrame(pix []uint32, size hardware.FrameSize, pixelAspectRatio float64) error {
	if scr.texture == nil || scr.width != size.Width || scr.height != size.Height {
		if scr.texture != nil {
			scr.texture.Destroy()
		}

		texture, err := scr.renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888,
			sdl.TEXTUREACCESS_STREAMING, int32(size.Width), int32(size.Height))
		if err != nil {
			return err
		}
		scr.texture = texture
		scr.width = size.Width
		scr.height = size.Height

		scr.window.SetSize(int32(float64(size.Width)*pixelAspectRatio)*windowScale,
			int32(size.Height)*windowScale)
	}

	if len(pix) < size.Width*size.Height {
		return nil
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&pix[0])), len(pix)*4)
	if err := scr.texture.Update(nil, unsafe.Pointer(&raw[0]), size.Width*4); err != nil {
		return err
	}

	scr.renderer.Clear()
	scr.renderer.Copy(scr.texture, nil, nil)
	scr.renderer.Present()

	return nil
}

func (scr *screen) end() {
	if scr.texture != nil {
		scr.texture.Destroy()
	}
	scr.renderer.Destroy()
	scr.window.Destroy()
}

// SaveWriter persists save blobs next to the ROM file.
type SaveWriter struct {
	// the path of the loaded ROM; blobs are stored alongside with the blob
	// name as the extension
	RomFile string
}

// PersistBytes implements the hardware.SaveWriter interface. The
// conventional "sram" and "external" blobs are stored with the .sav
// extension; other names become extensions directly.
func (s SaveWriter) PersistBytes(name string, data []byte) error {
	ext := "." + name
	if name == "sram" || name == "external" {
		ext = ".sav"
	}
	return os.WriteFile(s.RomFile+ext, data, 0644)
}

// LoadBlob reads back a previously persisted blob, or nil if absent.
func (s SaveWriter) LoadBlob(name string) []byte {
	ext := "." + name
	if name == "sram" || name == "external" {
		ext = ".sav"
	}
	data, err := os.ReadFile(s.RomFile + ext)
	if err != nil {
		return nil
	}
	return data
}

// Play runs the emulation in a window until the user quits or an error
// stops the loop.
func Play(sys hardware.System, romFile string, outputRate int) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return curated.Errorf("sdlplay: %v", err)
	}
	defer sdl.Quit()

	scr, err := newScreen("gophergen")
	if err != nil {
		return curated.Errorf("sdlplay: %v", err)
	}
	defer scr.end()

	aud, err := sdlaudio.NewAudio(outputRate)
	if err != nil {
		return curated.Errorf("sdlplay: %v", err)
	}
	defer aud.End()

	saves := SaveWriter{RomFile: romFile}

	var inputs hardware.Inputs

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch ev := event.(type) {
			case *sdl.QuitEvent:
				return curated.Errorf(UserQuit)

			case *sdl.KeyboardEvent:
				if ev.Keysym.Sym == sdl.K_ESCAPE {
					return curated.Errorf(UserQuit)
				}
				if button, ok := keyMap[ev.Keysym.Sym]; ok {
					inputs.P1 = inputs.P1.Set(button, ev.Type == sdl.KEYDOWN)
				}
			}
		}

		// run emulation until the next frame boundary
		for {
			effect, err := sys.Tick(inputs, scr, aud, saves)
			if err != nil {
				if curated.Has(err, hardware.NotImplemented) {
					// log and continue; see the design notes on the 32X's
					// deliberately unimplemented bus regions
					logger.Log("sdlplay", err.Error())
					continue
				}
				return err
			}
			if effect == hardware.FrameRendered {
				break
			}
		}

		// throttle: let the audio queue drain to real time
		for aud.QueuedAhead() {
			sdl.Delay(1)
		}
	}
}
