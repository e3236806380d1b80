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

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jetsetilly/gophergen/cartridgeloader"
	"github.com/jetsetilly/gophergen/curated"
	"github.com/jetsetilly/gophergen/gui/sdlplay"
	"github.com/jetsetilly/gophergen/hardware"
	"github.com/jetsetilly/gophergen/hardware/gameboy"
	"github.com/jetsetilly/gophergen/logger"
)

const defaultOutputRate = 48000

func main() {
	log := flag.Bool("log", false, "echo log entries to stderr")
	flag.Parse()

	if *log {
		logger.SetEcho(os.Stderr)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gophergen [options] <rom file>")
		os.Exit(2)
	}

	if err := play(flag.Arg(0)); err != nil {
		if curated.Is(err, sdlplay.UserQuit) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "* %v\n", err)
		logger.Tail(os.Stderr, 10)
		os.Exit(1)
	}
}

func play(romFile string) error {
	ld, err := cartridgeloader.Load(romFile)
	if err != nil {
		return err
	}

	logger.Logf("gophergen", "%s: %s (%s)", romFile, ld.Kind, ld.Timing)

	sys, err := createSystem(ld, sdlplay.SaveWriter{RomFile: romFile})
	if err != nil {
		return err
	}

	return sdlplay.Play(sys, romFile, defaultOutputRate)
}

// createSystem builds the system root for the detected console.
//
// The consoles whose system packages take a CPU core through an interface
// (the Z80, 68000, 6502, SH-2 and 65816 machines) have no core bundled in
// this tree; their packages are complete up to that interface and are
// exercised by their tests. Only the Game Boy, whose SM83 is the bundled
// representative CPU implementation, is playable from the command line.
func createSystem(ld *cartridgeloader.Loader, saves sdlplay.SaveWriter) (hardware.System, error) {
	switch ld.Kind {
	case cartridgeloader.KindGameBoy:
		save := &gameboy.SaveData{
			SRAM: saves.LoadBlob("sram"),
			RTC:  saves.LoadBlob("rtc"),
		}
		return gameboy.Create(ld.Data, gameboy.DefaultConfig(), save, hardware.WallClock{})
	}

	return nil, curated.Errorf("gophergen: no CPU core is bundled for %s; see the %s package for the interface a core plugs into",
		ld.Kind, packageFor(ld.Kind))
}

func packageFor(kind cartridgeloader.SystemKind) string {
	switch kind {
	case cartridgeloader.KindSMS, cartridgeloader.KindGameGear:
		return "hardware/smsgg"
	case cartridgeloader.KindGenesis:
		return "hardware/genesis"
	case cartridgeloader.KindNES:
		return "hardware/nes"
	case cartridgeloader.KindSNES:
		return "hardware/snes"
	case cartridgeloader.KindSega32X:
		return "hardware/s32x"
	case cartridgeloader.KindSegaCD:
		return "hardware/segacd"
	}
	return "hardware"
}
