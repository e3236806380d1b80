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

// Package audio converts the raw outputs of the emulated audio chips into
// the single stereo stream delivered to the host.
//
// Each chip produces samples at a rate derived from its console's master
// clock: the Mixer owns one sinc Resampler per chip, applies optional
// chip-level IIR filtering (the Genesis Model 1 low-pass, the Sega CD PCM
// low-pass), a per-source gain, then sums and clips. Rates are carried as
// integers scaled by a fixed factor so that output timing never drifts
// against the emulated clocks.
package audio
