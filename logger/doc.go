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

// Package logger is the central log for the emulation. It keeps a bounded
// in-memory history of entries which the host can inspect with Write() or
// Tail(), or stream live with SetEcho().
//
// Emulation packages never format to an output stream themselves; conditions
// worth reporting (an unrecognised register write, an unimplemented mapper
// command) are logged here and the host decides what to do with them.
package logger
