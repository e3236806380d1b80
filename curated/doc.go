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

// Package curated is a helper package for the plain error type. Curated
// errors are created with the Errorf() function. The pattern string used to
// create the error doubles as a way of identifying the error later, with the
// Is() and Has() functions.
//
// Packages that raise errors worth identifying declare their patterns as
// exported string constants. For example, the cdrom package declares the
// DiscReadInvalidChecksum pattern; a host can test for it with:
//
//	if curated.Has(err, cdrom.DiscReadInvalidChecksum) {
//		...
//	}
//
// Sentinel conditions in the emulation are expressed this way rather than
// with wrapped sentinel values so that message chains are de-duplicated when
// an error crosses several package boundaries on the way out of Tick().
package curated
