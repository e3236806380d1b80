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

package logger

import (
	"fmt"
	"io"
	"strings"
)

// the maximum number of entries in the central logger. once the maximum has
// been reached the oldest entries are lost
const maxEntries = 256

type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s", e.tag, e.detail)
}

type logger struct {
	entries []entry

	// the echo writer receives every new entry as it is made. the emulation
	// core itself never writes to an output directly; the host decides where
	// log entries are echoed (or whether they are echoed at all)
	echo io.Writer
}

// the central logger instance. the emulation runs on a single thread so no
// locking is required
var central = &logger{
	entries: make([]entry, 0, maxEntries),
}

// Log adds a new entry to the central logger.
func Log(tag, detail string) {
	// remove trailing newlines. some detail strings originate from error
	// messages or external processes and arrive with one attached
	detail = strings.TrimRight(detail, "\n")

	e := entry{tag: tag, detail: detail}

	if len(central.entries) >= maxEntries {
		central.entries = central.entries[1:]
	}
	central.entries = append(central.entries, e)

	if central.echo != nil {
		central.echo.Write([]byte(e.String() + "\n"))
	}
}

// Logf adds a new formatted entry to the central logger.
func Logf(tag, detail string, args ...any) {
	Log(tag, fmt.Sprintf(detail, args...))
}

// Write contents of central logger to io.Writer.
func Write(output io.Writer) {
	for _, e := range central.entries {
		io.WriteString(output, e.String())
		io.WriteString(output, "\n")
	}
}

// Tail writes the last N entries to io.Writer.
func Tail(output io.Writer, number int) {
	t := len(central.entries) - number
	if t < 0 {
		t = 0
	}

	for _, e := range central.entries[t:] {
		io.WriteString(output, e.String())
		io.WriteString(output, "\n")
	}
}

// SetEcho to print new entries to io.Writer as they arrive. A nil writer
// stops the echoing.
func SetEcho(output io.Writer) {
	central.echo = output
}

// Clear all entries from central logger.
func Clear() {
	central.entries = central.entries[:0]
}
