// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import "strings"

// MaxPendingLine is the longest partial line a reader should keep buffered
// while waiting for a terminator. Real sentences are under 83 bytes.
const MaxPendingLine = 4096

// Buffer is the framing state carried between reads: the bytes after the
// last line terminator seen so far. The zero value is an empty buffer.
//
// A Buffer never contains '\n'.
type Buffer struct {
	tail string
}

// Len reports how many bytes are waiting for a terminator.
func (b Buffer) Len() int { return len(b.tail) }

// Pending returns the buffered partial line.
func (b Buffer) Pending() string { return b.tail }

// Frame appends chunk to buf and splits the result on '\n'.
//
// Every complete line is returned trimmed of surrounding whitespace (which
// also removes the '\r' of a CRLF terminator), in stream order. Blank lines
// are dropped. Whatever follows the last terminator is returned as the new
// Buffer, so a sentence split across any number of chunks comes out exactly
// once, on the call that delivers its terminator.
//
// chunk is copied; callers may reuse it after Frame returns.
func Frame(buf Buffer, chunk []byte) (Buffer, []string) {
	if len(chunk) == 0 {
		return buf, nil
	}

	data := buf.tail + string(chunk)
	last := strings.LastIndexByte(data, '\n')
	if last < 0 {
		return Buffer{tail: data}, nil
	}

	var lines []string
	for _, line := range strings.Split(data[:last], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return Buffer{tail: data[last+1:]}, lines
}
