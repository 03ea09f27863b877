package sse

import "bytes"

// splitLines splits buf into terminated lines and an unterminated tail.
// Accepted terminators are "\r\n", "\n" and a bare "\r"; each returned line
// keeps its terminator bytes. A '\r' as the final byte of buf is ambiguous
// (it may be the first half of a "\r\n" split across chunks), so everything
// from the start of that line onward is left in the tail for the caller to
// carry over into the next chunk.
func splitLines(buf []byte) (lines [][]byte, tail []byte) {
	for len(buf) > 0 {
		i := bytes.IndexAny(buf, "\r\n")
		if i < 0 {
			return lines, buf
		}
		end := i + 1
		if buf[i] == '\r' {
			if i == len(buf)-1 {
				return lines, buf
			}
			if buf[i+1] == '\n' {
				end = i + 2
			}
		}
		lines = append(lines, buf[:end])
		buf = buf[end:]
	}
	return lines, nil
}

// trimTerminator strips one trailing "\r\n", "\n" or bare "\r" from line.
func trimTerminator(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
