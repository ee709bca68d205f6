package sse

import "unicode/utf8"

// Decoder converts arriving byte chunks into text. Network reads can split
// a multi-byte UTF-8 sequence across two chunks; the trailing incomplete
// bytes are held back until the rest of the rune arrives, so decoded output
// never contains a garbled boundary rune.
type Decoder struct {
	pending []byte
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode appends a chunk and returns all complete text decoded so far.
// Bytes belonging to an unfinished rune are retained for the next call.
func (d *Decoder) Decode(chunk []byte) string {
	buf := append(d.pending, chunk...)
	cut := completePrefixLen(buf)
	d.pending = append([]byte(nil), buf[cut:]...)
	return string(buf[:cut])
}

// Pending returns how many bytes are held back waiting for the rest of a
// rune. Useful for asserting a stream ended cleanly.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// Flush returns whatever is held back, decoded permissively. Only called
// at end of stream, where a dangling partial rune is genuinely truncated.
func (d *Decoder) Flush() string {
	out := string(d.pending)
	d.pending = nil
	return out
}

// completePrefixLen finds the length of the longest prefix of buf that
// ends on a rune boundary. At most utf8.UTFMax-1 bytes can be incomplete.
func completePrefixLen(buf []byte) int {
	n := len(buf)
	for i := 0; i < utf8.UTFMax-1 && n > 0; i++ {
		b := buf[n-1]
		if b < utf8.RuneSelf {
			return n
		}
		if utf8.RuneStart(b) {
			// A lead byte at the tail is incomplete unless the sequence
			// it starts fits entirely in the buffer.
			if utf8.FullRune(buf[n-1:]) {
				return len(buf)
			}
			return n - 1
		}
		n--
	}
	return len(buf)
}
