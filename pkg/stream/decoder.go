package stream

import (
	"strings"
	"unicode/utf8"
)

// Decoder turns a sequence of byte chunks into text. A multi-byte rune split
// across two chunks is held back until the rest of it arrives; bytes that can
// never form a valid rune are replaced with U+FFFD.
type Decoder struct {
	pending []byte
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode returns the text that is complete after appending chunk.
func (d *Decoder) Decode(chunk []byte) string {
	buf := append(d.pending, chunk...)
	d.pending = nil

	cut := incompleteSuffix(buf)
	if cut > 0 {
		d.pending = append([]byte(nil), buf[len(buf)-cut:]...)
		buf = buf[:len(buf)-cut]
	}
	return strings.ToValidUTF8(string(buf), string(utf8.RuneError))
}

// Flush returns whatever is still held back, with invalid bytes replaced.
func (d *Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	rest := strings.ToValidUTF8(string(d.pending), string(utf8.RuneError))
	d.pending = nil
	return rest
}

// incompleteSuffix reports how many trailing bytes of b are the start of a
// rune that is not finished yet.
func incompleteSuffix(b []byte) int {
	// a rune is at most utf8.UTFMax bytes, so only the tail needs checking
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if !utf8.RuneStart(c) {
			continue
		}
		if utf8.FullRune(b[len(b)-i:]) {
			return 0
		}
		return i
	}
	return 0
}
