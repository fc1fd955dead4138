package aseparser

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// cursor reads little-endian values from an immutable buffer. The first
// failed read is sticky: later reads return zero values and err keeps the
// original failure.
type cursor struct {
	buf  []byte
	pos  int
	base int // offset of buf[0] within the document
	err  error
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// offset returns the absolute document offset of the next read.
func (c *cursor) offset() int { return c.base + c.pos }

// len returns the number of unread bytes.
func (c *cursor) len() int { return len(c.buf) - c.pos }

func (c *cursor) need(n int) bool {
	if c.err != nil {
		return false
	}
	if n < 0 || n > c.len() {
		c.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, n, c.offset(), c.len())
		return false
	}
	return true
}

func (c *cursor) u8() uint8 {
	if !c.need(1) {
		return 0
	}
	v := c.buf[c.pos]
	c.pos++
	return v
}

func (c *cursor) u16() uint16 {
	if !c.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v
}

func (c *cursor) i16() int16 { return int16(c.u16()) }

func (c *cursor) u32() uint32 {
	if !c.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v
}

// fixed reads a 16.16 fixed point number.
func (c *cursor) fixed() float64 {
	return float64(int32(c.u32())) / 65536
}

// bytes returns the next n bytes without copying.
func (c *cursor) bytes(n int) []byte {
	if !c.need(n) {
		return nil
	}
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b
}

func (c *cursor) skip(n int) {
	if c.need(n) {
		c.pos += n
	}
}

// str reads a WORD length followed by that many bytes of UTF-8.
// Invalid sequences are replaced with U+FFFD.
func (c *cursor) str() string {
	b := c.bytes(int(c.u16()))
	if c.err != nil {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// sub consumes the next n bytes and returns a cursor bounded to them.
func (c *cursor) sub(n int) *cursor {
	base := c.offset()
	b := c.bytes(n)
	if c.err != nil {
		return &cursor{base: base, err: c.err}
	}
	return &cursor{buf: b, base: base}
}
