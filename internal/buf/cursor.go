// Package buf contains bounds-checked readers over raw hive buffers.
package buf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfBounds is matched by every *OutOfBoundsError.
var ErrOutOfBounds = errors.New("buf: out of bounds")

// OutOfBoundsError reports a read of Size bytes at Offset that does not fit
// inside a buffer of Len bytes. Offset is absolute when the cursor was created
// with a base.
type OutOfBoundsError struct {
	Offset int
	Size   int
	Len    int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("buf: read of %d bytes at 0x%X exceeds buffer of %d bytes", e.Size, e.Offset, e.Len)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// Cursor is a read-only view over a byte slice. Random-access reads take an
// offset relative to the start of the view; the Next* methods read
// sequentially from an internal position.
//
// A Cursor never mutates the underlying buffer.
type Cursor struct {
	b    []byte
	base int
	pos  int
}

// NewCursor wraps b. Offsets reported in errors are relative to b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{b: b}
}

// Len returns the size of the view in bytes.
func (c *Cursor) Len() int { return len(c.b) }

// Base returns the absolute offset of the first byte of the view.
func (c *Cursor) Base() int { return c.base }

// Sub returns a cursor over [at, at+n). Errors from the sub-cursor carry
// offsets absolute to this cursor's origin.
func (c *Cursor) Sub(at, n int) (*Cursor, error) {
	b, err := c.Bytes(at, n)
	if err != nil {
		return nil, err
	}
	return &Cursor{b: b, base: c.base + at}, nil
}

// Bytes returns the slice [at, at+n) without copying.
func (c *Cursor) Bytes(at, n int) ([]byte, error) {
	b, ok := Slice(c.b, at, n)
	if !ok {
		return nil, &OutOfBoundsError{Offset: c.base + at, Size: n, Len: c.base + len(c.b)}
	}
	return b, nil
}

// U8 reads the byte at at.
func (c *Cursor) U8(at int) (uint8, error) {
	b, err := c.Bytes(at, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16 at at.
func (c *Cursor) U16(at int) (uint16, error) {
	b, err := c.Bytes(at, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 reads a little-endian uint32 at at.
func (c *Cursor) U32(at int) (uint32, error) {
	b, err := c.Bytes(at, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64 at at.
func (c *Cursor) U64(at int) (uint64, error) {
	b, err := c.Bytes(at, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// FixedString decodes exactly n bytes at at using enc.
func (c *Cursor) FixedString(at, n int, enc Encoding) (string, error) {
	b, err := c.Bytes(at, n)
	if err != nil {
		return "", err
	}
	return enc.Decode(b)
}

// CString decodes a NUL-terminated string starting at at, scanning at most
// max bytes (max <= 0 scans to the end of the view). terminated is false when
// no terminator was found before the limit; the string up to the limit is
// still returned.
func (c *Cursor) CString(at int, enc Encoding, max int) (s string, terminated bool, err error) {
	if at < 0 || at > len(c.b) {
		return "", false, &OutOfBoundsError{Offset: c.base + at, Size: 0, Len: c.base + len(c.b)}
	}
	window := c.b[at:]
	if max > 0 && max < len(window) {
		window = window[:max]
	}
	unit := enc.UnitSize()
	end := len(window) - len(window)%unit
	for i := 0; i < end; i += unit {
		if isZero(window[i : i+unit]) {
			s, err = enc.Decode(window[:i])
			return s, true, err
		}
	}
	s, err = enc.Decode(window[:end])
	return s, false, err
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Seek moves the sequential read position to at. at may equal Len.
func (c *Cursor) Seek(at int) error {
	if at < 0 || at > len(c.b) {
		return &OutOfBoundsError{Offset: c.base + at, Size: 0, Len: c.base + len(c.b)}
	}
	c.pos = at
	return nil
}

// Pos returns the sequential read position.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of bytes after the sequential position.
func (c *Cursor) Remaining() int { return len(c.b) - c.pos }

// Next returns the next n bytes and advances.
func (c *Cursor) Next(n int) ([]byte, error) {
	b, err := c.Bytes(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

// NextU8 reads one byte and advances.
func (c *Cursor) NextU8() (uint8, error) {
	v, err := c.U8(c.pos)
	if err == nil {
		c.pos++
	}
	return v, err
}

// NextU16 reads a little-endian uint16 and advances.
func (c *Cursor) NextU16() (uint16, error) {
	v, err := c.U16(c.pos)
	if err == nil {
		c.pos += 2
	}
	return v, err
}

// NextU32 reads a little-endian uint32 and advances.
func (c *Cursor) NextU32() (uint32, error) {
	v, err := c.U32(c.pos)
	if err == nil {
		c.pos += 4
	}
	return v, err
}
