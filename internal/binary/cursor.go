// Package binary provides the byte-level decoding primitives shared by every
// stage of the reader: a positioned cursor over an in-memory buffer, the
// Jenkins lookup3 checksum, and an append-only writer used to assemble
// synthetic files.
package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Config holds the width parameters for a cursor, typically derived from the
// superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // 2, 4, or 8 bytes
	LengthSize int // 2, 4, or 8 bytes
}

// DefaultConfig returns a little-endian configuration with 8-byte offsets and
// lengths, suitable for reading the superblock prologue.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Cursor reads fixed and variable-width values from an immutable buffer.
// Every read advances the position; reading past the end of the buffer fails
// with hdferr.ErrTruncatedInput and leaves the position unchanged.
type Cursor struct {
	buf        []byte
	order      binary.ByteOrder
	offsetSize int
	lengthSize int
	pos        uint64
}

// NewCursor creates a cursor at position 0 of buf.
func NewCursor(buf []byte, cfg Config) *Cursor {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &Cursor{
		buf:        buf,
		order:      order,
		offsetSize: cfg.OffsetSize,
		lengthSize: cfg.LengthSize,
	}
}

// At returns an independent cursor over the same buffer positioned at pos.
// The position is validated by the first read, not here.
func (c *Cursor) At(pos uint64) *Cursor {
	cc := *c
	cc.pos = pos
	return &cc
}

// WithSizes returns a copy of the cursor using new offset and length widths.
func (c *Cursor) WithSizes(offsetSize, lengthSize int) *Cursor {
	cc := *c
	cc.offsetSize = offsetSize
	cc.lengthSize = lengthSize
	return &cc
}

// Pos returns the current position.
func (c *Cursor) Pos() uint64 {
	return c.pos
}

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() uint64 {
	return uint64(len(c.buf))
}

// Remaining returns the number of unread bytes after the current position.
func (c *Cursor) Remaining() uint64 {
	if c.pos >= uint64(len(c.buf)) {
		return 0
	}
	return uint64(len(c.buf)) - c.pos
}

// Seek moves the cursor to an absolute position. Seeking to the end of the
// buffer is allowed; seeking beyond it is not.
func (c *Cursor) Seek(pos uint64) error {
	if pos > uint64(len(c.buf)) {
		return fmt.Errorf("%w: seek to 0x%x beyond end 0x%x", hdferr.ErrTruncatedInput, pos, len(c.buf))
	}
	c.pos = pos
	return nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n uint64) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Align advances the position to the next multiple of to, measured relative
// to origin rather than to the start of the buffer.
func (c *Cursor) Align(to, origin uint64) error {
	if to <= 1 || c.pos < origin {
		return nil
	}
	if rem := (c.pos - origin) % to; rem != 0 {
		return c.Skip(to - rem)
	}
	return nil
}

func (c *Cursor) need(n uint64) error {
	if c.pos > uint64(len(c.buf)) || n > uint64(len(c.buf))-c.pos {
		return fmt.Errorf("%w: need %d bytes at 0x%x, buffer is %d bytes",
			hdferr.ErrTruncatedInput, n, c.pos, len(c.buf))
	}
	return nil
}

// ReadBytes returns the next n bytes as a view into the buffer. The returned
// slice aliases the input and must not be modified.
func (c *Cursor) ReadBytes(n uint64) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// Peek returns the next n bytes without advancing.
func (c *Cursor) Peek(n uint64) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	return c.buf[c.pos : c.pos+n : c.pos+n], nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (c *Cursor) ReadUint8() (uint8, error) {
	b, err := c.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (c *Cursor) ReadUint64() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(b), nil
}

// ReadFloat32 reads an IEEE-754 single.
func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE-754 double.
func (c *Cursor) ReadFloat64() (float64, error) {
	v, err := c.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadUintN reads an unsigned integer of n bytes, 1 <= n <= 8.
func (c *Cursor) ReadUintN(n int) (uint64, error) {
	if n < 1 || n > 8 {
		return 0, fmt.Errorf("%w: integer width %d", hdferr.ErrMalformedInput, n)
	}
	b, err := c.ReadBytes(uint64(n))
	if err != nil {
		return 0, err
	}
	return c.decodeUint(b), nil
}

// ReadOffset reads a file address using the configured offset width.
func (c *Cursor) ReadOffset() (uint64, error) {
	return c.ReadUintN(c.offsetSize)
}

// ReadLength reads a length using the configured length width.
func (c *Cursor) ReadLength() (uint64, error) {
	return c.ReadUintN(c.lengthSize)
}

func (c *Cursor) decodeUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(c.order.Uint16(b))
	case 4:
		return uint64(c.order.Uint32(b))
	case 8:
		return c.order.Uint64(b)
	}
	var v uint64
	if c.order == binary.BigEndian {
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// ReadString reads a field of max bytes and returns its contents up to the
// first zero byte. The whole field is consumed either way.
func (c *Cursor) ReadString(max uint64) (string, error) {
	b, err := c.ReadBytes(max)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// ExpectSignature consumes len(sig) bytes and fails with
// hdferr.ErrMalformedInput if they differ from sig.
func (c *Cursor) ExpectSignature(sig string) error {
	start := c.pos
	b, err := c.ReadBytes(uint64(len(sig)))
	if err != nil {
		return err
	}
	if string(b) != sig {
		return fmt.Errorf("%w: bad or missing %s signature at 0x%x", hdferr.ErrMalformedInput, sig, start)
	}
	return nil
}

// IsUndefinedOffset reports whether addr is the all-ones "undefined address"
// value for the configured offset width.
func (c *Cursor) IsUndefinedOffset(addr uint64) bool {
	if c.offsetSize >= 8 {
		return addr == math.MaxUint64
	}
	return addr == uint64(1)<<(8*c.offsetSize)-1
}

// Slice returns buf[start:end] or a truncation error.
func (c *Cursor) Slice(start, end uint64) ([]byte, error) {
	if start > end || end > uint64(len(c.buf)) {
		return nil, fmt.Errorf("%w: range [0x%x, 0x%x) outside %d-byte buffer",
			hdferr.ErrTruncatedInput, start, end, len(c.buf))
	}
	return c.buf[start:end:end], nil
}

// OffsetSize returns the configured offset width in bytes.
func (c *Cursor) OffsetSize() int {
	return c.offsetSize
}

// LengthSize returns the configured length width in bytes.
func (c *Cursor) LengthSize() int {
	return c.lengthSize
}

// ByteOrder returns the configured byte order.
func (c *Cursor) ByteOrder() binary.ByteOrder {
	return c.order
}
