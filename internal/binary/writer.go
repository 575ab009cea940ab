package binary

import (
	"encoding/binary"
	"math"
)

// Writer appends encoded values to a growing buffer. It mirrors Cursor's
// widths so that any value a Cursor reads can be produced here, and supports
// back-patching fields whose values are only known after later blocks are
// laid out.
type Writer struct {
	buf        []byte
	order      byteOrder
	offsetSize int
	lengthSize int
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// NewWriter creates an empty writer with the given configuration.
func NewWriter(cfg Config) *Writer {
	order, ok := cfg.ByteOrder.(byteOrder)
	if !ok {
		order = binary.LittleEndian
	}
	return &Writer{
		order:      order,
		offsetSize: cfg.OffsetSize,
		lengthSize: cfg.LengthSize,
	}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Pos returns the offset at which the next value will be written.
func (w *Writer) Pos() uint64 {
	return uint64(len(w.buf))
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint8 appends an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 appends an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = w.order.AppendUint16(w.buf, v)
}

// WriteUint32 appends an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = w.order.AppendUint32(w.buf, v)
}

// WriteUint64 appends an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = w.order.AppendUint64(w.buf, v)
}

// WriteFloat32 appends an IEEE-754 single.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends an IEEE-754 double.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteUintN appends the low n bytes of v.
func (w *Writer) WriteUintN(v uint64, n int) {
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	w.putUint(w.buf[start:], v)
}

// WriteOffset appends an address using the configured offset width.
func (w *Writer) WriteOffset(v uint64) {
	w.WriteUintN(v, w.offsetSize)
}

// WriteLength appends a length using the configured length width.
func (w *Writer) WriteLength(v uint64) {
	w.WriteUintN(v, w.lengthSize)
}

// WriteUndefinedOffset appends the all-ones address.
func (w *Writer) WriteUndefinedOffset() {
	w.WriteUintN(math.MaxUint64, w.offsetSize)
}

// WriteZeros appends n zero bytes.
func (w *Writer) WriteZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// WriteString appends s zero-padded (or truncated) to exactly n bytes.
func (w *Writer) WriteString(s string, n int) {
	start := len(w.buf)
	w.WriteZeros(n)
	copy(w.buf[start:], s)
}

// Align pads with zeros until the position is a multiple of to relative to
// origin.
func (w *Writer) Align(to, origin uint64) {
	if to <= 1 {
		return
	}
	if rem := (w.Pos() - origin) % to; rem != 0 {
		w.WriteZeros(int(to - rem))
	}
}

// PadTo pads with zeros until the buffer is at least pos bytes long.
func (w *Writer) PadTo(pos uint64) {
	if pos > w.Pos() {
		w.WriteZeros(int(pos - w.Pos()))
	}
}

// PutUintNAt overwrites n bytes at pos with v.
func (w *Writer) PutUintNAt(pos uint64, v uint64, n int) {
	w.putUint(w.buf[pos:pos+uint64(n)], v)
}

// PutOffsetAt overwrites an address field at pos.
func (w *Writer) PutOffsetAt(pos, v uint64) {
	w.PutUintNAt(pos, v, w.offsetSize)
}

// PutLengthAt overwrites a length field at pos.
func (w *Writer) PutLengthAt(pos, v uint64) {
	w.PutUintNAt(pos, v, w.lengthSize)
}

// WriteChecksum appends the lookup3 checksum of everything from start to the
// current position.
func (w *Writer) WriteChecksum(start uint64) {
	w.WriteUint32(Lookup3(w.buf[start:]))
}

func (w *Writer) putUint(dst []byte, v uint64) {
	switch len(dst) {
	case 1:
		dst[0] = byte(v)
	case 2:
		w.order.PutUint16(dst, uint16(v))
	case 4:
		w.order.PutUint32(dst, uint32(v))
	case 8:
		w.order.PutUint64(dst, v)
	default:
		if w.order == binary.BigEndian {
			for i := len(dst) - 1; i >= 0; i-- {
				dst[i] = byte(v)
				v >>= 8
			}
			return
		}
		for i := range dst {
			dst[i] = byte(v)
			v >>= 8
		}
	}
}

// OffsetSize returns the configured offset width in bytes.
func (w *Writer) OffsetSize() int {
	return w.offsetSize
}

// LengthSize returns the configured length width in bytes.
func (w *Writer) LengthSize() int {
	return w.lengthSize
}
