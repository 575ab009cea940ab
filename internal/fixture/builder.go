package fixture

import (
	"bytes"
	"math"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/go-minc/internal/binary"
)

var signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// Builder lays out an HDF5 file.
type Builder struct {
	Encoder

	w       *binary.Writer
	version uint8
	rootAt  uint64
	eofAt   uint64
	sumAt   uint64
}

// New starts a file with 8-byte offsets and lengths and a superblock of the
// given version (0, 1 or 2).
func New(version uint8) *Builder {
	return NewSized(version, 8, 8)
}

// NewSized starts a file with explicit offset and length widths.
func NewSized(version uint8, offsetSize, lengthSize int) *Builder {
	cfg := binary.Config{OffsetSize: offsetSize, LengthSize: lengthSize}
	b := &Builder{Encoder: Encoder{Config: cfg}, w: binary.NewWriter(cfg), version: version}
	w := b.w
	w.WriteBytes(signature)
	w.WriteUint8(version)
	if version >= 2 {
		w.WriteUint8(uint8(offsetSize))
		w.WriteUint8(uint8(lengthSize))
		w.WriteUint8(0)
		w.WriteOffset(0)
		w.WriteUndefinedOffset()
		b.eofAt = w.Pos()
		w.WriteOffset(0)
		b.rootAt = w.Pos()
		w.WriteOffset(0)
		b.sumAt = w.Pos()
		w.WriteUint32(0)
		return b
	}
	w.WriteZeros(3)
	w.WriteUint8(0)
	w.WriteUint8(uint8(offsetSize))
	w.WriteUint8(uint8(lengthSize))
	w.WriteUint8(0)
	w.WriteUint16(4)
	w.WriteUint16(16)
	w.WriteUint32(0)
	if version == 1 {
		w.WriteUint16(32)
		w.WriteZeros(2)
	}
	w.WriteOffset(0)
	w.WriteUndefinedOffset()
	b.eofAt = w.Pos()
	w.WriteOffset(0)
	w.WriteUndefinedOffset()
	w.WriteOffset(0)
	b.rootAt = w.Pos()
	w.WriteOffset(0)
	w.WriteUint32(0)
	w.WriteUint32(0)
	w.WriteZeros(16)
	return b
}

// Version returns the superblock version.
func (b *Builder) Version() uint8 {
	return b.version
}

// Pos returns the current end of the file.
func (b *Builder) Pos() uint64 {
	return b.w.Pos()
}

// Raw appends p at the next 8-byte boundary and returns its address.
func (b *Builder) Raw(p []byte) uint64 {
	b.w.Align(8, 0)
	addr := b.w.Pos()
	b.w.WriteBytes(p)
	return addr
}

// Finish patches the root and end-of-file addresses and returns the file.
func (b *Builder) Finish(root uint64) []byte {
	b.w.PutOffsetAt(b.rootAt, root)
	b.w.PutOffsetAt(b.eofAt, b.w.Pos())
	buf := b.w.Bytes()
	if b.version >= 2 {
		b.w.PutUintNAt(b.sumAt, uint64(binary.Lookup3(buf[:b.sumAt])), 4)
	}
	return bytes.Clone(buf)
}

// HeaderV1 writes a version 1 object header. The first block holds the
// header's own messages; each further block becomes a continuation block
// chained from the one before it.
func (b *Builder) HeaderV1(blocks ...[]Msg) uint64 {
	if len(blocks) == 0 {
		blocks = [][]Msg{nil}
	}
	var next, nextLen uint64
	total := 0
	for i := len(blocks) - 1; ; i-- {
		msgs := blocks[i]
		if i < len(blocks)-1 {
			msgs = append(msgs[:len(msgs):len(msgs)], b.Continuation(next, nextLen))
		}
		total += len(msgs)
		body := messagesV1(msgs)
		if i > 0 {
			next, nextLen = b.Raw(body), uint64(len(body))
			continue
		}
		b.w.Align(8, 0)
		addr := b.w.Pos()
		b.w.WriteUint8(1)
		b.w.WriteUint8(0)
		b.w.WriteUint16(uint16(total))
		b.w.WriteUint32(1)
		b.w.WriteUint32(uint32(len(body)))
		b.w.WriteZeros(4)
		b.w.WriteBytes(body)
		return addr
	}
}

func messagesV1(msgs []Msg) []byte {
	w := binary.NewWriter(binary.DefaultConfig())
	for _, m := range msgs {
		size := (len(m.Body) + 7) &^ 7
		w.WriteUint16(m.Type)
		w.WriteUint16(uint16(size))
		w.WriteUint8(m.Flags)
		w.WriteZeros(3)
		w.WriteBytes(m.Body)
		w.WriteZeros(size - len(m.Body))
	}
	return w.Bytes()
}

// HeaderV2 writes a version 2 object header with a 4-byte chunk size field.
func (b *Builder) HeaderV2(blocks ...[]Msg) uint64 {
	return b.HeaderV2Flags(0x02, blocks...)
}

// HeaderV2Flags writes a version 2 object header with explicit header
// flags. Bit 2 adds creation order fields, bit 4 the attribute phase change
// values and bit 5 the four timestamps.
func (b *Builder) HeaderV2Flags(flags uint8, blocks ...[]Msg) uint64 {
	if len(blocks) == 0 {
		blocks = [][]Msg{nil}
	}
	var next, nextLen uint64
	for i := len(blocks) - 1; ; i-- {
		msgs := blocks[i]
		if i < len(blocks)-1 {
			msgs = append(msgs[:len(msgs):len(msgs)], b.Continuation(next, nextLen))
		}
		body := messagesV2(flags, msgs)
		b.w.Align(8, 0)
		start := b.w.Pos()
		if i > 0 {
			b.w.WriteBytes([]byte("OCHK"))
			b.w.WriteBytes(body)
			b.w.WriteChecksum(start)
			next, nextLen = start, b.w.Pos()-start
			continue
		}
		b.w.WriteBytes([]byte("OHDR"))
		b.w.WriteUint8(2)
		b.w.WriteUint8(flags)
		if flags&0x20 != 0 {
			for range 4 {
				b.w.WriteUint32(1700000000)
			}
		}
		if flags&0x10 != 0 {
			b.w.WriteUint16(8)
			b.w.WriteUint16(6)
		}
		b.w.WriteUintN(uint64(len(body)), 1<<(flags&0x03))
		b.w.WriteBytes(body)
		b.w.WriteChecksum(start)
		return start
	}
}

func messagesV2(flags uint8, msgs []Msg) []byte {
	w := binary.NewWriter(binary.DefaultConfig())
	for i, m := range msgs {
		w.WriteUint8(uint8(m.Type))
		w.WriteUint16(uint16(len(m.Body)))
		w.WriteUint8(m.Flags)
		if flags&0x04 != 0 {
			w.WriteUint16(uint16(i))
		}
		w.WriteBytes(m.Body)
	}
	return w.Bytes()
}

// Deflate compresses p into a zlib stream.
func Deflate(p []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(p); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (b *Builder) writeUndefinedLength() {
	b.w.WriteUintN(math.MaxUint64, b.w.LengthSize())
}
