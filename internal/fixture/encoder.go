package fixture

import (
	encbinary "encoding/binary"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
)

// Message type codes written by the encoder.
const (
	TypeDataspace     uint16 = 0x0001
	TypeLinkInfo      uint16 = 0x0002
	TypeDatatype      uint16 = 0x0003
	TypeFillValue     uint16 = 0x0005
	TypeLink          uint16 = 0x0006
	TypeExternal      uint16 = 0x0007
	TypeLayout        uint16 = 0x0008
	TypeGroupInfo     uint16 = 0x000A
	TypeFilter        uint16 = 0x000B
	TypeAttribute     uint16 = 0x000C
	TypeComment       uint16 = 0x000D
	TypeContinuation  uint16 = 0x0010
	TypeSymbolTable   uint16 = 0x0011
	TypeModTime       uint16 = 0x0012
	TypeAttributeInfo uint16 = 0x0015
)

// Msg is one object header message before framing.
type Msg struct {
	Type  uint16
	Flags uint8
	Body  []byte
}

// Encoder writes message bodies with the given offset and length widths.
type Encoder struct {
	Config binary.Config
}

func (e Encoder) writer() *binary.Writer {
	return binary.NewWriter(e.Config)
}

// Values encodes v as little-endian bytes.
func Values[T dtype.Number](v ...T) []byte {
	b, err := encbinary.Append(nil, encbinary.LittleEndian, v)
	if err != nil {
		panic(err)
	}
	return b
}

// Dataspace encodes a version 1 dataspace. No dimensions means a scalar.
func (e Encoder) Dataspace(dims ...uint64) Msg {
	w := e.writer()
	w.WriteUint8(1)
	w.WriteUint8(uint8(len(dims)))
	w.WriteUint8(0)
	w.WriteZeros(5)
	for _, d := range dims {
		w.WriteLength(d)
	}
	return Msg{Type: TypeDataspace, Body: w.Bytes()}
}

// DataspaceV2 encodes a version 2 dataspace with maximum dimensions.
func (e Encoder) DataspaceV2(dims ...uint64) Msg {
	w := e.writer()
	w.WriteUint8(2)
	w.WriteUint8(uint8(len(dims)))
	w.WriteUint8(0x01)
	w.WriteUint8(1)
	for _, d := range dims {
		w.WriteLength(d)
	}
	for _, d := range dims {
		w.WriteLength(d)
	}
	return Msg{Type: TypeDataspace, Body: w.Bytes()}
}

// DataspaceNull encodes a version 2 dataspace holding no elements.
func (e Encoder) DataspaceNull() Msg {
	w := e.writer()
	w.WriteUint8(2)
	w.WriteUint8(0)
	w.WriteUint8(0)
	w.WriteUint8(2)
	return Msg{Type: TypeDataspace, Body: w.Bytes()}
}

// Int encodes a little-endian fixed-point datatype of size bytes.
func (e Encoder) Int(size int, signed bool) Msg {
	w := e.writer()
	w.WriteUint8(0x10)
	var bits uint8
	if signed {
		bits = 0x08
	}
	w.WriteBytes([]byte{bits, 0, 0})
	w.WriteUint32(uint32(size))
	w.WriteUint16(0)
	w.WriteUint16(uint16(size * 8))
	return Msg{Type: TypeDatatype, Body: w.Bytes()}
}

// Float encodes an IEEE little-endian floating-point datatype of 4 or 8 bytes.
func (e Encoder) Float(size int) Msg {
	expLoc, expSize, mantSize, bias := uint8(23), uint8(8), uint8(23), uint32(127)
	if size == 8 {
		expLoc, expSize, mantSize, bias = 52, 11, 52, 1023
	}
	w := e.writer()
	w.WriteUint8(0x11)
	w.WriteBytes([]byte{0x20, uint8(size*8 - 1), 0})
	w.WriteUint32(uint32(size))
	w.WriteUint16(0)
	w.WriteUint16(uint16(size * 8))
	w.WriteBytes([]byte{expLoc, expSize, 0, mantSize})
	w.WriteUint32(bias)
	return Msg{Type: TypeDatatype, Body: w.Bytes()}
}

// FloatBigEndian encodes a big-endian 4-byte float datatype.
func (e Encoder) FloatBigEndian() Msg {
	m := e.Float(4)
	m.Body[1] |= 0x01
	return m
}

// String encodes a fixed-length, null-terminated ASCII string datatype.
func (e Encoder) String(size int) Msg {
	w := e.writer()
	w.WriteUint8(0x13)
	w.WriteBytes([]byte{0, 0, 0})
	w.WriteUint32(uint32(size))
	return Msg{Type: TypeDatatype, Body: w.Bytes()}
}

// Compound encodes the prefix of a compound datatype.
func (e Encoder) Compound(size int) Msg {
	w := e.writer()
	w.WriteUint8(0x16)
	w.WriteBytes([]byte{0, 0, 0})
	w.WriteUint32(uint32(size))
	return Msg{Type: TypeDatatype, Body: w.Bytes()}
}

// Attribute encodes an attribute message. Version 1 pads the name, datatype
// and dataspace fields to multiples of 8.
func (e Encoder) Attribute(version uint8, name string, dt, ds Msg, value []byte) Msg {
	pad := func(n int) int {
		if version == 1 {
			return (n + 7) &^ 7
		}
		return n
	}
	w := e.writer()
	w.WriteUint8(version)
	w.WriteUint8(0)
	w.WriteUint16(uint16(len(name) + 1))
	w.WriteUint16(uint16(len(dt.Body)))
	w.WriteUint16(uint16(len(ds.Body)))
	if version == 3 {
		w.WriteUint8(0)
	}
	w.WriteString(name, pad(len(name)+1))
	w.WriteBytes(dt.Body)
	w.WriteZeros(pad(len(dt.Body)) - len(dt.Body))
	w.WriteBytes(ds.Body)
	w.WriteZeros(pad(len(ds.Body)) - len(ds.Body))
	w.WriteBytes(value)
	return Msg{Type: TypeAttribute, Body: w.Bytes()}
}

// TextAttribute encodes a scalar string attribute.
func (e Encoder) TextAttribute(version uint8, name, text string) Msg {
	n := len(text) + 1
	return e.Attribute(version, name, e.String(n), e.Dataspace(), append([]byte(text), 0))
}

// Float64Attribute encodes a one-dimensional double attribute.
func (e Encoder) Float64Attribute(version uint8, name string, v ...float64) Msg {
	return e.Attribute(version, name, e.Float(8), e.Dataspace(uint64(len(v))), Values(v...))
}

// Contiguous encodes a version 3 contiguous layout.
func (e Encoder) Contiguous(addr, size uint64) Msg {
	w := e.writer()
	w.WriteUint8(3)
	w.WriteUint8(1)
	w.WriteOffset(addr)
	w.WriteLength(size)
	return Msg{Type: TypeLayout, Body: w.Bytes()}
}

// NoData encodes a version 3 contiguous layout with an undefined address.
func (e Encoder) NoData() Msg {
	w := e.writer()
	w.WriteUint8(3)
	w.WriteUint8(1)
	w.WriteUndefinedOffset()
	w.WriteLength(0)
	return Msg{Type: TypeLayout, Body: w.Bytes()}
}

// Compact encodes a version 3 compact layout holding data inline.
func (e Encoder) Compact(data []byte) Msg {
	w := e.writer()
	w.WriteUint8(3)
	w.WriteUint8(0)
	w.WriteUint16(uint16(len(data)))
	w.WriteBytes(data)
	return Msg{Type: TypeLayout, Body: w.Bytes()}
}

// Chunked encodes a version 3 chunked layout rooted at a raw-data B-tree.
func (e Encoder) Chunked(btree uint64, elemSize uint32, chunkDims ...uint32) Msg {
	w := e.writer()
	w.WriteUint8(3)
	w.WriteUint8(2)
	w.WriteUint8(uint8(len(chunkDims) + 1))
	w.WriteOffset(btree)
	for _, d := range chunkDims {
		w.WriteUint32(d)
	}
	w.WriteUint32(elemSize)
	return Msg{Type: TypeLayout, Body: w.Bytes()}
}

// ChunkedV1 encodes a version 1 chunked layout.
func (e Encoder) ChunkedV1(btree uint64, elemSize uint32, chunkDims ...uint32) Msg {
	w := e.writer()
	w.WriteUint8(1)
	w.WriteUint8(uint8(len(chunkDims) + 1))
	w.WriteUint8(2)
	w.WriteZeros(5)
	w.WriteOffset(btree)
	for _, d := range chunkDims {
		w.WriteUint32(d)
	}
	w.WriteUint32(elemSize)
	w.WriteUint32(elemSize)
	return Msg{Type: TypeLayout, Body: w.Bytes()}
}

// ContiguousV1 encodes a version 1 contiguous layout. The data length is
// derived by the reader from the dataspace.
func (e Encoder) ContiguousV1(addr uint64, dims ...uint32) Msg {
	w := e.writer()
	w.WriteUint8(1)
	w.WriteUint8(uint8(len(dims)))
	w.WriteUint8(1)
	w.WriteZeros(5)
	w.WriteOffset(addr)
	for _, d := range dims {
		w.WriteUint32(d)
	}
	return Msg{Type: TypeLayout, Body: w.Bytes()}
}

// Pipeline encodes a version 1 filter pipeline with the given filter IDs,
// each carrying one client data value.
func (e Encoder) Pipeline(ids ...uint16) Msg {
	w := e.writer()
	w.WriteUint8(1)
	w.WriteUint8(uint8(len(ids)))
	w.WriteZeros(6)
	for _, id := range ids {
		w.WriteUint16(id)
		w.WriteUint16(8)
		w.WriteUint16(0)
		w.WriteUint16(1)
		w.WriteString("deflate", 8)
		w.WriteUint32(6)
		w.WriteUint32(0)
	}
	return Msg{Type: TypeFilter, Body: w.Bytes()}
}

// Deflate encodes a version 2 pipeline holding only the deflate filter.
func (e Encoder) Deflate() Msg {
	w := e.writer()
	w.WriteUint8(2)
	w.WriteUint8(1)
	w.WriteUint16(1)
	w.WriteUint16(0)
	w.WriteUint16(1)
	w.WriteUint32(6)
	return Msg{Type: TypeFilter, Body: w.Bytes()}
}

// Link encodes a hard link with a one-byte name length.
func (e Encoder) Link(name string, addr uint64) Msg {
	w := e.writer()
	w.WriteUint8(1)
	w.WriteUint8(0x00)
	w.WriteUint8(uint8(len(name)))
	w.WriteBytes([]byte(name))
	w.WriteOffset(addr)
	return Msg{Type: TypeLink, Body: w.Bytes()}
}

// SoftLink encodes a soft link to a path.
func (e Encoder) SoftLink(name, target string) Msg {
	w := e.writer()
	w.WriteUint8(1)
	w.WriteUint8(0x08 | 0x04)
	w.WriteUint8(1)
	w.WriteUint64(7)
	w.WriteUint8(uint8(len(name)))
	w.WriteBytes([]byte(name))
	w.WriteUint16(uint16(len(target)))
	w.WriteBytes([]byte(target))
	return Msg{Type: TypeLink, Body: w.Bytes()}
}

// LinkInfo encodes a link info message for compact link storage.
func (e Encoder) LinkInfo() Msg {
	w := e.writer()
	w.WriteUint8(0)
	w.WriteUint8(0)
	w.WriteUndefinedOffset()
	w.WriteUndefinedOffset()
	return Msg{Type: TypeLinkInfo, Body: w.Bytes()}
}

// DenseLinkInfo encodes a link info message pointing at a fractal heap.
func (e Encoder) DenseLinkInfo(heap, btree uint64) Msg {
	w := e.writer()
	w.WriteUint8(0)
	w.WriteUint8(0)
	w.WriteOffset(heap)
	w.WriteOffset(btree)
	return Msg{Type: TypeLinkInfo, Body: w.Bytes()}
}

// GroupInfo encodes an empty group info message.
func (e Encoder) GroupInfo() Msg {
	return Msg{Type: TypeGroupInfo, Body: []byte{0, 0}}
}

// SymbolTable encodes a symbol table message.
func (e Encoder) SymbolTable(btree, heap uint64) Msg {
	w := e.writer()
	w.WriteOffset(btree)
	w.WriteOffset(heap)
	return Msg{Type: TypeSymbolTable, Body: w.Bytes()}
}

// AttributeInfo encodes an attribute info message.
func (e Encoder) AttributeInfo(heap, btree uint64) Msg {
	w := e.writer()
	w.WriteUint8(0)
	w.WriteUint8(0)
	w.WriteOffset(heap)
	w.WriteOffset(btree)
	return Msg{Type: TypeAttributeInfo, Body: w.Bytes()}
}

// Continuation encodes a header continuation message.
func (e Encoder) Continuation(addr, length uint64) Msg {
	w := e.writer()
	w.WriteOffset(addr)
	w.WriteLength(length)
	return Msg{Type: TypeContinuation, Body: w.Bytes()}
}
