package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"unsafe"

	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Number is the set of Go types an Array can hold.
type Number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~float32 | ~float64
}

// Array is a numeric payload of a single element type.
type Array interface {
	Type() ElementType
	Len() int
	// At returns element i converted to float64.
	At(i int) float64
	// CopyFrom copies n elements of src starting at srcOff into the receiver
	// starting at dstOff. Both arrays must share an element type.
	CopyFrom(dstOff int, src Array, srcOff, n int) error
}

// Values is the Array implementation for a Go slice of T.
type Values[T Number] struct {
	typ ElementType
	v   []T
}

// Of wraps v as an Array. The slice is not copied.
func Of[T Number](v ...T) *Values[T] {
	return &Values[T]{typ: typeOf[T](), v: v}
}

func (a *Values[T]) Type() ElementType { return a.typ }
func (a *Values[T]) Len() int          { return len(a.v) }
func (a *Values[T]) At(i int) float64  { return float64(a.v[i]) }

// Slice returns the underlying values.
func (a *Values[T]) Slice() []T { return a.v }

func (a *Values[T]) CopyFrom(dstOff int, src Array, srcOff, n int) error {
	s, ok := src.(*Values[T])
	if !ok {
		return fmt.Errorf("%w: cannot copy %s elements into %s array",
			hdferr.ErrMalformedInput, src.Type(), a.typ)
	}
	if dstOff < 0 || srcOff < 0 || n < 0 || dstOff+n > len(a.v) || srcOff+n > len(s.v) {
		return fmt.Errorf("%w: copy of %d elements (%d->%d) out of bounds",
			hdferr.ErrMalformedInput, n, srcOff, dstOff)
	}
	copy(a.v[dstOff:dstOff+n], s.v[srcOff:srcOff+n])
	return nil
}

func typeOf[T Number]() ElementType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case uint8:
		return UInt8
	case int16:
		return Int16
	case uint16:
		return UInt16
	case int32:
		return Int32
	case uint32:
		return UInt32
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Unresolved
}

// Float64s converts every element of a to float64.
func Float64s(a Array) []float64 {
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = a.At(i)
	}
	return out
}

// MaxAllocBytes bounds arrays that are allocated rather than viewed from the
// input: unallocated storage and chunk assembly destinations.
const MaxAllocBytes = 1 << 32

// Count returns the number of elements dims describe, 1 for a scalar.
func Count(dims []uint64) (uint64, error) {
	n := uint64(1)
	for _, d := range dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, fmt.Errorf("%w: dimensions %v overflow the element count",
				hdferr.ErrMalformedInput, dims)
		}
		n = lo
	}
	return n, nil
}

// ByteLen returns the size in bytes of count elements of size bytes each.
func ByteLen(count uint64, size int) (uint64, error) {
	hi, lo := bits.Mul64(count, uint64(size))
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d elements of %d bytes overflow",
			hdferr.ErrMalformedInput, count, size)
	}
	return lo, nil
}

// Make allocates a zeroed array of n elements of type t. Arrays larger than
// MaxAllocBytes are rejected.
func Make(t ElementType, n uint64) (Array, error) {
	if size := t.Size(); size > 0 && n > MaxAllocBytes/uint64(size) {
		return nil, fmt.Errorf("%w: %d %s elements exceed the %d-byte allocation limit",
			hdferr.ErrMalformedInput, n, t, uint64(MaxAllocBytes))
	}
	switch t {
	case Int8:
		return Of(make([]int8, n)...), nil
	case UInt8:
		return Of(make([]uint8, n)...), nil
	case Int16:
		return Of(make([]int16, n)...), nil
	case UInt16:
		return Of(make([]uint16, n)...), nil
	case Int32:
		return Of(make([]int32, n)...), nil
	case UInt32:
		return Of(make([]uint32, n)...), nil
	case Float32:
		return Of(make([]float32, n)...), nil
	case Float64:
		return Of(make([]float64, n)...), nil
	}
	return nil, fmt.Errorf("%w: no array representation for %s", hdferr.ErrUnsupportedEncoding, t)
}

// View interprets little-endian bytes as an array of t. len(b) must be a
// multiple of the element size. On little-endian hosts with a naturally
// aligned b the result aliases b; otherwise the values are copied.
func View(t ElementType, b []byte) (Array, error) {
	size := t.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: no array representation for %s", hdferr.ErrUnsupportedEncoding, t)
	}
	if len(b)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %s elements",
			hdferr.ErrMalformedInput, len(b), t)
	}
	switch t {
	case Int8:
		return Of(view[int8](b, func(p []byte) int8 { return int8(p[0]) })...), nil
	case UInt8:
		return Of(view[uint8](b, func(p []byte) uint8 { return p[0] })...), nil
	case Int16:
		return Of(view[int16](b, func(p []byte) int16 { return int16(binary.LittleEndian.Uint16(p)) })...), nil
	case UInt16:
		return Of(view[uint16](b, binary.LittleEndian.Uint16)...), nil
	case Int32:
		return Of(view[int32](b, func(p []byte) int32 { return int32(binary.LittleEndian.Uint32(p)) })...), nil
	case UInt32:
		return Of(view[uint32](b, binary.LittleEndian.Uint32)...), nil
	case Float32:
		return Of(view[float32](b, func(p []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(p)) })...), nil
	default:
		return Of(view[float64](b, func(p []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(p)) })...), nil
	}
}

func view[T Number](b []byte, decode func([]byte) T) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	n := len(b) / size
	if n == 0 {
		return []T{}
	}
	if hostLittleEndian && uintptr(unsafe.Pointer(&b[0]))%uintptr(size) == 0 {
		return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
	}
	out := make([]T, n)
	for i := range out {
		out[i] = decode(b[i*size:])
	}
	return out
}

// Aliases reports whether a shares memory with b. It is used by tests to
// check which path View took.
func Aliases(a Array, b []byte) bool {
	if len(b) == 0 || a.Len() == 0 {
		return false
	}
	var p unsafe.Pointer
	switch v := a.(type) {
	case *Values[int8]:
		p = unsafe.Pointer(&v.v[0])
	case *Values[uint8]:
		p = unsafe.Pointer(&v.v[0])
	case *Values[int16]:
		p = unsafe.Pointer(&v.v[0])
	case *Values[uint16]:
		p = unsafe.Pointer(&v.v[0])
	case *Values[int32]:
		p = unsafe.Pointer(&v.v[0])
	case *Values[uint32]:
		p = unsafe.Pointer(&v.v[0])
	case *Values[float32]:
		p = unsafe.Pointer(&v.v[0])
	case *Values[float64]:
		p = unsafe.Pointer(&v.v[0])
	}
	return p == unsafe.Pointer(&b[0])
}

var hostLittleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()
