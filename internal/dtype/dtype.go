package dtype

import "math"

// ElementType identifies how a dataset or attribute value is stored.
type ElementType uint8

const (
	Unresolved ElementType = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
	String
)

var typeNames = [...]string{
	Unresolved: "unresolved",
	Int8:       "int8",
	UInt8:      "uint8",
	Int16:      "int16",
	UInt16:     "uint16",
	Int32:      "int32",
	UInt32:     "uint32",
	Float32:    "float32",
	Float64:    "float64",
	String:     "string",
}

func (t ElementType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Size returns the stored size of one element in bytes, or 0 for String and
// Unresolved whose size is carried by the datatype message.
func (t ElementType) Size() int {
	switch t {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether t is a floating-point type.
func (t ElementType) IsFloat() bool {
	return t == Float32 || t == Float64
}

// IsInteger reports whether t is a fixed-point type.
func (t ElementType) IsInteger() bool {
	return t >= Int8 && t <= UInt32
}

// IsNumeric reports whether values of t can be held in an Array.
func (t ElementType) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

// Range returns the natural value range of t. Float types span the whole
// float64 range. ok is false for non-numeric types.
func (t ElementType) Range() (lo, hi float64, ok bool) {
	switch t {
	case Int8:
		return math.MinInt8, math.MaxInt8, true
	case UInt8:
		return 0, math.MaxUint8, true
	case Int16:
		return math.MinInt16, math.MaxInt16, true
	case UInt16:
		return 0, math.MaxUint16, true
	case Int32:
		return math.MinInt32, math.MaxInt32, true
	case UInt32:
		return 0, math.MaxUint32, true
	case Float32, Float64:
		return -math.MaxFloat64, math.MaxFloat64, true
	default:
		return 0, 0, false
	}
}

// FixedPoint returns the integer type of the given byte size and signedness.
func FixedPoint(size int, signed bool) (ElementType, bool) {
	switch {
	case size == 1 && signed:
		return Int8, true
	case size == 1:
		return UInt8, true
	case size == 2 && signed:
		return Int16, true
	case size == 2:
		return UInt16, true
	case size == 4 && signed:
		return Int32, true
	case size == 4:
		return UInt32, true
	}
	return Unresolved, false
}
