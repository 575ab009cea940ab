// Package dtype maps stored element encodings onto Go numeric types.
//
// The decoder supports a closed set of element types:
//
//	Element type | Go type | Stored size
//	-------------|---------|------------
//	Int8         | int8    | 1
//	UInt8        | uint8   | 1
//	Int16        | int16   | 2
//	UInt16       | uint16  | 2
//	Int32        | int32   | 4
//	UInt32       | uint32  | 4
//	Float32      | float32 | 4
//	Float64      | float64 | 8
//	String       | string  | declared size
//
// Numeric payloads are exposed through the [Array] interface. [View] builds
// an Array over little-endian bytes, aliasing the input when the host is
// little-endian and the bytes are suitably aligned, and repacking element by
// element otherwise. [Of] wraps an existing Go slice.
//
// # Key Functions
//
//   - [View]: typed view of little-endian bytes
//   - [Make]: zeroed array used as a destination for chunk assembly
//   - [Of]: wrap a Go slice
//   - [ElementType.Range]: natural value range used when valid_range is absent
package dtype
