package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// DatatypeClass represents the class of a datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0  // Integers
	ClassFloatPoint DatatypeClass = 1  // Floating-point
	ClassTime       DatatypeClass = 2  // Time
	ClassString     DatatypeClass = 3  // Fixed-length strings
	ClassBitfield   DatatypeClass = 4  // Bitfields
	ClassOpaque     DatatypeClass = 5  // Opaque data
	ClassCompound   DatatypeClass = 6  // Compound types (structs)
	ClassReference  DatatypeClass = 7  // References to objects/regions
	ClassEnum       DatatypeClass = 8  // Enumerated types
	ClassVarLen     DatatypeClass = 9  // Variable-length data
	ClassArray      DatatypeClass = 10 // Fixed-size arrays
)

var classNames = [...]string{
	"fixed-point", "floating-point", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enumerated", "variable-length", "array",
}

func (c DatatypeClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Datatype describes the element encoding of a dataset or attribute
// (type 0x0003).
type Datatype struct {
	Version uint8
	Class   DatatypeClass
	Size    uint32

	// Element is the decoded element type. Time datatypes are Unresolved.
	Element dtype.ElementType

	// Fixed-point
	Signed bool

	// Fixed-point and floating-point
	BitOffset    uint16
	BitPrecision uint16

	// Floating-point
	ExponentLocation uint8
	ExponentSize     uint8
	MantissaLocation uint8
	MantissaSize     uint8
	ExponentBias     uint32

	// String
	Padding uint8
	CharSet uint8
}

func (m *Datatype) Type() Type { return TypeDatatype }

type ieeeLayout struct {
	size      uint32
	precision uint16
	expLoc    uint8
	expSize   uint8
	mantSize  uint8
	bias      uint32
	element   dtype.ElementType
}

var ieeeLayouts = []ieeeLayout{
	{4, 32, 23, 8, 23, 127, dtype.Float32},
	{8, 64, 52, 11, 52, 1023, dtype.Float64},
}

/*
Datatype Layout:
Offset  Size  Description
0       1     Class (bits 0-3) and version (bits 4-7)
1       3     Class bit field
4       4     Size in bytes
8       var   Class properties
*/

func decodeDatatype(c *binary.Cursor, size uint64) (*Datatype, error) {
	start := c.Pos()
	cv, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	bits, err := c.ReadBytes(3)
	if err != nil {
		return nil, err
	}
	m := &Datatype{Version: cv >> 4, Class: DatatypeClass(cv & 0x0f)}
	if m.Version < 1 || m.Version > 3 {
		return nil, fmt.Errorf("%w: datatype version %d", hdferr.ErrUnsupportedVersion, m.Version)
	}
	if m.Size, err = c.ReadUint32(); err != nil {
		return nil, err
	}

	switch m.Class {
	case ClassFixedPoint:
		err = m.decodeFixedPoint(c, bits[0])
	case ClassFloatPoint:
		err = m.decodeFloatPoint(c, bits[0])
	case ClassTime:
		m.Element = dtype.Unresolved
		m.BitPrecision, err = c.ReadUint16()
	case ClassString:
		m.Element = dtype.String
		m.Padding = bits[0] & 0x0f
		m.CharSet = bits[0] >> 4
	default:
		err = fmt.Errorf("%w: %s datatype", hdferr.ErrUnsupportedEncoding, m.Class)
	}
	if err != nil {
		return nil, err
	}
	if size > 0 {
		if err := finish(c, start, size); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Datatype) decodeFixedPoint(c *binary.Cursor, bits uint8) error {
	if bits&0x01 != 0 {
		return fmt.Errorf("%w: big-endian integers", hdferr.ErrUnsupportedEncoding)
	}
	m.Signed = bits&0x08 != 0
	var err error
	if m.BitOffset, err = c.ReadUint16(); err != nil {
		return err
	}
	if m.BitPrecision, err = c.ReadUint16(); err != nil {
		return err
	}
	elem, ok := dtype.FixedPoint(int(m.Size), m.Signed)
	if !ok {
		return fmt.Errorf("%w: %d-byte integers", hdferr.ErrUnsupportedEncoding, m.Size)
	}
	m.Element = elem
	return nil
}

func (m *Datatype) decodeFloatPoint(c *binary.Cursor, bits uint8) error {
	switch bits & 0x41 {
	case 0x00:
	case 0x01:
		return fmt.Errorf("%w: big-endian floating point", hdferr.ErrUnsupportedEncoding)
	case 0x41:
		return fmt.Errorf("%w: VAX floating point", hdferr.ErrUnsupportedEncoding)
	default:
		return fmt.Errorf("%w: reserved floating-point byte order 0x%02x", hdferr.ErrUnsupportedEncoding, bits)
	}
	var err error
	if m.BitOffset, err = c.ReadUint16(); err != nil {
		return err
	}
	if m.BitPrecision, err = c.ReadUint16(); err != nil {
		return err
	}
	props, err := c.ReadBytes(4)
	if err != nil {
		return err
	}
	m.ExponentLocation, m.ExponentSize = props[0], props[1]
	m.MantissaLocation, m.MantissaSize = props[2], props[3]
	if m.ExponentBias, err = c.ReadUint32(); err != nil {
		return err
	}
	for _, l := range ieeeLayouts {
		if m.Size == l.size && m.BitPrecision == l.precision && m.BitOffset == 0 &&
			m.ExponentLocation == l.expLoc && m.ExponentSize == l.expSize &&
			m.MantissaLocation == 0 && m.MantissaSize == l.mantSize && m.ExponentBias == l.bias {
			m.Element = l.element
			return nil
		}
	}
	return fmt.Errorf("%w: non-IEEE floating point (size %d, precision %d, exponent %d/%d, mantissa %d/%d, bias %d)",
		hdferr.ErrUnsupportedEncoding, m.Size, m.BitPrecision, m.ExponentLocation, m.ExponentSize,
		m.MantissaLocation, m.MantissaSize, m.ExponentBias)
}
