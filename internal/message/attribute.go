package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Attribute is a named value attached to an object (type 0x000C).
type Attribute struct {
	Version   uint8
	Name      string
	CharSet   uint8
	Datatype  *Datatype
	Dataspace *Dataspace

	// Value holds numeric values; Text holds string values. Both are copies
	// and never alias the input buffer.
	Value dtype.Array
	Text  string
}

func (m *Attribute) Type() Type { return TypeAttribute }

// Element returns the attribute's element type.
func (m *Attribute) Element() dtype.ElementType {
	return m.Datatype.Element
}

/*
Attribute Layout:
Offset  Size  Description
0       1     Version (1, 2, or 3)
1       1     Reserved (v1) / flags (v2, v3: bit 0 shared datatype, bit 1 shared dataspace)
2       2     Name size (including null terminator)
4       2     Datatype size
6       2     Dataspace size
8       1     Name character set (v3 only)
..      var   Name       (v1: padded to a multiple of 8)
..      var   Datatype   (v1: padded to a multiple of 8)
..      var   Dataspace  (v1: padded to a multiple of 8)
..      var   Value
*/

// DecodeAttribute decodes an attribute message body. size is the declared
// body size, or 0 when the attribute comes from dense storage and its value
// length must be derived from the datatype and dataspace.
func DecodeAttribute(c *binary.Cursor, size uint64) (*Attribute, error) {
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version < 1 || version > 3 {
		return nil, fmt.Errorf("%w: attribute version %d", hdferr.ErrUnsupportedVersion, version)
	}
	flags, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version > 1 && flags&0x03 != 0 {
		return nil, fmt.Errorf("%w: shared attribute datatype or dataspace", hdferr.ErrUnsupportedEncoding)
	}

	var lens [3]uint64
	for i := range lens {
		v, err := c.ReadUint16()
		if err != nil {
			return nil, err
		}
		lens[i] = uint64(v)
	}
	m := &Attribute{Version: version}
	header := uint64(8)
	if version == 3 {
		if m.CharSet, err = c.ReadUint8(); err != nil {
			return nil, err
		}
		header = 9
	}
	if version == 1 {
		for i := range lens {
			lens[i] = (lens[i] + 7) &^ 7
		}
	}

	if m.Name, err = c.ReadString(lens[0]); err != nil {
		return nil, err
	}
	if m.Datatype, err = decodeDatatype(c, lens[1]); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", m.Name, err)
	}
	if m.Dataspace, err = decodeDataspace(c, lens[2]); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", m.Name, err)
	}

	count, err := m.Dataspace.NumElements()
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", m.Name, err)
	}
	want, err := dtype.ByteLen(count, int(m.Datatype.Size))
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", m.Name, err)
	}
	valueLen := want
	if size > 0 {
		used := header + lens[0] + lens[1] + lens[2]
		if used > size {
			return nil, fmt.Errorf("%w: attribute %q fields exceed message size %d",
				hdferr.ErrMalformedInput, m.Name, size)
		}
		valueLen = size - used
	}

	switch {
	case m.Datatype.Element == dtype.String:
		m.Text, err = c.ReadString(valueLen)
	case m.Datatype.Element.IsNumeric():
		if want > valueLen {
			return nil, fmt.Errorf("%w: attribute %q holds %d bytes, needs %d",
				hdferr.ErrMalformedInput, m.Name, valueLen, want)
		}
		var raw []byte
		if raw, err = c.ReadBytes(want); err == nil {
			m.Value, err = dtype.View(m.Datatype.Element, append([]byte(nil), raw...))
		}
		if err == nil {
			err = c.Skip(valueLen - want)
		}
	default:
		err = c.Skip(valueLen)
	}
	if err != nil {
		return nil, fmt.Errorf("attribute %q value: %w", m.Name, err)
	}
	return m, nil
}
