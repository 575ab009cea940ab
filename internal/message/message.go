package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Type represents a header message type code.
type Type uint16

// Header message types
const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeExternalDataFiles        Type = 0x0007
	TypeDataLayout               Type = 0x0008
	TypeBogus                    Type = 0x0009
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectComment            Type = 0x000D
	TypeObjectModTimeOld         Type = 0x000E
	TypeSharedMessageTable       Type = 0x000F
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeObjectModTime            Type = 0x0012
	TypeBTreeKValues             Type = 0x0013
	TypeDriverInfo               Type = 0x0014
	TypeAttributeInfo            Type = 0x0015
	TypeObjectRefCount           Type = 0x0016
	TypeFileSpaceInfo            Type = 0x0018
)

var typeNames = map[Type]string{
	TypeNIL:                      "NIL",
	TypeDataspace:                "Dataspace",
	TypeLinkInfo:                 "LinkInfo",
	TypeDatatype:                 "Datatype",
	TypeFillValueOld:             "FillValueOld",
	TypeFillValue:                "FillValue",
	TypeLink:                     "Link",
	TypeExternalDataFiles:        "ExternalDataFiles",
	TypeDataLayout:               "Layout",
	TypeBogus:                    "Bogus",
	TypeGroupInfo:                "GroupInfo",
	TypeFilterPipeline:           "FilterPipeline",
	TypeAttribute:                "Attribute",
	TypeObjectComment:            "ObjectComment",
	TypeObjectModTimeOld:         "ObjectModTimeOld",
	TypeSharedMessageTable:       "SharedMessageTable",
	TypeObjectHeaderContinuation: "Continuation",
	TypeSymbolTable:              "SymbolTable",
	TypeObjectModTime:            "ObjectModTime",
	TypeBTreeKValues:             "BTreeKValues",
	TypeDriverInfo:               "DriverInfo",
	TypeAttributeInfo:            "AttributeInfo",
	TypeObjectRefCount:           "ObjectRefCount",
	TypeFileSpaceInfo:            "FileSpaceInfo",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(0x%04x)", uint16(t))
}

// Message header flag bits.
const (
	FlagConstant uint8 = 0x01
	FlagShared   uint8 = 0x02
)

// Message is the interface implemented by all decoded header messages.
type Message interface {
	Type() Type
}

// Decode decodes one message body of the given type and declared size,
// starting at the cursor's position. On success the cursor is left at the
// end of the body.
func Decode(c *binary.Cursor, typ Type, size uint64, flags uint8) (Message, error) {
	start := c.Pos()
	if flags&FlagShared != 0 && typ != TypeNIL {
		return nil, fmt.Errorf("%w: shared %s message at 0x%x", hdferr.ErrUnsupportedEncoding, typ, start)
	}

	var (
		m   Message
		err error
	)
	switch typ {
	case TypeDataspace:
		m, err = decodeDataspace(c, size)
	case TypeLinkInfo:
		m, err = decodeLinkInfo(c)
	case TypeDatatype:
		m, err = decodeDatatype(c, size)
	case TypeLink:
		m, err = decodeLink(c)
	case TypeDataLayout:
		m, err = decodeLayout(c)
	case TypeGroupInfo:
		m, err = decodeGroupInfo(c)
	case TypeFilterPipeline:
		m, err = decodeFilterPipeline(c)
	case TypeAttribute:
		m, err = DecodeAttribute(c, size)
	case TypeObjectHeaderContinuation:
		m, err = decodeContinuation(c)
	case TypeSymbolTable:
		m, err = decodeSymbolTable(c)
	case TypeAttributeInfo:
		m, err = decodeAttributeInfo(c)
	case TypeExternalDataFiles:
		err = fmt.Errorf("%w: external data files", hdferr.ErrUnsupportedEncoding)
	case TypeSharedMessageTable:
		err = fmt.Errorf("%w: shared object header message table", hdferr.ErrUnsupportedEncoding)
	default:
		m = &Unknown{typ: typ, size: size}
	}
	if err != nil {
		return nil, fmt.Errorf("%s message at 0x%x: %w", typ, start, err)
	}
	if err := finish(c, start, size); err != nil {
		return nil, fmt.Errorf("%s message: %w", typ, err)
	}
	return m, nil
}

// finish moves the cursor to the end of a body of the given size, failing if
// the decoder already read past it.
func finish(c *binary.Cursor, start, size uint64) error {
	end := start + size
	if c.Pos() > end {
		return fmt.Errorf("%w: body at 0x%x read %d bytes, declared %d",
			hdferr.ErrMalformedInput, start, c.Pos()-start, size)
	}
	return c.Seek(end)
}

// Unknown is a message whose body was skipped.
type Unknown struct {
	typ  Type
	size uint64
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Size() uint64 { return m.size }

// Continuation points at the next block of an object header.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

func decodeContinuation(c *binary.Cursor) (*Continuation, error) {
	var (
		m   Continuation
		err error
	)
	if m.Offset, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if m.Length, err = c.ReadLength(); err != nil {
		return nil, err
	}
	return &m, nil
}
