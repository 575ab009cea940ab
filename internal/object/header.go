package object

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

// SignatureV2 marks a version 2 object header.
const SignatureV2 = "OHDR"

// Options control header reading.
type Options struct {
	// VerifyChecksum checks the lookup3 checksum of every v2 chunk.
	VerifyChecksum bool
}

// Header is a parsed object header.
type Header struct {
	// Version is the object header version (1 or 2)
	Version uint8

	// Address is the file address where this header was found
	Address uint64

	// Flags contains header flags (v2 only)
	Flags uint8

	// RefCount is the reference count for this object (v1 only)
	RefCount uint32

	// Messages holds every message in file order, including NIL and
	// continuation messages.
	Messages []message.Message

	// Timestamps (v2 only, if flag bit 5 is set)
	AccessTime uint32
	ModTime    uint32
	ChangeTime uint32
	BirthTime  uint32
}

// block is a span of message bytes: a header's first chunk or a
// continuation block.
type block struct {
	start, end uint64
}

// Read parses the object header at addr.
func Read(c *binary.Cursor, addr uint64, opts Options) (*Header, error) {
	hc := c.At(addr)
	peek, err := hc.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("object header at 0x%x: %w", addr, err)
	}

	var h *Header
	switch {
	case string(peek) == SignatureV2:
		h, err = readV2(hc, addr, opts)
	case peek[0] == 1:
		h, err = readV1(hc, addr)
	default:
		err = fmt.Errorf("%w: object header version %d", hdferr.ErrUnsupportedVersion, peek[0])
	}
	if err != nil {
		return nil, fmt.Errorf("object header at 0x%x: %w", addr, err)
	}
	return h, nil
}

// queue is the continuation queue of one header.
type queue struct {
	blocks []block
	seen   map[uint64]bool
}

func (q *queue) push(cont *message.Continuation) error {
	if q.seen == nil {
		q.seen = make(map[uint64]bool)
	}
	if q.seen[cont.Offset] {
		return fmt.Errorf("%w: continuation block 0x%x referenced twice", hdferr.ErrMalformedInput, cont.Offset)
	}
	q.seen[cont.Offset] = true
	q.blocks = append(q.blocks, block{start: cont.Offset, end: cont.Offset + cont.Length})
	return nil
}

func (q *queue) pop() (block, bool) {
	if len(q.blocks) == 0 {
		return block{}, false
	}
	b := q.blocks[0]
	q.blocks = q.blocks[1:]
	return b, true
}

// GetMessage returns the first message of the given type, or nil if not found.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns all messages of the given type.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

func first[T message.Message](h *Header, typ message.Type) T {
	msg, _ := h.GetMessage(typ).(T)
	return msg
}

// Dataspace returns the dataspace message if present.
func (h *Header) Dataspace() *message.Dataspace {
	return first[*message.Dataspace](h, message.TypeDataspace)
}

// Datatype returns the datatype message if present.
func (h *Header) Datatype() *message.Datatype {
	return first[*message.Datatype](h, message.TypeDatatype)
}

// Layout returns the data layout message if present.
func (h *Header) Layout() *message.Layout {
	return first[*message.Layout](h, message.TypeDataLayout)
}

// FilterPipeline returns the filter pipeline message if present.
func (h *Header) FilterPipeline() *message.FilterPipeline {
	return first[*message.FilterPipeline](h, message.TypeFilterPipeline)
}

// SymbolTable returns the symbol table message if present.
func (h *Header) SymbolTable() *message.SymbolTable {
	return first[*message.SymbolTable](h, message.TypeSymbolTable)
}

// LinkInfo returns the link info message if present.
func (h *Header) LinkInfo() *message.LinkInfo {
	return first[*message.LinkInfo](h, message.TypeLinkInfo)
}

// AttributeInfo returns the attribute info message if present.
func (h *Header) AttributeInfo() *message.AttributeInfo {
	return first[*message.AttributeInfo](h, message.TypeAttributeInfo)
}

// Links returns the link messages in file order.
func (h *Header) Links() []*message.Link {
	var links []*message.Link
	for _, msg := range h.Messages {
		if l, ok := msg.(*message.Link); ok {
			links = append(links, l)
		}
	}
	return links
}

// Attributes returns the inline attribute messages in file order.
func (h *Header) Attributes() []*message.Attribute {
	var attrs []*message.Attribute
	for _, msg := range h.Messages {
		if a, ok := msg.(*message.Attribute); ok {
			attrs = append(attrs, a)
		}
	}
	return attrs
}
