package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

// Contiguous reads compact and contiguous storage, both a single run of
// bytes in the buffer.
type Contiguous struct {
	class   message.LayoutClass
	typ     dtype.ElementType
	count   uint64
	nbytes  uint64
	address uint64
	size    uint64
}

func (l *Contiguous) Class() message.LayoutClass {
	return l.class
}

// Address returns the offset of the first value.
func (l *Contiguous) Address() uint64 {
	return l.address
}

// Bytes returns the number of bytes the values occupy.
func (l *Contiguous) Bytes() uint64 {
	return l.nbytes
}

func (l *Contiguous) Read(c *binary.Cursor) (dtype.Array, error) {
	if l.class == message.LayoutContiguous && c.IsUndefinedOffset(l.address) {
		return zeros(l.typ, l.count)
	}
	nbytes := l.nbytes
	if l.size > 0 && l.size < nbytes {
		return nil, fmt.Errorf("%w: %d bytes stored for %d %s elements",
			hdferr.ErrMalformedInput, l.size, l.count, l.typ)
	}
	raw, err := c.Slice(l.address, l.address+nbytes)
	if err != nil {
		return nil, err
	}
	return dtype.View(l.typ, raw)
}
