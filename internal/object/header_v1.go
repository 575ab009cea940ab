package object

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

/*
Version 1 Object Header Layout:
Offset  Size  Description
0       1     Version (1)
1       1     Reserved
2       2     Number of header messages
4       4     Object reference count
8       4     Object header size (bytes of messages in the first block)
12      4     Padding to an 8-byte boundary
16      var   Header messages

Each V1 Message:
0       2     Message type
2       2     Size of message data (a multiple of 8)
4       1     Flags
5       3     Reserved
8       var   Message data
*/

const v1MessageHeaderSize = 8

func readV1(c *binary.Cursor, addr uint64) (*Header, error) {
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if err := c.Skip(1); err != nil {
		return nil, err
	}
	numMessages, err := c.ReadUint16()
	if err != nil {
		return nil, err
	}
	refCount, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	headerSize, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	if err := c.Align(8, addr); err != nil {
		return nil, err
	}

	h := &Header{
		Version:  version,
		Address:  addr,
		RefCount: refCount,
		Messages: make([]message.Message, 0, numMessages),
	}
	start := c.Pos()
	q := &queue{blocks: []block{{start: start, end: start + uint64(headerSize)}}}
	for {
		blk, ok := q.pop()
		if !ok {
			return h, nil
		}
		if err := readV1Block(c, h, blk, int(numMessages), q); err != nil {
			return nil, err
		}
	}
}

// readV1Block decodes messages from one block until the block is exhausted
// or the header's message count is reached. Alignment is relative to the
// block start.
func readV1Block(c *binary.Cursor, h *Header, blk block, numMessages int, q *queue) error {
	if blk.end > c.Len() {
		return fmt.Errorf("%w: message block [0x%x, 0x%x) beyond end of file", hdferr.ErrTruncatedInput, blk.start, blk.end)
	}
	if err := c.Seek(blk.start); err != nil {
		return err
	}
	for len(h.Messages) < numMessages && c.Pos()+v1MessageHeaderSize <= blk.end {
		typ, err := c.ReadUint16()
		if err != nil {
			return err
		}
		size, err := c.ReadUint16()
		if err != nil {
			return err
		}
		flags, err := c.ReadUint8()
		if err != nil {
			return err
		}
		if err := c.Skip(3); err != nil {
			return err
		}
		if size%8 != 0 {
			return fmt.Errorf("%w: v1 message of type %d has size %d, not a multiple of 8",
				hdferr.ErrMalformedInput, typ, size)
		}
		if c.Pos()+uint64(size) > blk.end {
			return fmt.Errorf("%w: v1 message at 0x%x overruns its block", hdferr.ErrMalformedInput, c.Pos())
		}

		msg, err := message.Decode(c, message.Type(typ), uint64(size), flags)
		if err != nil {
			return err
		}
		h.Messages = append(h.Messages, msg)
		if cont, ok := msg.(*message.Continuation); ok {
			if err := q.push(cont); err != nil {
				return err
			}
		}
		if err := c.Align(8, blk.start); err != nil {
			return err
		}
	}
	return nil
}
