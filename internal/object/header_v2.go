package object

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

/*
Version 2 Object Header Layout:
Offset  Size  Description
0       4     Signature ("OHDR")
4       1     Version (2)
5       1     Flags
                Bit 0-1: Size of chunk#0 size field (1 << value bytes)
                Bit 2: Track attribute creation order
                Bit 3: Index attribute creation order
                Bit 4: Store non-default attribute storage phase change values
                Bit 5: Store access, modification, change, birth times
6       var   Access, modification, change, birth times (4 bytes each, if bit 5)
var     var   Max compact / min dense attributes (2 bytes each, if bit 4)
var     1-8   Size of chunk#0
var     var   Header messages
var     4     Checksum

Each V2 Message:
0       1     Message type
1       2     Size of message data
3       1     Flags
4       2     Creation order (if header flag bit 2 set)
var     var   Message data

Continuation Block:
0       4     Signature ("OCHK")
4       var   Header messages
var     4     Checksum
*/

const signatureContinuation = "OCHK"

func readV2(c *binary.Cursor, addr uint64, opts Options) (*Header, error) {
	if err := c.ExpectSignature(SignatureV2); err != nil {
		return nil, err
	}
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: OHDR version %d", hdferr.ErrUnsupportedVersion, version)
	}
	flags, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	h := &Header{Version: version, Address: addr, Flags: flags}

	if flags&0x20 != 0 {
		for _, t := range []*uint32{&h.AccessTime, &h.ModTime, &h.ChangeTime, &h.BirthTime} {
			if *t, err = c.ReadUint32(); err != nil {
				return nil, err
			}
		}
	}
	if flags&0x10 != 0 {
		if err := c.Skip(4); err != nil {
			return nil, err
		}
	}
	chunk0Size, err := c.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}

	start := c.Pos()
	blk := block{start: start, end: start + chunk0Size}
	if blk.end+4 > c.Len() {
		return nil, fmt.Errorf("%w: OHDR chunk [0x%x, 0x%x) beyond end of file", hdferr.ErrTruncatedInput, blk.start, blk.end)
	}
	if opts.VerifyChecksum {
		if err := c.VerifyChecksum(addr, blk.end); err != nil {
			return nil, err
		}
	}

	q := &queue{}
	trackOrder := flags&0x04 != 0
	for {
		if err := readV2Block(c, h, blk, trackOrder, q); err != nil {
			return nil, err
		}
		cont, ok := q.pop()
		if !ok {
			return h, nil
		}
		if blk, err = openContinuation(c, cont, opts); err != nil {
			return nil, err
		}
	}
}

// openContinuation checks an OCHK block and returns the span of its messages.
func openContinuation(c *binary.Cursor, cont block, opts Options) (block, error) {
	if cont.end < cont.start+8 || cont.end > c.Len() {
		return block{}, fmt.Errorf("%w: continuation block [0x%x, 0x%x)", hdferr.ErrMalformedInput, cont.start, cont.end)
	}
	if err := c.Seek(cont.start); err != nil {
		return block{}, err
	}
	if err := c.ExpectSignature(signatureContinuation); err != nil {
		return block{}, err
	}
	if opts.VerifyChecksum {
		if err := c.VerifyChecksum(cont.start, cont.end-4); err != nil {
			return block{}, err
		}
	}
	return block{start: cont.start + 4, end: cont.end - 4}, nil
}

// readV2Block decodes packed messages until fewer bytes than a message
// header remain; such a tail is a gap.
func readV2Block(c *binary.Cursor, h *Header, blk block, trackOrder bool, q *queue) error {
	hdrSize := uint64(4)
	if trackOrder {
		hdrSize += 2
	}
	if err := c.Seek(blk.start); err != nil {
		return err
	}
	for c.Pos()+hdrSize <= blk.end {
		typ, err := c.ReadUint8()
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
		if trackOrder {
			if err := c.Skip(2); err != nil {
				return err
			}
		}
		if c.Pos()+uint64(size) > blk.end {
			return fmt.Errorf("%w: v2 message at 0x%x overruns its chunk", hdferr.ErrMalformedInput, c.Pos())
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
	}
	return nil
}
