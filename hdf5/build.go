package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/btree"
	"github.com/robert-malhotra/go-minc/internal/heap"
	"github.com/robert-malhotra/go-minc/internal/message"
	"github.com/robert-malhotra/go-minc/internal/object"
)

// builder walks object headers from the root and assembles the node tree.
// One builder serves one Parse call.
type builder struct {
	f *File
	c *binary.Cursor

	// active holds the header addresses on the current path from the root.
	active map[uint64]bool
}

func newBuilder(f *File) *builder {
	return &builder{f: f, c: f.c, active: make(map[uint64]bool)}
}

// rootSymbolTable returns the symbol table cached in a v0/v1 superblock's
// root entry, used when the root header itself carries none.
func (b *builder) rootSymbolTable() *message.SymbolTable {
	sb := b.f.sb
	if !sb.HasRootSymbolTable {
		return nil
	}
	return &message.SymbolTable{BTreeAddress: sb.RootBTreeAddress, LocalHeapAddress: sb.RootHeapAddress}
}

func (b *builder) build(name string, addr uint64, depth int, cached *message.SymbolTable) (*Node, error) {
	if depth > b.f.opts.maxDepth {
		return nil, fmt.Errorf("%w: %q is nested deeper than %d levels",
			ErrMalformedInput, name, b.f.opts.maxDepth)
	}
	if b.active[addr] {
		return nil, fmt.Errorf("%w: %q at 0x%x links back to one of its ancestors",
			ErrMalformedInput, name, addr)
	}
	b.active[addr] = true
	defer delete(b.active, addr)

	h, err := object.Read(b.c, addr, object.Options{VerifyChecksum: b.f.opts.verifyChecksum})
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	b.f.log.Debug("object header",
		"name", name, "address", addr, "version", h.Version, "messages", len(h.Messages))
	for _, m := range h.Messages {
		b.f.log.Debug("message", "object", name, "type", m.Type().String())
	}

	n := &Node{Name: name, HeaderAddress: addr}
	if err := b.describe(n, h); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	if err := b.children(n, h, depth, cached); err != nil {
		return nil, err
	}
	return n, nil
}

// describe fills in the node's own shape, type, storage and attributes.
func (b *builder) describe(n *Node, h *object.Header) error {
	if ds := h.Dataspace(); ds != nil {
		n.Dims = ds.Dimensions
	}
	if dt := h.Datatype(); dt != nil {
		n.Type = dt.Element
	}
	if l := h.Layout(); l != nil {
		s := &Storage{
			Layout:    l.Class,
			Address:   l.Address,
			Size:      l.Size,
			ChunkDims: l.ChunkDims,
		}
		if l.Class == message.LayoutChunked {
			s.Size = l.ChunkBytes()
			if dt := h.Datatype(); dt != nil && uint64(l.ElementSize) != uint64(dt.Size) {
				return fmt.Errorf("%w: chunk element size %d, datatype size %d",
					ErrMalformedInput, l.ElementSize, dt.Size)
			}
		}
		if fp := h.FilterPipeline(); fp != nil {
			s.filters = fp
			s.Deflate = fp.Deflate()
		}
		n.Storage = s
	}

	for _, a := range h.Attributes() {
		n.Attributes = append(n.Attributes, newAttribute(a))
	}
	if ai := h.AttributeInfo(); ai != nil {
		dense, err := b.denseAttributes(ai)
		if err != nil {
			return err
		}
		n.Attributes = append(n.Attributes, dense...)
	}
	return nil
}

// denseAttributes decodes the attribute messages packed in the fractal
// heap's single direct block. The name index is read only to confirm that
// the block holds every attribute it lists.
func (b *builder) denseAttributes(ai *message.AttributeInfo) ([]*Attribute, error) {
	if b.c.IsUndefinedOffset(ai.FractalHeapAddress) {
		return nil, nil
	}
	verify := b.f.opts.verifyChecksum
	fh, err := heap.ReadFractalHeap(b.c, ai.FractalHeapAddress, verify)
	if err != nil {
		return nil, err
	}
	blk, err := fh.RootBlock(b.c)
	if err != nil || blk == nil {
		return nil, err
	}
	b.f.log.Debug("dense attributes",
		"heap", fh.Address, "block", blk.Address, "objects", fh.ManagedObjects)

	var attrs []*Attribute
	bc := b.c.At(blk.Start)
	for i := uint64(0); i < fh.ManagedObjects; i++ {
		m, err := message.DecodeAttribute(bc, 0)
		if err != nil {
			return nil, fmt.Errorf("dense attribute %d: %w", i, err)
		}
		if bc.Pos() > blk.End {
			return nil, fmt.Errorf("%w: dense attribute %q overruns its heap block",
				ErrMalformedInput, m.Name)
		}
		attrs = append(attrs, newAttribute(m))
	}

	if !b.c.IsUndefinedOffset(ai.NameBTreeAddress) {
		bh, err := btree.ReadV2Header(b.c, ai.NameBTreeAddress, verify)
		if err != nil {
			return nil, err
		}
		if bh.TotalRecords > uint64(len(attrs)) {
			return nil, fmt.Errorf("%w: attribute index lists %d attributes, heap block holds %d",
				ErrUnsupportedEncoding, bh.TotalRecords, len(attrs))
		}
	}
	return attrs, nil
}

// children discovers and builds the node's members, from a symbol table
// for legacy groups or from link messages otherwise.
func (b *builder) children(n *Node, h *object.Header, depth int, cached *message.SymbolTable) error {
	st := h.SymbolTable()
	if st == nil {
		st = cached
	}
	if st != nil {
		lh, err := heap.ReadLocalHeap(b.c, st.LocalHeapAddress)
		if err != nil {
			return fmt.Errorf("%q: %w", n.Name, err)
		}
		entries, err := btree.ReadGroupEntries(b.c, st.BTreeAddress, lh)
		if err != nil {
			return fmt.Errorf("%q: %w", n.Name, err)
		}
		b.f.log.Debug("symbol table", "group", n.Name, "btree", st.BTreeAddress, "members", len(entries))
		for _, e := range entries {
			var cache *message.SymbolTable
			if e.CacheType == btree.CacheSymbolTable {
				cache = &message.SymbolTable{BTreeAddress: e.BTreeAddress, LocalHeapAddress: e.HeapAddress}
			}
			child, err := b.build(e.Name, e.ObjectAddress, depth+1, cache)
			if err != nil {
				return err
			}
			n.Children = append(n.Children, child)
		}
	}

	if li := h.LinkInfo(); li != nil && !b.c.IsUndefinedOffset(li.FractalHeapAddress) {
		return fmt.Errorf("%w: %q stores its links densely", ErrUnsupportedEncoding, n.Name)
	}
	for _, l := range h.Links() {
		if !l.IsHard() {
			b.f.log.Debug("skipping link", "group", n.Name, "name", l.Name, "link_type", l.LinkType)
			continue
		}
		child, err := b.build(l.Name, l.ObjectAddress, depth+1, nil)
		if err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}
