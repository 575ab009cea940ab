package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/btree"
	"github.com/robert-malhotra/go-minc/internal/layout"
)

// LoadData materializes the values of every numeric dataset in the tree.
// Contiguous and compact data alias the input buffer when its alignment
// allows. It is a no-op once it has succeeded; a failure leaves the tree
// without a consistent set of loaded values.
func (f *File) LoadData() error {
	if f.loaded {
		return nil
	}
	err := Walk(f.root, func(p string, n *Node) error {
		if err := f.load(n); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	f.loaded = true
	return nil
}

// Loaded reports whether LoadData has completed.
func (f *File) Loaded() bool {
	return f.loaded
}

func (f *File) load(n *Node) error {
	s := n.Storage
	if s == nil || !n.Type.IsNumeric() {
		return nil
	}
	l, err := layout.New(layout.Params{
		Class:     s.Layout,
		Type:      n.Type,
		Dims:      n.Dims,
		Address:   s.Address,
		Size:      s.Size,
		ChunkDims: s.ChunkDims,
		Filters:   s.filters,
		Inflater:  f.opts.inflater,
	})
	if err != nil {
		return err
	}
	switch l := l.(type) {
	case *layout.Contiguous:
		f.log.Debug("contiguous data",
			"name", n.Name, "class", l.Class(), "address", l.Address(), "bytes", l.Bytes())
	case *layout.Chunked:
		l.OnChunk = func(ch btree.ChunkEntry) {
			f.log.Debug("chunk",
				"name", n.Name, "offset", ch.Offset, "address", ch.Address, "size", ch.Size, "mask", ch.FilterMask)
		}
	}
	data, err := l.Read(f.c)
	if err != nil {
		return err
	}
	n.Data = data
	return nil
}
