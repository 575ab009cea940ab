// Package heap reads the two HDF5 heaps needed to resolve names and dense
// attributes.
//
// # Local Heap
//
// The [LocalHeap] (signature "HEAP") holds the member names of a v0/v1
// group as null-terminated strings in one flat data segment. Symbol table
// entries refer to names by offset into that segment:
//
//	lh, err := heap.ReadLocalHeap(c, heapAddress)
//	name, err := lh.GetString(nameOffset)
//
// # Fractal Heap
//
// The [FractalHeap] (signature "FRHP") stores densely packed objects such as
// attribute messages. Only heaps whose managed objects all live in a single
// root direct block (signature "FHDB") are supported; indirect roots,
// filtered objects, and huge or tiny objects fail with
// hdferr.ErrUnsupportedEncoding:
//
//	fh, err := heap.ReadFractalHeap(c, heapAddress, false)
//	blk, err := fh.RootBlock(c)
//	// managed objects start at blk.Start and end before blk.End
package heap
