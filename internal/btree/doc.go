// Package btree reads the B-tree structures of an HDF5 file.
//
// Two independent trees are involved:
//
//   - V1 B-trees (signature "TREE"). Type 0 nodes index the members of a
//     group; their leaves point at symbol table nodes ("SNOD") whose entries
//     name members through a [heap.LocalHeap]. Type 1 nodes index the chunks
//     of a chunked dataset; keys carry the chunk size, filter mask and
//     element offsets.
//
//   - V2 B-trees (signature "BTHD"). Only the header is read. Dense
//     attributes are resolved through the fractal heap, and the header's
//     record count is used to detect attribute sets the heap walk cannot
//     see.
//
// [ReadGroupEntries] and [ReadChunks] walk their trees in order. [Grid]
// places decoded chunks into a dataset-sized [dtype.Array].
package btree
