// Package layout reads the raw values of a dataset from the storage its
// layout message describes.
//
// Three layout classes are handled:
//
//   - Compact: values stored inside the object header.
//   - Contiguous: values stored in one block of the file. An undefined
//     address means no storage was allocated and reads as zeros.
//   - Chunked: fixed-size chunks indexed by a version 1 raw-data B-tree,
//     each optionally compressed by the filter pipeline. Chunks are placed
//     by their key offsets and clipped at the dataset edges.
//
// Compact and contiguous reads return arrays that alias the input buffer
// when its alignment allows. Chunked reads always allocate.
package layout
