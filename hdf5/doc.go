// Package hdf5 reads the HDF5 subset used by MINC-2 volumes from an
// in-memory buffer.
//
// [Parse] reads the superblock and walks every object header from the root,
// producing a tree of [Node] values: groups with children, datasets with an
// element type, dimensions and storage description, and the attributes of
// both. [File.LoadData] is a second pass that materializes dataset payloads
// from contiguous, compact or chunked (optionally deflate-compressed)
// storage. [Open] does both for a file on disk.
//
// The reader is read-only and deliberately narrow: compound, enumerated,
// variable-length, array and reference datatypes, non-deflate filters,
// shared messages and multi-block fractal heaps all fail with an error
// wrapping [ErrUnsupportedEncoding] instead of being skipped.
//
// Trees are searched with [FindDataset], [FindAttribute], [Node.Lookup] and
// [Walk].
package hdf5
