// Package superblock parses the file prologue.
//
// The superblock sits at offset 0 and starts with the 8-byte signature
// 0x89 H D F \r \n 0x1a \n. A buffer without it is reported as
// hdferr.ErrUnrecognizedFormat, which callers treat as a cue to try a
// different container reader.
//
// # Superblock Versions
//
//   - Version 0: fixed-size fields followed by the root group's symbol table
//     entry. The entry's scratch pad carries the root B-tree and local heap
//     addresses.
//
//   - Version 1: version 0 plus the indexed storage K value and two reserved
//     bytes.
//
//   - Version 2: compact layout with four addresses and a lookup3 checksum.
//     The root group is referenced directly by object header address.
//
// Later versions are rejected with hdferr.ErrUnsupportedVersion.
//
// # Widths
//
// The offset and length widths recorded here configure every later cursor;
// [Superblock.CursorConfig] returns them in the form binary.NewCursor takes.
package superblock
