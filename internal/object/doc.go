// Package object reads HDF5 object headers.
//
// Every object (group or dataset) has a header holding an ordered list of
// messages that describe its shape, element type, storage, attributes and
// links. Two header formats exist:
//
//   - Version 1 (superblock v0/v1 files): a fixed prologue with a message
//     count, followed by 8-byte aligned messages. Overflow messages live in
//     continuation blocks, and alignment restarts at each block.
//
//   - Version 2 (signature "OHDR"): flag-driven optional fields, packed
//     messages, and a lookup3 checksum after each chunk. Continuation chunks
//     carry the "OCHK" signature.
//
// [Read] detects the version and returns every message of the header in file
// order, continuation blocks included. Continuation blocks are queued and
// drained first-in first-out within a single call; nothing is shared between
// calls, so independent headers may be read concurrently.
package object
