// Package fixture assembles small, byte-exact HDF5 and NetCDF classic files in
// memory for tests.
//
// An Encoder produces individual object header messages. A Builder lays out a
// whole file: superblock, object headers with optional continuation blocks,
// symbol-table groups, chunk B-trees (optionally deflated) and dense attribute
// storage. Objects are written bottom-up, so every address a parent refers to
// is already known when the parent is written; only the root address and the
// end-of-file address are patched at the end.
package fixture
