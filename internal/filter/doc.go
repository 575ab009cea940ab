// Package filter decodes chunk payloads written through a filter pipeline.
//
// The only filter a MINC file may declare is DEFLATE (ID 1); the message
// decoder rejects every other ID, so a [Pipeline] here is either empty or a
// run of deflate stages. Decompression itself is an injected capability,
// [Inflater], so callers can substitute a backend or count invocations in
// tests. [Zlib] is the default, backed by github.com/klauspost/compress.
//
// Each chunk carries a filter mask; bit i set means stage i was skipped when
// the chunk was written, and the same stage is skipped when reading it.
package filter
