// Package message decodes object header messages.
//
// Object headers hold a sequence of typed messages describing an object's
// shape, element type, storage, links, and attributes. [Decode] dispatches on
// the message type code and reads from a cursor positioned at the start of
// the message body. Afterwards the cursor always sits exactly at the end of
// the declared body, so traversal never desynchronizes.
//
// # Supported Messages
//
//   - Dataspace (0x0001): dimensions. See [Dataspace].
//   - Link Info (0x0002): dense link storage addresses. See [LinkInfo].
//   - Datatype (0x0003): fixed-point, IEEE float, and string classes. See [Datatype].
//   - Link (0x0006): named hard, soft, or external link. See [Link].
//   - Data Layout (0x0008): compact, contiguous, or chunked storage. See [Layout].
//   - Group Info (0x000A): group sizing hints. See [GroupInfo].
//   - Filter Pipeline (0x000B): deflate only. See [FilterPipeline].
//   - Attribute (0x000C): name, type, and materialized value. See [Attribute].
//   - Continuation (0x0010): next header block. See [Continuation].
//   - Symbol Table (0x0011): v1 group B-tree and local heap. See [SymbolTable].
//   - Attribute Info (0x0015): dense attribute storage. See [AttributeInfo].
//
// # Failure Policy
//
// Unknown type codes are returned as [Unknown] and their bodies skipped.
// Recognized constructs this decoder cannot interpret (compound or other
// complex datatypes, non-deflate filters, shared messages, external data
// files) fail with hdferr.ErrUnsupportedEncoding instead of being skipped.
package message
