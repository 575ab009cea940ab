// Package hdferr defines the error taxonomy shared by every decoding stage.
//
// Each failure returned by the decoder wraps exactly one of these sentinels,
// so callers can classify it with errors.Is regardless of which internal
// package produced it.
package hdferr

import "errors"

var (
	// ErrUnrecognizedFormat means the magic signature is absent. Callers may
	// retry the buffer with a different container reader.
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrUnsupportedVersion is returned for superblock, object header, or
	// message versions outside the supported set.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrUnsupportedEncoding covers recognized constructs this decoder does
	// not implement: non-IEEE floats, big-endian payloads, compound and other
	// complex datatypes, non-deflate filters, shared messages, filtered or
	// multi-block fractal heaps.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrTruncatedInput is returned when a read runs past the end of the buffer.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrMalformedInput is returned when a structural invariant is violated.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingRequiredData is returned by volume reconstruction when a
	// structurally valid tree lacks a required dataset or attribute.
	ErrMissingRequiredData = errors.New("missing required data")
)
