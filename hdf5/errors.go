package hdf5

import (
	"errors"

	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Error classes. Every error returned by this package wraps exactly one of
// them.
var (
	ErrUnrecognizedFormat  = hdferr.ErrUnrecognizedFormat
	ErrUnsupportedVersion  = hdferr.ErrUnsupportedVersion
	ErrUnsupportedEncoding = hdferr.ErrUnsupportedEncoding
	ErrTruncatedInput      = hdferr.ErrTruncatedInput
	ErrMalformedInput      = hdferr.ErrMalformedInput
	ErrMissingRequiredData = hdferr.ErrMissingRequiredData
)

// Caller errors, outside the decoding taxonomy.
var (
	// ErrNotLoaded is returned when dataset values are requested before
	// LoadData has run.
	ErrNotLoaded = errors.New("dataset data not loaded")

	// ErrInvalidPath is returned for a malformed object or attribute path.
	ErrInvalidPath = errors.New("invalid path")
)

// DefaultMaxDepth bounds the nesting of groups below the root.
const DefaultMaxDepth = 64
