package hdf5

import (
	"log/slog"

	"github.com/robert-malhotra/go-minc/internal/filter"
)

// Option configures parsing.
type Option func(*options)

type options struct {
	inflater       filter.Inflater
	maxDepth       int
	verifyChecksum bool
	logger         *slog.Logger
}

func defaultOptions() *options {
	return &options{
		inflater: filter.Zlib{},
		maxDepth: DefaultMaxDepth,
	}
}

func newOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithInflater replaces the DEFLATE decoder used for compressed chunks. A
// nil inflater makes compressed datasets fail to load.
func WithInflater(inf filter.Inflater) Option {
	return func(o *options) {
		o.inflater = inf
	}
}

// WithMaxDepth sets how deeply groups may nest below the root. Values below
// 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithChecksumVerification enables lookup3 checksum checks on the v2
// superblock, v2 object headers and continuation blocks, fractal heap
// headers and v2 B-tree headers.
func WithChecksumVerification(verify bool) Option {
	return func(o *options) {
		o.verifyChecksum = verify
	}
}

// WithLogger sends a debug record for every object header, message, B-tree
// node and chunk to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
