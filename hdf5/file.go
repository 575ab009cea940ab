package hdf5

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/superblock"
)

// File is a parsed HDF5 buffer.
type File struct {
	buf    []byte
	c      *binary.Cursor
	sb     *superblock.Superblock
	root   *Node
	opts   *options
	log    *slog.Logger
	loaded bool
}

// Parse reads the superblock and builds the full node tree from buf without
// loading dataset values. buf must not be modified while the File or any
// loaded contiguous data is in use: loaded arrays may alias it.
//
// A buffer without the HDF5 signature fails with ErrUnrecognizedFormat, the
// signal for callers to try another container format.
func Parse(buf []byte, opts ...Option) (*File, error) {
	o := newOptions(opts)
	sb, err := superblock.Read(buf, superblock.Options{VerifyChecksum: o.verifyChecksum})
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	f := &File{
		buf:  buf,
		c:    binary.NewCursor(buf, sb.CursorConfig()),
		sb:   sb,
		opts: o,
		log:  logger,
	}
	logger.Debug("superblock",
		"version", sb.Version,
		"offset_size", sb.OffsetSize,
		"length_size", sb.LengthSize,
		"root", sb.RootAddress)

	b := newBuilder(f)
	root, err := b.build("/", sb.RootAddress, 0, b.rootSymbolTable())
	if err != nil {
		return nil, fmt.Errorf("building tree: %w", err)
	}
	f.root = root
	return f, nil
}

// Open reads the file at path, parses it and loads every dataset.
func Open(path string, opts ...Option) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	f, err := Parse(buf, opts...)
	if err != nil {
		return nil, err
	}
	if err := f.LoadData(); err != nil {
		return nil, err
	}
	return f, nil
}

// Root returns the root node, named "/".
func (f *File) Root() *Node {
	return f.root
}

// Superblock returns the file's global parameters.
func (f *File) Superblock() superblock.Superblock {
	return *f.sb
}

// Len returns the size of the underlying buffer.
func (f *File) Len() int {
	return len(f.buf)
}
