package volume

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/log"
	"github.com/robert-malhotra/go-minc/internal/netcdf"
)

// Load decodes buf as MINC-2 and falls back to MINC-1 when the buffer has
// no HDF5 signature.
func Load(buf []byte, opts ...hdf5.Option) (*Volume, error) {
	return LoadContext(context.Background(), buf, opts...)
}

// LoadContext is Load with log records tagged from ctx.
func LoadContext(ctx context.Context, buf []byte, opts ...hdf5.Option) (*Volume, error) {
	root, format, err := ReadTree(ctx, buf, opts...)
	if err != nil {
		return nil, err
	}
	v, err := Reconstruct(root)
	if err != nil {
		return nil, err
	}
	v.Format = format
	log.Debugw(ctx, "volume statistics",
		"format", format,
		"voxels", len(v.Data),
		"sum", v.Stats.Sum,
		"mean", v.Stats.Mean,
		"min", v.Stats.Min,
		"max", v.Stats.Max,
	)
	return v, nil
}

// Open reads the file at path and loads it.
func Open(ctx context.Context, path string, opts ...hdf5.Option) (*Volume, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadContext(ctx, buf, opts...)
}

// ReadTree decodes buf into a node tree with every dataset loaded, trying
// HDF5 first and NetCDF classic second.
func ReadTree(ctx context.Context, buf []byte, opts ...hdf5.Option) (*hdf5.Node, Format, error) {
	f, err := hdf5.Parse(buf, opts...)
	switch {
	case err == nil:
		if err := f.LoadData(); err != nil {
			return nil, "", err
		}
		return f.Root(), FormatHDF5, nil
	case !errors.Is(err, hdf5.ErrUnrecognizedFormat):
		return nil, "", err
	}

	log.Infof(ctx, "no HDF5 signature, trying NetCDF")
	root, err := netcdf.Read(buf)
	if errors.Is(err, hdf5.ErrUnrecognizedFormat) {
		return nil, "", fmt.Errorf("%w: neither HDF5 nor NetCDF", hdf5.ErrUnrecognizedFormat)
	}
	if err != nil {
		return nil, "", fmt.Errorf("netcdf: %w", err)
	}
	return root, FormatNetCDF, nil
}
