package volume

import (
	encbinary "encoding/binary"
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/dtype"
)

// Format names the container a volume was read from.
type Format string

const (
	FormatHDF5   Format = "hdf5"
	FormatNetCDF Format = "netcdf"
)

// Volume is a reconstructed image: calibrated float32 voxels in the image's
// row-major order, plus the header describing them.
type Volume struct {
	Header Header
	Stats  Stats
	Format Format

	// SourceType is the element type stored in the file.
	SourceType dtype.ElementType
	Dims       []uint64
	Data       []float32

	headerText string
}

// HeaderText returns the header as JSON.
func (v *Volume) HeaderText() string {
	return v.headerText
}

// RawData returns the voxels as little-endian float32 bytes.
func (v *Volume) RawData() []byte {
	out := make([]byte, 0, 4*len(v.Data))
	for _, f := range v.Data {
		out = encbinary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

// calibration holds the per-slice affine map inputs.
type calibration struct {
	lo, hi     float64
	min, max   []float64
	sliceElems int
}

// Reconstruct rescales the loaded image found under root and builds its
// header. Every dataset it reads must already hold data.
func Reconstruct(root *hdf5.Node) (*Volume, error) {
	image := hdf5.FindDataset(root, "image")
	if image == nil {
		return nil, fmt.Errorf("%w: no image dataset", hdf5.ErrMissingRequiredData)
	}
	if !image.Type.IsNumeric() {
		return nil, fmt.Errorf("%w: image has element type %s", hdf5.ErrUnsupportedEncoding, image.Type)
	}
	raw, err := image.Float64s()
	if err != nil {
		return nil, err
	}
	cal, err := calibrate(root, image)
	if err != nil {
		return nil, err
	}

	data := make([]float32, len(raw))
	counted := make([]float64, 0, len(raw))
	if image.Type.IsFloat() {
		for i, v := range raw {
			if v < cal.lo || v > cal.hi {
				continue
			}
			data[i] = float32(v)
			counted = append(counted, v)
		}
	} else {
		vrange := cal.hi - cal.lo
		for s := range cal.min {
			rmin := cal.min[s]
			rrange := cal.max[s] - rmin
			start := s * cal.sliceElems
			for i, v := range raw[start : start+cal.sliceElems] {
				r := (v-cal.lo)/vrange*rrange + rmin
				data[start+i] = float32(r)
				counted = append(counted, r)
			}
		}
	}

	h, err := readHeader(root, image)
	if err != nil {
		return nil, err
	}
	text, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding header: %v", hdf5.ErrMalformedInput, err)
	}
	return &Volume{
		Header:     h,
		Stats:      computeStats(counted),
		Format:     FormatHDF5,
		SourceType: image.Type,
		Dims:       image.Dims,
		Data:       data,
		headerText: string(text),
	}, nil
}

func calibrate(root, image *hdf5.Node) (calibration, error) {
	var cal calibration
	if vr, ok := hdf5.FindAttribute(image, "valid_range"); ok {
		values := vr.Float64s()
		if len(values) < 2 {
			return cal, fmt.Errorf("%w: valid_range has %d values", hdf5.ErrMalformedInput, len(values))
		}
		cal.lo, cal.hi = values[0], values[1]
	} else {
		cal.lo, cal.hi, _ = image.Type.Range()
	}
	if image.Type.IsInteger() && cal.hi == cal.lo {
		return cal, fmt.Errorf("%w: empty valid_range [%g, %g]", hdf5.ErrMalformedInput, cal.lo, cal.hi)
	}

	minDims, mins, err := realRange(root, "image-min", 0)
	if err != nil {
		return cal, err
	}
	_, maxs, err := realRange(root, "image-max", 1)
	if err != nil {
		return cal, err
	}
	if len(image.Dims)-len(minDims) < 1 {
		return cal, fmt.Errorf("%w: too few slice dimensions: image rank %d, image-min rank %d",
			hdf5.ErrMalformedInput, len(image.Dims), len(minDims))
	}
	cal.sliceElems = 1
	for _, d := range image.Dims[len(minDims):] {
		cal.sliceElems *= int(d)
	}
	total := int(image.NumElements())
	if len(mins)*cal.sliceElems != total {
		return cal, fmt.Errorf("%w: %d slices of %d voxels do not cover %d voxels",
			hdf5.ErrMalformedInput, len(mins), cal.sliceElems, total)
	}
	if len(maxs) < len(mins) {
		return cal, fmt.Errorf("%w: image-max has %d values for %d slices",
			hdf5.ErrMalformedInput, len(maxs), len(mins))
	}
	cal.min, cal.max = mins, maxs
	return cal, nil
}

// realRange returns the dims and values of the named dataset, or a scalar
// holding def when it is absent.
func realRange(root *hdf5.Node, name string, def float64) ([]uint64, []float64, error) {
	n := hdf5.FindDataset(root, name)
	if n == nil {
		return nil, []float64{def}, nil
	}
	values, err := n.Float64s()
	if err != nil {
		return nil, nil, err
	}
	return n.Dims, values, nil
}
