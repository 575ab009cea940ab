package volume

import (
	"bytes"
	"context"
	encbinary "encoding/binary"
	"log/slog"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/fixture"
	"github.com/robert-malhotra/go-minc/internal/log"
)

var testAxes = []fixture.Axis{
	{Name: "zspace", Length: 2, Step: 2, Start: -10},
	{Name: "yspace", Length: 3, Step: 1.5, Start: -20, Cosines: []float64{0, 1, 0}},
	{Name: "xspace", Length: 4, Step: 1, Start: -30},
}

var e fixture.Encoder

// byteVolume is a 2x3x4 uint8 volume whose first voxels are 0, 128, 255.
func byteVolume(sb uint8) fixture.Volume {
	data := make([]byte, 24)
	data[1], data[2] = 128, 255
	for i := 3; i < len(data); i++ {
		data[i] = byte(i)
	}
	return fixture.Volume{
		Superblock: sb,
		Axes:       testAxes,
		Type:       e.Int(1, false),
		Data:       data,
		ValidRange: []float64{0, 255},
		ImageMin:   []float64{10},
		ImageMax:   []float64{20},
		MinMaxDims: []uint64{},
	}
}

func load(t *testing.T, v fixture.Volume) *Volume {
	t.Helper()
	vol, err := Load(fixture.MINC(v))
	require.NoError(t, err)
	return vol
}

func TestRescaleSingleSlice(t *testing.T) {
	for _, sb := range []uint8{0, 2} {
		vol := load(t, byteVolume(sb))
		assert.Equal(t, FormatHDF5, vol.Format)
		assert.Equal(t, dtype.UInt8, vol.SourceType)
		assert.Equal(t, []uint64{2, 3, 4}, vol.Dims)
		require.Len(t, vol.Data, 24)
		assert.InDelta(t, 10.0, vol.Data[0], 1e-6)
		assert.InDelta(t, 10+128.0/255*10, vol.Data[1], 1e-5)
		assert.InDelta(t, 15.02, vol.Data[1], 0.005)
		assert.InDelta(t, 20.0, vol.Data[2], 1e-6)
		assert.Equal(t, 24, vol.Stats.Count)
		assert.InDelta(t, 10.0, vol.Stats.Min, 1e-9)
		assert.InDelta(t, 20.0, vol.Stats.Max, 1e-9)
	}
}

func TestRescaleMultiSlice(t *testing.T) {
	v := byteVolume(2)
	v.Data[12], v.Data[14] = 0, 255
	v.ImageMin = []float64{0, 100}
	v.ImageMax = []float64{1, 101}
	v.MinMaxDims = nil
	vol := load(t, v)

	assert.InDelta(t, 0.0, vol.Data[0], 1e-6)
	assert.InDelta(t, 1.0, vol.Data[2], 1e-6)
	assert.InDelta(t, 100.0, vol.Data[12], 1e-4)
	assert.InDelta(t, 101.0, vol.Data[14], 1e-4)
	assert.InDelta(t, 100+13.0/255, vol.Data[13], 1e-4)
}

func TestRescaleTiledChunks(t *testing.T) {
	contiguous := load(t, byteVolume(0))
	for _, sb := range []uint8{0, 2} {
		v := byteVolume(sb)
		v.Chunk = []uint32{1, 2, 3}
		v.Deflate = true
		assert.Equal(t, contiguous.Data, load(t, v).Data)
	}
}

func TestDefaultValidRange(t *testing.T) {
	t.Run("uint8", func(t *testing.T) {
		v := byteVolume(0)
		v.ValidRange, v.ImageMin, v.ImageMax = nil, nil, nil
		vol := load(t, v)
		assert.InDelta(t, 0.0, vol.Data[0], 1e-6)
		assert.InDelta(t, 1.0, vol.Data[2], 1e-6)
	})
	t.Run("int16", func(t *testing.T) {
		raw := make([]int16, 24)
		raw[0], raw[1] = math.MinInt16, math.MaxInt16
		vol := load(t, fixture.Volume{
			Superblock: 2,
			Axes:       testAxes,
			Type:       e.Int(2, true),
			Data:       fixture.Values(raw...),
		})
		assert.Equal(t, dtype.Int16, vol.SourceType)
		assert.InDelta(t, 0.0, vol.Data[0], 1e-6)
		assert.InDelta(t, 1.0, vol.Data[1], 1e-6)
		assert.InDelta(t, 32768.0/65535, vol.Data[2], 1e-6)
	})
}

func TestFloatMasking(t *testing.T) {
	raw := make([]float32, 24)
	copy(raw, []float32{-1, 50, 101, 100, 0})
	vol := load(t, fixture.Volume{
		Superblock: 0,
		Axes:       testAxes,
		Type:       e.Float(4),
		Data:       fixture.Values(raw...),
		ValidRange: []float64{0, 100},
		ImageMin:   []float64{-5},
		ImageMax:   []float64{5},
		MinMaxDims: []uint64{},
	})
	assert.Equal(t, []float32{0, 50, 0, 100, 0}, vol.Data[:5])
	// 22 in-range voxels: 50, 100 and twenty zeros.
	assert.Equal(t, 22, vol.Stats.Count)
	assert.InDelta(t, 150.0, vol.Stats.Sum, 1e-9)
	assert.InDelta(t, 0.0, vol.Stats.Min, 1e-9)
	assert.InDelta(t, 100.0, vol.Stats.Max, 1e-9)
}

func TestFloatWithoutValidRange(t *testing.T) {
	raw := make([]float64, 24)
	raw[0], raw[1] = -1e30, 1e30
	vol := load(t, fixture.Volume{
		Superblock: 2,
		Axes:       testAxes,
		Type:       e.Float(8),
		Data:       fixture.Values(raw...),
	})
	assert.InEpsilon(t, -1e30, vol.Data[0], 1e-6)
	assert.InEpsilon(t, 1e30, vol.Data[1], 1e-6)
	assert.Equal(t, 24, vol.Stats.Count)
}

func TestHeaderText(t *testing.T) {
	vol := load(t, byteVolume(2))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(vol.HeaderText()), &decoded))
	assert.Equal(t, "float32", decoded["datatype"])
	assert.Equal(t, []any{"zspace", "yspace", "xspace"}, decoded["order"])
	assert.Equal(t, map[string]any{
		"step":              1.5,
		"start":             -20.0,
		"space_length":      3.0,
		"direction_cosines": []any{0.0, 1.0, 0.0},
	}, decoded["yspace"])
	assert.NotContains(t, decoded["xspace"], "direction_cosines")

	var h Header
	require.NoError(t, json.Unmarshal([]byte(vol.HeaderText()), &h))
	assert.Equal(t, vol.Header, h)
	assert.Equal(t, Axis{Step: 2, Start: -10, SpaceLength: 2}, h.Axes["zspace"])
}

func TestRawData(t *testing.T) {
	vol := load(t, byteVolume(0))
	raw := vol.RawData()
	require.Len(t, raw, 4*24)
	for i, want := range vol.Data {
		got := math.Float32frombits(encbinary.LittleEndian.Uint32(raw[4*i:]))
		assert.Equal(t, want, got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fixture.Volume)
		want   error
	}{
		{"no image", func(v *fixture.Volume) { v.OmitImage = true }, hdf5.ErrMissingRequiredData},
		{"no dimorder", func(v *fixture.Volume) { v.OmitDimorder = true }, hdf5.ErrMissingRequiredData},
		{"too few slice dimensions", func(v *fixture.Volume) {
			v.ImageMin = make([]float64, 24)
			v.ImageMax = make([]float64, 24)
			v.MinMaxDims = []uint64{2, 3, 4}
		}, hdf5.ErrMalformedInput},
		{"slices do not cover image", func(v *fixture.Volume) {
			v.ImageMin = []float64{0, 1, 2}
			v.ImageMax = []float64{1, 2, 3}
			v.MinMaxDims = nil
		}, hdf5.ErrMalformedInput},
		{"short image-max", func(v *fixture.Volume) {
			v.ImageMin = []float64{0, 1}
			v.ImageMax = []float64{1}
			v.MinMaxDims = nil
		}, hdf5.ErrMalformedInput},
		{"short valid_range", func(v *fixture.Volume) { v.ValidRange = []float64{255} }, hdf5.ErrMalformedInput},
		{"empty valid_range", func(v *fixture.Volume) { v.ValidRange = []float64{7, 7} }, hdf5.ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := byteVolume(2)
			tt.mutate(&v)
			_, err := Load(fixture.MINC(v))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// axisNode is a dimension variable with the given attributes.
func axisNode(name string, attrs ...*hdf5.Attribute) *hdf5.Node {
	return &hdf5.Node{Name: name, Type: dtype.Int32, Attributes: attrs}
}

func num(name string, v ...float64) *hdf5.Attribute {
	return &hdf5.Attribute{Name: name, Type: dtype.Float64, Value: dtype.Of(v...)}
}

func TestReconstructMissingAxisData(t *testing.T) {
	image := &hdf5.Node{
		Name: "image",
		Type: dtype.UInt8,
		Dims: []uint64{2},
		Data: dtype.Of[uint8](1, 2),
		Attributes: []*hdf5.Attribute{
			{Name: "dimorder", Type: dtype.String, Text: "xspace"},
		},
	}
	tests := []struct {
		name string
		axis *hdf5.Node
		want string
	}{
		{"no dimension variable", nil, "no dimension variable xspace"},
		{"no step", axisNode("xspace", num("start", 0), num("length", 2)), "no step"},
		{"no start", axisNode("xspace", num("step", 1), num("length", 2)), "no start"},
		{"no length", axisNode("xspace", num("step", 1), num("start", 0)), "no length"},
		{"text step", axisNode("xspace",
			&hdf5.Attribute{Name: "step", Type: dtype.String, Text: "1"},
			num("start", 0), num("length", 2)), "not numeric"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &hdf5.Node{Name: "/", Children: []*hdf5.Node{image}}
			if tt.axis != nil {
				root.Children = append(root.Children, tt.axis)
			}
			_, err := Reconstruct(root)
			require.ErrorIs(t, err, hdf5.ErrMissingRequiredData)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("complete", func(t *testing.T) {
		root := &hdf5.Node{Name: "/", Children: []*hdf5.Node{
			image,
			axisNode("xspace", num("step", 0.5), num("start", 3), num("length", 2)),
		}}
		vol, err := Reconstruct(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"xspace"}, vol.Header.Order)
		assert.Equal(t, Axis{Step: 0.5, Start: 3, SpaceLength: 2}, vol.Header.Axes["xspace"])
	})
}

func TestReconstructUnloadedImage(t *testing.T) {
	f, err := hdf5.Parse(fixture.MINC(byteVolume(0)))
	require.NoError(t, err)
	_, err = Reconstruct(f.Root())
	assert.ErrorIs(t, err, hdf5.ErrNotLoaded)
}

func TestReconstructStringImage(t *testing.T) {
	root := &hdf5.Node{Name: "/", Children: []*hdf5.Node{{Name: "image", Type: dtype.String}}}
	_, err := Reconstruct(root)
	assert.ErrorIs(t, err, hdf5.ErrUnsupportedEncoding)
}

func netcdfVolume() fixture.NetCDF {
	image := make([]byte, 24)
	image[1], image[2] = 128, 255
	return fixture.NetCDF{
		Version: 1,
		Dims: []fixture.NCDim{
			{Name: "zspace", Len: 2},
			{Name: "yspace", Len: 3},
			{Name: "xspace", Len: 4},
		},
		Vars: []fixture.NCVar{
			{Name: "zspace", Type: fixture.NCInt, Data: fixture.BigEndian[int32](0),
				Attrs: []fixture.NCAttr{fixture.NCDoubles("step", 2), fixture.NCDoubles("start", -10)}},
			{Name: "yspace", Type: fixture.NCInt, Data: fixture.BigEndian[int32](0),
				Attrs: []fixture.NCAttr{fixture.NCDoubles("step", 1.5), fixture.NCDoubles("start", -20)}},
			{Name: "xspace", Type: fixture.NCInt, Data: fixture.BigEndian[int32](0),
				Attrs: []fixture.NCAttr{fixture.NCDoubles("step", 1), fixture.NCDoubles("start", -30)}},
			{Name: "image", Dims: []int{0, 1, 2}, Type: fixture.NCByte, Data: image,
				Attrs: []fixture.NCAttr{fixture.NCDoubles("valid_range", 0, 255)}},
			{Name: "image-max", Dims: []int{0}, Type: fixture.NCDouble, Data: fixture.BigEndian(20.0, 30.0)},
			{Name: "image-min", Dims: []int{0}, Type: fixture.NCDouble, Data: fixture.BigEndian(10.0, 20.0)},
		},
	}
}

func TestNetCDFFallback(t *testing.T) {
	buf := &bytes.Buffer{}
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(old) })

	ctx := log.AddTags(context.Background(), "file", "old.mnc")
	vol, err := LoadContext(ctx, netcdfVolume().Bytes())
	require.NoError(t, err)
	assert.Equal(t, FormatNetCDF, vol.Format)
	assert.Contains(t, buf.String(), "trying NetCDF")
	assert.Contains(t, buf.String(), "file=old.mnc")

	assert.InDelta(t, 10.0, vol.Data[0], 1e-6)
	assert.InDelta(t, 10+128.0/255*10, vol.Data[1], 1e-5)
	assert.InDelta(t, 20.0, vol.Data[2], 1e-6)
	assert.InDelta(t, 20.0, vol.Data[12], 1e-6)

	assert.Equal(t, []string{"zspace", "yspace", "xspace"}, vol.Header.Order)
	assert.Equal(t, Axis{Step: 1.5, Start: -20, SpaceLength: 3}, vol.Header.Axes["yspace"])
}

func TestLoadUnrecognized(t *testing.T) {
	for _, buf := range [][]byte{nil, []byte("not a volume at all"), []byte("CDF")} {
		_, err := Load(buf)
		require.Error(t, err)
		assert.ErrorIs(t, err, hdf5.ErrUnrecognizedFormat)
	}
}

func TestLoadPropagatesHDF5Errors(t *testing.T) {
	buf := fixture.MINC(byteVolume(0))
	_, err := Load(buf[:len(buf)/2])
	require.Error(t, err)
	assert.ErrorIs(t, err, hdf5.ErrTruncatedInput)
	assert.NotErrorIs(t, err, hdf5.ErrUnrecognizedFormat)
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, Stats{}, computeStats(nil))
	assert.Equal(t, Stats{Count: 1, Sum: 4, Mean: 4, Min: 4, Max: 4}, computeStats([]float64{4}))

	s := computeStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 40.0, s.Sum, 1e-12)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.Min, 1e-12)
	assert.InDelta(t, 9.0, s.Max, 1e-12)
	// Sample standard deviation: sqrt(32/7).
	assert.InDelta(t, math.Sqrt(32.0/7), s.StdDev, 1e-12)
}
