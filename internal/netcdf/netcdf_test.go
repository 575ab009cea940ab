package netcdf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/fixture"
)

func mincOne(version byte) fixture.NetCDF {
	image := make([]byte, 24)
	for i := range image {
		image[i] = byte(i * 10)
	}
	return fixture.NetCDF{
		Version: version,
		Dims: []fixture.NCDim{
			{Name: "zspace", Len: 2},
			{Name: "yspace", Len: 3},
			{Name: "xspace", Len: 4},
		},
		Attrs: []fixture.NCAttr{fixture.NCText("history", "made by hand")},
		Vars: []fixture.NCVar{
			{Name: "zspace", Type: fixture.NCInt, Data: fixture.BigEndian[int32](0),
				Attrs: []fixture.NCAttr{fixture.NCDoubles("step", 2), fixture.NCDoubles("start", -10)}},
			{Name: "yspace", Type: fixture.NCInt, Data: fixture.BigEndian[int32](0),
				Attrs: []fixture.NCAttr{
					fixture.NCDoubles("step", 1.5),
					fixture.NCDoubles("start", -20),
					fixture.NCDoubles("direction_cosines", 0, 1, 0),
				}},
			{Name: "xspace", Type: fixture.NCInt, Data: fixture.BigEndian[int32](0),
				Attrs: []fixture.NCAttr{
					fixture.NCDoubles("step", 1),
					fixture.NCDoubles("start", -30),
					{Name: "length", Type: fixture.NCInt, Data: fixture.BigEndian[int32](99)},
				}},
			{Name: "image", Dims: []int{0, 1, 2}, Type: fixture.NCByte, Data: image,
				Attrs: []fixture.NCAttr{fixture.NCDoubles("valid_range", 0, 255)}},
			{Name: "image-max", Dims: []int{0}, Type: fixture.NCDouble, Data: fixture.BigEndian(30.0, 40.0)},
			{Name: "image-min", Dims: []int{0}, Type: fixture.NCDouble, Data: fixture.BigEndian(10.0, 20.0)},
		},
	}
}

func TestReadMINCOne(t *testing.T) {
	for _, version := range []byte{1, 2} {
		t.Run(fmt.Sprintf("CDF-%d", version), func(t *testing.T) {
			buf := mincOne(version).Bytes()
			require.True(t, IsNetCDF(buf))

			root, err := Read(buf)
			require.NoError(t, err)
			assert.Equal(t, "/", root.Name)
			require.Len(t, root.Children, 6)
			require.NotNil(t, root.Attribute("history"))
			assert.Equal(t, "made by hand", root.Attribute("history").Text)

			image := hdf5.FindDataset(root, "image")
			require.NotNil(t, image)
			assert.Equal(t, dtype.UInt8, image.Type)
			assert.Equal(t, []uint64{2, 3, 4}, image.Dims)
			require.NotNil(t, image.Data)
			assert.Equal(t, 24, image.Data.Len())
			assert.Equal(t, 230.0, image.Data.At(23))
			assert.Equal(t, "zspace,yspace,xspace", image.Attribute("dimorder").Text)
			assert.Equal(t, []float64{0, 255}, image.Attribute("valid_range").Float64s())

			imin := root.Child("image-min")
			require.NotNil(t, imin)
			assert.Equal(t, []uint64{2}, imin.Dims)
			assert.Equal(t, []float64{10, 20}, dtype.Float64s(imin.Data))
			assert.Equal(t, "zspace", imin.Attribute("dimorder").Text)

			y := root.Child("yspace")
			require.NotNil(t, y)
			assert.Empty(t, y.Dims)
			assert.Nil(t, y.Attribute("dimorder"))
			require.NotNil(t, y.Attribute("length"))
			assert.Equal(t, dtype.Int32, y.Attribute("length").Type)
			assert.Equal(t, []float64{3}, y.Attribute("length").Float64s())
			assert.Equal(t, []float64{0, 1, 0}, y.Attribute("direction_cosines").Float64s())

			x := root.Child("xspace")
			require.NotNil(t, x)
			lengths := 0
			for _, a := range x.Attributes {
				if a.Name == "length" {
					lengths++
				}
			}
			assert.Equal(t, 1, lengths)
			assert.Equal(t, []float64{99}, x.Attribute("length").Float64s())
		})
	}
}

func TestParseVersionAndOffsets(t *testing.T) {
	f1, err := Parse(mincOne(1).Bytes())
	require.NoError(t, err)
	f2, err := Parse(mincOne(2).Bytes())
	require.NoError(t, err)

	assert.EqualValues(t, 1, f1.Version)
	assert.EqualValues(t, 2, f2.Version)
	require.Len(t, f2.Vars, len(f1.Vars))
	for i := range f1.Vars {
		assert.Equal(t, f1.Vars[i].Name, f2.Vars[i].Name)
		// Each begin field grows by four bytes in the 64-bit variant.
		assert.Equal(t, f1.Vars[i].Begin+4*uint64(len(f1.Vars)), f2.Vars[i].Begin)
	}
}

func TestRecordVariables(t *testing.T) {
	nc := fixture.NetCDF{
		Version: 1,
		NumRecs: 3,
		Dims:    []fixture.NCDim{{Name: "time", Len: 0}, {Name: "x", Len: 2}, {Name: "c", Len: 3}},
		Vars: []fixture.NCVar{
			{Name: "fixed", Dims: []int{1}, Type: fixture.NCFloat, Data: fixture.BigEndian[float32](0.5, 1.5)},
			{Name: "time", Dims: []int{0}, Type: fixture.NCDouble, Data: fixture.BigEndian(1.0, 2.0, 3.0)},
			{Name: "v", Dims: []int{0, 1}, Type: fixture.NCShort, Data: fixture.BigEndian[int16](1, -2, 3, -4, 5, -6)},
			{Name: "b", Dims: []int{0, 2}, Type: fixture.NCByte, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		},
	}
	f, err := Parse(nc.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Dims, 3)
	assert.True(t, f.Dims[0].Record)
	assert.EqualValues(t, 3, f.Dims[0].Len)

	root := f.Tree()
	fixed := root.Child("fixed")
	assert.Equal(t, []float64{0.5, 1.5}, dtype.Float64s(fixed.Data))

	tm := root.Child("time")
	assert.Equal(t, []uint64{3}, tm.Dims)
	assert.Equal(t, []float64{1, 2, 3}, dtype.Float64s(tm.Data))
	assert.Equal(t, []float64{3}, tm.Attribute("length").Float64s())

	v := root.Child("v")
	assert.Equal(t, []uint64{3, 2}, v.Dims)
	assert.Equal(t, dtype.Int16, v.Type)
	assert.Equal(t, []float64{1, -2, 3, -4, 5, -6}, dtype.Float64s(v.Data))
	assert.Equal(t, "time,x", v.Attribute("dimorder").Text)

	b := root.Child("b")
	assert.Equal(t, []uint64{3, 3}, b.Dims)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, dtype.Float64s(b.Data))
}

func TestCharVariable(t *testing.T) {
	nc := fixture.NetCDF{
		Version: 1,
		Dims:    []fixture.NCDim{{Name: "n", Len: 5}},
		Vars:    []fixture.NCVar{{Name: "label", Dims: []int{0}, Type: fixture.NCChar, Data: []byte("ab\x00\x00\x00")}},
	}
	f, err := Parse(nc.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Vars, 1)
	assert.Equal(t, "ab", f.Vars[0].Text)
	assert.Nil(t, f.Vars[0].Data)

	n := f.Tree().Child("label")
	assert.Equal(t, dtype.String, n.Type)
	assert.Nil(t, n.Data)
}

func TestEmptyFile(t *testing.T) {
	root, err := Read(fixture.NetCDF{Version: 1}.Bytes())
	require.NoError(t, err)
	assert.Empty(t, root.Children)
	assert.Empty(t, root.Attributes)
}

func header(words ...uint32) []byte {
	return append([]byte("CDF\x01"), fixture.BigEndian(words...)...)
}

func TestParseErrors(t *testing.T) {
	valid := mincOne(1).Bytes()
	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"empty", nil, hdf5.ErrUnrecognizedFormat},
		{"hdf5 magic", []byte("\x89HDF\r\n\x1a\n"), hdf5.ErrUnrecognizedFormat},
		{"CDF-5", []byte("CDF\x05\x00\x00\x00\x00"), hdf5.ErrUnsupportedVersion},
		{"streaming", header(0xFFFFFFFF), hdf5.ErrUnsupportedEncoding},
		{"short header", header(0), hdf5.ErrTruncatedInput},
		{"wrong tag", header(0, 11, 1), hdf5.ErrMalformedInput},
		{"absent tag with count", header(0, 0, 2), hdf5.ErrMalformedInput},
		{"count exceeds buffer", header(0, 10, 1000), hdf5.ErrTruncatedInput},
		{"bad dimension id", header(0,
			10, 1, 1, 'x'<<24, 2, // dimension x of length 2
			0, 0, // no global attributes
			11, 1, 1, 'v'<<24, 1, 7, // variable v on dimension 7
		), hdf5.ErrMalformedInput},
		{"unknown attribute type", header(0,
			0, 0,
			12, 1, 1, 'a'<<24, 9, 1, 0,
			0, 0,
		), hdf5.ErrUnsupportedEncoding},
		{"truncated data", valid[:len(valid)-8], hdf5.ErrTruncatedInput},
		{"variable size overflows", header(0,
			10, 3, 1, 'x'<<24, 1<<31, 1, 'y'<<24, 1<<31, 1, 'z'<<24, 1<<31,
			0, 0,
			11, 1, 1, 'v'<<24, 3, 0, 1, 2, 0, 0, TypeByte, 0, 0,
		), hdf5.ErrMalformedInput},
		{"records outside buffer", header(0x7FFFFFFF,
			10, 2, 1, 't'<<24, 0, 1, 'x'<<24, 1024,
			0, 0,
			11, 1, 1, 'v'<<24, 2, 0, 1, 0, 0, TypeByte, 1024, 0,
		), hdf5.ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.buf)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsNetCDF(t *testing.T) {
	assert.True(t, IsNetCDF([]byte("CDF\x01")))
	assert.True(t, IsNetCDF([]byte("CDF\x02rest")))
	assert.False(t, IsNetCDF([]byte("CDF\x05")))
	assert.False(t, IsNetCDF([]byte("CDF")))
	assert.False(t, IsNetCDF([]byte("\x89HDF\r\n\x1a\n")))
}
