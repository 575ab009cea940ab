package fixture

import (
	"strings"
)

// Axis is one MINC dimension variable.
type Axis struct {
	Name    string
	Length  uint64
	Step    float64
	Start   float64
	Cosines []float64
}

// Volume describes a MINC-2 file for MINC to assemble.
type Volume struct {
	// Superblock selects the superblock and object header generation: 0
	// gives v1 headers with symbol-table groups, 2 gives v2 headers with
	// link messages.
	Superblock uint8

	// Axes are listed slowest-varying first; their names form dimorder.
	Axes []Axis

	// Type is the image datatype message and Data the raw image bytes.
	Type Msg
	Data []byte

	ValidRange []float64
	ImageMin   []float64
	ImageMax   []float64
	// MinMaxDims is the dataspace of image-min and image-max; it defaults
	// to a single dimension of len(ImageMin).
	MinMaxDims []uint64

	// Chunk selects chunked storage with these chunk dimensions.
	Chunk   []uint32
	Deflate bool

	// DenseAttributes stores the image attributes in a fractal heap. It
	// needs superblock version 2.
	DenseAttributes bool
	OmitDimorder    bool
	OmitImage       bool
}

// MINC assembles a MINC-2 file:
//
//	/minc-2.0/dimensions/<axis>...
//	/minc-2.0/image/0/image
//	/minc-2.0/image/0/image-min
//	/minc-2.0/image/0/image-max
func MINC(v Volume) []byte {
	b := New(v.Superblock)
	av := uint8(1)
	if v.Superblock >= 2 {
		av = 3
	}

	var axes []Entry
	for _, a := range v.Axes {
		msgs := []Msg{
			b.Int(4, true),
			b.Dataspace(),
			b.NoData(),
			b.Float64Attribute(av, "step", a.Step),
			b.Float64Attribute(av, "start", a.Start),
			b.Attribute(av, "length", b.Int(4, true), b.Dataspace(1), Values(int32(a.Length))),
		}
		if a.Cosines != nil {
			msgs = append(msgs, b.Float64Attribute(av, "direction_cosines", a.Cosines...))
		}
		axes = append(axes, Entry{Name: a.Name, Addr: b.object(msgs)})
	}

	var images []Entry
	if !v.OmitImage {
		images = append(images, Entry{Name: "image", Addr: b.image(v, av)})
	}
	if v.ImageMin != nil {
		images = append(images, Entry{Name: "image-min", Addr: b.minmax(v.ImageMin, v.MinMaxDims)})
	}
	if v.ImageMax != nil {
		images = append(images, Entry{Name: "image-max", Addr: b.minmax(v.ImageMax, v.MinMaxDims)})
	}

	zero := b.Group(images...)
	image := b.Group(Entry{Name: "0", Addr: zero})
	dims := b.Group(axes...)
	minc := b.Group(Entry{Name: "dimensions", Addr: dims}, Entry{Name: "image", Addr: image})
	root := b.Group(Entry{Name: "minc-2.0", Addr: minc})
	return b.Finish(root)
}

// Group writes a group object with the given members, as a symbol table for
// v0/v1 files and as link messages for v2 files.
func (b *Builder) Group(entries ...Entry) uint64 {
	if b.version < 2 {
		return b.HeaderV1([]Msg{b.SymbolGroup(entries...)})
	}
	msgs := []Msg{b.LinkInfo(), b.GroupInfo()}
	for _, e := range entries {
		msgs = append(msgs, b.Link(e.Name, e.Addr))
	}
	return b.HeaderV2(msgs)
}

func (b *Builder) object(msgs []Msg) uint64 {
	if b.version < 2 {
		return b.HeaderV1(msgs)
	}
	return b.HeaderV2(msgs)
}

func (b *Builder) image(v Volume, av uint8) uint64 {
	dims := make([]uint64, len(v.Axes))
	names := make([]string, len(v.Axes))
	for i, a := range v.Axes {
		dims[i], names[i] = a.Length, a.Name
	}
	elem := datatypeSize(v.Type)
	msgs := []Msg{v.Type, b.Dataspace(dims...)}

	switch {
	case v.Chunk == nil:
		msgs = append(msgs, b.Contiguous(b.Raw(v.Data), uint64(len(v.Data))))
	default:
		tree := b.ChunkTree(v.Deflate, SplitChunks(dims, v.Chunk, elem, v.Data)...)
		if v.Superblock < 2 {
			msgs = append(msgs, b.ChunkedV1(tree, uint32(elem), v.Chunk...))
		} else {
			msgs = append(msgs, b.Chunked(tree, uint32(elem), v.Chunk...))
		}
		if v.Deflate {
			msgs = append(msgs, b.Deflate())
		}
	}

	var attrs []Msg
	if v.ValidRange != nil {
		attrs = append(attrs, b.Float64Attribute(av, "valid_range", v.ValidRange...))
	}
	if !v.OmitDimorder {
		attrs = append(attrs, b.TextAttribute(av, "dimorder", strings.Join(names, ",")))
	}
	if v.DenseAttributes {
		msgs = append(msgs, b.DenseAttributes(attrs...))
	} else {
		msgs = append(msgs, attrs...)
	}
	return b.object(msgs)
}

func (b *Builder) minmax(values []float64, dims []uint64) uint64 {
	if dims == nil {
		dims = []uint64{uint64(len(values))}
	}
	data := Values(values...)
	return b.object([]Msg{
		b.Float(8),
		b.Dataspace(dims...),
		b.Contiguous(b.Raw(data), uint64(len(data))),
	})
}

func datatypeSize(m Msg) int {
	return int(m.Body[4]) | int(m.Body[5])<<8 | int(m.Body[6])<<16 | int(m.Body[7])<<24
}

// SplitChunks cuts a row-major array into full-size chunks in row-major
// chunk order. Edge chunks are zero padded past the dataset bounds.
func SplitChunks(dims []uint64, chunk []uint32, elemSize int, data []byte) []Chunk {
	rank := len(dims)
	chunkElems := 1
	for _, c := range chunk {
		chunkElems *= int(c)
	}
	strides := make([]uint64, rank)
	stride := uint64(1)
	for i := rank - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= dims[i]
	}

	var out []Chunk
	origin := make([]uint64, rank)
	for {
		buf := make([]byte, chunkElems*elemSize)
		idx := make([]uint64, rank)
		for n := 0; n < chunkElems; n++ {
			inside := true
			src := uint64(0)
			for d := 0; d < rank; d++ {
				p := origin[d] + idx[d]
				if p >= dims[d] {
					inside = false
					break
				}
				src += p * strides[d]
			}
			if inside {
				copy(buf[n*elemSize:(n+1)*elemSize], data[src*uint64(elemSize):])
			}
			for d := rank - 1; d >= 0; d-- {
				idx[d]++
				if idx[d] < uint64(chunk[d]) {
					break
				}
				idx[d] = 0
			}
		}
		out = append(out, Chunk{Offsets: append([]uint64(nil), origin...), Data: buf})

		d := rank - 1
		for ; d >= 0; d-- {
			origin[d] += uint64(chunk[d])
			if origin[d] < dims[d] {
				break
			}
			origin[d] = 0
		}
		if d < 0 {
			return out
		}
	}
}
