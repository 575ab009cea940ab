package fixture

import (
	encbinary "encoding/binary"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
)

// NetCDF classic type codes.
const (
	NCByte   uint32 = 1
	NCChar   uint32 = 2
	NCShort  uint32 = 3
	NCInt    uint32 = 4
	NCFloat  uint32 = 5
	NCDouble uint32 = 6
)

var ncSizes = [...]int{0, 1, 1, 2, 4, 4, 8}

// NCDim is a NetCDF dimension; a zero length marks the record dimension.
type NCDim struct {
	Name string
	Len  uint32
}

// NCAttr is a NetCDF attribute with big-endian encoded values.
type NCAttr struct {
	Name string
	Type uint32
	Data []byte
}

// NCText returns a CHAR attribute.
func NCText(name, text string) NCAttr {
	return NCAttr{Name: name, Type: NCChar, Data: []byte(text)}
}

// NCDoubles returns a DOUBLE attribute.
func NCDoubles(name string, v ...float64) NCAttr {
	return NCAttr{Name: name, Type: NCDouble, Data: BigEndian(v...)}
}

// NCVar is a NetCDF variable. For record variables Data holds every
// record's values back to back.
type NCVar struct {
	Name  string
	Dims  []int
	Type  uint32
	Attrs []NCAttr
	Data  []byte
}

// NetCDF describes a NetCDF classic file.
type NetCDF struct {
	// Version is 1 (32-bit offsets) or 2 (64-bit offsets).
	Version byte
	NumRecs uint32
	Dims    []NCDim
	Attrs   []NCAttr
	Vars    []NCVar
}

// BigEndian encodes v as big-endian bytes.
func BigEndian[T dtype.Number](v ...T) []byte {
	b, err := encbinary.Append(nil, encbinary.BigEndian, v)
	if err != nil {
		panic(err)
	}
	return b
}

// Bytes encodes the file. Non-record variables follow the header in order,
// then the record section interleaves one slab per record variable.
func (f NetCDF) Bytes() []byte {
	offsetSize := 4
	if f.Version == 2 {
		offsetSize = 8
	}
	w := binary.NewWriter(binary.Config{ByteOrder: encbinary.BigEndian, OffsetSize: offsetSize, LengthSize: 4})
	w.WriteBytes([]byte{'C', 'D', 'F', f.Version})
	w.WriteUint32(f.NumRecs)

	if len(f.Dims) == 0 {
		w.WriteZeros(8)
	} else {
		w.WriteUint32(10)
		w.WriteUint32(uint32(len(f.Dims)))
		for _, d := range f.Dims {
			ncName(w, d.Name)
			w.WriteUint32(d.Len)
		}
	}
	ncAttrs(w, f.Attrs)

	begins := make([]uint64, len(f.Vars))
	vsizes := make([]uint64, len(f.Vars))
	nbytes := make([]uint64, len(f.Vars))
	record := make([]bool, len(f.Vars))
	if len(f.Vars) == 0 {
		w.WriteZeros(8)
	} else {
		w.WriteUint32(11)
		w.WriteUint32(uint32(len(f.Vars)))
	}
	for i, v := range f.Vars {
		ncName(w, v.Name)
		w.WriteUint32(uint32(len(v.Dims)))
		n := uint64(ncSizes[v.Type])
		for _, id := range v.Dims {
			w.WriteUint32(uint32(id))
			if f.Dims[id].Len == 0 {
				record[i] = true
			} else {
				n *= uint64(f.Dims[id].Len)
			}
		}
		ncAttrs(w, v.Attrs)
		w.WriteUint32(v.Type)
		nbytes[i] = n
		vsizes[i] = (n + 3) &^ 3
		w.WriteUint32(uint32(vsizes[i]))
		begins[i] = w.Pos()
		w.WriteOffset(0)
	}

	for i, v := range f.Vars {
		if record[i] {
			continue
		}
		start := w.Pos()
		w.PutOffsetAt(begins[i], start)
		w.WriteBytes(v.Data)
		w.PadTo(start + vsizes[i])
	}
	recStart := w.Pos()
	var recSize uint64
	for i := range f.Vars {
		if record[i] {
			w.PutOffsetAt(begins[i], recStart+recSize)
			recSize += vsizes[i]
		}
	}
	for r := uint64(0); r < uint64(f.NumRecs); r++ {
		for i, v := range f.Vars {
			if !record[i] {
				continue
			}
			slab := make([]byte, vsizes[i])
			copy(slab[:nbytes[i]], v.Data[min(r*nbytes[i], uint64(len(v.Data))):])
			w.WriteBytes(slab)
		}
	}
	return w.Bytes()
}

func ncName(w *binary.Writer, name string) {
	w.WriteUint32(uint32(len(name)))
	w.WriteString(name, (len(name)+3)&^3)
}

func ncAttrs(w *binary.Writer, attrs []NCAttr) {
	if len(attrs) == 0 {
		w.WriteZeros(8)
		return
	}
	w.WriteUint32(12)
	w.WriteUint32(uint32(len(attrs)))
	for _, a := range attrs {
		ncName(w, a.Name)
		w.WriteUint32(a.Type)
		w.WriteUint32(uint32(len(a.Data) / ncSizes[a.Type]))
		w.WriteString(string(a.Data), (len(a.Data)+3)&^3)
	}
}
