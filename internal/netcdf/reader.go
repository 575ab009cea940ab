package netcdf

import (
	encbinary "encoding/binary"
	"fmt"
	"math/bits"
	"strings"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Type codes of the classic format.
const (
	TypeByte   uint32 = 1
	TypeChar   uint32 = 2
	TypeShort  uint32 = 3
	TypeInt    uint32 = 4
	TypeFloat  uint32 = 5
	TypeDouble uint32 = 6
)

const (
	tagDimension = 10
	tagVariable  = 11
	tagAttribute = 12

	// streaming marks a file whose record count was never written.
	streaming = 0xFFFFFFFF
)

// Dim is a named dimension. Record dimensions have Record set and take
// their length from the file's record count.
type Dim struct {
	Name   string
	Len    uint64
	Record bool
}

// Var is one variable with its data read.
type Var struct {
	Name       string
	DimIDs     []int
	Attributes []*hdf5.Attribute
	Type       dtype.ElementType

	// VSize is the padded byte size of the variable, or of one record for a
	// record variable. Begin is the offset of its first byte.
	VSize  uint64
	Begin  uint64
	Record bool

	// Data is nil for CHAR variables.
	Data dtype.Array
	Text string
}

// File is a decoded NetCDF classic file.
type File struct {
	Version    byte
	NumRecs    uint64
	Dims       []Dim
	Attributes []*hdf5.Attribute
	Vars       []*Var
}

// IsNetCDF reports whether buf starts with a classic NetCDF magic number.
func IsNetCDF(buf []byte) bool {
	return len(buf) >= 4 && string(buf[:3]) == "CDF" && (buf[3] == 1 || buf[3] == 2)
}

// Read parses buf and returns its node tree.
func Read(buf []byte) (*hdf5.Node, error) {
	f, err := Parse(buf)
	if err != nil {
		return nil, err
	}
	return f.Tree(), nil
}

// Parse decodes the header and every variable's data.
func Parse(buf []byte) (*File, error) {
	if len(buf) < 4 || string(buf[:3]) != "CDF" {
		return nil, fmt.Errorf("%w: no NetCDF magic", hdferr.ErrUnrecognizedFormat)
	}
	f := &File{Version: buf[3]}
	offsetSize := 4
	switch f.Version {
	case 1:
	case 2:
		offsetSize = 8
	default:
		return nil, fmt.Errorf("%w: NetCDF format version %d", hdferr.ErrUnsupportedVersion, f.Version)
	}
	c := binary.NewCursor(buf, binary.Config{
		ByteOrder:  encbinary.BigEndian,
		OffsetSize: offsetSize,
		LengthSize: 4,
	})
	if err := c.Skip(4); err != nil {
		return nil, err
	}
	numRecs, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	if numRecs == streaming {
		return nil, fmt.Errorf("%w: streaming record count", hdferr.ErrUnsupportedEncoding)
	}
	f.NumRecs = uint64(numRecs)

	if err := f.readDims(c); err != nil {
		return nil, fmt.Errorf("dimension list: %w", err)
	}
	if f.Attributes, err = readAttrs(c); err != nil {
		return nil, fmt.Errorf("global attributes: %w", err)
	}
	if err := f.readVars(c); err != nil {
		return nil, err
	}
	if err := f.readData(c); err != nil {
		return nil, err
	}
	return f, nil
}

// readList reads a list header. An absent list is encoded as two zero words.
func readList(c *binary.Cursor, tag uint32, minElemSize uint64) (int, error) {
	t, err := c.ReadUint32()
	if err != nil {
		return 0, err
	}
	n, err := c.ReadUint32()
	if err != nil {
		return 0, err
	}
	switch {
	case t == 0 && n == 0:
		return 0, nil
	case t != tag:
		return 0, fmt.Errorf("%w: list tag %d at 0x%x, want %d", hdferr.ErrMalformedInput, t, c.Pos()-8, tag)
	case uint64(n)*minElemSize > c.Remaining():
		return 0, fmt.Errorf("%w: %d list elements exceed remaining %d bytes",
			hdferr.ErrTruncatedInput, n, c.Remaining())
	}
	return int(n), nil
}

func readName(c *binary.Cursor) (string, error) {
	n, err := c.ReadUint32()
	if err != nil {
		return "", err
	}
	b, err := c.ReadBytes(pad4(uint64(n)))
	if err != nil {
		return "", err
	}
	return string(b[:n]), nil
}

func (f *File) readDims(c *binary.Cursor) error {
	n, err := readList(c, tagDimension, 8)
	if err != nil {
		return err
	}
	f.Dims = make([]Dim, 0, n)
	for range n {
		name, err := readName(c)
		if err != nil {
			return err
		}
		length, err := c.ReadUint32()
		if err != nil {
			return err
		}
		d := Dim{Name: name, Len: uint64(length)}
		if length == 0 {
			d.Record = true
			d.Len = f.NumRecs
		}
		f.Dims = append(f.Dims, d)
	}
	return nil
}

func readAttrs(c *binary.Cursor) ([]*hdf5.Attribute, error) {
	n, err := readList(c, tagAttribute, 12)
	if err != nil {
		return nil, err
	}
	attrs := make([]*hdf5.Attribute, 0, n)
	for range n {
		name, err := readName(c)
		if err != nil {
			return nil, err
		}
		typ, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		count, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		et, size, err := elementType(typ)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		nbytes := uint64(count) * size
		raw, err := c.ReadBytes(pad4(nbytes))
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		a := &hdf5.Attribute{Name: name, Type: et}
		if et == dtype.String {
			a.Text = strings.TrimRight(string(raw[:nbytes]), "\x00")
		} else if a.Value, err = decode(et, raw[:nbytes]); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func (f *File) readVars(c *binary.Cursor) error {
	n, err := readList(c, tagVariable, 16)
	if err != nil {
		return fmt.Errorf("variable list: %w", err)
	}
	f.Vars = make([]*Var, 0, n)
	for range n {
		v, err := f.readVar(c)
		if err != nil {
			return err
		}
		f.Vars = append(f.Vars, v)
	}
	return nil
}

func (f *File) readVar(c *binary.Cursor) (*Var, error) {
	name, err := readName(c)
	if err != nil {
		return nil, fmt.Errorf("variable name: %w", err)
	}
	ndims, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	if uint64(ndims)*4 > c.Remaining() {
		return nil, fmt.Errorf("variable %q: %w: %d dimension ids", name, hdferr.ErrTruncatedInput, ndims)
	}
	v := &Var{Name: name, DimIDs: make([]int, ndims)}
	for i := range v.DimIDs {
		id, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		if uint64(id) >= uint64(len(f.Dims)) {
			return nil, fmt.Errorf("variable %q: %w: dimension id %d of %d",
				name, hdferr.ErrMalformedInput, id, len(f.Dims))
		}
		v.DimIDs[i] = int(id)
		if f.Dims[id].Record {
			v.Record = true
		}
	}
	if v.Attributes, err = readAttrs(c); err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	typ, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	if v.Type, _, err = elementType(typ); err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	vsize, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	v.VSize = uint64(vsize)
	if v.Begin, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	return v, nil
}

// recordBytes returns the unpadded byte size of the variable, or of one of
// its records.
func (f *File) recordBytes(v *Var) (uint64, error) {
	var dims []uint64
	for _, id := range v.DimIDs {
		if !f.Dims[id].Record {
			dims = append(dims, f.Dims[id].Len)
		}
	}
	n, err := dtype.Count(dims)
	if err != nil {
		return 0, err
	}
	size := v.Type.Size()
	if v.Type == dtype.String {
		size = 1
	}
	return dtype.ByteLen(n, size)
}

// readData reads each variable. Record variables are gathered from every
// record, which interleaves all record variables at a stride of their summed
// sizes.
func (f *File) readData(c *binary.Cursor) error {
	var recSize uint64
	for _, v := range f.Vars {
		if v.Record {
			recSize += v.VSize
		}
	}
	for _, v := range f.Vars {
		nbytes, err := f.recordBytes(v)
		if err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
		var raw []byte
		if !v.Record {
			b, err := c.Slice(v.Begin, v.Begin+nbytes)
			if err != nil {
				return fmt.Errorf("variable %q: %w", v.Name, err)
			}
			raw = b
		} else {
			if err := checkRecords(c, v, nbytes, recSize, f.NumRecs); err != nil {
				return fmt.Errorf("variable %q: %w", v.Name, err)
			}
			raw = make([]byte, 0, nbytes*f.NumRecs)
			for r := range f.NumRecs {
				start := v.Begin + r*recSize
				b, err := c.Slice(start, start+nbytes)
				if err != nil {
					return fmt.Errorf("variable %q record %d: %w", v.Name, r, err)
				}
				raw = append(raw, b...)
			}
		}
		if v.Type == dtype.String {
			v.Text = strings.TrimRight(string(raw), "\x00")
			continue
		}
		arr, err := decode(v.Type, raw)
		if err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
		v.Data = arr
	}
	return nil
}

// checkRecords confirms that every record of v lies inside the buffer before
// any of them is gathered.
func checkRecords(c *binary.Cursor, v *Var, nbytes, recSize, numRecs uint64) error {
	if numRecs == 0 {
		return nil
	}
	hi, total := bits.Mul64(nbytes, numRecs)
	if hi != 0 {
		return fmt.Errorf("%w: %d records of %d bytes overflow", hdferr.ErrMalformedInput, numRecs, nbytes)
	}
	hi, span := bits.Mul64(numRecs-1, recSize)
	if hi != 0 || total > c.Len() || v.Begin > c.Len() || span > c.Len()-v.Begin {
		return fmt.Errorf("%w: %d records of %d bytes at 0x%x, stride %d, outside %d-byte buffer",
			hdferr.ErrTruncatedInput, numRecs, nbytes, v.Begin, recSize, c.Len())
	}
	return nil
}

// Tree converts the file into a node tree with the MINC length and dimorder
// attributes filled in.
func (f *File) Tree() *hdf5.Node {
	root := &hdf5.Node{Name: "/", Attributes: f.Attributes}
	for _, v := range f.Vars {
		n := &hdf5.Node{
			Name:       v.Name,
			Type:       v.Type,
			Data:       v.Data,
			Attributes: v.Attributes,
			Dims:       make([]uint64, len(v.DimIDs)),
		}
		names := make([]string, len(v.DimIDs))
		for i, id := range v.DimIDs {
			n.Dims[i] = f.Dims[id].Len
			names[i] = f.Dims[id].Name
		}
		if d, ok := f.dim(v.Name); ok && n.Attribute("length") == nil {
			n.Attributes = append(n.Attributes, &hdf5.Attribute{
				Name:  "length",
				Type:  dtype.Int32,
				Value: dtype.Of(int32(d.Len)),
			})
		}
		if len(names) > 0 && n.Attribute("dimorder") == nil {
			n.Attributes = append(n.Attributes, &hdf5.Attribute{
				Name: "dimorder",
				Type: dtype.String,
				Text: strings.Join(names, ","),
			})
		}
		root.Children = append(root.Children, n)
	}
	return root
}

func (f *File) dim(name string) (Dim, bool) {
	for _, d := range f.Dims {
		if d.Name == name {
			return d, true
		}
	}
	return Dim{}, false
}

func elementType(typ uint32) (dtype.ElementType, uint64, error) {
	switch typ {
	case TypeByte:
		return dtype.UInt8, 1, nil
	case TypeChar:
		return dtype.String, 1, nil
	case TypeShort:
		return dtype.Int16, 2, nil
	case TypeInt:
		return dtype.Int32, 4, nil
	case TypeFloat:
		return dtype.Float32, 4, nil
	case TypeDouble:
		return dtype.Float64, 8, nil
	}
	return dtype.Unresolved, 0, fmt.Errorf("%w: NetCDF type %d", hdferr.ErrUnsupportedEncoding, typ)
}

// decode converts big-endian values into a freshly allocated array.
func decode(t dtype.ElementType, b []byte) (dtype.Array, error) {
	size := t.Size()
	le := make([]byte, len(b))
	for i := 0; i+size <= len(b); i += size {
		for j := range size {
			le[i+j] = b[i+size-1-j]
		}
	}
	return dtype.View(t, le)
}

func pad4(n uint64) uint64 {
	return (n + 3) &^ 3
}
