package heap

import (
	encbinary "encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/fixture"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

func cursor(buf []byte) *binary.Cursor {
	return binary.NewCursor(buf, binary.DefaultConfig())
}

func TestLocalHeapGetString(t *testing.T) {
	heap := &LocalHeap{data: []byte("hello\x00world\x00test\x00\x00\x00noterm")}

	tests := []struct {
		name   string
		offset uint64
		want   string
	}{
		{"first string", 0, "hello"},
		{"second string", 6, "world"},
		{"third string", 12, "test"},
		{"empty", 17, ""},
		{"no terminator", 19, "noterm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := heap.GetString(tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := heap.GetString(100)
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)
}

func TestReadLocalHeap(t *testing.T) {
	b := fixture.New(0)
	st := b.SymbolGroup(fixture.Entry{Name: "dimensions", Addr: 1}, fixture.Entry{Name: "image", Addr: 2})
	buf := b.Finish(0)
	heapAddr := encbinary.LittleEndian.Uint64(st.Body[8:])

	h, err := ReadLocalHeap(cursor(buf), heapAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(32), h.DataSize)

	name, err := h.GetString(8)
	require.NoError(t, err)
	assert.Equal(t, "dimensions", name)
	name, err = h.GetString(24)
	require.NoError(t, err)
	assert.Equal(t, "image", name)
}

func TestReadLocalHeapErrors(t *testing.T) {
	_, err := ReadLocalHeap(cursor([]byte("XXXX\x00\x00\x00\x00")), 0)
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)

	_, err = ReadLocalHeap(cursor([]byte("HEAP\x01\x00\x00\x00")), 0)
	assert.ErrorIs(t, err, hdferr.ErrUnsupportedVersion)

	w := binary.NewWriter(binary.DefaultConfig())
	w.WriteBytes([]byte("HEAP"))
	w.WriteZeros(4)
	w.WriteLength(64)
	w.WriteLength(0)
	w.WriteOffset(1 << 16)
	_, err = ReadLocalHeap(cursor(w.Bytes()), 0)
	assert.ErrorIs(t, err, hdferr.ErrTruncatedInput)
}

func denseHeap(t *testing.T) ([]byte, uint64, uint64) {
	t.Helper()
	b := fixture.New(2)
	info := b.DenseAttributes(
		b.Float64Attribute(3, "valid_range", 0, 4095),
		b.TextAttribute(3, "dimorder", "zspace,yspace,xspace"),
	)
	buf := b.Finish(0)
	return buf, encbinary.LittleEndian.Uint64(info.Body[2:]), encbinary.LittleEndian.Uint64(info.Body[10:])
}

func TestReadFractalHeap(t *testing.T) {
	buf, addr, _ := denseHeap(t)

	h, err := ReadFractalHeap(cursor(buf), addr, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), h.ManagedObjects)
	assert.Equal(t, uint16(32), h.MaxHeapSizeBits)
	assert.Equal(t, uint64(512), h.StartBlockSize)

	blk, err := h.RootBlock(cursor(buf))
	require.NoError(t, err)
	require.NotNil(t, blk)
	assert.Equal(t, h.RootAddress, blk.Address)
	assert.Equal(t, blk.Address+5+8+4+4, blk.Start)
	assert.Equal(t, blk.Address+512, blk.End)
	assert.Equal(t, []byte{3}, buf[blk.Start:blk.Start+1], "first object is a version 3 attribute")
}

func TestReadFractalHeapRejects(t *testing.T) {
	buf, addr, _ := denseHeap(t)
	c := cursor(buf)
	h, err := ReadFractalHeap(c, addr, false)
	require.NoError(t, err)

	// Offsets of fields after the fixed prefix (8-byte widths).
	const (
		ioFilterLen = 7
		rootRows    = 10 + 4 + 12*8 + 2 + 8 + 8 + 2 + 2 + 8
		tinyObjects = 10 + 4 + 11*8
	)
	cases := []struct {
		name   string
		patch  func(b []byte)
		verify bool
		want   error
	}{
		{"filtered objects", func(b []byte) { b[addr+ioFilterLen] = 16 }, false, hdferr.ErrUnsupportedEncoding},
		{"indirect root", func(b []byte) { b[addr+rootRows] = 1 }, false, hdferr.ErrUnsupportedEncoding},
		{"tiny objects", func(b []byte) { b[addr+tinyObjects] = 1 }, false, hdferr.ErrUnsupportedEncoding},
		{"bad signature", func(b []byte) { b[addr] = 'X' }, false, hdferr.ErrMalformedInput},
		{"checksum", func(b []byte) { b[addr+20] ^= 1 }, true, hdferr.ErrMalformedInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := append([]byte(nil), buf...)
			tc.patch(b)
			_, err := ReadFractalHeap(cursor(b), addr, tc.verify)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("foreign direct block", func(t *testing.T) {
		b := append([]byte(nil), buf...)
		b[h.RootAddress+5] ^= 0xff
		_, err := h.RootBlock(cursor(b))
		assert.ErrorIs(t, err, hdferr.ErrMalformedInput)
	})
}
