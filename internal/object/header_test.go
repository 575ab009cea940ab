package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/fixture"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

func read(t *testing.T, buf []byte, addr uint64, opts Options) (*Header, error) {
	t.Helper()
	return Read(binary.NewCursor(buf, binary.DefaultConfig()), addr, opts)
}

func types(h *Header) []message.Type {
	out := make([]message.Type, len(h.Messages))
	for i, m := range h.Messages {
		out[i] = m.Type()
	}
	return out
}

func TestReadV1(t *testing.T) {
	b := fixture.New(0)
	addr := b.HeaderV1([]fixture.Msg{
		b.Int(2, true),
		b.Dataspace(4, 5),
		b.Contiguous(0x100, 40),
		b.TextAttribute(1, "dimorder", "yspace,xspace"),
	})
	buf := b.Finish(addr)

	h, err := read(t, buf, addr, Options{})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), h.Version)
	assert.Equal(t, uint32(1), h.RefCount)
	assert.Equal(t, []message.Type{
		message.TypeDatatype, message.TypeDataspace, message.TypeDataLayout, message.TypeAttribute,
	}, types(h))
	assert.Equal(t, []uint64{4, 5}, h.Dataspace().Dimensions)
	assert.Equal(t, uint64(0x100), h.Layout().Address)
	require.Len(t, h.Attributes(), 1)
	assert.Equal(t, "yspace,xspace", h.Attributes()[0].Text)
	assert.Nil(t, h.FilterPipeline())
}

func TestReadV1Continuations(t *testing.T) {
	b := fixture.New(0)
	addr := b.HeaderV1(
		[]fixture.Msg{b.Int(1, false)},
		[]fixture.Msg{b.Dataspace(8), b.Float64Attribute(1, "step", 1.5)},
		[]fixture.Msg{b.Float64Attribute(1, "start", -3)},
	)
	buf := b.Finish(addr)

	h, err := read(t, buf, addr, Options{})
	require.NoError(t, err)
	assert.Equal(t, []message.Type{
		message.TypeDatatype, message.TypeObjectHeaderContinuation,
		message.TypeDataspace, message.TypeAttribute, message.TypeObjectHeaderContinuation,
		message.TypeAttribute,
	}, types(h))
	attrs := h.Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "step", attrs[0].Name)
	assert.Equal(t, "start", attrs[1].Name)
}

func TestReadV1RejectsUnalignedSize(t *testing.T) {
	b := fixture.New(0)
	addr := b.HeaderV1([]fixture.Msg{b.Dataspace(3)})
	buf := b.Finish(addr)
	buf[addr+16+2] = 12 // message size field

	_, err := read(t, buf, addr, Options{})
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)
}

func TestReadV1ContinuationLoop(t *testing.T) {
	b := fixture.New(0)
	// A continuation that points back at the first message block.
	self := (b.Pos()+7)&^7 + 16
	addr := b.HeaderV1([]fixture.Msg{b.Continuation(self, 24)})
	require.Equal(t, self, addr+16)
	buf := b.Finish(addr)
	buf[addr+2] = 3 // message count larger than what is reachable

	_, err := read(t, buf, addr, Options{})
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)
}

func TestReadV1TruncatedContinuation(t *testing.T) {
	b := fixture.New(0)
	addr := b.HeaderV1([]fixture.Msg{b.Int(1, true), b.Continuation(1<<20, 64)})
	buf := b.Finish(addr)

	_, err := read(t, buf, addr, Options{})
	assert.ErrorIs(t, err, hdferr.ErrTruncatedInput)
}

func TestReadV2(t *testing.T) {
	cases := []struct {
		name  string
		flags uint8
	}{
		{"1-byte chunk size", 0x00},
		{"4-byte chunk size", 0x02},
		{"creation order", 0x06},
		{"timestamps", 0x22},
		{"phase change", 0x11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := fixture.New(2)
			addr := b.HeaderV2Flags(tc.flags, []fixture.Msg{
				b.Float(4),
				b.Dataspace(2, 2),
				b.Chunked(0x400, 4, 1, 2),
				b.Deflate(),
			})
			buf := b.Finish(addr)

			h, err := read(t, buf, addr, Options{VerifyChecksum: true})
			require.NoError(t, err)
			assert.Equal(t, uint8(2), h.Version)
			assert.Equal(t, tc.flags, h.Flags)
			assert.Equal(t, []message.Type{
				message.TypeDatatype, message.TypeDataspace, message.TypeDataLayout, message.TypeFilterPipeline,
			}, types(h))
			assert.True(t, h.FilterPipeline().Deflate())
			if tc.flags&0x20 != 0 {
				assert.NotZero(t, h.ModTime)
			}
		})
	}
}

func TestReadV2Continuations(t *testing.T) {
	b := fixture.New(2)
	addr := b.HeaderV2(
		[]fixture.Msg{b.LinkInfo(), b.Link("a", 0x10)},
		[]fixture.Msg{b.Link("b", 0x20)},
		[]fixture.Msg{b.Link("c", 0x30)},
	)
	buf := b.Finish(addr)

	h, err := read(t, buf, addr, Options{VerifyChecksum: true})
	require.NoError(t, err)
	var names []string
	for _, l := range h.Links() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.NotNil(t, h.LinkInfo())
}

func TestReadV2Checksum(t *testing.T) {
	b := fixture.New(2)
	addr := b.HeaderV2([]fixture.Msg{b.Int(2, false), b.Dataspace(1)})
	buf := b.Finish(addr)
	buf[addr+10] ^= 0xff // first message type

	_, err := read(t, buf, addr, Options{VerifyChecksum: true})
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)
}

func TestReadV2BadContinuationSignature(t *testing.T) {
	b := fixture.New(2)
	cont := b.Raw([]byte("XXXX\x00\x00\x00\x00"))
	addr := b.HeaderV2([]fixture.Msg{b.Continuation(cont, 8)})
	buf := b.Finish(addr)

	_, err := read(t, buf, addr, Options{})
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)
}

func TestReadUnknownVersion(t *testing.T) {
	buf := make([]byte, 64)
	buf[8] = 3
	_, err := read(t, buf, 8, Options{})
	assert.ErrorIs(t, err, hdferr.ErrUnsupportedVersion)

	_, err = read(t, buf, 62, Options{})
	assert.ErrorIs(t, err, hdferr.ErrTruncatedInput)
}

func TestHeaderGetMessages(t *testing.T) {
	h := &Header{
		Version: 2,
		Messages: []message.Message{
			&message.Dataspace{Dimensions: []uint64{10, 20}},
			&message.Attribute{Name: "attr1"},
			&message.Attribute{Name: "attr2"},
		},
	}
	assert.Len(t, h.GetMessages(message.TypeAttribute), 2)
	assert.Len(t, h.GetMessages(message.TypeDataspace), 1)
	assert.Empty(t, h.GetMessages(message.TypeLink))
	assert.Nil(t, h.GetMessage(message.TypeFilterPipeline))
	assert.Nil(t, h.Datatype())
	assert.Equal(t, []uint64{10, 20}, h.Dataspace().Dimensions)
}
