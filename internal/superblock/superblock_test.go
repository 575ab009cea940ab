package superblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

func buildV0(version uint8, offsetSize int, root, btree, heap uint64) []byte {
	w := binary.NewWriter(binary.Config{OffsetSize: offsetSize, LengthSize: offsetSize})
	w.WriteBytes(Signature)
	w.WriteUint8(version)
	w.WriteZeros(4)
	w.WriteUint8(uint8(offsetSize))
	w.WriteUint8(uint8(offsetSize))
	w.WriteUint8(0)
	w.WriteUint16(4)  // leaf K
	w.WriteUint16(16) // internal K
	w.WriteUint32(0)
	if version == 1 {
		w.WriteUint16(32)
		w.WriteZeros(2)
	}
	w.WriteOffset(0)
	w.WriteUndefinedOffset()
	w.WriteOffset(4096)
	w.WriteUndefinedOffset()
	w.WriteOffset(0)
	w.WriteOffset(root)
	w.WriteUint32(1)
	w.WriteUint32(0)
	start := w.Pos()
	w.WriteOffset(btree)
	w.WriteOffset(heap)
	w.PadTo(start + 16)
	return w.Bytes()
}

func buildV2(offsetSize int, root uint64) []byte {
	w := binary.NewWriter(binary.Config{OffsetSize: offsetSize, LengthSize: offsetSize})
	w.WriteBytes(Signature)
	w.WriteUint8(2)
	w.WriteUint8(uint8(offsetSize))
	w.WriteUint8(uint8(offsetSize))
	w.WriteUint8(0)
	w.WriteOffset(0)
	w.WriteUndefinedOffset()
	w.WriteOffset(8192)
	w.WriteOffset(root)
	w.WriteChecksum(0)
	return w.Bytes()
}

func TestReadRecoversWidthsAndRoot(t *testing.T) {
	cases := []struct {
		name       string
		buf        []byte
		version    uint8
		offsetSize uint8
		root       uint64
	}{
		{"v0 8-byte", buildV0(0, 8, 0x60, 0x88, 0x2a8), 0, 8, 0x60},
		{"v0 4-byte", buildV0(0, 4, 0x40, 0x70, 0x90), 0, 4, 0x40},
		{"v1 8-byte", buildV0(1, 8, 0x64, 0x88, 0x2a8), 1, 8, 0x64},
		{"v2 8-byte", buildV2(8, 0x30), 2, 8, 0x30},
		{"v2 4-byte", buildV2(4, 0x1c), 2, 4, 0x1c},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sb, err := Read(c.buf, Options{VerifyChecksum: true})
			require.NoError(t, err)
			assert.Equal(t, c.version, sb.Version)
			assert.Equal(t, c.offsetSize, sb.OffsetSize)
			assert.Equal(t, c.offsetSize, sb.LengthSize)
			assert.Equal(t, c.root, sb.RootAddress)
			assert.Equal(t, int(c.offsetSize), sb.CursorConfig().OffsetSize)
		})
	}
}

func TestReadV0ScratchPad(t *testing.T) {
	sb, err := Read(buildV0(0, 8, 0x60, 0x88, 0x2a8), Options{})
	require.NoError(t, err)
	require.True(t, sb.HasRootSymbolTable)
	assert.Equal(t, uint64(0x88), sb.RootBTreeAddress)
	assert.Equal(t, uint64(0x2a8), sb.RootHeapAddress)
	assert.Equal(t, uint64(4096), sb.EOFAddress)
	assert.Equal(t, uint16(4), sb.GroupLeafNodeK)

	sb, err = Read(buildV0(1, 8, 0x60, 0x88, 0x2a8), Options{})
	require.NoError(t, err)
	assert.Equal(t, uint16(32), sb.IndexedStorageK)
}

func TestReadRejectsBadMagic(t *testing.T) {
	buf := buildV2(8, 0x30)
	buf[1] = 'X'
	snapshot := append([]byte(nil), buf...)

	sb, err := Read(buf, Options{})
	assert.Nil(t, sb)
	assert.ErrorIs(t, err, hdferr.ErrUnrecognizedFormat)
	assert.Equal(t, snapshot, buf)

	_, err = Read([]byte("CDF\x01"), Options{})
	assert.ErrorIs(t, err, hdferr.ErrUnrecognizedFormat)
}

func TestReadRejectsLaterVersions(t *testing.T) {
	buf := buildV2(8, 0x30)
	buf[8] = 3
	_, err := Read(buf, Options{})
	assert.ErrorIs(t, err, hdferr.ErrUnsupportedVersion)
}

func TestReadChecksum(t *testing.T) {
	buf := buildV2(8, 0x30)
	buf[len(buf)-1] ^= 0xff

	_, err := Read(buf, Options{VerifyChecksum: true})
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)

	_, err = Read(buf, Options{})
	assert.NoError(t, err, "checksum is ignored unless requested")
}

func TestReadTruncated(t *testing.T) {
	buf := buildV0(0, 8, 0x60, 0x88, 0x2a8)
	_, err := Read(buf[:40], Options{})
	assert.ErrorIs(t, err, hdferr.ErrTruncatedInput)
}

func TestReadBadWidth(t *testing.T) {
	buf := buildV2(8, 0x30)
	buf[9] = 3
	_, err := Read(buf, Options{})
	assert.ErrorIs(t, err, hdferr.ErrUnsupportedEncoding)
}
