package filter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-minc/internal/fixture"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

func TestZlibRoundtrip(t *testing.T) {
	original := bytes.Repeat([]byte("voxel data for compression testing. "), 40)

	for _, hint := range []int{0, len(original)} {
		out, err := Zlib{SizeHint: hint}.Inflate(fixture.Deflate(original))
		require.NoError(t, err)
		assert.Equal(t, original, out)
	}
}

func TestZlibRejectsGarbage(t *testing.T) {
	_, err := Zlib{}.Inflate([]byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)

	truncated := fixture.Deflate(bytes.Repeat([]byte{7}, 1000))
	_, err = Zlib{}.Inflate(truncated[:len(truncated)/2])
	assert.ErrorIs(t, err, hdferr.ErrMalformedInput)
}

func deflatePipeline(n int) *message.FilterPipeline {
	fp := &message.FilterPipeline{Version: 2}
	for range n {
		fp.Filters = append(fp.Filters, message.FilterInfo{ID: message.FilterDeflate})
	}
	return fp
}

func TestNewPipeline(t *testing.T) {
	tests := []struct {
		name    string
		fp      *message.FilterPipeline
		inf     Inflater
		stages  int
		wantErr error
	}{
		{"no message", nil, nil, 0, nil},
		{"empty message", deflatePipeline(0), nil, 0, nil},
		{"deflate", deflatePipeline(1), Zlib{}, 1, nil},
		{"deflate without inflater", deflatePipeline(1), nil, 0, hdferr.ErrUnsupportedEncoding},
		{"shuffle", &message.FilterPipeline{Filters: []message.FilterInfo{{ID: message.FilterShuffle}}}, Zlib{}, 0, hdferr.ErrUnsupportedEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPipeline(tt.fp, tt.inf)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stages, p.Len())
			assert.Equal(t, tt.stages == 0, p.Empty())
		})
	}
}

func TestPipelineDecode(t *testing.T) {
	raw := []byte("sixteen bytes!!!")
	counter := &Counting{Inflater: Zlib{}}
	p, err := NewPipeline(deflatePipeline(1), counter)
	require.NoError(t, err)

	out, err := p.Decode(fixture.Deflate(raw), 0)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
	assert.Equal(t, 1, counter.Calls)

	// Bit 0 set: the chunk was stored raw.
	out, err = p.Decode(raw, 1)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
	assert.Equal(t, 1, counter.Calls)
}

func TestPipelineDecodeTwice(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	p, err := NewPipeline(deflatePipeline(2), Zlib{})
	require.NoError(t, err)

	out, err := p.Decode(fixture.Deflate(fixture.Deflate(raw)), 0)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	// Stage 1 skipped: only one inflate.
	out, err = p.Decode(fixture.Deflate(raw), 0b10)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestPipelineDecodeError(t *testing.T) {
	boom := errors.New("boom")
	p, err := NewPipeline(deflatePipeline(1), InflaterFunc(func([]byte) ([]byte, error) {
		return nil, boom
	}))
	require.NoError(t, err)

	_, err = p.Decode([]byte{0}, 0)
	assert.ErrorIs(t, err, boom)
}

func TestEmptyPipelinePassesThrough(t *testing.T) {
	p, err := NewPipeline(nil, nil)
	require.NoError(t, err)
	in := []byte{9, 8, 7}
	out, err := p.Decode(in, 0)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
