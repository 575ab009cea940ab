package filter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Zlib is the default Inflater.
type Zlib struct {
	// SizeHint preallocates the output buffer, typically the uncompressed
	// chunk size. Zero lets the buffer grow.
	SizeHint int
}

func (z Zlib) Inflate(src []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib header: %v", hdferr.ErrMalformedInput, err)
	}
	defer r.Close()

	var out bytes.Buffer
	out.Grow(z.SizeHint)
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("%w: zlib stream: %v", hdferr.ErrMalformedInput, err)
	}
	return out.Bytes(), nil
}
