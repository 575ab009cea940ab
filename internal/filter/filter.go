package filter

import "fmt"

// Inflater decompresses one DEFLATE (zlib-wrapped) payload.
type Inflater interface {
	Inflate(src []byte) ([]byte, error)
}

// InflaterFunc adapts a function to the Inflater interface.
type InflaterFunc func(src []byte) ([]byte, error)

func (f InflaterFunc) Inflate(src []byte) ([]byte, error) { return f(src) }

// Counting wraps an Inflater and records how many payloads pass through it.
type Counting struct {
	Inflater Inflater
	Calls    int
}

func (c *Counting) Inflate(src []byte) ([]byte, error) {
	c.Calls++
	out, err := c.Inflater.Inflate(src)
	if err != nil {
		return nil, fmt.Errorf("inflate call %d: %w", c.Calls, err)
	}
	return out, nil
}
