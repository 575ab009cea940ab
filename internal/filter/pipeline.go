package filter

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

// Pipeline decodes chunks of one dataset.
type Pipeline struct {
	stages   int
	inflater Inflater
}

// NewPipeline builds the decoding pipeline for fp, which may be nil. A
// pipeline that needs decompression fails here, before any chunk is read,
// when inf is nil.
func NewPipeline(fp *message.FilterPipeline, inf Inflater) (*Pipeline, error) {
	p := &Pipeline{inflater: inf}
	if fp == nil {
		return p, nil
	}
	for _, f := range fp.Filters {
		if f.ID != message.FilterDeflate {
			return nil, fmt.Errorf("%w: filter %d", hdferr.ErrUnsupportedEncoding, f.ID)
		}
		p.stages++
	}
	if p.stages > 0 && inf == nil {
		return nil, fmt.Errorf("%w: dataset is deflate-compressed and no inflater is configured",
			hdferr.ErrUnsupportedEncoding)
	}
	return p, nil
}

// Decode applies the pipeline in reverse order, skipping the stages whose
// bit is set in mask.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := p.stages - 1; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 {
			continue
		}
		out, err := p.inflater.Inflate(data)
		if err != nil {
			return nil, fmt.Errorf("deflate stage %d: %w", i, err)
		}
		data = out
	}
	return data, nil
}

// Empty reports whether the pipeline passes data through unchanged.
func (p *Pipeline) Empty() bool {
	return p.stages == 0
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return p.stages
}
