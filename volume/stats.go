package volume

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the voxels that took part in reconstruction: every voxel
// of an integer image, and the in-range voxels of a float image.
type Stats struct {
	Count  int
	Sum    float64
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

func computeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{
		Count: len(values),
		Sum:   floats.Sum(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}
	if len(values) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	} else {
		s.Mean = values[0]
	}
	return s
}
