package volume

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/robert-malhotra/go-minc/hdf5"
)

// Datatype is the element type of every reconstructed volume.
const Datatype = "float32"

// Axis describes one spatial or temporal dimension.
type Axis struct {
	Step             float64   `json:"step"`
	Start            float64   `json:"start"`
	SpaceLength      float64   `json:"space_length"`
	DirectionCosines []float64 `json:"direction_cosines,omitempty"`
}

// Header is the viewer header. It encodes as one JSON object holding an
// entry per axis name next to the "order" and "datatype" keys.
type Header struct {
	Order    []string
	Axes     map[string]Axis
	Datatype string
}

func (h Header) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(h.Axes)+2)
	for name, a := range h.Axes {
		out[name] = a
	}
	out["order"] = h.Order
	out["datatype"] = h.Datatype
	return json.Marshal(out)
}

func (h *Header) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*h = Header{Axes: make(map[string]Axis)}
	for key, raw := range fields {
		var err error
		switch key {
		case "order":
			err = json.Unmarshal(raw, &h.Order)
		case "datatype":
			err = json.Unmarshal(raw, &h.Datatype)
		default:
			var a Axis
			err = json.Unmarshal(raw, &a)
			h.Axes[key] = a
		}
		if err != nil {
			return fmt.Errorf("header field %q: %w", key, err)
		}
	}
	return nil
}

// readHeader assembles the header from the image's dimorder attribute and
// the dimension variables it names.
func readHeader(root, image *hdf5.Node) (Header, error) {
	dimorder, ok := hdf5.FindAttribute(image, "dimorder")
	if !ok || !dimorder.IsText() {
		return Header{}, fmt.Errorf("%w: no dimension order on %s", hdf5.ErrMissingRequiredData, image.Name)
	}
	h := Header{
		Order:    strings.Split(dimorder.Text, ","),
		Axes:     make(map[string]Axis),
		Datatype: Datatype,
	}
	for _, name := range h.Order {
		dim := hdf5.FindDataset(root, name)
		if dim == nil {
			return Header{}, fmt.Errorf("%w: no dimension variable %s", hdf5.ErrMissingRequiredData, name)
		}
		var a Axis
		for _, f := range []struct {
			attr string
			dst  *float64
		}{
			{"step", &a.Step},
			{"start", &a.Start},
			{"length", &a.SpaceLength},
		} {
			v, err := firstValue(dim, f.attr)
			if err != nil {
				return Header{}, err
			}
			*f.dst = v
		}
		if cos, ok := hdf5.FindAttribute(dim, "direction_cosines"); ok {
			a.DirectionCosines = cos.Float64s()
		}
		h.Axes[name] = a
	}
	return h, nil
}

func firstValue(n *hdf5.Node, name string) (float64, error) {
	a, ok := hdf5.FindAttribute(n, name)
	if !ok {
		return 0, fmt.Errorf("%w: no %s for %s", hdf5.ErrMissingRequiredData, name, n.Name)
	}
	v, ok := a.Float64()
	if !ok {
		return 0, fmt.Errorf("%w: %s of %s is not numeric", hdf5.ErrMissingRequiredData, name, n.Name)
	}
	return v, nil
}
