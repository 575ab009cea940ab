package hdf5

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/message"
)

// Attribute is a named value attached to a node. Values are fully
// materialized and never alias the input buffer.
type Attribute struct {
	Name string
	Type dtype.ElementType

	// Value is set for numeric attributes, Text for string attributes.
	Value dtype.Array
	Text  string
}

func newAttribute(m *message.Attribute) *Attribute {
	return &Attribute{
		Name:  m.Name,
		Type:  m.Element(),
		Value: m.Value,
		Text:  m.Text,
	}
}

// IsText reports whether the attribute holds a string.
func (a *Attribute) IsText() bool {
	return a.Type == dtype.String
}

// Len returns the number of values, or the string length for text.
func (a *Attribute) Len() int {
	if a.Value == nil {
		return len(a.Text)
	}
	return a.Value.Len()
}

// Float64s returns the numeric values converted to float64, or nil for a
// text or unresolved attribute.
func (a *Attribute) Float64s() []float64 {
	if a.Value == nil {
		return nil
	}
	return dtype.Float64s(a.Value)
}

// Float64 returns the first numeric value.
func (a *Attribute) Float64() (float64, bool) {
	if a.Value == nil || a.Value.Len() == 0 {
		return 0, false
	}
	return a.Value.At(0), true
}

// String renders the value: quoted text, or up to 16 values in braces.
func (a *Attribute) String() string {
	if a.IsText() {
		return fmt.Sprintf("%q", a.Text)
	}
	if a.Value == nil {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	n := a.Value.Len()
	for i := 0; i < min(n, 16); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprint(&sb, a.Value.At(i))
	}
	if n > 16 {
		sb.WriteString(", ...")
	}
	sb.WriteByte('}')
	return sb.String()
}
