package hdf5

import (
	"fmt"
	"io"
	"strings"

	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/message"
)

// Node is one object of the tree: a group, a dataset, or both. A node owns
// its attributes and children; the tree has no back edges.
type Node struct {
	Name string

	// Type is Unresolved for groups.
	Type dtype.ElementType
	Dims []uint64

	// Data is nil until LoadData runs, and stays nil for string and
	// unresolved datasets.
	Data dtype.Array

	Attributes []*Attribute
	Children   []*Node

	// HeaderAddress is the address of the node's object header.
	HeaderAddress uint64

	// Storage is nil for nodes without a layout message.
	Storage *Storage
}

// Storage describes where a dataset's values live.
type Storage struct {
	Layout message.LayoutClass

	// Address is the data address for contiguous and compact storage and the
	// raw-data B-tree root for chunked storage.
	Address uint64

	// Size is the stored byte length for contiguous and compact storage and
	// the decoded size of one chunk for chunked storage.
	Size uint64

	ChunkDims []uint32
	Deflate   bool

	filters *message.FilterPipeline
}

// IsDataset reports whether the node has a resolved element type.
func (n *Node) IsDataset() bool {
	return n.Type != dtype.Unresolved
}

// NumElements returns the product of the dimensions, 1 for a scalar.
func (n *Node) NumElements() uint64 {
	total := uint64(1)
	for _, d := range n.Dims {
		total *= d
	}
	return total
}

// Child returns the direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Attribute returns the node's own attribute with the given name.
func (n *Node) Attribute(name string) *Attribute {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Float64s returns the loaded values converted to float64.
func (n *Node) Float64s() ([]float64, error) {
	if n.Data == nil {
		return nil, fmt.Errorf("%s: %w", n.Name, ErrNotLoaded)
	}
	return dtype.Float64s(n.Data), nil
}

// Lookup resolves a slash-separated path relative to n. A leading slash is
// ignored, so "/minc-2.0/image" and "minc-2.0/image" are equivalent.
func (n *Node) Lookup(path string) *Node {
	cur := n
	for _, part := range SplitPath(path) {
		if cur = cur.Child(part); cur == nil {
			return nil
		}
	}
	return cur
}

// LookupAttr resolves a path of the form "/group/object@attribute".
func (n *Node) LookupAttr(path string) (*Attribute, error) {
	objectPath, attrName, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}
	obj := n.Lookup(objectPath)
	if obj == nil {
		return nil, fmt.Errorf("%w: no object %s", ErrMissingRequiredData, objectPath)
	}
	a := obj.Attribute(attrName)
	if a == nil {
		return nil, fmt.Errorf("%w: no attribute %s on %s", ErrMissingRequiredData, attrName, objectPath)
	}
	return a, nil
}

// FindDataset returns the first dataset named name in a depth-first,
// parent-before-children search from root.
func FindDataset(root *Node, name string) *Node {
	if root == nil {
		return nil
	}
	if root.Name == name && root.IsDataset() {
		return root
	}
	for _, c := range root.Children {
		if found := FindDataset(c, name); found != nil {
			return found
		}
	}
	return nil
}

// FindAttribute returns the first attribute named name in a depth-first,
// parent-before-children search from n.
func FindAttribute(n *Node, name string) (*Attribute, bool) {
	var found *Attribute
	err := WalkAttrs(n, func(info AttrInfo) error {
		if info.Name == name {
			found = info.Attr
			return ErrStopWalk
		}
		return nil
	})
	if err != nil {
		return nil, false
	}
	return found, found != nil
}

// Style decorates the parts of a printed tree. Nil fields print plain text.
type Style struct {
	Name      func(a ...any) string
	Type      func(a ...any) string
	Attribute func(a ...any) string
}

func apply(f func(a ...any) string, s string) string {
	if f == nil {
		return s
	}
	return f(s)
}

// Print writes an indented outline of the tree: one line per node with its
// type, dimensions and loaded length, then one line per attribute.
func (n *Node) Print(w io.Writer, style Style) error {
	return n.print(w, style, 0)
}

func (n *Node) print(w io.Writer, style Style, level int) error {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", level*2))
	name := n.Name
	if len(n.Children) > 0 && name != "/" {
		name += "/"
	}
	sb.WriteString(apply(style.Name, name))
	if n.IsDataset() {
		desc := n.Type.String()
		if len(n.Dims) > 0 {
			dims := make([]string, len(n.Dims))
			for i, d := range n.Dims {
				dims[i] = fmt.Sprint(d)
			}
			desc += "[" + strings.Join(dims, ", ") + "]"
		}
		if n.Data != nil {
			desc += fmt.Sprintf(":%d", n.Data.Len())
		} else {
			desc += " NULL"
		}
		sb.WriteString(" " + apply(style.Type, desc))
	}
	sb.WriteByte('\n')

	for _, a := range n.Attributes {
		sb.WriteString(strings.Repeat(" ", level*2+1))
		label := fmt.Sprintf("%s:%s", n.Name, a.Name)
		sb.WriteString(apply(style.Attribute, label))
		fmt.Fprintf(&sb, " %s[%d] %s\n", a.Type, a.Len(), a)
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.print(w, style, level+1); err != nil {
			return err
		}
	}
	return nil
}
