package hdf5

import (
	"errors"
	"path"
)

// WalkFunc is called for each node during traversal with the node's path
// from the walk's starting node ("/" for the start itself). Returning
// ErrStopWalk ends the walk early without error.
type WalkFunc func(path string, n *Node) error

// Walk visits root and all its descendants depth-first, parents before
// children and children in declaration order.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	if err := walkNode("/", root, fn); err != nil && !IsStopWalk(err) {
		return err
	}
	return nil
}

func walkNode(p string, n *Node, fn WalkFunc) error {
	if err := fn(p, n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walkNode(path.Join(p, c.Name), c, fn); err != nil {
			return err
		}
	}
	return nil
}

// AttrInfo describes one attribute during WalkAttrs.
type AttrInfo struct {
	// Path is the full attribute path, e.g. "/minc-2.0/image/0/image@valid_range".
	Path string

	// ObjectPath is the path of the node carrying the attribute.
	ObjectPath string

	Name string
	Attr *Attribute
	Node *Node
}

// WalkAttrsFunc is the callback type for WalkAttrs.
type WalkAttrsFunc func(info AttrInfo) error

// WalkAttrs visits every attribute under root in the same order as Walk,
// a node's own attributes before those of its children.
func WalkAttrs(root *Node, fn WalkAttrsFunc) error {
	return Walk(root, func(p string, n *Node) error {
		for _, a := range n.Attributes {
			err := fn(AttrInfo{
				Path:       JoinAttrPath(p, a.Name),
				ObjectPath: p,
				Name:       a.Name,
				Attr:       a,
				Node:       n,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ErrStopWalk can be returned from a walk callback to stop walking without
// an error.
var ErrStopWalk = errors.New("walk stopped")

// IsStopWalk reports whether err is ErrStopWalk.
func IsStopWalk(err error) bool {
	return errors.Is(err, ErrStopWalk)
}
