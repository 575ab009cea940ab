package message

import (
	"github.com/robert-malhotra/go-minc/internal/binary"
)

// SymbolTable points to the v1 B-tree and local heap that hold a legacy
// group's members (type 0x0011).
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func decodeSymbolTable(c *binary.Cursor) (*SymbolTable, error) {
	var (
		m   SymbolTable
		err error
	)
	if m.BTreeAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if m.LocalHeapAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	return &m, nil
}
